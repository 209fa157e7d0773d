package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/yukikurage/athlete-performance-api/internal/access"
	"github.com/yukikurage/athlete-performance-api/internal/models"
	"github.com/yukikurage/athlete-performance-api/internal/repository"
	"github.com/yukikurage/athlete-performance-api/internal/utils"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrInvitationNotFound      = errors.New("invitation not found")
	ErrInvitationExpired       = errors.New("invitation has expired or was already used")
	ErrInvitationPending       = errors.New("an invitation for this email is already pending")
	ErrInvitationEmailMismatch = errors.New("invitation was sent to a different email")
	ErrInvitationRole          = errors.New("invitations may only grant athlete, coach or org_admin")
	ErrTokenGenerationFailed   = errors.New("failed to generate invitation token")
)

// InvitationService sends and accepts organization invitations.
type InvitationService struct {
	invitationRepo repository.InvitationRepository
	orgRepo        repository.OrganizationRepository
	userRepo       repository.UserRepository
	athleteRepo    repository.AthleteRepository
	ttl            time.Duration
	log            *zap.Logger
	now            func() time.Time
}

func NewInvitationService(
	invitationRepo repository.InvitationRepository,
	orgRepo repository.OrganizationRepository,
	userRepo repository.UserRepository,
	athleteRepo repository.AthleteRepository,
	ttl time.Duration,
	log *zap.Logger,
) *InvitationService {
	return &InvitationService{
		invitationRepo: invitationRepo,
		orgRepo:        orgRepo,
		userRepo:       userRepo,
		athleteRepo:    athleteRepo,
		ttl:            ttl,
		log:            log,
		now:            time.Now,
	}
}

// CreateInvitationInput describes who is invited and as what.
type CreateInvitationInput struct {
	OrganizationID *uint64
	Email          string
	Role           models.Role
	AthleteID      *uint64
}

// CreateInvitation issues a new token. Only one outstanding invitation per
// email and organization may exist.
func (s *InvitationService) CreateInvitation(scope access.Scope, input CreateInvitationInput) (*models.Invitation, Affected, error) {
	orgID, err := organizationFor(scope, input.OrganizationID)
	if err != nil {
		return nil, nil, err
	}
	if !scope.CanManageOrganization(orgID) {
		return nil, nil, ErrAccessDenied
	}
	if _, err := s.orgRepo.FindByID(orgID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrOrganizationNotFound
		}
		return nil, nil, fmt.Errorf("failed to find organization: %w", err)
	}

	switch input.Role {
	case models.RoleAthlete, models.RoleCoach, models.RoleOrgAdmin:
	default:
		return nil, nil, ErrInvitationRole
	}

	email := normalizeEmail(input.Email)
	if !validEmail(email) {
		return nil, nil, ErrInvalidEmail
	}

	now := s.now()
	if _, err := s.invitationRepo.FindOutstanding(email, orgID, now); err == nil {
		return nil, nil, ErrInvitationPending
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, fmt.Errorf("failed to check invitations: %w", err)
	}

	if user, err := s.userRepo.FindByEmail(email); err == nil {
		if _, err := s.orgRepo.FindMember(orgID, user.ID); err == nil {
			return nil, nil, ErrAlreadyOrganizationMember
		}
	}

	if input.AthleteID != nil {
		athlete, err := s.athleteRepo.FindByID(*input.AthleteID)
		if err != nil || athlete.OrganizationID != orgID {
			return nil, nil, ErrAthleteNotFound
		}
	}

	token, err := utils.GenerateInvitationToken()
	if err != nil {
		return nil, nil, ErrTokenGenerationFailed
	}

	inv := &models.Invitation{
		OrganizationID: orgID,
		Email:          email,
		Role:           input.Role,
		Token:          token,
		InvitedByID:    scope.UserID,
		AthleteID:      input.AthleteID,
		ExpiresAt:      now.Add(s.ttl),
	}
	if err := s.invitationRepo.Create(inv); err != nil {
		return nil, nil, fmt.Errorf("failed to create invitation: %w", err)
	}

	s.log.Info("invitation created",
		zap.Uint64("organization_id", orgID),
		zap.String("role", string(inv.Role)),
		zap.Uint64("invited_by", inv.InvitedByID),
	)

	return inv, newAffected(KeyInvitations), nil
}

// ListInvitations lists an organization's invitations, newest first.
func (s *InvitationService) ListInvitations(scope access.Scope, organizationID *uint64) ([]models.Invitation, error) {
	orgID, err := organizationFor(scope, organizationID)
	if err != nil {
		return nil, err
	}
	if !scope.CanManageOrganization(orgID) {
		return nil, ErrAccessDenied
	}

	invs, err := s.invitationRepo.ListByOrganization(orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list invitations: %w", err)
	}
	return invs, nil
}

// DeleteInvitation revokes an invitation.
func (s *InvitationService) DeleteInvitation(scope access.Scope, id uint64) (Affected, error) {
	inv, err := s.invitationRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvitationNotFound
		}
		return nil, fmt.Errorf("failed to find invitation: %w", err)
	}
	if !scope.CanManageOrganization(inv.OrganizationID) {
		return nil, ErrAccessDenied
	}

	if err := s.invitationRepo.Delete(id); err != nil {
		return nil, fmt.Errorf("failed to delete invitation: %w", err)
	}
	return newAffected(KeyInvitations), nil
}

// AcceptInvitation joins a signed-in user to the inviting organization.
// The user's role is raised to the invited role, never lowered.
func (s *InvitationService) AcceptInvitation(userID uint64, token string) (*models.Invitation, Affected, error) {
	inv, err := s.invitationRepo.FindByToken(token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrInvitationNotFound
		}
		return nil, nil, fmt.Errorf("failed to find invitation: %w", err)
	}
	if !inv.Outstanding(s.now()) {
		return nil, nil, ErrInvitationExpired
	}

	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrUserNotFound
		}
		return nil, nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user.Email != inv.Email {
		return nil, nil, ErrInvitationEmailMismatch
	}
	if _, err := s.orgRepo.FindMember(inv.OrganizationID, user.ID); err == nil {
		return nil, nil, ErrAlreadyOrganizationMember
	}

	if roleRank(inv.Role) > roleRank(user.Role) {
		user.Role = inv.Role
	}
	if user.AthleteID == nil && inv.AthleteID != nil {
		user.AthleteID = inv.AthleteID
	}

	member := &models.OrganizationMember{Role: inv.Role, JoinedAt: s.now()}
	if err := s.invitationRepo.Accept(inv, user, member); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrInvitationExpired
		}
		return nil, nil, fmt.Errorf("failed to accept invitation: %w", err)
	}

	s.log.Info("invitation accepted",
		zap.Uint64("organization_id", inv.OrganizationID),
		zap.Uint64("user_id", user.ID),
	)

	return inv, newAffected(KeyInvitations, KeyOrganizations, organizationKey(inv.OrganizationID), KeyUsers), nil
}

func roleRank(r models.Role) int {
	switch r {
	case models.RoleAthlete:
		return 1
	case models.RoleCoach:
		return 2
	case models.RoleOrgAdmin:
		return 3
	case models.RoleSiteAdmin:
		return 4
	}
	return 0
}
