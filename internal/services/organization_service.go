package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yukikurage/athlete-performance-api/internal/access"
	"github.com/yukikurage/athlete-performance-api/internal/models"
	"github.com/yukikurage/athlete-performance-api/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrOrganizationNotFound       = errors.New("organization not found")
	ErrInvalidOrganizationName    = errors.New("organization name cannot be empty")
	ErrAlreadyOrganizationMember  = errors.New("user is already a member of this organization")
	ErrCannotRemoveYourself       = errors.New("cannot remove yourself from the organization")
	ErrOrganizationMemberNotFound = errors.New("organization member not found")
)

// OrganizationService provides business logic for organization operations.
type OrganizationService struct {
	orgRepo  repository.OrganizationRepository
	userRepo repository.UserRepository
}

// NewOrganizationService creates a new OrganizationService.
func NewOrganizationService(orgRepo repository.OrganizationRepository, userRepo repository.UserRepository) *OrganizationService {
	return &OrganizationService{
		orgRepo:  orgRepo,
		userRepo: userRepo,
	}
}

// CreateOrganizationInput represents parameters to create a new organization.
type CreateOrganizationInput struct {
	Name        string
	Description string
	// AdminUserID optionally makes an existing user the first org admin.
	AdminUserID *uint64
}

// CreateOrganization creates a new organization. Site admins only.
func (s *OrganizationService) CreateOrganization(scope access.Scope, input CreateOrganizationInput) (*models.Organization, Affected, error) {
	if !scope.IsSiteAdmin() {
		return nil, nil, ErrAccessDenied
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, nil, ErrInvalidOrganizationName
	}

	if input.AdminUserID != nil {
		if _, err := s.userRepo.FindByID(*input.AdminUserID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, nil, ErrUserNotFound
			}
			return nil, nil, fmt.Errorf("failed to find user: %w", err)
		}
	}

	org := &models.Organization{
		Name:        name,
		Description: strings.TrimSpace(input.Description),
		IsActive:    true,
	}
	if err := s.orgRepo.Create(org); err != nil {
		return nil, nil, fmt.Errorf("failed to create organization: %w", err)
	}

	affected := newAffected(KeyOrganizations)
	if input.AdminUserID != nil {
		member := &models.OrganizationMember{
			OrganizationID: org.ID,
			UserID:         *input.AdminUserID,
			Role:           models.RoleOrgAdmin,
			JoinedAt:       time.Now(),
		}
		if err := s.orgRepo.AddMember(member); err != nil {
			return nil, nil, fmt.Errorf("failed to add admin to organization: %w", err)
		}
		affected = affected.add(KeyUsers)
	}

	return org, affected, nil
}

// ListOrganizations returns every organization for site admins and the
// user's own organizations for everyone else.
func (s *OrganizationService) ListOrganizations(scope access.Scope) ([]models.Organization, error) {
	if !scope.Authenticated() {
		return nil, ErrAccessDenied
	}

	var ids []uint64
	if !scope.IsSiteAdmin() {
		memberships, err := s.userRepo.ListMemberships(scope.UserID)
		if err != nil {
			return nil, fmt.Errorf("failed to list organizations: %w", err)
		}
		ids = make([]uint64, 0, len(memberships))
		for _, m := range memberships {
			ids = append(ids, m.OrganizationID)
		}
	}

	orgs, err := s.orgRepo.List(ids)
	if err != nil {
		return nil, fmt.Errorf("failed to list organizations: %w", err)
	}
	return orgs, nil
}

// GetOrganization returns an organization visible in scope.
func (s *OrganizationService) GetOrganization(scope access.Scope, orgID uint64) (*models.Organization, error) {
	org, err := s.find(orgID)
	if err != nil {
		return nil, err
	}
	if !scope.CanAccessOrganization(orgID) {
		return nil, ErrAccessDenied
	}
	return org, nil
}

// UpdateOrganizationInput carries optional profile changes.
type UpdateOrganizationInput struct {
	Name        *string
	Description *string
}

// UpdateOrganization updates an organization's profile.
func (s *OrganizationService) UpdateOrganization(scope access.Scope, orgID uint64, input UpdateOrganizationInput) (*models.Organization, Affected, error) {
	org, err := s.find(orgID)
	if err != nil {
		return nil, nil, err
	}
	if !scope.CanManageOrganization(orgID) {
		return nil, nil, ErrAccessDenied
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, nil, ErrInvalidOrganizationName
		}
		org.Name = name
	}
	if input.Description != nil {
		org.Description = strings.TrimSpace(*input.Description)
	}

	if err := s.orgRepo.Update(org); err != nil {
		return nil, nil, fmt.Errorf("failed to update organization: %w", err)
	}

	return org, newAffected(KeyOrganizations, organizationKey(orgID)), nil
}

// SetStatus activates or deactivates an organization and returns the
// previous state so the caller can roll back an optimistic toggle.
func (s *OrganizationService) SetStatus(scope access.Scope, orgID uint64, active bool) (bool, Affected, error) {
	if !scope.IsSiteAdmin() {
		return false, nil, ErrAccessDenied
	}

	previous, err := s.orgRepo.SetActive(orgID, active)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil, ErrOrganizationNotFound
		}
		return false, nil, fmt.Errorf("failed to update organization status: %w", err)
	}

	return previous, newAffected(KeyOrganizations, organizationKey(orgID)), nil
}

// DeleteOrganization removes an organization and everything in it.
func (s *OrganizationService) DeleteOrganization(scope access.Scope, orgID uint64) (Affected, error) {
	if !scope.IsSiteAdmin() {
		return nil, ErrAccessDenied
	}
	if _, err := s.find(orgID); err != nil {
		return nil, err
	}

	if err := s.orgRepo.Delete(orgID); err != nil {
		return nil, fmt.Errorf("failed to delete organization: %w", err)
	}

	return newAffected(
		KeyOrganizations, organizationKey(orgID), KeyTeams, KeyAthletes,
		KeyMeasurements, KeyDashboardStats, KeyInvitations, KeyUsers,
	), nil
}

// ListMembers returns the organization's members with their users.
func (s *OrganizationService) ListMembers(scope access.Scope, orgID uint64) ([]models.OrganizationMember, error) {
	if _, err := s.find(orgID); err != nil {
		return nil, err
	}
	if !scope.CanAccessOrganization(orgID) {
		return nil, ErrAccessDenied
	}

	members, err := s.orgRepo.ListMembers(orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list organization members: %w", err)
	}
	return members, nil
}

// RemoveMember removes a member from the organization.
func (s *OrganizationService) RemoveMember(scope access.Scope, orgID, targetID uint64) (Affected, error) {
	if !scope.CanManageOrganization(orgID) {
		return nil, ErrAccessDenied
	}
	if targetID == scope.UserID {
		return nil, ErrCannotRemoveYourself
	}

	if _, err := s.orgRepo.FindMember(orgID, targetID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrganizationMemberNotFound
		}
		return nil, fmt.Errorf("failed to find organization member: %w", err)
	}

	if err := s.orgRepo.RemoveMember(orgID, targetID); err != nil {
		return nil, fmt.Errorf("failed to remove member: %w", err)
	}

	return newAffected(organizationKey(orgID), KeyUsers), nil
}

// Exists reports whether orgID names an organization.
func (s *OrganizationService) Exists(orgID uint64) error {
	_, err := s.find(orgID)
	return err
}

func (s *OrganizationService) find(orgID uint64) (*models.Organization, error) {
	org, err := s.orgRepo.FindByID(orgID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrganizationNotFound
		}
		return nil, fmt.Errorf("failed to find organization: %w", err)
	}
	return org, nil
}
