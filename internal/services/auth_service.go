package services

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/yukikurage/athlete-performance-api/internal/access"
	"github.com/yukikurage/athlete-performance-api/internal/constants"
	"github.com/yukikurage/athlete-performance-api/internal/models"
	"github.com/yukikurage/athlete-performance-api/internal/repository"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrUsernameTaken        = errors.New("username already exists")
	ErrEmailTaken           = errors.New("email already registered")
	ErrInvalidCredentials   = errors.New("invalid username or password")
	ErrPasswordTooShort     = errors.New("password too short")
	ErrUsernameRequired     = errors.New("username is required")
	ErrInvalidEmail         = errors.New("email is invalid")
	ErrUserNotFound         = errors.New("user not found")
	ErrFailedToHashPassword = errors.New("failed to hash password")
	ErrFailedToCreateUser   = errors.New("failed to create user")
)

// AuthService handles authentication related business logic.
type AuthService struct {
	userRepo       repository.UserRepository
	invitationRepo repository.InvitationRepository
	now            func() time.Time
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repository.UserRepository, invitationRepo repository.InvitationRepository) *AuthService {
	return &AuthService{
		userRepo:       userRepo,
		invitationRepo: invitationRepo,
		now:            time.Now,
	}
}

// SignupInput represents the required information to create a new user.
type SignupInput struct {
	Username        string
	Email           string
	Password        string
	InvitationToken string
}

// Signup creates a new user. With an invitation token the account joins the
// inviting organization with the invited role; without one it is an athlete
// account with no organization.
func (s *AuthService) Signup(input SignupInput) (*models.User, error) {
	username := strings.TrimSpace(input.Username)
	if username == "" {
		return nil, ErrUsernameRequired
	}
	email := normalizeEmail(input.Email)
	if !validEmail(email) {
		return nil, ErrInvalidEmail
	}
	if len(input.Password) < constants.MinPasswordLength {
		return nil, ErrPasswordTooShort
	}

	if _, err := s.userRepo.FindByUsername(username); err == nil {
		return nil, ErrUsernameTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}
	if _, err := s.userRepo.FindByEmail(email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	var inv *models.Invitation
	if token := strings.TrimSpace(input.InvitationToken); token != "" {
		found, err := s.outstandingInvitation(token, email)
		if err != nil {
			return nil, err
		}
		inv = found
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, ErrFailedToHashPassword
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hashedPassword),
		Role:         models.RoleAthlete,
	}

	if inv == nil {
		if err := s.userRepo.Create(user); err != nil {
			return nil, ErrFailedToCreateUser
		}
		return user, nil
	}

	user.Role = inv.Role
	user.AthleteID = inv.AthleteID
	member := &models.OrganizationMember{Role: inv.Role, JoinedAt: s.now()}
	if err := s.invitationRepo.Accept(inv, user, member); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvitationNotFound
		}
		return nil, fmt.Errorf("failed to complete signup: %w", err)
	}

	return user, nil
}

func (s *AuthService) outstandingInvitation(token, email string) (*models.Invitation, error) {
	inv, err := s.invitationRepo.FindByToken(token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvitationNotFound
		}
		return nil, fmt.Errorf("failed to find invitation: %w", err)
	}
	if !inv.Outstanding(s.now()) {
		return nil, ErrInvitationExpired
	}
	if inv.Email != email {
		return nil, ErrInvitationEmailMismatch
	}
	return inv, nil
}

// LoginInput holds the credentials for authentication.
type LoginInput struct {
	Username string
	Password string
}

// Login verifies credentials and returns the authenticated user. The
// username field also accepts the account's email.
func (s *AuthService) Login(input LoginInput) (*models.User, error) {
	find := s.userRepo.FindByUsername
	if strings.Contains(input.Username, "@") {
		find = s.userRepo.FindByEmail
	}

	user, err := find(strings.TrimSpace(input.Username))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// GetUser retrieves a user by ID.
func (s *AuthService) GetUser(id uint64) (*models.User, error) {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	return user, nil
}

// BuildPrincipal loads the user and memberships the scope resolver needs.
func (s *AuthService) BuildPrincipal(userID uint64) (*models.User, *access.Principal, error) {
	user, err := s.GetUser(userID)
	if err != nil {
		return nil, nil, err
	}

	memberships, err := s.userRepo.ListMemberships(userID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list memberships: %w", err)
	}

	p := &access.Principal{
		UserID:      user.ID,
		Role:        access.Role(user.Role),
		IsSiteAdmin: user.IsSiteAdmin,
		AthleteID:   user.AthleteID,
		Memberships: make([]access.Membership, 0, len(memberships)),
	}
	for _, m := range memberships {
		p.Memberships = append(p.Memberships, access.Membership{
			OrganizationID: m.OrganizationID,
			Role:           access.Role(m.Role),
			Inactive:       !m.Organization.IsActive,
		})
	}

	return user, p, nil
}

// HashPassword is used by the seeder and user management.
func HashPassword(password string) (string, error) {
	if len(password) < constants.MinPasswordLength {
		return "", ErrPasswordTooShort
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", ErrFailedToHashPassword
	}
	return string(hashed), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}
