package services

import (
	"errors"
	"fmt"

	"github.com/yukikurage/athlete-performance-api/internal/access"
	"github.com/yukikurage/athlete-performance-api/internal/models"
	"github.com/yukikurage/athlete-performance-api/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrInvalidRole          = errors.New("role is invalid")
	ErrCannotDemoteYourself = errors.New("cannot remove your own site admin access")
)

// UserService backs site-wide user management.
type UserService struct {
	userRepo    repository.UserRepository
	athleteRepo repository.AthleteRepository
}

func NewUserService(userRepo repository.UserRepository, athleteRepo repository.AthleteRepository) *UserService {
	return &UserService{userRepo: userRepo, athleteRepo: athleteRepo}
}

// ListUsersInput filters the user list.
type ListUsersInput struct {
	Search   string
	Page     int
	PageSize int
}

func (s *UserService) ListUsers(scope access.Scope, input ListUsersInput) ([]models.User, int64, error) {
	if !scope.CanManageUsers() {
		return nil, 0, ErrAccessDenied
	}

	users, total, err := s.userRepo.List(repository.UserFilter{
		Search:   input.Search,
		Page:     input.Page,
		PageSize: input.PageSize,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	return users, total, nil
}

// UpdateUserInput carries optional changes; nil fields are left alone.
// ClearAthlete unlinks the athlete record.
type UpdateUserInput struct {
	Role         *models.Role
	IsSiteAdmin  *bool
	AthleteID    *uint64
	ClearAthlete bool
}

func (s *UserService) UpdateUser(scope access.Scope, userID uint64, input UpdateUserInput) (*models.User, Affected, error) {
	if !scope.CanManageUsers() {
		return nil, nil, ErrAccessDenied
	}

	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrUserNotFound
		}
		return nil, nil, fmt.Errorf("failed to find user: %w", err)
	}

	if input.Role != nil {
		if !access.Role(*input.Role).Valid() {
			return nil, nil, ErrInvalidRole
		}
		user.Role = *input.Role
	}
	if input.IsSiteAdmin != nil {
		if !*input.IsSiteAdmin && user.ID == scope.UserID {
			return nil, nil, ErrCannotDemoteYourself
		}
		user.IsSiteAdmin = *input.IsSiteAdmin
	}
	if input.ClearAthlete {
		user.AthleteID = nil
	} else if input.AthleteID != nil {
		if _, err := s.athleteRepo.FindByID(*input.AthleteID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, nil, ErrAthleteNotFound
			}
			return nil, nil, fmt.Errorf("failed to find athlete: %w", err)
		}
		user.AthleteID = input.AthleteID
	}

	if err := s.userRepo.Update(user); err != nil {
		return nil, nil, fmt.Errorf("failed to update user: %w", err)
	}

	return user, newAffected(KeyUsers), nil
}
