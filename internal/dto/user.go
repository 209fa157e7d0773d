package dto

import (
	"time"

	"github.com/yukikurage/athlete-performance-api/internal/models"
)

// UserDTO represents a user in API responses
type UserDTO struct {
	ID          uint64      `json:"id"`
	Username    string      `json:"username"`
	Email       string      `json:"email"`
	Role        models.Role `json:"role"`
	IsSiteAdmin bool        `json:"is_site_admin"`
	AthleteID   *uint64     `json:"athlete_id"`
	CreatedAt   time.Time   `json:"created_at"`
}

// UserListResponse represents a paginated list of users
type UserListResponse struct {
	Users      []UserDTO     `json:"users"`
	Pagination PaginationDTO `json:"pagination"`
}

// PaginationDTO is the pagination block of list responses
type PaginationDTO struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
}

// MutationResponse wraps a changed resource with the keys clients must refetch
type MutationResponse[T any] struct {
	Data     T        `json:"data"`
	Affected []string `json:"affected"`
}

// AffectedResponse is returned by deletes
type AffectedResponse struct {
	Affected []string `json:"affected"`
}

// ToUserDTO converts a User model to UserDTO
func ToUserDTO(user models.User) UserDTO {
	return UserDTO{
		ID:          user.ID,
		Username:    user.Username,
		Email:       user.Email,
		Role:        user.Role,
		IsSiteAdmin: user.IsSiteAdmin,
		AthleteID:   user.AthleteID,
		CreatedAt:   user.CreatedAt,
	}
}

// ToUserDTOs converts a slice of users
func ToUserDTOs(users []models.User) []UserDTO {
	out := make([]UserDTO, len(users))
	for i, u := range users {
		out[i] = ToUserDTO(u)
	}
	return out
}

// NewMutationResponse pairs data with its affected keys, never null
func NewMutationResponse[T any](data T, affected []string) MutationResponse[T] {
	return MutationResponse[T]{Data: data, Affected: nonNil(affected)}
}

// NewAffectedResponse builds a delete response
func NewAffectedResponse(affected []string) AffectedResponse {
	return AffectedResponse{Affected: nonNil(affected)}
}

func nonNil(keys []string) []string {
	if keys == nil {
		return []string{}
	}
	return keys
}
