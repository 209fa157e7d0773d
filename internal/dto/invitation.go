package dto

import (
	"time"

	"github.com/yukikurage/athlete-performance-api/internal/models"
)

// InvitationDTO represents an invitation in API responses. Token is only
// filled in the response to the request that created it.
type InvitationDTO struct {
	ID             uint64      `json:"id"`
	OrganizationID uint64      `json:"organization_id"`
	Email          string      `json:"email"`
	Role           models.Role `json:"role"`
	AthleteID      *uint64     `json:"athlete_id"`
	InvitedByID    uint64      `json:"invited_by_id"`
	Token          string      `json:"token,omitempty"`
	Status         string      `json:"status"`
	ExpiresAt      time.Time   `json:"expires_at"`
	AcceptedAt     *time.Time  `json:"accepted_at"`
	CreatedAt      time.Time   `json:"created_at"`
}

// Invitation statuses
const (
	InvitationPending  = "pending"
	InvitationAccepted = "accepted"
	InvitationExpired  = "expired"
)

// ToInvitationDTO converts an invitation without its token
func ToInvitationDTO(inv models.Invitation, now time.Time) InvitationDTO {
	status := InvitationPending
	switch {
	case inv.AcceptedAt != nil:
		status = InvitationAccepted
	case !inv.Outstanding(now):
		status = InvitationExpired
	}
	return InvitationDTO{
		ID:             inv.ID,
		OrganizationID: inv.OrganizationID,
		Email:          inv.Email,
		Role:           inv.Role,
		AthleteID:      inv.AthleteID,
		InvitedByID:    inv.InvitedByID,
		Status:         status,
		ExpiresAt:      inv.ExpiresAt,
		AcceptedAt:     inv.AcceptedAt,
		CreatedAt:      inv.CreatedAt,
	}
}

func ToInvitationDTOs(invs []models.Invitation, now time.Time) []InvitationDTO {
	out := make([]InvitationDTO, len(invs))
	for i, inv := range invs {
		out[i] = ToInvitationDTO(inv, now)
	}
	return out
}
