package models

import "time"

type Invitation struct {
	ID             uint64     `gorm:"primarykey" json:"id"`
	OrganizationID uint64     `gorm:"not null;index:idx_invitations_email_org" json:"organization_id"`
	Email          string     `gorm:"type:varchar(255);not null;index:idx_invitations_email_org" json:"email"`
	Role           Role       `gorm:"type:varchar(20);not null" json:"role"`
	Token          string     `gorm:"type:varchar(64);uniqueIndex;not null" json:"-"`
	InvitedByID    uint64     `gorm:"not null" json:"invited_by_id"`
	AthleteID      *uint64    `json:"athlete_id"`
	ExpiresAt      time.Time  `gorm:"not null" json:"expires_at"`
	AcceptedAt     *time.Time `json:"accepted_at"`
	CreatedAt      time.Time  `json:"created_at"`

	// Relations
	Organization Organization `gorm:"foreignKey:OrganizationID" json:"organization,omitempty"`
}

// Outstanding reports whether the invitation can still be accepted at now.
func (i Invitation) Outstanding(now time.Time) bool {
	return i.AcceptedAt == nil && now.Before(i.ExpiresAt)
}
