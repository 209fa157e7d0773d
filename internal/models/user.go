package models

import (
	"time"

	"gorm.io/gorm"
)

type Role string

const (
	RoleAthlete   Role = "athlete"
	RoleCoach     Role = "coach"
	RoleOrgAdmin  Role = "org_admin"
	RoleSiteAdmin Role = "site_admin"
)

type User struct {
	ID           uint64         `gorm:"primarykey" json:"id"`
	Username     string         `gorm:"type:varchar(100);uniqueIndex;not null" json:"username"`
	Email        string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	PasswordHash string         `gorm:"type:varchar(255);not null" json:"-"`
	Role         Role           `gorm:"type:varchar(20);not null;default:'athlete'" json:"role"`
	IsSiteAdmin  bool           `gorm:"not null;default:false" json:"is_site_admin"`
	AthleteID    *uint64        `json:"athlete_id"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Organizations []OrganizationMember `gorm:"foreignKey:UserID" json:"-"`
}
