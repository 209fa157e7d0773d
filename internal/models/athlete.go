package models

import (
	"time"

	"gorm.io/gorm"
)

type Athlete struct {
	ID             uint64         `gorm:"primarykey" json:"id"`
	OrganizationID uint64         `gorm:"not null;index" json:"organization_id"`
	FirstName      string         `gorm:"type:varchar(100);not null" json:"first_name"`
	LastName       string         `gorm:"type:varchar(100);not null" json:"last_name"`
	BirthDate      *time.Time     `json:"birth_date"`
	BirthYear      *int           `json:"birth_year"`
	GraduationYear *int           `json:"graduation_year"`
	Gender         string         `gorm:"type:varchar(20)" json:"gender"`
	Email          string         `gorm:"type:varchar(255)" json:"email"`
	Phone          string         `gorm:"type:varchar(50)" json:"phone"`
	School         string         `gorm:"type:varchar(255)" json:"school"`
	Sports         string         `gorm:"type:varchar(255)" json:"sports"`
	Height         *float64       `json:"height"`
	Weight         *float64       `json:"weight"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Organization Organization `gorm:"foreignKey:OrganizationID" json:"-"`
	Teams        []Team       `gorm:"many2many:athlete_teams" json:"teams,omitempty"`
}

// FullName joins first and last name.
func (a Athlete) FullName() string {
	return a.FirstName + " " + a.LastName
}

// AgeOn returns the athlete's age in whole years on day, or nil when the
// birth date is unknown.
func (a Athlete) AgeOn(day time.Time) *int {
	if a.BirthDate == nil {
		return nil
	}
	bd := *a.BirthDate
	years := day.Year() - bd.Year()
	if day.Month() < bd.Month() || (day.Month() == bd.Month() && day.Day() < bd.Day()) {
		years--
	}
	return &years
}
