package models

import (
	"time"

	"github.com/yukikurage/athlete-performance-api/internal/stats"
	"gorm.io/gorm"
)

type Measurement struct {
	ID             uint64         `gorm:"primarykey" json:"id"`
	AthleteID      uint64         `gorm:"not null;index" json:"athlete_id"`
	OrganizationID uint64         `gorm:"not null;index" json:"organization_id"`
	Metric         stats.Metric   `gorm:"type:varchar(32);not null;index" json:"metric"`
	Value          float64        `gorm:"not null" json:"value"`
	Units          string         `gorm:"type:varchar(10)" json:"units"`
	Date           time.Time      `gorm:"not null;index" json:"date"`
	Age            *int           `json:"age"`
	FlyInDistance  *float64       `json:"fly_in_distance"`
	Notes          string         `gorm:"type:text" json:"notes"`
	SubmittedByID  uint64         `gorm:"not null" json:"submitted_by_id"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Athlete Athlete `gorm:"foreignKey:AthleteID" json:"athlete,omitempty"`
}

// Entry converts the measurement into the calculator's input shape.
func (m Measurement) Entry() stats.Entry {
	return stats.Entry{
		ID:        m.ID,
		AthleteID: m.AthleteID,
		Metric:    m.Metric,
		Value:     m.Value,
		Date:      m.Date,
	}
}
