package dto

import (
	"time"

	"github.com/yukikurage/athlete-performance-api/internal/models"
	"github.com/yukikurage/athlete-performance-api/internal/stats"
)

// DateLayout is the calendar-day format used in requests and responses.
const DateLayout = "2006-01-02"

// MeasurementDTO represents a measurement in API responses
type MeasurementDTO struct {
	ID             uint64       `json:"id"`
	AthleteID      uint64       `json:"athlete_id"`
	OrganizationID uint64       `json:"organization_id"`
	Metric         stats.Metric `json:"metric"`
	MetricLabel    string       `json:"metric_label"`
	Value          float64      `json:"value"`
	Units          string       `json:"units"`
	Date           string       `json:"date"`
	Age            *int         `json:"age"`
	FlyInDistance  *float64     `json:"fly_in_distance"`
	Notes          string       `json:"notes"`
	SubmittedByID  uint64       `json:"submitted_by_id"`
	CreatedAt      time.Time    `json:"created_at"`
	Athlete        *AthleteRef  `json:"athlete,omitempty"`
}

// MeasurementListResponse represents a paginated list of measurements
type MeasurementListResponse struct {
	Measurements []MeasurementDTO `json:"measurements"`
	Pagination   PaginationDTO    `json:"pagination"`
}

// ToMeasurementDTO converts a Measurement model to MeasurementDTO
func ToMeasurementDTO(m models.Measurement) MeasurementDTO {
	dto := MeasurementDTO{
		ID:             m.ID,
		AthleteID:      m.AthleteID,
		OrganizationID: m.OrganizationID,
		Metric:         m.Metric,
		MetricLabel:    m.Metric.Label(),
		Value:          m.Value,
		Units:          m.Units,
		Date:           m.Date.Format(DateLayout),
		Age:            m.Age,
		FlyInDistance:  m.FlyInDistance,
		Notes:          m.Notes,
		SubmittedByID:  m.SubmittedByID,
		CreatedAt:      m.CreatedAt,
	}
	if m.Athlete.ID != 0 {
		ref := ToAthleteRef(m.Athlete)
		dto.Athlete = &ref
	}
	return dto
}

// ToMeasurementDTOs converts a slice of measurements
func ToMeasurementDTOs(ms []models.Measurement) []MeasurementDTO {
	out := make([]MeasurementDTO, len(ms))
	for i, m := range ms {
		out[i] = ToMeasurementDTO(m)
	}
	return out
}
