package dto

import (
	"time"

	"github.com/yukikurage/athlete-performance-api/internal/models"
)

// TeamRefDTO is the short team form embedded in athletes
type TeamRefDTO struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
}

// TeamDTO represents a team in API responses
type TeamDTO struct {
	ID             uint64       `json:"id"`
	OrganizationID uint64       `json:"organization_id"`
	Name           string       `json:"name"`
	Level          string       `json:"level"`
	Season         string       `json:"season"`
	Notes          string       `json:"notes"`
	Athletes       []AthleteRef `json:"athletes,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
}

// AthleteRef is the short athlete form embedded in teams and measurements
type AthleteRef struct {
	ID        uint64 `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	FullName  string `json:"full_name"`
}

// AthleteDTO represents an athlete in API responses
type AthleteDTO struct {
	ID             uint64       `json:"id"`
	OrganizationID uint64       `json:"organization_id"`
	FirstName      string       `json:"first_name"`
	LastName       string       `json:"last_name"`
	FullName       string       `json:"full_name"`
	BirthDate      *string      `json:"birth_date"`
	BirthYear      *int         `json:"birth_year"`
	GraduationYear *int         `json:"graduation_year"`
	Gender         string       `json:"gender"`
	Email          string       `json:"email"`
	Phone          string       `json:"phone"`
	School         string       `json:"school"`
	Sports         string       `json:"sports"`
	Height         *float64     `json:"height"`
	Weight         *float64     `json:"weight"`
	Teams          []TeamRefDTO `json:"teams"`
	CreatedAt      time.Time    `json:"created_at"`
}

// AthleteListResponse represents a paginated list of athletes
type AthleteListResponse struct {
	Athletes   []AthleteDTO  `json:"athletes"`
	Pagination PaginationDTO `json:"pagination"`
}

// ToTeamDTO converts a Team model to TeamDTO
func ToTeamDTO(team models.Team) TeamDTO {
	dto := TeamDTO{
		ID:             team.ID,
		OrganizationID: team.OrganizationID,
		Name:           team.Name,
		Level:          team.Level,
		Season:         team.Season,
		Notes:          team.Notes,
		CreatedAt:      team.CreatedAt,
	}
	if len(team.Athletes) > 0 {
		dto.Athletes = make([]AthleteRef, len(team.Athletes))
		for i, a := range team.Athletes {
			dto.Athletes[i] = ToAthleteRef(a)
		}
	}
	return dto
}

// ToTeamDTOs converts a slice of teams
func ToTeamDTOs(teams []models.Team) []TeamDTO {
	out := make([]TeamDTO, len(teams))
	for i, t := range teams {
		out[i] = ToTeamDTO(t)
	}
	return out
}

// ToAthleteRef converts an Athlete model to its short form
func ToAthleteRef(a models.Athlete) AthleteRef {
	return AthleteRef{
		ID:        a.ID,
		FirstName: a.FirstName,
		LastName:  a.LastName,
		FullName:  a.FullName(),
	}
}

// ToAthleteDTO converts an Athlete model to AthleteDTO
func ToAthleteDTO(a models.Athlete) AthleteDTO {
	dto := AthleteDTO{
		ID:             a.ID,
		OrganizationID: a.OrganizationID,
		FirstName:      a.FirstName,
		LastName:       a.LastName,
		FullName:       a.FullName(),
		BirthYear:      a.BirthYear,
		GraduationYear: a.GraduationYear,
		Gender:         a.Gender,
		Email:          a.Email,
		Phone:          a.Phone,
		School:         a.School,
		Sports:         a.Sports,
		Height:         a.Height,
		Weight:         a.Weight,
		Teams:          make([]TeamRefDTO, len(a.Teams)),
		CreatedAt:      a.CreatedAt,
	}
	if a.BirthDate != nil {
		s := a.BirthDate.Format(DateLayout)
		dto.BirthDate = &s
	}
	for i, t := range a.Teams {
		dto.Teams[i] = TeamRefDTO{ID: t.ID, Name: t.Name}
	}
	return dto
}

// ToAthleteDTOs converts a slice of athletes
func ToAthleteDTOs(athletes []models.Athlete) []AthleteDTO {
	out := make([]AthleteDTO, len(athletes))
	for i, a := range athletes {
		out[i] = ToAthleteDTO(a)
	}
	return out
}
