package dto

import (
	"github.com/yukikurage/athlete-performance-api/internal/access"
	"github.com/yukikurage/athlete-performance-api/internal/navigation"
)

// ScopeDTO is the resolved access level as the dashboard reads it
type ScopeDTO struct {
	Kind            access.Kind `json:"kind"`
	OrganizationID  *uint64     `json:"organization_id"`
	AthleteID       *uint64     `json:"athlete_id"`
	Choices         []uint64    `json:"choices"`
	CanReturnToSite bool        `json:"can_return_to_site"`
	ReadOnly        bool        `json:"read_only"`
}

// SessionDTO is everything the dashboard shell needs after sign-in
type SessionDTO struct {
	User          *UserDTO          `json:"user"`
	Scope         ScopeDTO          `json:"scope"`
	Navigation    navigation.View   `json:"navigation"`
	Organizations []OrganizationDTO `json:"organizations"`
}

// ToScopeDTO only fills the fields that belong to the scope's kind
func ToScopeDTO(s access.Scope) ScopeDTO {
	dto := ScopeDTO{
		Kind:            s.Kind,
		Choices:         []uint64{},
		CanReturnToSite: s.CanReturnToSite(),
		ReadOnly:        s.ReadOnly,
	}
	if s.IsOrgScoped() {
		id := s.OrganizationID
		dto.OrganizationID = &id
	}
	if s.Kind == access.KindAthleteSelf && s.AthleteID != 0 {
		id := s.AthleteID
		dto.AthleteID = &id
	}
	if s.Kind == access.KindOrganizationSelection {
		dto.Choices = append(dto.Choices, s.Choices...)
	}
	return dto
}
