package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yukikurage/athlete-performance-api/internal/access"
	"github.com/yukikurage/athlete-performance-api/internal/models"
	"github.com/yukikurage/athlete-performance-api/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrAthleteNotFound     = errors.New("athlete not found")
	ErrAthleteNameRequired = errors.New("first and last name are required")
	ErrTeamOutsideOrg      = errors.New("team belongs to another organization")
)

// AthleteService manages athlete records.
type AthleteService struct {
	athleteRepo repository.AthleteRepository
	teamRepo    repository.TeamRepository
}

func NewAthleteService(athleteRepo repository.AthleteRepository, teamRepo repository.TeamRepository) *AthleteService {
	return &AthleteService{
		athleteRepo: athleteRepo,
		teamRepo:    teamRepo,
	}
}

// ListAthletesInput filters the athlete list.
type ListAthletesInput struct {
	OrganizationID *uint64
	TeamID         *uint64
	Search         string
	Page           int
	PageSize       int
}

// ListAthletes returns athletes visible in scope. An athlete sees only
// their own record.
func (s *AthleteService) ListAthletes(scope access.Scope, input ListAthletesInput) ([]models.Athlete, int64, error) {
	if scope.Kind == access.KindAthleteSelf {
		if scope.AthleteID == 0 {
			return []models.Athlete{}, 0, nil
		}
		athlete, err := s.find(scope.AthleteID)
		if errors.Is(err, ErrAthleteNotFound) {
			return []models.Athlete{}, 0, nil
		}
		if err != nil {
			return nil, 0, err
		}
		return []models.Athlete{*athlete}, 1, nil
	}

	orgFilter, err := organizationFilterFor(scope, input.OrganizationID)
	if err != nil {
		return nil, 0, err
	}

	athletes, total, err := s.athleteRepo.List(repository.AthleteFilter{
		OrganizationID: orgFilter,
		TeamID:         input.TeamID,
		Search:         input.Search,
		Page:           input.Page,
		PageSize:       input.PageSize,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list athletes: %w", err)
	}
	return athletes, total, nil
}

// GetAthlete returns an athlete visible in scope.
func (s *AthleteService) GetAthlete(scope access.Scope, athleteID uint64) (*models.Athlete, error) {
	athlete, err := s.find(athleteID)
	if err != nil {
		return nil, err
	}
	if !scope.CanAccessAthlete(athlete.ID, athlete.OrganizationID) {
		return nil, ErrAccessDenied
	}
	return athlete, nil
}

// AthleteInput holds athlete fields. TeamIDs replaces the athlete's teams
// when non-nil.
type AthleteInput struct {
	OrganizationID *uint64
	FirstName      string
	LastName       string
	BirthDate      *time.Time
	BirthYear      *int
	GraduationYear *int
	Gender         string
	Email          string
	Phone          string
	School         string
	Sports         string
	Height         *float64
	Weight         *float64
	TeamIDs        []uint64
}

func (s *AthleteService) CreateAthlete(scope access.Scope, input AthleteInput) (*models.Athlete, Affected, error) {
	if !scope.CanManageRoster() {
		return nil, nil, ErrAccessDenied
	}
	orgID, err := organizationFor(scope, input.OrganizationID)
	if err != nil {
		return nil, nil, err
	}

	athlete := &models.Athlete{OrganizationID: orgID}
	if err := applyAthleteInput(athlete, input); err != nil {
		return nil, nil, err
	}

	teams, err := s.teamsInOrganization(orgID, input.TeamIDs)
	if err != nil {
		return nil, nil, err
	}

	if err := s.athleteRepo.Create(athlete); err != nil {
		return nil, nil, fmt.Errorf("failed to create athlete: %w", err)
	}
	if len(teams) > 0 {
		if err := s.athleteRepo.ReplaceTeams(athlete, teams); err != nil {
			return nil, nil, fmt.Errorf("failed to assign teams: %w", err)
		}
	}

	affected := newAffected(KeyAthletes, KeyDashboardStats)
	for _, t := range teams {
		affected = affected.add(teamKey(t.ID))
	}
	return athlete, affected, nil
}

func (s *AthleteService) UpdateAthlete(scope access.Scope, athleteID uint64, input AthleteInput) (*models.Athlete, Affected, error) {
	athlete, err := s.find(athleteID)
	if err != nil {
		return nil, nil, err
	}
	if !scope.CanManageRoster() || !scope.CanAccessOrganization(athlete.OrganizationID) {
		return nil, nil, ErrAccessDenied
	}

	previousTeams := athlete.Teams
	if err := applyAthleteInput(athlete, input); err != nil {
		return nil, nil, err
	}
	if err := s.athleteRepo.Update(athlete); err != nil {
		return nil, nil, fmt.Errorf("failed to update athlete: %w", err)
	}

	affected := newAffected(KeyAthletes, athleteKey(athlete.ID))
	if input.TeamIDs != nil {
		teams, err := s.teamsInOrganization(athlete.OrganizationID, input.TeamIDs)
		if err != nil {
			return nil, nil, err
		}
		if err := s.athleteRepo.ReplaceTeams(athlete, teams); err != nil {
			return nil, nil, fmt.Errorf("failed to assign teams: %w", err)
		}
		for _, t := range append(previousTeams, teams...) {
			affected = affected.add(teamKey(t.ID))
		}
	}

	return athlete, affected, nil
}

// DeleteAthlete removes the athlete together with their measurements.
func (s *AthleteService) DeleteAthlete(scope access.Scope, athleteID uint64) (Affected, error) {
	athlete, err := s.find(athleteID)
	if err != nil {
		return nil, err
	}
	if !scope.CanManageRoster() || !scope.CanAccessOrganization(athlete.OrganizationID) {
		return nil, ErrAccessDenied
	}

	if err := s.athleteRepo.Delete(athleteID); err != nil {
		return nil, fmt.Errorf("failed to delete athlete: %w", err)
	}

	affected := newAffected(KeyAthletes, athleteKey(athleteID), KeyMeasurements, KeyDashboardStats)
	for _, t := range athlete.Teams {
		affected = affected.add(teamKey(t.ID))
	}
	return affected, nil
}

func applyAthleteInput(athlete *models.Athlete, input AthleteInput) error {
	first := strings.TrimSpace(input.FirstName)
	last := strings.TrimSpace(input.LastName)
	if first == "" || last == "" {
		return ErrAthleteNameRequired
	}

	athlete.FirstName = first
	athlete.LastName = last
	athlete.BirthDate = input.BirthDate
	athlete.BirthYear = input.BirthYear
	if athlete.BirthYear == nil && input.BirthDate != nil {
		year := input.BirthDate.Year()
		athlete.BirthYear = &year
	}
	athlete.GraduationYear = input.GraduationYear
	athlete.Gender = strings.TrimSpace(input.Gender)
	athlete.Email = normalizeEmail(input.Email)
	athlete.Phone = strings.TrimSpace(input.Phone)
	athlete.School = strings.TrimSpace(input.School)
	athlete.Sports = strings.TrimSpace(input.Sports)
	athlete.Height = input.Height
	athlete.Weight = input.Weight
	return nil
}

func (s *AthleteService) teamsInOrganization(orgID uint64, teamIDs []uint64) ([]models.Team, error) {
	teams := make([]models.Team, 0, len(teamIDs))
	for _, id := range uniqueUint64(teamIDs) {
		team, err := s.teamRepo.FindByID(id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrTeamNotFound
			}
			return nil, fmt.Errorf("failed to find team: %w", err)
		}
		if team.OrganizationID != orgID {
			return nil, ErrTeamOutsideOrg
		}
		team.Athletes = nil
		teams = append(teams, *team)
	}
	return teams, nil
}

func (s *AthleteService) find(athleteID uint64) (*models.Athlete, error) {
	athlete, err := s.athleteRepo.FindByID(athleteID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAthleteNotFound
		}
		return nil, fmt.Errorf("failed to find athlete: %w", err)
	}
	return athlete, nil
}

// uniqueUint64 removes duplicate values from a slice of uint64
func uniqueUint64(values []uint64) []uint64 {
	seen := make(map[uint64]struct{}, len(values))
	result := make([]uint64, 0, len(values))

	for _, v := range values {
		if _, exists := seen[v]; exists {
			continue
		}
		seen[v] = struct{}{}
		result = append(result, v)
	}

	return result
}
