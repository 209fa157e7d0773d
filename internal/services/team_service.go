package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/yukikurage/athlete-performance-api/internal/access"
	"github.com/yukikurage/athlete-performance-api/internal/models"
	"github.com/yukikurage/athlete-performance-api/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrTeamNotFound     = errors.New("team not found")
	ErrTeamNameRequired = errors.New("team name is required")
	ErrTeamNameTaken    = errors.New("a team with this name already exists")
)

// TeamService manages teams inside an organization.
type TeamService struct {
	teamRepo repository.TeamRepository
}

func NewTeamService(teamRepo repository.TeamRepository) *TeamService {
	return &TeamService{teamRepo: teamRepo}
}

// TeamInput holds team fields. OrganizationID is only read for site admins
// outside an organization context.
type TeamInput struct {
	OrganizationID *uint64
	Name           string
	Level          string
	Season         string
	Notes          string
}

func (s *TeamService) ListTeams(scope access.Scope, organizationID *uint64) ([]models.Team, error) {
	filter, err := organizationFilterFor(scope, organizationID)
	if err != nil {
		return nil, err
	}

	teams, err := s.teamRepo.List(filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	return teams, nil
}

func (s *TeamService) GetTeam(scope access.Scope, teamID uint64) (*models.Team, error) {
	team, err := s.find(teamID)
	if err != nil {
		return nil, err
	}
	if !scope.CanAccessOrganization(team.OrganizationID) {
		return nil, ErrAccessDenied
	}
	return team, nil
}

func (s *TeamService) CreateTeam(scope access.Scope, input TeamInput) (*models.Team, Affected, error) {
	if !scope.CanManageRoster() {
		return nil, nil, ErrAccessDenied
	}
	orgID, err := organizationFor(scope, input.OrganizationID)
	if err != nil {
		return nil, nil, err
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, nil, ErrTeamNameRequired
	}
	if err := s.ensureNameFree(orgID, name, 0); err != nil {
		return nil, nil, err
	}

	team := &models.Team{
		OrganizationID: orgID,
		Name:           name,
		Level:          strings.TrimSpace(input.Level),
		Season:         strings.TrimSpace(input.Season),
		Notes:          input.Notes,
	}
	if err := s.teamRepo.Create(team); err != nil {
		return nil, nil, fmt.Errorf("failed to create team: %w", err)
	}

	return team, newAffected(KeyTeams, KeyDashboardStats), nil
}

func (s *TeamService) UpdateTeam(scope access.Scope, teamID uint64, input TeamInput) (*models.Team, Affected, error) {
	team, err := s.find(teamID)
	if err != nil {
		return nil, nil, err
	}
	if !scope.CanManageRoster() || !scope.CanAccessOrganization(team.OrganizationID) {
		return nil, nil, ErrAccessDenied
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, nil, ErrTeamNameRequired
	}
	if err := s.ensureNameFree(team.OrganizationID, name, team.ID); err != nil {
		return nil, nil, err
	}

	team.Name = name
	team.Level = strings.TrimSpace(input.Level)
	team.Season = strings.TrimSpace(input.Season)
	team.Notes = input.Notes
	if err := s.teamRepo.Update(team); err != nil {
		return nil, nil, fmt.Errorf("failed to update team: %w", err)
	}

	return team, newAffected(KeyTeams, teamKey(team.ID)), nil
}

// DeleteTeam removes a team. Its athletes stay in the organization.
func (s *TeamService) DeleteTeam(scope access.Scope, teamID uint64) (Affected, error) {
	team, err := s.find(teamID)
	if err != nil {
		return nil, err
	}
	if !scope.CanManageRoster() || !scope.CanAccessOrganization(team.OrganizationID) {
		return nil, ErrAccessDenied
	}

	if err := s.teamRepo.Delete(teamID); err != nil {
		return nil, fmt.Errorf("failed to delete team: %w", err)
	}

	affected := newAffected(KeyTeams, teamKey(teamID), KeyDashboardStats)
	for _, a := range team.Athletes {
		affected = affected.add(athleteKey(a.ID))
	}
	return affected, nil
}

func (s *TeamService) ensureNameFree(orgID uint64, name string, self uint64) error {
	existing, err := s.teamRepo.FindByName(orgID, name)
	if err == nil && existing.ID != self {
		return ErrTeamNameTaken
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to check team name: %w", err)
	}
	return nil
}

func (s *TeamService) find(teamID uint64) (*models.Team, error) {
	team, err := s.teamRepo.FindByID(teamID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to find team: %w", err)
	}
	return team, nil
}
