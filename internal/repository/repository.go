package repository

import (
	"time"

	"github.com/yukikurage/athlete-performance-api/internal/models"
	"github.com/yukikurage/athlete-performance-api/internal/stats"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(user *models.User) error

	// FindByID finds a user by ID
	FindByID(id uint64) (*models.User, error)

	// FindByUsername finds a user by username
	FindByUsername(username string) (*models.User, error)

	// FindByEmail finds a user by email
	FindByEmail(email string) (*models.User, error)

	// Update saves a user
	Update(user *models.User) error

	// List lists users with optional search and pagination
	List(filter UserFilter) ([]models.User, int64, error)

	// ListMemberships lists a user's organization memberships, oldest first
	ListMemberships(userID uint64) ([]models.OrganizationMember, error)
}

// UserFilter holds filtering options for listing users
type UserFilter struct {
	Search   string
	Page     int
	PageSize int
}

// OrganizationRepository defines the interface for organization data access
type OrganizationRepository interface {
	// Create creates a new organization
	Create(org *models.Organization) error

	// FindByID finds an organization by ID
	FindByID(id uint64) (*models.Organization, error)

	// List lists organizations; nil ids means all organizations
	List(ids []uint64) ([]models.Organization, error)

	// Update updates an organization
	Update(org *models.Organization) error

	// SetActive flips the active flag and returns the previous value
	SetActive(id uint64, active bool) (bool, error)

	// Delete deletes an organization and all related data
	Delete(id uint64) error

	// AddMember adds a member to an organization
	AddMember(member *models.OrganizationMember) error

	// RemoveMember removes a member from an organization
	RemoveMember(organizationID, userID uint64) error

	// FindMember finds a specific organization member
	FindMember(organizationID, userID uint64) (*models.OrganizationMember, error)

	// ListMembers lists all members of an organization
	ListMembers(organizationID uint64) ([]models.OrganizationMember, error)
}

// TeamRepository defines the interface for team data access
type TeamRepository interface {
	Create(team *models.Team) error
	FindByID(id uint64) (*models.Team, error)
	FindByName(organizationID uint64, name string) (*models.Team, error)
	// List lists teams; nil organizationID means every organization
	List(organizationID *uint64) ([]models.Team, error)
	Update(team *models.Team) error
	// Delete removes a team and its roster links; athletes are kept
	Delete(id uint64) error
	Count(organizationID *uint64) (int64, error)
}

// AthleteRepository defines the interface for athlete data access
type AthleteRepository interface {
	Create(athlete *models.Athlete) error
	// CreateBatch creates athletes in a single transaction
	CreateBatch(athletes []models.Athlete) error
	FindByID(id uint64) (*models.Athlete, error)
	FindByName(organizationID uint64, firstName, lastName string) (*models.Athlete, error)
	List(filter AthleteFilter) ([]models.Athlete, int64, error)
	// ListByIDs returns athletes keyed by id
	ListByIDs(ids []uint64) (map[uint64]models.Athlete, error)
	Update(athlete *models.Athlete) error
	// ReplaceTeams sets the athlete's teams to exactly teams
	ReplaceTeams(athlete *models.Athlete, teams []models.Team) error
	// Delete removes an athlete with their measurements and team links
	Delete(id uint64) error
	Count(organizationID *uint64) (int64, error)
}

// AthleteFilter holds filtering options for listing athletes
type AthleteFilter struct {
	OrganizationID *uint64
	TeamID         *uint64
	Search         string
	Page           int
	PageSize       int
}

// MeasurementRepository defines the interface for measurement data access
type MeasurementRepository interface {
	Create(m *models.Measurement) error
	// CreateBatch creates measurements in a single transaction
	CreateBatch(ms []models.Measurement) error
	FindByID(id uint64) (*models.Measurement, error)
	// List retrieves measurements with filtering; Page 0 returns every match
	List(filter MeasurementFilter) ([]models.Measurement, int64, error)
	Update(m *models.Measurement) error
	Delete(id uint64) error
	Count(filter MeasurementFilter) (int64, error)
}

// MeasurementFilter holds filtering options for listing measurements
type MeasurementFilter struct {
	OrganizationID *uint64
	TeamID         *uint64
	AthleteID      *uint64
	Metric         *stats.Metric
	DateFrom       *time.Time
	DateTo         *time.Time
	WithAthlete    bool
	Page           int
	PageSize       int
}

// InvitationRepository defines the interface for invitation data access
type InvitationRepository interface {
	Create(inv *models.Invitation) error
	FindByID(id uint64) (*models.Invitation, error)
	FindByToken(token string) (*models.Invitation, error)
	// FindOutstanding finds the unaccepted, unexpired invitation for email in an organization
	FindOutstanding(email string, organizationID uint64, now time.Time) (*models.Invitation, error)
	ListByOrganization(organizationID uint64) ([]models.Invitation, error)
	Delete(id uint64) error
	// Accept marks the invitation accepted, adds the membership and saves the user atomically
	Accept(inv *models.Invitation, user *models.User, member *models.OrganizationMember) error
}
