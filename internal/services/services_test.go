package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/yukikurage/athlete-performance-api/internal/models"
	"github.com/yukikurage/athlete-performance-api/internal/repository"
	"github.com/yukikurage/athlete-performance-api/internal/stats"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type testEnv struct {
	db           *gorm.DB
	users        repository.UserRepository
	orgs         repository.OrganizationRepository
	teams        repository.TeamRepository
	athletes     repository.AthleteRepository
	measurements repository.MeasurementRepository
	invitations  repository.InvitationRepository
	log          *zap.Logger
}

func setupTestEnv(t *testing.T) testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	require.NoError(t, db.AutoMigrate(models.All()...))

	return testEnv{
		db:           db,
		users:        repository.NewUserRepository(db),
		orgs:         repository.NewOrganizationRepository(db),
		teams:        repository.NewTeamRepository(db),
		athletes:     repository.NewAthleteRepository(db),
		measurements: repository.NewMeasurementRepository(db),
		invitations:  repository.NewInvitationRepository(db),
		log:          zap.NewNop(),
	}
}

func (e testEnv) createOrg(t *testing.T, name string) *models.Organization {
	t.Helper()
	org := &models.Organization{Name: name, IsActive: true}
	require.NoError(t, e.orgs.Create(org))
	return org
}

func (e testEnv) createUser(t *testing.T, username string, role models.Role) *models.User {
	t.Helper()
	hash, err := HashPassword("supersecret")
	require.NoError(t, err)
	user := &models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: hash,
		Role:         role,
	}
	require.NoError(t, e.users.Create(user))
	return user
}

func (e testEnv) addMember(t *testing.T, orgID, userID uint64, role models.Role) {
	t.Helper()
	require.NoError(t, e.orgs.AddMember(&models.OrganizationMember{
		OrganizationID: orgID,
		UserID:         userID,
		Role:           role,
		JoinedAt:       time.Now(),
	}))
}

func (e testEnv) createTeam(t *testing.T, orgID uint64, name string) *models.Team {
	t.Helper()
	team := &models.Team{OrganizationID: orgID, Name: name}
	require.NoError(t, e.teams.Create(team))
	return team
}

func (e testEnv) createAthlete(t *testing.T, orgID uint64, first, last string, teams ...models.Team) *models.Athlete {
	t.Helper()
	birth := time.Date(2008, time.June, 15, 0, 0, 0, 0, time.UTC)
	athlete := &models.Athlete{
		OrganizationID: orgID,
		FirstName:      first,
		LastName:       last,
		BirthDate:      &birth,
		Gender:         "Female",
	}
	require.NoError(t, e.athletes.Create(athlete))
	if len(teams) > 0 {
		require.NoError(t, e.athletes.ReplaceTeams(athlete, teams))
	}
	return athlete
}

func (e testEnv) record(t *testing.T, athlete *models.Athlete, metric stats.Metric, value float64, date time.Time) *models.Measurement {
	t.Helper()
	m := &models.Measurement{
		AthleteID:      athlete.ID,
		OrganizationID: athlete.OrganizationID,
		Metric:         metric,
		Value:          value,
		Units:          metric.Units(),
		Date:           date,
		SubmittedByID:  1,
	}
	require.NoError(t, e.measurements.Create(m))
	return m
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ptr[T any](v T) *T {
	return &v
}

// brokenAthletes fails athlete lookups and delegates everything else.
type brokenAthletes struct {
	repository.AthleteRepository
	err error
}

func (b brokenAthletes) FindByID(uint64) (*models.Athlete, error) {
	return nil, b.err
}
