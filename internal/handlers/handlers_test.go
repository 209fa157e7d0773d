package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/athlete-performance-api/internal/constants"
	"github.com/yukikurage/athlete-performance-api/internal/models"
	"github.com/yukikurage/athlete-performance-api/internal/repository"
	"github.com/yukikurage/athlete-performance-api/internal/services"
	"github.com/yukikurage/athlete-performance-api/internal/stats"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testPassword = "supersecret"

type apiTestEnv struct {
	db           *gorm.DB
	router       *gin.Engine
	users        repository.UserRepository
	orgs         repository.OrganizationRepository
	teams        repository.TeamRepository
	athletes     repository.AthleteRepository
	measurements repository.MeasurementRepository
}

func setupAPITestEnv(t *testing.T) apiTestEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

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

	log := zap.NewNop()
	userRepo := repository.NewUserRepository(db)
	orgRepo := repository.NewOrganizationRepository(db)
	teamRepo := repository.NewTeamRepository(db)
	athleteRepo := repository.NewAthleteRepository(db)
	measurementRepo := repository.NewMeasurementRepository(db)
	invitationRepo := repository.NewInvitationRepository(db)

	r := gin.New()
	r.Use(sessions.Sessions(constants.SessionName, cookie.NewStore([]byte("test-secret"))))
	RegisterRoutes(r, Dependencies{
		OrganizationRepo:    orgRepo,
		AthleteRepo:         athleteRepo,
		AuthService:         services.NewAuthService(userRepo, invitationRepo),
		OrganizationService: services.NewOrganizationService(orgRepo, userRepo),
		UserService:         services.NewUserService(userRepo, athleteRepo),
		TeamService:         services.NewTeamService(teamRepo),
		AthleteService:      services.NewAthleteService(athleteRepo, teamRepo),
		MeasurementService:  services.NewMeasurementService(measurementRepo, athleteRepo, log),
		InvitationService:   services.NewInvitationService(invitationRepo, orgRepo, userRepo, athleteRepo, constants.DefaultInvitationTTL, log),
		AnalyticsService:    services.NewAnalyticsService(measurementRepo, athleteRepo, teamRepo, nil, log),
		ImportService:       services.NewImportService(athleteRepo, teamRepo, measurementRepo, log),
		Log:                 log,
	})

	return apiTestEnv{
		db:           db,
		router:       r,
		users:        userRepo,
		orgs:         orgRepo,
		teams:        teamRepo,
		athletes:     athleteRepo,
		measurements: measurementRepo,
	}
}

func (e apiTestEnv) createOrg(t *testing.T, name string) *models.Organization {
	t.Helper()
	org := &models.Organization{Name: name, IsActive: true}
	require.NoError(t, e.orgs.Create(org))
	return org
}

func (e apiTestEnv) createUser(t *testing.T, username string, role models.Role) *models.User {
	t.Helper()
	hash, err := services.HashPassword(testPassword)
	require.NoError(t, err)
	user := &models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: hash,
		Role:         role,
		IsSiteAdmin:  role == models.RoleSiteAdmin,
	}
	require.NoError(t, e.users.Create(user))
	return user
}

func (e apiTestEnv) addMember(t *testing.T, orgID, userID uint64, role models.Role) {
	t.Helper()
	require.NoError(t, e.orgs.AddMember(&models.OrganizationMember{
		OrganizationID: orgID,
		UserID:         userID,
		Role:           role,
		JoinedAt:       time.Now(),
	}))
}

func (e apiTestEnv) createAthlete(t *testing.T, orgID uint64, first, last string) *models.Athlete {
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
	return athlete
}

func (e apiTestEnv) record(t *testing.T, athlete *models.Athlete, metric stats.Metric, value float64, date time.Time) {
	t.Helper()
	require.NoError(t, e.measurements.Create(&models.Measurement{
		AthleteID:      athlete.ID,
		OrganizationID: athlete.OrganizationID,
		Metric:         metric,
		Value:          value,
		Units:          metric.Units(),
		Date:           date,
		SubmittedByID:  1,
	}))
}

// client carries the session cookie between requests like a browser would.
type client struct {
	env     apiTestEnv
	cookies map[string]*http.Cookie
}

func (e apiTestEnv) anonymous() *client {
	return &client{env: e, cookies: map[string]*http.Cookie{}}
}

func (e apiTestEnv) login(t *testing.T, username string) *client {
	t.Helper()
	cl := e.anonymous()
	w := cl.do(t, http.MethodPost, "/api/auth/login", map[string]string{
		"username": username,
		"password": testPassword,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return cl
}

func (cl *client) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return cl.send(req)
}

func (cl *client) send(req *http.Request) *httptest.ResponseRecorder {
	for _, c := range cl.cookies {
		req.AddCookie(c)
	}

	w := httptest.NewRecorder()
	cl.env.router.ServeHTTP(w, req)

	for _, c := range w.Result().Cookies() {
		cl.cookies[c.Name] = c
	}
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func mustField(t *testing.T, body []byte, name string) json.RawMessage {
	t.Helper()
	var fields map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(body, &fields))
	raw, ok := fields[name]
	require.True(t, ok, "missing field %q in %s", name, body)
	return raw
}
