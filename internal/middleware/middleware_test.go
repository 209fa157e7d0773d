package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/athlete-performance-api/internal/access"
	"github.com/yukikurage/athlete-performance-api/internal/constants"
	"github.com/yukikurage/athlete-performance-api/internal/models"
	"github.com/yukikurage/athlete-performance-api/internal/repository"
	"github.com/yukikurage/athlete-performance-api/internal/services"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type stubLoader struct {
	principals map[uint64]*access.Principal
	err        error
}

func (s stubLoader) BuildPrincipal(userID uint64) (*models.User, *access.Principal, error) {
	if s.err != nil {
		return nil, nil, s.err
	}
	p, ok := s.principals[userID]
	if !ok {
		return nil, nil, services.ErrUserNotFound
	}
	return &models.User{ID: userID, Role: models.Role(p.Role)}, p, nil
}

// stubOrganizations reports the ids in missing as deleted.
type stubOrganizations struct {
	missing map[uint64]bool
	err     error
}

func (s stubOrganizations) Exists(orgID uint64) error {
	if s.err != nil {
		return s.err
	}
	if s.missing[orgID] {
		return services.ErrOrganizationNotFound
	}
	return nil
}

// newRouter mounts a /login/:id route that writes the session the way the
// auth handler does, then LoadScope for everything under /api.
func newRouter(loader PrincipalLoader, orgs OrganizationChecker, log *zap.Logger) (*gin.Engine, *gin.RouterGroup) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(sessions.Sessions(constants.SessionName, cookie.NewStore([]byte("test-secret"))))
	r.GET("/login/:id", func(c *gin.Context) {
		id, _ := strconv.ParseUint(c.Param("id"), 10, 64)
		session := sessions.Default(c)
		session.Set(constants.ContextKeyUserID, id)
		if org := c.Query("context"); org != "" {
			orgID, _ := strconv.ParseUint(org, 10, 64)
			session.Set(constants.SessionKeyOrganizationContext, orgID)
		}
		_ = session.Save()
		c.Status(http.StatusNoContent)
	})
	api := r.Group("/api")
	api.Use(LoadScope(loader, orgs, log))
	return r, api
}

func sessionCookies(t *testing.T, r *gin.Engine, path string) []*http.Cookie {
	t.Helper()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	require.Equal(t, http.StatusNoContent, w.Code)
	return w.Result().Cookies()
}

func get(r *gin.Engine, path string, cookies []*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestLoadScope(t *testing.T) {
	loader := stubLoader{principals: map[uint64]*access.Principal{
		7: {UserID: 7, Role: access.RoleCoach, Memberships: []access.Membership{{OrganizationID: 3, Role: access.RoleCoach}}},
		9: {UserID: 9, Role: access.RoleSiteAdmin, IsSiteAdmin: true},
	}}
	r, api := newRouter(loader, stubOrganizations{}, zap.NewNop())
	api.GET("/scope", func(c *gin.Context) {
		c.JSON(http.StatusOK, GetScope(c))
	})

	t.Run("anonymous", func(t *testing.T) {
		w := get(r, "/api/scope", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), string(access.KindUnauthenticated))
	})

	t.Run("coach", func(t *testing.T) {
		w := get(r, "/api/scope", sessionCookies(t, r, "/login/7"))
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), string(access.KindCoach))
	})

	t.Run("site admin with organization context", func(t *testing.T) {
		w := get(r, "/api/scope", sessionCookies(t, r, "/login/9?context=4"))
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), string(access.KindSiteAdminAsOrg))
	})

	t.Run("deleted user", func(t *testing.T) {
		w := get(r, "/api/scope", sessionCookies(t, r, "/login/42"))
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), string(access.KindUnauthenticated))
	})
}

func TestLoadScope_LoaderFailure(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	r, api := newRouter(stubLoader{err: errors.New("connection refused")}, stubOrganizations{}, zap.New(core))
	api.GET("/scope", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := get(r, "/api/scope", sessionCookies(t, r, "/login/7"))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "failed to load principal", logs.All()[0].Message)
}

func TestLoadScope_StaleOrganizationContext(t *testing.T) {
	loader := stubLoader{principals: map[uint64]*access.Principal{
		9: {UserID: 9, Role: access.RoleSiteAdmin, IsSiteAdmin: true},
	}}
	orgs := stubOrganizations{missing: map[uint64]bool{4: true}}
	r, api := newRouter(loader, orgs, zap.NewNop())
	api.GET("/scope", func(c *gin.Context) {
		c.JSON(http.StatusOK, GetScope(c))
	})

	cookies := sessionCookies(t, r, "/login/9?context=4")
	w := get(r, "/api/scope", cookies)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), string(access.KindSiteAdminGlobal))

	// the cleared session no longer carries the context
	for _, c := range w.Result().Cookies() {
		for i := range cookies {
			if cookies[i].Name == c.Name {
				cookies[i] = c
			}
		}
	}
	orgs.missing = nil
	r2, api2 := newRouter(loader, orgs, zap.NewNop())
	api2.GET("/scope", func(c *gin.Context) {
		c.JSON(http.StatusOK, GetScope(c))
	})
	w = get(r2, "/api/scope", cookies)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), string(access.KindSiteAdminGlobal))
}

func TestLoadScope_OrganizationCheckFailure(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	loader := stubLoader{principals: map[uint64]*access.Principal{
		9: {UserID: 9, Role: access.RoleSiteAdmin, IsSiteAdmin: true},
	}}
	r, api := newRouter(loader, stubOrganizations{err: errors.New("connection refused")}, zap.New(core))
	api.GET("/scope", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	assert.Equal(t, http.StatusOK, get(r, "/api/scope", sessionCookies(t, r, "/login/9")).Code)

	w := get(r, "/api/scope", sessionCookies(t, r, "/login/9?context=4"))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "failed to check organization context", logs.All()[0].Message)
}

func TestRequireAuthAndSiteAdmin(t *testing.T) {
	loader := stubLoader{principals: map[uint64]*access.Principal{
		7: {UserID: 7, Role: access.RoleCoach, Memberships: []access.Membership{{OrganizationID: 3, Role: access.RoleCoach}}},
		9: {UserID: 9, Role: access.RoleSiteAdmin, IsSiteAdmin: true},
	}}
	r, api := newRouter(loader, stubOrganizations{}, zap.NewNop())
	protected := api.Group("", RequireAuth())
	protected.GET("/me", func(c *gin.Context) {
		id, _ := GetUserID(c)
		c.JSON(http.StatusOK, gin.H{"id": id})
	})
	protected.GET("/admin", RequireSiteAdmin(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	assert.Equal(t, http.StatusUnauthorized, get(r, "/api/me", nil).Code)

	coach := sessionCookies(t, r, "/login/7")
	w := get(r, "/api/me", coach)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":7}`, w.Body.String())
	assert.Equal(t, http.StatusForbidden, get(r, "/api/admin", coach).Code)

	admin := sessionCookies(t, r, "/login/9")
	assert.Equal(t, http.StatusOK, get(r, "/api/admin", admin).Code)
}

func TestRequireOrganizationAccess(t *testing.T) {
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

	orgRepo := repository.NewOrganizationRepository(db)
	mine := &models.Organization{Name: "Falcons", IsActive: true}
	other := &models.Organization{Name: "Hawks", IsActive: true}
	require.NoError(t, orgRepo.Create(mine))
	require.NoError(t, orgRepo.Create(other))

	loader := stubLoader{principals: map[uint64]*access.Principal{
		7: {UserID: 7, Role: access.RoleCoach, Memberships: []access.Membership{{OrganizationID: mine.ID, Role: access.RoleCoach}}},
	}}
	r, api := newRouter(loader, stubOrganizations{}, zap.NewNop())
	api.GET("/organizations/:id", RequireOrganizationAccess(orgRepo, zap.NewNop()), func(c *gin.Context) {
		org, _ := GetOrganization(c)
		c.JSON(http.StatusOK, gin.H{"name": org.Name})
	})
	api.PUT("/organizations/:id", RequireOrganizationAccess(orgRepo, zap.NewNop()), RequireOrganizationManager(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	coach := sessionCookies(t, r, "/login/7")
	tests := []struct {
		name string
		path string
		code int
	}{
		{"own organization", "/api/organizations/" + strconv.FormatUint(mine.ID, 10), http.StatusOK},
		{"other organization", "/api/organizations/" + strconv.FormatUint(other.ID, 10), http.StatusForbidden},
		{"missing", "/api/organizations/999", http.StatusNotFound},
		{"malformed", "/api/organizations/abc", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, get(r, tt.path, coach).Code)
		})
	}

	req := httptest.NewRequest(http.MethodPut, "/api/organizations/"+strconv.FormatUint(mine.ID, 10), nil)
	for _, c := range coach {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRequestLoggerAndRecovery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zapcore.InfoLevel)
	log := zap.New(core)

	r := gin.New()
	r.Use(RequestLogger(log), Recovery(log))
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/boom", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	requests := logs.FilterMessage("request").All()
	require.Len(t, requests, 2)
	assert.Equal(t, zapcore.InfoLevel, requests[0].Level)
	assert.Equal(t, int64(http.StatusOK), requests[0].ContextMap()["status"])
	assert.Equal(t, zapcore.ErrorLevel, requests[1].Level)
	assert.Equal(t, 1, logs.FilterMessage("panic recovered").Len())
}

func TestToUint64(t *testing.T) {
	tests := []struct {
		in   interface{}
		want uint64
		ok   bool
	}{
		{uint64(5), 5, true},
		{uint(5), 5, true},
		{5, 5, true},
		{int64(5), 5, true},
		{float64(5), 5, true},
		{-1, 0, false},
		{int64(-1), 0, false},
		{"5", 0, false},
		{nil, 0, false},
	}
	for _, tt := range tests {
		got, ok := toUint64(tt.in)
		assert.Equal(t, tt.ok, ok, "%#v", tt.in)
		assert.Equal(t, tt.want, got, "%#v", tt.in)
	}
}
