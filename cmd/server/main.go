package main

import (
	"log"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	redisStore "github.com/gin-contrib/sessions/redis"
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/athlete-performance-api/internal/config"
	"github.com/yukikurage/athlete-performance-api/internal/constants"
	"github.com/yukikurage/athlete-performance-api/internal/database"
	"github.com/yukikurage/athlete-performance-api/internal/handlers"
	"github.com/yukikurage/athlete-performance-api/internal/logger"
	"github.com/yukikurage/athlete-performance-api/internal/middleware"
	"github.com/yukikurage/athlete-performance-api/internal/repository"
	"github.com/yukikurage/athlete-performance-api/internal/services"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zlog, err := logger.New(cfg.LogLevel, cfg.IsProduction())
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer zlog.Sync()

	// Set Gin mode
	gin.SetMode(cfg.GinMode)

	// Connect to database
	db, err := database.Connect(cfg, zlog)
	if err != nil {
		zlog.Fatal("failed to connect to database", zap.Error(err))
	}

	// Run migrations
	if err := database.Migrate(db, zlog); err != nil {
		zlog.Fatal("failed to run migrations", zap.Error(err))
	}

	r := gin.New()
	r.Use(middleware.RequestLogger(zlog), middleware.Recovery(zlog))

	store, err := newSessionStore(cfg)
	if err != nil {
		zlog.Fatal("failed to create session store", zap.String("store", cfg.SessionStore), zap.Error(err))
	}
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7, // 7 days
		HttpOnly: true,
		Secure:   cfg.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions(constants.SessionName, store))

	userRepo := repository.NewUserRepository(db)
	orgRepo := repository.NewOrganizationRepository(db)
	teamRepo := repository.NewTeamRepository(db)
	athleteRepo := repository.NewAthleteRepository(db)
	measurementRepo := repository.NewMeasurementRepository(db)
	invitationRepo := repository.NewInvitationRepository(db)

	// The summary endpoint answers 503 without a key
	var summarizer services.AthleteSummarizer
	if cfg.OpenAIAPIKey != "" {
		summarizer = services.NewAIService(cfg.OpenAIAPIKey, cfg.OpenAIModel)
	}

	handlers.RegisterRoutes(r, handlers.Dependencies{
		OrganizationRepo:    orgRepo,
		AthleteRepo:         athleteRepo,
		AuthService:         services.NewAuthService(userRepo, invitationRepo),
		OrganizationService: services.NewOrganizationService(orgRepo, userRepo),
		UserService:         services.NewUserService(userRepo, athleteRepo),
		TeamService:         services.NewTeamService(teamRepo),
		AthleteService:      services.NewAthleteService(athleteRepo, teamRepo),
		MeasurementService:  services.NewMeasurementService(measurementRepo, athleteRepo, zlog),
		InvitationService:   services.NewInvitationService(invitationRepo, orgRepo, userRepo, athleteRepo, cfg.InvitationLifetime(), zlog),
		AnalyticsService:    services.NewAnalyticsService(measurementRepo, athleteRepo, teamRepo, summarizer, zlog),
		ImportService:       services.NewImportService(athleteRepo, teamRepo, measurementRepo, zlog),
		Log:                 zlog,
	})

	// Start server
	zlog.Info("server starting", zap.String("addr", cfg.HTTPAddr), zap.Bool("ai_enabled", summarizer != nil))
	if err := r.Run(cfg.HTTPAddr); err != nil {
		zlog.Fatal("failed to start server", zap.Error(err))
	}
}

func newSessionStore(cfg *config.Config) (sessions.Store, error) {
	if cfg.SessionStore == "cookie" {
		return cookie.NewStore([]byte(cfg.SessionSecret)), nil
	}
	return redisStore.NewStore(
		10,                // Redis pool size
		"tcp",             // network type
		cfg.RedisAddr(),   // Redis address from config
		"",                // username (empty for default user)
		cfg.RedisPassword, // password (empty = no password)
		[]byte(cfg.SessionSecret),
	)
}
