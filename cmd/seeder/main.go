package main

import (
	"log"
	"os"
	"strings"

	"github.com/yukikurage/athlete-performance-api/internal/config"
	"github.com/yukikurage/athlete-performance-api/internal/database"
	"github.com/yukikurage/athlete-performance-api/internal/logger"
	"github.com/yukikurage/athlete-performance-api/internal/models"
	"github.com/yukikurage/athlete-performance-api/internal/repository"
	"github.com/yukikurage/athlete-performance-api/internal/services"
	"go.uber.org/zap"
)

// seeder creates the first site admin so the rest of the data can be set up
// through the API.
func main() {
	adminPassword := os.Getenv("ADMIN_PASSWORD")
	if adminPassword == "" {
		log.Fatalf("ADMIN_PASSWORD environment variable required")
	}
	username := envOr("ADMIN_USERNAME", "admin")
	email := strings.ToLower(envOr("ADMIN_EMAIL", "admin@example.com"))

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	zlog, err := logger.New(cfg.LogLevel, cfg.IsProduction())
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer zlog.Sync()

	db, err := database.Connect(cfg, zlog)
	if err != nil {
		zlog.Fatal("failed to connect to database", zap.Error(err))
	}
	if err := database.Migrate(db, zlog); err != nil {
		zlog.Fatal("failed to run migrations", zap.Error(err))
	}

	users := repository.NewUserRepository(db)

	// Check if admin already exists
	if existing, err := users.FindByUsername(username); err == nil {
		zlog.Info("admin user already exists", zap.Uint64("user_id", existing.ID))
		return
	}
	if existing, err := users.FindByEmail(email); err == nil {
		zlog.Info("admin email already registered", zap.Uint64("user_id", existing.ID))
		return
	}

	hash, err := services.HashPassword(adminPassword)
	if err != nil {
		zlog.Fatal("failed to hash password", zap.Error(err))
	}

	admin := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         models.RoleSiteAdmin,
		IsSiteAdmin:  true,
	}
	if err := users.Create(admin); err != nil {
		zlog.Fatal("failed to create admin user", zap.Error(err))
	}

	zlog.Info("admin user created", zap.Uint64("user_id", admin.ID), zap.String("username", admin.Username))
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
