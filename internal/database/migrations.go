package database

import (
	"fmt"

	"github.com/yukikurage/athlete-performance-api/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type compositeIndex struct {
	model   interface{}
	table   string
	name    string
	columns string
}

// compositeIndexes back the leaderboard and measurement list queries.
var compositeIndexes = []compositeIndex{
	{&models.Measurement{}, "measurements", "idx_measurements_org_metric_date", "organization_id, metric, date"},
	{&models.Measurement{}, "measurements", "idx_measurements_athlete_metric", "athlete_id, metric"},
	{&models.Athlete{}, "athletes", "idx_athletes_org_name", "organization_id, last_name, first_name"},
	{&models.Invitation{}, "invitations", "idx_invitations_org_accepted", "organization_id, accepted_at"},
}

// AddIndexes adds performance-critical composite indexes to the database
func AddIndexes(db *gorm.DB, log *zap.Logger) error {
	migrator := db.Migrator()

	for _, idx := range compositeIndexes {
		if migrator.HasIndex(idx.model, idx.name) {
			log.Debug("index already exists, skipping", zap.String("index", idx.name))
			continue
		}

		sql := fmt.Sprintf("CREATE INDEX %s ON %s (%s)", idx.name, idx.table, idx.columns)
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}

		log.Info("created index", zap.String("index", idx.name), zap.String("table", idx.table))
	}

	return nil
}
