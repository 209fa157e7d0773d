package repository

import (
	"github.com/yukikurage/athlete-performance-api/internal/database"
	"github.com/yukikurage/athlete-performance-api/internal/models"
	"gorm.io/gorm"
)

// GormMeasurementRepository is a GORM implementation of MeasurementRepository
type GormMeasurementRepository struct {
	db *gorm.DB
}

// NewMeasurementRepository creates a new MeasurementRepository
func NewMeasurementRepository(db *gorm.DB) MeasurementRepository {
	return &GormMeasurementRepository{db: db}
}

func (r *GormMeasurementRepository) Create(m *models.Measurement) error {
	return r.db.Omit("Athlete").Create(m).Error
}

func (r *GormMeasurementRepository) CreateBatch(ms []models.Measurement) error {
	if len(ms) == 0 {
		return nil
	}
	return r.db.Transaction(func(tx *gorm.DB) error {
		return tx.Omit("Athlete").CreateInBatches(&ms, 200).Error
	})
}

func (r *GormMeasurementRepository) FindByID(id uint64) (*models.Measurement, error) {
	var m models.Measurement
	if err := r.db.Preload("Athlete").First(&m, id).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *GormMeasurementRepository) filtered(filter MeasurementFilter) *gorm.DB {
	query := r.db.Model(&models.Measurement{})

	if filter.OrganizationID != nil {
		query = query.Where("measurements.organization_id = ?", *filter.OrganizationID)
	}
	if filter.AthleteID != nil {
		query = query.Where("measurements.athlete_id = ?", *filter.AthleteID)
	}
	if filter.TeamID != nil {
		query = query.Where("measurements.athlete_id IN (?)",
			r.db.Table("athlete_teams").Select("athlete_id").Where("team_id = ?", *filter.TeamID))
	}
	if filter.Metric != nil {
		query = query.Where("measurements.metric = ?", *filter.Metric)
	}
	if filter.DateFrom != nil {
		query = query.Where("measurements.date >= ?", *filter.DateFrom)
	}
	if filter.DateTo != nil {
		query = query.Where("measurements.date < ?", *filter.DateTo)
	}

	return query
}

// List retrieves measurements with filtering and pagination, newest first
func (r *GormMeasurementRepository) List(filter MeasurementFilter) ([]models.Measurement, int64, error) {
	query := r.filtered(filter)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	listQuery := query.Order("measurements.date DESC, measurements.id DESC")
	listQuery = listQuery.Scopes(database.Paginate(filter.Page, filter.PageSize))
	if filter.WithAthlete {
		listQuery = listQuery.Preload("Athlete.Teams")
	}

	var ms []models.Measurement
	if err := listQuery.Find(&ms).Error; err != nil {
		return nil, 0, err
	}
	return ms, total, nil
}

func (r *GormMeasurementRepository) Update(m *models.Measurement) error {
	return r.db.Omit("Athlete").Save(m).Error
}

func (r *GormMeasurementRepository) Delete(id uint64) error {
	return r.db.Delete(&models.Measurement{}, id).Error
}

func (r *GormMeasurementRepository) Count(filter MeasurementFilter) (int64, error) {
	var count int64
	err := r.filtered(filter).Count(&count).Error
	return count, err
}
