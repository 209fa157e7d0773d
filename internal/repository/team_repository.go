package repository

import (
	"github.com/yukikurage/athlete-performance-api/internal/models"
	"gorm.io/gorm"
)

// GormTeamRepository is a GORM implementation of TeamRepository
type GormTeamRepository struct {
	db *gorm.DB
}

// NewTeamRepository creates a new TeamRepository
func NewTeamRepository(db *gorm.DB) TeamRepository {
	return &GormTeamRepository{db: db}
}

func (r *GormTeamRepository) Create(team *models.Team) error {
	return r.db.Create(team).Error
}

func (r *GormTeamRepository) FindByID(id uint64) (*models.Team, error) {
	var team models.Team
	if err := r.db.Preload("Athletes").First(&team, id).Error; err != nil {
		return nil, err
	}
	return &team, nil
}

func (r *GormTeamRepository) FindByName(organizationID uint64, name string) (*models.Team, error) {
	var team models.Team
	if err := r.db.Where("organization_id = ? AND name = ?", organizationID, name).
		First(&team).Error; err != nil {
		return nil, err
	}
	return &team, nil
}

func (r *GormTeamRepository) List(organizationID *uint64) ([]models.Team, error) {
	query := r.db.Model(&models.Team{})
	if organizationID != nil {
		query = query.Where("organization_id = ?", *organizationID)
	}

	var teams []models.Team
	if err := query.Order("name ASC").Find(&teams).Error; err != nil {
		return nil, err
	}
	return teams, nil
}

func (r *GormTeamRepository) Update(team *models.Team) error {
	return r.db.Omit("Athletes").Save(team).Error
}

func (r *GormTeamRepository) Delete(id uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM athlete_teams WHERE team_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Team{}, id).Error
	})
}

func (r *GormTeamRepository) Count(organizationID *uint64) (int64, error) {
	query := r.db.Model(&models.Team{})
	if organizationID != nil {
		query = query.Where("organization_id = ?", *organizationID)
	}
	var count int64
	err := query.Count(&count).Error
	return count, err
}
