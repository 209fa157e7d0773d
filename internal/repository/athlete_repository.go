package repository

import (
	"strings"

	"github.com/yukikurage/athlete-performance-api/internal/database"
	"github.com/yukikurage/athlete-performance-api/internal/models"
	"gorm.io/gorm"
)

// GormAthleteRepository is a GORM implementation of AthleteRepository
type GormAthleteRepository struct {
	db *gorm.DB
}

// NewAthleteRepository creates a new AthleteRepository
func NewAthleteRepository(db *gorm.DB) AthleteRepository {
	return &GormAthleteRepository{db: db}
}

func (r *GormAthleteRepository) Create(athlete *models.Athlete) error {
	return r.db.Create(athlete).Error
}

func (r *GormAthleteRepository) CreateBatch(athletes []models.Athlete) error {
	if len(athletes) == 0 {
		return nil
	}
	return r.db.Transaction(func(tx *gorm.DB) error {
		return tx.Create(&athletes).Error
	})
}

func (r *GormAthleteRepository) FindByID(id uint64) (*models.Athlete, error) {
	var athlete models.Athlete
	if err := r.db.Preload("Teams").First(&athlete, id).Error; err != nil {
		return nil, err
	}
	return &athlete, nil
}

func (r *GormAthleteRepository) FindByName(organizationID uint64, firstName, lastName string) (*models.Athlete, error) {
	var athlete models.Athlete
	if err := r.db.
		Where("organization_id = ? AND LOWER(first_name) = ? AND LOWER(last_name) = ?",
			organizationID, strings.ToLower(firstName), strings.ToLower(lastName)).
		First(&athlete).Error; err != nil {
		return nil, err
	}
	return &athlete, nil
}

func (r *GormAthleteRepository) List(filter AthleteFilter) ([]models.Athlete, int64, error) {
	query := r.db.Model(&models.Athlete{})

	if filter.OrganizationID != nil {
		query = query.Where("athletes.organization_id = ?", *filter.OrganizationID)
	}
	if filter.TeamID != nil {
		query = query.Where("athletes.id IN (?)",
			r.db.Table("athlete_teams").Select("athlete_id").Where("team_id = ?", *filter.TeamID))
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		query = query.Where("LOWER(athletes.first_name) LIKE ? OR LOWER(athletes.last_name) LIKE ?", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Scopes(database.Paginate(filter.Page, filter.PageSize))

	var athletes []models.Athlete
	if err := query.Preload("Teams").
		Order("athletes.last_name ASC, athletes.first_name ASC").
		Find(&athletes).Error; err != nil {
		return nil, 0, err
	}
	return athletes, total, nil
}

func (r *GormAthleteRepository) ListByIDs(ids []uint64) (map[uint64]models.Athlete, error) {
	out := make(map[uint64]models.Athlete, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var athletes []models.Athlete
	if err := r.db.Where("id IN ?", ids).Find(&athletes).Error; err != nil {
		return nil, err
	}
	for _, a := range athletes {
		out[a.ID] = a
	}
	return out, nil
}

func (r *GormAthleteRepository) Update(athlete *models.Athlete) error {
	return r.db.Omit("Teams").Save(athlete).Error
}

func (r *GormAthleteRepository) ReplaceTeams(athlete *models.Athlete, teams []models.Team) error {
	return r.db.Model(athlete).Association("Teams").Replace(teams)
}

func (r *GormAthleteRepository) Delete(id uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("athlete_id = ?", id).Delete(&models.Measurement{}).Error; err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM athlete_teams WHERE athlete_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Athlete{}, id).Error
	})
}

func (r *GormAthleteRepository) Count(organizationID *uint64) (int64, error) {
	query := r.db.Model(&models.Athlete{})
	if organizationID != nil {
		query = query.Where("organization_id = ?", *organizationID)
	}
	var count int64
	err := query.Count(&count).Error
	return count, err
}
