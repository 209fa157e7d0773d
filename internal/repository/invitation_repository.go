package repository

import (
	"strings"
	"time"

	"github.com/yukikurage/athlete-performance-api/internal/models"
	"gorm.io/gorm"
)

// GormInvitationRepository is a GORM implementation of InvitationRepository
type GormInvitationRepository struct {
	db *gorm.DB
}

// NewInvitationRepository creates a new InvitationRepository
func NewInvitationRepository(db *gorm.DB) InvitationRepository {
	return &GormInvitationRepository{db: db}
}

func (r *GormInvitationRepository) Create(inv *models.Invitation) error {
	return r.db.Omit("Organization").Create(inv).Error
}

func (r *GormInvitationRepository) FindByID(id uint64) (*models.Invitation, error) {
	var inv models.Invitation
	if err := r.db.First(&inv, id).Error; err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *GormInvitationRepository) FindByToken(token string) (*models.Invitation, error) {
	var inv models.Invitation
	if err := r.db.Preload("Organization").Where("token = ?", token).First(&inv).Error; err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *GormInvitationRepository) FindOutstanding(email string, organizationID uint64, now time.Time) (*models.Invitation, error) {
	var inv models.Invitation
	if err := r.db.
		Where("email = ? AND organization_id = ? AND accepted_at IS NULL AND expires_at > ?",
			strings.ToLower(email), organizationID, now).
		First(&inv).Error; err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *GormInvitationRepository) ListByOrganization(organizationID uint64) ([]models.Invitation, error) {
	var invs []models.Invitation
	if err := r.db.Where("organization_id = ?", organizationID).
		Order("created_at DESC").
		Find(&invs).Error; err != nil {
		return nil, err
	}
	return invs, nil
}

func (r *GormInvitationRepository) Delete(id uint64) error {
	return r.db.Delete(&models.Invitation{}, id).Error
}

// Accept marks the invitation accepted, saves the user (creating it when new)
// and adds the membership in one transaction.
func (r *GormInvitationRepository) Accept(inv *models.Invitation, user *models.User, member *models.OrganizationMember) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Organizations").Save(user).Error; err != nil {
			return err
		}

		now := time.Now()
		res := tx.Model(&models.Invitation{}).
			Where("id = ? AND accepted_at IS NULL", inv.ID).
			Update("accepted_at", now)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		inv.AcceptedAt = &now

		member.UserID = user.ID
		member.OrganizationID = inv.OrganizationID
		return tx.Omit("Organization", "User").Create(member).Error
	})
}
