package repository

import (
	"github.com/yukikurage/party-planner-api/internal/models"
	"gorm.io/gorm"
)

// GormReferralRepository is a GORM implementation of ReferralRepository
type GormReferralRepository struct {
	db *gorm.DB
}

// NewReferralRepository creates a new ReferralRepository
func NewReferralRepository(db *gorm.DB) ReferralRepository {
	return &GormReferralRepository{db: db}
}

func (r *GormReferralRepository) Create(referral *models.GuestReferral) error {
	return translate(r.db.Create(referral).Error)
}

func (r *GormReferralRepository) Update(referral *models.GuestReferral) error {
	return translate(r.db.Omit("Event", "ReferredPerson", "ReferredBy").Save(referral).Error)
}

func (r *GormReferralRepository) Delete(id uint64) error {
	return r.db.Delete(&models.GuestReferral{}, id).Error
}

func (r *GormReferralRepository) FindByID(id uint64) (*models.GuestReferral, error) {
	var referral models.GuestReferral
	if err := r.db.Preload("ReferredPerson").Preload("ReferredBy").First(&referral, id).Error; err != nil {
		return nil, err
	}
	return &referral, nil
}

func (r *GormReferralRepository) FindByEventAndPerson(eventID, referredPersonID uint64) (*models.GuestReferral, error) {
	var referral models.GuestReferral
	if err := r.db.Where("event_id = ? AND referred_person_id = ?", eventID, referredPersonID).
		First(&referral).Error; err != nil {
		return nil, err
	}
	return &referral, nil
}

func (r *GormReferralRepository) FindByShortToken(shortToken string) (*models.GuestReferral, error) {
	var referral models.GuestReferral
	if err := r.db.Preload("ReferredPerson").
		Where("short_token = ?", shortToken).
		First(&referral).Error; err != nil {
		return nil, err
	}
	return &referral, nil
}

func (r *GormReferralRepository) ListByEvent(eventID uint64) ([]models.GuestReferral, error) {
	var referrals []models.GuestReferral
	if err := r.db.Preload("ReferredPerson").Preload("ReferredBy").
		Where("event_id = ?", eventID).
		Order("created_at").
		Find(&referrals).Error; err != nil {
		return nil, err
	}
	return referrals, nil
}

func (r *GormReferralRepository) ListByReferrer(eventID, referrerID uint64) ([]models.GuestReferral, error) {
	var referrals []models.GuestReferral
	if err := r.db.Preload("ReferredPerson").
		Where("event_id = ? AND referred_by_person_id = ?", eventID, referrerID).
		Order("created_at").
		Find(&referrals).Error; err != nil {
		return nil, err
	}
	return referrals, nil
}

func (r *GormReferralRepository) ShortTokenExists(shortToken string) (bool, error) {
	var count int64
	err := r.db.Model(&models.GuestReferral{}).Where("short_token = ?", shortToken).Count(&count).Error
	return count > 0, err
}
