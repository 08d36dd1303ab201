package repository

import (
	"time"

	"github.com/yukikurage/party-planner-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormAuthTokenRepository is a GORM implementation of AuthTokenRepository
type GormAuthTokenRepository struct {
	db *gorm.DB
}

// NewAuthTokenRepository creates a new AuthTokenRepository
func NewAuthTokenRepository(db *gorm.DB) AuthTokenRepository {
	return &GormAuthTokenRepository{db: db}
}

func (r *GormAuthTokenRepository) Create(token *models.AuthToken) error {
	return translate(r.db.Omit(clause.Associations).Create(token).Error)
}

func (r *GormAuthTokenRepository) Update(token *models.AuthToken) error {
	return r.db.Omit(clause.Associations).Save(token).Error
}

func (r *GormAuthTokenRepository) FindByToken(token string) (*models.AuthToken, error) {
	var authToken models.AuthToken
	if err := r.db.Preload("Person").Where("token = ?", token).First(&authToken).Error; err != nil {
		return nil, err
	}
	return &authToken, nil
}

func (r *GormAuthTokenRepository) InvalidateUnused(personID uint64, tokenType models.AuthTokenType, at time.Time) error {
	return r.db.Model(&models.AuthToken{}).
		Where("person_id = ? AND type = ? AND used_at IS NULL", personID, tokenType).
		Update("used_at", at).Error
}

func (r *GormAuthTokenRepository) CountSince(personID uint64, tokenType models.AuthTokenType, since time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&models.AuthToken{}).
		Where("person_id = ? AND type = ? AND created_at >= ?", personID, tokenType, since).
		Count(&count).Error
	return count, err
}

func (r *GormAuthTokenRepository) DeleteExpired(now time.Time) (int64, error) {
	result := r.db.Where("expires_at < ?", now).Delete(&models.AuthToken{})
	return result.RowsAffected, result.Error
}
