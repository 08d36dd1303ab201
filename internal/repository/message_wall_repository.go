package repository

import (
	"github.com/yukikurage/party-planner-api/internal/database"
	"github.com/yukikurage/party-planner-api/internal/models"
	"github.com/yukikurage/party-planner-api/internal/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormMessageWallRepository is a GORM implementation of MessageWallRepository
type GormMessageWallRepository struct {
	db *gorm.DB
}

// NewMessageWallRepository creates a new MessageWallRepository
func NewMessageWallRepository(db *gorm.DB) MessageWallRepository {
	return &GormMessageWallRepository{db: db}
}

func (r *GormMessageWallRepository) Create(post *models.MessageWallPost) error {
	return r.db.Omit(clause.Associations).Create(post).Error
}

func (r *GormMessageWallRepository) ListByEvent(eventID uint64, params utils.PaginationParams) ([]models.MessageWallPost, int64, error) {
	query := r.db.Model(&models.MessageWallPost{}).Where("event_id = ?", eventID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var posts []models.MessageWallPost
	if err := query.Preload("Person").
		Order("posted_at DESC, id DESC").
		Scopes(database.Paginate(params)).
		Find(&posts).Error; err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}
