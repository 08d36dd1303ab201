package repository

import (
	"github.com/yukikurage/party-planner-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormTagRepository is a GORM implementation of TagRepository
type GormTagRepository struct {
	db *gorm.DB
}

// NewTagRepository creates a new TagRepository
func NewTagRepository(db *gorm.DB) TagRepository {
	return &GormTagRepository{db: db}
}

func (r *GormTagRepository) FindByName(name string) (*models.Tag, error) {
	var tag models.Tag
	if err := r.db.Where("name = ?", models.NormalizeTagName(name)).First(&tag).Error; err != nil {
		return nil, err
	}
	return &tag, nil
}

func (r *GormTagRepository) Create(tag *models.Tag) error {
	return translate(r.db.Create(tag).Error)
}

func (r *GormTagRepository) AdjustUsage(tagID uint64, delta int) error {
	return r.db.Model(&models.Tag{}).
		Where("id = ?", tagID).
		Update("usage_count", gorm.Expr("CASE WHEN usage_count + ? < 0 THEN 0 ELSE usage_count + ? END", delta, delta)).
		Error
}

func (r *GormTagRepository) Popular(limit int) ([]models.Tag, error) {
	var tags []models.Tag
	if err := r.db.Where("usage_count > 0").
		Order("usage_count DESC, name").
		Limit(limit).
		Find(&tags).Error; err != nil {
		return nil, err
	}
	return tags, nil
}

func (r *GormTagRepository) Search(prefix string, limit int) ([]models.Tag, error) {
	var tags []models.Tag
	if err := r.db.Where("name LIKE ?", models.NormalizeTagName(prefix)+"%").
		Order("usage_count DESC, name").
		Limit(limit).
		Find(&tags).Error; err != nil {
		return nil, err
	}
	return tags, nil
}

func (r *GormTagRepository) AddPersonTag(personTag *models.PersonTag) error {
	return translate(r.db.Omit(clause.Associations).Create(personTag).Error)
}

func (r *GormTagRepository) FindPersonTag(personID, tagID uint64) (*models.PersonTag, error) {
	var personTag models.PersonTag
	if err := r.db.Where("person_id = ? AND tag_id = ?", personID, tagID).First(&personTag).Error; err != nil {
		return nil, err
	}
	return &personTag, nil
}

func (r *GormTagRepository) DeletePersonTag(id uint64) error {
	return r.db.Delete(&models.PersonTag{}, id).Error
}

func (r *GormTagRepository) ListForPerson(personID uint64) ([]models.Tag, error) {
	var tags []models.Tag
	if err := r.db.
		Joins("JOIN person_tags ON person_tags.tag_id = tags.id").
		Where("person_tags.person_id = ?", personID).
		Order("tags.name").
		Find(&tags).Error; err != nil {
		return nil, err
	}
	return tags, nil
}

func (r *GormTagRepository) ListForPersons(personIDs []uint64) (map[uint64][]models.Tag, error) {
	result := make(map[uint64][]models.Tag)
	if len(personIDs) == 0 {
		return result, nil
	}

	var personTags []models.PersonTag
	if err := r.db.Preload("Tag").
		Where("person_id IN ?", personIDs).
		Find(&personTags).Error; err != nil {
		return nil, err
	}
	for _, pt := range personTags {
		result[pt.PersonID] = append(result[pt.PersonID], pt.Tag)
	}
	return result, nil
}
