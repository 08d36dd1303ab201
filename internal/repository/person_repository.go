package repository

import (
	"strings"

	"github.com/yukikurage/party-planner-api/internal/models"
	"github.com/yukikurage/party-planner-api/internal/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormPersonRepository is a GORM implementation of PersonRepository
type GormPersonRepository struct {
	db *gorm.DB
}

// NewPersonRepository creates a new PersonRepository
func NewPersonRepository(db *gorm.DB) PersonRepository {
	return &GormPersonRepository{db: db}
}

func (r *GormPersonRepository) Create(person *models.Person) error {
	return translate(r.db.Create(person).Error)
}

func (r *GormPersonRepository) Update(person *models.Person) error {
	return translate(r.db.Omit(clause.Associations).Save(person).Error)
}

func (r *GormPersonRepository) FindByID(id uint64) (*models.Person, error) {
	var person models.Person
	if err := r.db.First(&person, id).Error; err != nil {
		return nil, err
	}
	return &person, nil
}

func (r *GormPersonRepository) FindByEmail(email string) (*models.Person, error) {
	var person models.Person
	normalized := strings.ToLower(strings.TrimSpace(email))
	if err := r.db.Where("email = ?", normalized).First(&person).Error; err != nil {
		return nil, err
	}
	return &person, nil
}

func (r *GormPersonRepository) FindByIDs(ids []uint64) ([]models.Person, error) {
	if len(ids) == 0 {
		return []models.Person{}, nil
	}
	var persons []models.Person
	if err := r.db.Where("id IN ?", ids).Order("id").Find(&persons).Error; err != nil {
		return nil, err
	}
	return persons, nil
}

func (r *GormPersonRepository) List(search string, params utils.PaginationParams) ([]models.Person, int64, error) {
	query := r.db.Model(&models.Person{})
	if s := strings.TrimSpace(search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		query = query.Where("LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ? OR email LIKE ?", like, like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var persons []models.Person
	if err := query.Order("first_name, last_name").
		Offset(params.Offset).Limit(params.Limit).
		Find(&persons).Error; err != nil {
		return nil, 0, err
	}
	return persons, total, nil
}
