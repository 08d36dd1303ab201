package repository

import (
	"time"

	"github.com/yukikurage/party-planner-api/internal/database"
	"github.com/yukikurage/party-planner-api/internal/models"
	"github.com/yukikurage/party-planner-api/internal/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormHouseholdRepository is a GORM implementation of HouseholdRepository
type GormHouseholdRepository struct {
	db *gorm.DB
}

// NewHouseholdRepository creates a new HouseholdRepository
func NewHouseholdRepository(db *gorm.DB) HouseholdRepository {
	return &GormHouseholdRepository{db: db}
}

func (r *GormHouseholdRepository) Create(household *models.Household) error {
	return r.db.Create(household).Error
}

func (r *GormHouseholdRepository) Update(household *models.Household) error {
	return r.db.Omit(clause.Associations).Save(household).Error
}

// Delete closes open memberships first so the people keep their history.
func (r *GormHouseholdRepository) Delete(id uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.HouseholdMembership{}).
			Where("household_id = ? AND left_at IS NULL", id).
			Update("left_at", time.Now()).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Household{}, id).Error
	})
}

func (r *GormHouseholdRepository) FindByID(id uint64) (*models.Household, error) {
	var household models.Household
	if err := r.db.First(&household, id).Error; err != nil {
		return nil, err
	}
	return &household, nil
}

func (r *GormHouseholdRepository) FindByIDs(ids []uint64) ([]models.Household, error) {
	if len(ids) == 0 {
		return []models.Household{}, nil
	}
	var households []models.Household
	if err := r.db.Where("id IN ?", ids).Order("id").Find(&households).Error; err != nil {
		return nil, err
	}
	return households, nil
}

func (r *GormHouseholdRepository) List(params utils.PaginationParams) ([]models.Household, int64, error) {
	var total int64
	if err := r.db.Model(&models.Household{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var households []models.Household
	if err := r.db.
		Preload("Memberships", "left_at IS NULL").
		Preload("Memberships.Person").
		Order("name").
		Offset(params.Offset).Limit(params.Limit).
		Find(&households).Error; err != nil {
		return nil, 0, err
	}
	return households, total, nil
}

func (r *GormHouseholdRepository) ActiveMembers(householdID uint64) ([]models.Person, error) {
	var persons []models.Person
	if err := r.db.
		Joins("JOIN household_memberships ON household_memberships.person_id = persons.id").
		Scopes(database.ActiveMemberships).
		Where("household_memberships.household_id = ?", householdID).
		Order("household_memberships.joined_at, persons.id").
		Find(&persons).Error; err != nil {
		return nil, err
	}
	return persons, nil
}

func (r *GormHouseholdRepository) FindActiveMembership(householdID, personID uint64) (*models.HouseholdMembership, error) {
	var membership models.HouseholdMembership
	if err := r.db.Scopes(database.ActiveMemberships).
		Where("household_id = ? AND person_id = ?", householdID, personID).
		First(&membership).Error; err != nil {
		return nil, err
	}
	return &membership, nil
}

func (r *GormHouseholdRepository) ActiveMembershipsForPerson(personID uint64) ([]models.HouseholdMembership, error) {
	var memberships []models.HouseholdMembership
	if err := r.db.Preload("Household").
		Scopes(database.ActiveMemberships).
		Where("person_id = ?", personID).
		Order("CASE WHEN role = 'primary' THEN 0 ELSE 1 END, joined_at").
		Find(&memberships).Error; err != nil {
		return nil, err
	}
	return memberships, nil
}

func (r *GormHouseholdRepository) AddMembership(membership *models.HouseholdMembership) error {
	return r.db.Omit(clause.Associations).Create(membership).Error
}

func (r *GormHouseholdRepository) CloseMembership(membership *models.HouseholdMembership, at time.Time) error {
	membership.LeftAt = &at
	return r.db.Model(membership).Update("left_at", at).Error
}
