package repository

import (
	"time"

	"github.com/yukikurage/party-planner-api/internal/database"
	"github.com/yukikurage/party-planner-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormEventRepository is a GORM implementation of EventRepository
type GormEventRepository struct {
	db *gorm.DB
}

// NewEventRepository creates a new EventRepository
func NewEventRepository(db *gorm.DB) EventRepository {
	return &GormEventRepository{db: db}
}

func (r *GormEventRepository) Create(event *models.Event) error {
	return translate(r.db.Create(event).Error)
}

func (r *GormEventRepository) Update(event *models.Event) error {
	return r.db.Omit(clause.Associations).Save(event).Error
}

func (r *GormEventRepository) FindByID(id uint64) (*models.Event, error) {
	var event models.Event
	if err := r.db.First(&event, id).Error; err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *GormEventRepository) FindByUUID(uuid string) (*models.Event, error) {
	var event models.Event
	if err := r.db.Where("uuid = ?", uuid).First(&event).Error; err != nil {
		return nil, err
	}
	return &event, nil
}

// adminScope matches active admin rows held by the person directly or by a
// household the person currently belongs to.
func (r *GormEventRepository) adminScope(personID uint64) *gorm.DB {
	households := r.db.Model(&models.HouseholdMembership{}).
		Select("household_id").
		Where("person_id = ? AND left_at IS NULL", personID)

	return r.db.Model(&models.EventAdmin{}).
		Scopes(database.ActiveAdmins).
		Where("(event_admins.person_id = ? OR event_admins.household_id IN (?))", personID, households)
}

func (r *GormEventRepository) ListForAdmin(personID uint64) ([]models.Event, error) {
	eventIDs := r.adminScope(personID).Select("event_admins.event_id")

	var events []models.Event
	if err := r.db.Where("id IN (?)", eventIDs).
		Order("event_date DESC").
		Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

func (r *GormEventRepository) ListPublishedBefore(cutoff time.Time) ([]models.Event, error) {
	var events []models.Event
	if err := r.db.
		Where("status = ?", models.EventStatusPublished).
		Where("COALESCE(end_time, event_date) < ?", cutoff).
		Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

func (r *GormEventRepository) AddAdmin(admin *models.EventAdmin) error {
	return r.db.Omit(clause.Associations).Create(admin).Error
}

func (r *GormEventRepository) UpdateAdmin(admin *models.EventAdmin) error {
	return r.db.Omit(clause.Associations).Save(admin).Error
}

func (r *GormEventRepository) FindAdminByID(eventID, adminID uint64) (*models.EventAdmin, error) {
	var admin models.EventAdmin
	if err := r.db.Where("event_id = ?", eventID).First(&admin, adminID).Error; err != nil {
		return nil, err
	}
	return &admin, nil
}

func (r *GormEventRepository) ListActiveAdmins(eventID uint64) ([]models.EventAdmin, error) {
	var admins []models.EventAdmin
	if err := r.db.Preload("Person").Preload("Household").
		Scopes(database.ActiveAdmins).
		Where("event_id = ?", eventID).
		Order("created_at").
		Find(&admins).Error; err != nil {
		return nil, err
	}
	return admins, nil
}

func (r *GormEventRepository) FindActiveAdminForPerson(eventID, personID uint64) (*models.EventAdmin, error) {
	var admin models.EventAdmin
	if err := r.db.Scopes(database.ActiveAdmins).
		Where("event_id = ? AND person_id = ?", eventID, personID).
		First(&admin).Error; err != nil {
		return nil, err
	}
	return &admin, nil
}

func (r *GormEventRepository) FindActiveAdminForHousehold(eventID, householdID uint64) (*models.EventAdmin, error) {
	var admin models.EventAdmin
	if err := r.db.Scopes(database.ActiveAdmins).
		Where("event_id = ? AND household_id = ?", eventID, householdID).
		First(&admin).Error; err != nil {
		return nil, err
	}
	return &admin, nil
}

func (r *GormEventRepository) IsAdmin(eventID, personID uint64) (bool, error) {
	var count int64
	if err := r.adminScope(personID).
		Where("event_admins.event_id = ?", eventID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
