package repository

import (
	"github.com/yukikurage/party-planner-api/internal/models"
	"gorm.io/gorm"
)

// GormRSVPRepository is a GORM implementation of RSVPRepository
type GormRSVPRepository struct {
	db *gorm.DB
}

// NewRSVPRepository creates a new RSVPRepository
func NewRSVPRepository(db *gorm.DB) RSVPRepository {
	return &GormRSVPRepository{db: db}
}

func (r *GormRSVPRepository) Create(rsvp *models.RSVP) error {
	return translate(r.db.Omit("Event", "Person").Create(rsvp).Error)
}

func (r *GormRSVPRepository) Save(rsvp *models.RSVP) error {
	return translate(r.db.Omit("Event", "Person").Save(rsvp).Error)
}

func (r *GormRSVPRepository) Delete(id uint64) error {
	return r.db.Delete(&models.RSVP{}, id).Error
}

func (r *GormRSVPRepository) FindByID(id uint64) (*models.RSVP, error) {
	var rsvp models.RSVP
	if err := r.db.Preload("Person").First(&rsvp, id).Error; err != nil {
		return nil, err
	}
	return &rsvp, nil
}

func (r *GormRSVPRepository) FindByEventAndPerson(eventID, personID uint64) (*models.RSVP, error) {
	var rsvp models.RSVP
	if err := r.db.Where("event_id = ? AND person_id = ?", eventID, personID).
		First(&rsvp).Error; err != nil {
		return nil, err
	}
	return &rsvp, nil
}

func (r *GormRSVPRepository) ListByEvent(eventID uint64) ([]models.RSVP, error) {
	var rsvps []models.RSVP
	if err := r.db.Preload("Person").
		Where("event_id = ?", eventID).
		Order("household_id, id").
		Find(&rsvps).Error; err != nil {
		return nil, err
	}
	return rsvps, nil
}

func (r *GormRSVPRepository) ListByEventAndHousehold(eventID, householdID uint64) ([]models.RSVP, error) {
	var rsvps []models.RSVP
	if err := r.db.Preload("Person").
		Where("event_id = ? AND household_id = ?", eventID, householdID).
		Order("id").
		Find(&rsvps).Error; err != nil {
		return nil, err
	}
	return rsvps, nil
}

func (r *GormRSVPRepository) CountByStatus(eventID uint64) (RSVPStatusCounts, error) {
	var rows []struct {
		Status models.RSVPStatus
		Count  int64
	}
	if err := r.db.Model(&models.RSVP{}).
		Select("status, COUNT(*) AS count").
		Where("event_id = ?", eventID).
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := RSVPStatusCounts{}
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

func (r *GormRSVPRepository) AttendingPersonIDs(eventID uint64) ([]uint64, error) {
	var ids []uint64
	if err := r.db.Model(&models.RSVP{}).
		Where("event_id = ? AND status = ?", eventID, models.RSVPAttending).
		Pluck("person_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}
