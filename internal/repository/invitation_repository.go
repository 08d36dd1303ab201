package repository

import (
	"github.com/yukikurage/party-planner-api/internal/models"
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

func (r *GormInvitationRepository) Create(invitation *models.EventInvitation) error {
	return translate(r.db.Create(invitation).Error)
}

func (r *GormInvitationRepository) Update(invitation *models.EventInvitation) error {
	return translate(r.db.Omit("Event", "Household", "PersonLinks").Save(invitation).Error)
}

// FindByID finds an invitation by ID with optional preloading
func (r *GormInvitationRepository) FindByID(id uint64, preload ...string) (*models.EventInvitation, error) {
	var invitation models.EventInvitation
	query := r.db
	for _, p := range preload {
		query = query.Preload(p)
	}
	if err := query.First(&invitation, id).Error; err != nil {
		return nil, err
	}
	return &invitation, nil
}

func (r *GormInvitationRepository) FindByEventAndHousehold(eventID, householdID uint64) (*models.EventInvitation, error) {
	var invitation models.EventInvitation
	if err := r.db.Where("event_id = ? AND household_id = ?", eventID, householdID).
		First(&invitation).Error; err != nil {
		return nil, err
	}
	return &invitation, nil
}

func (r *GormInvitationRepository) FindByShortToken(shortToken string) (*models.EventInvitation, error) {
	var invitation models.EventInvitation
	if err := r.db.Where("short_token = ?", shortToken).First(&invitation).Error; err != nil {
		return nil, err
	}
	return &invitation, nil
}

func (r *GormInvitationRepository) ListByEvent(eventID uint64) ([]models.EventInvitation, error) {
	var invitations []models.EventInvitation
	if err := r.db.Preload("Household").
		Where("event_id = ?", eventID).
		Order("id").
		Find(&invitations).Error; err != nil {
		return nil, err
	}
	return invitations, nil
}

func (r *GormInvitationRepository) ListByHousehold(householdID uint64) ([]models.EventInvitation, error) {
	var invitations []models.EventInvitation
	if err := r.db.Preload("Event").
		Joins("JOIN events ON events.id = event_invitations.event_id").
		Where("event_invitations.household_id = ?", householdID).
		Order("events.event_date").
		Find(&invitations).Error; err != nil {
		return nil, err
	}
	return invitations, nil
}

func (r *GormInvitationRepository) ShortTokenExists(shortToken string) (bool, error) {
	var count int64
	err := r.db.Model(&models.EventInvitation{}).Where("short_token = ?", shortToken).Count(&count).Error
	return count > 0, err
}

func (r *GormInvitationRepository) CreatePersonLink(link *models.PersonInvitationLink) error {
	return translate(r.db.Create(link).Error)
}

func (r *GormInvitationRepository) UpdatePersonLink(link *models.PersonInvitationLink) error {
	return r.db.Omit("Invitation", "Person").Save(link).Error
}

func (r *GormInvitationRepository) FindPersonLink(invitationID, personID uint64) (*models.PersonInvitationLink, error) {
	var link models.PersonInvitationLink
	if err := r.db.Where("invitation_id = ? AND person_id = ?", invitationID, personID).
		First(&link).Error; err != nil {
		return nil, err
	}
	return &link, nil
}

func (r *GormInvitationRepository) FindPersonLinkByShortToken(shortToken string) (*models.PersonInvitationLink, error) {
	var link models.PersonInvitationLink
	if err := r.db.Preload("Invitation").Preload("Person").
		Where("short_token = ?", shortToken).
		First(&link).Error; err != nil {
		return nil, err
	}
	return &link, nil
}

func (r *GormInvitationRepository) PersonLinkShortTokenExists(shortToken string) (bool, error) {
	var count int64
	err := r.db.Model(&models.PersonInvitationLink{}).Where("short_token = ?", shortToken).Count(&count).Error
	return count > 0, err
}
