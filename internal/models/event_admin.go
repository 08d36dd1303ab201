package models

import "time"

type AdminRole string

const (
	AdminRoleOrganizer   AdminRole = "organizer"
	AdminRoleCoOrganizer AdminRole = "co_organizer"
)

// EventAdmin grants organizer capability over one event to a person or to a
// whole household. Removal is a soft delete through RemovedAt.
type EventAdmin struct {
	ID          uint64     `gorm:"primarykey" json:"id"`
	EventID     uint64     `gorm:"not null;index" json:"event_id"`
	PersonID    *uint64    `gorm:"index;check:chk_event_admins_target,person_id IS NOT NULL OR household_id IS NOT NULL" json:"person_id"`
	HouseholdID *uint64    `gorm:"index" json:"household_id"`
	Role        AdminRole  `gorm:"type:varchar(20);not null;default:'co_organizer'" json:"role"`
	AddedByID   *uint64    `json:"added_by_id"`
	CreatedAt   time.Time  `json:"created_at"`
	RemovedAt   *time.Time `gorm:"index" json:"removed_at"`

	// Relations
	Person    *Person    `gorm:"foreignKey:PersonID" json:"person,omitempty"`
	Household *Household `gorm:"foreignKey:HouseholdID" json:"household,omitempty"`
}

func (a *EventAdmin) IsActive() bool {
	return a.RemovedAt == nil
}
