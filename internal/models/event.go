package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type EventStatus string

const (
	EventStatusDraft     EventStatus = "draft"
	EventStatusPublished EventStatus = "published"
	EventStatusArchived  EventStatus = "archived"
)

func (s EventStatus) IsValid() bool {
	switch s {
	case EventStatusDraft, EventStatusPublished, EventStatusArchived:
		return true
	}
	return false
}

type Event struct {
	ID                 uint64      `gorm:"primarykey" json:"id"`
	UUID               string      `gorm:"type:varchar(36);uniqueIndex;not null" json:"uuid"`
	Title              string      `gorm:"type:varchar(255);not null" json:"title"`
	Description        *string     `gorm:"type:text" json:"description"`
	EventDate          time.Time   `gorm:"not null;index" json:"event_date"`
	EndTime            *time.Time  `json:"end_time"`
	RSVPDeadline       *time.Time  `json:"rsvp_deadline"`
	VenueName          *string     `gorm:"type:varchar(255)" json:"venue_name"`
	VenueAddress       *string     `gorm:"type:text" json:"venue_address"`
	Status             EventStatus `gorm:"type:varchar(20);not null;default:'draft';index" json:"status"`
	PotluckEnabled     bool        `gorm:"not null;default:true" json:"potluck_enabled"`
	AllowFriendInvites bool        `gorm:"not null;default:true" json:"allow_friend_invites"`
	CreatedByID        uint64      `gorm:"not null;index" json:"created_by_id"`
	CreatedAt          time.Time   `json:"created_at"`
	UpdatedAt          time.Time   `json:"updated_at"`

	// Relations
	CreatedBy Person       `gorm:"foreignKey:CreatedByID" json:"-"`
	Admins    []EventAdmin `gorm:"foreignKey:EventID" json:"-"`
}

// BeforeCreate assigns the public handle.
func (e *Event) BeforeCreate(tx *gorm.DB) error {
	if e.UUID == "" {
		e.UUID = uuid.NewString()
	}
	return nil
}

// Normalize implements Normalizer.
func (e *Event) Normalize() {
	e.Title = strings.TrimSpace(e.Title)
	e.Description = nullIfBlank(e.Description)
	e.VenueName = nullIfBlank(e.VenueName)
	e.VenueAddress = nullIfBlank(e.VenueAddress)
	if e.Status == "" {
		e.Status = EventStatusDraft
	}
}

// IsPast is derived, never stored.
func (e *Event) IsPast(now time.Time) bool {
	if e.EndTime != nil {
		return now.After(*e.EndTime)
	}
	return now.After(e.EventDate)
}

// IsRSVPDeadlinePassed is derived, never stored.
func (e *Event) IsRSVPDeadlinePassed(now time.Time) bool {
	return e.RSVPDeadline != nil && now.After(*e.RSVPDeadline)
}

// VisibleTo: drafts are admin-only, everything else is visible.
func (e *Event) VisibleTo(isAdmin bool) bool {
	if isAdmin {
		return true
	}
	return e.Status != EventStatusDraft
}

func (e *Event) IsReadOnly() bool {
	return e.Status == EventStatusArchived
}
