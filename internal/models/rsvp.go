package models

import (
	"errors"
	"fmt"
	"time"
)

type RSVPStatus string

const (
	RSVPNoResponse   RSVPStatus = "no_response"
	RSVPAttending    RSVPStatus = "attending"
	RSVPNotAttending RSVPStatus = "not_attending"
	RSVPMaybe        RSVPStatus = "maybe"
)

// ErrInvalidRSVPStatus is returned for a status outside the fixed set.
var ErrInvalidRSVPStatus = errors.New("invalid rsvp status")

func (s RSVPStatus) IsValid() bool {
	switch s {
	case RSVPNoResponse, RSVPAttending, RSVPNotAttending, RSVPMaybe:
		return true
	}
	return false
}

// ParseRSVPStatus validates raw input.
func ParseRSVPStatus(raw string) (RSVPStatus, error) {
	s := RSVPStatus(raw)
	if !s.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidRSVPStatus, raw)
	}
	return s, nil
}

// RSVP is one person's answer for one event. HouseholdID is nil for brought friends.
type RSVP struct {
	ID                uint64     `gorm:"primarykey" json:"id"`
	EventID           uint64     `gorm:"not null;uniqueIndex:idx_rsvps_event_person" json:"event_id"`
	PersonID          uint64     `gorm:"not null;uniqueIndex:idx_rsvps_event_person;index" json:"person_id"`
	HouseholdID       *uint64    `gorm:"index" json:"household_id"`
	Status            RSVPStatus `gorm:"type:varchar(20);not null;default:'no_response'" json:"status"`
	Notes             *string    `gorm:"type:text" json:"notes"`
	RespondedAt       *time.Time `json:"responded_at"`
	UpdatedByPersonID *uint64    `json:"updated_by_person_id"`
	UpdatedByHost     bool       `gorm:"not null;default:false" json:"updated_by_host"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`

	// Relations
	Event  Event  `gorm:"foreignKey:EventID" json:"-"`
	Person Person `gorm:"foreignKey:PersonID" json:"person,omitempty"`
}

func (RSVP) TableName() string {
	return "rsvps"
}

// ApplyStatus validates and sets the status, keeping RespondedAt in step.
// The row is untouched when the status is invalid.
func (r *RSVP) ApplyStatus(status RSVPStatus, now time.Time) error {
	if !status.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidRSVPStatus, status)
	}
	r.Status = status
	if status == RSVPNoResponse {
		r.RespondedAt = nil
	} else {
		r.RespondedAt = &now
	}
	return nil
}

// Normalize implements Normalizer. RespondedAt is set exactly when the
// status is a real answer, whatever path wrote the row.
func (r *RSVP) Normalize() {
	r.Notes = nullIfBlank(r.Notes)
	if r.Status == "" {
		r.Status = RSVPNoResponse
	}
	if r.Status == RSVPNoResponse {
		r.RespondedAt = nil
	} else if r.RespondedAt == nil {
		now := time.Now()
		r.RespondedAt = &now
	}
}
