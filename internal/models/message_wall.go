package models

import (
	"strings"
	"time"
)

type MessageWallPost struct {
	ID              uint64    `gorm:"primarykey" json:"id"`
	EventID         uint64    `gorm:"not null;index" json:"event_id"`
	PersonID        uint64    `gorm:"not null;index" json:"person_id"`
	Message         string    `gorm:"type:text;not null" json:"message"`
	IsOrganizerPost bool      `gorm:"not null;default:false" json:"is_organizer_post"`
	PostedAt        time.Time `gorm:"not null;index" json:"posted_at"`

	// Relations
	Person Person `gorm:"foreignKey:PersonID" json:"person,omitempty"`
}

// Normalize implements Normalizer.
func (p *MessageWallPost) Normalize() {
	p.Message = strings.TrimSpace(p.Message)
	if p.PostedAt.IsZero() {
		p.PostedAt = time.Now()
	}
}
