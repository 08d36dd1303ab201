package models

import (
	"strings"
	"time"
)

// Tag is a normalized label shared across people, such as "vegetarian".
type Tag struct {
	ID         uint64    `gorm:"primarykey" json:"id"`
	Name       string    `gorm:"type:varchar(64);not null;uniqueIndex" json:"name"`
	UsageCount int       `gorm:"not null;default:0" json:"usage_count"`
	CreatedAt  time.Time `json:"created_at"`
}

// NormalizeTagName lowercases and trims.
func NormalizeTagName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Normalize implements Normalizer.
func (t *Tag) Normalize() {
	t.Name = NormalizeTagName(t.Name)
	if t.UsageCount < 0 {
		t.UsageCount = 0
	}
}

type PersonTag struct {
	ID        uint64    `gorm:"primarykey" json:"id"`
	PersonID  uint64    `gorm:"not null;uniqueIndex:idx_person_tags_person_tag" json:"person_id"`
	TagID     uint64    `gorm:"not null;uniqueIndex:idx_person_tags_person_tag;index" json:"tag_id"`
	CreatedAt time.Time `json:"created_at"`

	// Relations
	Tag Tag `gorm:"foreignKey:TagID" json:"tag"`
}
