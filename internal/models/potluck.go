package models

import (
	"strings"
	"time"

	"gorm.io/datatypes"
)

// PotluckItem is either a freeform item a guest is bringing or an organizer
// suggestion guests may claim. Suggested items take unlimited claims.
type PotluckItem struct {
	ID             uint64                      `gorm:"primarykey" json:"id"`
	EventID        uint64                      `gorm:"not null;index" json:"event_id"`
	Name           string                      `gorm:"type:varchar(255);not null" json:"name"`
	Category       *string                     `gorm:"type:varchar(50)" json:"category"`
	Description    *string                     `gorm:"type:text" json:"description"`
	QuantityNeeded *int                        `json:"quantity_needed"`
	IsSuggested    bool                        `gorm:"not null;default:false;index" json:"is_suggested"`
	DietaryTags    datatypes.JSONSlice[string] `json:"dietary_tags"`
	CreatedByID    *uint64                     `gorm:"index" json:"created_by_id"`
	CreatedAt      time.Time                   `json:"created_at"`
	UpdatedAt      time.Time                   `json:"updated_at"`

	// Single-claim columns from before claims had their own table. Still read,
	// never written by new code paths.
	ClaimedByPersonID  *uint64                     `gorm:"index" json:"-"`
	ClaimerNotes       *string                     `gorm:"type:text" json:"-"`
	ClaimerDietaryTags datatypes.JSONSlice[string] `json:"-"`
	ClaimedAt          *time.Time                  `json:"-"`

	// Relations
	CreatedBy    *Person                  `gorm:"foreignKey:CreatedByID" json:"-"`
	ClaimedBy    *Person                  `gorm:"foreignKey:ClaimedByPersonID" json:"-"`
	Claims       []PotluckClaim           `gorm:"foreignKey:ItemID" json:"-"`
	Contributors []PotluckItemContributor `gorm:"foreignKey:ItemID" json:"-"`
}

// Normalize implements Normalizer.
func (it *PotluckItem) Normalize() {
	it.Name = strings.TrimSpace(it.Name)
	it.Category = nullIfBlank(it.Category)
	it.Description = nullIfBlank(it.Description)
	it.ClaimerNotes = nullIfBlank(it.ClaimerNotes)
	if it.QuantityNeeded != nil && *it.QuantityNeeded <= 0 {
		it.QuantityNeeded = nil
	}
	it.DietaryTags = normalizeTagList(it.DietaryTags)
}

// PotluckClaim is one person's claim on an item.
type PotluckClaim struct {
	ID          uint64                      `gorm:"primarykey" json:"id"`
	ItemID      uint64                      `gorm:"not null;uniqueIndex:idx_potluck_claims_item_person" json:"item_id"`
	PersonID    uint64                      `gorm:"not null;uniqueIndex:idx_potluck_claims_item_person;index" json:"person_id"`
	Notes       *string                     `gorm:"type:text" json:"notes"`
	DietaryTags datatypes.JSONSlice[string] `json:"dietary_tags"`
	ClaimedAt   time.Time                   `gorm:"not null" json:"claimed_at"`

	// Relations
	Person Person `gorm:"foreignKey:PersonID" json:"person,omitempty"`
}

// Normalize implements Normalizer.
func (c *PotluckClaim) Normalize() {
	c.Notes = nullIfBlank(c.Notes)
	c.DietaryTags = normalizeTagList(c.DietaryTags)
	if c.ClaimedAt.IsZero() {
		c.ClaimedAt = time.Now()
	}
}

func normalizeTagList(tags []string) []string {
	if len(tags) == 0 {
		return tags
	}
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		n := NormalizeTagName(t)
		if n == "" {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
