package models

import (
	"strings"
	"time"
)

type Household struct {
	ID        uint64    `gorm:"primarykey" json:"id"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	Address   *string   `gorm:"type:text" json:"address"`
	Notes     *string   `gorm:"type:text" json:"notes"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Memberships []HouseholdMembership `gorm:"foreignKey:HouseholdID" json:"memberships,omitempty"`
}

// Normalize implements Normalizer.
func (h *Household) Normalize() {
	h.Name = strings.TrimSpace(h.Name)
	h.Address = nullIfBlank(h.Address)
	h.Notes = nullIfBlank(h.Notes)
}

// ActiveMembers returns the people of the loaded memberships whose interval is open.
// Memberships must be preloaded with their Person.
func (h *Household) ActiveMembers() []Person {
	var members []Person
	for _, m := range h.Memberships {
		if m.IsActive() {
			members = append(members, m.Person)
		}
	}
	return members
}
