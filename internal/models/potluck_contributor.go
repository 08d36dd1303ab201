package models

import (
	"strings"
	"time"
)

// PotluckItemContributor is one member of the "who is bringing this" set of a
// freeform item. Contributors are distinct from claims.
type PotluckItemContributor struct {
	ID        uint64    `gorm:"primarykey" json:"id"`
	ItemID    uint64    `gorm:"not null;uniqueIndex:idx_potluck_contributors_item_person" json:"item_id"`
	PersonID  uint64    `gorm:"not null;uniqueIndex:idx_potluck_contributors_item_person;index" json:"person_id"`
	CreatedAt time.Time `json:"created_at"`

	// Relations
	Person Person `gorm:"foreignKey:PersonID" json:"person,omitempty"`
}

// Claim is either a LiveClaim from the claims table or a LegacyClaim
// synthesized from the single-claim columns on the item row.
type Claim interface {
	ClaimantID() uint64
	Claimant() *Person
	ClaimNotes() *string
	isClaim()
}

type LiveClaim struct {
	PotluckClaim
}

func (c LiveClaim) ClaimantID() uint64  { return c.PersonID }
func (c LiveClaim) Claimant() *Person   { return &c.Person }
func (c LiveClaim) ClaimNotes() *string { return c.Notes }
func (LiveClaim) isClaim()              {}

type LegacyClaim struct {
	PersonID    uint64
	Person      *Person
	Notes       *string
	DietaryTags []string
	ClaimedAt   *time.Time
}

func (c LegacyClaim) ClaimantID() uint64  { return c.PersonID }
func (c LegacyClaim) Claimant() *Person   { return c.Person }
func (c LegacyClaim) ClaimNotes() *string { return c.Notes }
func (LegacyClaim) isClaim()              {}

// legacyClaim returns the synthesized claim when the item carries one.
func (it *PotluckItem) legacyClaim() (LegacyClaim, bool) {
	if it.ClaimedByPersonID == nil {
		return LegacyClaim{}, false
	}
	return LegacyClaim{
		PersonID:    *it.ClaimedByPersonID,
		Person:      it.ClaimedBy,
		Notes:       it.ClaimerNotes,
		DietaryTags: it.ClaimerDietaryTags,
		ClaimedAt:   it.ClaimedAt,
	}, true
}

// AllClaims merges the legacy claim in front of the live claims unless the
// same person already holds a live claim. Claims and ClaimedBy must be loaded.
func (it *PotluckItem) AllClaims() []Claim {
	claims := make([]Claim, 0, len(it.Claims)+1)
	if legacy, ok := it.legacyClaim(); ok && !it.hasLiveClaim(legacy.PersonID) {
		claims = append(claims, legacy)
	}
	for _, c := range it.Claims {
		claims = append(claims, LiveClaim{PotluckClaim: c})
	}
	return claims
}

func (it *PotluckItem) hasLiveClaim(personID uint64) bool {
	for _, c := range it.Claims {
		if c.PersonID == personID {
			return true
		}
	}
	return false
}

// HasClaimBy checks both live and legacy claims.
func (it *PotluckItem) HasClaimBy(personID uint64) bool {
	if it.hasLiveClaim(personID) {
		return true
	}
	return it.ClaimedByPersonID != nil && *it.ClaimedByPersonID == personID
}

func (it *PotluckItem) ClaimCount() int {
	return len(it.AllClaims())
}

func (it *PotluckItem) IsClaimed() bool {
	return it.ClaimCount() > 0
}

// IsFullyClaimed is always false for suggested items. For freeform items
// without a quantity any claim fills it.
func (it *PotluckItem) IsFullyClaimed() bool {
	if it.IsSuggested {
		return false
	}
	if it.QuantityNeeded == nil || *it.QuantityNeeded <= 0 {
		return it.IsClaimed()
	}
	return it.ClaimCount() >= *it.QuantityNeeded
}

// RemainingQuantity returns nil when the item has no ceiling.
func (it *PotluckItem) RemainingQuantity() *int {
	if it.IsSuggested || it.QuantityNeeded == nil {
		return nil
	}
	remaining := *it.QuantityNeeded - it.ClaimCount()
	if remaining < 0 {
		remaining = 0
	}
	return &remaining
}

func (it *PotluckItem) HasContributor(personID uint64) bool {
	for _, c := range it.Contributors {
		if c.PersonID == personID {
			return true
		}
	}
	return false
}

// ContributorNames falls back to the creator, then to "Unknown".
func (it *PotluckItem) ContributorNames() string {
	names := make([]string, 0, len(it.Contributors))
	for _, c := range it.Contributors {
		names = append(names, c.Person.FullName())
	}
	if len(names) == 0 {
		if it.CreatedBy != nil {
			return it.CreatedBy.FullName()
		}
		return "Unknown"
	}
	return JoinNames(names)
}

func (it *PotluckItem) ClaimerNames() string {
	var names []string
	for _, c := range it.AllClaims() {
		if p := c.Claimant(); p != nil && p.ID != 0 {
			names = append(names, p.FullName())
		}
	}
	return JoinNames(names)
}

// JoinNames renders "A", "A and B", or "A, B, and C".
func JoinNames(names []string) string {
	switch len(names) {
	case 0:
		return ""
	case 1:
		return names[0]
	case 2:
		return names[0] + " and " + names[1]
	}
	return strings.Join(names[:len(names)-1], ", ") + ", and " + names[len(names)-1]
}
