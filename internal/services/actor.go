package services

import (
	"errors"

	"github.com/yukikurage/party-planner-api/internal/models"
)

// Mechanism names how a request proved who it is.
type Mechanism string

const (
	MechanismSession         Mechanism = "session"
	MechanismInvitationToken Mechanism = "invitation_token"
	MechanismPersonLink      Mechanism = "person_link"
	MechanismReferralToken   Mechanism = "referral_token"
)

var (
	ErrActorRequired     = errors.New("an identified guest or organizer is required")
	ErrCannotActForOther = errors.New("cannot act on behalf of this person")
	ErrAdminRequired     = errors.New("event admin access required")
)

// Actor is the caller of a service operation, resolved once at the request
// boundary from whichever access mechanism matched. Services take it as an
// explicit parameter.
type Actor struct {
	Mechanism Mechanism
	// Person is nil when a household token was used without choosing a member.
	Person *models.Person
	Event  *models.Event
	// HouseholdID is set for household tokens and person links.
	HouseholdID *uint64
	Invitation  *models.EventInvitation
	Referral    *models.GuestReferral
	// Members are the people a household-scoped actor may answer for.
	Members []models.Person
	IsAdmin bool
}

// PersonID returns the acting person's id or 0.
func (a *Actor) PersonID() uint64 {
	if a == nil || a.Person == nil {
		return 0
	}
	return a.Person.ID
}

func (a *Actor) personIDPtr() *uint64 {
	if id := a.PersonID(); id != 0 {
		return &id
	}
	return nil
}

// CanActAs: a person always acts for themself, household actors for any
// active member of their household.
func (a *Actor) CanActAs(personID uint64) bool {
	if a == nil || personID == 0 {
		return false
	}
	if a.PersonID() == personID {
		return true
	}
	for _, m := range a.Members {
		if m.ID == personID {
			return true
		}
	}
	return false
}

// ActingPersonID resolves the person an operation is performed as. Zero means
// the actor's own person.
func (a *Actor) ActingPersonID(requested uint64) (uint64, error) {
	if requested == 0 {
		if id := a.PersonID(); id != 0 {
			return id, nil
		}
		return 0, ErrActorRequired
	}
	if !a.CanActAs(requested) {
		return 0, ErrCannotActForOther
	}
	return requested, nil
}

// CoversHousehold reports whether the actor may answer for the household.
func (a *Actor) CoversHousehold(householdID uint64) bool {
	if a == nil {
		return false
	}
	if a.IsAdmin {
		return true
	}
	return a.HouseholdID != nil && *a.HouseholdID == householdID
}

func (a *Actor) requireAdmin() error {
	if a == nil || !a.IsAdmin {
		return ErrAdminRequired
	}
	return nil
}
