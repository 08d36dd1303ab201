package repository

import (
	"time"

	"github.com/yukikurage/party-planner-api/internal/models"
	"github.com/yukikurage/party-planner-api/internal/utils"
)

// PersonRepository defines the interface for person data access
type PersonRepository interface {
	Create(person *models.Person) error
	Update(person *models.Person) error
	FindByID(id uint64) (*models.Person, error)
	// FindByEmail matches case-insensitively; emails are stored lowercased.
	FindByEmail(email string) (*models.Person, error)
	FindByIDs(ids []uint64) ([]models.Person, error)
	List(search string, params utils.PaginationParams) ([]models.Person, int64, error)
}

// HouseholdRepository defines the interface for household and membership data access
type HouseholdRepository interface {
	Create(household *models.Household) error
	Update(household *models.Household) error
	// Delete closes every open membership and removes the household.
	Delete(id uint64) error
	FindByID(id uint64) (*models.Household, error)
	FindByIDs(ids []uint64) ([]models.Household, error)
	List(params utils.PaginationParams) ([]models.Household, int64, error)

	// ActiveMembers returns people with an open membership, ordered by join time.
	ActiveMembers(householdID uint64) ([]models.Person, error)
	FindActiveMembership(householdID, personID uint64) (*models.HouseholdMembership, error)
	// ActiveMembershipsForPerson preloads Household and orders primary roles first.
	ActiveMembershipsForPerson(personID uint64) ([]models.HouseholdMembership, error)
	AddMembership(membership *models.HouseholdMembership) error
	CloseMembership(membership *models.HouseholdMembership, at time.Time) error
}

// EventRepository defines the interface for events and their admins
type EventRepository interface {
	Create(event *models.Event) error
	Update(event *models.Event) error
	FindByID(id uint64) (*models.Event, error)
	FindByUUID(uuid string) (*models.Event, error)
	// ListForAdmin lists events where the person is an active admin directly
	// or through an active household membership.
	ListForAdmin(personID uint64) ([]models.Event, error)
	ListPublishedBefore(cutoff time.Time) ([]models.Event, error)

	AddAdmin(admin *models.EventAdmin) error
	UpdateAdmin(admin *models.EventAdmin) error
	FindAdminByID(eventID, adminID uint64) (*models.EventAdmin, error)
	ListActiveAdmins(eventID uint64) ([]models.EventAdmin, error)
	FindActiveAdminForPerson(eventID, personID uint64) (*models.EventAdmin, error)
	FindActiveAdminForHousehold(eventID, householdID uint64) (*models.EventAdmin, error)
	IsAdmin(eventID, personID uint64) (bool, error)
}

// InvitationRepository defines the interface for household invitations and person links
type InvitationRepository interface {
	Create(invitation *models.EventInvitation) error
	Update(invitation *models.EventInvitation) error
	FindByID(id uint64, preload ...string) (*models.EventInvitation, error)
	FindByEventAndHousehold(eventID, householdID uint64) (*models.EventInvitation, error)
	FindByShortToken(shortToken string) (*models.EventInvitation, error)
	ListByEvent(eventID uint64) ([]models.EventInvitation, error)
	ListByHousehold(householdID uint64) ([]models.EventInvitation, error)
	ShortTokenExists(shortToken string) (bool, error)

	CreatePersonLink(link *models.PersonInvitationLink) error
	UpdatePersonLink(link *models.PersonInvitationLink) error
	FindPersonLink(invitationID, personID uint64) (*models.PersonInvitationLink, error)
	FindPersonLinkByShortToken(shortToken string) (*models.PersonInvitationLink, error)
	PersonLinkShortTokenExists(shortToken string) (bool, error)
}

// ReferralRepository defines the interface for guest referrals
type ReferralRepository interface {
	Create(referral *models.GuestReferral) error
	Update(referral *models.GuestReferral) error
	Delete(id uint64) error
	FindByID(id uint64) (*models.GuestReferral, error)
	FindByEventAndPerson(eventID, referredPersonID uint64) (*models.GuestReferral, error)
	FindByShortToken(shortToken string) (*models.GuestReferral, error)
	ListByEvent(eventID uint64) ([]models.GuestReferral, error)
	ListByReferrer(eventID, referrerID uint64) ([]models.GuestReferral, error)
	ShortTokenExists(shortToken string) (bool, error)
}

// RSVPStatusCounts maps each status to its row count for one event.
type RSVPStatusCounts map[models.RSVPStatus]int64

// RSVPRepository defines the interface for RSVP data access
type RSVPRepository interface {
	Create(rsvp *models.RSVP) error
	Save(rsvp *models.RSVP) error
	Delete(id uint64) error
	FindByID(id uint64) (*models.RSVP, error)
	FindByEventAndPerson(eventID, personID uint64) (*models.RSVP, error)
	ListByEvent(eventID uint64) ([]models.RSVP, error)
	ListByEventAndHousehold(eventID, householdID uint64) ([]models.RSVP, error)
	CountByStatus(eventID uint64) (RSVPStatusCounts, error)
	AttendingPersonIDs(eventID uint64) ([]uint64, error)
}

// PotluckRepository defines the interface for potluck items, claims and contributors
type PotluckRepository interface {
	CreateItem(item *models.PotluckItem) error
	UpdateItem(item *models.PotluckItem) error
	// DeleteItem removes an item with its claims and contributors.
	DeleteItem(id uint64) error
	// FindItem loads the item with everything the claim read path needs.
	FindItem(id uint64) (*models.PotluckItem, error)
	ListItems(filter PotluckFilter) ([]models.PotluckItem, error)

	// LockItem takes the item's row lock for the rest of the transaction.
	LockItem(id uint64) error
	CreateClaim(claim *models.PotluckClaim) error
	UpdateClaim(claim *models.PotluckClaim) error
	DeleteClaim(id uint64) error
	FindClaim(itemID, personID uint64) (*models.PotluckClaim, error)
	ClearLegacyClaim(itemID uint64) error

	// ReplaceContributors deletes the item's contributor rows and inserts the given set.
	ReplaceContributors(itemID uint64, personIDs []uint64) error
}

// PotluckFilter holds filtering options for listing potluck items
type PotluckFilter struct {
	EventID       uint64
	IsSuggested   *bool
	Category      *string
	ClaimedBy     *uint64
	ContributedBy *uint64
}

// TagRepository defines the interface for tags and person tags
type TagRepository interface {
	FindByName(name string) (*models.Tag, error)
	Create(tag *models.Tag) error
	// AdjustUsage adds delta to the usage counter without letting it go below zero.
	AdjustUsage(tagID uint64, delta int) error
	Popular(limit int) ([]models.Tag, error)
	Search(prefix string, limit int) ([]models.Tag, error)

	AddPersonTag(personTag *models.PersonTag) error
	FindPersonTag(personID, tagID uint64) (*models.PersonTag, error)
	DeletePersonTag(id uint64) error
	ListForPerson(personID uint64) ([]models.Tag, error)
	ListForPersons(personIDs []uint64) (map[uint64][]models.Tag, error)
}

// NotificationRepository defines the interface for the notification audit log
type NotificationRepository interface {
	Create(notification *models.Notification) error
	ListByEvent(eventID uint64, params utils.PaginationParams) ([]models.Notification, int64, error)
}

// AuthTokenRepository defines the interface for magic link and reset tokens
type AuthTokenRepository interface {
	Create(token *models.AuthToken) error
	Update(token *models.AuthToken) error
	FindByToken(token string) (*models.AuthToken, error)
	// InvalidateUnused marks every unused token of the type for the person as used.
	InvalidateUnused(personID uint64, tokenType models.AuthTokenType, at time.Time) error
	CountSince(personID uint64, tokenType models.AuthTokenType, since time.Time) (int64, error)
	DeleteExpired(now time.Time) (int64, error)
}

// MessageWallRepository defines the interface for event wall posts
type MessageWallRepository interface {
	Create(post *models.MessageWallPost) error
	// ListByEvent returns posts newest first.
	ListByEvent(eventID uint64, params utils.PaginationParams) ([]models.MessageWallPost, int64, error)
}
