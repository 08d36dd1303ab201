package constants

import "time"

// Session and context keys
const (
	SessionCookieName  = "party_session"
	ContextKeyPersonID = "person_id"
	ContextKeyActor    = "actor"
	ContextKeyEvent    = "event"
)

// Authentication
const (
	MinPasswordLength = 8
	AuthTokenBytes    = 32
	RateLimitWindow   = time.Hour
)

// Pagination
const (
	MinPageSize     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Short tokens
const (
	InvitationShortTokenLength = 10
	ReferralShortTokenLength   = 12
	ShortTokenMaxAttempts      = 5
)

// Signing namespaces. Each token type has its own; never share one between types.
const (
	NamespaceInvitation = "rsvp-token"
	NamespaceReferral   = "guest-referral-token"
)

// MaxAIGeneratedItems caps how many potluck suggestions a single generation may add.
const MaxAIGeneratedItems = 15

// DefaultDietaryPrivacyThreshold is the minimum number of attending guests before
// the dietary summary is shown to anyone.
const DefaultDietaryPrivacyThreshold = 2
