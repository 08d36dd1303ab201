// Package token signs and verifies the long-lived invitation and referral
// tokens. Every token type has its own namespace: the namespace selects the
// signing key, is the token audience, and every payload carries an explicit
// type discriminator, so a token of one type never verifies as another.
package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/yukikurage/party-planner-api/internal/constants"
)

// ErrInvalidToken covers every verification failure. Callers never get a
// partially decoded payload.
var ErrInvalidToken = errors.New("invalid token")

type Type string

const (
	TypeInvitation Type = "household_invitation"
	TypeReferral   Type = "guest_referral"
)

// InvitationClaims is the payload of a household invitation token.
type InvitationClaims struct {
	EventID     uint64 `json:"event_id"`
	HouseholdID uint64 `json:"household_id"`
	Type        Type   `json:"type"`
	jwt.RegisteredClaims
}

// ReferralClaims is the payload of a bring-a-friend token.
type ReferralClaims struct {
	EventID          uint64 `json:"event_id"`
	ReferredPersonID uint64 `json:"referred_person_id"`
	ReferralID       uint64 `json:"referral_id"`
	Type             Type   `json:"type"`
	jwt.RegisteredClaims
}

type Codec struct {
	secret []byte
	now    func() time.Time
}

func NewCodec(secret string) *Codec {
	return &Codec{secret: []byte(secret), now: time.Now}
}

// WithClock returns a copy of the codec that reads time from now.
func (c *Codec) WithClock(now func() time.Time) *Codec {
	return &Codec{secret: c.secret, now: now}
}

func (c *Codec) key(namespace string) []byte {
	mac := hmac.New(sha256.New, c.secret)
	mac.Write([]byte(namespace))
	return mac.Sum(nil)
}

func (c *Codec) registered(namespace string) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		Audience: jwt.ClaimStrings{namespace},
		IssuedAt: jwt.NewNumericDate(c.now()),
		ID:       uuid.NewString(),
	}
}

// Sign signs claims under namespace. The claims' audience must already name
// the namespace.
func (c *Codec) Sign(namespace string, claims jwt.Claims) (string, error) {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.key(namespace))
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", namespace, err)
	}
	return signed, nil
}

// Verify checks signature, audience and, when maxAge > 0, the token age.
// A zero maxAge accepts any structurally valid token; the owning row's expiry
// is then the only expiry.
func (c *Codec) Verify(raw, namespace string, claims jwt.Claims, maxAge time.Duration) error {
	if raw == "" {
		return ErrInvalidToken
	}

	parsed, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return c.key(namespace), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(namespace),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil || !parsed.Valid {
		return ErrInvalidToken
	}

	if maxAge > 0 {
		iat, err := claims.GetIssuedAt()
		if err != nil || iat == nil || c.now().Sub(iat.Time) > maxAge {
			return ErrInvalidToken
		}
	}
	return nil
}

func (c *Codec) SignInvitation(eventID, householdID uint64) (string, error) {
	return c.Sign(constants.NamespaceInvitation, InvitationClaims{
		EventID:          eventID,
		HouseholdID:      householdID,
		Type:             TypeInvitation,
		RegisteredClaims: c.registered(constants.NamespaceInvitation),
	})
}

func (c *Codec) VerifyInvitation(raw string, maxAge time.Duration) (*InvitationClaims, error) {
	var claims InvitationClaims
	if err := c.Verify(raw, constants.NamespaceInvitation, &claims, maxAge); err != nil {
		return nil, err
	}
	if claims.Type != TypeInvitation || claims.EventID == 0 || claims.HouseholdID == 0 {
		return nil, ErrInvalidToken
	}
	return &claims, nil
}

func (c *Codec) SignReferral(eventID, referredPersonID, referralID uint64) (string, error) {
	return c.Sign(constants.NamespaceReferral, ReferralClaims{
		EventID:          eventID,
		ReferredPersonID: referredPersonID,
		ReferralID:       referralID,
		Type:             TypeReferral,
		RegisteredClaims: c.registered(constants.NamespaceReferral),
	})
}

func (c *Codec) VerifyReferral(raw string, maxAge time.Duration) (*ReferralClaims, error) {
	var claims ReferralClaims
	if err := c.Verify(raw, constants.NamespaceReferral, &claims, maxAge); err != nil {
		return nil, err
	}
	if claims.Type != TypeReferral || claims.EventID == 0 || claims.ReferredPersonID == 0 || claims.ReferralID == 0 {
		return nil, ErrInvalidToken
	}
	return &claims, nil
}
