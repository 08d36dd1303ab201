package token

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/party-planner-api/internal/constants"
)

func TestInvitationRoundTrip(t *testing.T) {
	codec := NewCodec("test-secret")

	raw, err := codec.SignInvitation(12, 34)
	require.NoError(t, err)

	claims, err := codec.VerifyInvitation(raw, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(12), claims.EventID)
	assert.Equal(t, uint64(34), claims.HouseholdID)
	assert.Equal(t, TypeInvitation, claims.Type)
}

func TestSigningIsFreshEachCall(t *testing.T) {
	codec := NewCodec("test-secret")

	a, err := codec.SignInvitation(1, 1)
	require.NoError(t, err)
	b, err := codec.SignInvitation(1, 1)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestCrossTypeTokensAreRejected(t *testing.T) {
	codec := NewCodec("test-secret")

	referral, err := codec.SignReferral(1, 2, 3)
	require.NoError(t, err)
	invitation, err := codec.SignInvitation(1, 2)
	require.NoError(t, err)

	_, err = codec.VerifyInvitation(referral, 0)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = codec.VerifyReferral(invitation, 0)
	assert.ErrorIs(t, err, ErrInvalidToken)

	claims, err := codec.VerifyReferral(referral, 0)
	require.NoError(t, err)
	assert.Equal(t, TypeReferral, claims.Type)
	assert.Equal(t, uint64(3), claims.ReferralID)
}

func TestDiscriminatorIsCheckedEvenWithMatchingNamespace(t *testing.T) {
	codec := NewCodec("test-secret")

	// Correct key and audience but the wrong discriminator.
	forged, err := codec.Sign(constants.NamespaceInvitation, ReferralClaims{
		EventID:          1,
		ReferredPersonID: 2,
		ReferralID:       3,
		Type:             TypeReferral,
		RegisteredClaims: jwt.RegisteredClaims{
			Audience: jwt.ClaimStrings{constants.NamespaceInvitation},
			IssuedAt: jwt.NewNumericDate(time.Now()),
		},
	})
	require.NoError(t, err)

	_, err = codec.VerifyInvitation(forged, 0)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTamperedAndForeignTokensFailClosed(t *testing.T) {
	codec := NewCodec("test-secret")
	raw, err := codec.SignInvitation(5, 6)
	require.NoError(t, err)

	parts := strings.Split(raw, ".")
	require.Len(t, parts, 3)
	tampered := parts[0] + "." + parts[1] + "x." + parts[2]

	claims, err := codec.VerifyInvitation(tampered, 0)
	assert.Nil(t, claims)
	assert.ErrorIs(t, err, ErrInvalidToken)

	other := NewCodec("another-secret")
	claims, err = other.VerifyInvitation(raw, 0)
	assert.Nil(t, claims)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = codec.VerifyInvitation("", 0)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestMaxAge(t *testing.T) {
	issued := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	codec := NewCodec("test-secret").WithClock(func() time.Time { return issued })

	raw, err := codec.SignInvitation(1, 2)
	require.NoError(t, err)

	later := codec.WithClock(func() time.Time { return issued.Add(48 * time.Hour) })

	_, err = later.VerifyInvitation(raw, 24*time.Hour)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = later.VerifyInvitation(raw, 72*time.Hour)
	assert.NoError(t, err)

	_, err = later.VerifyInvitation(raw, 0)
	assert.NoError(t, err, "no max age means structurally valid forever")
}
