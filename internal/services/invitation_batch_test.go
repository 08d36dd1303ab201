package services

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/party-planner-api/internal/models"
	"github.com/yukikurage/party-planner-api/internal/testutil"
)

func TestCopyGuestList(t *testing.T) {
	env := newTestEnv(t)
	p := env.newParty(t)
	next := testutil.CreateEvent(t, env.db, p.organizer)

	copied, err := env.invitations.CopyGuestList(p.event.ID, next.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, copied)

	copied, err = env.invitations.CopyGuestList(p.event.ID, next.ID)
	require.NoError(t, err)
	assert.Zero(t, copied)

	copied, err = env.invitations.CopyGuestList(next.ID, next.ID)
	require.NoError(t, err)
	assert.Zero(t, copied)

	assert.EqualValues(t, 2, testutil.CountRows(t, env.db, &models.RSVP{}, "event_id = ?", next.ID))
}

func TestSendSelectedAndAll(t *testing.T) {
	env := newTestEnv(t)
	p := env.newParty(t)
	carol := testutil.CreatePerson(t, env.db, "Carol", testutil.WithEmail("carol@example.com"))
	other := testutil.CreateHousehold(t, env.db, "The Joneses", carol)
	quiet := testutil.CreateHousehold(t, env.db, "No Contact", testutil.CreatePerson(t, env.db, "Dan"))
	_, err := env.invitations.CreateInvitationsBulk(p.event.ID, []uint64{other.ID, quiet.ID})
	require.NoError(t, err)
	ctx := context.Background()

	summary, err := env.invitations.SendSelected(ctx, p.event.ID, []uint64{other.ID, 9999})
	require.NoError(t, err)
	assert.Equal(t, SendSummary{Sent: 1}, summary)
	assert.Len(t, env.dispatcher.SentTo("carol@example.com"), 1)

	summary, err = env.invitations.SendAll(ctx, p.event.ID)
	require.NoError(t, err)
	assert.Equal(t, SendSummary{Sent: 2, Skipped: 1}, summary)
	assert.Len(t, env.dispatcher.SentTo("carol@example.com"), 2)

	_, err = env.invitations.SendAll(ctx, p.event.ID, models.Channel("pigeon"))
	assert.ErrorIs(t, err, ErrInvalidChannel)
}

func TestQRCode(t *testing.T) {
	env := newTestEnv(t)
	p := env.newParty(t)

	png, err := env.invitations.QRCode(p.invite.ID, 0)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG")))

	_, err = env.invitations.QRCode(9999, 128)
	assert.ErrorIs(t, err, ErrInvitationNotFound)
}

func TestHouseholdsWithoutResponse(t *testing.T) {
	env := newTestEnv(t)
	p := env.newParty(t)
	carol := testutil.CreatePerson(t, env.db, "Carol")
	other := testutil.CreateHousehold(t, env.db, "The Joneses", carol)
	_, _, err := env.invitations.CreateInvitation(p.event.ID, other.ID)
	require.NoError(t, err)

	pending, err := env.rsvps.HouseholdsWithoutResponse(p.event.ID)
	require.NoError(t, err)
	assert.Len(t, pending, 2)

	actor := env.householdActor(t, p, p.bob.ID)
	_, _, err = env.rsvps.UpdateRSVP(context.Background(), actor, 0, RSVPUpdate{Status: models.RSVPMaybe})
	require.NoError(t, err)

	pending, err = env.rsvps.HouseholdsWithoutResponse(p.event.ID)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, other.ID, pending[0].ID)
}

func TestFillContactInfo_OnlyFillsGaps(t *testing.T) {
	env := newTestEnv(t)
	p := env.newParty(t)

	person, err := env.directory.FillContactInfo(p.alice.ID, "other@example.com", "")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", *person.Email)

	person, err = env.directory.FillContactInfo(p.bob.ID, "not an email", "")
	require.NoError(t, err)
	assert.Nil(t, person.Email)

	// An address held by someone else is ignored.
	person, err = env.directory.FillContactInfo(p.bob.ID, "ALICE@example.com", "")
	require.NoError(t, err)
	assert.Nil(t, person.Email)

	person, err = env.directory.FillContactInfo(p.bob.ID, "bob@example.com", "")
	require.NoError(t, err)
	require.NotNil(t, person.Email)
	assert.Equal(t, "bob@example.com", *person.Email)
}
