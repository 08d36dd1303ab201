package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/party-planner-api/internal/models"
	"github.com/yukikurage/party-planner-api/internal/testutil"
)

func TestInviteFriend_CreatesReferralPersonAndRSVP(t *testing.T) {
	env := newTestEnv(t)
	p := env.newParty(t)
	actor := env.householdActor(t, p, p.alice.ID)

	result, err := env.referrals.InviteFriend(context.Background(), actor, InviteFriendInput{
		FirstName: "Frank",
		Email:     "Frank@Example.com",
	})
	require.NoError(t, err)
	assert.NotZero(t, result.Referral.ID)
	assert.True(t, result.EmailSent)
	assert.Equal(t, "frank@example.com", *result.Person.Email)
	require.NotNil(t, result.Referral.ShortToken)
	assert.NotNil(t, result.Referral.EmailSentAt)

	rsvp, err := env.rsvps.GetForPerson(p.event.ID, result.Person.ID)
	require.NoError(t, err)
	require.NotNil(t, rsvp)
	assert.Nil(t, rsvp.HouseholdID)

	messages := env.dispatcher.SentTo("frank@example.com")
	require.Len(t, messages, 1)
	assert.Contains(t, messages[0].Message.Body, "/f/"+*result.Referral.ShortToken)
	assert.Contains(t, messages[0].Message.Body, "alice@example.com")
}

func TestInviteFriend_SecondCallIsAlreadyInvited(t *testing.T) {
	env := newTestEnv(t)
	p := env.newParty(t)
	actor := env.householdActor(t, p, p.alice.ID)
	input := InviteFriendInput{FirstName: "Frank", Email: "frank@example.com"}

	_, err := env.referrals.InviteFriend(context.Background(), actor, input)
	require.NoError(t, err)
	second, err := env.referrals.InviteFriend(context.Background(), actor, input)
	assert.ErrorIs(t, err, ErrAlreadyInvited)
	assert.Nil(t, second)

	assert.EqualValues(t, 1, testutil.CountRows(t, env.db, &models.GuestReferral{}, ""))
	assert.Equal(t, 1, env.dispatcher.Count())
}

func TestInviteFriend_OtherReferrerGetsNoToken(t *testing.T) {
	env := newTestEnv(t)
	p := env.newParty(t)
	carol := testutil.CreatePerson(t, env.db, "Carol", testutil.WithEmail("carol@example.com"))
	other := testutil.CreateHousehold(t, env.db, "The Joneses", carol)
	_, _, err := env.invitations.CreateInvitation(p.event.ID, other.ID)
	require.NoError(t, err)

	input := InviteFriendInput{FirstName: "Frank", Email: "frank@example.com"}
	first, err := env.referrals.InviteFriend(context.Background(), env.householdActor(t, p, p.alice.ID), input)
	require.NoError(t, err)

	carolActor := env.sessionActor(t, p.event.ID, carol.ID)
	second, err := env.referrals.InviteFriend(context.Background(), carolActor, input)
	assert.ErrorIs(t, err, ErrAlreadyInvited)
	assert.Nil(t, second)

	referral, err := env.referrals.GetReferral(first.Referral.ID)
	require.NoError(t, err)
	assert.Equal(t, p.alice.ID, referral.ReferredByPersonID)
}

func TestInviteFriend_RSVPFailureRollsBack(t *testing.T) {
	env := newTestEnv(t)
	p := env.newParty(t)
	actor := env.householdActor(t, p, p.alice.ID)
	testutil.FailCreates(t, env.db, "rsvps")

	_, err := env.referrals.InviteFriend(context.Background(), actor, InviteFriendInput{
		FirstName: "Frank",
		Email:     "frank@example.com",
	})
	require.Error(t, err)

	assert.Zero(t, testutil.CountRows(t, env.db, &models.GuestReferral{}, ""))
	assert.Zero(t, testutil.CountRows(t, env.db, &models.Person{}, "email = ?", "frank@example.com"))
	assert.Zero(t, env.dispatcher.Count())
}

func TestInviteFriend_AlreadyInvitedGuest(t *testing.T) {
	env := newTestEnv(t)
	p := env.newParty(t)
	carol := testutil.CreatePerson(t, env.db, "Carol", testutil.WithEmail("carol@example.com"))
	other := testutil.CreateHousehold(t, env.db, "The Joneses", carol)
	_, _, err := env.invitations.CreateInvitation(p.event.ID, other.ID)
	require.NoError(t, err)

	actor := env.householdActor(t, p, p.alice.ID)
	_, err = env.referrals.InviteFriend(context.Background(), actor, InviteFriendInput{
		FirstName: "Carol",
		Email:     "carol@example.com",
	})
	assert.ErrorIs(t, err, ErrAlreadyInvited)
}

func TestInviteFriend_EmailFailureDoesNotFailReferral(t *testing.T) {
	env := newTestEnv(t)
	p := env.newParty(t)
	env.dispatcher.Fail[models.ChannelEmail] = errors.New("smtp timeout")
	actor := env.householdActor(t, p, p.alice.ID)

	result, err := env.referrals.InviteFriend(context.Background(), actor, InviteFriendInput{
		FirstName: "Frank",
		Email:     "frank@example.com",
	})
	require.NoError(t, err)
	assert.NotZero(t, result.Referral.ID)
	assert.False(t, result.EmailSent)
	assert.Nil(t, result.Referral.EmailSentAt)
	assert.EqualValues(t, 1, testutil.CountRows(t, env.db, &models.Notification{}, "status = ?", models.NotificationFailed))
}

func TestInviteFriend_Rules(t *testing.T) {
	env := newTestEnv(t)
	p := env.newParty(t)
	ctx := context.Background()

	householdOnly := env.householdActor(t, p, 0)
	_, err := env.referrals.InviteFriend(ctx, householdOnly, InviteFriendInput{FirstName: "Frank"})
	assert.ErrorIs(t, err, ErrActorRequired)

	actor := env.householdActor(t, p, p.alice.ID)
	_, err = env.referrals.InviteFriend(ctx, actor, InviteFriendInput{FirstName: "  "})
	assert.ErrorIs(t, err, ErrFriendNameRequired)

	_, err = env.referrals.InviteFriend(ctx, actor, InviteFriendInput{FirstName: "Frank", Email: "not-an-email"})
	assert.ErrorIs(t, err, ErrInvalidFriendEmail)

	outsider := testutil.CreatePerson(t, env.db, "Outsider")
	outsiderActor := &Actor{Mechanism: MechanismSession, Person: outsider, Event: actor.Event}
	_, err = env.referrals.InviteFriend(ctx, outsiderActor, InviteFriendInput{FirstName: "Frank"})
	assert.ErrorIs(t, err, ErrCannotInviteFriends)

	require.NoError(t, env.db.Model(p.event).Update("allow_friend_invites", false).Error)
	actor = env.householdActor(t, p, p.alice.ID)
	_, err = env.referrals.InviteFriend(ctx, actor, InviteFriendInput{FirstName: "Frank"})
	assert.ErrorIs(t, err, ErrFriendInvitesDisabled)
}

func TestReferralLinks_ResolveToFriendOnly(t *testing.T) {
	env := newTestEnv(t)
	p := env.newParty(t)
	actor := env.householdActor(t, p, p.alice.ID)
	result, err := env.referrals.InviteFriend(context.Background(), actor, InviteFriendInput{FirstName: "Frank"})
	require.NoError(t, err)

	friend, err := env.access.FromReferralToken(result.Referral.Token)
	require.NoError(t, err)
	assert.Equal(t, result.Person.ID, friend.PersonID())
	assert.False(t, friend.CoversHousehold(p.household.ID))
	assert.False(t, friend.IsAdmin)

	viaShort, err := env.access.FromReferralShortToken(*result.Referral.ShortToken)
	require.NoError(t, err)
	assert.Equal(t, friend.PersonID(), viaShort.PersonID())

	_, changed, err := env.rsvps.UpdateRSVP(context.Background(), friend, 0, RSVPUpdate{Status: models.RSVPAttending})
	require.NoError(t, err)
	assert.True(t, changed)

	// The host may override a friend's answer because the referral exists.
	host := env.sessionActor(t, p.event.ID, p.organizer.ID)
	rsvp, err := env.rsvps.GetForPerson(p.event.ID, friend.PersonID())
	require.NoError(t, err)
	_, err = env.rsvps.UpdateRSVPByHost(host, rsvp.ID, models.RSVPMaybe, nil)
	assert.NoError(t, err)
}

func TestRemoveFriend_OnlyReferrerOrAdmin(t *testing.T) {
	env := newTestEnv(t)
	p := env.newParty(t)
	alice := env.householdActor(t, p, p.alice.ID)
	result, err := env.referrals.InviteFriend(context.Background(), alice, InviteFriendInput{FirstName: "Frank"})
	require.NoError(t, err)

	friend, err := env.access.FromReferralToken(result.Referral.Token)
	require.NoError(t, err)
	assert.ErrorIs(t, env.referrals.RemoveFriend(friend, result.Referral.ID), ErrCannotRemoveReferral)

	require.NoError(t, env.referrals.RemoveFriend(alice, result.Referral.ID))
	assert.Zero(t, testutil.CountRows(t, env.db, &models.GuestReferral{}, ""))
}
