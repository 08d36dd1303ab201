package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/party-planner-api/internal/models"
	"github.com/yukikurage/party-planner-api/internal/testutil"
)

func TestFromSession_AttachesInvitedHousehold(t *testing.T) {
	env := newTestEnv(t)
	p := env.newParty(t)

	_, err := env.access.FromSession(p.event.ID, 0)
	assert.ErrorIs(t, err, ErrActorRequired)

	actor := env.sessionActor(t, p.event.ID, p.alice.ID)
	assert.Equal(t, MechanismSession, actor.Mechanism)
	assert.False(t, actor.IsAdmin)
	require.NotNil(t, actor.HouseholdID)
	assert.Equal(t, p.household.ID, *actor.HouseholdID)
	assert.Len(t, actor.Members, 2)
	assert.True(t, actor.CanActAs(p.bob.ID))

	host := env.sessionActor(t, p.event.ID, p.organizer.ID)
	assert.True(t, host.IsAdmin)
	assert.Nil(t, host.HouseholdID)
	assert.True(t, host.CoversHousehold(p.household.ID))
}

func TestDraftEventsAreHiddenFromGuests(t *testing.T) {
	env := newTestEnv(t)
	p := env.newParty(t)
	require.NoError(t, env.db.Model(p.event).Update("status", models.EventStatusDraft).Error)

	_, err := env.access.FromSession(p.event.ID, p.alice.ID)
	assert.ErrorIs(t, err, ErrEventNotFound)
	_, err = env.access.FromInvitationToken(p.invite.Token, 0)
	assert.ErrorIs(t, err, ErrEventNotFound)

	host := env.sessionActor(t, p.event.ID, p.organizer.ID)
	assert.True(t, host.IsAdmin)
}

func TestFromInvitationToken_MemberSelection(t *testing.T) {
	env := newTestEnv(t)
	p := env.newParty(t)
	stranger := testutil.CreatePerson(t, env.db, "Stranger")

	actor := env.householdActor(t, p, 0)
	assert.Equal(t, MechanismInvitationToken, actor.Mechanism)
	assert.Nil(t, actor.Person)
	assert.Zero(t, actor.PersonID())
	_, err := actor.ActingPersonID(0)
	assert.ErrorIs(t, err, ErrActorRequired)

	actor = env.householdActor(t, p, p.bob.ID)
	assert.Equal(t, p.bob.ID, actor.PersonID())

	_, err = env.access.FromInvitationToken(p.invite.Token, stranger.ID)
	assert.ErrorIs(t, err, ErrCannotActForOther)
	_, err = env.access.FromInvitationToken("garbage", 0)
	assert.ErrorIs(t, err, ErrInvalidInvitationToken)

	short, err := env.access.FromInvitationShortToken(*p.invite.ShortToken, p.alice.ID)
	require.NoError(t, err)
	assert.Equal(t, p.alice.ID, short.PersonID())
	_, err = env.access.FromInvitationShortToken("nope", 0)
	assert.ErrorIs(t, err, ErrInvalidInvitationToken)
}

func TestFromPersonLink_CoversHousehold(t *testing.T) {
	env := newTestEnv(t)
	p := env.newParty(t)

	link, err := env.invitations.GetOrCreatePersonLink(p.invite.ID, p.bob.ID)
	require.NoError(t, err)

	actor, err := env.access.FromPersonLink(link.ShortToken)
	require.NoError(t, err)
	assert.Equal(t, MechanismPersonLink, actor.Mechanism)
	assert.Equal(t, p.bob.ID, actor.PersonID())
	assert.True(t, actor.CoversHousehold(p.household.ID))
	assert.True(t, actor.CanActAs(p.alice.ID))

	_, err = env.access.FromPersonLink("missing")
	assert.ErrorIs(t, err, ErrPersonLinkNotFound)
}

func TestActor_CoversOnlyOwnHousehold(t *testing.T) {
	env := newTestEnv(t)
	p := env.newParty(t)
	carol := testutil.CreatePerson(t, env.db, "Carol")
	other := testutil.CreateHousehold(t, env.db, "The Joneses", carol)

	actor := env.householdActor(t, p, p.alice.ID)
	assert.True(t, actor.CoversHousehold(p.household.ID))
	assert.False(t, actor.CoversHousehold(other.ID))
	assert.False(t, actor.CanActAs(carol.ID))

	_, err := actor.ActingPersonID(carol.ID)
	assert.ErrorIs(t, err, ErrCannotActForOther)
	id, err := actor.ActingPersonID(0)
	require.NoError(t, err)
	assert.Equal(t, p.alice.ID, id)
}
