package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/party-planner-api/internal/models"
	"github.com/yukikurage/party-planner-api/internal/testutil"
)

func TestCreateInvitation_IsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	p := env.newParty(t)

	again, created, err := env.invitations.CreateInvitation(p.event.ID, p.household.ID)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, p.invite.ID, again.ID)

	assert.EqualValues(t, 1, testutil.CountRows(t, env.db, &models.EventInvitation{}, ""))
	assert.EqualValues(t, 2, testutil.CountRows(t, env.db, &models.RSVP{}, "event_id = ? AND status = ?", p.event.ID, models.RSVPNoResponse))
	require.NotNil(t, p.invite.ShortToken)
	require.NotNil(t, p.invite.TokenExpiresAt)
}

func TestCreateInvitation_RSVPFailureRollsBack(t *testing.T) {
	env := newTestEnv(t)
	p := env.newParty(t)
	carol := testutil.CreatePerson(t, env.db, "Carol")
	other := testutil.CreateHousehold(t, env.db, "The Joneses", carol)
	testutil.FailCreates(t, env.db, "rsvps")

	_, _, err := env.invitations.CreateInvitation(p.event.ID, other.ID)
	require.ErrorIs(t, err, testutil.ErrInjected)

	assert.Zero(t, testutil.CountRows(t, env.db, &models.EventInvitation{}, "household_id = ?", other.ID))
	assert.Zero(t, testutil.CountRows(t, env.db, &models.RSVP{}, "person_id = ?", carol.ID))
}

func TestCreateInvitationsBulk_SkipsUnknownHouseholds(t *testing.T) {
	env := newTestEnv(t)
	p := env.newParty(t)
	carol := testutil.CreatePerson(t, env.db, "Carol")
	other := testutil.CreateHousehold(t, env.db, "The Joneses", carol)

	invitations, err := env.invitations.CreateInvitationsBulk(p.event.ID, []uint64{p.household.ID, other.ID, 9999, other.ID})
	require.NoError(t, err)
	assert.Len(t, invitations, 2)
}

func TestCreateInvitation_ArchivedEventRejected(t *testing.T) {
	env := newTestEnv(t)
	p := env.newParty(t)
	require.NoError(t, env.db.Model(p.event).Update("status", models.EventStatusArchived).Error)

	carol := testutil.CreatePerson(t, env.db, "Carol")
	other := testutil.CreateHousehold(t, env.db, "The Joneses", carol)

	_, _, err := env.invitations.CreateInvitation(p.event.ID, other.ID)
	assert.ErrorIs(t, err, ErrEventReadOnly)
}

func TestSendInvitation_HouseholdWithoutContactSendsNothing(t *testing.T) {
	env := newTestEnv(t)
	p := env.newParty(t)
	dave := testutil.CreatePerson(t, env.db, "Dave")
	quiet := testutil.CreateHousehold(t, env.db, "No Email", dave)
	invite, _, err := env.invitations.CreateInvitation(p.event.ID, quiet.ID)
	require.NoError(t, err)

	sent := env.invitations.SendInvitation(context.Background(), invite)

	assert.False(t, sent)
	assert.Zero(t, env.dispatcher.Count())
	assert.Zero(t, testutil.CountRows(t, env.db, &models.Notification{}, ""))
	assert.Nil(t, invite.SentAt)
}

func TestSendInvitation_RecordsSendAndPersonalLink(t *testing.T) {
	env := newTestEnv(t)
	p := env.newParty(t)

	sent := env.invitations.SendInvitation(context.Background(), p.invite)
	require.True(t, sent)

	messages := env.dispatcher.SentTo("alice@example.com")
	require.Len(t, messages, 1)
	assert.Equal(t, models.ChannelEmail, messages[0].Channel)
	assert.Contains(t, messages[0].Message.Body, "/p/")

	stored, err := env.invitations.GetInvitation(p.invite.ID)
	require.NoError(t, err)
	assert.NotNil(t, stored.SentAt)
	assert.Equal(t, 1, stored.EmailSentCount)
	assert.Zero(t, stored.SMSSentCount)

	assert.EqualValues(t, 1, testutil.CountRows(t, env.db, &models.Notification{}, "status = ? AND type = ?", models.NotificationSent, models.NotificationInvitation))
	assert.EqualValues(t, 1, testutil.CountRows(t, env.db, &models.PersonInvitationLink{}, "person_id = ?", p.alice.ID))
}

func TestSendInvitation_ChildrenAreNotContacted(t *testing.T) {
	env := newTestEnv(t)
	p := env.newParty(t)
	kid := testutil.CreatePerson(t, env.db, "Kid", testutil.WithEmail("kid@example.com"), testutil.AsChild())
	_, err := env.directory.AddMember(p.household.ID, kid.ID, models.HouseholdRoleMember)
	require.NoError(t, err)

	require.True(t, env.invitations.SendInvitation(context.Background(), p.invite))
	assert.Empty(t, env.dispatcher.SentTo("kid@example.com"))
}

func TestSendInvitation_FailedDeliveryIsAudited(t *testing.T) {
	env := newTestEnv(t)
	p := env.newParty(t)
	env.dispatcher.Fail[models.ChannelEmail] = errors.New("provider down")

	sent := env.invitations.SendInvitation(context.Background(), p.invite)

	assert.False(t, sent)
	assert.EqualValues(t, 1, testutil.CountRows(t, env.db, &models.Notification{}, "status = ?", models.NotificationFailed))
	stored, err := env.invitations.GetInvitation(p.invite.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.SentAt)
}

func TestSendInvitation_UnsupportedChannelWritesNoAudit(t *testing.T) {
	env := newTestEnv(t)
	p := env.newParty(t)
	env.dispatcher.Unsupported[models.ChannelSMS] = true
	require.NoError(t, env.db.Model(p.alice).Updates(map[string]interface{}{
		"phone":              "+15555550100",
		"sms_opt_in":         true,
		"contact_preference": models.ContactSMS,
	}).Error)

	sent, err := env.invitations.SendToPerson(context.Background(), p.invite.ID, p.alice.ID, models.ChannelSMS)
	require.NoError(t, err)
	assert.False(t, sent)
	assert.Zero(t, testutil.CountRows(t, env.db, &models.Notification{}, ""))
}

func TestSendPending_SkipsAlreadySent(t *testing.T) {
	env := newTestEnv(t)
	p := env.newParty(t)

	summary, err := env.invitations.SendPending(context.Background(), p.event.ID)
	require.NoError(t, err)
	assert.Equal(t, SendSummary{Sent: 1}, summary)

	summary, err = env.invitations.SendPending(context.Background(), p.event.ID)
	require.NoError(t, err)
	assert.Equal(t, SendSummary{}, summary)

	_, err = env.invitations.SendPending(context.Background(), p.event.ID, models.Channel("fax"))
	assert.ErrorIs(t, err, ErrInvalidChannel)
}

func TestVerifyToken_RejectsOtherTokenTypes(t *testing.T) {
	env := newTestEnv(t)
	p := env.newParty(t)

	referralToken, err := env.codec.SignReferral(p.event.ID, p.alice.ID, 1)
	require.NoError(t, err)

	_, err = env.invitations.VerifyToken(referralToken)
	assert.ErrorIs(t, err, ErrInvalidInvitationToken)

	_, err = env.referrals.ResolveToken(p.invite.Token)
	assert.ErrorIs(t, err, ErrInvalidReferralToken)
}

func TestRegenerateToken_RetiresOldLinks(t *testing.T) {
	env := newTestEnv(t)
	p := env.newParty(t)
	oldToken := p.invite.Token
	oldShort := *p.invite.ShortToken

	fresh, err := env.invitations.RegenerateToken(p.invite.ID)
	require.NoError(t, err)
	require.NotEqual(t, oldToken, fresh.Token)

	_, err = env.invitations.VerifyToken(oldToken)
	assert.ErrorIs(t, err, ErrInvalidInvitationToken)
	_, err = env.invitations.ResolveShortToken(oldShort)
	assert.ErrorIs(t, err, ErrInvalidInvitationToken)

	resolved, err := env.invitations.VerifyToken(fresh.Token)
	require.NoError(t, err)
	assert.Equal(t, p.invite.ID, resolved.ID)
}

func TestVerifyToken_ExpiredRow(t *testing.T) {
	env := newTestEnv(t)
	p := env.newParty(t)
	require.NoError(t, env.db.Model(p.invite).Update("token_expires_at", time.Now().Add(-time.Hour)).Error)

	_, err := env.invitations.VerifyToken(p.invite.Token)
	assert.ErrorIs(t, err, ErrInvitationExpired)
}

func TestResolvePersonLink_RequiresActiveMembership(t *testing.T) {
	env := newTestEnv(t)
	p := env.newParty(t)

	link, err := env.invitations.GetOrCreatePersonLink(p.invite.ID, p.bob.ID)
	require.NoError(t, err)
	again, err := env.invitations.GetOrCreatePersonLink(p.invite.ID, p.bob.ID)
	require.NoError(t, err)
	assert.Equal(t, link.ShortToken, again.ShortToken)

	resolved, err := env.invitations.ResolvePersonLink(link.ShortToken)
	require.NoError(t, err)
	assert.NotNil(t, resolved.LastAccessedAt)

	require.NoError(t, env.directory.LeaveHousehold(p.household.ID, p.bob.ID))
	_, err = env.invitations.ResolvePersonLink(link.ShortToken)
	assert.ErrorIs(t, err, ErrPersonLinkNotFound)
}

func TestInvitationStats(t *testing.T) {
	env := newTestEnv(t)
	p := env.newParty(t)
	dave := testutil.CreatePerson(t, env.db, "Dave")
	quiet := testutil.CreateHousehold(t, env.db, "No Email", dave)
	_, _, err := env.invitations.CreateInvitation(p.event.ID, quiet.ID)
	require.NoError(t, err)

	stats, err := env.invitations.Stats(p.event.ID)
	require.NoError(t, err)
	assert.Equal(t, &InvitationStats{Total: 2, Pending: 2, NoContact: 1, CanSend: 1}, stats)
}
