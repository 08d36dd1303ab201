package services

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/yukikurage/party-planner-api/internal/logging"
	"github.com/yukikurage/party-planner-api/internal/models"
	"github.com/yukikurage/party-planner-api/internal/repository"
	"github.com/yukikurage/party-planner-api/internal/testutil"
	"github.com/yukikurage/party-planner-api/internal/token"
	"gorm.io/gorm"
)

// testEnv wires every service over one in-memory database.
type testEnv struct {
	db         *gorm.DB
	repos      *repository.Repositories
	dispatcher *testutil.RecordingDispatcher
	codec      *token.Codec

	notifications *NotificationService
	directory     *DirectoryService
	tags          *TagService
	events        *EventService
	invitations   *InvitationService
	rsvps         *RSVPService
	referrals     *ReferralService
	access        *AccessService
	potluck       *PotluckService
	wall          *MessageWallService
	auth          *AuthService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testutil.NewTestDB(t)
	repos := repository.New(db)
	dispatcher := testutil.NewRecordingDispatcher()
	codec := token.NewCodec("test-secret")
	settings := DefaultSettings()
	logger := logging.Nop()

	env := &testEnv{
		db:         db,
		repos:      repos,
		dispatcher: dispatcher,
		codec:      codec,
	}
	env.notifications = NewNotificationService(repos.Notifications, dispatcher, logger)
	env.directory = NewDirectoryService(repos)
	env.tags = NewTagService(repos)
	env.events = NewEventService(repos, settings, logger)
	env.invitations = NewInvitationService(repos, codec, env.notifications, settings, logger)
	env.rsvps = NewRSVPService(repos, env.notifications, settings, logger)
	env.referrals = NewReferralService(repos, codec, env.notifications, env.directory, settings, logger)
	env.access = NewAccessService(repos, env.events, env.invitations, env.referrals)
	env.potluck = NewPotluckService(repos, nil, logger)
	env.wall = NewMessageWallService(repos)
	env.auth = NewAuthService(repos, env.notifications, nil, settings, logger)
	return env
}

// party is a published event with an organizer and one invited household.
type party struct {
	organizer *models.Person
	event     *models.Event
	household *models.Household
	alice     *models.Person
	bob       *models.Person
	invite    *models.EventInvitation
}

func (e *testEnv) newParty(t *testing.T) *party {
	t.Helper()

	organizer := testutil.CreatePerson(t, e.db, "Olivia", testutil.WithEmail("olivia@example.com"), testutil.WithPassword("supersecret"))
	event := testutil.CreateEvent(t, e.db, organizer)
	alice := testutil.CreatePerson(t, e.db, "Alice", testutil.WithEmail("alice@example.com"))
	bob := testutil.CreatePerson(t, e.db, "Bob")
	household := testutil.CreateHousehold(t, e.db, "The Smiths", alice, bob)

	invite, created, err := e.invitations.CreateInvitation(event.ID, household.ID)
	require.NoError(t, err)
	require.True(t, created)

	return &party{
		organizer: organizer,
		event:     event,
		household: household,
		alice:     alice,
		bob:       bob,
		invite:    invite,
	}
}

func (e *testEnv) sessionActor(t *testing.T, eventID, personID uint64) *Actor {
	t.Helper()
	actor, err := e.access.FromSession(eventID, personID)
	require.NoError(t, err)
	return actor
}

func (e *testEnv) householdActor(t *testing.T, p *party, memberID uint64) *Actor {
	t.Helper()
	actor, err := e.access.FromInvitationToken(p.invite.Token, memberID)
	require.NoError(t, err)
	return actor
}
