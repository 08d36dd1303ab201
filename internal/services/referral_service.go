package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/yukikurage/party-planner-api/internal/constants"
	"github.com/yukikurage/party-planner-api/internal/models"
	"github.com/yukikurage/party-planner-api/internal/repository"
	"github.com/yukikurage/party-planner-api/internal/token"
	"github.com/yukikurage/party-planner-api/internal/utils"
)

var (
	ErrAlreadyInvited        = errors.New("this person is already invited to the event")
	ErrFriendInvitesDisabled = errors.New("this event does not allow bringing friends")
	ErrCannotInviteFriends   = errors.New("only invited guests can bring friends")
	ErrReferralNotFound      = errors.New("referral not found")
	ErrInvalidReferralToken  = errors.New("invalid friend invitation link")
	ErrReferralExpired       = errors.New("friend invitation link has expired")
	ErrFriendNameRequired    = errors.New("friend's first name is required")
	ErrInvalidFriendEmail    = errors.New("friend's email address is invalid")
	ErrCannotRemoveReferral  = errors.New("only the inviting guest or an admin can remove this friend")
)

// ReferralService implements "bring a friend".
type ReferralService struct {
	repos         *repository.Repositories
	codec         *token.Codec
	notifications *NotificationService
	directory     *DirectoryService
	settings      Settings
	logger        zerolog.Logger
	now           func() time.Time
}

func NewReferralService(repos *repository.Repositories, codec *token.Codec, notifications *NotificationService, directory *DirectoryService, settings Settings, logger zerolog.Logger) *ReferralService {
	return &ReferralService{
		repos:         repos,
		codec:         codec,
		notifications: notifications,
		directory:     directory,
		settings:      settings,
		logger:        logger,
		now:           time.Now,
	}
}

// InviteFriendInput describes the friend being brought.
type InviteFriendInput struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
}

// InviteFriendResult carries the referral and whether the email went out.
// Email failures never fail the referral itself.
type InviteFriendResult struct {
	Referral  *models.GuestReferral
	Person    *models.Person
	EmailSent bool
}

// CanInviteFriends is true when friends are allowed and the person holds an
// RSVP for the event.
func (s *ReferralService) CanInviteFriends(event *models.Event, personID uint64) (bool, error) {
	if !event.AllowFriendInvites || event.IsReadOnly() || personID == 0 {
		return false, nil
	}
	if _, err := s.repos.RSVPs.FindByEventAndPerson(event.ID, personID); err != nil {
		if repository.IsNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to find rsvp: %w", err)
	}
	return true, nil
}

// InviteFriend creates the referral for the friend, with its person, RSVP and
// both tokens in one transaction, then emails the friend. A known email that
// already holds an RSVP or a referral for the event is rejected as already
// invited, so an existing referral token is never handed to a new caller.
func (s *ReferralService) InviteFriend(ctx context.Context, actor *Actor, input InviteFriendInput) (*InviteFriendResult, error) {
	if actor == nil || actor.Event == nil || actor.Person == nil {
		return nil, ErrActorRequired
	}
	event := actor.Event
	referrer := actor.Person

	if !event.AllowFriendInvites {
		return nil, ErrFriendInvitesDisabled
	}
	if event.IsReadOnly() {
		return nil, ErrEventReadOnly
	}
	ok, err := s.CanInviteFriends(event, referrer.ID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrCannotInviteFriends
	}

	input.FirstName = strings.TrimSpace(input.FirstName)
	input.Email = strings.TrimSpace(input.Email)
	if input.FirstName == "" {
		return nil, ErrFriendNameRequired
	}
	if input.Email != "" && !s.directory.ValidEmail(input.Email) {
		return nil, ErrInvalidFriendEmail
	}

	result := &InviteFriendResult{}
	err = s.repos.Transaction(func(tx *repository.Repositories) error {
		person, err := s.findOrBuildFriend(tx, input)
		if err != nil {
			return err
		}

		if person.ID != 0 {
			if _, err := tx.RSVPs.FindByEventAndPerson(event.ID, person.ID); err == nil {
				return ErrAlreadyInvited
			} else if !repository.IsNotFound(err) {
				return fmt.Errorf("failed to find rsvp: %w", err)
			}
			if _, err := tx.Referrals.FindByEventAndPerson(event.ID, person.ID); err == nil {
				return ErrAlreadyInvited
			} else if !repository.IsNotFound(err) {
				return fmt.Errorf("failed to find referral: %w", err)
			}
		} else if err := tx.Persons.Create(person); err != nil {
			if repository.IsDuplicate(err) {
				return ErrAlreadyInvited
			}
			return fmt.Errorf("failed to create person: %w", err)
		}

		referral := &models.GuestReferral{
			EventID:            event.ID,
			ReferredPersonID:   person.ID,
			ReferredByPersonID: referrer.ID,
		}
		if err := tx.Referrals.Create(referral); err != nil {
			return err
		}
		if err := s.issueTokens(tx, referral); err != nil {
			return err
		}
		if err := tx.Referrals.Update(referral); err != nil {
			return fmt.Errorf("failed to store referral token: %w", err)
		}

		if err := tx.RSVPs.Create(&models.RSVP{
			EventID:  event.ID,
			PersonID: person.ID,
			Status:   models.RSVPNoResponse,
		}); err != nil {
			return fmt.Errorf("failed to create rsvp: %w", err)
		}

		result.Referral = referral
		result.Person = person
		return nil
	})

	if errors.Is(err, repository.ErrDuplicate) {
		// Lost a race on (event, referred person).
		return nil, ErrAlreadyInvited
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Uint64("event_id", event.ID).
		Uint64("referral_id", result.Referral.ID).
		Uint64("referred_by", referrer.ID).
		Msg("friend invited")
	result.EmailSent = s.sendReferralEmail(ctx, event, result.Person, referrer, result.Referral)
	return result, nil
}

// findOrBuildFriend returns the existing person for the email, or an unsaved
// person (ID 0) built from input.
func (s *ReferralService) findOrBuildFriend(tx *repository.Repositories, input InviteFriendInput) (*models.Person, error) {
	if input.Email != "" {
		person, err := tx.Persons.FindByEmail(input.Email)
		if err == nil {
			return person, nil
		}
		if !repository.IsNotFound(err) {
			return nil, fmt.Errorf("failed to find person: %w", err)
		}
	}
	return &models.Person{
		FirstName:         input.FirstName,
		LastName:          models.StringPtr(input.LastName),
		Email:             models.StringPtr(input.Email),
		Phone:             models.StringPtr(input.Phone),
		Role:              models.PersonRoleAdult,
		ContactPreference: models.ContactEmail,
	}, nil
}

func (s *ReferralService) issueTokens(tx *repository.Repositories, referral *models.GuestReferral) error {
	signed, err := s.codec.SignReferral(referral.EventID, referral.ReferredPersonID, referral.ID)
	if err != nil {
		return fmt.Errorf("failed to sign referral token: %w", err)
	}
	short, err := utils.UniqueShortToken(
		constants.ReferralShortTokenLength,
		tx.Referrals.ShortTokenExists,
		utils.FallbackKey("f", referral.EventID, referral.ReferredPersonID),
	)
	if err != nil {
		return fmt.Errorf("failed to generate short token: %w", err)
	}
	expires := s.now().Add(s.settings.TokenTTL)
	referral.Token = signed
	referral.ShortToken = &short
	referral.TokenExpiresAt = &expires
	return nil
}

// sendReferralEmail swallows every failure into its boolean result.
func (s *ReferralService) sendReferralEmail(ctx context.Context, event *models.Event, friend, referrer *models.Person, referral *models.GuestReferral) bool {
	if !friend.HasEmail() {
		return false
	}
	msg := referralMessage(s.settings, event, friend, referrer, s.ReferralURL(referral))
	if !s.notifications.DeliverToPerson(ctx, models.ChannelEmail, friend, msg,
		correlation(event.ID, friend.ID, models.NotificationReferral)) {
		return false
	}

	referral.MarkEmailSent(s.now())
	if err := s.repos.Referrals.Update(referral); err != nil {
		s.logger.Error().Err(err).Uint64("referral_id", referral.ID).Msg("failed to record referral email")
	}
	return true
}

// ResendEmail sends the friend's invitation email again.
func (s *ReferralService) ResendEmail(ctx context.Context, referralID uint64) (bool, error) {
	referral, err := s.GetReferral(referralID)
	if err != nil {
		return false, err
	}
	event, err := s.repos.Events.FindByID(referral.EventID)
	if err != nil {
		return false, fmt.Errorf("failed to find event: %w", err)
	}
	return s.sendReferralEmail(ctx, event, &referral.ReferredPerson, &referral.ReferredBy, referral), nil
}

func (s *ReferralService) ReferralURL(referral *models.GuestReferral) string {
	if referral.ShortToken != nil {
		return s.settings.url("/f/" + *referral.ShortToken)
	}
	return s.settings.url("/friend/" + referral.Token)
}

func (s *ReferralService) GetReferral(id uint64) (*models.GuestReferral, error) {
	referral, err := s.repos.Referrals.FindByID(id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrReferralNotFound
		}
		return nil, fmt.Errorf("failed to find referral: %w", err)
	}
	return referral, nil
}

// ResolveToken verifies a long referral token. Anything short of a fully
// matching, unexpired row fails closed.
func (s *ReferralService) ResolveToken(raw string) (*models.GuestReferral, error) {
	claims, err := s.codec.VerifyReferral(raw, s.settings.TokenTTL)
	if err != nil {
		return nil, ErrInvalidReferralToken
	}
	referral, err := s.repos.Referrals.FindByID(claims.ReferralID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrInvalidReferralToken
		}
		return nil, fmt.Errorf("failed to find referral: %w", err)
	}
	if referral.EventID != claims.EventID || referral.ReferredPersonID != claims.ReferredPersonID || referral.Token != raw {
		return nil, ErrInvalidReferralToken
	}
	if referral.IsTokenExpired(s.now()) {
		return nil, ErrReferralExpired
	}
	return referral, nil
}

func (s *ReferralService) ResolveShortToken(short string) (*models.GuestReferral, error) {
	referral, err := s.repos.Referrals.FindByShortToken(short)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrInvalidReferralToken
		}
		return nil, fmt.Errorf("failed to find referral: %w", err)
	}
	if referral.IsTokenExpired(s.now()) {
		return nil, ErrReferralExpired
	}
	return referral, nil
}

func (s *ReferralService) ListForEvent(eventID uint64) ([]models.GuestReferral, error) {
	referrals, err := s.repos.Referrals.ListByEvent(eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list referrals: %w", err)
	}
	return referrals, nil
}

// ListByReferrer lists the friends one guest brought.
func (s *ReferralService) ListByReferrer(eventID, personID uint64) ([]models.GuestReferral, error) {
	referrals, err := s.repos.Referrals.ListByReferrer(eventID, personID)
	if err != nil {
		return nil, fmt.Errorf("failed to list referrals: %w", err)
	}
	return referrals, nil
}

// RemoveFriend deletes the referral and the friend's RSVP. The person row is
// kept since it may be referenced elsewhere.
func (s *ReferralService) RemoveFriend(actor *Actor, referralID uint64) error {
	if actor == nil || actor.Event == nil {
		return ErrActorRequired
	}
	referral, err := s.GetReferral(referralID)
	if err != nil {
		return err
	}
	if referral.EventID != actor.Event.ID {
		return ErrReferralNotFound
	}
	if !actor.IsAdmin && referral.ReferredByPersonID != actor.PersonID() {
		return ErrCannotRemoveReferral
	}

	return s.repos.Transaction(func(tx *repository.Repositories) error {
		if rsvp, err := tx.RSVPs.FindByEventAndPerson(referral.EventID, referral.ReferredPersonID); err == nil {
			if err := tx.RSVPs.Delete(rsvp.ID); err != nil {
				return fmt.Errorf("failed to delete rsvp: %w", err)
			}
		} else if !repository.IsNotFound(err) {
			return fmt.Errorf("failed to find rsvp: %w", err)
		}
		if err := tx.Referrals.Delete(referral.ID); err != nil {
			return fmt.Errorf("failed to delete referral: %w", err)
		}
		return nil
	})
}
