package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/skip2/go-qrcode"
	"github.com/yukikurage/party-planner-api/internal/constants"
	"github.com/yukikurage/party-planner-api/internal/models"
	"github.com/yukikurage/party-planner-api/internal/repository"
	"github.com/yukikurage/party-planner-api/internal/token"
	"github.com/yukikurage/party-planner-api/internal/utils"
)

var (
	ErrInvitationNotFound     = errors.New("invitation not found")
	ErrInvalidInvitationToken = errors.New("invalid invitation link")
	ErrInvitationExpired      = errors.New("invitation link has expired")
	ErrPersonLinkNotFound     = errors.New("personal link not found")
	ErrInvalidChannel         = errors.New("invalid notification channel")
)

// InvitationService creates, tracks and sends household invitations.
type InvitationService struct {
	repos         *repository.Repositories
	codec         *token.Codec
	notifications *NotificationService
	settings      Settings
	logger        zerolog.Logger
	now           func() time.Time
}

func NewInvitationService(repos *repository.Repositories, codec *token.Codec, notifications *NotificationService, settings Settings, logger zerolog.Logger) *InvitationService {
	return &InvitationService{
		repos:         repos,
		codec:         codec,
		notifications: notifications,
		settings:      settings,
		logger:        logger,
		now:           time.Now,
	}
}

// CreateInvitation returns the existing invitation for the pair, or creates
// one together with a no_response RSVP for every active member. The bool
// reports whether a new row was created.
func (s *InvitationService) CreateInvitation(eventID, householdID uint64) (*models.EventInvitation, bool, error) {
	var invitation *models.EventInvitation
	created := false

	err := s.repos.Transaction(func(tx *repository.Repositories) error {
		existing, err := tx.Invitations.FindByEventAndHousehold(eventID, householdID)
		if err == nil {
			invitation = existing
			return nil
		}
		if !repository.IsNotFound(err) {
			return fmt.Errorf("failed to find invitation: %w", err)
		}

		event, err := tx.Events.FindByID(eventID)
		if err != nil {
			if repository.IsNotFound(err) {
				return ErrEventNotFound
			}
			return fmt.Errorf("failed to find event: %w", err)
		}
		if event.IsReadOnly() {
			return ErrEventReadOnly
		}
		if _, err := tx.Households.FindByID(householdID); err != nil {
			if repository.IsNotFound(err) {
				return ErrHouseholdNotFound
			}
			return fmt.Errorf("failed to find household: %w", err)
		}

		invitation = &models.EventInvitation{EventID: eventID, HouseholdID: householdID}
		if err := s.issueTokens(tx, invitation); err != nil {
			return err
		}
		if err := tx.Invitations.Create(invitation); err != nil {
			return err
		}
		if _, err := materializeHouseholdRSVPs(tx, eventID, householdID); err != nil {
			return err
		}
		created = true
		return nil
	})

	// A concurrent request created the pair first.
	if errors.Is(err, repository.ErrDuplicate) {
		existing, findErr := s.repos.Invitations.FindByEventAndHousehold(eventID, householdID)
		if findErr != nil {
			return nil, false, fmt.Errorf("failed to find invitation: %w", findErr)
		}
		return existing, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	if created {
		s.logger.Info().Uint64("event_id", eventID).Uint64("household_id", householdID).Msg("invitation created")
	}
	return invitation, created, nil
}

// CreateInvitationsBulk applies CreateInvitation to each household, silently
// skipping ids that do not exist.
func (s *InvitationService) CreateInvitationsBulk(eventID uint64, householdIDs []uint64) ([]models.EventInvitation, error) {
	invitations := make([]models.EventInvitation, 0, len(householdIDs))
	for _, householdID := range uniqueIDs(householdIDs) {
		invitation, _, err := s.CreateInvitation(eventID, householdID)
		if errors.Is(err, ErrHouseholdNotFound) {
			continue
		}
		if err != nil {
			return invitations, err
		}
		invitations = append(invitations, *invitation)
	}
	return invitations, nil
}

// CopyGuestList invites every household invited to the source event. It
// returns how many invitations were new.
func (s *InvitationService) CopyGuestList(sourceEventID, targetEventID uint64) (int, error) {
	if sourceEventID == targetEventID {
		return 0, nil
	}
	source, err := s.repos.Invitations.ListByEvent(sourceEventID)
	if err != nil {
		return 0, fmt.Errorf("failed to list invitations: %w", err)
	}

	created := 0
	for _, inv := range source {
		_, isNew, err := s.CreateInvitation(targetEventID, inv.HouseholdID)
		if errors.Is(err, ErrHouseholdNotFound) {
			continue
		}
		if err != nil {
			return created, err
		}
		if isNew {
			created++
		}
	}
	return created, nil
}

// issueTokens signs a fresh long token, draws a fresh short token and resets
// the expiry. Earlier tokens stop resolving once the row is saved.
func (s *InvitationService) issueTokens(tx *repository.Repositories, invitation *models.EventInvitation) error {
	signed, err := s.codec.SignInvitation(invitation.EventID, invitation.HouseholdID)
	if err != nil {
		return fmt.Errorf("failed to sign invitation token: %w", err)
	}
	short, err := utils.UniqueShortToken(
		constants.InvitationShortTokenLength,
		tx.Invitations.ShortTokenExists,
		utils.FallbackKey("h", invitation.EventID, invitation.HouseholdID),
	)
	if err != nil {
		return fmt.Errorf("failed to generate short token: %w", err)
	}

	expires := s.now().Add(s.settings.TokenTTL)
	invitation.Token = signed
	invitation.ShortToken = &short
	invitation.TokenExpiresAt = &expires
	return nil
}

// RegenerateToken replaces both tokens and the expiry of an invitation.
func (s *InvitationService) RegenerateToken(invitationID uint64) (*models.EventInvitation, error) {
	invitation, err := s.GetInvitation(invitationID)
	if err != nil {
		return nil, err
	}
	err = s.repos.Transaction(func(tx *repository.Repositories) error {
		if err := s.issueTokens(tx, invitation); err != nil {
			return err
		}
		return tx.Invitations.Update(invitation)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to regenerate invitation token: %w", err)
	}
	return invitation, nil
}

func (s *InvitationService) GetInvitation(id uint64) (*models.EventInvitation, error) {
	invitation, err := s.repos.Invitations.FindByID(id, "Household")
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrInvitationNotFound
		}
		return nil, fmt.Errorf("failed to find invitation: %w", err)
	}
	return invitation, nil
}

func (s *InvitationService) ListForEvent(eventID uint64) ([]models.EventInvitation, error) {
	invitations, err := s.repos.Invitations.ListByEvent(eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list invitations: %w", err)
	}
	return invitations, nil
}

// VerifyToken resolves a long invitation token. The signature is checked
// without a max age; the row's expiry is authoritative, and the token must be
// the one currently stored.
func (s *InvitationService) VerifyToken(raw string) (*models.EventInvitation, error) {
	claims, err := s.codec.VerifyInvitation(raw, 0)
	if err != nil {
		return nil, ErrInvalidInvitationToken
	}
	invitation, err := s.repos.Invitations.FindByEventAndHousehold(claims.EventID, claims.HouseholdID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrInvalidInvitationToken
		}
		return nil, fmt.Errorf("failed to find invitation: %w", err)
	}
	if invitation.Token != raw {
		return nil, ErrInvalidInvitationToken
	}
	if invitation.IsTokenExpired(s.now()) {
		return nil, ErrInvitationExpired
	}
	return invitation, nil
}

// ResolveShortToken resolves a household short link by direct lookup.
func (s *InvitationService) ResolveShortToken(short string) (*models.EventInvitation, error) {
	invitation, err := s.repos.Invitations.FindByShortToken(short)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrInvalidInvitationToken
		}
		return nil, fmt.Errorf("failed to find invitation: %w", err)
	}
	if invitation.IsTokenExpired(s.now()) {
		return nil, ErrInvitationExpired
	}
	return invitation, nil
}

// ResolvePersonLink resolves a personal short link and stamps its last access.
// The person must still belong to the invited household.
func (s *InvitationService) ResolvePersonLink(short string) (*models.PersonInvitationLink, error) {
	link, err := s.repos.Invitations.FindPersonLinkByShortToken(short)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrPersonLinkNotFound
		}
		return nil, fmt.Errorf("failed to find personal link: %w", err)
	}
	now := s.now()
	if link.Invitation.IsTokenExpired(now) {
		return nil, ErrInvitationExpired
	}
	if _, err := s.repos.Households.FindActiveMembership(link.Invitation.HouseholdID, link.PersonID); err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrPersonLinkNotFound
		}
		return nil, fmt.Errorf("failed to check membership: %w", err)
	}

	link.LastAccessedAt = &now
	if err := s.repos.Invitations.UpdatePersonLink(link); err != nil {
		s.logger.Warn().Err(err).Uint64("link_id", link.ID).Msg("failed to stamp personal link access")
	}
	return link, nil
}

// GetOrCreatePersonLink is idempotent per invitation and person.
func (s *InvitationService) GetOrCreatePersonLink(invitationID, personID uint64) (*models.PersonInvitationLink, error) {
	invitation, err := s.GetInvitation(invitationID)
	if err != nil {
		return nil, err
	}
	if _, err := s.repos.Households.FindActiveMembership(invitation.HouseholdID, personID); err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrNotMember
		}
		return nil, fmt.Errorf("failed to check membership: %w", err)
	}
	return s.ensurePersonLink(invitationID, personID)
}

func (s *InvitationService) ensurePersonLink(invitationID, personID uint64) (*models.PersonInvitationLink, error) {
	link, err := s.repos.Invitations.FindPersonLink(invitationID, personID)
	if err == nil {
		return link, nil
	}
	if !repository.IsNotFound(err) {
		return nil, fmt.Errorf("failed to find personal link: %w", err)
	}

	short, err := utils.UniqueShortToken(
		constants.InvitationShortTokenLength,
		s.repos.Invitations.PersonLinkShortTokenExists,
		utils.FallbackKey("p", invitationID, personID),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to generate short token: %w", err)
	}

	link = &models.PersonInvitationLink{
		InvitationID: invitationID,
		PersonID:     personID,
		ShortToken:   short,
	}
	if err := s.repos.Invitations.CreatePersonLink(link); err != nil {
		if repository.IsDuplicate(err) {
			return s.repos.Invitations.FindPersonLink(invitationID, personID)
		}
		return nil, fmt.Errorf("failed to create personal link: %w", err)
	}
	return link, nil
}

// HouseholdURL is the short link for the whole household.
func (s *InvitationService) HouseholdURL(invitation *models.EventInvitation) string {
	if invitation.ShortToken != nil {
		return s.settings.url("/i/" + *invitation.ShortToken)
	}
	return s.settings.url("/rsvp/" + invitation.Token)
}

func (s *InvitationService) PersonURL(link *models.PersonInvitationLink) string {
	return s.settings.url("/p/" + link.ShortToken)
}

// QRCode renders the household short link as a PNG.
func (s *InvitationService) QRCode(invitationID uint64, size int) ([]byte, error) {
	invitation, err := s.GetInvitation(invitationID)
	if err != nil {
		return nil, err
	}
	if size <= 0 {
		size = 256
	}
	qr, err := qrcode.New(s.HouseholdURL(invitation), qrcode.Medium)
	if err != nil {
		return nil, fmt.Errorf("failed to build qr code: %w", err)
	}
	png, err := qr.PNG(size)
	if err != nil {
		return nil, fmt.Errorf("failed to render qr code: %w", err)
	}
	return png, nil
}

// channelsFor resolves the channels to use for one member. With no explicit
// channels the member's own preference decides; explicit channels are still
// gated by what the member can receive. Channels without a sender are dropped.
func (s *InvitationService) channelsFor(member *models.Person, requested []models.Channel) []models.Channel {
	var candidates []models.Channel
	if len(requested) == 0 {
		candidates = member.PreferredChannels()
	} else {
		seen := make(map[models.Channel]bool)
		for _, ch := range requested {
			if seen[ch] {
				continue
			}
			seen[ch] = true
			switch {
			case ch == models.ChannelEmail && member.CanReceiveEmail():
				candidates = append(candidates, ch)
			case ch == models.ChannelSMS && member.CanReceiveSMS():
				candidates = append(candidates, ch)
			}
		}
	}

	var channels []models.Channel
	for _, ch := range candidates {
		if s.notifications.Supports(ch) {
			channels = append(channels, ch)
		}
	}
	return channels
}

// recipients are the adult members; children are never contacted directly.
func recipients(members []models.Person) []models.Person {
	adults := make([]models.Person, 0, len(members))
	for _, m := range members {
		if m.Role != models.PersonRoleChild {
			adults = append(adults, m)
		}
	}
	return adults
}

func validChannels(channels []models.Channel) error {
	for _, ch := range channels {
		if !ch.IsValid() {
			return fmt.Errorf("%w: %q", ErrInvalidChannel, ch)
		}
	}
	return nil
}

// SendInvitation notifies every adult member of the household on their
// resolved channels. Each successful send bumps that channel's counters; the
// invitation counts as sent on a channel only if some send on it succeeded.
// It reports whether anything was delivered and never fails.
func (s *InvitationService) SendInvitation(ctx context.Context, invitation *models.EventInvitation, channels ...models.Channel) bool {
	members, err := s.repos.Households.ActiveMembers(invitation.HouseholdID)
	if err != nil {
		s.logger.Error().Err(err).Uint64("invitation_id", invitation.ID).Msg("failed to load household members")
		return false
	}
	return s.sendToMembers(ctx, invitation, recipients(members), channels)
}

// SendToPerson sends the invitation to one active member only.
func (s *InvitationService) SendToPerson(ctx context.Context, invitationID, personID uint64, channels ...models.Channel) (bool, error) {
	if err := validChannels(channels); err != nil {
		return false, err
	}
	invitation, err := s.GetInvitation(invitationID)
	if err != nil {
		return false, err
	}
	if _, err := s.repos.Households.FindActiveMembership(invitation.HouseholdID, personID); err != nil {
		if repository.IsNotFound(err) {
			return false, ErrNotMember
		}
		return false, fmt.Errorf("failed to check membership: %w", err)
	}
	person, err := s.repos.Persons.FindByID(personID)
	if err != nil {
		return false, fmt.Errorf("failed to find person: %w", err)
	}
	return s.sendToMembers(ctx, invitation, []models.Person{*person}, channels), nil
}

func (s *InvitationService) sendToMembers(ctx context.Context, invitation *models.EventInvitation, members []models.Person, channels []models.Channel) bool {
	logger := s.logger.With().Uint64("invitation_id", invitation.ID).Logger()

	event, err := s.repos.Events.FindByID(invitation.EventID)
	if err != nil {
		logger.Error().Err(err).Msg("failed to load event")
		return false
	}
	household, err := s.repos.Households.FindByID(invitation.HouseholdID)
	if err != nil {
		logger.Error().Err(err).Msg("failed to load household")
		return false
	}

	sent := false
	now := s.now()
	for i := range members {
		member := &members[i]
		resolved := s.channelsFor(member, channels)
		if len(resolved) == 0 {
			continue
		}

		link := s.HouseholdURL(invitation)
		if personLink, err := s.ensurePersonLink(invitation.ID, member.ID); err == nil {
			link = s.PersonURL(personLink)
		} else {
			logger.Warn().Err(err).Uint64("person_id", member.ID).Msg("falling back to household link")
		}

		for _, ch := range resolved {
			msg := invitationMessage(s.settings, ch, event, household, member, link)
			corr := correlation(event.ID, member.ID, models.NotificationInvitation)
			if s.notifications.DeliverToPerson(ctx, ch, member, msg, corr) {
				invitation.MarkSent(ch, now)
				sent = true
			}
		}
	}

	if sent {
		if err := s.repos.Invitations.Update(invitation); err != nil {
			logger.Error().Err(err).Msg("failed to record invitation send state")
		}
	}
	return sent
}

// canSend reports whether some adult member is reachable on the channels.
func (s *InvitationService) canSend(members []models.Person, channels []models.Channel) bool {
	adults := recipients(members)
	for i := range adults {
		if len(s.channelsFor(&adults[i], channels)) > 0 {
			return true
		}
	}
	return false
}

// SendSummary counts the outcome of a batch send.
type SendSummary struct {
	Sent    int `json:"sent"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
}

func (s *InvitationService) sendBatch(ctx context.Context, invitations []models.EventInvitation, channels []models.Channel) SendSummary {
	var summary SendSummary
	for i := range invitations {
		invitation := &invitations[i]
		members, err := s.repos.Households.ActiveMembers(invitation.HouseholdID)
		if err != nil || !s.canSend(members, channels) {
			summary.Skipped++
			continue
		}
		if s.sendToMembers(ctx, invitation, recipients(members), channels) {
			summary.Sent++
		} else {
			summary.Failed++
		}
	}
	return summary
}

// SendPending sends every invitation of the event that was never sent.
func (s *InvitationService) SendPending(ctx context.Context, eventID uint64, channels ...models.Channel) (SendSummary, error) {
	if err := validChannels(channels); err != nil {
		return SendSummary{}, err
	}
	invitations, err := s.ListForEvent(eventID)
	if err != nil {
		return SendSummary{}, err
	}
	pending := invitations[:0]
	for _, inv := range invitations {
		if !inv.IsSent() {
			pending = append(pending, inv)
		}
	}
	return s.sendBatch(ctx, pending, channels), nil
}

// SendSelected sends the invitations of the given households, ignoring
// households that are not invited.
func (s *InvitationService) SendSelected(ctx context.Context, eventID uint64, householdIDs []uint64, channels ...models.Channel) (SendSummary, error) {
	if err := validChannels(channels); err != nil {
		return SendSummary{}, err
	}
	invitations, err := s.ListForEvent(eventID)
	if err != nil {
		return SendSummary{}, err
	}
	wanted := make(map[uint64]bool, len(householdIDs))
	for _, id := range householdIDs {
		wanted[id] = true
	}
	selected := invitations[:0]
	for _, inv := range invitations {
		if wanted[inv.HouseholdID] {
			selected = append(selected, inv)
		}
	}
	return s.sendBatch(ctx, selected, channels), nil
}

// SendAll re-sends every invitation of the event.
func (s *InvitationService) SendAll(ctx context.Context, eventID uint64, channels ...models.Channel) (SendSummary, error) {
	if err := validChannels(channels); err != nil {
		return SendSummary{}, err
	}
	invitations, err := s.ListForEvent(eventID)
	if err != nil {
		return SendSummary{}, err
	}
	return s.sendBatch(ctx, invitations, channels), nil
}

// InvitationStats summarizes send state for an event.
type InvitationStats struct {
	Total     int `json:"total"`
	Sent      int `json:"sent"`
	Pending   int `json:"pending"`
	NoContact int `json:"no_contact"`
	CanSend   int `json:"can_send"`
}

func (s *InvitationService) Stats(eventID uint64) (*InvitationStats, error) {
	invitations, err := s.ListForEvent(eventID)
	if err != nil {
		return nil, err
	}

	stats := &InvitationStats{Total: len(invitations)}
	for _, inv := range invitations {
		members, err := s.repos.Households.ActiveMembers(inv.HouseholdID)
		if err != nil {
			return nil, fmt.Errorf("failed to list household members: %w", err)
		}
		reachable := s.canSend(members, nil)
		if !reachable {
			stats.NoContact++
		}
		if inv.IsSent() {
			stats.Sent++
			continue
		}
		stats.Pending++
		if reachable {
			stats.CanSend++
		}
	}
	return stats, nil
}
