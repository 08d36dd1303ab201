package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/yukikurage/party-planner-api/internal/models"
	"github.com/yukikurage/party-planner-api/internal/repository"
)

var (
	ErrRSVPNotFound        = errors.New("rsvp not found")
	ErrRSVPNotInEvent      = errors.New("rsvp does not belong to this event")
	ErrHouseholdNotInvited = errors.New("household is not invited to this event")
	ErrRSVPDeadlinePassed  = errors.New("the rsvp deadline has passed")
	ErrNoRSVPUpdates       = errors.New("no rsvp updates given")
)

// RSVPService implements the RSVP state machine and its two update paths.
type RSVPService struct {
	repos         *repository.Repositories
	notifications *NotificationService
	settings      Settings
	logger        zerolog.Logger
	now           func() time.Time
}

func NewRSVPService(repos *repository.Repositories, notifications *NotificationService, settings Settings, logger zerolog.Logger) *RSVPService {
	return &RSVPService{
		repos:         repos,
		notifications: notifications,
		settings:      settings,
		logger:        logger,
		now:           time.Now,
	}
}

// materializeHouseholdRSVPs creates a no_response row for each active member
// that has none yet. It returns how many rows it created.
func materializeHouseholdRSVPs(tx *repository.Repositories, eventID, householdID uint64) (int, error) {
	members, err := tx.Households.ActiveMembers(householdID)
	if err != nil {
		return 0, fmt.Errorf("failed to list household members: %w", err)
	}

	created := 0
	for _, m := range members {
		if _, err := tx.RSVPs.FindByEventAndPerson(eventID, m.ID); err == nil {
			continue
		} else if !repository.IsNotFound(err) {
			return created, fmt.Errorf("failed to find rsvp: %w", err)
		}

		hid := householdID
		if err := tx.RSVPs.Create(&models.RSVP{
			EventID:     eventID,
			PersonID:    m.ID,
			HouseholdID: &hid,
			Status:      models.RSVPNoResponse,
		}); err != nil {
			return created, fmt.Errorf("failed to create rsvp: %w", err)
		}
		created++
	}
	return created, nil
}

// MaterializeHousehold makes sure every active member of an invited
// household has an RSVP row. It is safe to call repeatedly.
func (s *RSVPService) MaterializeHousehold(eventID, householdID uint64) (int, error) {
	created := 0
	err := s.repos.Transaction(func(tx *repository.Repositories) error {
		if _, err := tx.Invitations.FindByEventAndHousehold(eventID, householdID); err != nil {
			if repository.IsNotFound(err) {
				return ErrHouseholdNotInvited
			}
			return fmt.Errorf("failed to find invitation: %w", err)
		}
		var err error
		created, err = materializeHouseholdRSVPs(tx, eventID, householdID)
		return err
	})
	return created, err
}

// RSVPUpdate is one submitted answer. Nil Notes leaves the notes unchanged.
type RSVPUpdate struct {
	Status models.RSVPStatus
	Notes  *string
}

// HouseholdRSVPResult reports what a household submission changed.
type HouseholdRSVPResult struct {
	RSVPs             []models.RSVP
	Changed           []uint64
	NotificationsSent int
}

func validateUpdates(updates map[uint64]RSVPUpdate) error {
	if len(updates) == 0 {
		return ErrNoRSVPUpdates
	}
	for _, u := range updates {
		if !u.Status.IsValid() {
			return fmt.Errorf("%w: %q", models.ErrInvalidRSVPStatus, u.Status)
		}
	}
	return nil
}

func (s *RSVPService) checkGuestWritable(actor *Actor) error {
	if actor == nil || actor.Event == nil {
		return ErrActorRequired
	}
	if actor.Event.IsReadOnly() {
		return ErrEventReadOnly
	}
	if !actor.IsAdmin && actor.Event.IsRSVPDeadlinePassed(s.now()) {
		return ErrRSVPDeadlinePassed
	}
	return nil
}

// UpdateHouseholdRSVPs applies a household's form submission. Every submitted
// row is saved, but only people whose status actually changed are put in the
// changed set, and only they get a confirmation email, one each, after the
// transaction commits. Resubmitting an unchanged form sends nothing.
func (s *RSVPService) UpdateHouseholdRSVPs(ctx context.Context, actor *Actor, householdID uint64, updates map[uint64]RSVPUpdate) (*HouseholdRSVPResult, error) {
	if err := validateUpdates(updates); err != nil {
		return nil, err
	}
	if err := s.checkGuestWritable(actor); err != nil {
		return nil, err
	}
	if !actor.CoversHousehold(householdID) {
		return nil, ErrCannotActForOther
	}
	event := actor.Event

	personIDs := make([]uint64, 0, len(updates))
	for id := range updates {
		personIDs = append(personIDs, id)
	}
	sort.Slice(personIDs, func(i, j int) bool { return personIDs[i] < personIDs[j] })

	result := &HouseholdRSVPResult{}
	members := make(map[uint64]models.Person)
	now := s.now()

	err := s.repos.Transaction(func(tx *repository.Repositories) error {
		if _, err := tx.Invitations.FindByEventAndHousehold(event.ID, householdID); err != nil {
			if repository.IsNotFound(err) {
				return ErrHouseholdNotInvited
			}
			return fmt.Errorf("failed to find invitation: %w", err)
		}
		active, err := tx.Households.ActiveMembers(householdID)
		if err != nil {
			return fmt.Errorf("failed to list household members: %w", err)
		}
		for _, m := range active {
			members[m.ID] = m
		}

		for _, personID := range personIDs {
			if _, ok := members[personID]; !ok {
				return fmt.Errorf("%w: person %d", ErrNotMember, personID)
			}
			update := updates[personID]

			rsvp, err := tx.RSVPs.FindByEventAndPerson(event.ID, personID)
			if err != nil {
				if !repository.IsNotFound(err) {
					return fmt.Errorf("failed to find rsvp: %w", err)
				}
				hid := householdID
				rsvp = &models.RSVP{EventID: event.ID, PersonID: personID, HouseholdID: &hid, Status: models.RSVPNoResponse}
			}

			if rsvp.Status != update.Status {
				if err := rsvp.ApplyStatus(update.Status, now); err != nil {
					return err
				}
				result.Changed = append(result.Changed, personID)
			}
			if update.Notes != nil {
				rsvp.Notes = update.Notes
			}
			rsvp.UpdatedByPersonID = actor.personIDPtr()
			rsvp.UpdatedByHost = false

			if err := tx.RSVPs.Save(rsvp); err != nil {
				return fmt.Errorf("failed to save rsvp: %w", err)
			}
			rsvp.Person = members[personID]
			result.RSVPs = append(result.RSVPs, *rsvp)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	changed := make(map[uint64]bool, len(result.Changed))
	for _, id := range result.Changed {
		changed[id] = true
	}
	for i := range result.RSVPs {
		rsvp := &result.RSVPs[i]
		if !changed[rsvp.PersonID] {
			continue
		}
		person := members[rsvp.PersonID]
		if s.sendConfirmation(ctx, event, &person, rsvp) {
			result.NotificationsSent++
		}
	}
	return result, nil
}

// UpdateRSVP is the single-person self-service path, used by brought friends
// and personal links. It reports whether the status changed.
func (s *RSVPService) UpdateRSVP(ctx context.Context, actor *Actor, personID uint64, update RSVPUpdate) (*models.RSVP, bool, error) {
	if !update.Status.IsValid() {
		return nil, false, fmt.Errorf("%w: %q", models.ErrInvalidRSVPStatus, update.Status)
	}
	if err := s.checkGuestWritable(actor); err != nil {
		return nil, false, err
	}
	personID, err := actor.ActingPersonID(personID)
	if err != nil {
		return nil, false, err
	}

	rsvp, err := s.repos.RSVPs.FindByEventAndPerson(actor.Event.ID, personID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, false, ErrRSVPNotFound
		}
		return nil, false, fmt.Errorf("failed to find rsvp: %w", err)
	}

	changed := rsvp.Status != update.Status
	if changed {
		if err := rsvp.ApplyStatus(update.Status, s.now()); err != nil {
			return nil, false, err
		}
	}
	if update.Notes != nil {
		rsvp.Notes = update.Notes
	}
	rsvp.UpdatedByPersonID = actor.personIDPtr()
	rsvp.UpdatedByHost = false
	if err := s.repos.RSVPs.Save(rsvp); err != nil {
		return nil, false, fmt.Errorf("failed to save rsvp: %w", err)
	}

	if changed {
		person, err := s.repos.Persons.FindByID(personID)
		if err == nil {
			s.sendConfirmation(ctx, actor.Event, person, rsvp)
		}
	}
	return rsvp, changed, nil
}

func (s *RSVPService) sendConfirmation(ctx context.Context, event *models.Event, person *models.Person, rsvp *models.RSVP) bool {
	if !person.HasEmail() {
		return false
	}
	msg := rsvpConfirmationMessage(s.settings, event, person, rsvp)
	return s.notifications.DeliverToPerson(ctx, models.ChannelEmail, person, msg,
		correlation(event.ID, person.ID, models.NotificationRSVPConfirmation))
}

// UpdateRSVPByHost lets an admin set any status on one RSVP of the event.
// The RSVP's household must hold an invitation to the event, or for a
// brought friend a referral must exist. No guest notification is sent.
func (s *RSVPService) UpdateRSVPByHost(actor *Actor, rsvpID uint64, status models.RSVPStatus, notes *string) (*models.RSVP, error) {
	if !status.IsValid() {
		return nil, fmt.Errorf("%w: %q", models.ErrInvalidRSVPStatus, status)
	}
	if err := actor.requireAdmin(); err != nil {
		return nil, err
	}

	rsvp, err := s.repos.RSVPs.FindByID(rsvpID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrRSVPNotFound
		}
		return nil, fmt.Errorf("failed to find rsvp: %w", err)
	}
	if rsvp.EventID != actor.Event.ID {
		return nil, ErrRSVPNotInEvent
	}

	if rsvp.HouseholdID != nil {
		if _, err := s.repos.Invitations.FindByEventAndHousehold(rsvp.EventID, *rsvp.HouseholdID); err != nil {
			if repository.IsNotFound(err) {
				return nil, ErrHouseholdNotInvited
			}
			return nil, fmt.Errorf("failed to find invitation: %w", err)
		}
	} else {
		if _, err := s.repos.Referrals.FindByEventAndPerson(rsvp.EventID, rsvp.PersonID); err != nil {
			if repository.IsNotFound(err) {
				return nil, ErrHouseholdNotInvited
			}
			return nil, fmt.Errorf("failed to find referral: %w", err)
		}
	}

	if rsvp.Status != status {
		if err := rsvp.ApplyStatus(status, s.now()); err != nil {
			return nil, err
		}
	}
	if notes != nil {
		rsvp.Notes = notes
	}
	rsvp.UpdatedByPersonID = actor.personIDPtr()
	rsvp.UpdatedByHost = true

	if err := s.repos.RSVPs.Save(rsvp); err != nil {
		return nil, fmt.Errorf("failed to save rsvp: %w", err)
	}
	s.logger.Info().
		Uint64("event_id", rsvp.EventID).
		Uint64("rsvp_id", rsvp.ID).
		Uint64("host_id", actor.PersonID()).
		Str("status", string(status)).
		Msg("rsvp updated by host")
	return rsvp, nil
}

func (s *RSVPService) ListForEvent(eventID uint64) ([]models.RSVP, error) {
	rsvps, err := s.repos.RSVPs.ListByEvent(eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list rsvps: %w", err)
	}
	return rsvps, nil
}

// GetForPerson returns nil without error when the person has no RSVP.
func (s *RSVPService) GetForPerson(eventID, personID uint64) (*models.RSVP, error) {
	rsvp, err := s.repos.RSVPs.FindByEventAndPerson(eventID, personID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find rsvp: %w", err)
	}
	return rsvp, nil
}

func (s *RSVPService) ListForHousehold(eventID, householdID uint64) ([]models.RSVP, error) {
	rsvps, err := s.repos.RSVPs.ListByEventAndHousehold(eventID, householdID)
	if err != nil {
		return nil, fmt.Errorf("failed to list rsvps: %w", err)
	}
	return rsvps, nil
}

func (s *RSVPService) AttendingCount(eventID uint64) (int64, error) {
	counts, err := s.repos.RSVPs.CountByStatus(eventID)
	if err != nil {
		return 0, fmt.Errorf("failed to count rsvps: %w", err)
	}
	return counts[models.RSVPAttending], nil
}

// HouseholdsWithoutResponse lists invited households where nobody answered.
func (s *RSVPService) HouseholdsWithoutResponse(eventID uint64) ([]models.Household, error) {
	invitations, err := s.repos.Invitations.ListByEvent(eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list invitations: %w", err)
	}

	var households []models.Household
	for _, inv := range invitations {
		rsvps, err := s.repos.RSVPs.ListByEventAndHousehold(eventID, inv.HouseholdID)
		if err != nil {
			return nil, fmt.Errorf("failed to list rsvps: %w", err)
		}
		answered := false
		for _, r := range rsvps {
			if r.Status != models.RSVPNoResponse {
				answered = true
				break
			}
		}
		if !answered {
			households = append(households, inv.Household)
		}
	}
	return households, nil
}
