package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/yukikurage/party-planner-api/internal/models"
	"github.com/yukikurage/party-planner-api/internal/repository"
)

var (
	ErrEventNotFound         = errors.New("event not found")
	ErrEventTitleRequired    = errors.New("event title is required")
	ErrEventDateRequired     = errors.New("event date is required")
	ErrInvalidEventStatus    = errors.New("invalid event status")
	ErrEventReadOnly         = errors.New("event is archived and read-only")
	ErrInvalidSchedule       = errors.New("end time and rsvp deadline must fit the event date")
	ErrAdminTargetRequired   = errors.New("admin must be a person or a household")
	ErrAlreadyAdmin          = errors.New("already an admin of this event")
	ErrAdminNotFound         = errors.New("admin not found")
	ErrCannotRemoveLastAdmin = errors.New("cannot remove the last admin of an event")
)

// EventService manages the event lifecycle and admin roles.
type EventService struct {
	repos    *repository.Repositories
	settings Settings
	logger   zerolog.Logger
}

func NewEventService(repos *repository.Repositories, settings Settings, logger zerolog.Logger) *EventService {
	return &EventService{
		repos:    repos,
		settings: settings,
		logger:   logger,
	}
}

// EventInput holds the editable fields of an event.
type EventInput struct {
	Title              string
	Description        string
	EventDate          time.Time
	EndTime            *time.Time
	RSVPDeadline       *time.Time
	VenueName          string
	VenueAddress       string
	PotluckEnabled     bool
	AllowFriendInvites bool
}

func (in EventInput) validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return ErrEventTitleRequired
	}
	if in.EventDate.IsZero() {
		return ErrEventDateRequired
	}
	if in.EndTime != nil && in.EndTime.Before(in.EventDate) {
		return ErrInvalidSchedule
	}
	if in.RSVPDeadline != nil && in.RSVPDeadline.After(in.EventDate) {
		return ErrInvalidSchedule
	}
	return nil
}

func (in EventInput) apply(event *models.Event) {
	event.Title = in.Title
	event.Description = models.StringPtr(in.Description)
	event.EventDate = in.EventDate
	event.EndTime = in.EndTime
	event.RSVPDeadline = in.RSVPDeadline
	event.VenueName = models.StringPtr(in.VenueName)
	event.VenueAddress = models.StringPtr(in.VenueAddress)
	event.PotluckEnabled = in.PotluckEnabled
	event.AllowFriendInvites = in.AllowFriendInvites
}

// CreateEvent creates a draft event and makes the creator its organizer.
func (s *EventService) CreateEvent(creatorID uint64, input EventInput) (*models.Event, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	event := &models.Event{
		Status:      models.EventStatusDraft,
		CreatedByID: creatorID,
	}
	input.apply(event)

	err := s.repos.Transaction(func(tx *repository.Repositories) error {
		if err := tx.Events.Create(event); err != nil {
			return fmt.Errorf("failed to create event: %w", err)
		}
		if err := tx.Events.AddAdmin(&models.EventAdmin{
			EventID:   event.ID,
			PersonID:  &creatorID,
			Role:      models.AdminRoleOrganizer,
			AddedByID: &creatorID,
		}); err != nil {
			return fmt.Errorf("failed to add organizer: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return event, nil
}

func (s *EventService) UpdateEvent(actor *Actor, input EventInput) (*models.Event, error) {
	if err := actor.requireAdmin(); err != nil {
		return nil, err
	}
	if actor.Event.IsReadOnly() {
		return nil, ErrEventReadOnly
	}
	if err := input.validate(); err != nil {
		return nil, err
	}

	event := actor.Event
	input.apply(event)
	if err := s.repos.Events.Update(event); err != nil {
		return nil, fmt.Errorf("failed to update event: %w", err)
	}
	return event, nil
}

// SetStatus moves the event between draft, published and archived. Any
// transition is allowed for admins; archiving freezes guest-facing writes.
func (s *EventService) SetStatus(actor *Actor, status models.EventStatus) (*models.Event, error) {
	if err := actor.requireAdmin(); err != nil {
		return nil, err
	}
	if !status.IsValid() {
		return nil, ErrInvalidEventStatus
	}

	event := actor.Event
	event.Status = status
	if err := s.repos.Events.Update(event); err != nil {
		return nil, fmt.Errorf("failed to update event status: %w", err)
	}
	s.logger.Info().Uint64("event_id", event.ID).Str("status", string(status)).Msg("event status changed")
	return event, nil
}

func (s *EventService) Publish(actor *Actor) (*models.Event, error) {
	return s.SetStatus(actor, models.EventStatusPublished)
}

func (s *EventService) Archive(actor *Actor) (*models.Event, error) {
	return s.SetStatus(actor, models.EventStatusArchived)
}

func (s *EventService) GetEvent(id uint64) (*models.Event, error) {
	event, err := s.repos.Events.FindByID(id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to find event: %w", err)
	}
	return event, nil
}

func (s *EventService) GetEventByUUID(uuid string) (*models.Event, error) {
	event, err := s.repos.Events.FindByUUID(uuid)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to find event: %w", err)
	}
	return event, nil
}

// GetVisibleEvent hides drafts from everyone but admins.
func (s *EventService) GetVisibleEvent(id uint64, personID uint64) (*models.Event, bool, error) {
	event, err := s.GetEvent(id)
	if err != nil {
		return nil, false, err
	}
	isAdmin := false
	if personID != 0 {
		if isAdmin, err = s.IsAdmin(event.ID, personID); err != nil {
			return nil, false, err
		}
	}
	if !event.VisibleTo(isAdmin) {
		return nil, false, ErrEventNotFound
	}
	return event, isAdmin, nil
}

func (s *EventService) ListForAdmin(personID uint64) ([]models.Event, error) {
	events, err := s.repos.Events.ListForAdmin(personID)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	return events, nil
}

// ArchivePastEvents archives published events that ended before now.
func (s *EventService) ArchivePastEvents(now time.Time) (int, error) {
	events, err := s.repos.Events.ListPublishedBefore(now)
	if err != nil {
		return 0, fmt.Errorf("failed to list past events: %w", err)
	}

	archived := 0
	for i := range events {
		event := &events[i]
		if !event.IsPast(now) {
			continue
		}
		event.Status = models.EventStatusArchived
		if err := s.repos.Events.Update(event); err != nil {
			return archived, fmt.Errorf("failed to archive event %d: %w", event.ID, err)
		}
		archived++
	}
	if archived > 0 {
		s.logger.Info().Int("count", archived).Msg("archived past events")
	}
	return archived, nil
}

// IsAdmin is true for a direct admin or a member of an admin household.
func (s *EventService) IsAdmin(eventID, personID uint64) (bool, error) {
	ok, err := s.repos.Events.IsAdmin(eventID, personID)
	if err != nil {
		return false, fmt.Errorf("failed to check admin: %w", err)
	}
	return ok, nil
}

// AddAdminInput names exactly the person or household receiving admin rights.
type AddAdminInput struct {
	PersonID    *uint64
	HouseholdID *uint64
	Role        models.AdminRole
}

func (s *EventService) AddAdmin(actor *Actor, input AddAdminInput) (*models.EventAdmin, error) {
	if err := actor.requireAdmin(); err != nil {
		return nil, err
	}
	if input.PersonID == nil && input.HouseholdID == nil {
		return nil, ErrAdminTargetRequired
	}
	if input.Role == "" {
		input.Role = models.AdminRoleCoOrganizer
	}
	eventID := actor.Event.ID

	if input.PersonID != nil {
		if _, err := s.repos.Persons.FindByID(*input.PersonID); err != nil {
			if repository.IsNotFound(err) {
				return nil, ErrPersonNotFound
			}
			return nil, fmt.Errorf("failed to find person: %w", err)
		}
		if _, err := s.repos.Events.FindActiveAdminForPerson(eventID, *input.PersonID); err == nil {
			return nil, ErrAlreadyAdmin
		} else if !repository.IsNotFound(err) {
			return nil, fmt.Errorf("failed to check admin: %w", err)
		}
	} else {
		if _, err := s.repos.Households.FindByID(*input.HouseholdID); err != nil {
			if repository.IsNotFound(err) {
				return nil, ErrHouseholdNotFound
			}
			return nil, fmt.Errorf("failed to find household: %w", err)
		}
		if _, err := s.repos.Events.FindActiveAdminForHousehold(eventID, *input.HouseholdID); err == nil {
			return nil, ErrAlreadyAdmin
		} else if !repository.IsNotFound(err) {
			return nil, fmt.Errorf("failed to check admin: %w", err)
		}
	}

	admin := &models.EventAdmin{
		EventID:     eventID,
		PersonID:    input.PersonID,
		HouseholdID: input.HouseholdID,
		Role:        input.Role,
		AddedByID:   actor.personIDPtr(),
	}
	if err := s.repos.Events.AddAdmin(admin); err != nil {
		return nil, fmt.Errorf("failed to add admin: %w", err)
	}
	return admin, nil
}

// RemoveAdmin soft-deletes the admin row. The last active admin stays.
func (s *EventService) RemoveAdmin(actor *Actor, adminID uint64) error {
	if err := actor.requireAdmin(); err != nil {
		return err
	}

	admin, err := s.repos.Events.FindAdminByID(actor.Event.ID, adminID)
	if err != nil {
		if repository.IsNotFound(err) {
			return ErrAdminNotFound
		}
		return fmt.Errorf("failed to find admin: %w", err)
	}
	if !admin.IsActive() {
		return ErrAdminNotFound
	}

	active, err := s.repos.Events.ListActiveAdmins(actor.Event.ID)
	if err != nil {
		return fmt.Errorf("failed to list admins: %w", err)
	}
	if len(active) <= 1 {
		return ErrCannotRemoveLastAdmin
	}

	now := time.Now()
	admin.RemovedAt = &now
	if err := s.repos.Events.UpdateAdmin(admin); err != nil {
		return fmt.Errorf("failed to remove admin: %w", err)
	}
	return nil
}

func (s *EventService) ListAdmins(eventID uint64) ([]models.EventAdmin, error) {
	admins, err := s.repos.Events.ListActiveAdmins(eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list admins: %w", err)
	}
	return admins, nil
}

// RSVPStats counts RSVP rows by status.
type RSVPStats struct {
	Total        int64 `json:"total"`
	Attending    int64 `json:"attending"`
	NotAttending int64 `json:"not_attending"`
	Maybe        int64 `json:"maybe"`
	NoResponse   int64 `json:"no_response"`
}

func (s *EventService) Stats(eventID uint64) (*RSVPStats, error) {
	counts, err := s.repos.RSVPs.CountByStatus(eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to count rsvps: %w", err)
	}
	stats := &RSVPStats{
		Attending:    counts[models.RSVPAttending],
		NotAttending: counts[models.RSVPNotAttending],
		Maybe:        counts[models.RSVPMaybe],
		NoResponse:   counts[models.RSVPNoResponse],
	}
	stats.Total = stats.Attending + stats.NotAttending + stats.Maybe + stats.NoResponse
	return stats, nil
}

// DietaryCount is one tag and how many attending guests carry it.
type DietaryCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// DietarySummary aggregates attending guests' tags. It stays hidden until
// enough guests attend that no tag can be traced back to one person.
type DietarySummary struct {
	Hidden         bool           `json:"hidden"`
	AttendingCount int            `json:"attending_count"`
	Threshold      int            `json:"threshold"`
	Tags           []DietaryCount `json:"tags"`
}

func (s *EventService) DietarySummary(eventID uint64) (*DietarySummary, error) {
	personIDs, err := s.repos.RSVPs.AttendingPersonIDs(eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list attending guests: %w", err)
	}

	summary := &DietarySummary{
		AttendingCount: len(personIDs),
		Threshold:      s.settings.DietaryPrivacyThreshold,
		Tags:           []DietaryCount{},
	}
	if len(personIDs) < s.settings.DietaryPrivacyThreshold {
		summary.Hidden = true
		return summary, nil
	}

	tagsByPerson, err := s.repos.Tags.ListForPersons(personIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	counts := make(map[string]int)
	for _, tags := range tagsByPerson {
		for _, t := range tags {
			counts[t.Name]++
		}
	}
	for name, n := range counts {
		summary.Tags = append(summary.Tags, DietaryCount{Tag: name, Count: n})
	}
	sort.Slice(summary.Tags, func(i, j int) bool {
		if summary.Tags[i].Count != summary.Tags[j].Count {
			return summary.Tags[i].Count > summary.Tags[j].Count
		}
		return summary.Tags[i].Tag < summary.Tags[j].Tag
	})
	return summary, nil
}
