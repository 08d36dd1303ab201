package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/yukikurage/party-planner-api/internal/models"
	"github.com/yukikurage/party-planner-api/internal/notify"
	"github.com/yukikurage/party-planner-api/internal/repository"
	"github.com/yukikurage/party-planner-api/internal/utils"
)

// NotificationService sends through the dispatcher and records every attempt
// in the notification log. It never returns dispatch errors to callers.
type NotificationService struct {
	notificationRepo repository.NotificationRepository
	dispatcher       notify.Dispatcher
	logger           zerolog.Logger
}

func NewNotificationService(notificationRepo repository.NotificationRepository, dispatcher notify.Dispatcher, logger zerolog.Logger) *NotificationService {
	return &NotificationService{
		notificationRepo: notificationRepo,
		dispatcher:       dispatcher,
		logger:           logger,
	}
}

// Supports reports whether the channel has a sender behind it.
func (s *NotificationService) Supports(channel models.Channel) bool {
	return s.dispatcher.Supports(channel)
}

// Deliver sends msg and writes the audit row whatever the outcome. It reports
// whether the provider accepted the message.
func (s *NotificationService) Deliver(ctx context.Context, channel models.Channel, to string, msg notify.Message, corr notify.Correlation) bool {
	res, err := s.dispatcher.Send(ctx, channel, to, msg, corr)

	record := &models.Notification{
		EventID:   corr.EventID,
		PersonID:  corr.PersonID,
		Type:      corr.Type,
		Channel:   channel,
		Recipient: to,
	}
	if err != nil {
		msg := err.Error()
		record.Status = models.NotificationFailed
		record.ErrorMessage = &msg
	} else {
		now := time.Now()
		record.Status = models.NotificationSent
		record.SentAt = &now
		record.ProviderMessageID = models.StringPtr(res.ProviderMessageID)
	}

	if auditErr := s.notificationRepo.Create(record); auditErr != nil {
		s.logger.Error().Err(auditErr).
			Str("channel", string(channel)).
			Str("type", string(corr.Type)).
			Msg("failed to record notification")
	}
	return err == nil
}

// DeliverToPerson picks the person's address for channel. It returns false
// without any audit row when the person has no address on that channel.
func (s *NotificationService) DeliverToPerson(ctx context.Context, channel models.Channel, person *models.Person, msg notify.Message, corr notify.Correlation) bool {
	to := addressFor(person, channel)
	if to == "" {
		return false
	}
	if corr.PersonID == nil {
		id := person.ID
		corr.PersonID = &id
	}
	return s.Deliver(ctx, channel, to, msg, corr)
}

// ListForEvent returns the audit log for an event, newest first.
func (s *NotificationService) ListForEvent(eventID uint64, params utils.PaginationParams) ([]models.Notification, int64, error) {
	return s.notificationRepo.ListByEvent(eventID, params)
}

func addressFor(person *models.Person, channel models.Channel) string {
	switch channel {
	case models.ChannelEmail:
		return models.Deref(person.Email)
	case models.ChannelSMS:
		return models.Deref(person.Phone)
	}
	return ""
}

func correlation(eventID uint64, personID uint64, typ models.NotificationType) notify.Correlation {
	return notify.Correlation{EventID: &eventID, PersonID: &personID, Type: typ}
}
