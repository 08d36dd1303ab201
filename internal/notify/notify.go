// Package notify delivers fully composed messages over email and SMS. It only
// reports success or failure with an optional provider message id; auditing
// is the caller's job.
package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/yukikurage/party-planner-api/internal/models"
)

// ErrChannelUnavailable is returned when no sender is registered for a channel.
var ErrChannelUnavailable = errors.New("notification channel unavailable")

// Message is provider-neutral content. SMS senders use Body only.
type Message struct {
	Subject string
	Body    string
	HTML    string
}

// Correlation ties a send to the domain objects it concerns, for logs.
type Correlation struct {
	EventID  *uint64
	PersonID *uint64
	Type     models.NotificationType
}

type Result struct {
	ProviderMessageID string
}

// Sender delivers over one channel.
type Sender interface {
	Send(ctx context.Context, to string, msg Message) (Result, error)
}

// Dispatcher is what the domain services depend on.
type Dispatcher interface {
	Send(ctx context.Context, channel models.Channel, to string, msg Message, corr Correlation) (Result, error)
	Supports(channel models.Channel) bool
}

// Router dispatches to the Sender registered for each channel.
type Router struct {
	senders map[models.Channel]Sender
	logger  zerolog.Logger
}

func NewRouter(logger zerolog.Logger) *Router {
	return &Router{
		senders: make(map[models.Channel]Sender),
		logger:  logger,
	}
}

func (r *Router) Register(channel models.Channel, sender Sender) *Router {
	r.senders[channel] = sender
	return r
}

func (r *Router) Supports(channel models.Channel) bool {
	_, ok := r.senders[channel]
	return ok
}

func (r *Router) Send(ctx context.Context, channel models.Channel, to string, msg Message, corr Correlation) (Result, error) {
	sender, ok := r.senders[channel]
	if !ok {
		return Result{}, fmt.Errorf("%w: %s", ErrChannelUnavailable, channel)
	}
	if to == "" {
		return Result{}, fmt.Errorf("empty %s recipient", channel)
	}

	res, err := sender.Send(ctx, to, msg)
	evt := r.logger.Debug()
	if err != nil {
		evt = r.logger.Warn().Err(err)
	}
	if corr.EventID != nil {
		evt = evt.Uint64("event_id", *corr.EventID)
	}
	if corr.PersonID != nil {
		evt = evt.Uint64("person_id", *corr.PersonID)
	}
	evt.Str("channel", string(channel)).
		Str("type", string(corr.Type)).
		Str("provider_message_id", res.ProviderMessageID).
		Msg("notification dispatched")

	return res, err
}
