package notify

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// LogSender writes messages to the log instead of delivering them. It is
// registered for a channel when no provider credentials are configured.
type LogSender struct {
	logger zerolog.Logger
}

func NewLogSender(logger zerolog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(_ context.Context, to string, msg Message) (Result, error) {
	id := "log-" + uuid.NewString()
	s.logger.Info().
		Str("to", to).
		Str("subject", msg.Subject).
		Str("body", msg.Body).
		Str("provider_message_id", id).
		Msg("notification (not delivered)")
	return Result{ProviderMessageID: id}, nil
}
