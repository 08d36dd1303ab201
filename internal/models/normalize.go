package models

import "strings"

// Normalizer is implemented by every model that cleans its own fields before
// being written. The database layer invokes it on each create and update.
type Normalizer interface {
	Normalize()
}

// nullIfBlank trims s and turns an empty result into nil.
func nullIfBlank(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// StringPtr returns nil for blank input, otherwise a pointer to the trimmed value.
func StringPtr(s string) *string {
	return nullIfBlank(&s)
}

// Deref returns the pointed-to string or "".
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Channel is an outbound notification medium.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
)

func (c Channel) IsValid() bool {
	return c == ChannelEmail || c == ChannelSMS
}
