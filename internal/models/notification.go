package models

import "time"

type NotificationType string

const (
	NotificationInvitation       NotificationType = "invitation"
	NotificationRSVPConfirmation NotificationType = "rsvp_confirmation"
	NotificationReferral         NotificationType = "guest_referral"
	NotificationMagicLink        NotificationType = "magic_link"
	NotificationPasswordReset    NotificationType = "password_reset"
)

type NotificationStatus string

const (
	NotificationQueued  NotificationStatus = "queued"
	NotificationSent    NotificationStatus = "sent"
	NotificationFailed  NotificationStatus = "failed"
	NotificationBounced NotificationStatus = "bounced"
)

// Notification is an append-only record of one send attempt.
type Notification struct {
	ID                uint64             `gorm:"primarykey" json:"id"`
	EventID           *uint64            `gorm:"index" json:"event_id"`
	PersonID          *uint64            `gorm:"index" json:"person_id"`
	Type              NotificationType   `gorm:"type:varchar(32);not null" json:"type"`
	Channel           Channel            `gorm:"type:varchar(10);not null" json:"channel"`
	Recipient         string             `gorm:"type:varchar(255);not null" json:"recipient"`
	Status            NotificationStatus `gorm:"type:varchar(10);not null;default:'queued'" json:"status"`
	ProviderMessageID *string            `gorm:"type:varchar(255)" json:"provider_message_id"`
	ErrorMessage      *string            `gorm:"type:text" json:"error_message"`
	SentAt            *time.Time         `json:"sent_at"`
	CreatedAt         time.Time          `json:"created_at"`
}

// Normalize implements Normalizer.
func (n *Notification) Normalize() {
	n.ProviderMessageID = nullIfBlank(n.ProviderMessageID)
	n.ErrorMessage = nullIfBlank(n.ErrorMessage)
	if n.Status == "" {
		n.Status = NotificationQueued
	}
}
