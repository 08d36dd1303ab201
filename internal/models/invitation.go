package models

import "time"

// EventInvitation is the unit of invitation: one household to one event.
type EventInvitation struct {
	ID             uint64     `gorm:"primarykey" json:"id"`
	EventID        uint64     `gorm:"not null;uniqueIndex:idx_invitations_event_household" json:"event_id"`
	HouseholdID    uint64     `gorm:"not null;uniqueIndex:idx_invitations_event_household;index" json:"household_id"`
	Token          string     `gorm:"type:varchar(512);not null" json:"-"`
	ShortToken     *string    `gorm:"type:varchar(48);uniqueIndex" json:"-"`
	TokenExpiresAt *time.Time `json:"token_expires_at"`

	SentAt *time.Time `json:"sent_at"`

	EmailSentAt     *time.Time `json:"email_sent_at"`
	EmailLastSentAt *time.Time `json:"email_last_sent_at"`
	EmailSentCount  int        `gorm:"not null;default:0" json:"email_sent_count"`

	SMSSentAt     *time.Time `json:"sms_sent_at"`
	SMSLastSentAt *time.Time `json:"sms_last_sent_at"`
	SMSSentCount  int        `gorm:"not null;default:0" json:"sms_sent_count"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Event       Event                  `gorm:"foreignKey:EventID" json:"-"`
	Household   Household              `gorm:"foreignKey:HouseholdID" json:"household,omitempty"`
	PersonLinks []PersonInvitationLink `gorm:"foreignKey:InvitationID" json:"-"`
}

func (EventInvitation) TableName() string {
	return "event_invitations"
}

func (i *EventInvitation) IsSent() bool {
	return i.SentAt != nil
}

func (i *EventInvitation) IsTokenExpired(now time.Time) bool {
	return i.TokenExpiresAt != nil && now.After(*i.TokenExpiresAt)
}

// MarkSent records a successful send on one channel. The first-send stamps are
// written once; last-sent and the counter move on every call.
func (i *EventInvitation) MarkSent(channel Channel, now time.Time) {
	if i.SentAt == nil {
		i.SentAt = &now
	}
	switch channel {
	case ChannelEmail:
		if i.EmailSentAt == nil {
			i.EmailSentAt = &now
		}
		i.EmailLastSentAt = &now
		i.EmailSentCount++
	case ChannelSMS:
		if i.SMSSentAt == nil {
			i.SMSSentAt = &now
		}
		i.SMSLastSentAt = &now
		i.SMSSentCount++
	}
}

// PersonInvitationLink gives one household member a personal short URL into
// their household's invitation.
type PersonInvitationLink struct {
	ID             uint64     `gorm:"primarykey" json:"id"`
	InvitationID   uint64     `gorm:"not null;uniqueIndex:idx_person_links_invitation_person" json:"invitation_id"`
	PersonID       uint64     `gorm:"not null;uniqueIndex:idx_person_links_invitation_person" json:"person_id"`
	ShortToken     string     `gorm:"type:varchar(48);not null;uniqueIndex" json:"short_token"`
	LastAccessedAt *time.Time `json:"last_accessed_at"`
	CreatedAt      time.Time  `json:"created_at"`

	// Relations
	Invitation EventInvitation `gorm:"foreignKey:InvitationID" json:"-"`
	Person     Person          `gorm:"foreignKey:PersonID" json:"person,omitempty"`
}
