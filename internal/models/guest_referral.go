package models

import "time"

// GuestReferral is a "bring a friend" invitation: one referred person to one event.
type GuestReferral struct {
	ID                 uint64     `gorm:"primarykey" json:"id"`
	EventID            uint64     `gorm:"not null;uniqueIndex:idx_referrals_event_person" json:"event_id"`
	ReferredPersonID   uint64     `gorm:"not null;uniqueIndex:idx_referrals_event_person" json:"referred_person_id"`
	ReferredByPersonID uint64     `gorm:"not null;index" json:"referred_by_person_id"`
	Token              string     `gorm:"type:varchar(512);not null" json:"-"`
	ShortToken         *string    `gorm:"type:varchar(48);uniqueIndex" json:"-"`
	TokenExpiresAt     *time.Time `json:"token_expires_at"`
	EmailSentAt        *time.Time `json:"email_sent_at"`
	EmailLastSentAt    *time.Time `json:"email_last_sent_at"`
	EmailSentCount     int        `gorm:"not null;default:0" json:"email_sent_count"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`

	// Relations
	Event          Event  `gorm:"foreignKey:EventID" json:"-"`
	ReferredPerson Person `gorm:"foreignKey:ReferredPersonID" json:"referred_person,omitempty"`
	ReferredBy     Person `gorm:"foreignKey:ReferredByPersonID" json:"referred_by,omitempty"`
}

func (r *GuestReferral) IsTokenExpired(now time.Time) bool {
	return r.TokenExpiresAt != nil && now.After(*r.TokenExpiresAt)
}

func (r *GuestReferral) MarkEmailSent(now time.Time) {
	if r.EmailSentAt == nil {
		r.EmailSentAt = &now
	}
	r.EmailLastSentAt = &now
	r.EmailSentCount++
}
