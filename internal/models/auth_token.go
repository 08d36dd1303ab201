package models

import "time"

type AuthTokenType string

const (
	AuthTokenMagicLink     AuthTokenType = "magic_link"
	AuthTokenPasswordReset AuthTokenType = "password_reset"
)

// AuthToken is a single-use login or password reset token.
type AuthToken struct {
	ID        uint64        `gorm:"primarykey" json:"id"`
	PersonID  uint64        `gorm:"not null;index:idx_auth_tokens_person_type" json:"person_id"`
	Type      AuthTokenType `gorm:"type:varchar(20);not null;index:idx_auth_tokens_person_type" json:"type"`
	Token     string        `gorm:"type:varchar(64);not null;uniqueIndex" json:"-"`
	ExpiresAt time.Time     `gorm:"not null;index" json:"expires_at"`
	UsedAt    *time.Time    `json:"used_at"`
	CreatedAt time.Time     `gorm:"index" json:"created_at"`

	// Relations
	Person Person `gorm:"foreignKey:PersonID" json:"-"`
}

func (t *AuthToken) IsUsable(now time.Time) bool {
	return t.UsedAt == nil && now.Before(t.ExpiresAt)
}
