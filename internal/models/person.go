package models

import (
	"strings"
	"time"

	"github.com/yukikurage/party-planner-api/internal/phone"
)

type PersonRole string

const (
	PersonRoleAdult PersonRole = "adult"
	PersonRoleChild PersonRole = "child"
)

type ContactPreference string

const (
	ContactEmail ContactPreference = "email"
	ContactSMS   ContactPreference = "sms"
	ContactBoth  ContactPreference = "both"
)

func (p ContactPreference) IsValid() bool {
	switch p {
	case ContactEmail, ContactSMS, ContactBoth:
		return true
	}
	return false
}

type Person struct {
	ID                uint64            `gorm:"primarykey" json:"id"`
	FirstName         string            `gorm:"type:varchar(100);not null" json:"first_name"`
	LastName          *string           `gorm:"type:varchar(100)" json:"last_name"`
	Email             *string           `gorm:"type:varchar(255);uniqueIndex" json:"email"`
	Phone             *string           `gorm:"type:varchar(32)" json:"phone"`
	PasswordHash      *string           `gorm:"type:varchar(255)" json:"-"`
	Role              PersonRole        `gorm:"type:varchar(10);not null;default:'adult'" json:"role"`
	ContactPreference ContactPreference `gorm:"type:varchar(10);not null;default:'email'" json:"contact_preference"`
	SMSOptIn          bool              `gorm:"not null;default:false" json:"sms_opt_in"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`

	// Relations
	Memberships []HouseholdMembership `gorm:"foreignKey:PersonID" json:"-"`
	Tags        []PersonTag           `gorm:"foreignKey:PersonID" json:"-"`
}

func (Person) TableName() string {
	return "persons"
}

// Normalize implements Normalizer.
func (p *Person) Normalize() {
	p.FirstName = strings.TrimSpace(p.FirstName)
	p.LastName = nullIfBlank(p.LastName)
	p.Email = nullIfBlank(p.Email)
	if p.Email != nil {
		lowered := strings.ToLower(*p.Email)
		p.Email = &lowered
	}
	p.Phone = nullIfBlank(p.Phone)
	if p.Phone != nil {
		normalized := phone.Normalize(*p.Phone)
		p.Phone = &normalized
	}
	p.PasswordHash = nullIfBlank(p.PasswordHash)
	if p.Role == "" {
		p.Role = PersonRoleAdult
	}
	if p.ContactPreference == "" {
		p.ContactPreference = ContactEmail
	}
}

func (p *Person) FullName() string {
	if p.LastName == nil {
		return p.FirstName
	}
	return p.FirstName + " " + *p.LastName
}

// IsOrganizer reports whether the person can log in with a password.
func (p *Person) IsOrganizer() bool {
	return p.PasswordHash != nil
}

func (p *Person) HasEmail() bool {
	return p.Email != nil && *p.Email != ""
}

// CanReceiveEmail is the email channel gate.
func (p *Person) CanReceiveEmail() bool {
	return p.HasEmail()
}

// CanReceiveSMS requires a phone, explicit opt-in and a preference that includes SMS.
func (p *Person) CanReceiveSMS() bool {
	if p.Phone == nil || *p.Phone == "" || !p.SMSOptIn {
		return false
	}
	return p.ContactPreference == ContactSMS || p.ContactPreference == ContactBoth
}

// PreferredChannels derives the channels a person wants to be reached on from
// their preference and capabilities. An SMS-only preference with no usable
// phone falls back to email.
func (p *Person) PreferredChannels() []Channel {
	var channels []Channel
	switch p.ContactPreference {
	case ContactBoth:
		if p.CanReceiveEmail() {
			channels = append(channels, ChannelEmail)
		}
		if p.CanReceiveSMS() {
			channels = append(channels, ChannelSMS)
		}
	case ContactSMS:
		if p.CanReceiveSMS() {
			channels = append(channels, ChannelSMS)
		} else if p.CanReceiveEmail() {
			channels = append(channels, ChannelEmail)
		}
	default:
		if p.CanReceiveEmail() {
			channels = append(channels, ChannelEmail)
		}
	}
	return channels
}
