package repository

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// ErrDuplicate wraps a unique constraint violation from any driver.
var ErrDuplicate = errors.New("duplicate record")

// IsNotFound reports whether err is GORM's record-not-found.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// IsDuplicate reports whether err is a unique constraint violation.
func IsDuplicate(err error) bool {
	return errors.Is(err, ErrDuplicate) || isDuplicateKey(err)
}

func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	// Dialects without error translation.
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "duplicate entry")
}

// translate turns driver uniqueness failures into ErrDuplicate.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if isDuplicateKey(err) {
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	}
	return err
}

// Repositories bundles every repository over one *gorm.DB, so a set of
// writes can share a transaction.
type Repositories struct {
	db *gorm.DB

	Persons       PersonRepository
	Households    HouseholdRepository
	Events        EventRepository
	Invitations   InvitationRepository
	Referrals     ReferralRepository
	RSVPs         RSVPRepository
	Potluck       PotluckRepository
	Tags          TagRepository
	Notifications NotificationRepository
	AuthTokens    AuthTokenRepository
	Wall          MessageWallRepository
}

func New(db *gorm.DB) *Repositories {
	return &Repositories{
		db:            db,
		Persons:       NewPersonRepository(db),
		Households:    NewHouseholdRepository(db),
		Events:        NewEventRepository(db),
		Invitations:   NewInvitationRepository(db),
		Referrals:     NewReferralRepository(db),
		RSVPs:         NewRSVPRepository(db),
		Potluck:       NewPotluckRepository(db),
		Tags:          NewTagRepository(db),
		Notifications: NewNotificationRepository(db),
		AuthTokens:    NewAuthTokenRepository(db),
		Wall:          NewMessageWallRepository(db),
	}
}

// Transaction runs fn with repositories bound to one transaction. Any error
// returned by fn rolls everything back.
func (r *Repositories) Transaction(fn func(tx *Repositories) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(New(tx))
	})
}

// DB exposes the underlying handle for health checks and maintenance.
func (r *Repositories) DB() *gorm.DB {
	return r.db
}
