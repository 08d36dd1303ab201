// Package testutil holds database and fixture helpers shared by package tests.
package testutil

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/yukikurage/party-planner-api/internal/database"
	"github.com/yukikurage/party-planner-api/internal/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewTestDB opens a migrated in-memory sqlite database. The pool is limited to
// one connection so every query sees the same in-memory schema.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := database.Open(sqlite.Open(":memory:"), logger.Silent)
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	require.NoError(t, database.Migrate(db))
	return db
}

// PersonOption tweaks a fixture person before it is saved.
type PersonOption func(*models.Person)

func WithEmail(email string) PersonOption {
	return func(p *models.Person) { p.Email = &email }
}

func WithPhone(phone string, preference models.ContactPreference) PersonOption {
	return func(p *models.Person) {
		p.Phone = &phone
		p.SMSOptIn = true
		p.ContactPreference = preference
	}
}

func WithPassword(password string) PersonOption {
	return func(p *models.Person) {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
		if err != nil {
			panic(err)
		}
		h := string(hash)
		p.PasswordHash = &h
	}
}

func AsChild() PersonOption {
	return func(p *models.Person) { p.Role = models.PersonRoleChild }
}

func CreatePerson(t *testing.T, db *gorm.DB, firstName string, opts ...PersonOption) *models.Person {
	t.Helper()
	person := &models.Person{FirstName: firstName}
	for _, opt := range opts {
		opt(person)
	}
	require.NoError(t, db.Create(person).Error)
	return person
}

// CreateHousehold creates a household with an open membership for each member.
// The first member is the primary contact.
func CreateHousehold(t *testing.T, db *gorm.DB, name string, members ...*models.Person) *models.Household {
	t.Helper()
	household := &models.Household{Name: name}
	require.NoError(t, db.Create(household).Error)

	for i, m := range members {
		role := models.HouseholdRoleMember
		if i == 0 {
			role = models.HouseholdRolePrimary
		}
		require.NoError(t, db.Omit("Household", "Person").Create(&models.HouseholdMembership{
			HouseholdID: household.ID,
			PersonID:    m.ID,
			Role:        role,
			JoinedAt:    time.Now(),
		}).Error)
	}
	return household
}

// CreateEvent creates a published event three weeks out with the creator as
// its organizer.
func CreateEvent(t *testing.T, db *gorm.DB, creator *models.Person) *models.Event {
	t.Helper()
	event := &models.Event{
		Title:              "Summer Potluck",
		EventDate:          time.Now().Add(21 * 24 * time.Hour),
		Status:             models.EventStatusPublished,
		PotluckEnabled:     true,
		AllowFriendInvites: true,
		CreatedByID:        creator.ID,
	}
	require.NoError(t, db.Omit("CreatedBy", "Admins").Create(event).Error)

	creatorID := creator.ID
	require.NoError(t, db.Omit("Person", "Household").Create(&models.EventAdmin{
		EventID:  event.ID,
		PersonID: &creatorID,
		Role:     models.AdminRoleOrganizer,
	}).Error)
	return event
}

// CountRows counts rows of model matching the optional condition.
func CountRows(t *testing.T, db *gorm.DB, model interface{}, query string, args ...interface{}) int64 {
	t.Helper()
	var count int64
	q := db.Model(model)
	if query != "" {
		q = q.Where(query, args...)
	}
	require.NoError(t, q.Count(&count).Error)
	return count
}

// OnCreate runs fn before every struct insert into table on db.
func OnCreate(t *testing.T, db *gorm.DB, table string, fn func(tx *gorm.DB)) {
	t.Helper()
	err := db.Callback().Create().Before("gorm:create").Register("testutil:on_create_"+table, func(tx *gorm.DB) {
		if tx.Statement.Table == table {
			fn(tx)
		}
	})
	require.NoError(t, err)
}

// ErrInjected is the error FailCreates makes inserts return.
var ErrInjected = errors.New("injected insert failure")

// FailCreates makes every struct insert into table fail.
func FailCreates(t *testing.T, db *gorm.DB, table string) {
	t.Helper()
	OnCreate(t, db, table, func(tx *gorm.DB) {
		tx.AddError(ErrInjected)
	})
}
