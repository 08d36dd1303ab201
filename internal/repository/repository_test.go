package repository

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/party-planner-api/internal/models"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newMockDB opens GORM's MySQL dialect over sqlmock so driver failures can be
// injected.
func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	return db, mock
}

func TestPersonRepository_FindByID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPersonRepository(db)

	mock.ExpectQuery("SELECT \\* FROM `persons`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "first_name"}).AddRow(7, "Ann"))
	person, err := repo.FindByID(7)
	require.NoError(t, err)
	assert.Equal(t, "Ann", person.FirstName)

	mock.ExpectQuery("SELECT \\* FROM `persons`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "first_name"}))
	_, err = repo.FindByID(8)
	assert.True(t, IsNotFound(err))

	mock.ExpectQuery("SELECT \\* FROM `persons`").WillReturnError(sql.ErrConnDone)
	_, err = repo.FindByID(9)
	require.Error(t, err)
	assert.False(t, IsNotFound(err))
	assert.True(t, errors.Is(err, sql.ErrConnDone))

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPersonRepository_CreateTranslatesDuplicateKey(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPersonRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `persons`").
		WillReturnError(errors.New("Error 1062 (23000): Duplicate entry 'ann@example.com' for key 'persons.idx_persons_email'"))
	mock.ExpectRollback()

	email := "ann@example.com"
	err := repo.Create(&models.Person{FirstName: "Ann", Email: &email})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDuplicate))
	assert.True(t, IsDuplicate(err))

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRSVPRepository_CountByStatus(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRSVPRepository(db)

	mock.ExpectQuery("SELECT status, COUNT\\(\\*\\) AS count FROM `rsvps`").
		WillReturnRows(sqlmock.NewRows([]string{"status", "count"}).
			AddRow("attending", 3).
			AddRow("maybe", 1))

	counts, err := repo.CountByStatus(42)
	require.NoError(t, err)
	assert.Equal(t, int64(3), counts[models.RSVPAttending])
	assert.Equal(t, int64(1), counts[models.RSVPMaybe])
	assert.Zero(t, counts[models.RSVPNotAttending])

	mock.ExpectQuery("SELECT status, COUNT\\(\\*\\) AS count FROM `rsvps`").
		WillReturnError(sql.ErrConnDone)
	_, err = repo.CountByStatus(42)
	assert.Error(t, err)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTranslate(t *testing.T) {
	assert.NoError(t, translate(nil))

	plain := errors.New("connection reset")
	assert.Equal(t, plain, translate(plain))
	assert.False(t, IsDuplicate(plain))

	assert.True(t, IsDuplicate(translate(gorm.ErrDuplicatedKey)))
	assert.True(t, IsDuplicate(errors.New("UNIQUE constraint failed: persons.email")))
	assert.True(t, IsDuplicate(errors.New("pq: duplicate key value violates unique constraint")))
}
