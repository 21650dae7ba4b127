package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSubjectRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestSubjectRepositoryListAll(t *testing.T) {
	db, mock, cleanup := newSubjectRepoMock(t)
	defer cleanup()
	repo := NewSubjectRepository(db)

	rows := sqlmock.NewRows([]string{"id", "name"}).
		AddRow(2, "Biology").
		AddRow(3, "Mathematics")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name FROM subjects ORDER BY name ASC")).
		WillReturnRows(rows)

	subjects, err := repo.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, subjects, 2)
	assert.Equal(t, "Biology", subjects[0].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubjectRepositoryListActive(t *testing.T) {
	db, mock, cleanup := newSubjectRepoMock(t)
	defer cleanup()
	repo := NewSubjectRepository(db)

	rows := sqlmock.NewRows([]string{"id", "name", "tutor_count"}).
		AddRow(3, "Mathematics", 4)
	mock.ExpectQuery("SELECT s.id, s.name, COUNT").
		WillReturnRows(rows)

	subjects, err := repo.ListActive(context.Background())
	require.NoError(t, err)
	require.Len(t, subjects, 1)
	assert.Equal(t, 4, subjects[0].TutorCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubjectRepositoryFindByName(t *testing.T) {
	db, mock, cleanup := newSubjectRepoMock(t)
	defer cleanup()
	repo := NewSubjectRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name FROM subjects WHERE name = $1 LIMIT 1")).
		WithArgs("Mathematics").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(3, "Mathematics"))

	subject, err := repo.FindByName(context.Background(), "Mathematics")
	require.NoError(t, err)
	assert.Equal(t, 3, subject.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
