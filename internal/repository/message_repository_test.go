package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatortutors/gator-tutors-api/internal/models"
)

func newMessageRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestMessageRepositoryListInbox(t *testing.T) {
	db, mock, cleanup := newMessageRepoMock(t)
	defer cleanup()
	repo := NewMessageRepository(db)

	rows := sqlmock.NewRows([]string{"id", "sender_id", "recipient_id", "tutor_post_id", "body", "read", "created_at", "sender_email", "recipient_email", "post_name", "post_rate"}).
		AddRow("m1", "u2", "u1", "p1", "Are you free Tuesday?", false, time.Now(), "student@ufl.edu", "alice@ufl.edu", "Alice", 45.0)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE m.recipient_id = $1 ORDER BY m.created_at DESC")).
		WithArgs("u1").
		WillReturnRows(rows)

	messages, err := repo.ListInbox(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, "student@ufl.edu", messages[0].SenderEmail)
	assert.Equal(t, 45.0, messages[0].PostRate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMessageRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newMessageRepoMock(t)
	defer cleanup()
	repo := NewMessageRepository(db)

	mock.ExpectExec("INSERT INTO messages").
		WillReturnResult(sqlmock.NewResult(1, 1))

	msg := &models.Message{SenderID: "u2", RecipientID: "u1", TutorPostID: "p1", Body: "Hi"}
	require.NoError(t, repo.Create(context.Background(), msg))
	assert.NotEmpty(t, msg.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMessageRepositoryMarkRead(t *testing.T) {
	db, mock, cleanup := newMessageRepoMock(t)
	defer cleanup()
	repo := NewMessageRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE messages SET read = TRUE WHERE id = $1 AND recipient_id = $2")).
		WithArgs("m1", "u1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE messages SET read = TRUE WHERE id = $1 AND recipient_id = $2")).
		WithArgs("m1", "intruder").
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := repo.MarkRead(context.Background(), "m1", "u1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.MarkRead(context.Background(), "m1", "intruder")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}
