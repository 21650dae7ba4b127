package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/gatortutors/gator-tutors-api/internal/models"
)

const messageViewColumns = `m.id, m.sender_id, m.recipient_id, m.tutor_post_id, m.body, m.read, m.created_at,
	su.email AS sender_email, ru.email AS recipient_email, tp.display_name AS post_name, tp.hourly_rate AS post_rate`

const messageViewBase = `FROM messages m
	JOIN users su ON su.id = m.sender_id
	JOIN users ru ON ru.id = m.recipient_id
	JOIN tutor_posts tp ON tp.id = m.tutor_post_id`

// MessageRepository provides database access for listing inquiries.
type MessageRepository struct {
	db *sqlx.DB
}

// NewMessageRepository creates a new instance of MessageRepository.
func NewMessageRepository(db *sqlx.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// Create inserts a new message.
func (r *MessageRepository) Create(ctx context.Context, msg *models.Message) error {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO messages (id, sender_id, recipient_id, tutor_post_id, body, read, created_at) VALUES (:id, :sender_id, :recipient_id, :tutor_post_id, :body, :read, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, msg); err != nil {
		return fmt.Errorf("create message: %w", err)
	}
	return nil
}

// FindByID returns a single message with sender and listing context.
func (r *MessageRepository) FindByID(ctx context.Context, id string) (*models.MessageView, error) {
	query := fmt.Sprintf("SELECT %s %s WHERE m.id = $1 LIMIT 1", messageViewColumns, messageViewBase)
	var msg models.MessageView
	if err := r.db.GetContext(ctx, &msg, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find message by id: %w", err)
	}
	return &msg, nil
}

// ListInbox returns messages received by a user, newest first.
func (r *MessageRepository) ListInbox(ctx context.Context, userID string) ([]models.MessageView, error) {
	query := fmt.Sprintf("SELECT %s %s WHERE m.recipient_id = $1 ORDER BY m.created_at DESC", messageViewColumns, messageViewBase)
	var messages []models.MessageView
	if err := r.db.SelectContext(ctx, &messages, query, userID); err != nil {
		return nil, fmt.Errorf("list inbox: %w", err)
	}
	return messages, nil
}

// ListSent returns messages sent by a user, newest first.
func (r *MessageRepository) ListSent(ctx context.Context, userID string) ([]models.MessageView, error) {
	query := fmt.Sprintf("SELECT %s %s WHERE m.sender_id = $1 ORDER BY m.created_at DESC", messageViewColumns, messageViewBase)
	var messages []models.MessageView
	if err := r.db.SelectContext(ctx, &messages, query, userID); err != nil {
		return nil, fmt.Errorf("list sent messages: %w", err)
	}
	return messages, nil
}

// CountUnread reports how many unread messages a user has.
func (r *MessageRepository) CountUnread(ctx context.Context, userID string) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM messages WHERE recipient_id = $1 AND read = FALSE`, userID); err != nil {
		return 0, fmt.Errorf("count unread messages: %w", err)
	}
	return count, nil
}

// MarkRead flags a message as read. Scoped to the recipient so users cannot
// mark someone else's mail.
func (r *MessageRepository) MarkRead(ctx context.Context, id, recipientID string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE messages SET read = TRUE WHERE id = $1 AND recipient_id = $2`, id, recipientID)
	if err != nil {
		return false, fmt.Errorf("mark message read: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("mark message read result: %w", err)
	}
	return affected > 0, nil
}
