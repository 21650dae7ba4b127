package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/gatortutors/gator-tutors-api/internal/models"
	appErrors "github.com/gatortutors/gator-tutors-api/pkg/errors"
)

type messageRepository interface {
	Create(ctx context.Context, msg *models.Message) error
	FindByID(ctx context.Context, id string) (*models.MessageView, error)
	ListInbox(ctx context.Context, userID string) ([]models.MessageView, error)
	ListSent(ctx context.Context, userID string) ([]models.MessageView, error)
	CountUnread(ctx context.Context, userID string) (int, error)
	MarkRead(ctx context.Context, id, recipientID string) (bool, error)
}

type messagePostRepository interface {
	FindByID(ctx context.Context, id string) (*models.TutorPostView, error)
}

// SendMessageRequest is the payload for contacting a tutor.
type SendMessageRequest struct {
	TutorPostID string `json:"tutor_post_id" validate:"required,uuid4"`
	Body        string `json:"body" validate:"required,max=5000"`
}

// MessageService handles inquiries between students and tutors. Messages are
// always addressed to a listing; the recipient is resolved to the listing
// owner rather than trusted from the payload.
type MessageService struct {
	repo      messageRepository
	posts     messagePostRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewMessageService constructs a MessageService.
func NewMessageService(repo messageRepository, posts messagePostRepository, validate *validator.Validate, logger *zap.Logger) *MessageService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MessageService{repo: repo, posts: posts, validator: validate, logger: logger}
}

// Send delivers a message to the owner of a listing.
func (s *MessageService) Send(ctx context.Context, senderID string, req SendMessageRequest) (*models.MessageView, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid message payload")
	}
	if strings.TrimSpace(req.Body) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "message body is empty")
	}

	post, err := s.posts.FindByID(ctx, req.TutorPostID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "listing not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load listing")
	}
	if post.UserID == senderID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "cannot message your own listing")
	}

	msg := &models.Message{
		SenderID:    senderID,
		RecipientID: post.UserID,
		TutorPostID: post.ID,
		Body:        strings.TrimSpace(req.Body),
		Read:        false,
	}
	if err := s.repo.Create(ctx, msg); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to send message")
	}

	return s.repo.FindByID(ctx, msg.ID)
}

// Inbox returns messages received by the caller, newest first.
func (s *MessageService) Inbox(ctx context.Context, userID string) ([]models.MessageView, error) {
	messages, err := s.repo.ListInbox(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load inbox")
	}
	if messages == nil {
		messages = []models.MessageView{}
	}
	return messages, nil
}

// Sent returns messages the caller has sent, newest first.
func (s *MessageService) Sent(ctx context.Context, userID string) ([]models.MessageView, error) {
	messages, err := s.repo.ListSent(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load sent messages")
	}
	if messages == nil {
		messages = []models.MessageView{}
	}
	return messages, nil
}

// UnreadCount reports the caller's unread message count.
func (s *MessageService) UnreadCount(ctx context.Context, userID string) (int, error) {
	count, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count unread messages")
	}
	return count, nil
}

// MarkRead flags a received message as read. Only the recipient can do this;
// anyone else gets not-found.
func (s *MessageService) MarkRead(ctx context.Context, id, userID string) error {
	ok, err := s.repo.MarkRead(ctx, id, userID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark message read")
	}
	if !ok {
		return appErrors.Clone(appErrors.ErrNotFound, "message not found")
	}
	return nil
}
