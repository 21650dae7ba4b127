package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatortutors/gator-tutors-api/internal/models"
	appErrors "github.com/gatortutors/gator-tutors-api/pkg/errors"
)

type stubMessageRepo struct {
	messages map[string]*models.MessageView
	created  *models.Message
	readOK   bool
}

func (s *stubMessageRepo) Create(ctx context.Context, msg *models.Message) error {
	if msg.ID == "" {
		msg.ID = "m-new"
	}
	s.created = msg
	s.messages[msg.ID] = &models.MessageView{Message: *msg}
	return nil
}

func (s *stubMessageRepo) FindByID(ctx context.Context, id string) (*models.MessageView, error) {
	msg, ok := s.messages[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return msg, nil
}

func (s *stubMessageRepo) ListInbox(ctx context.Context, userID string) ([]models.MessageView, error) {
	return nil, nil
}

func (s *stubMessageRepo) ListSent(ctx context.Context, userID string) ([]models.MessageView, error) {
	return nil, nil
}

func (s *stubMessageRepo) CountUnread(ctx context.Context, userID string) (int, error) {
	return 2, nil
}

func (s *stubMessageRepo) MarkRead(ctx context.Context, id, recipientID string) (bool, error) {
	return s.readOK, nil
}

type stubMessagePostRepo struct {
	posts map[string]*models.TutorPostView
}

func (s *stubMessagePostRepo) FindByID(ctx context.Context, id string) (*models.TutorPostView, error) {
	post, ok := s.posts[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return post, nil
}

const testPostID = "7f9c24e5-1a2b-4c3d-8e9f-0a1b2c3d4e5f"

func newTestMessageService(readOK bool) (*MessageService, *stubMessageRepo) {
	repo := &stubMessageRepo{messages: map[string]*models.MessageView{}, readOK: readOK}
	posts := &stubMessagePostRepo{posts: map[string]*models.TutorPostView{
		testPostID: {TutorPost: models.TutorPost{ID: testPostID, UserID: "tutor-1", Approved: true}},
	}}
	return NewMessageService(repo, posts, nil, nil), repo
}

func TestMessageServiceSendResolvesRecipientFromListing(t *testing.T) {
	svc, repo := newTestMessageService(true)

	msg, err := svc.Send(context.Background(), "student-1", SendMessageRequest{TutorPostID: testPostID, Body: "  Are you free Tuesday?  "})
	require.NoError(t, err)
	assert.Equal(t, "tutor-1", repo.created.RecipientID)
	assert.Equal(t, "Are you free Tuesday?", repo.created.Body)
	assert.False(t, msg.Read)
}

func TestMessageServiceSendRejectsOwnListing(t *testing.T) {
	svc, _ := newTestMessageService(true)

	_, err := svc.Send(context.Background(), "tutor-1", SendMessageRequest{TutorPostID: testPostID, Body: "hello me"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestMessageServiceSendUnknownListing(t *testing.T) {
	svc, _ := newTestMessageService(true)

	_, err := svc.Send(context.Background(), "student-1", SendMessageRequest{TutorPostID: "0a1b2c3d-4e5f-4789-9abc-def012345678", Body: "hi"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestMessageServiceMarkReadNotFoundForStranger(t *testing.T) {
	svc, _ := newTestMessageService(false)

	err := svc.MarkRead(context.Background(), "m1", "intruder")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
