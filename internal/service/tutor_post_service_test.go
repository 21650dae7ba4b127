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

type stubTutorPostRepo struct {
	posts       map[string]*models.TutorPostView
	ownerCounts map[string]int
	created     *models.TutorPost
	updated     *models.TutorPost
	deleted     []string
	approval    map[string]bool
}

func newStubTutorPostRepo() *stubTutorPostRepo {
	return &stubTutorPostRepo{
		posts:       map[string]*models.TutorPostView{},
		ownerCounts: map[string]int{},
		approval:    map[string]bool{},
	}
}

func (s *stubTutorPostRepo) FindByID(ctx context.Context, id string) (*models.TutorPostView, error) {
	post, ok := s.posts[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *post
	return &copied, nil
}

func (s *stubTutorPostRepo) ListByOwner(ctx context.Context, userID string) ([]models.TutorPostView, error) {
	var out []models.TutorPostView
	for _, post := range s.posts {
		if post.UserID == userID {
			out = append(out, *post)
		}
	}
	return out, nil
}

func (s *stubTutorPostRepo) ListPending(ctx context.Context) ([]models.TutorPostView, error) {
	var out []models.TutorPostView
	for _, post := range s.posts {
		if !post.Approved {
			out = append(out, *post)
		}
	}
	return out, nil
}

func (s *stubTutorPostRepo) CountByOwner(ctx context.Context, userID string) (int, error) {
	return s.ownerCounts[userID], nil
}

func (s *stubTutorPostRepo) Create(ctx context.Context, post *models.TutorPost, subjectIDs []int) error {
	if post.ID == "" {
		post.ID = "generated"
	}
	s.created = post
	s.posts[post.ID] = &models.TutorPostView{TutorPost: *post, Subjects: []models.Subject{}}
	return nil
}

func (s *stubTutorPostRepo) Update(ctx context.Context, post *models.TutorPost, subjectIDs []int) error {
	s.updated = post
	s.posts[post.ID] = &models.TutorPostView{TutorPost: *post, Subjects: []models.Subject{}}
	return nil
}

func (s *stubTutorPostRepo) Delete(ctx context.Context, id string) error {
	s.deleted = append(s.deleted, id)
	delete(s.posts, id)
	return nil
}

func (s *stubTutorPostRepo) SetApproval(ctx context.Context, id string, approved bool) error {
	s.approval[id] = approved
	if post, ok := s.posts[id]; ok {
		post.Approved = approved
	}
	return nil
}

type stubSubjectResolver struct {
	known map[int]models.Subject
}

func (s *stubSubjectResolver) FindByIDs(ctx context.Context, ids []int) ([]models.Subject, error) {
	var out []models.Subject
	for _, id := range ids {
		if subject, ok := s.known[id]; ok {
			out = append(out, subject)
		}
	}
	return out, nil
}

func newTestTutorPostService(repo *stubTutorPostRepo) *TutorPostService {
	resolver := &stubSubjectResolver{known: map[int]models.Subject{
		3: {ID: 3, Name: "Mathematics"},
		7: {ID: 7, Name: "Physics"},
	}}
	cache := NewCacheService(nil, nil, 0, nil, false)
	return NewTutorPostService(repo, resolver, cache, nil, nil)
}

func tutorClaims(userID string, role models.UserRole) *models.JWTClaims {
	return &models.JWTClaims{UserID: userID, Role: role}
}

func validCreateRequest() CreateListingRequest {
	return CreateListingRequest{
		DisplayName: "Alice",
		Bio:         "Calculus tutor",
		HourlyRate:  45,
		ContactInfo: "alice@ufl.edu",
		SubjectIDs:  []int{3},
	}
}

func TestTutorPostServiceCreateStartsUnapproved(t *testing.T) {
	repo := newStubTutorPostRepo()
	svc := newTestTutorPostService(repo)

	post, err := svc.Create(context.Background(), "u1", validCreateRequest())
	require.NoError(t, err)
	assert.False(t, post.Approved)
	assert.Equal(t, "u1", repo.created.UserID)
}

func TestTutorPostServiceCreateRejectsSecondListing(t *testing.T) {
	repo := newStubTutorPostRepo()
	repo.ownerCounts["u1"] = 1
	svc := newTestTutorPostService(repo)

	_, err := svc.Create(context.Background(), "u1", validCreateRequest())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestTutorPostServiceCreateRejectsUnknownSubject(t *testing.T) {
	repo := newStubTutorPostRepo()
	svc := newTestTutorPostService(repo)

	req := validCreateRequest()
	req.SubjectIDs = []int{999}
	_, err := svc.Create(context.Background(), "u1", req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestTutorPostServiceGetHidesUnapprovedFromStrangers(t *testing.T) {
	repo := newStubTutorPostRepo()
	repo.posts["p1"] = &models.TutorPostView{TutorPost: models.TutorPost{ID: "p1", UserID: "u1", Approved: false}}
	svc := newTestTutorPostService(repo)

	_, err := svc.Get(context.Background(), "p1", nil)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	_, err = svc.Get(context.Background(), "p1", tutorClaims("u2", models.RoleStudent))
	require.Error(t, err)

	post, err := svc.Get(context.Background(), "p1", tutorClaims("u1", models.RoleStudent))
	require.NoError(t, err)
	assert.Equal(t, "p1", post.ID)

	post, err = svc.Get(context.Background(), "p1", tutorClaims("admin", models.RoleAdmin))
	require.NoError(t, err)
	assert.Equal(t, "p1", post.ID)
}

func TestTutorPostServiceUpdateResetsApprovalForOwner(t *testing.T) {
	repo := newStubTutorPostRepo()
	repo.posts["p1"] = &models.TutorPostView{TutorPost: models.TutorPost{ID: "p1", UserID: "u1", Approved: true}}
	svc := newTestTutorPostService(repo)

	req := UpdateListingRequest{DisplayName: "Alice", Bio: "Updated bio", HourlyRate: 50, ContactInfo: "alice@ufl.edu"}
	_, err := svc.Update(context.Background(), "p1", tutorClaims("u1", models.RoleTutor), req)
	require.NoError(t, err)
	assert.False(t, repo.updated.Approved)
}

func TestTutorPostServiceUpdateForbiddenForStranger(t *testing.T) {
	repo := newStubTutorPostRepo()
	repo.posts["p1"] = &models.TutorPostView{TutorPost: models.TutorPost{ID: "p1", UserID: "u1"}}
	svc := newTestTutorPostService(repo)

	req := UpdateListingRequest{DisplayName: "X", Bio: "Y", HourlyRate: 1, ContactInfo: "Z"}
	_, err := svc.Update(context.Background(), "p1", tutorClaims("u2", models.RoleStudent), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestTutorPostServiceDeleteAllowsAdmin(t *testing.T) {
	repo := newStubTutorPostRepo()
	repo.posts["p1"] = &models.TutorPostView{TutorPost: models.TutorPost{ID: "p1", UserID: "u1"}}
	svc := newTestTutorPostService(repo)

	require.NoError(t, svc.Delete(context.Background(), "p1", tutorClaims("admin", models.RoleAdmin)))
	assert.Contains(t, repo.deleted, "p1")
}

func TestTutorPostServiceSetApproval(t *testing.T) {
	repo := newStubTutorPostRepo()
	repo.posts["p1"] = &models.TutorPostView{TutorPost: models.TutorPost{ID: "p1", UserID: "u1", Approved: false}}
	svc := newTestTutorPostService(repo)

	post, err := svc.SetApproval(context.Background(), "p1", true)
	require.NoError(t, err)
	assert.True(t, post.Approved)
	assert.True(t, repo.approval["p1"])

	_, err = svc.SetApproval(context.Background(), "missing", true)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
