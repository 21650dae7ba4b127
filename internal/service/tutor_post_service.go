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

const searchCachePattern = "search:tutors:*"

type tutorPostRepository interface {
	FindByID(ctx context.Context, id string) (*models.TutorPostView, error)
	ListByOwner(ctx context.Context, userID string) ([]models.TutorPostView, error)
	ListPending(ctx context.Context) ([]models.TutorPostView, error)
	CountByOwner(ctx context.Context, userID string) (int, error)
	Create(ctx context.Context, post *models.TutorPost, subjectIDs []int) error
	Update(ctx context.Context, post *models.TutorPost, subjectIDs []int) error
	Delete(ctx context.Context, id string) error
	SetApproval(ctx context.Context, id string, approved bool) error
}

type subjectResolver interface {
	FindByIDs(ctx context.Context, ids []int) ([]models.Subject, error)
}

// CreateListingRequest is the payload for publishing a tutor listing.
type CreateListingRequest struct {
	DisplayName  string              `json:"display_name" validate:"required,max=100"`
	Bio          string              `json:"bio" validate:"required,max=2000"`
	HourlyRate   float64             `json:"hourly_rate" validate:"required,gt=0"`
	ContactInfo  string              `json:"contact_info" validate:"required,max=200"`
	Experience   *string             `json:"experience" validate:"omitempty,max=2000"`
	Availability models.Availability `json:"availability"`
	SubjectIDs   []int               `json:"subject_ids" validate:"required,min=1,dive,gt=0"`
}

// UpdateListingRequest is the payload for editing a listing.
type UpdateListingRequest struct {
	DisplayName  string              `json:"display_name" validate:"required,max=100"`
	Bio          string              `json:"bio" validate:"required,max=2000"`
	HourlyRate   float64             `json:"hourly_rate" validate:"required,gt=0"`
	ContactInfo  string              `json:"contact_info" validate:"required,max=200"`
	Experience   *string             `json:"experience" validate:"omitempty,max=2000"`
	Availability models.Availability `json:"availability"`
	SubjectIDs   []int               `json:"subject_ids" validate:"omitempty,min=1,dive,gt=0"`
}

// TutorPostService orchestrates listing lifecycle operations.
type TutorPostService struct {
	repo      tutorPostRepository
	subjects  subjectResolver
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTutorPostService constructs a TutorPostService.
func NewTutorPostService(repo tutorPostRepository, subjects subjectResolver, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *TutorPostService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TutorPostService{repo: repo, subjects: subjects, cache: cache, validator: validate, logger: logger}
}

// Get returns a single listing. Unapproved listings are only visible to
// their owner and admins; everyone else gets not-found rather than a hint
// that the listing exists.
func (s *TutorPostService) Get(ctx context.Context, id string, viewer *models.JWTClaims) (*models.TutorPostView, error) {
	post, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "listing not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load listing")
	}
	if !post.Approved && !canModerate(viewer, post.UserID) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "listing not found")
	}
	return post, nil
}

// MyListings returns the caller's own listings, approved or not.
func (s *TutorPostService) MyListings(ctx context.Context, userID string) ([]models.TutorPostView, error) {
	posts, err := s.repo.ListByOwner(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list your listings")
	}
	return posts, nil
}

// ListPending returns the moderation queue.
func (s *TutorPostService) ListPending(ctx context.Context) ([]models.TutorPostView, error) {
	posts, err := s.repo.ListPending(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list pending listings")
	}
	return posts, nil
}

// Create publishes a new listing for the caller. Each user may hold at most
// one listing; new listings start unapproved and stay out of public search
// until an admin approves them.
func (s *TutorPostService) Create(ctx context.Context, userID string, req CreateListingRequest) (*models.TutorPostView, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid listing payload")
	}
	if err := s.ensureSubjectsExist(ctx, req.SubjectIDs); err != nil {
		return nil, err
	}

	count, err := s.repo.CountByOwner(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing listings")
	}
	if count > 0 {
		return nil, appErrors.Clone(appErrors.ErrConflict, "you already have a listing")
	}

	post := &models.TutorPost{
		UserID:       userID,
		DisplayName:  strings.TrimSpace(req.DisplayName),
		Bio:          strings.TrimSpace(req.Bio),
		HourlyRate:   req.HourlyRate,
		ContactInfo:  strings.TrimSpace(req.ContactInfo),
		Experience:   req.Experience,
		Availability: req.Availability,
		Approved:     false,
	}
	if err := s.repo.Create(ctx, post, req.SubjectIDs); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create listing")
	}

	s.invalidateSearch(ctx)
	return s.repo.FindByID(ctx, post.ID)
}

// Update edits a listing. Owners may edit their own; admins may edit any.
// Owner edits drop the approval flag so changed content goes back through
// moderation.
func (s *TutorPostService) Update(ctx context.Context, id string, caller *models.JWTClaims, req UpdateListingRequest) (*models.TutorPostView, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid listing payload")
	}
	if req.SubjectIDs != nil {
		if err := s.ensureSubjectsExist(ctx, req.SubjectIDs); err != nil {
			return nil, err
		}
	}

	existing, err := s.loadOwned(ctx, id, caller)
	if err != nil {
		return nil, err
	}

	post := existing.TutorPost
	post.DisplayName = strings.TrimSpace(req.DisplayName)
	post.Bio = strings.TrimSpace(req.Bio)
	post.HourlyRate = req.HourlyRate
	post.ContactInfo = strings.TrimSpace(req.ContactInfo)
	post.Experience = req.Experience
	if req.Availability != nil {
		post.Availability = req.Availability
	}
	if caller.Role != models.RoleAdmin {
		post.Approved = false
	}

	if err := s.repo.Update(ctx, &post, req.SubjectIDs); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update listing")
	}

	s.invalidateSearch(ctx)
	return s.repo.FindByID(ctx, post.ID)
}

// Delete removes a listing. Owners may delete their own; admins may delete any.
func (s *TutorPostService) Delete(ctx context.Context, id string, caller *models.JWTClaims) error {
	if _, err := s.loadOwned(ctx, id, caller); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete listing")
	}
	s.invalidateSearch(ctx)
	return nil
}

// SetApproval flips the moderation flag. Admin only; the handler enforces
// the role, this just records the decision.
func (s *TutorPostService) SetApproval(ctx context.Context, id string, approved bool) (*models.TutorPostView, error) {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "listing not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load listing")
	}
	if err := s.repo.SetApproval(ctx, id, approved); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update approval")
	}
	s.invalidateSearch(ctx)
	return s.repo.FindByID(ctx, id)
}

// SetMedia stores an uploaded file reference on the listing.
func (s *TutorPostService) SetMedia(ctx context.Context, id string, caller *models.JWTClaims, kind, path string) (*models.TutorPostView, error) {
	existing, err := s.loadOwned(ctx, id, caller)
	if err != nil {
		return nil, err
	}

	post := existing.TutorPost
	switch kind {
	case "photo":
		post.ProfilePhoto = &path
	case "video":
		post.ProfileVideo = &path
	case "resume":
		post.ResumePDF = &path
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown media kind")
	}

	if err := s.repo.Update(ctx, &post, nil); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to attach media")
	}
	s.invalidateSearch(ctx)
	return s.repo.FindByID(ctx, post.ID)
}

func (s *TutorPostService) loadOwned(ctx context.Context, id string, caller *models.JWTClaims) (*models.TutorPostView, error) {
	post, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "listing not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load listing")
	}
	if !canModerate(caller, post.UserID) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "listing belongs to another user")
	}
	return post, nil
}

func (s *TutorPostService) ensureSubjectsExist(ctx context.Context, ids []int) error {
	found, err := s.subjects.FindByIDs(ctx, ids)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve subjects")
	}
	known := make(map[int]struct{}, len(found))
	for _, subject := range found {
		known[subject.ID] = struct{}{}
	}
	for _, id := range ids {
		if _, ok := known[id]; !ok {
			return appErrors.Clone(appErrors.ErrValidation, "unknown subject id")
		}
	}
	return nil
}

func (s *TutorPostService) invalidateSearch(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, searchCachePattern); err != nil {
		s.logger.Warn("failed to invalidate search cache", zap.Error(err))
	}
	if err := s.cache.Invalidate(ctx, "subjects:*"); err != nil {
		s.logger.Warn("failed to invalidate subject cache", zap.Error(err))
	}
}

func canModerate(claims *models.JWTClaims, ownerID string) bool {
	if claims == nil {
		return false
	}
	return claims.Role == models.RoleAdmin || claims.UserID == ownerID
}
