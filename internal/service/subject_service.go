package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/gatortutors/gator-tutors-api/internal/models"
	appErrors "github.com/gatortutors/gator-tutors-api/pkg/errors"
)

const (
	subjectsAllCacheKey    = "subjects:all"
	subjectsActiveCacheKey = "subjects:active"
	subjectsCacheTTL       = 10 * time.Minute
)

type subjectRepository interface {
	ListAll(ctx context.Context) ([]models.Subject, error)
	ListActive(ctx context.Context) ([]models.ActiveSubject, error)
	FindByIDs(ctx context.Context, ids []int) ([]models.Subject, error)
}

// SubjectService serves the subject catalog. The catalog rarely changes so
// both views sit behind the cache with a generous TTL.
type SubjectService struct {
	repo   subjectRepository
	cache  *CacheService
	logger *zap.Logger
}

// NewSubjectService constructs a SubjectService.
func NewSubjectService(repo subjectRepository, cache *CacheService, logger *zap.Logger) *SubjectService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubjectService{repo: repo, cache: cache, logger: logger}
}

// ListAll returns the full catalog ordered by name.
func (s *SubjectService) ListAll(ctx context.Context) ([]models.Subject, error) {
	var cached []models.Subject
	if hit, _ := s.cache.Get(ctx, subjectsAllCacheKey, &cached); hit {
		return cached, nil
	}

	subjects, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "subject catalog is temporarily unavailable")
	}
	if subjects == nil {
		subjects = []models.Subject{}
	}

	if err := s.cache.Set(ctx, subjectsAllCacheKey, subjects, subjectsCacheTTL); err != nil {
		s.logger.Warn("failed to cache subject catalog", zap.Error(err))
	}
	return subjects, nil
}

// ListActive returns subjects with at least one approved listing.
func (s *SubjectService) ListActive(ctx context.Context) ([]models.ActiveSubject, error) {
	var cached []models.ActiveSubject
	if hit, _ := s.cache.Get(ctx, subjectsActiveCacheKey, &cached); hit {
		return cached, nil
	}

	subjects, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "subject catalog is temporarily unavailable")
	}
	if subjects == nil {
		subjects = []models.ActiveSubject{}
	}

	if err := s.cache.Set(ctx, subjectsActiveCacheKey, subjects, subjectsCacheTTL); err != nil {
		s.logger.Warn("failed to cache active subjects", zap.Error(err))
	}
	return subjects, nil
}

// FindByIDs resolves subject identifiers to catalog entries.
func (s *SubjectService) FindByIDs(ctx context.Context, ids []int) ([]models.Subject, error) {
	return s.repo.FindByIDs(ctx, ids)
}
