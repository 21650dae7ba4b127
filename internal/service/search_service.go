package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/gatortutors/gator-tutors-api/internal/models"
	appErrors "github.com/gatortutors/gator-tutors-api/pkg/errors"
)

type searchRepository interface {
	Search(ctx context.Context, filter models.TutorPostFilter) ([]models.TutorPostView, int, error)
}

// SearchParams carries the raw query-string values of a search request.
// Normalization happens here, not in the handler, so every caller gets the
// same lenient treatment of junk input.
type SearchParams struct {
	Query    string
	Subject  string
	MinRate  string
	MaxRate  string
	Sort     string
	Page     string
	PageSize string
}

// SearchConfig tunes pagination bounds and cache lifetime.
type SearchConfig struct {
	DefaultPageSize int
	MaxPageSize     int
	CacheTTL        time.Duration
}

// SearchService runs the public tutor search with a cache-aside layer.
type SearchService struct {
	repo    searchRepository
	cache   *CacheService
	metrics *MetricsService
	logger  *zap.Logger
	config  SearchConfig
}

// NewSearchService constructs a SearchService.
func NewSearchService(repo searchRepository, cache *CacheService, metrics *MetricsService, logger *zap.Logger, config SearchConfig) *SearchService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.DefaultPageSize <= 0 {
		config.DefaultPageSize = 10
	}
	if config.MaxPageSize <= 0 {
		config.MaxPageSize = 100
	}
	return &SearchService{repo: repo, cache: cache, metrics: metrics, logger: logger, config: config}
}

// Search normalizes the raw parameters, then serves the page from cache or
// the database. Only approved listings are ever returned here; the approval
// gate is applied server-side regardless of what the caller sends.
func (s *SearchService) Search(ctx context.Context, params SearchParams) (*models.SearchResult, error) {
	filter := s.normalize(params)

	key := searchCacheKey(filter)
	var cached models.SearchResult
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		if s.metrics != nil {
			s.metrics.ObserveSearch(true)
		}
		return &cached, nil
	}

	start := time.Now()
	posts, total, err := s.repo.Search(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "tutor search is temporarily unavailable")
	}
	if s.metrics != nil {
		s.metrics.ObserveDBQuery("tutor_search", time.Since(start))
		s.metrics.ObserveSearch(false)
	}

	totalPages := 0
	if total > 0 {
		totalPages = (total + filter.PageSize - 1) / filter.PageSize
	}

	result := &models.SearchResult{
		Posts: posts,
		Pagination: models.Pagination{
			TotalPages:  totalPages,
			CurrentPage: filter.Page,
			TotalCount:  total,
		},
	}

	if err := s.cache.Set(ctx, key, result, s.config.CacheTTL); err != nil {
		s.logger.Warn("failed to cache search page", zap.String("key", key), zap.Error(err))
	}

	return result, nil
}

// normalize coerces raw parameters into a filter. Unparsable or out-of-range
// values never fail the request; they fall back to the unfiltered or default
// behavior.
func (s *SearchService) normalize(params SearchParams) models.TutorPostFilter {
	filter := models.TutorPostFilter{
		TextQuery:    strings.TrimSpace(params.Query),
		SubjectName:  strings.TrimSpace(params.Subject),
		ApprovedOnly: true,
		Sort:         models.SortNewest,
		Page:         1,
		PageSize:     s.config.DefaultPageSize,
	}

	if v, err := strconv.ParseFloat(strings.TrimSpace(params.MinRate), 64); err == nil {
		filter.MinRate = &v
	}
	if v, err := strconv.ParseFloat(strings.TrimSpace(params.MaxRate), 64); err == nil {
		filter.MaxRate = &v
	}

	switch params.Sort {
	case models.SortPriceAsc, models.SortPriceDesc:
		filter.Sort = params.Sort
	}

	if page, err := strconv.Atoi(strings.TrimSpace(params.Page)); err == nil && page > 0 {
		filter.Page = page
	}
	if size, err := strconv.Atoi(strings.TrimSpace(params.PageSize)); err == nil && size > 0 {
		if size > s.config.MaxPageSize {
			size = s.config.MaxPageSize
		}
		filter.PageSize = size
	}

	return filter
}

func searchCacheKey(filter models.TutorPostFilter) string {
	min := ""
	if filter.MinRate != nil {
		min = strconv.FormatFloat(*filter.MinRate, 'f', -1, 64)
	}
	max := ""
	if filter.MaxRate != nil {
		max = strconv.FormatFloat(*filter.MaxRate, 'f', -1, 64)
	}
	return fmt.Sprintf("search:tutors:q=%s|subject=%s|min=%s|max=%s|sort=%s|page=%d|size=%d",
		strings.ToLower(filter.TextQuery), filter.SubjectName, min, max, filter.Sort, filter.Page, filter.PageSize)
}
