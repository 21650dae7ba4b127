package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatortutors/gator-tutors-api/internal/models"
	appErrors "github.com/gatortutors/gator-tutors-api/pkg/errors"
)

type stubSearchRepo struct {
	lastFilter models.TutorPostFilter
	posts      []models.TutorPostView
	total      int
	err        error
	calls      int
}

func (s *stubSearchRepo) Search(ctx context.Context, filter models.TutorPostFilter) ([]models.TutorPostView, int, error) {
	s.calls++
	s.lastFilter = filter
	return s.posts, s.total, s.err
}

type memoryCacheRepo struct {
	mu    sync.Mutex
	store map[string][]byte
}

func newMemoryCacheRepo() *memoryCacheRepo {
	return &memoryCacheRepo{store: map[string][]byte{}}
}

func (m *memoryCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.store[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.store[key] = raw
	return nil
}

func (m *memoryCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.store = map[string][]byte{}
	return nil
}

func newTestSearchService(repo *stubSearchRepo, cache CacheRepository) *SearchService {
	var cacheSvc *CacheService
	if cache != nil {
		cacheSvc = NewCacheService(cache, nil, time.Minute, nil, true)
	} else {
		cacheSvc = NewCacheService(nil, nil, time.Minute, nil, false)
	}
	return NewSearchService(repo, cacheSvc, nil, nil, SearchConfig{DefaultPageSize: 10, MaxPageSize: 100, CacheTTL: time.Minute})
}

func TestSearchNormalizesDefaults(t *testing.T) {
	repo := &stubSearchRepo{total: 0}
	svc := newTestSearchService(repo, nil)

	_, err := svc.Search(context.Background(), SearchParams{})
	require.NoError(t, err)

	assert.True(t, repo.lastFilter.ApprovedOnly)
	assert.Equal(t, models.SortNewest, repo.lastFilter.Sort)
	assert.Equal(t, 1, repo.lastFilter.Page)
	assert.Equal(t, 10, repo.lastFilter.PageSize)
	assert.Nil(t, repo.lastFilter.MinRate)
	assert.Nil(t, repo.lastFilter.MaxRate)
}

func TestSearchIgnoresJunkParams(t *testing.T) {
	repo := &stubSearchRepo{}
	svc := newTestSearchService(repo, nil)

	_, err := svc.Search(context.Background(), SearchParams{
		MinRate:  "cheap",
		MaxRate:  "9o",
		Sort:     "popularity",
		Page:     "zero",
		PageSize: "-4",
	})
	require.NoError(t, err)

	assert.Nil(t, repo.lastFilter.MinRate)
	assert.Nil(t, repo.lastFilter.MaxRate)
	assert.Equal(t, models.SortNewest, repo.lastFilter.Sort)
	assert.Equal(t, 1, repo.lastFilter.Page)
	assert.Equal(t, 10, repo.lastFilter.PageSize)
}

func TestSearchParsesAndClampsParams(t *testing.T) {
	repo := &stubSearchRepo{}
	svc := newTestSearchService(repo, nil)

	_, err := svc.Search(context.Background(), SearchParams{
		Query:    "  calculus  ",
		Subject:  "Mathematics",
		MinRate:  "15.5",
		MaxRate:  "60",
		Sort:     models.SortPriceDesc,
		Page:     "3",
		PageSize: "250",
	})
	require.NoError(t, err)

	assert.Equal(t, "calculus", repo.lastFilter.TextQuery)
	assert.Equal(t, "Mathematics", repo.lastFilter.SubjectName)
	require.NotNil(t, repo.lastFilter.MinRate)
	assert.Equal(t, 15.5, *repo.lastFilter.MinRate)
	require.NotNil(t, repo.lastFilter.MaxRate)
	assert.Equal(t, 60.0, *repo.lastFilter.MaxRate)
	assert.Equal(t, models.SortPriceDesc, repo.lastFilter.Sort)
	assert.Equal(t, 3, repo.lastFilter.Page)
	assert.Equal(t, 100, repo.lastFilter.PageSize)
}

func TestSearchComputesTotalPages(t *testing.T) {
	cases := []struct {
		total int
		size  string
		pages int
	}{
		{total: 0, size: "10", pages: 0},
		{total: 1, size: "10", pages: 1},
		{total: 10, size: "10", pages: 1},
		{total: 11, size: "10", pages: 2},
		{total: 21, size: "5", pages: 5},
	}

	for _, tc := range cases {
		repo := &stubSearchRepo{total: tc.total}
		svc := newTestSearchService(repo, nil)

		result, err := svc.Search(context.Background(), SearchParams{PageSize: tc.size})
		require.NoError(t, err)
		assert.Equal(t, tc.pages, result.Pagination.TotalPages, "total=%d size=%s", tc.total, tc.size)
		assert.Equal(t, tc.total, result.Pagination.TotalCount)
	}
}

func TestSearchServesSecondCallFromCache(t *testing.T) {
	repo := &stubSearchRepo{total: 1, posts: []models.TutorPostView{{
		TutorPost:  models.TutorPost{ID: "p1", DisplayName: "Alice", Approved: true},
		OwnerEmail: "alice@ufl.edu",
		Subjects:   []models.Subject{},
	}}}
	svc := newTestSearchService(repo, newMemoryCacheRepo())

	first, err := svc.Search(context.Background(), SearchParams{Query: "alice"})
	require.NoError(t, err)
	second, err := svc.Search(context.Background(), SearchParams{Query: "alice"})
	require.NoError(t, err)

	assert.Equal(t, 1, repo.calls)
	assert.Equal(t, first.Pagination, second.Pagination)
	require.Len(t, second.Posts, 1)
	assert.Equal(t, "Alice", second.Posts[0].DisplayName)
}

func TestSearchMapsStoreFailure(t *testing.T) {
	repo := &stubSearchRepo{err: errors.New("connection refused")}
	svc := newTestSearchService(repo, nil)

	_, err := svc.Search(context.Background(), SearchParams{})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrStoreUnavailable.Code, appErr.Code)
	assert.Equal(t, appErrors.ErrStoreUnavailable.Status, appErr.Status)
}
