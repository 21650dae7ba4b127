package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatortutors/gator-tutors-api/internal/models"
	"github.com/gatortutors/gator-tutors-api/internal/service"
)

type searchRepoMock struct {
	lastFilter models.TutorPostFilter
	posts      []models.TutorPostView
	total      int
	err        error
}

func (m *searchRepoMock) Search(ctx context.Context, filter models.TutorPostFilter) ([]models.TutorPostView, int, error) {
	m.lastFilter = filter
	return m.posts, m.total, m.err
}

func newSearchHandler(repo *searchRepoMock) *TutorHandler {
	cache := service.NewCacheService(nil, nil, 0, nil, false)
	search := service.NewSearchService(repo, cache, nil, nil, service.SearchConfig{DefaultPageSize: 10, MaxPageSize: 100})
	return NewTutorHandler(search, nil)
}

func TestTutorHandlerSearchOK(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &searchRepoMock{
		posts: []models.TutorPostView{{
			TutorPost:  models.TutorPost{ID: "p1", DisplayName: "Alice", Approved: true},
			OwnerEmail: "alice@ufl.edu",
			Subjects:   []models.Subject{{ID: 3, Name: "Mathematics"}},
		}},
		total: 11,
	}
	handler := newSearchHandler(repo)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/tutors?q=alice&sort=price_asc&page=2&page_size=10", nil)
	c.Request = req

	handler.Search(c)
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, "alice", repo.lastFilter.TextQuery)
	assert.Equal(t, models.SortPriceAsc, repo.lastFilter.Sort)
	assert.Equal(t, 2, repo.lastFilter.Page)
	assert.True(t, repo.lastFilter.ApprovedOnly)

	var envelope struct {
		Data       []models.TutorPostView `json:"data"`
		Pagination *models.Pagination     `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.NotNil(t, envelope.Pagination)
	assert.Equal(t, 2, envelope.Pagination.TotalPages)
	assert.Equal(t, 2, envelope.Pagination.CurrentPage)
	assert.Equal(t, 11, envelope.Pagination.TotalCount)
	require.Len(t, envelope.Data, 1)
	assert.Equal(t, "Alice", envelope.Data[0].DisplayName)
}

func TestTutorHandlerSearchStoreDown(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newSearchHandler(&searchRepoMock{err: errors.New("dial tcp: refused")})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/tutors", nil)
	c.Request = req

	handler.Search(c)
	require.Equal(t, http.StatusServiceUnavailable, w.Code)

	var envelope struct {
		Error *struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.NotNil(t, envelope.Error)
	assert.Equal(t, "STORE_UNAVAILABLE", envelope.Error.Code)
}

func TestTutorHandlerCreateRequiresAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewTutorHandler(nil, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/tutors", nil)
	c.Request = req

	handler.Create(c)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}
