package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gatortutors/gator-tutors-api/internal/service"
	appErrors "github.com/gatortutors/gator-tutors-api/pkg/errors"
	"github.com/gatortutors/gator-tutors-api/pkg/response"
)

// TutorHandler wires listing services to HTTP routes.
type TutorHandler struct {
	search *service.SearchService
	posts  *service.TutorPostService
}

// NewTutorHandler constructs a TutorHandler.
func NewTutorHandler(search *service.SearchService, posts *service.TutorPostService) *TutorHandler {
	return &TutorHandler{search: search, posts: posts}
}

// Search godoc
// @Summary Search approved tutor listings
// @Tags Tutors
// @Produce json
// @Param q query string false "Text search over name and bio"
// @Param subject query string false "Exact subject name"
// @Param min_rate query number false "Minimum hourly rate (inclusive)"
// @Param max_rate query number false "Maximum hourly rate (inclusive)"
// @Param sort query string false "Sort order (newest, price_asc, price_desc)"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size (max 100)"
// @Success 200 {object} response.Envelope
// @Router /tutors [get]
func (h *TutorHandler) Search(c *gin.Context) {
	result, err := h.search.Search(c.Request.Context(), service.SearchParams{
		Query:    c.Query("q"),
		Subject:  c.Query("subject"),
		MinRate:  c.Query("min_rate"),
		MaxRate:  c.Query("max_rate"),
		Sort:     c.Query("sort"),
		Page:     c.Query("page"),
		PageSize: c.Query("page_size"),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result.Posts, &result.Pagination)
}

// Get godoc
// @Summary Get listing detail
// @Tags Tutors
// @Produce json
// @Param id path string true "Listing ID"
// @Success 200 {object} response.Envelope
// @Router /tutors/{id} [get]
func (h *TutorHandler) Get(c *gin.Context) {
	claims, _ := currentClaims(c)
	post, err := h.posts.Get(c.Request.Context(), c.Param("id"), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, post, nil)
}

// MyListings godoc
// @Summary List the caller's own listings
// @Tags Tutors
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /tutors/me [get]
func (h *TutorHandler) MyListings(c *gin.Context) {
	claims, ok := currentClaims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	posts, err := h.posts.MyListings(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, posts, nil)
}

// Create godoc
// @Summary Publish a new tutor listing
// @Tags Tutors
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.CreateListingRequest true "Listing payload"
// @Success 201 {object} response.Envelope
// @Router /tutors [post]
func (h *TutorHandler) Create(c *gin.Context) {
	claims, ok := currentClaims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.CreateListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid listing payload"))
		return
	}
	post, err := h.posts.Create(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, post)
}

// Update godoc
// @Summary Edit a tutor listing
// @Tags Tutors
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Listing ID"
// @Param payload body service.UpdateListingRequest true "Listing payload"
// @Success 200 {object} response.Envelope
// @Router /tutors/{id} [put]
func (h *TutorHandler) Update(c *gin.Context) {
	claims, ok := currentClaims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.UpdateListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid listing payload"))
		return
	}
	post, err := h.posts.Update(c.Request.Context(), c.Param("id"), claims, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, post, nil)
}

// Delete godoc
// @Summary Delete a tutor listing
// @Tags Tutors
// @Security BearerAuth
// @Param id path string true "Listing ID"
// @Success 204
// @Router /tutors/{id} [delete]
func (h *TutorHandler) Delete(c *gin.Context) {
	claims, ok := currentClaims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.posts.Delete(c.Request.Context(), c.Param("id"), claims); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
