package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gatortutors/gator-tutors-api/internal/service"
	appErrors "github.com/gatortutors/gator-tutors-api/pkg/errors"
	"github.com/gatortutors/gator-tutors-api/pkg/response"
)

// AdminHandler hosts moderation and export routes. Route-level RBAC
// restricts these to admins.
type AdminHandler struct {
	posts  *service.TutorPostService
	export *service.ExportService
}

// NewAdminHandler constructs an AdminHandler.
func NewAdminHandler(posts *service.TutorPostService, export *service.ExportService) *AdminHandler {
	return &AdminHandler{posts: posts, export: export}
}

type approvalRequest struct {
	Approved bool `json:"approved"`
}

// ListPending godoc
// @Summary List listings awaiting moderation
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /admin/tutors/pending [get]
func (h *AdminHandler) ListPending(c *gin.Context) {
	posts, err := h.posts.ListPending(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, posts, nil)
}

// SetApproval godoc
// @Summary Approve or reject a listing
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Listing ID"
// @Param payload body approvalRequest true "Approval decision"
// @Success 200 {object} response.Envelope
// @Router /admin/tutors/{id}/approval [patch]
func (h *AdminHandler) SetApproval(c *gin.Context) {
	var req approvalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid approval payload"))
		return
	}
	post, err := h.posts.SetApproval(c.Request.Context(), c.Param("id"), req.Approved)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, post, nil)
}

// ExportDirectory godoc
// @Summary Export the approved tutor directory
// @Tags Admin
// @Produce text/csv
// @Produce application/pdf
// @Security BearerAuth
// @Param format query string true "Export format (csv or pdf)"
// @Success 200
// @Router /admin/tutors/export [get]
func (h *AdminHandler) ExportDirectory(c *gin.Context) {
	file, err := h.export.TutorDirectory(c.Request.Context(), c.DefaultQuery("format", "csv"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+file.FileName+`"`)
	c.Data(http.StatusOK, file.ContentType, file.Content)
}
