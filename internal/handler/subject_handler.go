package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gatortutors/gator-tutors-api/internal/service"
	"github.com/gatortutors/gator-tutors-api/pkg/response"
)

// SubjectHandler serves the subject catalog.
type SubjectHandler struct {
	subjects *service.SubjectService
}

// NewSubjectHandler constructs a SubjectHandler.
func NewSubjectHandler(subjects *service.SubjectService) *SubjectHandler {
	return &SubjectHandler{subjects: subjects}
}

// List godoc
// @Summary List all subjects
// @Tags Subjects
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /subjects [get]
func (h *SubjectHandler) List(c *gin.Context) {
	subjects, err := h.subjects.ListAll(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, subjects, nil)
}

// ListActive godoc
// @Summary List subjects with at least one approved listing
// @Tags Subjects
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /subjects/active [get]
func (h *SubjectHandler) ListActive(c *gin.Context) {
	subjects, err := h.subjects.ListActive(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, subjects, nil)
}
