package handler

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/gatortutors/gator-tutors-api/internal/service"
	"github.com/gatortutors/gator-tutors-api/pkg/config"
	appErrors "github.com/gatortutors/gator-tutors-api/pkg/errors"
	"github.com/gatortutors/gator-tutors-api/pkg/response"
	"github.com/gatortutors/gator-tutors-api/pkg/storage"
)

// UploadHandler accepts listing media uploads and serves signed downloads.
type UploadHandler struct {
	posts   *service.TutorPostService
	storage *storage.LocalStorage
	signer  *storage.SignedURLSigner
	config  config.UploadsConfig
}

// NewUploadHandler constructs an UploadHandler.
func NewUploadHandler(posts *service.TutorPostService, store *storage.LocalStorage, signer *storage.SignedURLSigner, cfg config.UploadsConfig) *UploadHandler {
	return &UploadHandler{posts: posts, storage: store, signer: signer, config: cfg}
}

// Upload godoc
// @Summary Attach a media file (photo, video or resume) to a listing
// @Tags Uploads
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id path string true "Listing ID"
// @Param kind path string true "Media kind (photo, video, resume)"
// @Param file formData file true "Media file"
// @Success 200 {object} response.Envelope
// @Router /tutors/{id}/media/{kind} [post]
func (h *UploadHandler) Upload(c *gin.Context) {
	claims, ok := currentClaims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	kind := c.Param("kind")
	switch kind {
	case "photo", "video", "resume":
	default:
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unknown media kind"))
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "missing file field"))
		return
	}
	if fileHeader.Size > h.config.MaxFileSizeBytes {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "file exceeds upload size limit"))
		return
	}
	if !h.mimeAllowed(fileHeader.Header.Get("Content-Type")) {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unsupported file type"))
		return
	}

	src, err := fileHeader.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read upload"))
		return
	}
	defer src.Close() //nolint:errcheck

	postID := c.Param("id")
	fileID := uuid.NewString()
	relPath := fmt.Sprintf("%s/%s%s", postID, fileID, strings.ToLower(filepath.Ext(fileHeader.Filename)))
	if _, err := h.storage.SaveStream(relPath, src); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store upload"))
		return
	}

	post, err := h.posts.SetMedia(c.Request.Context(), postID, claims, kind, relPath)
	if err != nil {
		// The listing rejected the file; do not leave the orphan on disk.
		_ = h.storage.Delete(relPath)
		response.Error(c, err)
		return
	}

	token, expiresAt, err := h.signer.Generate(fileID, relPath)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download link"))
		return
	}

	response.JSON(c, http.StatusOK, gin.H{
		"listing":      post,
		"download_url": "/media/" + token,
		"expires_at":   expiresAt,
	}, nil)
}

// Download godoc
// @Summary Download a media file via signed token
// @Tags Uploads
// @Param token path string true "Signed download token"
// @Success 200
// @Router /media/{token} [get]
func (h *UploadHandler) Download(c *gin.Context) {
	_, relPath, _, err := h.signer.Parse(c.Param("token"), false)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired download link"))
		return
	}
	c.File(h.storage.Path(relPath))
}

// SignedLink godoc
// @Summary Issue a fresh signed download link for listing media
// @Tags Uploads
// @Produce json
// @Security BearerAuth
// @Param id path string true "Listing ID"
// @Param kind path string true "Media kind (photo, video, resume)"
// @Success 200 {object} response.Envelope
// @Router /tutors/{id}/media/{kind} [get]
func (h *UploadHandler) SignedLink(c *gin.Context) {
	claims, _ := currentClaims(c)
	post, err := h.posts.Get(c.Request.Context(), c.Param("id"), claims)
	if err != nil {
		response.Error(c, err)
		return
	}

	var relPath *string
	switch c.Param("kind") {
	case "photo":
		relPath = post.ProfilePhoto
	case "video":
		relPath = post.ProfileVideo
	case "resume":
		relPath = post.ResumePDF
	default:
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unknown media kind"))
		return
	}
	if relPath == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "no media of that kind on this listing"))
		return
	}

	token, expiresAt, err := h.signer.Generate(uuid.NewString(), *relPath)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download link"))
		return
	}
	response.JSON(c, http.StatusOK, gin.H{
		"download_url": "/media/" + token,
		"expires_at":   expiresAt,
	}, nil)
}

func (h *UploadHandler) mimeAllowed(contentType string) bool {
	if len(h.config.AllowedMIMEs) == 0 {
		return true
	}
	mime := strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0])
	for _, allowed := range h.config.AllowedMIMEs {
		if strings.EqualFold(allowed, mime) {
			return true
		}
	}
	return false
}
