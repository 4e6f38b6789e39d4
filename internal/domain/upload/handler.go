package upload

import (
	"errors"
	"net/http"

	"equiprent/internal/middleware"
	"equiprent/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Handler exposes the caller's own uploads.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// ListMy godoc
// @Summary List my uploads
// @Tags Uploads
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Router /uploads [get]
func (h *Handler) ListMy(c *gin.Context) {
	userID, ok := middleware.MustUserID(c)
	if !ok {
		return
	}
	uploads, err := h.service.ListByUser(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternal, "Failed to list uploads")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"items": uploads})
}

// Get returns one of the caller's upload records.
func (h *Handler) Get(c *gin.Context) {
	userID, ok := middleware.MustUserID(c)
	if !ok {
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeValidation, "Invalid upload id")
		return
	}
	u, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrUploadNotFound) {
			response.Error(c, http.StatusNotFound, response.CodeNotFound, "Upload not found")
			return
		}
		response.Error(c, http.StatusInternalServerError, response.CodeInternal, "Failed to load upload")
		return
	}
	if u.UserID != userID {
		response.Error(c, http.StatusNotFound, response.CodeNotFound, "Upload not found")
		return
	}
	response.Success(c, http.StatusOK, u)
}

// Delete godoc
// @Summary Delete an upload (file + record)
// @Tags Uploads
// @Security BearerAuth
// @Param id path string true "Upload ID"
// @Router /uploads/{id} [delete]
func (h *Handler) Delete(c *gin.Context) {
	userID, ok := middleware.MustUserID(c)
	if !ok {
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeValidation, "Invalid upload id")
		return
	}

	if err := h.service.Delete(c.Request.Context(), id, userID); err != nil {
		switch {
		case errors.Is(err, ErrUploadNotFound):
			response.Error(c, http.StatusNotFound, response.CodeNotFound, "Upload not found")
		case errors.Is(err, ErrNotOwner):
			response.Error(c, http.StatusForbidden, response.CodeForbidden, "You do not own this upload")
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternal, "Delete failed")
		}
		return
	}
	response.Success(c, http.StatusOK, gin.H{"id": id, "deleted": true})
}

// StatusFor maps storage errors to HTTP status codes for callers that
// accept uploads on their own routes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, ErrInvalidMimeType):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, ErrEmptyFile), errors.Is(err, ErrNoFile):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
