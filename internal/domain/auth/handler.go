package auth

import (
	"context"
	"errors"
	"net/http"

	"equiprent/internal/domain/upload"
	"equiprent/internal/middleware"
	"equiprent/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// IdentityUploader stores identity documents and returns the upload id.
type IdentityUploader interface {
	UploadIdentityDocument(ctx context.Context, userID uuid.UUID, r *http.Request) (uuid.UUID, error)
}

// Handler manages all HTTP interactions for authentication
type Handler struct {
	service  *Service
	uploader IdentityUploader
}

func NewHandler(service *Service, uploader IdentityUploader) *Handler {
	return &Handler{service: service, uploader: uploader}
}

// Register creates an account.
// @Summary		Register
// @Tags		Auth
// @Accept		json
// @Produce		json
// @Param		body	body	RegisterRequest	true	"payload"
// @Router		/auth/register [post]
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeValidation, "Invalid request body")
		return
	}

	res, err := h.service.Register(c.Request.Context(), req)
	if errors.Is(err, ErrEmailAlreadyExists) {
		response.Error(c, http.StatusConflict, response.CodeConflict, "Email already registered")
		return
	}
	if err != nil {
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, response.CodeInternal, "Failed to register")
		return
	}
	response.Success(c, http.StatusCreated, res)
}

// Login exchanges credentials for a token.
// @Summary		Login
// @Tags		Auth
// @Router		/auth/login [post]
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeValidation, "Invalid request body")
		return
	}

	res, err := h.service.Login(c.Request.Context(), req)
	if errors.Is(err, ErrInvalidCredentials) {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "Invalid email or password")
		return
	}
	if err != nil {
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, response.CodeInternal, "Failed to login")
		return
	}
	response.Success(c, http.StatusOK, res)
}

func (h *Handler) Me(c *gin.Context) {
	userID, ok := middleware.MustUserID(c)
	if !ok {
		return
	}
	user, err := h.service.Me(c.Request.Context(), userID)
	if err != nil {
		h.writeUserError(c, err)
		return
	}
	response.Success(c, http.StatusOK, user)
}

func (h *Handler) UpdateMe(c *gin.Context) {
	userID, ok := middleware.MustUserID(c)
	if !ok {
		return
	}
	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeValidation, "Invalid request body")
		return
	}

	user, err := h.service.UpdateProfile(c.Request.Context(), userID, req)
	if err != nil {
		h.writeUserError(c, err)
		return
	}
	response.Success(c, http.StatusOK, user)
}

func (h *Handler) GetProfile(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeValidation, "Invalid user id")
		return
	}
	profile, err := h.service.PublicProfile(c.Request.Context(), id)
	if err != nil {
		h.writeUserError(c, err)
		return
	}
	response.Success(c, http.StatusOK, profile)
}

// UploadIdentityDocument accepts a multipart "file" field.
// @Summary		Upload identity document
// @Tags		Users
// @Accept		multipart/form-data
// @Router		/users/me/identity-document [post]
func (h *Handler) UploadIdentityDocument(c *gin.Context) {
	userID, ok := middleware.MustUserID(c)
	if !ok {
		return
	}
	if h.uploader == nil {
		response.Error(c, http.StatusServiceUnavailable, response.CodeServiceUnavailable, "Uploads are disabled")
		return
	}

	uploadID, err := h.uploader.UploadIdentityDocument(c.Request.Context(), userID, c.Request)
	if err != nil {
		writeUploadError(c, err)
		return
	}
	if err := h.service.AttachIdentityDocument(c.Request.Context(), userID, uploadID); err != nil {
		h.writeUserError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"upload_id": uploadID, "identity_verified": false})
}

// VerifyIdentity is an admin action.
func (h *Handler) VerifyIdentity(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeValidation, "Invalid user id")
		return
	}
	if err := h.service.SetIdentityVerified(c.Request.Context(), id, true); err != nil {
		h.writeUserError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"identity_verified": true})
}

func (h *Handler) writeUserError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrUserNotFound):
		response.Error(c, http.StatusNotFound, response.CodeNotFound, "User not found")
	case errors.Is(err, ErrValidation):
		response.Error(c, http.StatusBadRequest, response.CodeValidation, "Invalid profile data")
	default:
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, response.CodeInternal, "Internal error")
	}
}

func writeUploadError(c *gin.Context, err error) {
	status := upload.StatusFor(err)
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		response.Error(c, status, response.CodeInternal, "Upload failed")
		return
	}
	response.Error(c, status, response.CodeValidation, err.Error())
}
