package equipment

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"equiprent/internal/domain/upload"
	"equiprent/internal/middleware"
	"equiprent/internal/pkg/dateutil"
	"equiprent/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ImageUploader stores an equipment image from a multipart request and
// returns its public URL.
type ImageUploader interface {
	UploadEquipmentImage(ctx context.Context, userID, equipmentID uuid.UUID, r *http.Request) (string, error)
}

type Handler struct {
	service  *Service
	uploader ImageUploader
}

func NewHandler(service *Service, uploader ImageUploader) *Handler {
	return &Handler{service: service, uploader: uploader}
}

// Search lists equipment.
// @Summary		Search equipment
// @Tags		Equipment
// @Produce		json
// @Param		q				query	string	false	"Text search in title and description"
// @Param		category		query	string	false	"Category"
// @Param		city			query	string	false	"City"
// @Param		min_rate		query	int		false	"Minimum daily rate"
// @Param		max_rate		query	int		false	"Maximum daily rate"
// @Param		available_from	query	string	false	"RFC3339 or YYYY-MM-DD"
// @Param		available_to	query	string	false	"RFC3339 or YYYY-MM-DD"
// @Router		/equipment [get]
func (h *Handler) Search(c *gin.Context) {
	f := Filter{
		Query:    c.Query("q"),
		Category: c.Query("category"),
		City:     c.Query("city"),
		Sort:     c.Query("sort"),
	}

	var err error
	if f.MinRate, err = queryInt64(c, "min_rate"); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeValidation, "Invalid min_rate")
		return
	}
	if f.MaxRate, err = queryInt64(c, "max_rate"); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeValidation, "Invalid max_rate")
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	f.Limit, f.Offset = limit, offset

	from, err := dateutil.ParseOptional(c.Query("available_from"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeValidation, "Invalid available_from")
		return
	}
	to, err := dateutil.ParseOptional(c.Query("available_to"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeValidation, "Invalid available_to")
		return
	}
	if (from == nil) != (to == nil) {
		response.Error(c, http.StatusBadRequest, response.CodeValidation, "available_from and available_to go together")
		return
	}

	res, err := h.service.Search(c.Request.Context(), f, from, to)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, res)
}

func (h *Handler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	e, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, e)
}

func (h *Handler) Create(c *gin.Context) {
	userID, ok := middleware.MustUserID(c)
	if !ok {
		return
	}
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeValidation, "Invalid request body")
		return
	}
	e, err := h.service.Create(c.Request.Context(), userID, req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, e)
}

func (h *Handler) Update(c *gin.Context) {
	userID, ok := middleware.MustUserID(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeValidation, "Invalid request body")
		return
	}
	e, err := h.service.Update(c.Request.Context(), userID, id, req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, e)
}

func (h *Handler) Delete(c *gin.Context) {
	userID, ok := middleware.MustUserID(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.service.Deactivate(c.Request.Context(), userID, id); err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"id": id, "is_active": false})
}

func (h *Handler) ListMine(c *gin.Context) {
	userID, ok := middleware.MustUserID(c)
	if !ok {
		return
	}
	items, err := h.service.ListByOwner(c.Request.Context(), userID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"items": items})
}

// UploadImage expects a multipart "file" field.
func (h *Handler) UploadImage(c *gin.Context) {
	userID, ok := middleware.MustUserID(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}
	if h.uploader == nil {
		response.Error(c, http.StatusServiceUnavailable, response.CodeServiceUnavailable, "Uploads are disabled")
		return
	}

	url, err := h.uploader.UploadEquipmentImage(c.Request.Context(), userID, id, c.Request)
	if err != nil {
		writeUploadError(c, err)
		return
	}
	e, err := h.service.AddImage(c.Request.Context(), userID, id, url)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, e)
}

func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		response.Error(c, http.StatusNotFound, response.CodeNotFound, "Equipment not found")
	case errors.Is(err, ErrForbidden):
		response.Error(c, http.StatusForbidden, response.CodeForbidden, "You don't own this equipment")
	case errors.Is(err, ErrValidation):
		response.Error(c, http.StatusBadRequest, response.CodeValidation, "Invalid equipment data")
	default:
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, response.CodeInternal, "Internal error")
	}
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeValidation, "Invalid equipment id")
		return uuid.Nil, false
	}
	return id, true
}

func queryInt64(c *gin.Context, name string) (int64, error) {
	v := c.Query(name)
	if v == "" {
		return 0, nil
	}
	return strconv.ParseInt(v, 10, 64)
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
