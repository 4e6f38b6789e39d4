package favorite

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"equiprent/internal/domain/equipment"
	"equiprent/internal/middleware"
	"equiprent/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type EquipmentReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*equipment.Equipment, error)
}

type Handler struct {
	repo      *Repository
	equipment EquipmentReader
}

func NewHandler(repo *Repository, eq EquipmentReader) *Handler {
	return &Handler{repo: repo, equipment: eq}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	favorites := rg.Group("/favorites")
	{
		favorites.GET("", h.List)
		favorites.POST("/:equipmentId", h.Add)
		favorites.DELETE("/:equipmentId", h.Remove)
		favorites.GET("/:equipmentId/check", h.Check)
	}
}

// List godoc
// @Summary List my favorite equipment
// @Tags Favorites
// @Security BearerAuth
// @Param page query int false "Page" default(1)
// @Param per_page query int false "Items per page" default(20)
// @Router /favorites [get]
func (h *Handler) List(c *gin.Context) {
	userID, ok := middleware.MustUserID(c)
	if !ok {
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "20"))
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	entries, total, err := h.repo.List(c.Request.Context(), userID, perPage, (page-1)*perPage)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternal, "Failed to get favorites")
		return
	}
	if entries == nil {
		entries = []Entry{}
	}
	response.Success(c, http.StatusOK, gin.H{
		"items":    entries,
		"total":    total,
		"page":     page,
		"per_page": perPage,
	})
}

func (h *Handler) Add(c *gin.Context) {
	userID, equipmentID, ok := h.params(c)
	if !ok {
		return
	}
	if _, err := h.equipment.GetByID(c.Request.Context(), equipmentID); err != nil {
		if errors.Is(err, equipment.ErrNotFound) {
			response.Error(c, http.StatusNotFound, response.CodeNotFound, "Equipment not found")
			return
		}
		response.Error(c, http.StatusInternalServerError, response.CodeInternal, "Failed to load equipment")
		return
	}

	f, err := h.repo.Add(c.Request.Context(), userID, equipmentID)
	if err != nil {
		if errors.Is(err, ErrAlreadyFavorite) {
			response.Error(c, http.StatusConflict, response.CodeConflict, "Equipment already in favorites")
			return
		}
		response.Error(c, http.StatusInternalServerError, response.CodeInternal, "Failed to add favorite")
		return
	}
	response.Success(c, http.StatusCreated, f)
}

func (h *Handler) Remove(c *gin.Context) {
	userID, equipmentID, ok := h.params(c)
	if !ok {
		return
	}
	if err := h.repo.Remove(c.Request.Context(), userID, equipmentID); err != nil {
		if errors.Is(err, ErrNotFound) {
			response.Error(c, http.StatusNotFound, response.CodeNotFound, "Favorite not found")
			return
		}
		response.Error(c, http.StatusInternalServerError, response.CodeInternal, "Failed to remove favorite")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"equipment_id": equipmentID, "removed": true})
}

func (h *Handler) Check(c *gin.Context) {
	userID, equipmentID, ok := h.params(c)
	if !ok {
		return
	}
	exists, err := h.repo.Exists(c.Request.Context(), userID, equipmentID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternal, "Failed to check favorite")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"is_favorite": exists})
}

func (h *Handler) params(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	userID, ok := middleware.MustUserID(c)
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	equipmentID, err := uuid.Parse(c.Param("equipmentId"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeValidation, "Invalid equipment id")
		return uuid.Nil, uuid.Nil, false
	}
	return userID, equipmentID, true
}
