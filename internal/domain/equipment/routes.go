package equipment

import (
	"context"
	"errors"

	"equiprent/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ownerLookup struct {
	service *Service
}

func (l ownerLookup) OwnerOf(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	owner, err := l.service.OwnerOf(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return uuid.Nil, middleware.ErrResourceNotFound
	}
	return owner, err
}

func (h *Handler) RegisterRoutes(public, protected *gin.RouterGroup) {
	public.GET("/equipment", h.Search)
	public.GET("/equipment/:id", h.Get)

	owned := middleware.RequireOwner(ownerLookup{service: h.service}, "id")

	protected.GET("/users/me/equipment", h.ListMine)
	protected.POST("/equipment", h.Create)
	protected.PATCH("/equipment/:id", owned, h.Update)
	protected.DELETE("/equipment/:id", owned, h.Delete)
	protected.POST("/equipment/:id/images", owned, h.UploadImage)
}
