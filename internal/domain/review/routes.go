package review

import (
	"equiprent/internal/middleware"

	"github.com/gin-gonic/gin"
)

func (h *Handler) RegisterRoutes(public, protected *gin.RouterGroup) {
	public.GET("/equipment/:id/reviews", h.GetByEquipment)
	public.GET("/users/:id/reviews", h.GetByUser)

	protected.POST("/bookings/:id/reviews", h.Create)
	protected.DELETE("/admin/reviews/:id", middleware.AdminOnly(), h.Hide)
}
