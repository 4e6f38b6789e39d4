package upload

import "github.com/gin-gonic/gin"

// RegisterRoutes mounts the caller's file listing. Files are created
// through the equipment image and identity document endpoints.
func RegisterRoutes(r *gin.RouterGroup, h *Handler) {
	r.GET("/uploads", h.ListMy)
	r.GET("/uploads/:id", h.Get)
	r.DELETE("/uploads/:id", h.Delete)
}
