package auth

import (
	"equiprent/internal/middleware"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts public endpoints on public and the rest on protected.
func (h *Handler) RegisterRoutes(public, protected *gin.RouterGroup) {
	authGroup := public.Group("/auth")
	{
		authGroup.POST("/register", h.Register)
		authGroup.POST("/login", h.Login)
	}
	public.GET("/users/:id", h.GetProfile)

	protected.GET("/users/me", h.Me)
	protected.PATCH("/users/me", h.UpdateMe)
	protected.POST("/users/me/identity-document", h.UploadIdentityDocument)

	protected.POST("/admin/users/:id/verify-identity", middleware.AdminOnly(), h.VerifyIdentity)
}
