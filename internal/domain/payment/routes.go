package payment

import "github.com/gin-gonic/gin"

func (h *Handler) RegisterWebhookRoutes(r *gin.RouterGroup) {
	r.POST("/payments/webhook", h.Webhook)
}

func (h *Handler) RegisterProtectedRoutes(r *gin.RouterGroup) {
	r.POST("/bookings/:id/checkout", h.Checkout)
	r.GET("/payments/:id/verify", h.Verify)
}
