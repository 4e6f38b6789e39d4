package booking

import "github.com/gin-gonic/gin"

// RegisterRoutes mounts booking routes on an authenticated group.
func (h *Handler) RegisterRoutes(protected *gin.RouterGroup) {
	protected.POST("/bookings/validate", h.Validate)
	protected.POST("/bookings/validate-approval", h.ValidateApproval)

	protected.POST("/bookings", h.Create)
	protected.GET("/bookings", h.List)
	protected.GET("/bookings/:id", h.Get)
	protected.PATCH("/bookings/:id/dates", h.ChangeDates)
	protected.POST("/bookings/:id/approve", h.Approve)
	protected.POST("/bookings/:id/reject", h.Reject)
	protected.POST("/bookings/:id/propose-dates", h.ProposeDates)
	protected.POST("/bookings/:id/accept-proposal", h.AcceptProposal)
	protected.POST("/bookings/:id/cancel", h.Cancel)
	protected.POST("/bookings/:id/handover", h.Handover)
	protected.POST("/bookings/:id/complete", h.Complete)

	protected.GET("/equipment/:id/availability", h.Availability)
}
