package review

import (
	"errors"
	"net/http"
	"strconv"

	"equiprent/internal/middleware"
	"equiprent/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Create stores a review for a completed booking.
// @Summary		Review a booking
// @Description	Renter and owner can each review the other party once the booking is completed.
// @Tags		Reviews
// @Security	BearerAuth
// @Param		id		path	string				true	"Booking ID"
// @Param		request	body	CreateReviewRequest	true	"Rating and comment"
// @Success		201	{object}	map[string]interface{}
// @Failure		403	{object}	map[string]interface{}
// @Failure		409	{object}	map[string]interface{}
// @Router		/bookings/{id}/reviews [post]
func (h *Handler) Create(c *gin.Context) {
	userID, ok := middleware.MustUserID(c)
	if !ok {
		return
	}
	bookingID, ok := parseID(c)
	if !ok {
		return
	}
	var req CreateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeValidation, "Invalid request body")
		return
	}

	rv, err := h.svc.Create(c.Request.Context(), userID, bookingID, req)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidRequest):
			response.Error(c, http.StatusBadRequest, response.CodeValidation, "Invalid input")
		case errors.Is(err, ErrNotFound):
			response.Error(c, http.StatusNotFound, response.CodeNotFound, "Booking not found")
		case errors.Is(err, ErrForbidden):
			response.Error(c, http.StatusForbidden, response.CodeForbidden, "Only booking parties can review")
		case errors.Is(err, ErrReviewNotAllowed):
			response.Error(c, http.StatusForbidden, response.CodeForbidden, "You can review only after a completed booking")
		case errors.Is(err, ErrConflict):
			response.Error(c, http.StatusConflict, response.CodeConflict, "Only one review per booking")
		default:
			_ = c.Error(err)
			response.Error(c, http.StatusInternalServerError, response.CodeInternal, "Internal error")
		}
		return
	}
	response.Success(c, http.StatusCreated, rv)
}

func (h *Handler) GetByEquipment(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	limit, offset := paging(c)

	items, err := h.svc.ListByEquipment(c.Request.Context(), id, limit, offset)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternal, "Failed to load reviews")
		return
	}
	summary, err := h.svc.EquipmentSummary(c.Request.Context(), id)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternal, "Failed to load reviews")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"items": items, "summary": summary})
}

func (h *Handler) GetByUser(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	limit, offset := paging(c)

	items, err := h.svc.ListBySubject(c.Request.Context(), id, limit, offset)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternal, "Failed to load reviews")
		return
	}
	avg, count, err := h.svc.UserRatingSummary(c.Request.Context(), id)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternal, "Failed to load reviews")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"items": items, "summary": Summary{Average: avg, Count: count}})
}

func (h *Handler) Hide(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.svc.Hide(c.Request.Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			response.Error(c, http.StatusNotFound, response.CodeNotFound, "Review not found")
			return
		}
		response.Error(c, http.StatusInternalServerError, response.CodeInternal, "Failed to hide review")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"id": id, "hidden": true})
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeValidation, "Invalid id")
		return uuid.Nil, false
	}
	return id, true
}

func paging(c *gin.Context) (int, int) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	return limit, offset
}
