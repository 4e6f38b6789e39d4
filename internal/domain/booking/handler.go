package booking

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"equiprent/internal/middleware"
	"equiprent/internal/pkg/dateutil"
	"equiprent/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type Handler struct {
	service *Service
	logger  zerolog.Logger
}

func NewHandler(service *Service, logger zerolog.Logger) *Handler {
	return &Handler{service: service, logger: logger.With().Str("component", "booking_http").Logger()}
}

// Validate checks whether dates are free for a new booking or a date change.
// @Summary		Validate booking dates
// @Tags		Bookings
// @Accept		json
// @Produce		json
// @Param		request	body		ValidateRequest	true	"Requested range"
// @Success		200		{object}	ValidationResponse
// @Failure		400		{object}	ValidationResponse
// @Failure		503		{object}	ValidationResponse
// @Router		/bookings/validate [post]
func (h *Handler) Validate(c *gin.Context) {
	userID, ok := middleware.MustUserID(c)
	if !ok {
		return
	}
	var req ValidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ValidationResponse{Valid: false, Error: "Invalid request body"})
		return
	}
	res, err := h.service.ValidateDates(c.Request.Context(), userID, req)
	h.writeValidation(c, res, err, "Dates are available")
}

// ValidateApproval checks whether a pending booking can be confirmed. Only the
// booking's owner may ask.
// @Summary		Validate booking approval
// @Tags		Bookings
// @Accept		json
// @Produce		json
// @Param		request	body		ValidateApprovalRequest	true	"Booking"
// @Success		200		{object}	ValidationResponse
// @Failure		403		{object}	ValidationResponse
// @Failure		404		{object}	ValidationResponse
// @Failure		409		{object}	ValidationResponse
// @Router		/bookings/validate-approval [post]
func (h *Handler) ValidateApproval(c *gin.Context) {
	userID, ok := middleware.MustUserID(c)
	if !ok {
		return
	}
	var req ValidateApprovalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ValidationResponse{Valid: false, Error: "Invalid request body"})
		return
	}
	res, err := h.service.ValidateApproval(c.Request.Context(), userID, req.BookingID)
	h.writeValidation(c, res, err, "Booking can be approved")
}

func (h *Handler) writeValidation(c *gin.Context, res *Result, err error, okMessage string) {
	switch {
	case err == nil && res.Valid:
		c.JSON(http.StatusOK, ValidationResponse{Valid: true, Message: okMessage})
	case err == nil:
		c.JSON(http.StatusOK, ValidationResponse{
			Valid:               false,
			Error:               "Selected dates overlap with existing bookings",
			ConflictingBookings: res.Conflicts,
		})
	case errors.Is(err, ErrValidation):
		c.JSON(http.StatusBadRequest, ValidationResponse{Valid: false, Error: validationMessage(err)})
	case errors.Is(err, ErrInvalidState):
		c.JSON(http.StatusConflict, ValidationResponse{Valid: false, Error: "Booking is not pending"})
	case errors.Is(err, ErrNotFound):
		c.JSON(http.StatusNotFound, ValidationResponse{Valid: false, Error: "Booking not found"})
	case errors.Is(err, ErrForbidden):
		c.JSON(http.StatusForbidden, ValidationResponse{Valid: false, Error: "Not allowed for this booking"})
	default:
		h.logger.Error().Err(err).Msg("booking validation failed")
		c.JSON(http.StatusServiceUnavailable, ValidationResponse{Valid: false, Error: "Validation temporarily unavailable"})
	}
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
	b, err := h.service.Create(c.Request.Context(), userID, req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, b)
}

func (h *Handler) Get(c *gin.Context) {
	h.withBooking(c, func(userID, id uuid.UUID) (*Booking, error) {
		return h.service.Get(c.Request.Context(), userID, id)
	}, http.StatusOK)
}

func (h *Handler) List(c *gin.Context) {
	userID, ok := middleware.MustUserID(c)
	if !ok {
		return
	}
	var statuses []Status
	for _, s := range strings.Split(c.Query("status"), ",") {
		if s = strings.TrimSpace(s); s != "" {
			statuses = append(statuses, Status(strings.ToLower(s)))
		}
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	res, err := h.service.List(c.Request.Context(), userID, c.Query("role"), statuses, limit, offset)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, res)
}

func (h *Handler) ChangeDates(c *gin.Context) {
	var req DatesRequest
	h.withBody(c, &req, func(userID, id uuid.UUID) (*Booking, error) {
		return h.service.ChangeDates(c.Request.Context(), userID, id, req)
	})
}

func (h *Handler) Approve(c *gin.Context) {
	h.withBooking(c, func(userID, id uuid.UUID) (*Booking, error) {
		return h.service.Approve(c.Request.Context(), userID, id)
	}, http.StatusOK)
}

func (h *Handler) Reject(c *gin.Context) {
	var req RejectRequest
	h.withBody(c, &req, func(userID, id uuid.UUID) (*Booking, error) {
		return h.service.Reject(c.Request.Context(), userID, id, req.Reason)
	})
}

func (h *Handler) ProposeDates(c *gin.Context) {
	var req DatesRequest
	h.withBody(c, &req, func(userID, id uuid.UUID) (*Booking, error) {
		return h.service.ProposeDates(c.Request.Context(), userID, id, req)
	})
}

func (h *Handler) AcceptProposal(c *gin.Context) {
	h.withBooking(c, func(userID, id uuid.UUID) (*Booking, error) {
		return h.service.AcceptProposal(c.Request.Context(), userID, id)
	}, http.StatusOK)
}

func (h *Handler) Cancel(c *gin.Context) {
	var req CancelRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, http.StatusBadRequest, response.CodeValidation, "Invalid request body")
			return
		}
	}
	h.withBooking(c, func(userID, id uuid.UUID) (*Booking, error) {
		return h.service.Cancel(c.Request.Context(), userID, id, req.Reason)
	}, http.StatusOK)
}

func (h *Handler) Handover(c *gin.Context) {
	h.withBooking(c, func(userID, id uuid.UUID) (*Booking, error) {
		return h.service.Handover(c.Request.Context(), userID, id)
	}, http.StatusOK)
}

func (h *Handler) Complete(c *gin.Context) {
	h.withBooking(c, func(userID, id uuid.UUID) (*Booking, error) {
		return h.service.Complete(c.Request.Context(), userID, id)
	}, http.StatusOK)
}

// Availability lists busy ranges of an equipment item.
// @Summary		Equipment availability
// @Tags		Bookings
// @Produce		json
// @Param		id		path	string	true	"Equipment ID"
// @Param		from	query	string	true	"RFC3339 or YYYY-MM-DD"
// @Param		to		query	string	true	"RFC3339 or YYYY-MM-DD"
// @Router		/equipment/{id}/availability [get]
func (h *Handler) Availability(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeValidation, "Invalid equipment id")
		return
	}
	from, err := dateutil.Parse(c.Query("from"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeValidation, "Invalid from")
		return
	}
	to, err := dateutil.Parse(c.Query("to"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeValidation, "Invalid to")
		return
	}

	busy, err := h.service.Availability(c.Request.Context(), id, from, to)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"equipment_id": id, "busy": busy})
}

func (h *Handler) withBody(c *gin.Context, req any, fn func(userID, id uuid.UUID) (*Booking, error)) {
	if err := c.ShouldBindJSON(req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeValidation, "Invalid request body")
		return
	}
	h.withBooking(c, fn, http.StatusOK)
}

func (h *Handler) withBooking(c *gin.Context, fn func(userID, id uuid.UUID) (*Booking, error), status int) {
	userID, ok := middleware.MustUserID(c)
	if !ok {
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeValidation, "Invalid booking id")
		return
	}
	b, err := fn(userID, id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, status, b)
}

func (h *Handler) writeError(c *gin.Context, err error) {
	var conflict *ConflictError
	switch {
	case errors.As(err, &conflict):
		response.ErrorWithDetails(c, http.StatusConflict, response.CodeBookingConflict,
			"Equipment is already booked for the selected dates", gin.H{"conflicting_bookings": conflict.Conflicts})
	case errors.Is(err, ErrOverbooking):
		response.Error(c, http.StatusConflict, response.CodeBookingConflict, "Equipment is already booked for the selected dates")
	case errors.Is(err, ErrValidation):
		response.Error(c, http.StatusBadRequest, response.CodeValidation, validationMessage(err))
	case errors.Is(err, ErrNotFound):
		response.Error(c, http.StatusNotFound, response.CodeNotFound, "Booking not found")
	case errors.Is(err, ErrEquipmentNotFound):
		response.Error(c, http.StatusNotFound, response.CodeNotFound, "Equipment not found")
	case errors.Is(err, ErrForbidden):
		response.Error(c, http.StatusForbidden, response.CodeForbidden, "Not allowed for this booking")
	case errors.Is(err, ErrInvalidState), errors.Is(err, ErrInvalidStatusTransition):
		response.Error(c, http.StatusConflict, response.CodeInvalidState, "Booking status does not allow this action")
	case errors.Is(err, ErrNoProposal):
		response.Error(c, http.StatusConflict, response.CodeInvalidState, "Booking has no date proposal")
	case errors.Is(err, ErrEquipmentUnavailable):
		response.Error(c, http.StatusConflict, response.CodeConflict, "Equipment is not available for booking")
	case errors.Is(err, ErrTransient):
		h.logger.Error().Err(err).Msg("booking storage unavailable")
		response.Error(c, http.StatusServiceUnavailable, response.CodeServiceUnavailable, "Try again later")
	default:
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, response.CodeInternal, "Internal error")
	}
}

func validationMessage(err error) string {
	return strings.TrimPrefix(err.Error(), ErrValidation.Error()+": ")
}
