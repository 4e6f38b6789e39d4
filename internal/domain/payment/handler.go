package payment

import (
	"errors"
	"io"
	"net/http"

	"equiprent/internal/domain/booking"
	"equiprent/internal/middleware"
	"equiprent/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const maxWebhookBytes = int64(65536)

type Handler struct {
	svc    *Service
	logger zerolog.Logger
}

func NewHandler(svc *Service, logger zerolog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// Checkout opens a gateway session for the renter's confirmed booking.
// @Summary		Start checkout
// @Tags		Payments
// @Security	BearerAuth
// @Param		id	path	string	true	"Booking ID"
// @Success		201	{object}	map[string]interface{}
// @Failure		409	{object}	map[string]interface{}
// @Router		/bookings/{id}/checkout [post]
func (h *Handler) Checkout(c *gin.Context) {
	userID, ok := middleware.MustUserID(c)
	if !ok {
		return
	}
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeValidation, "Invalid booking id")
		return
	}

	res, err := h.svc.Checkout(c.Request.Context(), userID, bookingID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, res)
}

func (h *Handler) Verify(c *gin.Context) {
	userID, ok := middleware.MustUserID(c)
	if !ok {
		return
	}
	paymentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeValidation, "Invalid payment id")
		return
	}

	p, err := h.svc.Verify(c.Request.Context(), userID, paymentID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, p)
}

// Webhook receives signed gateway notifications.
func (h *Handler) Webhook(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBytes)
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeValidation, "Error reading request body")
		return
	}

	if err := h.svc.HandleWebhook(c.Request.Context(), payload, c.GetHeader("Stripe-Signature")); err != nil {
		if errors.Is(err, ErrInvalidSignature) {
			h.logger.Warn().Err(err).Msg("rejected webhook")
			response.Error(c, http.StatusBadRequest, response.CodeValidation, "Invalid signature")
			return
		}
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusOK)
}

func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, booking.ErrNotFound):
		response.Error(c, http.StatusNotFound, response.CodeNotFound, "Not found")
	case errors.Is(err, ErrForbidden):
		response.Error(c, http.StatusForbidden, response.CodeForbidden, "Forbidden")
	case errors.Is(err, ErrNotPayable):
		response.Error(c, http.StatusConflict, response.CodeInvalidState, err.Error())
	case errors.Is(err, ErrGatewayUnavailable):
		response.Error(c, http.StatusServiceUnavailable, response.CodeServiceUnavailable, err.Error())
	default:
		h.logger.Error().Err(err).Str("path", c.FullPath()).Msg("payment request failed")
		response.Error(c, http.StatusBadGateway, response.CodeInternal, "Payment provider error")
	}
}
