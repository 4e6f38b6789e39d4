package chat

import (
	"errors"
	"net/http"
	"strconv"
	"time"

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

// StartConversation opens (or returns) the thread about an equipment item.
// @Summary		Start conversation
// @Tags		Chat
// @Security	BearerAuth
// @Param		request	body	StartConversationRequest	true	"Equipment to ask about"
// @Success		200	{object}	map[string]interface{}
// @Router		/conversations [post]
func (h *Handler) StartConversation(c *gin.Context) {
	userID, ok := middleware.MustUserID(c)
	if !ok {
		return
	}
	var req StartConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeValidation, "equipment_id is required")
		return
	}

	conv, err := h.svc.StartConversation(c.Request.Context(), userID, req.EquipmentID)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, conv)
}

func (h *Handler) ListConversations(c *gin.Context) {
	userID, ok := middleware.MustUserID(c)
	if !ok {
		return
	}
	items, err := h.svc.ListConversations(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"items": items})
}

// ListMessages pages backwards with ?before=<RFC3339>&limit=.
func (h *Handler) ListMessages(c *gin.Context) {
	userID, convID, ok := h.identify(c)
	if !ok {
		return
	}

	var before *time.Time
	if raw := c.Query("before"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			response.Error(c, http.StatusBadRequest, response.CodeValidation, "before must be RFC3339")
			return
		}
		before = &t
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	msgs, err := h.svc.ListMessages(c.Request.Context(), userID, convID, before, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"items": msgs})
}

func (h *Handler) SendMessage(c *gin.Context) {
	userID, convID, ok := h.identify(c)
	if !ok {
		return
	}
	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeValidation, "body is required")
		return
	}

	msg, err := h.svc.SendMessage(c.Request.Context(), userID, convID, req.Body)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, msg)
}

func (h *Handler) MarkRead(c *gin.Context) {
	userID, convID, ok := h.identify(c)
	if !ok {
		return
	}
	n, err := h.svc.MarkRead(c.Request.Context(), userID, convID)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"marked": n})
}

func (h *Handler) Typing(c *gin.Context) {
	userID, convID, ok := h.identify(c)
	if !ok {
		return
	}
	if err := h.svc.Typing(c.Request.Context(), userID, convID); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) TypingStatus(c *gin.Context) {
	userID, convID, ok := h.identify(c)
	if !ok {
		return
	}
	typing, err := h.svc.OtherTyping(c.Request.Context(), userID, convID)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"typing": typing})
}

func (h *Handler) identify(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	userID, ok := middleware.MustUserID(c)
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	convID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeValidation, "Invalid conversation id")
		return uuid.Nil, uuid.Nil, false
	}
	return userID, convID, true
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrConversationNotFound):
		response.Error(c, http.StatusNotFound, response.CodeNotFound, "Conversation not found")
	case errors.Is(err, ErrEquipmentNotFound):
		response.Error(c, http.StatusNotFound, response.CodeNotFound, "Equipment not found")
	case errors.Is(err, ErrNotParticipant):
		response.Error(c, http.StatusForbidden, response.CodeForbidden, "Access denied")
	case errors.Is(err, ErrCannotChatSelf), errors.Is(err, ErrEmptyMessage), errors.Is(err, ErrMessageTooLong):
		response.Error(c, http.StatusBadRequest, response.CodeValidation, err.Error())
	default:
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, response.CodeInternal, "Internal error")
	}
}
