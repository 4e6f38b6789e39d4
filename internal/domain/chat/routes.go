package chat

import "github.com/gin-gonic/gin"

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	conv := r.Group("/conversations")
	{
		conv.POST("", h.StartConversation)
		conv.GET("", h.ListConversations)
		conv.GET("/:id/messages", h.ListMessages)
		conv.POST("/:id/messages", h.SendMessage)
		conv.POST("/:id/read", h.MarkRead)
		conv.POST("/:id/typing", h.Typing)
		conv.GET("/:id/typing", h.TypingStatus)
	}
}
