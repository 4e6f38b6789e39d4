package chat

import "github.com/google/uuid"

type StartConversationRequest struct {
	EquipmentID uuid.UUID `json:"equipment_id" binding:"required"`
}

type SendMessageRequest struct {
	Body string `json:"body" binding:"required"`
}
