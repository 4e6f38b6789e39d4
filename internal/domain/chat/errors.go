package chat

import "errors"

var (
	ErrConversationNotFound = errors.New("conversation not found")
	ErrNotParticipant       = errors.New("user is not a participant of this conversation")
	ErrCannotChatSelf       = errors.New("cannot start a conversation about your own equipment")
	ErrEmptyMessage         = errors.New("message body is empty")
	ErrMessageTooLong       = errors.New("message body is too long")
	ErrEquipmentNotFound    = errors.New("equipment not found")
)
