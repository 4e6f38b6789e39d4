package chat

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"equiprent/internal/domain/equipment"
	"equiprent/internal/events"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const maxBodyLength = 4000

type EquipmentReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*equipment.Equipment, error)
}

type Service struct {
	repo      Repository
	equipment EquipmentReader
	typing    TypingTracker
	events    events.Publisher
	logger    zerolog.Logger
}

func NewService(repo Repository, eq EquipmentReader, typing TypingTracker, pub events.Publisher, logger zerolog.Logger) *Service {
	if pub == nil {
		pub = events.Nop{}
	}
	return &Service{
		repo:      repo,
		equipment: eq,
		typing:    typing,
		events:    pub,
		logger:    logger.With().Str("component", "chat").Logger(),
	}
}

// StartConversation returns the renter's thread with the owner of the item,
// creating it on first contact.
func (s *Service) StartConversation(ctx context.Context, userID, equipmentID uuid.UUID) (*Conversation, error) {
	eq, err := s.equipment.GetByID(ctx, equipmentID)
	if errors.Is(err, equipment.ErrNotFound) {
		return nil, ErrEquipmentNotFound
	}
	if err != nil {
		return nil, err
	}
	if eq.OwnerID == userID {
		return nil, ErrCannotChatSelf
	}
	return s.repo.GetOrCreateConversation(ctx, eq.ID, userID, eq.OwnerID)
}

func (s *Service) ListConversations(ctx context.Context, userID uuid.UUID) ([]ConversationSummary, error) {
	return s.repo.ListConversations(ctx, userID)
}

func (s *Service) ListMessages(ctx context.Context, userID, conversationID uuid.UUID, before *time.Time, limit int) ([]Message, error) {
	if _, err := s.participant(ctx, userID, conversationID); err != nil {
		return nil, err
	}
	return s.repo.ListMessages(ctx, conversationID, before, limit)
}

func (s *Service) SendMessage(ctx context.Context, senderID, conversationID uuid.UUID, body string) (*Message, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, ErrEmptyMessage
	}
	if utf8.RuneCountInString(body) > maxBodyLength {
		return nil, ErrMessageTooLong
	}

	conv, err := s.participant(ctx, senderID, conversationID)
	if err != nil {
		return nil, err
	}

	msg := &Message{
		ConversationID: conv.ID,
		SenderID:       senderID,
		Body:           body,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.repo.CreateMessage(ctx, msg); err != nil {
		return nil, err
	}

	if err := s.events.PublishJSON(events.MessageCreated, events.MessagePayload{
		MessageID:      msg.ID,
		ConversationID: conv.ID,
		SenderID:       senderID,
		RecipientID:    conv.Other(senderID),
		Body:           msg.Body,
		CreatedAt:      msg.CreatedAt,
	}); err != nil {
		s.logger.Error().Err(err).Msg("publish message.created failed")
	}
	return msg, nil
}

func (s *Service) MarkRead(ctx context.Context, userID, conversationID uuid.UUID) (int64, error) {
	if _, err := s.participant(ctx, userID, conversationID); err != nil {
		return 0, err
	}
	return s.repo.MarkRead(ctx, conversationID, userID)
}

func (s *Service) Typing(ctx context.Context, userID, conversationID uuid.UUID) error {
	conv, err := s.participant(ctx, userID, conversationID)
	if err != nil {
		return err
	}
	return s.typing.Signal(ctx, conv, userID)
}

// OtherTyping reports whether the other participant is typing right now.
func (s *Service) OtherTyping(ctx context.Context, userID, conversationID uuid.UUID) (bool, error) {
	conv, err := s.participant(ctx, userID, conversationID)
	if err != nil {
		return false, err
	}
	return s.typing.IsTyping(ctx, conv.ID, conv.Other(userID))
}

// HandleTypingFrame accepts typing frames sent over the websocket.
func (s *Service) HandleTypingFrame(userID uuid.UUID, data json.RawMessage) {
	var in struct {
		ConversationID uuid.UUID `json:"conversation_id"`
	}
	if err := json.Unmarshal(data, &in); err != nil || in.ConversationID == uuid.Nil {
		return
	}
	if err := s.Typing(context.Background(), userID, in.ConversationID); err != nil {
		s.logger.Debug().Err(err).Str("user_id", userID.String()).Msg("typing frame ignored")
	}
}

func (s *Service) participant(ctx context.Context, userID, conversationID uuid.UUID) (*Conversation, error) {
	conv, err := s.repo.GetConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conv.IsParticipant(userID) {
		return nil, ErrNotParticipant
	}
	return conv, nil
}
