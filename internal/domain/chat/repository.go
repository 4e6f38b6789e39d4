package chat

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

type Repository interface {
	GetOrCreateConversation(ctx context.Context, equipmentID, renterID, ownerID uuid.UUID) (*Conversation, error)
	GetConversation(ctx context.Context, id uuid.UUID) (*Conversation, error)
	ListConversations(ctx context.Context, userID uuid.UUID) ([]ConversationSummary, error)
	CreateMessage(ctx context.Context, msg *Message) error
	// ListMessages returns messages newest first, older than before when set.
	ListMessages(ctx context.Context, conversationID uuid.UUID, before *time.Time, limit int) ([]Message, error)
	MarkRead(ctx context.Context, conversationID, readerID uuid.UUID) (int64, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetOrCreateConversation(ctx context.Context, equipmentID, renterID, ownerID uuid.UUID) (*Conversation, error) {
	var conv Conversation
	err := r.db.WithContext(ctx).
		Where("equipment_id = ? AND renter_id = ?", equipmentID, renterID).
		First(&conv).Error
	if err == nil {
		return &conv, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	conv = Conversation{EquipmentID: equipmentID, RenterID: renterID, OwnerID: ownerID}
	if err := r.db.WithContext(ctx).Create(&conv).Error; err != nil {
		if !isUniqueViolation(err) {
			return nil, err
		}
		// lost a race with a concurrent create
		if err := r.db.WithContext(ctx).
			Where("equipment_id = ? AND renter_id = ?", equipmentID, renterID).
			First(&conv).Error; err != nil {
			return nil, err
		}
	}
	return &conv, nil
}

func (r *repository) GetConversation(ctx context.Context, id uuid.UUID) (*Conversation, error) {
	var conv Conversation
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&conv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrConversationNotFound
	}
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

func (r *repository) ListConversations(ctx context.Context, userID uuid.UUID) ([]ConversationSummary, error) {
	var rows []ConversationSummary
	err := r.db.WithContext(ctx).
		Table("conversations").
		Select(`conversations.*, equipment.title AS equipment_title,
			(SELECT COUNT(*) FROM messages m
			  WHERE m.conversation_id = conversations.id
			    AND m.sender_id <> ? AND m.read_at IS NULL) AS unread_count`, userID).
		Joins("LEFT JOIN equipment ON equipment.id = conversations.equipment_id").
		Where("conversations.renter_id = ? OR conversations.owner_id = ?", userID, userID).
		Order("COALESCE(conversations.last_message_at, conversations.created_at) DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// CreateMessage stores the message and bumps the conversation's last activity.
func (r *repository) CreateMessage(ctx context.Context, msg *Message) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(msg).Error; err != nil {
			return err
		}
		return tx.Model(&Conversation{}).
			Where("id = ?", msg.ConversationID).
			Updates(map[string]any{"last_message_at": msg.CreatedAt, "updated_at": time.Now().UTC()}).Error
	})
}

func (r *repository) ListMessages(ctx context.Context, conversationID uuid.UUID, before *time.Time, limit int) ([]Message, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	q := r.db.WithContext(ctx).Where("conversation_id = ?", conversationID)
	if before != nil {
		q = q.Where("created_at < ?", before.UTC())
	}
	var msgs []Message
	if err := q.Order("created_at DESC").Limit(limit).Find(&msgs).Error; err != nil {
		return nil, err
	}
	return msgs, nil
}

// MarkRead marks every message from the other participant as read.
func (r *repository) MarkRead(ctx context.Context, conversationID, readerID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).Model(&Message{}).
		Where("conversation_id = ? AND sender_id <> ? AND read_at IS NULL", conversationID, readerID).
		Update("read_at", time.Now().UTC())
	return res.RowsAffected, res.Error
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint")
}
