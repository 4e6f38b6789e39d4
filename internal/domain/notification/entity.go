package notification

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	TypeBookingRequested   Type = "booking_requested"
	TypeBookingConfirmed   Type = "booking_confirmed"
	TypeBookingRejected    Type = "booking_rejected"
	TypeBookingCancelled   Type = "booking_cancelled"
	TypeBookingRescheduled Type = "booking_rescheduled"
	TypeDatesProposed      Type = "booking_dates_proposed"
	TypeHandedOver         Type = "booking_handed_over"
	TypeBookingCompleted   Type = "booking_completed"
	TypePaymentReceived    Type = "payment_received"
	TypePaymentConfirmed   Type = "payment_confirmed"
	TypeNewMessage         Type = "new_message"
	TypeNewReview          Type = "new_review"
)

type Notification struct {
	ID        uuid.UUID       `json:"id"`
	UserID    uuid.UUID       `json:"user_id"`
	Type      Type            `json:"type"`
	Title     string          `json:"title"`
	Body      string          `json:"body,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	ReadAt    *time.Time      `json:"read_at,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

func (n *Notification) IsRead() bool { return n.ReadAt != nil }

type notificationModel struct {
	ID        uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	UserID    uuid.UUID  `gorm:"column:user_id;type:uuid;not null;index:idx_notifications_user_created,priority:1"`
	Type      string     `gorm:"column:type;type:varchar(32);not null"`
	Title     string     `gorm:"column:title;not null"`
	Body      *string    `gorm:"column:body;type:text"`
	Data      *string    `gorm:"column:data;type:text"`
	ReadAt    *time.Time `gorm:"column:read_at;index"`
	CreatedAt time.Time  `gorm:"column:created_at;index:idx_notifications_user_created,priority:2"`
}

func (notificationModel) TableName() string { return "notifications" }

// Model exposes the persistence model for migrations.
func Model() any { return &notificationModel{} }

func toDomain(m notificationModel) Notification {
	n := Notification{
		ID:        m.ID,
		UserID:    m.UserID,
		Type:      Type(m.Type),
		Title:     m.Title,
		ReadAt:    m.ReadAt,
		CreatedAt: m.CreatedAt.UTC(),
	}
	if m.Body != nil {
		n.Body = *m.Body
	}
	if m.Data != nil && *m.Data != "" {
		n.Data = json.RawMessage(*m.Data)
	}
	return n
}

func toModel(n *Notification) notificationModel {
	m := notificationModel{
		ID:        n.ID,
		UserID:    n.UserID,
		Type:      string(n.Type),
		Title:     n.Title,
		ReadAt:    n.ReadAt,
		CreatedAt: n.CreatedAt,
	}
	if n.Body != "" {
		body := n.Body
		m.Body = &body
	}
	if len(n.Data) > 0 {
		data := string(n.Data)
		m.Data = &data
	}
	return m
}
