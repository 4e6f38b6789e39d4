package payment

import (
	"context"

	"github.com/google/uuid"
)

// SessionStatus is the gateway-side state of a charge.
type SessionStatus string

const (
	SessionPending   SessionStatus = "pending"
	SessionSucceeded SessionStatus = "succeeded"
	SessionFailed    SessionStatus = "failed"
)

type SessionRequest struct {
	PaymentID   uuid.UUID
	BookingID   uuid.UUID
	Amount      int64
	Currency    string
	Description string
}

type Session struct {
	ID           string
	ClientSecret string
	Status       SessionStatus
}

type WebhookEvent struct {
	Type      string
	SessionID string
	Status    SessionStatus
	Reason    string
}

// Gateway is a hosted payment provider.
type Gateway interface {
	CreateSession(ctx context.Context, req SessionRequest) (Session, error)
	SessionStatus(ctx context.Context, sessionID string) (SessionStatus, error)
	ParseWebhook(payload []byte, signature string) (WebhookEvent, error)
	Refund(ctx context.Context, sessionID string) error
}
