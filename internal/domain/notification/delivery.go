package notification

import (
	"context"

	"equiprent/internal/realtime"

	"github.com/google/uuid"
)

const FrameNotification = "notification"

// Delivery pushes a freshly stored notification to its recipient.
type Delivery interface {
	Deliver(ctx context.Context, userID uuid.UUID, n Notification) error
}

type Pusher interface {
	SendToUser(userID uuid.UUID, frame realtime.Frame) bool
}

// RealtimeDelivery sends notifications over open websockets. Offline users
// pick them up from the list endpoint.
type RealtimeDelivery struct {
	pusher Pusher
}

func NewRealtimeDelivery(p Pusher) *RealtimeDelivery {
	return &RealtimeDelivery{pusher: p}
}

func (d *RealtimeDelivery) Deliver(_ context.Context, userID uuid.UUID, n Notification) error {
	d.pusher.SendToUser(userID, realtime.Frame{Type: FrameNotification, Payload: n})
	return nil
}

// PollingDelivery does nothing; clients poll GET /notifications?after=.
type PollingDelivery struct{}

func (PollingDelivery) Deliver(context.Context, uuid.UUID, Notification) error { return nil }
