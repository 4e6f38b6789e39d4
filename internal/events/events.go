package events

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	BookingCreated       = "booking.created"
	BookingConfirmed     = "booking.confirmed"
	BookingRejected      = "booking.rejected"
	BookingCancelled     = "booking.cancelled"
	BookingDatesChanged  = "booking.dates_changed"
	BookingDatesProposed = "booking.dates_proposed"
	BookingHandedOver    = "booking.handed_over"
	BookingCompleted     = "booking.completed"
	PaymentSettled       = "payment.settled"
	MessageCreated       = "message.created"
	ReviewCreated        = "review.created"
)

// BookingPayload is the booking snapshot shipped with booking.* events.
type BookingPayload struct {
	BookingID         uuid.UUID  `json:"booking_id"`
	EquipmentID       uuid.UUID  `json:"equipment_id"`
	EquipmentTitle    string     `json:"equipment_title"`
	RenterID          uuid.UUID  `json:"renter_id"`
	RenterName        string     `json:"renter_name"`
	RenterEmail       string     `json:"renter_email"`
	OwnerID           uuid.UUID  `json:"owner_id"`
	OwnerName         string     `json:"owner_name"`
	OwnerEmail        string     `json:"owner_email"`
	Status            string     `json:"status"`
	StartDate         time.Time  `json:"start_date"`
	EndDate           time.Time  `json:"end_date"`
	ProposedStartDate *time.Time `json:"proposed_start_date,omitempty"`
	ProposedEndDate   *time.Time `json:"proposed_end_date,omitempty"`
	Reason            string     `json:"reason,omitempty"`
	ActorID           uuid.UUID  `json:"actor_id"`
}

type PaymentPayload struct {
	PaymentID uuid.UUID `json:"payment_id"`
	BookingID uuid.UUID `json:"booking_id"`
	RenterID  uuid.UUID `json:"renter_id"`
	OwnerID   uuid.UUID `json:"owner_id"`
	Amount    int64     `json:"amount"`
	Currency  string    `json:"currency"`
}

type MessagePayload struct {
	MessageID      uuid.UUID `json:"message_id"`
	ConversationID uuid.UUID `json:"conversation_id"`
	SenderID       uuid.UUID `json:"sender_id"`
	RecipientID    uuid.UUID `json:"recipient_id"`
	Body           string    `json:"body"`
	CreatedAt      time.Time `json:"created_at"`
}

type ReviewPayload struct {
	ReviewID  uuid.UUID `json:"review_id"`
	BookingID uuid.UUID `json:"booking_id"`
	AuthorID  uuid.UUID `json:"author_id"`
	SubjectID uuid.UUID `json:"subject_id"`
	Rating    int       `json:"rating"`
}

// Event is a domain event with a JSON payload.
type Event struct {
	Type      string
	Payload   []byte
	CreatedAt time.Time
}

// Decode unmarshals the payload into v.
func (e *Event) Decode(v any) error {
	return json.Unmarshal(e.Payload, v)
}

type Handler func(event *Event) error

// Publisher is what domain services depend on.
type Publisher interface {
	PublishJSON(eventType string, payload any) error
}

// Bus provides in-process pub/sub. Handlers run synchronously in
// subscription order; a failing handler does not stop the others.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[string][]Handler
	wildcard    []Handler
	logger      zerolog.Logger
}

func NewBus(logger zerolog.Logger) *Bus {
	return &Bus{
		subscribers: make(map[string][]Handler),
		logger:      logger.With().Str("component", "events").Logger(),
	}
}

func (b *Bus) Subscribe(eventType string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// SubscribeAll registers a handler for every event type.
func (b *Bus) SubscribeAll(handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.wildcard = append(b.wildcard, handler)
}

func (b *Bus) Publish(event *Event) {
	b.mu.RLock()
	handlers := append([]Handler(nil), b.subscribers[event.Type]...)
	handlers = append(handlers, b.wildcard...)
	b.mu.RUnlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}

	for _, handler := range handlers {
		if err := handler(event); err != nil {
			b.logger.Error().Err(err).Str("event", event.Type).Msg("event handler failed")
		}
	}
}

func (b *Bus) PublishJSON(eventType string, payload any) error {
	if b == nil {
		return nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	b.Publish(&Event{Type: eventType, Payload: raw, CreatedAt: time.Now().UTC()})
	return nil
}

// Nop discards every event.
type Nop struct{}

func (Nop) PublishJSON(string, any) error { return nil }
