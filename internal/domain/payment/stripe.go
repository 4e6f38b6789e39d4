package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go"
	"github.com/stripe/stripe-go/client"
	"github.com/stripe/stripe-go/webhook"
)

const (
	EventIntentSucceeded = "payment_intent.succeeded"
	EventIntentFailed    = "payment_intent.payment_failed"
)

type StripeGateway struct {
	api           *client.API
	webhookSecret string
}

func NewStripeGateway(secretKey, webhookSecret string) *StripeGateway {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &StripeGateway{api: api, webhookSecret: webhookSecret}
}

// CreateSession opens a PaymentIntent. The payment id doubles as the
// idempotency key so a retried checkout returns the same intent.
func (g *StripeGateway) CreateSession(ctx context.Context, req SessionRequest) (Session, error) {
	params := &stripe.PaymentIntentParams{
		Amount:      stripe.Int64(req.Amount),
		Currency:    stripe.String(strings.ToLower(req.Currency)),
		Description: stripe.String(req.Description),
	}
	params.Context = ctx
	params.SetIdempotencyKey(req.PaymentID.String())
	params.AddMetadata("payment_id", req.PaymentID.String())
	params.AddMetadata("booking_id", req.BookingID.String())

	pi, err := g.api.PaymentIntents.New(params)
	if err != nil {
		return Session{}, fmt.Errorf("create payment intent: %w", err)
	}
	return Session{ID: pi.ID, ClientSecret: pi.ClientSecret, Status: mapIntentStatus(pi.Status)}, nil
}

func (g *StripeGateway) SessionStatus(ctx context.Context, sessionID string) (SessionStatus, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	pi, err := g.api.PaymentIntents.Get(sessionID, params)
	if err != nil {
		return "", fmt.Errorf("get payment intent: %w", err)
	}
	return mapIntentStatus(pi.Status), nil
}

func (g *StripeGateway) ParseWebhook(payload []byte, signature string) (WebhookEvent, error) {
	event, err := webhook.ConstructEvent(payload, signature, g.webhookSecret)
	if err != nil {
		return WebhookEvent{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	out := WebhookEvent{Type: event.Type}
	if event.Type != EventIntentSucceeded && event.Type != EventIntentFailed {
		return out, nil
	}
	if event.Data == nil {
		return WebhookEvent{}, fmt.Errorf("webhook %s has no data", event.Type)
	}

	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		return WebhookEvent{}, fmt.Errorf("decode payment intent: %w", err)
	}
	out.SessionID = pi.ID
	out.Status = mapIntentStatus(pi.Status)
	if event.Type == EventIntentFailed {
		out.Status = SessionFailed
		if pi.LastPaymentError != nil {
			out.Reason = pi.LastPaymentError.Msg
		}
	}
	return out, nil
}

// Refund returns the full charge. Repeated calls for one intent share an
// idempotency key, so concurrent settle attempts refund once.
func (g *StripeGateway) Refund(ctx context.Context, sessionID string) error {
	params := &stripe.RefundParams{PaymentIntent: stripe.String(sessionID)}
	params.Context = ctx
	params.SetIdempotencyKey("refund-" + sessionID)
	if _, err := g.api.Refunds.New(params); err != nil {
		return fmt.Errorf("create refund: %w", err)
	}
	return nil
}

func mapIntentStatus(s stripe.PaymentIntentStatus) SessionStatus {
	switch s {
	case stripe.PaymentIntentStatusSucceeded:
		return SessionSucceeded
	case stripe.PaymentIntentStatusCanceled:
		return SessionFailed
	default:
		return SessionPending
	}
}
