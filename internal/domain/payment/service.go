package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"equiprent/internal/domain/booking"
	"equiprent/internal/domain/wallet"
	"equiprent/internal/events"
	"equiprent/internal/metrics"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

type BookingStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*booking.Booking, error)
	MarkPaidTx(tx *gorm.DB, id uuid.UUID) (*booking.Booking, error)
	MarkRefundedTx(tx *gorm.DB, id uuid.UUID) (*booking.Booking, error)
}

type Ledger interface {
	CreditTx(tx *gorm.DB, userID uuid.UUID, amount int64, reference string) (*wallet.Transaction, error)
	RefundTx(tx *gorm.DB, userID uuid.UUID, amount int64, reference string) (*wallet.Transaction, error)
}

type Service struct {
	db       *gorm.DB
	payments *PaymentRepository
	bookings BookingStore
	ledger   Ledger
	gateway  Gateway
	events   events.Publisher
	logger   zerolog.Logger
	provider string
}

// NewService wires payments. A nil gateway disables checkout and refunds
// through the provider.
func NewService(db *gorm.DB, bookings BookingStore, ledger Ledger, gateway Gateway, pub events.Publisher, logger zerolog.Logger) *Service {
	if pub == nil {
		pub = events.Nop{}
	}
	return &Service{
		db:       db,
		payments: NewPaymentRepository(db),
		bookings: bookings,
		ledger:   ledger,
		gateway:  gateway,
		events:   pub,
		logger:   logger.With().Str("component", "payment").Logger(),
		provider: "stripe",
	}
}

type CheckoutResult struct {
	Payment      *Payment `json:"payment"`
	ClientSecret string   `json:"client_secret"`
}

// Checkout opens a gateway session for a confirmed, unpaid booking. Repeating
// the call reuses the pending payment.
func (s *Service) Checkout(ctx context.Context, renterID, bookingID uuid.UUID) (*CheckoutResult, error) {
	if s.gateway == nil {
		return nil, ErrGatewayUnavailable
	}

	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.RenterID != renterID {
		return nil, ErrForbidden
	}
	if b.Status != booking.StatusConfirmed || b.PaymentStatus != booking.PaymentUnpaid {
		return nil, ErrNotPayable
	}

	p, err := s.payments.GetOpenByBooking(ctx, bookingID)
	if errors.Is(err, ErrNotFound) {
		p = &Payment{
			BookingID: b.ID,
			PayerID:   b.RenterID,
			PayeeID:   b.OwnerID,
			Amount:    b.TotalAmount,
			Currency:  b.Currency,
			Status:    StatusPending,
			Provider:  s.provider,
		}
		err = s.payments.Create(ctx, p)
	}
	if err != nil {
		return nil, err
	}

	session, err := s.gateway.CreateSession(ctx, SessionRequest{
		PaymentID:   p.ID,
		BookingID:   b.ID,
		Amount:      p.Amount,
		Currency:    p.Currency,
		Description: fmt.Sprintf("Equipment rental %s", b.ID),
	})
	if err != nil {
		s.logger.Error().Err(err).Str("payment_id", p.ID.String()).Msg("create session failed")
		return nil, err
	}
	if p.ProviderRef == nil || *p.ProviderRef != session.ID {
		if err := s.payments.SetProviderRef(ctx, p.ID, session.ID); err != nil {
			return nil, err
		}
		p.ProviderRef = &session.ID
	}

	return &CheckoutResult{Payment: p, ClientSecret: session.ClientSecret}, nil
}

// Verify polls the gateway and settles a succeeded payment.
func (s *Service) Verify(ctx context.Context, userID, paymentID uuid.UUID) (*Payment, error) {
	p, err := s.payments.GetByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if p.PayerID != userID && p.PayeeID != userID {
		return nil, ErrForbidden
	}
	if p.Status != StatusPending || p.ProviderRef == nil {
		return p, nil
	}
	if s.gateway == nil {
		return nil, ErrGatewayUnavailable
	}

	status, err := s.gateway.SessionStatus(ctx, *p.ProviderRef)
	if err != nil {
		return nil, err
	}
	switch status {
	case SessionSucceeded:
		if err := s.Settle(ctx, p.ID); err != nil {
			return nil, err
		}
	case SessionFailed:
		if err := s.payments.MarkFailed(ctx, p.ID, "declined by gateway"); err != nil {
			return nil, err
		}
	}
	return s.payments.GetByID(ctx, p.ID)
}

// HandleWebhook applies a signed gateway notification. Unknown event types and
// unknown intents are acknowledged without changes.
func (s *Service) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	if s.gateway == nil {
		return ErrGatewayUnavailable
	}
	event, err := s.gateway.ParseWebhook(payload, signature)
	if err != nil {
		return err
	}
	if event.SessionID == "" {
		return nil
	}

	p, err := s.payments.GetByProviderRef(ctx, event.SessionID)
	if errors.Is(err, ErrNotFound) {
		s.logger.Warn().Str("session_id", event.SessionID).Msg("webhook for unknown payment")
		return nil
	}
	if err != nil {
		return err
	}

	switch event.Status {
	case SessionSucceeded:
		return s.Settle(ctx, p.ID)
	case SessionFailed:
		reason := event.Reason
		if reason == "" {
			reason = "payment failed"
		}
		return s.payments.MarkFailed(ctx, p.ID, reason)
	}
	return nil
}

// Settle marks the payment paid, moves the booking forward and credits the
// owner once. Later calls are no-ops. A charge that lands after its booking
// was cancelled or rejected is refunded instead and the owner gets nothing.
func (s *Service) Settle(ctx context.Context, paymentID uuid.UUID) error {
	var settled *Payment
	closed := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := lockPayment(tx, paymentID)
		if err != nil {
			return err
		}
		if p.Status == StatusPaid || p.Status == StatusRefunded {
			return nil
		}

		if _, err := s.bookings.MarkPaidTx(tx, p.BookingID); errors.Is(err, booking.ErrBookingClosed) {
			closed = true
			return nil
		} else if err != nil {
			return err
		}

		now := time.Now().UTC()
		if err := tx.Model(&Payment{}).Where("id = ?", p.ID).Updates(map[string]any{
			"status":     StatusPaid,
			"paid_at":    now,
			"updated_at": now,
		}).Error; err != nil {
			return err
		}
		if _, err := s.ledger.CreditTx(tx, p.PayeeID, p.Amount, "payment:"+p.ID.String()); err != nil {
			return err
		}
		p.Status = StatusPaid
		p.PaidAt = &now
		settled = p
		return nil
	})
	if err != nil {
		return err
	}
	if closed {
		return s.returnLateCharge(ctx, paymentID)
	}
	if settled == nil {
		return nil
	}

	metrics.IncPaymentSettled()
	s.logger.Info().Str("payment_id", settled.ID.String()).Str("booking_id", settled.BookingID.String()).Msg("payment settled")
	if err := s.events.PublishJSON(events.PaymentSettled, events.PaymentPayload{
		PaymentID: settled.ID,
		BookingID: settled.BookingID,
		RenterID:  settled.PayerID,
		OwnerID:   settled.PayeeID,
		Amount:    settled.Amount,
		Currency:  settled.Currency,
	}); err != nil {
		s.logger.Error().Err(err).Msg("publish payment.settled failed")
	}
	return nil
}

// returnLateCharge refunds a charge whose booking closed before it settled.
// The gateway refund goes first: if it fails the payment stays pending and
// the next webhook or verify retries.
func (s *Service) returnLateCharge(ctx context.Context, paymentID uuid.UUID) error {
	p, err := s.payments.GetByID(ctx, paymentID)
	if err != nil {
		return err
	}
	log := s.logger.With().Str("payment_id", p.ID.String()).Str("booking_id", p.BookingID.String()).Logger()
	if s.gateway == nil || p.ProviderRef == nil {
		log.Error().Msg("charge for closed booking cannot be returned through the gateway")
		return ErrGatewayUnavailable
	}
	if err := s.gateway.Refund(ctx, *p.ProviderRef); err != nil {
		log.Error().Err(err).Msg("refund of charge for closed booking failed")
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		locked, err := lockPayment(tx, p.ID)
		if err != nil {
			return err
		}
		if locked.Status == StatusPaid || locked.Status == StatusRefunded {
			return nil
		}
		if _, err := s.bookings.MarkRefundedTx(tx, locked.BookingID); err != nil {
			return err
		}
		now := time.Now().UTC()
		return tx.Model(&Payment{}).Where("id = ?", locked.ID).Updates(map[string]any{
			"status":      StatusRefunded,
			"paid_at":     now,
			"refunded_at": now,
			"updated_at":  now,
		}).Error
	})
	if err != nil {
		return err
	}
	log.Warn().Msg("charge for closed booking refunded")
	return nil
}

// RefundBooking reverses the settled payment of a booking: the owner's wallet
// is debited, booking and payment are flagged refunded, and the gateway is
// asked to return the charge.
func (s *Service) RefundBooking(ctx context.Context, bookingID uuid.UUID) error {
	p, err := s.payments.GetPaidByBooking(ctx, bookingID)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	refunded := false
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		locked, err := lockPayment(tx, p.ID)
		if err != nil {
			return err
		}
		if locked.Status != StatusPaid {
			return nil
		}
		if _, err := s.ledger.RefundTx(tx, locked.PayeeID, locked.Amount, "refund:"+locked.ID.String()); err != nil {
			if errors.Is(err, wallet.ErrInsufficientFunds) {
				s.logger.Error().Str("payment_id", locked.ID.String()).Str("owner_id", locked.PayeeID.String()).
					Msg("owner balance too low for refund, needs manual review")
			}
			return err
		}
		if _, err := s.bookings.MarkRefundedTx(tx, locked.BookingID); err != nil {
			return err
		}
		now := time.Now().UTC()
		refunded = true
		return tx.Model(&Payment{}).Where("id = ?", locked.ID).Updates(map[string]any{
			"status":      StatusRefunded,
			"refunded_at": now,
			"updated_at":  now,
		}).Error
	})
	if err != nil || !refunded {
		return err
	}

	if s.gateway != nil && p.ProviderRef != nil {
		if err := s.gateway.Refund(ctx, *p.ProviderRef); err != nil {
			s.logger.Error().Err(err).Str("payment_id", p.ID.String()).Msg("gateway refund failed")
			return err
		}
	}
	s.logger.Info().Str("payment_id", p.ID.String()).Msg("payment refunded")
	return nil
}

// Subscribe refunds paid bookings when they are cancelled.
func (s *Service) Subscribe(bus *events.Bus) {
	bus.Subscribe(events.BookingCancelled, func(e *events.Event) error {
		var payload events.BookingPayload
		if err := e.Decode(&payload); err != nil {
			return err
		}
		return s.RefundBooking(context.Background(), payload.BookingID)
	})
}
