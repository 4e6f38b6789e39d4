package notification

import (
	"context"
	"fmt"
	"strings"
	"time"

	"equiprent/internal/events"

	"github.com/google/uuid"
)

const (
	dateLayout    = "2006-01-02"
	previewLength  = 120
)

// Subscribe turns domain events into notifications for the affected users.
func (s *Service) Subscribe(bus *events.Bus) {
	bus.Subscribe(events.BookingCreated, s.bookingHandler(func(p events.BookingPayload) []note {
		return []note{{p.OwnerID, TypeBookingRequested, "New booking request",
			fmt.Sprintf("%s wants to rent %s from %s to %s", p.RenterName, p.EquipmentTitle, day(p.StartDate), day(p.EndDate))}}
	}))
	bus.Subscribe(events.BookingConfirmed, s.bookingHandler(func(p events.BookingPayload) []note {
		return []note{{p.RenterID, TypeBookingConfirmed, "Booking confirmed",
			fmt.Sprintf("Your booking of %s was confirmed", p.EquipmentTitle)}}
	}))
	bus.Subscribe(events.BookingRejected, s.bookingHandler(func(p events.BookingPayload) []note {
		body := fmt.Sprintf("Your booking of %s was rejected", p.EquipmentTitle)
		if p.Reason != "" {
			body += ": " + p.Reason
		}
		return []note{{p.RenterID, TypeBookingRejected, "Booking rejected", body}}
	}))
	bus.Subscribe(events.BookingCancelled, s.bookingHandler(func(p events.BookingPayload) []note {
		recipient := p.OwnerID
		if p.ActorID == p.OwnerID {
			recipient = p.RenterID
		}
		body := fmt.Sprintf("The booking of %s from %s was cancelled", p.EquipmentTitle, day(p.StartDate))
		if p.Reason != "" {
			body += ": " + p.Reason
		}
		return []note{{recipient, TypeBookingCancelled, "Booking cancelled", body}}
	}))
	bus.Subscribe(events.BookingDatesChanged, s.bookingHandler(func(p events.BookingPayload) []note {
		recipient := p.OwnerID
		if p.ActorID == p.OwnerID {
			recipient = p.RenterID
		}
		return []note{{recipient, TypeBookingRescheduled, "Booking dates changed",
			fmt.Sprintf("%s is now booked from %s to %s", p.EquipmentTitle, day(p.StartDate), day(p.EndDate))}}
	}))
	bus.Subscribe(events.BookingDatesProposed, s.bookingHandler(func(p events.BookingPayload) []note {
		body := fmt.Sprintf("The owner of %s proposed other dates", p.EquipmentTitle)
		if p.ProposedStartDate != nil && p.ProposedEndDate != nil {
			body = fmt.Sprintf("The owner of %s proposed %s to %s", p.EquipmentTitle, day(*p.ProposedStartDate), day(*p.ProposedEndDate))
		}
		return []note{{p.RenterID, TypeDatesProposed, "New dates proposed", body}}
	}))
	bus.Subscribe(events.BookingHandedOver, s.bookingHandler(func(p events.BookingPayload) []note {
		return []note{{p.RenterID, TypeHandedOver, "Equipment handed over",
			fmt.Sprintf("%s is marked as handed over to you", p.EquipmentTitle)}}
	}))
	bus.Subscribe(events.BookingCompleted, s.bookingHandler(func(p events.BookingPayload) []note {
		body := fmt.Sprintf("The rental of %s is completed. You can now leave a review", p.EquipmentTitle)
		return []note{
			{p.RenterID, TypeBookingCompleted, "Rental completed", body},
			{p.OwnerID, TypeBookingCompleted, "Rental completed", body},
		}
	}))

	bus.Subscribe(events.PaymentSettled, func(e *events.Event) error {
		var p events.PaymentPayload
		if err := e.Decode(&p); err != nil {
			return err
		}
		data := map[string]any{"booking_id": p.BookingID, "payment_id": p.PaymentID}
		amount := money(p.Amount, p.Currency)
		ctx := context.Background()
		if _, err := s.Create(ctx, p.OwnerID, TypePaymentReceived, "Payment received",
			fmt.Sprintf("%s was credited to your wallet", amount), data); err != nil {
			return err
		}
		_, err := s.Create(ctx, p.RenterID, TypePaymentConfirmed, "Payment confirmed",
			fmt.Sprintf("Your payment of %s went through", amount), data)
		return err
	})

	bus.Subscribe(events.MessageCreated, func(e *events.Event) error {
		var p events.MessagePayload
		if err := e.Decode(&p); err != nil {
			return err
		}
		_, err := s.Create(context.Background(), p.RecipientID, TypeNewMessage, "New message", preview(p.Body),
			map[string]any{"conversation_id": p.ConversationID, "message_id": p.MessageID, "sender_id": p.SenderID})
		return err
	})

	bus.Subscribe(events.ReviewCreated, func(e *events.Event) error {
		var p events.ReviewPayload
		if err := e.Decode(&p); err != nil {
			return err
		}
		_, err := s.Create(context.Background(), p.SubjectID, TypeNewReview, "New review",
			fmt.Sprintf("You received a %d star review", p.Rating),
			map[string]any{"review_id": p.ReviewID, "booking_id": p.BookingID, "rating": p.Rating})
		return err
	})
}

type note struct {
	userID uuid.UUID
	kind   Type
	title  string
	body   string
}

func (s *Service) bookingHandler(build func(events.BookingPayload) []note) events.Handler {
	return func(e *events.Event) error {
		var p events.BookingPayload
		if err := e.Decode(&p); err != nil {
			return err
		}
		data := map[string]any{"booking_id": p.BookingID, "equipment_id": p.EquipmentID}
		for _, n := range build(p) {
			if n.userID == uuid.Nil {
				continue
			}
			if _, err := s.Create(context.Background(), n.userID, n.kind, n.title, n.body, data); err != nil {
				return err
			}
		}
		return nil
	}
}

func day(t time.Time) string {
	return t.Format(dateLayout)
}

func money(minor int64, currency string) string {
	return fmt.Sprintf("%d.%02d %s", minor/100, minor%100, strings.ToUpper(currency))
}

func preview(body string) string {
	r := []rune(body)
	if len(r) <= previewLength {
		return body
	}
	return string(r[:previewLength]) + "..."
}
