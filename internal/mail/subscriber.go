package mail

import (
	"context"
	"time"

	"equiprent/internal/events"

	"github.com/rs/zerolog"
)

const sendTimeout = 15 * time.Second

// Notifier emails renters about owner decisions on their bookings.
type Notifier struct {
	dispatcher Dispatcher
	logger     zerolog.Logger
}

func NewNotifier(dispatcher Dispatcher, logger zerolog.Logger) *Notifier {
	return &Notifier{
		dispatcher: dispatcher,
		logger:     logger.With().Str("component", "mail").Logger(),
	}
}

func (n *Notifier) Subscribe(bus *events.Bus) {
	bus.Subscribe(events.BookingRejected, n.handler(TemplateBookingRejected))
	bus.Subscribe(events.BookingDatesProposed, n.handler(TemplateBookingDatesProposed))
	bus.Subscribe(events.BookingConfirmed, n.handler(TemplateBookingConfirmed))
}

func (n *Notifier) handler(tmpl string) events.Handler {
	return func(event *events.Event) error {
		var p events.BookingPayload
		if err := event.Decode(&p); err != nil {
			return err
		}
		if p.RenterEmail == "" {
			n.logger.Warn().Str("booking_id", p.BookingID.String()).Str("event", event.Type).Msg("renter has no email, skipping")
			return nil
		}
		subject, body, err := Render(tmpl, p)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		defer cancel()
		if err := n.dispatcher.Send(ctx, Message{To: p.RenterEmail, ToName: p.RenterName, Subject: subject, Body: body}); err != nil {
			return err
		}
		n.logger.Info().Str("booking_id", p.BookingID.String()).Str("template", tmpl).Msg("email sent")
		return nil
	}
}
