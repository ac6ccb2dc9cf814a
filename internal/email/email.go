package email

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Domenick1991/airbooker/internal/kafka"
	kafkago "github.com/segmentio/kafka-go"
)

// Sender renders booking notifications. Delivery is a log line; there is no
// mail transport configured.
type Sender struct {
	log *slog.Logger
}

func NewSender(log *slog.Logger) *Sender {
	if log == nil {
		log = slog.Default()
	}
	return &Sender{log: log}
}

func (s *Sender) Send(ctx context.Context, event kafka.BookingEvent) error {
	if event.Email == "" {
		return nil
	}
	s.log.InfoContext(ctx, "send email",
		slog.String("to", event.Email),
		slog.String("subject", Subject(event)),
		slog.Int64("booking_id", event.BookingID),
	)
	return nil
}

// HandleMessage sends the notification for one consumed message. Messages
// that do not decode are logged and skipped so the consumer keeps going.
func (s *Sender) HandleMessage(ctx context.Context, msg kafkago.Message) error {
	event, err := kafka.DecodeBookingEvent(msg)
	if err != nil {
		s.log.WarnContext(ctx, "skip message",
			slog.String("topic", msg.Topic),
			slog.Int64("offset", msg.Offset),
			slog.String("error", err.Error()),
		)
		return nil
	}
	return s.Send(ctx, event)
}

func Subject(event kafka.BookingEvent) string {
	switch event.Type {
	case kafka.EventBookingCreated:
		return fmt.Sprintf("Booking %d confirmed on flight %s", event.BookingID, event.FlightNumber)
	case kafka.EventBookingCancelled:
		return fmt.Sprintf("Booking %d on flight %s cancelled", event.BookingID, event.FlightNumber)
	default:
		return fmt.Sprintf("Update for booking %d", event.BookingID)
	}
}
