package reservation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/Domenick1991/airbooker/internal/domain"
	"github.com/Domenick1991/airbooker/internal/kafka"
	"github.com/Domenick1991/airbooker/internal/repository"
	"github.com/google/uuid"
)

// BookFlight reserves one seat and returns the new booking id.
//
// The seat check, the booking insert and the seat decrement share one
// transaction. The storage serializes transactions on the flight row, so the
// check cannot go stale before the decrement commits.
func (e *Engine) BookFlight(ctx context.Context, flightID int64, passengerName, passengerEmail string) (int64, error) {
	passengerName = strings.TrimSpace(passengerName)
	passengerEmail = strings.TrimSpace(passengerEmail)
	if passengerName == "" {
		return 0, fmt.Errorf("%w: passenger name is required", domain.ErrInvalidInput)
	}
	if passengerEmail == "" {
		return 0, fmt.Errorf("%w: passenger email is required", domain.ErrInvalidInput)
	}

	tx, err := e.storage.Begin(ctx)
	if err != nil {
		return 0, e.storageFailure(ctx, "begin booking", err)
	}
	txCtx := repository.ContextWithTx(ctx, tx)

	flight, err := tx.GetFlightByID(txCtx, flightID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return 0, e.rollback(ctx, tx, fmt.Errorf("%w: %d", domain.ErrFlightNotFound, flightID))
		}
		return 0, e.rollback(ctx, tx, e.storageFailure(ctx, "get flight", err))
	}
	if !flight.HasSeats() {
		return 0, e.rollback(ctx, tx, fmt.Errorf("%w: flight %s", domain.ErrNoSeatsAvailable, flight.FlightNumber))
	}

	booking := &domain.Booking{
		FlightID:       flight.ID,
		PassengerName:  passengerName,
		PassengerEmail: passengerEmail,
	}
	if err := tx.CreateBooking(txCtx, booking); err != nil {
		if errors.Is(err, repository.ErrForeignKey) {
			return 0, e.rollback(ctx, tx, fmt.Errorf("%w: %d", domain.ErrFlightNotFound, flightID))
		}
		return 0, e.rollback(ctx, tx, e.storageFailure(ctx, "create booking", err))
	}

	if err := tx.AdjustSeats(txCtx, flight.ID, -1); err != nil {
		if errors.Is(err, repository.ErrSeatBounds) {
			return 0, e.rollback(ctx, tx, fmt.Errorf("%w: flight %s", domain.ErrNoSeatsAvailable, flight.FlightNumber))
		}
		return 0, e.rollback(ctx, tx, e.storageFailure(ctx, "reserve seat", err))
	}

	if err := tx.Commit(txCtx); err != nil {
		return 0, e.storageFailure(ctx, "commit booking", err)
	}

	e.log.InfoContext(ctx, "booking created",
		slog.Int64("booking_id", booking.ID),
		slog.Int64("flight_id", flight.ID),
	)
	booking.FlightNumber = flight.FlightNumber
	e.afterCommit(ctx, kafka.EventBookingCreated, booking)
	return booking.ID, nil
}

// CancelBooking deletes the booking and frees its seat in one transaction.
func (e *Engine) CancelBooking(ctx context.Context, bookingID int64) error {
	tx, err := e.storage.Begin(ctx)
	if err != nil {
		return e.storageFailure(ctx, "begin cancellation", err)
	}
	txCtx := repository.ContextWithTx(ctx, tx)

	booking, err := tx.GetBookingByID(txCtx, bookingID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return e.rollback(ctx, tx, fmt.Errorf("%w: %d", domain.ErrBookingNotFound, bookingID))
		}
		return e.rollback(ctx, tx, e.storageFailure(ctx, "get booking", err))
	}

	if err := tx.DeleteBooking(txCtx, bookingID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return e.rollback(ctx, tx, fmt.Errorf("%w: %d", domain.ErrBookingNotFound, bookingID))
		}
		return e.rollback(ctx, tx, e.storageFailure(ctx, "delete booking", err))
	}

	if err := tx.AdjustSeats(txCtx, booking.FlightID, 1); err != nil {
		switch {
		case errors.Is(err, repository.ErrSeatBounds):
			return e.rollback(ctx, tx, fmt.Errorf("%w: flight %s", domain.ErrConstraintViolation, booking.FlightNumber))
		case errors.Is(err, repository.ErrNotFound):
			return e.rollback(ctx, tx, fmt.Errorf("%w: %d", domain.ErrFlightNotFound, booking.FlightID))
		default:
			return e.rollback(ctx, tx, e.storageFailure(ctx, "release seat", err))
		}
	}

	if err := tx.Commit(txCtx); err != nil {
		return e.storageFailure(ctx, "commit cancellation", err)
	}

	e.log.InfoContext(ctx, "booking cancelled",
		slog.Int64("booking_id", booking.ID),
		slog.Int64("flight_id", booking.FlightID),
	)
	e.afterCommit(ctx, kafka.EventBookingCancelled, booking)
	return nil
}

func (e *Engine) FindBookingsForPassenger(ctx context.Context, email string) ([]domain.Booking, error) {
	bookings, err := e.storage.ListBookingsByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return nil, e.storageFailure(ctx, "find bookings", err)
	}
	return bookings, nil
}

// afterCommit runs side effects of a committed booking change. Their
// failures are logged and never change the result.
func (e *Engine) afterCommit(ctx context.Context, eventType string, booking *domain.Booking) {
	e.invalidateFlights(ctx)
	if err := e.publish(ctx, eventType, booking); err != nil {
		e.log.WarnContext(ctx, "publish booking event",
			slog.String("type", eventType),
			slog.Int64("booking_id", booking.ID),
			slog.String("error", err.Error()),
		)
	}
}

func (e *Engine) publish(ctx context.Context, eventType string, booking *domain.Booking) error {
	if e.producer == nil || e.bookingTopic == "" {
		return nil
	}
	event := kafka.BookingEvent{
		EventID:       uuid.NewString(),
		Type:          eventType,
		BookingID:     booking.ID,
		FlightID:      booking.FlightID,
		FlightNumber:  booking.FlightNumber,
		PassengerName: booking.PassengerName,
		Email:         booking.PassengerEmail,
		OccurredAt:    time.Now().UTC(),
	}
	key := strconv.FormatInt(booking.ID, 10)
	if err := e.producer.Publish(ctx, e.bookingTopic, key, event); err != nil {
		return err
	}
	if e.notificationsTopic != "" {
		return e.producer.Publish(ctx, e.notificationsTopic, key, event)
	}
	return nil
}
