package repository

import (
	"context"
	"errors"

	"github.com/Domenick1991/airbooker/internal/domain"
)

var (
	ErrNotFound        = errors.New("record not found")
	ErrUniqueViolation = errors.New("unique constraint violated")
	ErrForeignKey      = errors.New("foreign key constraint violated")
	ErrSeatBounds      = errors.New("available seats out of bounds")
	ErrNestedTx        = errors.New("transaction already open")
	ErrTxDone          = errors.New("transaction already finished")
)

type FlightRepository interface {
	CreateFlight(ctx context.Context, flight *domain.Flight) error
	GetFlightByID(ctx context.Context, id int64) (*domain.Flight, error)
	ListFlights(ctx context.Context) ([]domain.Flight, error)
	// SearchFlights returns flights on the route that still have seats.
	SearchFlights(ctx context.Context, origin, destination string) ([]domain.Flight, error)
	// AdjustSeats adds delta to available_seats. It fails with ErrSeatBounds
	// if the result would leave [0, total_seats].
	AdjustSeats(ctx context.Context, flightID int64, delta int) error
}

type BookingRepository interface {
	CreateBooking(ctx context.Context, booking *domain.Booking) error
	GetBookingByID(ctx context.Context, id int64) (*domain.Booking, error)
	DeleteBooking(ctx context.Context, id int64) error
	ListBookingsByEmail(ctx context.Context, email string) ([]domain.Booking, error)
}

type Queries interface {
	FlightRepository
	BookingRepository
}

// Tx is an open transaction. Commit and Rollback consume it; any call
// after either returns ErrTxDone.
type Tx interface {
	Queries
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Storage runs single statements with their own implicit atomicity and
// hands out transactions through Begin.
type Storage interface {
	Queries
	Begin(ctx context.Context) (Tx, error)
	Close() error
}

type txKey struct{}

// ContextWithTx marks ctx as running inside tx. Begin on such a context
// fails with ErrNestedTx.
func ContextWithTx(ctx context.Context, tx Tx) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

func TxFromContext(ctx context.Context) Tx {
	tx, _ := ctx.Value(txKey{}).(Tx)
	return tx
}

// EnsureNoTx returns ErrNestedTx when ctx already carries a transaction.
func EnsureNoTx(ctx context.Context) error {
	if TxFromContext(ctx) != nil {
		return ErrNestedTx
	}
	return nil
}
