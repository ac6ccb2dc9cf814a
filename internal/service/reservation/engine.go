package reservation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Domenick1991/airbooker/internal/domain"
	"github.com/Domenick1991/airbooker/internal/repository"
)

type FlightUseCase interface {
	AddFlight(ctx context.Context, flight domain.Flight) (*domain.Flight, error)
	ListFlights(ctx context.Context) ([]domain.Flight, error)
	GetFlight(ctx context.Context, id int64) (*domain.Flight, error)
	FindAvailableFlights(ctx context.Context, origin, destination string) ([]domain.Flight, error)
}

type BookingUseCase interface {
	BookFlight(ctx context.Context, flightID int64, passengerName, passengerEmail string) (int64, error)
	CancelBooking(ctx context.Context, bookingID int64) error
	FindBookingsForPassenger(ctx context.Context, email string) ([]domain.Booking, error)
}

type UseCase interface {
	FlightUseCase
	BookingUseCase
}

type Cache interface {
	GetFlights(ctx context.Context) ([]domain.Flight, error)
	SetFlights(ctx context.Context, flights []domain.Flight) error
	InvalidateFlights(ctx context.Context) error
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value any) error
}

// Engine runs flight and booking operations over a repository.Storage.
// It keeps no state between calls; bookings and cancellations each run in
// one storage transaction that either commits whole or rolls back.
type Engine struct {
	storage            repository.Storage
	cache              Cache
	producer           Producer
	bookingTopic       string
	notificationsTopic string
	log                *slog.Logger
}

type Option func(*Engine)

func WithCache(cache Cache) Option {
	return func(e *Engine) {
		e.cache = cache
	}
}

// WithProducer publishes booking events to bookingTopic and, when set,
// notificationsTopic.
func WithProducer(producer Producer, bookingTopic, notificationsTopic string) Option {
	return func(e *Engine) {
		e.producer = producer
		e.bookingTopic = bookingTopic
		e.notificationsTopic = notificationsTopic
	}
}

func WithLogger(log *slog.Logger) Option {
	return func(e *Engine) {
		if log != nil {
			e.log = log
		}
	}
}

func NewEngine(storage repository.Storage, opts ...Option) *Engine {
	e := &Engine{
		storage: storage,
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// storageFailure logs the driver error and hides it behind ErrStorageUnavailable.
func (e *Engine) storageFailure(ctx context.Context, op string, err error) error {
	e.log.ErrorContext(ctx, "storage failure", slog.String("op", op), slog.String("error", err.Error()))
	return fmt.Errorf("%s: %w", op, domain.ErrStorageUnavailable)
}

// rollback undoes tx and returns cause. If the rollback itself fails the
// operation still fails with cause, joined with ErrStorageUnavailable.
// It runs without the caller's cancellation so an abandoned request still
// releases its transaction.
func (e *Engine) rollback(ctx context.Context, tx repository.Tx, cause error) error {
	if err := tx.Rollback(context.WithoutCancel(ctx)); err != nil {
		e.log.ErrorContext(ctx, "rollback failed",
			slog.String("error", err.Error()),
			slog.String("cause", cause.Error()),
		)
		return errors.Join(cause, fmt.Errorf("rollback: %w", domain.ErrStorageUnavailable))
	}
	return cause
}

var _ UseCase = (*Engine)(nil)
