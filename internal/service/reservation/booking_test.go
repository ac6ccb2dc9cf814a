package reservation

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"path/filepath"
	"sync"
	"testing"

	"github.com/Domenick1991/airbooker/internal/domain"
	"github.com/Domenick1991/airbooker/internal/kafka"
	"github.com/Domenick1991/airbooker/internal/logger"
	"github.com/Domenick1991/airbooker/internal/repository"
	"github.com/Domenick1991/airbooker/internal/repository/memory"
	"github.com/Domenick1991/airbooker/internal/repository/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestEngine_BookFlight_AI404Scenario(t *testing.T) {
	e, store := newTestEngine(t)
	ctx := context.Background()
	f := addFlight(t, e, "AI404", 2)

	aliceID, err := e.BookFlight(ctx, f.ID, "Alice", "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, 1, availableSeats(t, store, f.ID))

	bobID, err := e.BookFlight(ctx, f.ID, "Bob", "bob@example.com")
	require.NoError(t, err)
	assert.NotEqual(t, aliceID, bobID)
	assert.Equal(t, 0, availableSeats(t, store, f.ID))

	_, err = e.BookFlight(ctx, f.ID, "Carl", "carl@example.com")
	assert.ErrorIs(t, err, domain.ErrNoSeatsAvailable)
	assert.Equal(t, 0, availableSeats(t, store, f.ID))

	carl, err := e.FindBookingsForPassenger(ctx, "carl@example.com")
	require.NoError(t, err)
	assert.Empty(t, carl)
}

func TestEngine_BookFlight_NoSeatsLeavesStateUnchanged(t *testing.T) {
	e, store := newTestEngine(t)
	ctx := context.Background()
	f := addFlight(t, e, "AI404", 1)
	_, err := e.BookFlight(ctx, f.ID, "Alice", "alice@example.com")
	require.NoError(t, err)

	_, err = e.BookFlight(ctx, f.ID, "Bob", "bob@example.com")
	assert.ErrorIs(t, err, domain.ErrNoSeatsAvailable)

	bookings, err := store.ListBookingsByEmail(ctx, "bob@example.com")
	require.NoError(t, err)
	assert.Empty(t, bookings)
	assert.Equal(t, 0, availableSeats(t, store, f.ID))
}

func TestEngine_BookFlight_FlightNotFound(t *testing.T) {
	e, _ := newTestEngine(t)

	_, err := e.BookFlight(context.Background(), 42, "Alice", "alice@example.com")
	assert.ErrorIs(t, err, domain.ErrFlightNotFound)
}

func TestEngine_BookFlight_InvalidInputSkipsStorage(t *testing.T) {
	storage := &faultyStorage{Storage: memory.New(), beginErr: errors.New("must not begin")}
	e := NewEngine(storage, WithLogger(logger.Discard()))

	_, err := e.BookFlight(context.Background(), 1, " ", "alice@example.com")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = e.BookFlight(context.Background(), 1, "Alice", "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Nil(t, storage.lastTx)
}

func TestEngine_BookFlight_BeginFailure(t *testing.T) {
	storage := &faultyStorage{Storage: memory.New(), beginErr: errors.New("pool closed")}
	e := NewEngine(storage, WithLogger(logger.Discard()))

	_, err := e.BookFlight(context.Background(), 1, "Alice", "alice@example.com")
	assert.ErrorIs(t, err, domain.ErrStorageUnavailable)
	assert.NotContains(t, err.Error(), "pool closed")
}

func TestEngine_BookFlight_SeatFailureRollsBackInsert(t *testing.T) {
	inner := memory.New()
	storage := &faultyStorage{Storage: inner}
	e := NewEngine(storage, WithLogger(logger.Discard()))
	ctx := context.Background()
	f := addFlight(t, e, "AI404", 2)

	storage.adjustErr = errors.New("disk I/O error")
	_, err := e.BookFlight(ctx, f.ID, "Alice", "alice@example.com")
	assert.ErrorIs(t, err, domain.ErrStorageUnavailable)
	assert.True(t, storage.lastTx.rolledBack)

	bookings, err := inner.ListBookingsByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Empty(t, bookings)
	assert.Equal(t, 2, availableSeats(t, inner, f.ID))
}

func TestEngine_BookFlight_SeatBoundsMapsToNoSeats(t *testing.T) {
	storage := &faultyStorage{Storage: memory.New()}
	e := NewEngine(storage, WithLogger(logger.Discard()))
	f := addFlight(t, e, "AI404", 2)

	storage.adjustErr = fmt.Errorf("adjust seats: %w", repository.ErrSeatBounds)
	_, err := e.BookFlight(context.Background(), f.ID, "Alice", "alice@example.com")
	assert.ErrorIs(t, err, domain.ErrNoSeatsAvailable)
	assert.NotErrorIs(t, err, domain.ErrStorageUnavailable)
}

func TestEngine_BookFlight_RollbackFailureJoinsStorageUnavailable(t *testing.T) {
	storage := &faultyStorage{Storage: memory.New()}
	e := NewEngine(storage, WithLogger(logger.Discard()))
	f := addFlight(t, e, "AI404", 2)

	storage.adjustErr = repository.ErrSeatBounds
	storage.rollbackErr = errors.New("connection reset")
	_, err := e.BookFlight(context.Background(), f.ID, "Alice", "alice@example.com")

	assert.ErrorIs(t, err, domain.ErrNoSeatsAvailable)
	assert.ErrorIs(t, err, domain.ErrStorageUnavailable)
	assert.NotContains(t, err.Error(), "connection reset")
}

func TestEngine_BookFlight_CommitFailure(t *testing.T) {
	inner := memory.New()
	storage := &faultyStorage{Storage: inner}
	e := NewEngine(storage, WithLogger(logger.Discard()))
	f := addFlight(t, e, "AI404", 2)

	storage.commitErr = errors.New("serialization failure")
	_, err := e.BookFlight(context.Background(), f.ID, "Alice", "alice@example.com")
	assert.ErrorIs(t, err, domain.ErrStorageUnavailable)
	assert.Equal(t, 2, availableSeats(t, inner, f.ID))
}

func TestEngine_BookFlight_RollbackIgnoresCallerCancellation(t *testing.T) {
	inner := memory.New()
	storage := &faultyStorage{Storage: inner}
	e := NewEngine(storage, WithLogger(logger.Discard()))
	f := addFlight(t, e, "AI404", 2)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	storage.onAdjust = cancel
	storage.adjustErr = context.Canceled

	_, err := e.BookFlight(ctx, f.ID, "Alice", "alice@example.com")
	assert.ErrorIs(t, err, domain.ErrStorageUnavailable)
	require.NotNil(t, storage.lastTx)
	assert.True(t, storage.lastTx.rolledBack)
	assert.NoError(t, storage.lastTx.rollbackCtxErr)

	// The store is free again.
	tx, err := inner.Begin(context.Background())
	require.NoError(t, err)
	require.NoError(t, tx.Rollback(context.Background()))
}

func TestEngine_BookFlight_LastSeatSequential(t *testing.T) {
	e, store := newTestEngine(t)
	ctx := context.Background()
	f := addFlight(t, e, "AI404", 1)

	_, first := e.BookFlight(ctx, f.ID, "Alice", "alice@example.com")
	_, second := e.BookFlight(ctx, f.ID, "Bob", "bob@example.com")

	assert.NoError(t, first)
	assert.ErrorIs(t, second, domain.ErrNoSeatsAvailable)
	assert.Equal(t, 0, availableSeats(t, store, f.ID))
}

func TestEngine_BookAndCancelRoundTrip(t *testing.T) {
	e, store := newTestEngine(t)
	ctx := context.Background()
	f := addFlight(t, e, "AI404", 2)

	id, err := e.BookFlight(ctx, f.ID, "Alice", "alice@example.com")
	require.NoError(t, err)

	bookings, err := e.FindBookingsForPassenger(ctx, "alice@example.com")
	require.NoError(t, err)
	require.Len(t, bookings, 1)
	assert.Equal(t, id, bookings[0].ID)
	assert.Equal(t, "AI404", bookings[0].FlightNumber)
	assert.Equal(t, "Alice", bookings[0].PassengerName)

	require.NoError(t, e.CancelBooking(ctx, id))
	assert.Equal(t, 2, availableSeats(t, store, f.ID))

	bookings, err = e.FindBookingsForPassenger(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Empty(t, bookings)

	assert.ErrorIs(t, e.CancelBooking(ctx, id), domain.ErrBookingNotFound)
}

func TestEngine_CancelBooking_NotFoundLeavesStateUnchanged(t *testing.T) {
	e, store := newTestEngine(t)
	ctx := context.Background()
	f := addFlight(t, e, "AI404", 2)
	_, err := e.BookFlight(ctx, f.ID, "Alice", "alice@example.com")
	require.NoError(t, err)

	err = e.CancelBooking(ctx, 999)
	assert.ErrorIs(t, err, domain.ErrBookingNotFound)
	assert.Equal(t, 1, availableSeats(t, store, f.ID))
}

func TestEngine_CancelBooking_SeatFailureRestoresBooking(t *testing.T) {
	inner := memory.New()
	storage := &faultyStorage{Storage: inner}
	e := NewEngine(storage, WithLogger(logger.Discard()))
	ctx := context.Background()
	f := addFlight(t, e, "AI404", 2)
	id, err := e.BookFlight(ctx, f.ID, "Alice", "alice@example.com")
	require.NoError(t, err)

	storage.adjustErr = repository.ErrSeatBounds
	err = e.CancelBooking(ctx, id)
	assert.ErrorIs(t, err, domain.ErrConstraintViolation)

	booking, err := inner.GetBookingByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, f.ID, booking.FlightID)
	assert.Equal(t, 1, availableSeats(t, inner, f.ID))
}

func TestEngine_PublishesBookingEvents(t *testing.T) {
	producer := &MockProducer{}
	cache := &MockCache{}
	cache.On("InvalidateFlights", mock.Anything).Return(nil)
	e, _ := newTestEngine(t, WithCache(cache), WithProducer(producer, "bookings", "notifications"))
	ctx := context.Background()
	f := addFlight(t, e, "AI404", 2)

	isEvent := func(eventType string) any {
		return mock.MatchedBy(func(ev kafka.BookingEvent) bool {
			return ev.Type == eventType &&
				ev.FlightID == f.ID &&
				ev.FlightNumber == "AI404" &&
				ev.Email == "alice@example.com" &&
				ev.EventID != ""
		})
	}
	producer.On("Publish", mock.Anything, "bookings", mock.Anything, isEvent(kafka.EventBookingCreated)).Return(nil).Once()
	producer.On("Publish", mock.Anything, "notifications", mock.Anything, isEvent(kafka.EventBookingCreated)).Return(nil).Once()
	producer.On("Publish", mock.Anything, "bookings", mock.Anything, isEvent(kafka.EventBookingCancelled)).Return(nil).Once()
	producer.On("Publish", mock.Anything, "notifications", mock.Anything, isEvent(kafka.EventBookingCancelled)).Return(nil).Once()

	id, err := e.BookFlight(ctx, f.ID, "Alice", "alice@example.com")
	require.NoError(t, err)
	require.NoError(t, e.CancelBooking(ctx, id))

	producer.AssertExpectations(t)
	cache.AssertNumberOfCalls(t, "InvalidateFlights", 3)
}

func TestEngine_PublishFailureDoesNotFailBooking(t *testing.T) {
	producer := &MockProducer{}
	producer.On("Publish", mock.Anything, "bookings", mock.Anything, mock.Anything).Return(errors.New("broker down"))
	e, store := newTestEngine(t, WithProducer(producer, "bookings", ""))
	f := addFlight(t, e, "AI404", 2)

	id, err := e.BookFlight(context.Background(), f.ID, "Alice", "alice@example.com")
	require.NoError(t, err)
	assert.NotZero(t, id)
	assert.Equal(t, 1, availableSeats(t, store, f.ID))
	producer.AssertNumberOfCalls(t, "Publish", 1)
}

func TestEngine_ConcurrentBookings(t *testing.T) {
	const (
		seats   = 5
		workers = 20
	)

	backends := map[string]func(t *testing.T) repository.Storage{
		"memory": func(t *testing.T) repository.Storage {
			return memory.New()
		},
		"sqlite": func(t *testing.T) repository.Storage {
			s, err := sqlite.Open(filepath.Join(t.TempDir(), "flights.db"))
			require.NoError(t, err)
			t.Cleanup(func() { _ = s.Close() })
			return s
		},
	}

	for name, open := range backends {
		t.Run(name, func(t *testing.T) {
			storage := open(t)
			e := NewEngine(storage, WithLogger(logger.Discard()))
			ctx := context.Background()
			f := addFlight(t, e, "AI404", seats)

			var (
				wg      sync.WaitGroup
				mu      sync.Mutex
				booked  int
				refused int
				other   []error
			)
			for i := range workers {
				wg.Add(1)
				go func() {
					defer wg.Done()
					email := fmt.Sprintf("p%d@example.com", i)
					_, err := e.BookFlight(ctx, f.ID, fmt.Sprintf("P%d", i), email)
					mu.Lock()
					defer mu.Unlock()
					switch {
					case err == nil:
						booked++
					case errors.Is(err, domain.ErrNoSeatsAvailable):
						refused++
					default:
						other = append(other, err)
					}
				}()
			}
			wg.Wait()

			assert.Empty(t, other)
			assert.Equal(t, seats, booked)
			assert.Equal(t, workers-seats, refused)
			assert.Equal(t, 0, availableSeats(t, storage, f.ID))
		})
	}
}

func TestEngine_SeatInvariantHoldsAcrossOperations(t *testing.T) {
	e, store := newTestEngine(t)
	ctx := context.Background()
	rng := rand.New(rand.NewPCG(1, 2))

	flights := []*domain.Flight{
		addFlight(t, e, "AI101", 1),
		addFlight(t, e, "AI102", 3),
		addFlight(t, e, "AI103", 5),
	}
	live := make(map[int64][]int64)

	for step := range 200 {
		f := flights[rng.IntN(len(flights))]
		email := fmt.Sprintf("flight%d@example.com", f.ID)

		if rng.IntN(3) > 0 || len(live[f.ID]) == 0 {
			id, err := e.BookFlight(ctx, f.ID, "Passenger", email)
			if err == nil {
				live[f.ID] = append(live[f.ID], id)
			} else {
				require.ErrorIs(t, err, domain.ErrNoSeatsAvailable, "step %d", step)
				require.Len(t, live[f.ID], f.TotalSeats, "step %d", step)
			}
		} else {
			i := rng.IntN(len(live[f.ID]))
			require.NoError(t, e.CancelBooking(ctx, live[f.ID][i]), "step %d", step)
			live[f.ID] = append(live[f.ID][:i], live[f.ID][i+1:]...)
		}

		for _, fl := range flights {
			bookings, err := store.ListBookingsByEmail(ctx, fmt.Sprintf("flight%d@example.com", fl.ID))
			require.NoError(t, err)
			require.Len(t, bookings, len(live[fl.ID]), "step %d", step)
			require.Equal(t, fl.TotalSeats-len(bookings), availableSeats(t, store, fl.ID), "step %d flight %s", step, fl.FlightNumber)
		}
	}
}
