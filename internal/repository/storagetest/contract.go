// Package storagetest holds the behaviour every repository.Storage
// implementation must share. Implementations call Run from their own tests.
package storagetest

import (
	"context"
	"sync"
	"testing"

	"github.com/Domenick1991/airbooker/internal/domain"
	"github.com/Domenick1991/airbooker/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Factory returns an empty storage. It is called once per subtest.
type Factory func(t *testing.T) repository.Storage

func Run(t *testing.T, newStorage Factory) {
	t.Run("create and read flights", func(t *testing.T) { testCreateAndReadFlights(t, newStorage(t)) })
	t.Run("duplicate flight number", func(t *testing.T) { testDuplicateFlightNumber(t, newStorage(t)) })
	t.Run("search filters route and seats", func(t *testing.T) { testSearchFlights(t, newStorage(t)) })
	t.Run("adjust seats bounds", func(t *testing.T) { testAdjustSeats(t, newStorage(t)) })
	t.Run("booking lifecycle", func(t *testing.T) { testBookingLifecycle(t, newStorage(t)) })
	t.Run("booking requires flight", func(t *testing.T) { testBookingRequiresFlight(t, newStorage(t)) })
	t.Run("rollback discards writes", func(t *testing.T) { testRollback(t, newStorage(t)) })
	t.Run("commit publishes writes", func(t *testing.T) { testCommit(t, newStorage(t)) })
	t.Run("tx is consumed", func(t *testing.T) { testTxConsumed(t, newStorage(t)) })
	t.Run("nested begin fails", func(t *testing.T) { testNestedBegin(t, newStorage(t)) })
	t.Run("transactions serialize", func(t *testing.T) { testSerializedDecrement(t, newStorage(t)) })
}

func NewFlight(number string, seats int) *domain.Flight {
	return &domain.Flight{
		FlightNumber:   number,
		Origin:         "Delhi",
		Destination:    "Mumbai",
		DepartureTime:  "2025-01-01 10:00",
		TotalSeats:     seats,
		AvailableSeats: seats,
		Price:          120.5,
	}
}

func testCreateAndReadFlights(t *testing.T, s repository.Storage) {
	ctx := context.Background()
	f := NewFlight("AI404", 3)
	require.NoError(t, s.CreateFlight(ctx, f))
	require.NotZero(t, f.ID)

	got, err := s.GetFlightByID(ctx, f.ID)
	require.NoError(t, err)
	assert.Equal(t, *f, *got)

	_, err = s.GetFlightByID(ctx, f.ID+100)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	second := NewFlight("AI405", 1)
	require.NoError(t, s.CreateFlight(ctx, second))
	all, err := s.ListFlights(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "AI404", all[0].FlightNumber)
	assert.Equal(t, "AI405", all[1].FlightNumber)
}

func testDuplicateFlightNumber(t *testing.T, s repository.Storage) {
	ctx := context.Background()
	require.NoError(t, s.CreateFlight(ctx, NewFlight("AI404", 2)))
	err := s.CreateFlight(ctx, NewFlight("AI404", 5))
	assert.ErrorIs(t, err, repository.ErrUniqueViolation)

	all, err := s.ListFlights(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func testSearchFlights(t *testing.T, s repository.Storage) {
	ctx := context.Background()
	open := NewFlight("AI100", 2)
	full := NewFlight("AI101", 1)
	other := NewFlight("AI102", 2)
	other.Destination = "Goa"
	for _, f := range []*domain.Flight{open, full, other} {
		require.NoError(t, s.CreateFlight(ctx, f))
	}
	require.NoError(t, s.AdjustSeats(ctx, full.ID, -1))

	found, err := s.SearchFlights(ctx, "Delhi", "Mumbai")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, open.ID, found[0].ID)

	none, err := s.SearchFlights(ctx, "Mumbai", "Delhi")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func testAdjustSeats(t *testing.T, s repository.Storage) {
	ctx := context.Background()
	f := NewFlight("AI404", 1)
	require.NoError(t, s.CreateFlight(ctx, f))

	assert.ErrorIs(t, s.AdjustSeats(ctx, f.ID, 1), repository.ErrSeatBounds)
	require.NoError(t, s.AdjustSeats(ctx, f.ID, -1))
	assert.ErrorIs(t, s.AdjustSeats(ctx, f.ID, -1), repository.ErrSeatBounds)
	assert.ErrorIs(t, s.AdjustSeats(ctx, f.ID+100, -1), repository.ErrNotFound)

	got, err := s.GetFlightByID(ctx, f.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.AvailableSeats)
}

func testBookingLifecycle(t *testing.T, s repository.Storage) {
	ctx := context.Background()
	f := NewFlight("AI404", 2)
	require.NoError(t, s.CreateFlight(ctx, f))

	b := &domain.Booking{FlightID: f.ID, PassengerName: "Alice", PassengerEmail: "a@x.com"}
	require.NoError(t, s.CreateBooking(ctx, b))
	require.NotZero(t, b.ID)
	other := &domain.Booking{FlightID: f.ID, PassengerName: "Bob", PassengerEmail: "b@x.com"}
	require.NoError(t, s.CreateBooking(ctx, other))

	got, err := s.GetBookingByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.Booking{
		ID:             b.ID,
		FlightID:       f.ID,
		PassengerName:  "Alice",
		PassengerEmail: "a@x.com",
		FlightNumber:   "AI404",
		Origin:         "Delhi",
		Destination:    "Mumbai",
		DepartureTime:  "2025-01-01 10:00",
	}, *got)

	mine, err := s.ListBookingsByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, b.ID, mine[0].ID)
	assert.Equal(t, "AI404", mine[0].FlightNumber)

	require.NoError(t, s.DeleteBooking(ctx, b.ID))
	_, err = s.GetBookingByID(ctx, b.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.ErrorIs(t, s.DeleteBooking(ctx, b.ID), repository.ErrNotFound)

	mine, err = s.ListBookingsByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Empty(t, mine)
}

func testBookingRequiresFlight(t *testing.T, s repository.Storage) {
	err := s.CreateBooking(context.Background(), &domain.Booking{FlightID: 999, PassengerName: "Alice", PassengerEmail: "a@x.com"})
	assert.ErrorIs(t, err, repository.ErrForeignKey)
}

func testRollback(t *testing.T, s repository.Storage) {
	ctx := context.Background()
	f := NewFlight("AI404", 2)
	require.NoError(t, s.CreateFlight(ctx, f))

	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	b := &domain.Booking{FlightID: f.ID, PassengerName: "Alice", PassengerEmail: "a@x.com"}
	require.NoError(t, tx.CreateBooking(ctx, b))
	require.NoError(t, tx.AdjustSeats(ctx, f.ID, -1))

	inside, err := tx.GetFlightByID(ctx, f.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, inside.AvailableSeats)

	require.NoError(t, tx.Rollback(ctx))

	got, err := s.GetFlightByID(ctx, f.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.AvailableSeats)
	bookings, err := s.ListBookingsByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Empty(t, bookings)
}

func testCommit(t *testing.T, s repository.Storage) {
	ctx := context.Background()
	f := NewFlight("AI404", 2)
	require.NoError(t, s.CreateFlight(ctx, f))

	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	b := &domain.Booking{FlightID: f.ID, PassengerName: "Alice", PassengerEmail: "a@x.com"}
	require.NoError(t, tx.CreateBooking(ctx, b))
	require.NoError(t, tx.AdjustSeats(ctx, f.ID, -1))
	require.NoError(t, tx.Commit(ctx))

	got, err := s.GetFlightByID(ctx, f.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.AvailableSeats)
	stored, err := s.GetBookingByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice", stored.PassengerName)
}

func testTxConsumed(t *testing.T, s repository.Storage) {
	ctx := context.Background()
	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.Commit(ctx))
	assert.ErrorIs(t, tx.Commit(ctx), repository.ErrTxDone)
	assert.ErrorIs(t, tx.Rollback(ctx), repository.ErrTxDone)

	tx, err = s.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.Rollback(ctx))
	assert.ErrorIs(t, tx.Rollback(ctx), repository.ErrTxDone)
}

func testNestedBegin(t *testing.T, s repository.Storage) {
	ctx := context.Background()
	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = s.Begin(repository.ContextWithTx(ctx, tx))
	assert.ErrorIs(t, err, repository.ErrNestedTx)
}

// testSerializedDecrement runs read-check-decrement transactions in parallel
// and expects exactly as many successes as there are seats.
func testSerializedDecrement(t *testing.T, s repository.Storage) {
	ctx := context.Background()
	const seats, workers = 3, 12
	f := NewFlight("AI404", seats)
	require.NoError(t, s.CreateFlight(ctx, f))

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		success int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tx, err := s.Begin(ctx)
			if err != nil {
				return
			}
			flight, err := tx.GetFlightByID(ctx, f.ID)
			if err != nil || flight.AvailableSeats <= 0 {
				_ = tx.Rollback(ctx)
				return
			}
			if err := tx.AdjustSeats(ctx, f.ID, -1); err != nil {
				_ = tx.Rollback(ctx)
				return
			}
			if err := tx.Commit(ctx); err != nil {
				return
			}
			mu.Lock()
			success++
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, seats, success)
	got, err := s.GetFlightByID(ctx, f.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.AvailableSeats)
}
