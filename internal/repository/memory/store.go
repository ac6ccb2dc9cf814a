// Package memory is an in-process repository.Storage. A transaction works on
// a private copy of the data and swaps it in on commit; one transaction or
// statement runs at a time.
package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/Domenick1991/airbooker/internal/domain"
	"github.com/Domenick1991/airbooker/internal/repository"
)

type Store struct {
	// lock is a one-slot semaphore held by an open transaction or a single
	// statement. A channel lets Begin give up when its context ends.
	lock  chan struct{}
	state *state
}

func New() *Store {
	return &Store{
		lock:  make(chan struct{}, 1),
		state: newState(),
	}
}

func (s *Store) acquire(ctx context.Context) error {
	select {
	case s.lock <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Store) release() {
	<-s.lock
}

func (s *Store) Begin(ctx context.Context) (repository.Tx, error) {
	if err := repository.EnsureNoTx(ctx); err != nil {
		return nil, err
	}
	if err := s.acquire(ctx); err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	return &memTx{store: s, state: s.state.clone()}, nil
}

func (s *Store) Close() error {
	return nil
}

func (s *Store) CreateFlight(ctx context.Context, flight *domain.Flight) error {
	return s.exec(ctx, func(st *state) error { return st.createFlight(flight) })
}

func (s *Store) GetFlightByID(ctx context.Context, id int64) (*domain.Flight, error) {
	var f *domain.Flight
	err := s.exec(ctx, func(st *state) (err error) {
		f, err = st.getFlight(id)
		return err
	})
	return f, err
}

func (s *Store) ListFlights(ctx context.Context) ([]domain.Flight, error) {
	var out []domain.Flight
	err := s.exec(ctx, func(st *state) error {
		out = st.listFlights(func(domain.Flight) bool { return true })
		return nil
	})
	return out, err
}

func (s *Store) SearchFlights(ctx context.Context, origin, destination string) ([]domain.Flight, error) {
	var out []domain.Flight
	err := s.exec(ctx, func(st *state) error {
		out = st.searchFlights(origin, destination)
		return nil
	})
	return out, err
}

func (s *Store) AdjustSeats(ctx context.Context, flightID int64, delta int) error {
	return s.exec(ctx, func(st *state) error { return st.adjustSeats(flightID, delta) })
}

func (s *Store) CreateBooking(ctx context.Context, booking *domain.Booking) error {
	return s.exec(ctx, func(st *state) error { return st.createBooking(booking) })
}

func (s *Store) GetBookingByID(ctx context.Context, id int64) (*domain.Booking, error) {
	var b *domain.Booking
	err := s.exec(ctx, func(st *state) (err error) {
		b, err = st.getBooking(id)
		return err
	})
	return b, err
}

func (s *Store) DeleteBooking(ctx context.Context, id int64) error {
	return s.exec(ctx, func(st *state) error { return st.deleteBooking(id) })
}

func (s *Store) ListBookingsByEmail(ctx context.Context, email string) ([]domain.Booking, error) {
	var out []domain.Booking
	err := s.exec(ctx, func(st *state) error {
		out = st.bookingsByEmail(email)
		return nil
	})
	return out, err
}

// exec runs fn as one statement: it either applies fully or not at all.
func (s *Store) exec(ctx context.Context, fn func(st *state) error) error {
	if tx := repository.TxFromContext(ctx); tx != nil {
		if mt, ok := tx.(*memTx); ok && mt.store == s {
			// The caller holds the lock through tx; waiting here would deadlock.
			return repository.ErrNestedTx
		}
	}
	if err := s.acquire(ctx); err != nil {
		return err
	}
	defer s.release()

	work := s.state.clone()
	if err := fn(work); err != nil {
		return err
	}
	s.state = work
	return nil
}

type memTx struct {
	store *Store
	state *state
	done  bool
}

func (t *memTx) Commit(ctx context.Context) error {
	if t.done {
		return repository.ErrTxDone
	}
	t.done = true
	t.store.state = t.state
	t.store.release()
	return nil
}

func (t *memTx) Rollback(ctx context.Context) error {
	if t.done {
		return repository.ErrTxDone
	}
	t.done = true
	t.store.release()
	return nil
}

func (t *memTx) run(fn func(st *state) error) error {
	if t.done {
		return repository.ErrTxDone
	}
	return fn(t.state)
}

func (t *memTx) CreateFlight(ctx context.Context, flight *domain.Flight) error {
	return t.run(func(st *state) error { return st.createFlight(flight) })
}

func (t *memTx) GetFlightByID(ctx context.Context, id int64) (*domain.Flight, error) {
	var f *domain.Flight
	err := t.run(func(st *state) (err error) {
		f, err = st.getFlight(id)
		return err
	})
	return f, err
}

func (t *memTx) ListFlights(ctx context.Context) ([]domain.Flight, error) {
	var out []domain.Flight
	err := t.run(func(st *state) error {
		out = st.listFlights(func(domain.Flight) bool { return true })
		return nil
	})
	return out, err
}

func (t *memTx) SearchFlights(ctx context.Context, origin, destination string) ([]domain.Flight, error) {
	var out []domain.Flight
	err := t.run(func(st *state) error {
		out = st.searchFlights(origin, destination)
		return nil
	})
	return out, err
}

func (t *memTx) AdjustSeats(ctx context.Context, flightID int64, delta int) error {
	return t.run(func(st *state) error { return st.adjustSeats(flightID, delta) })
}

func (t *memTx) CreateBooking(ctx context.Context, booking *domain.Booking) error {
	return t.run(func(st *state) error { return st.createBooking(booking) })
}

func (t *memTx) GetBookingByID(ctx context.Context, id int64) (*domain.Booking, error) {
	var b *domain.Booking
	err := t.run(func(st *state) (err error) {
		b, err = st.getBooking(id)
		return err
	})
	return b, err
}

func (t *memTx) DeleteBooking(ctx context.Context, id int64) error {
	return t.run(func(st *state) error { return st.deleteBooking(id) })
}

func (t *memTx) ListBookingsByEmail(ctx context.Context, email string) ([]domain.Booking, error) {
	var out []domain.Booking
	err := t.run(func(st *state) error {
		out = st.bookingsByEmail(email)
		return nil
	})
	return out, err
}

type state struct {
	flights       map[int64]domain.Flight
	bookings      map[int64]domain.Booking
	nextFlightID  int64
	nextBookingID int64
}

func newState() *state {
	return &state{
		flights:  make(map[int64]domain.Flight),
		bookings: make(map[int64]domain.Booking),
	}
}

func (st *state) clone() *state {
	c := &state{
		flights:       make(map[int64]domain.Flight, len(st.flights)),
		bookings:      make(map[int64]domain.Booking, len(st.bookings)),
		nextFlightID:  st.nextFlightID,
		nextBookingID: st.nextBookingID,
	}
	for id, f := range st.flights {
		c.flights[id] = f
	}
	for id, b := range st.bookings {
		c.bookings[id] = b
	}
	return c
}

func (st *state) createFlight(flight *domain.Flight) error {
	for _, f := range st.flights {
		if f.FlightNumber == flight.FlightNumber {
			return fmt.Errorf("create flight %q: %w", flight.FlightNumber, repository.ErrUniqueViolation)
		}
	}
	if flight.AvailableSeats < 0 || flight.AvailableSeats > flight.TotalSeats {
		return fmt.Errorf("create flight %q: %w", flight.FlightNumber, repository.ErrSeatBounds)
	}
	st.nextFlightID++
	flight.ID = st.nextFlightID
	st.flights[flight.ID] = *flight
	return nil
}

func (st *state) getFlight(id int64) (*domain.Flight, error) {
	f, ok := st.flights[id]
	if !ok {
		return nil, fmt.Errorf("get flight %d: %w", id, repository.ErrNotFound)
	}
	return &f, nil
}

func (st *state) listFlights(keep func(domain.Flight) bool) []domain.Flight {
	out := make([]domain.Flight, 0, len(st.flights))
	for _, f := range st.flights {
		if keep(f) {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (st *state) searchFlights(origin, destination string) []domain.Flight {
	out := st.listFlights(func(f domain.Flight) bool {
		return f.Origin == origin && f.Destination == destination && f.HasSeats()
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].DepartureTime < out[j].DepartureTime })
	return out
}

func (st *state) adjustSeats(flightID int64, delta int) error {
	f, ok := st.flights[flightID]
	if !ok {
		return fmt.Errorf("adjust seats: flight %d: %w", flightID, repository.ErrNotFound)
	}
	next := f.AvailableSeats + delta
	if next < 0 || next > f.TotalSeats {
		return fmt.Errorf("adjust seats: flight %d by %d: %w", flightID, delta, repository.ErrSeatBounds)
	}
	f.AvailableSeats = next
	st.flights[flightID] = f
	return nil
}

func (st *state) createBooking(booking *domain.Booking) error {
	if _, ok := st.flights[booking.FlightID]; !ok {
		return fmt.Errorf("create booking: flight %d: %w", booking.FlightID, repository.ErrForeignKey)
	}
	st.nextBookingID++
	booking.ID = st.nextBookingID
	st.bookings[booking.ID] = domain.Booking{
		ID:             booking.ID,
		FlightID:       booking.FlightID,
		PassengerName:  booking.PassengerName,
		PassengerEmail: booking.PassengerEmail,
	}
	return nil
}

// withFlight fills the denormalized flight fields, as a join would.
func (st *state) withFlight(b domain.Booking) domain.Booking {
	f := st.flights[b.FlightID]
	b.FlightNumber = f.FlightNumber
	b.Origin = f.Origin
	b.Destination = f.Destination
	b.DepartureTime = f.DepartureTime
	return b
}

func (st *state) getBooking(id int64) (*domain.Booking, error) {
	b, ok := st.bookings[id]
	if !ok {
		return nil, fmt.Errorf("get booking %d: %w", id, repository.ErrNotFound)
	}
	b = st.withFlight(b)
	return &b, nil
}

func (st *state) deleteBooking(id int64) error {
	if _, ok := st.bookings[id]; !ok {
		return fmt.Errorf("delete booking %d: %w", id, repository.ErrNotFound)
	}
	delete(st.bookings, id)
	return nil
}

func (st *state) bookingsByEmail(email string) []domain.Booking {
	out := make([]domain.Booking, 0)
	for _, b := range st.bookings {
		if b.PassengerEmail == email {
			out = append(out, st.withFlight(b))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

var (
	_ repository.Storage = (*Store)(nil)
	_ repository.Tx      = (*memTx)(nil)
)
