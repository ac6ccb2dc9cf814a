package reservation

import (
	"context"
	"testing"

	"github.com/Domenick1991/airbooker/internal/domain"
	"github.com/Domenick1991/airbooker/internal/logger"
	"github.com/Domenick1991/airbooker/internal/repository"
	"github.com/Domenick1991/airbooker/internal/repository/memory"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockCache struct {
	mock.Mock
}

func (m *MockCache) GetFlights(ctx context.Context) ([]domain.Flight, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Flight), args.Error(1)
}

func (m *MockCache) SetFlights(ctx context.Context, flights []domain.Flight) error {
	args := m.Called(ctx, flights)
	return args.Error(0)
}

func (m *MockCache) InvalidateFlights(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type MockProducer struct {
	mock.Mock
}

func (m *MockProducer) Publish(ctx context.Context, topic, key string, value any) error {
	args := m.Called(ctx, topic, key, value)
	return args.Error(0)
}

// faultyStorage wraps a real storage and injects failures into the
// transactions it hands out.
type faultyStorage struct {
	repository.Storage

	beginErr    error
	listErr     error
	adjustErr   error
	commitErr   error
	rollbackErr error
	onAdjust    func()

	lastTx *faultyTx
}

func (s *faultyStorage) Begin(ctx context.Context) (repository.Tx, error) {
	if s.beginErr != nil {
		return nil, s.beginErr
	}
	tx, err := s.Storage.Begin(ctx)
	if err != nil {
		return nil, err
	}
	s.lastTx = &faultyTx{Tx: tx, storage: s}
	return s.lastTx, nil
}

func (s *faultyStorage) ListFlights(ctx context.Context) ([]domain.Flight, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.Storage.ListFlights(ctx)
}

type faultyTx struct {
	repository.Tx
	storage *faultyStorage

	rolledBack     bool
	rollbackCtxErr error
}

func (t *faultyTx) AdjustSeats(ctx context.Context, flightID int64, delta int) error {
	if t.storage.onAdjust != nil {
		t.storage.onAdjust()
	}
	if t.storage.adjustErr != nil {
		return t.storage.adjustErr
	}
	return t.Tx.AdjustSeats(ctx, flightID, delta)
}

func (t *faultyTx) Commit(ctx context.Context) error {
	if t.storage.commitErr != nil {
		_ = t.Tx.Rollback(ctx)
		return t.storage.commitErr
	}
	return t.Tx.Commit(ctx)
}

func (t *faultyTx) Rollback(ctx context.Context) error {
	t.rolledBack = true
	t.rollbackCtxErr = ctx.Err()
	innerErr := t.Tx.Rollback(ctx)
	if t.storage.rollbackErr != nil {
		return t.storage.rollbackErr
	}
	return innerErr
}

func newTestEngine(t *testing.T, opts ...Option) (*Engine, *memory.Store) {
	t.Helper()
	store := memory.New()
	opts = append([]Option{WithLogger(logger.Discard())}, opts...)
	return NewEngine(store, opts...), store
}

func addFlight(t *testing.T, e *Engine, number string, seats int) *domain.Flight {
	t.Helper()
	f, err := e.AddFlight(context.Background(), domain.Flight{
		FlightNumber:  number,
		Origin:        "Delhi",
		Destination:   "Mumbai",
		DepartureTime: "2025-01-01 10:00",
		TotalSeats:    seats,
		Price:         120.5,
	})
	require.NoError(t, err)
	return f
}

func availableSeats(t *testing.T, s repository.Queries, flightID int64) int {
	t.Helper()
	f, err := s.GetFlightByID(context.Background(), flightID)
	require.NoError(t, err)
	return f.AvailableSeats
}
