package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/Domenick1991/airbooker/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// queries implements repository.Queries over a pool or a transaction.
// lockRows is set inside transactions so flight reads take a row lock.
type queries struct {
	db       querier
	lockRows bool
}

type PGStorage struct {
	queries
	pool *pgxpool.Pool
}

func NewStorage(pool *pgxpool.Pool) *PGStorage {
	return &PGStorage{queries: queries{db: pool}, pool: pool}
}

// Begin opens a read committed transaction. Flight rows read through it are
// locked FOR UPDATE, so two bookings for the same flight serialize on the row.
func (s *PGStorage) Begin(ctx context.Context) (repository.Tx, error) {
	if err := repository.EnsureNoTx(ctx); err != nil {
		return nil, err
	}
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	return &pgTx{queries: queries{db: tx, lockRows: true}, tx: tx}, nil
}

func (s *PGStorage) Close() error {
	s.pool.Close()
	return nil
}

type pgTx struct {
	queries
	tx   pgx.Tx
	done bool
}

func (t *pgTx) Commit(ctx context.Context) error {
	if t.done {
		return repository.ErrTxDone
	}
	t.done = true
	if err := t.tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (t *pgTx) Rollback(ctx context.Context) error {
	if t.done {
		return repository.ErrTxDone
	}
	t.done = true
	if err := t.tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return fmt.Errorf("rollback tx: %w", err)
	}
	return nil
}

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// translate maps driver errors onto the repository sentinels.
func translate(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, repository.ErrNotFound)
	}
	switch pgCode(err) {
	case "23505":
		return fmt.Errorf("%s: %w", op, repository.ErrUniqueViolation)
	case "23503":
		return fmt.Errorf("%s: %w", op, repository.ErrForeignKey)
	case "23514":
		return fmt.Errorf("%s: %w", op, repository.ErrSeatBounds)
	}
	return fmt.Errorf("%s: %w", op, err)
}

var (
	_ repository.Storage = (*PGStorage)(nil)
	_ repository.Tx      = (*pgTx)(nil)
)
