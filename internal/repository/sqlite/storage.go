package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	"github.com/Domenick1991/airbooker/internal/repository"
	"github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Connection settings travel in the DSN rather than as PRAGMA statements so
// that a connection reopened by database/sql gets them too.
const dsnParams = "?_txlock=immediate&_foreign_keys=on&_busy_timeout=5000&_journal_mode=WAL&_synchronous=NORMAL"

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type queries struct {
	db querier
}

// Storage keeps flights and bookings in a SQLite file.
//
// The pool is capped at one connection, so an open transaction owns the
// database until it finishes and other callers wait their turn. Transactions
// start with BEGIN IMMEDIATE, taking the write lock before the seat check.
type Storage struct {
	queries
	db *sql.DB
}

// Open creates or opens the database at path and applies the schema.
// It is safe to call on an existing file.
func Open(path string) (*Storage, error) {
	db, err := sql.Open("sqlite3", path+dsnParams)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Storage{queries: queries{db: db}, db: db}, nil
}

func (s *Storage) Begin(ctx context.Context) (repository.Tx, error) {
	if err := repository.EnsureNoTx(ctx); err != nil {
		return nil, err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	return &sqliteTx{queries: queries{db: tx}, tx: tx}, nil
}

func (s *Storage) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

type sqliteTx struct {
	queries
	tx   *sql.Tx
	done bool
}

func (t *sqliteTx) Commit(ctx context.Context) error {
	if t.done {
		return repository.ErrTxDone
	}
	t.done = true
	if err := t.tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// Rollback treats sql.ErrTxDone as success: database/sql already rolled the
// transaction back when its context was cancelled.
func (t *sqliteTx) Rollback(ctx context.Context) error {
	if t.done {
		return repository.ErrTxDone
	}
	t.done = true
	if err := t.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return fmt.Errorf("rollback tx: %w", err)
	}
	return nil
}

func translate(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, repository.ErrNotFound)
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.ExtendedCode {
		case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
			return fmt.Errorf("%s: %w", op, repository.ErrUniqueViolation)
		case sqlite3.ErrConstraintForeignKey:
			return fmt.Errorf("%s: %w", op, repository.ErrForeignKey)
		case sqlite3.ErrConstraintCheck:
			return fmt.Errorf("%s: %w", op, repository.ErrSeatBounds)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

var (
	_ repository.Storage = (*Storage)(nil)
	_ repository.Tx      = (*sqliteTx)(nil)
)
