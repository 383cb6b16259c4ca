// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"codeberg.org/oliverandrich/bitsybay/internal/database"
	"github.com/vinovest/sqlx"
)

var (
	// ErrNotFound is returned when a record is not found.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique username or email already exists.
	ErrDuplicate = errors.New("duplicate identity")
	// ErrStore wraps every other persistence failure.
	ErrStore = errors.New("store failure")
)

// DuplicateError reports which identity field collided.
type DuplicateError struct {
	Field string // "username", "email" or empty if the driver did not say
}

func (e *DuplicateError) Error() string {
	if e.Field == "" {
		return ErrDuplicate.Error()
	}
	return fmt.Sprintf("%s: %s", ErrDuplicate, e.Field)
}

func (e *DuplicateError) Unwrap() error { return ErrDuplicate }

// PasswordHash is a stored credential as produced by a password hasher.
type PasswordHash struct {
	Salt   string
	Hash   string
	Scheme int
}

// Repository runs parameterized SQL against the account tables.
type Repository struct {
	db  *sqlx.DB        // nil inside a transaction
	q   sqlx.ExtContext // db or the current tx
	now func() time.Time
}

// New creates a new Repository instance.
func New(db *sqlx.DB) *Repository {
	return &Repository{
		db:  db,
		q:   db,
		now: func() time.Time { return time.Now().UTC() },
	}
}

// WithClock returns a copy of the repository that stamps rows with now.
func (r *Repository) WithClock(now func() time.Time) *Repository {
	cp := *r
	cp.now = func() time.Time { return now().UTC() }
	return &cp
}

// DB returns the underlying connection pool.
func (r *Repository) DB() *sqlx.DB {
	return r.db
}

// Ping checks that the store is reachable.
func (r *Repository) Ping(ctx context.Context) error {
	if r.db == nil {
		return nil
	}
	return wrapError(r.db.PingContext(ctx))
}

// InTx runs fn inside a single transaction. Calls made through the
// repository handed to fn share that transaction; nested calls reuse it.
func (r *Repository) InTx(ctx context.Context, fn func(tx *Repository) error) error {
	if r.db == nil {
		return fn(r)
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return wrapError(err)
	}

	txRepo := &Repository{q: tx, now: r.now}
	if err := fn(txRepo); err != nil {
		_ = tx.Rollback()
		return err
	}

	return wrapError(tx.Commit())
}

func (r *Repository) rebind(query string) string {
	return r.q.Rebind(query)
}

func (r *Repository) get(ctx context.Context, dest any, query string, args ...any) error {
	return wrapError(sqlx.GetContext(ctx, r.q, dest, r.rebind(query), args...))
}

func (r *Repository) selectAll(ctx context.Context, dest any, query string, args ...any) error {
	return wrapError(sqlx.SelectContext(ctx, r.q, dest, r.rebind(query), args...))
}

// exec runs a statement and returns the affected row count.
func (r *Repository) exec(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := r.q.ExecContext(ctx, r.rebind(query), args...)
	if err != nil {
		return 0, wrapError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, wrapError(err)
	}
	return n, nil
}

// exists runs a SELECT 1 ... LIMIT 1 style query.
func (r *Repository) exists(ctx context.Context, query string, args ...any) (bool, error) {
	var one int
	err := r.get(ctx, &one, query, args...)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// wrapError converts driver errors to repository errors.
func wrapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrDuplicate) || errors.Is(err, ErrStore) {
		return err
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if field, ok := database.UniqueViolation(err); ok {
		return &DuplicateError{Field: field}
	}
	return fmt.Errorf("%w: %w", ErrStore, err)
}

// NormalizeEmail case-folds an address the way it is stored.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
