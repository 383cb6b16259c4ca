// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package attempts records failed logins. It only stores and counts rows;
// lockout thresholds are decided by the caller.
package attempts

import (
	"context"
	"log/slog"
	"time"

	"codeberg.org/oliverandrich/bitsybay/internal/repository"
)

// DefaultMaxAgeDays is the retention used when Prune is given no age.
const DefaultMaxAgeDays = 365

type Ledger struct {
	repo *repository.Repository
	now  func() time.Time
}

func NewLedger(repo *repository.Repository) *Ledger {
	return &Ledger{
		repo: repo,
		now:  time.Now,
	}
}

// WithClock returns a copy of the ledger that reads the time from now.
func (l *Ledger) WithClock(now func() time.Time) *Ledger {
	return &Ledger{repo: l.repo, now: now}
}

// Record appends a failed attempt for login from ip and returns its ID.
func (l *Ledger) Record(ctx context.Context, login, ip string) (int64, error) {
	return l.repo.AddLoginAttempt(ctx, login, ip, l.now())
}

// Count returns all stored attempts for login.
func (l *Ledger) Count(ctx context.Context, login string) (int64, error) {
	return l.repo.CountLoginAttempts(ctx, login)
}

// CountRecent returns the attempts for login recorded within the last
// window.
func (l *Ledger) CountRecent(ctx context.Context, login string, window time.Duration) (int64, error) {
	return l.repo.CountLoginAttemptsSince(ctx, login, l.now().Add(-window))
}

// Prune deletes every attempt of login and, independently, every attempt
// of any login whose date is maxAgeDays or more days in the past. A
// successful login therefore also ages out unrelated rows store-wide.
// maxAgeDays <= 0 selects DefaultMaxAgeDays.
func (l *Ledger) Prune(ctx context.Context, login string, maxAgeDays int) (int64, error) {
	if maxAgeDays <= 0 {
		maxAgeDays = DefaultMaxAgeDays
	}

	n, err := l.repo.DeleteLoginAttempts(ctx, login, Cutoff(l.now(), maxAgeDays))
	if err != nil {
		return 0, err
	}

	slog.Debug("attempts_pruned", "login", login, "max_age_days", maxAgeDays, "deleted", n)
	return n, nil
}

// Cutoff returns the exclusive upper bound for aged rows: midnight UTC of
// the day following now minus days. Rows are compared by calendar date, so
// everything dated on that day or earlier is older than the threshold.
func Cutoff(now time.Time, days int) time.Time {
	return now.UTC().AddDate(0, 0, -days).Truncate(24 * time.Hour).Add(24 * time.Hour)
}
