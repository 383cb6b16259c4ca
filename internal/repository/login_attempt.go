// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"
	"time"

	"codeberg.org/oliverandrich/bitsybay/internal/models"
)

// AddLoginAttempt appends a failed attempt and returns its ID.
func (r *Repository) AddLoginAttempt(ctx context.Context, login, ip string, at time.Time) (int64, error) {
	var id int64
	err := r.get(ctx, &id,
		`INSERT INTO login_attempt (login, ip, date_added) VALUES (?, ?, ?) RETURNING login_attempt_id`,
		login, ip, at.UTC())
	if err != nil {
		return 0, err
	}
	return id, nil
}

// CountLoginAttempts returns the number of stored attempts for a login.
func (r *Repository) CountLoginAttempts(ctx context.Context, login string) (int64, error) {
	var count int64
	if err := r.get(ctx, &count, `SELECT COUNT(*) FROM login_attempt WHERE login = ?`, login); err != nil {
		return 0, err
	}
	return count, nil
}

// CountLoginAttemptsSince returns the number of attempts for a login added
// at or after since.
func (r *Repository) CountLoginAttemptsSince(ctx context.Context, login string, since time.Time) (int64, error) {
	var count int64
	err := r.get(ctx, &count,
		`SELECT COUNT(*) FROM login_attempt WHERE login = ? AND date_added >= ?`, login, since.UTC())
	if err != nil {
		return 0, err
	}
	return count, nil
}

// DeleteLoginAttempts removes every attempt for login together with every
// attempt, of any login, added before cutoff.
func (r *Repository) DeleteLoginAttempts(ctx context.Context, login string, cutoff time.Time) (int64, error) {
	return r.exec(ctx, `DELETE FROM login_attempt WHERE login = ? OR date_added < ?`, login, cutoff.UTC())
}

// GetLoginAttempts lists the attempts for a login, newest first.
func (r *Repository) GetLoginAttempts(ctx context.Context, login string) ([]models.LoginAttempt, error) {
	attempts := []models.LoginAttempt{}
	err := r.selectAll(ctx, &attempts,
		`SELECT login_attempt_id, login, ip, date_added FROM login_attempt
		 WHERE login = ? ORDER BY date_added DESC, login_attempt_id DESC`, login)
	if err != nil {
		return nil, err
	}
	return attempts, nil
}
