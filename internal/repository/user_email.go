// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"
	"errors"

	"codeberg.org/oliverandrich/bitsybay/internal/models"
)

// AddEmail registers an address for an account. If the (account, email)
// pair already exists its approval state is returned untouched and created
// is false. Otherwise a new unapproved row carrying code is inserted.
// An address owned by another account yields a *DuplicateError.
func (r *Repository) AddEmail(ctx context.Context, userID int64, email, code string) (approved, created bool, err error) {
	email = NormalizeEmail(email)

	approved, err = r.emailApproval(ctx, userID, email)
	if err == nil {
		return approved, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return false, false, err
	}

	// ON CONFLICT keeps a concurrent insert from aborting an outer transaction.
	n, err := r.exec(ctx,
		`INSERT INTO user_email (user_id, email, approved, approval_code, date_added)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (email) DO NOTHING`,
		userID, email, false, code, r.now())
	if err != nil {
		return false, false, err
	}
	if n == 1 {
		return false, true, nil
	}

	approved, err = r.emailApproval(ctx, userID, email)
	if errors.Is(err, ErrNotFound) {
		return false, false, &DuplicateError{Field: "email"}
	}
	if err != nil {
		return false, false, err
	}
	return approved, false, nil
}

func (r *Repository) emailApproval(ctx context.Context, userID int64, email string) (bool, error) {
	var approved bool
	err := r.get(ctx, &approved,
		`SELECT approved FROM user_email WHERE user_id = ? AND email = ? LIMIT 1`, userID, email)
	return approved, err
}

// ApproveEmail approves an address when account, email and code all match
// and clears the code so it cannot be replayed. It returns affected rows.
func (r *Repository) ApproveEmail(ctx context.Context, userID int64, email, code string) (int64, error) {
	if code == "" {
		return 0, nil
	}
	return r.exec(ctx,
		`UPDATE user_email SET approved = ?, approval_code = ''
		 WHERE user_id = ? AND email = ? AND approval_code = ?`,
		true, userID, NormalizeEmail(email), code)
}

// GetEmails returns all addresses registered for an account.
func (r *Repository) GetEmails(ctx context.Context, userID int64) ([]models.UserEmail, error) {
	emails := []models.UserEmail{}
	err := r.selectAll(ctx, &emails,
		`SELECT user_email_id, user_id, email, approved, approval_code, date_added
		 FROM user_email WHERE user_id = ? ORDER BY user_email_id`, userID)
	if err != nil {
		return nil, err
	}
	return emails, nil
}

// GetEmail returns a single registered address of an account.
func (r *Repository) GetEmail(ctx context.Context, userID int64, email string) (*models.UserEmail, error) {
	var e models.UserEmail
	err := r.get(ctx, &e,
		`SELECT user_email_id, user_id, email, approved, approval_code, date_added
		 FROM user_email WHERE user_id = ? AND email = ?`, userID, NormalizeEmail(email))
	if err != nil {
		return nil, err
	}
	return &e, nil
}
