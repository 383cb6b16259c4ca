// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"

	"codeberg.org/oliverandrich/bitsybay/internal/models"
)

const accountColumns = `user_id, username, email, salt, password, password_scheme, file_quota,
	status, verified, buyer, seller, date_added, date_modified`

// CreateAccount inserts a new account and fills in its ID and DateAdded.
// A username or email clash yields a *DuplicateError.
func (r *Repository) CreateAccount(ctx context.Context, acc *models.Account) error {
	acc.Email = NormalizeEmail(acc.Email)
	acc.DateAdded = r.now()

	return r.get(ctx, &acc.ID,
		`INSERT INTO "user" (username, email, salt, password, password_scheme, file_quota,
		                     status, verified, buyer, seller, date_added)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 RETURNING user_id`,
		acc.Username, acc.Email, acc.Salt, acc.Password, acc.PasswordScheme, acc.FileQuota,
		acc.Status, acc.Verified, acc.Buyer, acc.Seller, acc.DateAdded)
}

// GetAccountByID retrieves an account regardless of its status.
func (r *Repository) GetAccountByID(ctx context.Context, id int64) (*models.Account, error) {
	var acc models.Account
	if err := r.get(ctx, &acc, `SELECT `+accountColumns+` FROM "user" WHERE user_id = ?`, id); err != nil {
		return nil, err
	}
	return &acc, nil
}

// GetActiveAccount retrieves an account only if its status is active.
func (r *Repository) GetActiveAccount(ctx context.Context, id int64) (*models.Account, error) {
	var acc models.Account
	err := r.get(ctx, &acc,
		`SELECT `+accountColumns+` FROM "user" WHERE user_id = ? AND status = ?`,
		id, models.StatusActive)
	if err != nil {
		return nil, err
	}
	return &acc, nil
}

// GetAccountByUsername retrieves an account by exact username.
func (r *Repository) GetAccountByUsername(ctx context.Context, username string) (*models.Account, error) {
	var acc models.Account
	if err := r.get(ctx, &acc, `SELECT `+accountColumns+` FROM "user" WHERE username = ?`, username); err != nil {
		return nil, err
	}
	return &acc, nil
}

// GetAccountByEmail retrieves an account by its primary email.
func (r *Repository) GetAccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	var acc models.Account
	err := r.get(ctx, &acc, `SELECT `+accountColumns+` FROM "user" WHERE email = ?`, NormalizeEmail(email))
	if err != nil {
		return nil, err
	}
	return &acc, nil
}

// UsernameExists checks if an account with the given username exists.
func (r *Repository) UsernameExists(ctx context.Context, username string) (bool, error) {
	return r.exists(ctx, `SELECT 1 FROM "user" WHERE username = ? LIMIT 1`, username)
}

// EmailExists checks the primary addresses first and the secondary
// addresses only when the primary table has no match.
func (r *Repository) EmailExists(ctx context.Context, email string) (bool, error) {
	email = NormalizeEmail(email)

	found, err := r.exists(ctx, `SELECT 1 FROM "user" WHERE email = ? LIMIT 1`, email)
	if err != nil || found {
		return found, err
	}

	return r.exists(ctx, `SELECT 1 FROM user_email WHERE email = ? LIMIT 1`, email)
}

// UpdateAccount sets username and email and, when pw is not nil, rotates
// the stored credential. It returns the number of affected rows.
func (r *Repository) UpdateAccount(ctx context.Context, id int64, username, email string, pw *PasswordHash) (int64, error) {
	email = NormalizeEmail(email)

	if pw == nil {
		return r.exec(ctx,
			`UPDATE "user" SET username = ?, email = ?, date_modified = ? WHERE user_id = ?`,
			username, email, r.now(), id)
	}

	return r.exec(ctx,
		`UPDATE "user" SET username = ?, email = ?, salt = ?, password = ?, password_scheme = ?, date_modified = ?
		 WHERE user_id = ?`,
		username, email, pw.Salt, pw.Hash, pw.Scheme, r.now(), id)
}

// UpdatePassword replaces the stored credential of an account.
func (r *Repository) UpdatePassword(ctx context.Context, id int64, pw PasswordHash) (int64, error) {
	return r.exec(ctx,
		`UPDATE "user" SET salt = ?, password = ?, password_scheme = ?, date_modified = ? WHERE user_id = ?`,
		pw.Salt, pw.Hash, pw.Scheme, r.now(), id)
}

// ResetPasswordByEmail replaces the credential of the account owning the
// given primary email.
func (r *Repository) ResetPasswordByEmail(ctx context.Context, email string, pw PasswordHash) (int64, error) {
	return r.exec(ctx,
		`UPDATE "user" SET salt = ?, password = ?, password_scheme = ?, date_modified = ? WHERE email = ?`,
		pw.Salt, pw.Hash, pw.Scheme, r.now(), NormalizeEmail(email))
}

// AddQuotaBonus adds bonus megabytes to the stored file quota.
func (r *Repository) AddQuotaBonus(ctx context.Context, id, bonus int64) (int64, error) {
	return r.exec(ctx, `UPDATE "user" SET file_quota = file_quota + ? WHERE user_id = ?`, bonus, id)
}

// MarkVerified flags an account as verified.
func (r *Repository) MarkVerified(ctx context.Context, id int64) (int64, error) {
	return r.exec(ctx, `UPDATE "user" SET verified = ?, date_modified = ? WHERE user_id = ?`, true, r.now(), id)
}

// SetStatus changes the account status (active, inactive).
func (r *Repository) SetStatus(ctx context.Context, id, status int64) (int64, error) {
	return r.exec(ctx, `UPDATE "user" SET status = ?, date_modified = ? WHERE user_id = ?`, status, r.now(), id)
}

// CountUsers returns the total number of accounts.
func (r *Repository) CountUsers(ctx context.Context) (int64, error) {
	var count int64
	if err := r.get(ctx, &count, `SELECT COUNT(*) FROM "user"`); err != nil {
		return 0, err
	}
	return count, nil
}

// CountSellers returns the number of accounts flagged as sellers.
func (r *Repository) CountSellers(ctx context.Context) (int64, error) {
	var count int64
	if err := r.get(ctx, &count, `SELECT COUNT(*) FROM "user" WHERE seller = ?`, true); err != nil {
		return 0, err
	}
	return count, nil
}
