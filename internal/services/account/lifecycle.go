// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package account

import (
	"context"
	"log/slog"
	"strings"

	"codeberg.org/oliverandrich/bitsybay/internal/models"
	"codeberg.org/oliverandrich/bitsybay/internal/repository"
)

// CreateParams holds the fields of a new account.
type CreateParams struct {
	Username     string
	Email        string
	Password     string
	Buyer        bool
	Seller       bool
	Status       int64
	Verified     bool
	QuotaMB      int64
	ApprovalCode string
}

// UpdateParams holds the editable fields of an account. An empty Password
// keeps the stored credential.
type UpdateParams struct {
	ID           int64
	Username     string
	Email        string
	Password     string
	ApprovalCode string
}

// Stats are public marketplace totals.
type Stats struct {
	Users   int64 `json:"users"`
	Sellers int64 `json:"sellers"`
}

// NewCreateParams fills status, verified flag and quota from the service
// options.
func (s *Service) NewCreateParams(username, email, raw, code string) CreateParams {
	return CreateParams{
		Username:     username,
		Email:        email,
		Password:     raw,
		Buyer:        true,
		Status:       s.opts.NewUserStatus,
		Verified:     s.opts.NewUserVerified,
		QuotaMB:      s.opts.DefaultQuotaMB,
		ApprovalCode: code,
	}
}

// CreateAccount hashes the password, inserts the account and registers its
// email as a pending address carrying the same approval code. Both rows are
// written in one transaction; a username or email clash returns a
// *repository.DuplicateError and leaves nothing behind.
func (s *Service) CreateAccount(ctx context.Context, p CreateParams) (int64, error) {
	if strings.TrimSpace(p.Username) == "" || strings.TrimSpace(p.Email) == "" {
		return 0, ErrInvalidInput
	}

	cred, err := s.hashers.Hash(p.Password)
	if err != nil {
		return 0, err
	}

	acc := &models.Account{
		Username:       p.Username,
		Email:          p.Email,
		Salt:           cred.Salt,
		Password:       cred.Hash,
		PasswordScheme: int(cred.Scheme),
		FileQuota:      p.QuotaMB,
		Status:         p.Status,
		Verified:       p.Verified,
		Buyer:          p.Buyer,
		Seller:         p.Seller,
	}

	err = s.repo.InTx(ctx, func(tx *repository.Repository) error {
		if err := tx.CreateAccount(ctx, acc); err != nil {
			return err
		}
		_, _, err := tx.AddEmail(ctx, acc.ID, acc.Email, p.ApprovalCode)
		return err
	})
	if err != nil {
		slog.Warn("account_create_failed", "username", p.Username, "error", err)
		return 0, err
	}

	s.metrics.AccountCreated()
	slog.Info("account_created", "user_id", acc.ID, "username", acc.Username)
	return acc.ID, nil
}

// UpdateAccount registers the (possibly unchanged) email as a pending
// address, then updates username and email and, when a password is given,
// rotates the credential. It returns the rows affected by the account
// update and the state of the email row.
func (s *Service) UpdateAccount(ctx context.Context, p UpdateParams) (int64, EmailState, error) {
	if strings.TrimSpace(p.Username) == "" || strings.TrimSpace(p.Email) == "" {
		return 0, EmailState{}, ErrInvalidInput
	}

	var pw *repository.PasswordHash
	if p.Password != "" {
		cred, err := s.hashers.Hash(p.Password)
		if err != nil {
			return 0, EmailState{}, err
		}
		h := toPasswordHash(cred)
		pw = &h
	}

	var (
		n     int64
		state EmailState
	)
	err := s.repo.InTx(ctx, func(tx *repository.Repository) error {
		// an unknown ID would otherwise surface as a foreign key failure
		if _, err := tx.GetAccountByID(ctx, p.ID); err != nil {
			return err
		}
		var err error
		if state, err = registerEmail(ctx, tx, p.ID, p.Email, p.ApprovalCode); err != nil {
			return err
		}
		n, err = tx.UpdateAccount(ctx, p.ID, p.Username, p.Email, pw)
		return err
	})
	if err != nil {
		slog.Warn("account_update_failed", "user_id", p.ID, "error", err)
		return 0, EmailState{}, err
	}

	slog.Info("account_updated", "user_id", p.ID, "password_changed", pw != nil)
	return n, state, nil
}

// GrantQuotaBonus adds bonusMB to the file quota. No bound is applied.
func (s *Service) GrantQuotaBonus(ctx context.Context, accountID, bonusMB int64) (int64, error) {
	n, err := s.repo.AddQuotaBonus(ctx, accountID, bonusMB)
	if err != nil {
		return 0, err
	}
	slog.Info("quota_bonus_granted", "user_id", accountID, "bonus_mb", bonusMB, "rows", n)
	return n, nil
}

// GetAccount returns an active account; inactive and missing accounts
// both yield repository.ErrNotFound.
func (s *Service) GetAccount(ctx context.Context, accountID int64) (*models.Account, error) {
	return s.repo.GetActiveAccount(ctx, accountID)
}

// ResetPassword replaces the credential of the account whose primary email
// matches and returns the affected rows.
func (s *Service) ResetPassword(ctx context.Context, email, raw string) (int64, error) {
	cred, err := s.hashers.Hash(raw)
	if err != nil {
		return 0, err
	}
	n, err := s.repo.ResetPasswordByEmail(ctx, email, toPasswordHash(cred))
	if err != nil {
		return 0, err
	}
	if n > 0 {
		slog.Info("password_reset", "email", repository.NormalizeEmail(email))
	}
	return n, nil
}

// Stats counts all accounts and seller accounts.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	users, err := s.repo.CountUsers(ctx)
	if err != nil {
		return Stats{}, err
	}
	sellers, err := s.repo.CountSellers(ctx)
	if err != nil {
		return Stats{}, err
	}
	return Stats{Users: users, Sellers: sellers}, nil
}
