// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package account

import (
	"context"
	"log/slog"

	"codeberg.org/oliverandrich/bitsybay/internal/models"
	"codeberg.org/oliverandrich/bitsybay/internal/repository"
)

// EmailState is the result of registering an address.
type EmailState struct {
	// Approved is the approval state of the row before the call.
	Approved bool
	// Created is true when a new pending row was inserted.
	Created bool
	// Code approves a pending row. It is the given code for a new row and
	// the stored one for an existing row, empty once approved.
	Code string
}

// registerEmail adds the address through repo and resolves the code that
// approves it.
func registerEmail(ctx context.Context, repo *repository.Repository, accountID int64, email, code string) (EmailState, error) {
	approved, created, err := repo.AddEmail(ctx, accountID, email, code)
	if err != nil {
		return EmailState{}, err
	}
	state := EmailState{Approved: approved, Created: created}
	switch {
	case created:
		state.Code = code
	case !approved:
		row, err := repo.GetEmail(ctx, accountID, email)
		if err != nil {
			return EmailState{}, err
		}
		state.Code = row.ApprovalCode
	}
	return state, nil
}

// UsernameExists reports an exact username match.
func (s *Service) UsernameExists(ctx context.Context, username string) (bool, error) {
	return s.repo.UsernameExists(ctx, username)
}

// EmailExists reports whether the case-folded address is used as a primary
// or a secondary email by any account.
func (s *Service) EmailExists(ctx context.Context, email string) (bool, error) {
	return s.repo.EmailExists(ctx, email)
}

// AddSecondaryEmail registers email for an account. Repeating the call for
// the same pair changes nothing and returns the current state, including
// the stored code of a pending row. An address owned by another account
// yields a *repository.DuplicateError.
func (s *Service) AddSecondaryEmail(ctx context.Context, accountID int64, email, code string) (EmailState, error) {
	state, err := registerEmail(ctx, s.repo, accountID, email, code)
	if err != nil {
		return EmailState{}, err
	}
	if state.Created {
		slog.Info("email_added", "user_id", accountID, "email", repository.NormalizeEmail(email))
	}
	return state, nil
}

// ApproveSecondaryEmail approves email when account and code match and
// returns the affected rows. The code is cleared, so it works once.
// Approving the account's primary address marks the account verified.
func (s *Service) ApproveSecondaryEmail(ctx context.Context, accountID int64, email, code string) (int64, error) {
	var n int64
	err := s.repo.InTx(ctx, func(tx *repository.Repository) error {
		var err error
		n, err = tx.ApproveEmail(ctx, accountID, email, code)
		if err != nil || n == 0 {
			return err
		}

		acc, err := tx.GetAccountByID(ctx, accountID)
		if err != nil {
			return err
		}
		if acc.Email == repository.NormalizeEmail(email) && !acc.Verified {
			if _, err := tx.MarkVerified(ctx, accountID); err != nil {
				return err
			}
			slog.Info("account_verified", "user_id", accountID)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	if n > 0 {
		s.metrics.EmailApproved()
		slog.Info("email_approved", "user_id", accountID, "email", repository.NormalizeEmail(email))
	}
	return n, nil
}

// ListEmails returns every registered address of an account.
func (s *Service) ListEmails(ctx context.Context, accountID int64) ([]models.UserEmail, error) {
	return s.repo.GetEmails(ctx, accountID)
}
