// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package account

import (
	"context"
	"errors"
	"log/slog"

	"codeberg.org/oliverandrich/bitsybay/internal/repository"
	"codeberg.org/oliverandrich/bitsybay/internal/services/password"
)

// HashPassword creates a credential for raw with the configured scheme.
func (s *Service) HashPassword(raw string) (password.Credential, error) {
	return s.hashers.Hash(raw)
}

// VerifyPassword checks raw against the stored credential of an account of
// any status. It returns nil on a match and ErrAuthFailure when the account
// is missing or the password is wrong. A store failure is returned wrapped
// in repository.ErrStore, never as ErrAuthFailure.
func (s *Service) VerifyPassword(ctx context.Context, accountID int64, raw string) error {
	acc, err := s.repo.GetAccountByID(ctx, accountID)
	if errors.Is(err, repository.ErrNotFound) {
		s.hashers.Burn(raw)
		return ErrAuthFailure
	}
	if err != nil {
		slog.Error("verify_password_failed", "user_id", accountID, "error", err)
		return err
	}

	if !s.hashers.Verify(raw, credentialOf(acc)) {
		return ErrAuthFailure
	}
	return nil
}

// rehash upgrades a legacy credential after a successful verification.
// Failure is logged and otherwise ignored; the old credential stays valid.
func (s *Service) rehash(ctx context.Context, accountID int64, raw string) {
	cred, err := s.hashers.Hash(raw)
	if err != nil {
		slog.Warn("rehash_failed", "user_id", accountID, "error", err)
		return
	}
	if _, err := s.repo.UpdatePassword(ctx, accountID, toPasswordHash(cred)); err != nil {
		slog.Warn("rehash_failed", "user_id", accountID, "error", err)
		return
	}
	slog.Info("password_rehashed", "user_id", accountID, "scheme", cred.Scheme.String())
}
