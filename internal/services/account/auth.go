// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package account

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"codeberg.org/oliverandrich/bitsybay/internal/metrics"
	"codeberg.org/oliverandrich/bitsybay/internal/models"
	"codeberg.org/oliverandrich/bitsybay/internal/repository"
)

// Authenticate signs in with a username, or with the primary email when
// login contains "@". Failures are recorded against the trimmed login;
// email logins are case-folded first so every spelling shares one counter.
//
// Once the failures for login within the lockout window reach the attempt
// limit the password is not checked at all and ErrTooManyAttempts is
// returned. An unknown login and a wrong password both return
// ErrAuthFailure. An inactive account is only reported after its password
// was verified. On success the login's attempts are pruned and a credential
// of an outdated scheme is rehashed.
func (s *Service) Authenticate(ctx context.Context, login, raw, ip string) (*models.Account, error) {
	login = normalizeLogin(login)

	if s.opts.AttemptLimit > 0 {
		window := s.opts.LockoutWindow
		if window <= 0 {
			window = DefaultLockoutWindow
		}
		count, err := s.ledger.CountRecent(ctx, login, window)
		if err != nil {
			s.metrics.Login(metrics.LoginError)
			slog.Error("login_failed", "login", login, "reason", "store_error", "error", err)
			return nil, err
		}
		if count >= s.opts.AttemptLimit {
			s.metrics.Login(metrics.LoginLocked)
			slog.Warn("login_failed", "login", login, "ip", ip, "reason", "too_many_attempts", "attempts", count)
			return nil, ErrTooManyAttempts
		}
	}

	acc, err := s.lookup(ctx, login)
	if errors.Is(err, repository.ErrNotFound) {
		s.hashers.Burn(raw)
		return nil, s.fail(ctx, login, ip, "user_not_found")
	}
	if err != nil {
		s.metrics.Login(metrics.LoginError)
		slog.Error("login_failed", "login", login, "reason", "store_error", "error", err)
		return nil, err
	}

	cred := credentialOf(acc)
	if !s.hashers.Verify(raw, cred) {
		return nil, s.fail(ctx, login, ip, "invalid_password")
	}

	if !acc.IsActive() {
		s.metrics.Login(metrics.LoginInactive)
		slog.Warn("login_failed", "user_id", acc.ID, "reason", "inactive")
		return nil, ErrAccountInactive
	}

	pruned, err := s.ledger.Prune(ctx, login, s.opts.AttemptRetentionDays)
	if err != nil {
		// the login itself succeeded
		slog.Warn("attempts_prune_failed", "login", login, "error", err)
	}
	s.metrics.AttemptsPruned(pruned)

	if s.hashers.NeedsRehash(cred) {
		s.rehash(ctx, acc.ID, raw)
	}

	s.metrics.Login(metrics.LoginSuccess)
	slog.Info("login_success", "user_id", acc.ID, "ip", ip)
	return acc, nil
}

func normalizeLogin(login string) string {
	login = strings.TrimSpace(login)
	if strings.Contains(login, "@") {
		return repository.NormalizeEmail(login)
	}
	return login
}

func (s *Service) lookup(ctx context.Context, login string) (*models.Account, error) {
	if login == "" {
		return nil, repository.ErrNotFound
	}
	if strings.Contains(login, "@") {
		return s.repo.GetAccountByEmail(ctx, login)
	}
	return s.repo.GetAccountByUsername(ctx, login)
}

// fail records the attempt and returns ErrAuthFailure. A ledger error is
// logged but does not change the result for the caller.
func (s *Service) fail(ctx context.Context, login, ip, reason string) error {
	if _, err := s.ledger.Record(ctx, login, ip); err != nil {
		slog.Error("attempt_record_failed", "login", login, "error", err)
	}
	s.metrics.Login(metrics.LoginFailed)
	slog.Warn("login_failed", "login", login, "ip", ip, "reason", reason)
	return ErrAuthFailure
}
