// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package account implements credential checks, identity uniqueness and
// the create/update lifecycle of marketplace accounts.
package account

import (
	"errors"
	"time"

	"codeberg.org/oliverandrich/bitsybay/internal/metrics"
	"codeberg.org/oliverandrich/bitsybay/internal/models"
	"codeberg.org/oliverandrich/bitsybay/internal/repository"
	"codeberg.org/oliverandrich/bitsybay/internal/services/attempts"
	"codeberg.org/oliverandrich/bitsybay/internal/services/password"
)

var (
	// ErrAuthFailure merges unknown account and wrong password.
	ErrAuthFailure     = errors.New("invalid credentials")
	ErrTooManyAttempts = errors.New("too many failed login attempts")
	ErrAccountInactive = errors.New("account is inactive")
	ErrInvalidInput    = errors.New("username and email are required")
)

// DefaultLockoutWindow is how long failed attempts count towards the
// lockout.
const DefaultLockoutWindow = 15 * time.Minute

// Options are the account tunables read from configuration.
type Options struct {
	NewUserStatus   int64
	NewUserVerified bool
	DefaultQuotaMB  int64
	QuotaBonusMB    int64
	// AttemptLimit is the number of stored failures that locks a login.
	// Zero disables the lockout.
	AttemptLimit int64
	// LockoutWindow limits the failures counted against AttemptLimit to
	// the most recent ones. Zero selects DefaultLockoutWindow.
	LockoutWindow time.Duration
	// AttemptRetentionDays is passed to the ledger on successful logins.
	AttemptRetentionDays int
}

// DefaultOptions mirrors the marketplace defaults for new accounts.
func DefaultOptions() Options {
	return Options{
		NewUserStatus:        models.StatusActive,
		NewUserVerified:      false,
		DefaultQuotaMB:       100,
		QuotaBonusMB:         1,
		AttemptLimit:         10,
		LockoutWindow:        DefaultLockoutWindow,
		AttemptRetentionDays: attempts.DefaultMaxAgeDays,
	}
}

type Service struct {
	repo    *repository.Repository
	hashers *password.Registry
	ledger  *attempts.Ledger
	metrics *metrics.Metrics
	opts    Options
}

// NewService wires the account service. A nil registry selects
// password.Default(); m may be nil.
func NewService(repo *repository.Repository, hashers *password.Registry, ledger *attempts.Ledger, m *metrics.Metrics, opts Options) *Service {
	if hashers == nil {
		hashers = password.Default()
	}
	if ledger == nil {
		ledger = attempts.NewLedger(repo)
	}
	return &Service{
		repo:    repo,
		hashers: hashers,
		ledger:  ledger,
		metrics: m,
		opts:    opts,
	}
}

// Options returns the tunables the service was built with.
func (s *Service) Options() Options {
	return s.opts
}

// Ledger returns the login attempt ledger used by Authenticate.
func (s *Service) Ledger() *attempts.Ledger {
	return s.ledger
}

func toPasswordHash(c password.Credential) repository.PasswordHash {
	return repository.PasswordHash{Salt: c.Salt, Hash: c.Hash, Scheme: int(c.Scheme)}
}

func credentialOf(acc *models.Account) password.Credential {
	return password.Credential{
		Scheme: password.Scheme(acc.PasswordScheme),
		Salt:   acc.Salt,
		Hash:   acc.Password,
	}
}
