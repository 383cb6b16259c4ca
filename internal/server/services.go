// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package server

import (
	"fmt"
	"time"

	"codeberg.org/oliverandrich/bitsybay/internal/config"
	"codeberg.org/oliverandrich/bitsybay/internal/metrics"
	"codeberg.org/oliverandrich/bitsybay/internal/repository"
	"codeberg.org/oliverandrich/bitsybay/internal/services/account"
	"codeberg.org/oliverandrich/bitsybay/internal/services/attempts"
	"codeberg.org/oliverandrich/bitsybay/internal/services/password"
)

// NewHashers builds the password registry. New credentials use the
// configured scheme; every known scheme stays verifiable.
func NewHashers(cfg *config.AccountsConfig) (*password.Registry, error) {
	scheme, err := password.ParseScheme(cfg.PasswordScheme)
	if err != nil {
		return nil, err
	}
	return password.NewRegistry(scheme, password.LegacySHA1{}, password.Bcrypt{Cost: cfg.BcryptCost})
}

// AccountOptions converts the account settings.
func AccountOptions(cfg *config.AccountsConfig) account.Options {
	return account.Options{
		NewUserStatus:        int64(cfg.NewUserStatus),
		NewUserVerified:      cfg.NewUserVerified,
		DefaultQuotaMB:       int64(cfg.DefaultQuotaMB),
		QuotaBonusMB:         int64(cfg.QuotaBonusMB),
		AttemptLimit:         int64(cfg.LoginAttemptLimit),
		LockoutWindow:        time.Duration(cfg.LockoutWindowMinutes) * time.Minute,
		AttemptRetentionDays: cfg.AttemptRetentionDays,
	}
}

// NewAccountService wires the account service from configuration. m may
// be nil for commands that do not export metrics.
func NewAccountService(cfg *config.AccountsConfig, repo *repository.Repository, m *metrics.Metrics) (*account.Service, error) {
	hashers, err := NewHashers(cfg)
	if err != nil {
		return nil, fmt.Errorf("invalid password settings: %w", err)
	}
	return account.NewService(repo, hashers, attempts.NewLedger(repo), m, AccountOptions(cfg)), nil
}
