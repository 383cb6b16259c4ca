// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package handlers implements the JSON account API.
package handlers

import (
	"log/slog"
	"net/http"

	"codeberg.org/oliverandrich/bitsybay/internal/repository"
	"codeberg.org/oliverandrich/bitsybay/internal/services/account"
	"codeberg.org/oliverandrich/bitsybay/internal/services/email"
	"codeberg.org/oliverandrich/bitsybay/internal/services/password"
	"codeberg.org/oliverandrich/bitsybay/internal/services/session"
	"github.com/labstack/echo/v4"
)

// Handlers contains all HTTP handlers.
type Handlers struct {
	repo      *repository.Repository
	accounts  *account.Service
	mail      *email.Service
	sessions  *session.Manager
	validator *password.Validator
}

// New creates a new Handlers instance. A nil validator selects
// password.DefaultValidator().
func New(repo *repository.Repository, accounts *account.Service, mail *email.Service, sessions *session.Manager, validator *password.Validator) *Handlers {
	if validator == nil {
		validator = password.DefaultValidator()
	}
	return &Handlers{
		repo:      repo,
		accounts:  accounts,
		mail:      mail,
		sessions:  sessions,
		validator: validator,
	}
}

// Health reports whether the database answers.
func (h *Handlers) Health(c echo.Context) error {
	if err := h.repo.Ping(c.Request().Context()); err != nil {
		slog.ErrorContext(c.Request().Context(), "health_check_failed", "error", err)
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status": "unavailable",
		})
	}
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// Stats returns the number of accounts and sellers.
func (h *Handlers) Stats(c echo.Context) error {
	stats, err := h.accounts.Stats(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, stats)
}
