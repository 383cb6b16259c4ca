// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package middleware holds the echo middleware of the account API.
package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"codeberg.org/oliverandrich/bitsybay/internal/auth"
	"codeberg.org/oliverandrich/bitsybay/internal/models"
	"codeberg.org/oliverandrich/bitsybay/internal/repository"
	"codeberg.org/oliverandrich/bitsybay/internal/services/session"
	"github.com/labstack/echo/v4"
)

// AccountLoader loads an active account by ID.
type AccountLoader interface {
	GetAccount(ctx context.Context, id int64) (*models.Account, error)
}

// LoadAccount resolves the session cookie to an account and stores it in
// the request context. Sessions of deleted or deactivated accounts are
// treated as anonymous.
func LoadAccount(sessions *session.Manager, loader AccountLoader) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			r := c.Request()
			data, err := sessions.Parse(r)
			if err != nil {
				slog.WarnContext(r.Context(), "session_parse_failed", "error", err)
			}
			if data == nil {
				return next(c)
			}

			acc, err := loader.GetAccount(r.Context(), data.UserID)
			switch {
			case errors.Is(err, repository.ErrNotFound):
				return next(c)
			case err != nil:
				return err
			}

			c.SetRequest(r.WithContext(auth.WithAccount(r.Context(), acc)))
			return next(c)
		}
	}
}

// RequireAuth rejects anonymous requests with 401.
func RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !auth.IsAuthenticated(c.Request().Context()) {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		}
		return next(c)
	}
}
