// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"codeberg.org/oliverandrich/bitsybay/internal/repository"
	"codeberg.org/oliverandrich/bitsybay/internal/services/account"
	"codeberg.org/oliverandrich/bitsybay/internal/services/password"
	"github.com/labstack/echo/v4"
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error    string             `json:"error"`
	Field    string             `json:"field,omitempty"`
	Problems []password.Problem `json:"problems,omitempty"`
}

func badRequest(c echo.Context, message string) error {
	return c.JSON(http.StatusBadRequest, errorBody{Error: message})
}

// respondError maps service and store errors to a status code. Unexpected
// errors are logged and answered with a generic 500.
func respondError(c echo.Context, err error) error {
	var dup *repository.DuplicateError
	var invalid *password.ValidationError

	switch {
	case errors.As(err, &dup):
		msg := "already in use"
		if dup.Field != "" {
			msg = dup.Field + " already in use"
		}
		return c.JSON(http.StatusConflict, errorBody{Error: msg, Field: dup.Field})
	case errors.As(err, &invalid):
		return c.JSON(http.StatusBadRequest, errorBody{Error: invalid.Error(), Field: "password", Problems: invalid.Problems})
	case errors.Is(err, password.ErrEmptyPassword):
		return c.JSON(http.StatusBadRequest, errorBody{Error: err.Error(), Field: "password"})
	case errors.Is(err, account.ErrInvalidInput):
		return badRequest(c, err.Error())
	case errors.Is(err, account.ErrAuthFailure):
		return c.JSON(http.StatusUnauthorized, errorBody{Error: err.Error()})
	case errors.Is(err, account.ErrAccountInactive):
		return c.JSON(http.StatusForbidden, errorBody{Error: err.Error()})
	case errors.Is(err, account.ErrTooManyAttempts):
		return c.JSON(http.StatusTooManyRequests, errorBody{Error: err.Error()})
	case errors.Is(err, repository.ErrNotFound):
		return c.JSON(http.StatusNotFound, errorBody{Error: "not found"})
	}

	slog.ErrorContext(c.Request().Context(), "request_failed",
		"method", c.Request().Method,
		"path", c.Path(),
		"error", err,
	)
	return c.JSON(http.StatusInternalServerError, errorBody{Error: "internal server error"})
}
