// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package auth provides authentication context helpers.
package auth

import (
	"context"

	"codeberg.org/oliverandrich/bitsybay/internal/ctxkeys"
	"codeberg.org/oliverandrich/bitsybay/internal/models"
)

// WithAccount returns a copy of ctx carrying the signed-in account.
func WithAccount(ctx context.Context, acc *models.Account) context.Context {
	return context.WithValue(ctx, ctxkeys.Account{}, acc)
}

// GetAccount returns the signed-in account from the context, or nil if the
// request is anonymous.
func GetAccount(ctx context.Context) *models.Account {
	if acc, ok := ctx.Value(ctxkeys.Account{}).(*models.Account); ok {
		return acc
	}
	return nil
}

// IsAuthenticated returns true if the context has a signed-in account.
func IsAuthenticated(ctx context.Context) bool {
	return GetAccount(ctx) != nil
}
