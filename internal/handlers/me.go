// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"codeberg.org/oliverandrich/bitsybay/internal/auth"
	"codeberg.org/oliverandrich/bitsybay/internal/repository"
	"codeberg.org/oliverandrich/bitsybay/internal/services/account"
	"codeberg.org/oliverandrich/bitsybay/internal/services/email"
	"github.com/labstack/echo/v4"
)

type updateRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type emailRequest struct {
	Email string `json:"email" query:"email"`
	Code  string `json:"code" query:"code"`
}

// Me returns the signed-in account.
func (h *Handlers) Me(c echo.Context) error {
	return c.JSON(http.StatusOK, auth.GetAccount(c.Request().Context()))
}

// UpdateMe changes username and email and, when given, the password. A
// changed email is registered as a pending address and the code that
// approves it is mailed.
func (h *Handlers) UpdateMe(c echo.Context) error {
	ctx := c.Request().Context()
	acc := auth.GetAccount(ctx)

	var req updateRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request")
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)

	if msg := checkIdentity(req.Username, req.Email); msg != "" {
		return badRequest(c, msg)
	}
	if req.Password != "" {
		if err := h.validator.Validate(req.Password, req.Username, req.Email); err != nil {
			return respondError(c, err)
		}
	}

	code, err := email.GenerateCode()
	if err != nil {
		return respondError(c, err)
	}

	_, state, err := h.accounts.UpdateAccount(ctx, account.UpdateParams{
		ID:           acc.ID,
		Username:     req.Username,
		Email:        req.Email,
		Password:     req.Password,
		ApprovalCode: code,
	})
	if err != nil {
		return respondError(c, err)
	}

	if repository.NormalizeEmail(req.Email) != acc.Email {
		h.mailPending(c, acc.ID, req.Email, state)
	}

	updated, err := h.accounts.GetAccount(ctx, acc.ID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, updated)
}

// ListEmails returns every address registered for the signed-in account.
func (h *Handlers) ListEmails(c echo.Context) error {
	ctx := c.Request().Context()
	emails, err := h.accounts.ListEmails(ctx, auth.GetAccount(ctx).ID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, emails)
}

// AddEmail registers an additional address. A new address answers 201 and
// a known one answers 200 with its state. While the address is pending its
// approval code is mailed, so repeating the call resends the code.
func (h *Handlers) AddEmail(c echo.Context) error {
	ctx := c.Request().Context()
	acc := auth.GetAccount(ctx)

	var req emailRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request")
	}
	req.Email = strings.TrimSpace(req.Email)
	if !validEmail(req.Email) {
		return badRequest(c, "a valid email is required")
	}

	code, err := email.GenerateCode()
	if err != nil {
		return respondError(c, err)
	}

	state, err := h.accounts.AddSecondaryEmail(ctx, acc.ID, req.Email, code)
	if err != nil {
		return respondError(c, err)
	}

	status := http.StatusOK
	if state.Created {
		status = http.StatusCreated
	}
	h.mailPending(c, acc.ID, req.Email, state)

	return c.JSON(status, map[string]any{
		"email":    repository.NormalizeEmail(req.Email),
		"approved": state.Approved,
	})
}

// mailPending sends the approval code of a pending address. Failures are
// logged only, the call can be repeated.
func (h *Handlers) mailPending(c echo.Context, accountID int64, addr string, state account.EmailState) {
	if state.Approved || state.Code == "" {
		return
	}
	ctx := c.Request().Context()
	if err := h.mail.SendApprovalCode(ctx, addr, state.Code); err != nil {
		slog.ErrorContext(ctx, "approval_mail_failed", "user_id", accountID, "error", err)
	}
}

// ApproveEmail confirms an address with the mailed code. It accepts the
// code as JSON body or, for links in mails, as query parameters.
func (h *Handlers) ApproveEmail(c echo.Context) error {
	ctx := c.Request().Context()
	acc := auth.GetAccount(ctx)

	var req emailRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request")
	}
	req.Email = strings.TrimSpace(req.Email)
	req.Code = strings.TrimSpace(req.Code)
	if req.Email == "" || req.Code == "" {
		return badRequest(c, "email and code are required")
	}

	n, err := h.accounts.ApproveSecondaryEmail(ctx, acc.ID, req.Email, req.Code)
	if err != nil {
		return respondError(c, err)
	}
	if n == 0 {
		return badRequest(c, "invalid or expired approval code")
	}

	return c.JSON(http.StatusOK, map[string]string{"status": "approved"})
}
