// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"log/slog"
	"net/http"
	"net/mail"
	"strings"

	"codeberg.org/oliverandrich/bitsybay/internal/services/email"
	"github.com/labstack/echo/v4"
)

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Seller   bool   `json:"seller"`
}

type loginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

type resetRequest struct {
	Email string `json:"email"`
}

// Register creates an account and mails the code that confirms its email.
func (h *Handlers) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request")
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)

	if msg := checkIdentity(req.Username, req.Email); msg != "" {
		return badRequest(c, msg)
	}
	if err := h.validator.Validate(req.Password, req.Username, req.Email); err != nil {
		return respondError(c, err)
	}

	code, err := email.GenerateCode()
	if err != nil {
		return respondError(c, err)
	}

	ctx := c.Request().Context()
	params := h.accounts.NewCreateParams(req.Username, req.Email, req.Password, code)
	params.Seller = req.Seller

	id, err := h.accounts.CreateAccount(ctx, params)
	if err != nil {
		return respondError(c, err)
	}

	if err := h.mail.SendApprovalCode(ctx, req.Email, code); err != nil {
		// the account exists, POST /api/me/emails resends the code
		slog.ErrorContext(ctx, "approval_mail_failed", "user_id", id, "error", err)
	}

	return c.JSON(http.StatusCreated, map[string]int64{"id": id})
}

// Login checks the credentials and sets the session cookie.
func (h *Handlers) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request")
	}

	acc, err := h.accounts.Authenticate(c.Request().Context(), req.Login, req.Password, c.RealIP())
	if err != nil {
		return respondError(c, err)
	}

	cookie, err := h.sessions.Create(acc.ID, acc.Username)
	if err != nil {
		return respondError(c, err)
	}
	c.SetCookie(cookie)

	return c.JSON(http.StatusOK, acc)
}

// Logout clears the session cookie.
func (h *Handlers) Logout(c echo.Context) error {
	c.SetCookie(h.sessions.Clear())
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// PasswordReset replaces the password of the account owning the primary
// email and mails the new one. The answer does not reveal whether the
// address is known.
func (h *Handlers) PasswordReset(c echo.Context) error {
	var req resetRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request")
	}
	req.Email = strings.TrimSpace(req.Email)
	if !validEmail(req.Email) {
		return badRequest(c, "a valid email is required")
	}

	raw, err := email.GeneratePassword()
	if err != nil {
		return respondError(c, err)
	}

	ctx := c.Request().Context()
	n, err := h.accounts.ResetPassword(ctx, req.Email, raw)
	if err != nil {
		return respondError(c, err)
	}
	if n > 0 {
		if err := h.mail.SendPasswordReset(ctx, req.Email, raw); err != nil {
			slog.ErrorContext(ctx, "reset_mail_failed", "error", err)
		}
	}

	return c.JSON(http.StatusAccepted, map[string]string{"status": "accepted"})
}

// checkIdentity returns a message for an unusable username or email. A
// username may not contain "@" because logins containing one are looked
// up by email.
func checkIdentity(username, addr string) string {
	switch {
	case username == "":
		return "username is required"
	case strings.Contains(username, "@"):
		return "username must not contain @"
	case !validEmail(addr):
		return "a valid email is required"
	}
	return ""
}

// validEmail accepts a bare address without display name.
func validEmail(addr string) bool {
	parsed, err := mail.ParseAddress(addr)
	return err == nil && parsed.Address == addr
}
