// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package testutil provides test helpers and fixtures.
package testutil

import (
	"context"
	"io"
	"net/http/httptest"
	"sync"
	"testing"

	"codeberg.org/oliverandrich/bitsybay/internal/database"
	"codeberg.org/oliverandrich/bitsybay/internal/models"
	"codeberg.org/oliverandrich/bitsybay/internal/repository"
	"codeberg.org/oliverandrich/bitsybay/internal/services/password"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"github.com/vinovest/sqlx"
)

// TestPassword is the raw password of accounts created by NewTestAccount.
const TestPassword = "correct horse battery staple"

// NewTestDB creates an in-memory SQLite database for tests.
// Returns both the database connection and the repository for convenience.
func NewTestDB(t *testing.T) (*sqlx.DB, *repository.Repository) {
	t.Helper()
	db, err := database.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})
	return db, repository.New(db)
}

// NewMockDB creates a repository backed by go-sqlmock with regexp matching.
func NewMockDB(t *testing.T) (*repository.Repository, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = mockDB.Close()
	})
	return repository.New(sqlx.NewDb(mockDB, "sqlmock")), mock
}

// NewTestAccount creates an active account with a legacy credential for
// TestPassword and email "<username>@example.com".
func NewTestAccount(t *testing.T, repo *repository.Repository, username string) *models.Account {
	t.Helper()
	ctx := context.Background()

	cred, err := password.LegacySHA1{}.Hash(TestPassword)
	require.NoError(t, err)

	acc := &models.Account{
		Username:       username,
		Email:          username + "@example.com",
		Salt:           cred.Salt,
		Password:       cred.Hash,
		PasswordScheme: int(cred.Scheme),
		FileQuota:      100,
		Status:         models.StatusActive,
		Buyer:          true,
	}
	require.NoError(t, repo.CreateAccount(ctx, acc))
	return acc
}

// NewEchoContext creates an Echo context for handler tests.
func NewEchoContext(e *echo.Echo, method, path string, body io.Reader) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, path, body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	return c, rec
}

// Mail is a message captured by MailRecorder.
type Mail struct {
	To, Subject, Body string
}

// MailRecorder is a mail sender that keeps every message in memory.
type MailRecorder struct {
	mu    sync.Mutex
	mails []Mail
}

func (r *MailRecorder) Send(_ context.Context, to, subject, body string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mails = append(r.mails, Mail{To: to, Subject: subject, Body: body})
	return nil
}

// Mails returns a copy of the recorded messages.
func (r *MailRecorder) Mails() []Mail {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Mail(nil), r.mails...)
}
