// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package database

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// pgUniqueViolation is the SQLSTATE for unique_violation.
const pgUniqueViolation = "23505"

// UniqueViolation reports whether err is a unique-constraint violation and,
// when the column can be derived, which logical field collided
// ("username", "email" or "" if unknown).
func UniqueViolation(err error) (string, bool) {
	if err == nil {
		return "", false
	}

	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		code := sqliteErr.Code()
		switch {
		case code == sqlite3.SQLITE_CONSTRAINT_UNIQUE, code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		case code&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(sqliteErr.Error(), "UNIQUE"):
		default:
			return "", false
		}
		return fieldFromText(sqliteErr.Error()), true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code != pgUniqueViolation {
			return "", false
		}
		field := fieldFromText(pgErr.ConstraintName)
		if field == "" {
			field = fieldFromText(pgErr.Detail)
		}
		return field, true
	}

	return "", false
}

// fieldFromText maps a driver message or constraint name to a logical field.
// SQLite reports "UNIQUE constraint failed: user.username", Postgres names
// constraints like "user_email_key" or "user_email_email_key".
func fieldFromText(s string) string {
	s = strings.ToLower(s)
	switch {
	case strings.Contains(s, "username"):
		return "username"
	case strings.Contains(s, "email"):
		return "email"
	default:
		return ""
	}
}
