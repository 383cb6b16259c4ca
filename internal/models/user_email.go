// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package models

import "time"

// UserEmail is an additional (or the mirrored primary) address of an account
// that has to be confirmed with a one-time approval code.
type UserEmail struct { //nolint:govet // fieldalignment: readability over optimization
	ID           int64     `db:"user_email_id" json:"id"`
	UserID       int64     `db:"user_id" json:"user_id"`
	Email        string    `db:"email" json:"email"`
	Approved     bool      `db:"approved" json:"approved"`
	ApprovalCode string    `db:"approval_code" json:"-"`
	DateAdded    time.Time `db:"date_added" json:"date_added"`
}
