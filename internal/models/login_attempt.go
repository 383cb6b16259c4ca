// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package models

import "time"

// LoginAttempt is one failed authentication attempt.
type LoginAttempt struct {
	ID        int64     `db:"login_attempt_id" json:"id"`
	Login     string    `db:"login" json:"login"`
	IP        string    `db:"ip" json:"ip"`
	DateAdded time.Time `db:"date_added" json:"date_added"`
}
