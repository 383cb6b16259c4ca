// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package models

import "time"

// Account status values stored in user.status.
const (
	StatusInactive int64 = 0
	StatusActive   int64 = 1
)

// Account is a marketplace user. Email is always stored lowercase.
type Account struct { //nolint:govet // fieldalignment: readability over optimization
	ID             int64      `db:"user_id" json:"id"`
	Username       string     `db:"username" json:"username"`
	Email          string     `db:"email" json:"email"`
	Salt           string     `db:"salt" json:"-"`
	Password       string     `db:"password" json:"-"`
	PasswordScheme int        `db:"password_scheme" json:"-"`
	FileQuota      int64      `db:"file_quota" json:"file_quota"` // MB, may go negative
	Status         int64      `db:"status" json:"status"`
	Verified       bool       `db:"verified" json:"verified"`
	Buyer          bool       `db:"buyer" json:"buyer"`
	Seller         bool       `db:"seller" json:"seller"`
	DateAdded      time.Time  `db:"date_added" json:"date_added"`
	DateModified   *time.Time `db:"date_modified" json:"date_modified,omitempty"`
}

// IsActive reports whether the account may sign in.
func (a *Account) IsActive() bool {
	return a.Status == StatusActive
}
