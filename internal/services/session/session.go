// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package session issues signed session cookies after a successful login.
package session

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"codeberg.org/oliverandrich/bitsybay/internal/config"
	"github.com/google/uuid"
	"github.com/gorilla/securecookie"
)

const keyLength = 32

// Data is the payload carried in the cookie.
type Data struct {
	ID        string    // random per-login identifier
	UserID    int64
	Username  string
	ExpiresAt time.Time
}

type Manager struct {
	codec  *securecookie.SecureCookie
	name   string
	maxAge int
	secure bool
}

// NewManager creates a cookie manager. Keys are 32-byte hex strings; an
// empty hash key is replaced by a random one, which invalidates sessions
// on every restart.
func NewManager(cfg *config.SessionConfig, secure bool) (*Manager, error) {
	hashKey, err := decodeKey(cfg.HashKey, "hash")
	if err != nil {
		return nil, err
	}
	if hashKey == nil {
		slog.Warn("session hash key not configured, generating a random key")
		hashKey = make([]byte, keyLength)
		if _, err := rand.Read(hashKey); err != nil {
			return nil, fmt.Errorf("failed to generate session hash key: %w", err)
		}
	}

	blockKey, err := decodeKey(cfg.BlockKey, "block")
	if err != nil {
		return nil, err
	}

	codec := securecookie.New(hashKey, blockKey)
	codec.MaxAge(cfg.MaxAge)

	return &Manager{
		codec:  codec,
		name:   cfg.CookieName,
		maxAge: cfg.MaxAge,
		secure: secure,
	}, nil
}

func decodeKey(s, kind string) ([]byte, error) {
	if s == "" {
		return nil, nil
	}
	key, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid session %s key: %w", kind, err)
	}
	if len(key) != keyLength {
		return nil, fmt.Errorf("invalid session %s key: must be %d bytes, got %d", kind, keyLength, len(key))
	}
	return key, nil
}

// Create returns a cookie for the given account.
func (m *Manager) Create(userID int64, username string) (*http.Cookie, error) {
	data := Data{
		ID:        uuid.NewString(),
		UserID:    userID,
		Username:  username,
		ExpiresAt: time.Now().Add(time.Duration(m.maxAge) * time.Second).UTC(),
	}

	value, err := m.codec.Encode(m.name, data)
	if err != nil {
		return nil, fmt.Errorf("failed to encode session: %w", err)
	}

	return m.cookie(value, m.maxAge), nil
}

// Parse returns the session carried by r, or nil when there is none or it
// is invalid or expired. Only unexpected failures are returned as errors.
func (m *Manager) Parse(r *http.Request) (*Data, error) {
	c, err := r.Cookie(m.name)
	if errors.Is(err, http.ErrNoCookie) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var data Data
	if err := m.codec.Decode(m.name, c.Value, &data); err != nil {
		return nil, nil //nolint:nilerr // a bad cookie is an anonymous request
	}
	if time.Now().After(data.ExpiresAt) {
		return nil, nil
	}
	return &data, nil
}

// Clear returns a cookie that removes the session.
func (m *Manager) Clear() *http.Cookie {
	return m.cookie("", -1)
}

func (m *Manager) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     m.name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	}
}
