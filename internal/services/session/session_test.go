// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package session_test

import (
	"bytes"
	"encoding/base64"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"codeberg.org/oliverandrich/bitsybay/internal/config"
	"codeberg.org/oliverandrich/bitsybay/internal/services/session"
	"github.com/google/uuid"
	"github.com/gorilla/securecookie"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	hashKey  = "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"
	blockKey = "fedcba9876543210fedcba9876543210fedcba9876543210fedcba9876543210"
)

func sessionConfig() *config.SessionConfig {
	return &config.SessionConfig{CookieName: "_session", MaxAge: 3600, HashKey: hashKey}
}

func newManager(t *testing.T, cfg *config.SessionConfig) *session.Manager {
	t.Helper()
	mgr, err := session.NewManager(cfg, false)
	require.NoError(t, err)
	return mgr
}

// requestWith returns a request carrying cookie.
func requestWith(cookie *http.Cookie) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	return req
}

func TestNewManager_Keys(t *testing.T) {
	tests := []struct {
		name    string
		hash    string
		block   string
		wantErr string
	}{
		{"hash only", hashKey, "", ""},
		{"hash and block", hashKey, blockKey, ""},
		{"random hash", "", "", ""},
		{"hash not hex", "zz", "", "invalid session hash key"},
		{"hash too short", "abcd", "", "must be 32 bytes, got 2"},
		{"block not hex", hashKey, "not-hex", "invalid session block key"},
		{"block too short", hashKey, "abcd", "invalid session block key"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := sessionConfig()
			cfg.HashKey = tt.hash
			cfg.BlockKey = tt.block

			mgr, err := session.NewManager(cfg, false)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, mgr)
		})
	}
}

func TestCreateAndParse_AccountPayload(t *testing.T) {
	mgr := newManager(t, sessionConfig())

	before := time.Now()
	cookie, err := mgr.Create(42, "alice")
	require.NoError(t, err)

	data, err := mgr.Parse(requestWith(cookie))
	require.NoError(t, err)
	require.NotNil(t, data)

	assert.Equal(t, int64(42), data.UserID)
	assert.Equal(t, "alice", data.Username)
	_, err = uuid.Parse(data.ID)
	assert.NoError(t, err, "session ID is a UUID")
	assert.WithinDuration(t, before.Add(time.Hour), data.ExpiresAt, 5*time.Second)
}

func TestCreate_CookieAttributes(t *testing.T) {
	cfg := sessionConfig()

	for _, secure := range []bool{false, true} {
		mgr, err := session.NewManager(cfg, secure)
		require.NoError(t, err)

		cookie, err := mgr.Create(1, "alice")
		require.NoError(t, err)

		assert.Equal(t, "_session", cookie.Name)
		assert.Equal(t, "/", cookie.Path)
		assert.Equal(t, 3600, cookie.MaxAge)
		assert.True(t, cookie.HttpOnly)
		assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
		assert.Equal(t, secure, cookie.Secure)
	}
}

func TestCreate_NewIDPerLogin(t *testing.T) {
	mgr := newManager(t, sessionConfig())

	seen := map[string]bool{}
	for range 20 {
		cookie, err := mgr.Create(7, "bob")
		require.NoError(t, err)
		data, err := mgr.Parse(requestWith(cookie))
		require.NoError(t, err)
		require.NotNil(t, data)

		assert.False(t, seen[data.ID], "duplicate session ID %s", data.ID)
		seen[data.ID] = true
	}
}

func TestCreate_BlockKeyHidesUsername(t *testing.T) {
	signed := newManager(t, sessionConfig())
	cfg := sessionConfig()
	cfg.BlockKey = blockKey
	encrypted := newManager(t, cfg)

	// a signed-only payload is plain gob once decoded
	for _, tt := range []struct {
		mgr     *session.Manager
		visible bool
	}{{signed, true}, {encrypted, false}} {
		cookie, err := tt.mgr.Create(1, "carol-the-seller")
		require.NoError(t, err)
		assert.Equal(t, tt.visible, strings.Contains(decodeCookie(t, cookie.Value), "carol-the-seller"))

		data, err := tt.mgr.Parse(requestWith(cookie))
		require.NoError(t, err)
		require.NotNil(t, data)
		assert.Equal(t, "carol-the-seller", data.Username)
	}
}

// decodeCookie undoes both base64 layers of a securecookie value
// ("date|payload|mac") and returns the serialized payload.
func decodeCookie(t *testing.T, value string) string {
	t.Helper()
	outer, err := base64.URLEncoding.DecodeString(value)
	require.NoError(t, err)
	parts := bytes.SplitN(outer, []byte("|"), 3)
	require.Len(t, parts, 3)
	payload, err := base64.URLEncoding.DecodeString(string(parts[1]))
	require.NoError(t, err)
	return string(payload)
}

func TestParse_Anonymous(t *testing.T) {
	mgr := newManager(t, sessionConfig())
	valid, err := mgr.Create(42, "alice")
	require.NoError(t, err)

	otherCfg := sessionConfig()
	otherCfg.HashKey = strings.Repeat("ab", 32)
	foreign, err := newManager(t, otherCfg).Create(42, "alice")
	require.NoError(t, err)

	tests := []struct {
		name   string
		cookie *http.Cookie
	}{
		{"no cookie", nil},
		{"garbage", &http.Cookie{Name: "_session", Value: "not-a-session"}},
		{"tampered", &http.Cookie{Name: "_session", Value: valid.Value[:len(valid.Value)-4] + "AAAA"}},
		{"other key", foreign},
		{"other name", &http.Cookie{Name: "_other", Value: valid.Value}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := mgr.Parse(requestWith(tt.cookie))
			require.NoError(t, err)
			assert.Nil(t, data)
		})
	}
}

func TestParse_ExpiredPayload(t *testing.T) {
	mgr := newManager(t, sessionConfig())

	key, err := hex.DecodeString(hashKey)
	require.NoError(t, err)
	codec := securecookie.New(key, nil)
	value, err := codec.Encode("_session", session.Data{
		ID:        uuid.NewString(),
		UserID:    42,
		Username:  "alice",
		ExpiresAt: time.Now().Add(-time.Minute).UTC(),
	})
	require.NoError(t, err)

	data, err := mgr.Parse(requestWith(&http.Cookie{Name: "_session", Value: value}))
	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestClear(t *testing.T) {
	cfg := sessionConfig()
	mgr, err := session.NewManager(cfg, true)
	require.NoError(t, err)

	cookie := mgr.Clear()

	assert.Equal(t, "_session", cookie.Name)
	assert.Empty(t, cookie.Value)
	assert.Negative(t, cookie.MaxAge)
	assert.True(t, cookie.Secure)

	data, err := mgr.Parse(requestWith(cookie))
	require.NoError(t, err)
	assert.Nil(t, data)
}
