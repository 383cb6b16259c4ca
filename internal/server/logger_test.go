// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package server

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogHandler_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(newLogHandler(&buf, "warn", "json"))

	logger.Info("login_success", "user_id", 1)
	logger.Warn("login_failed", "login", "alice", "reason", "invalid_password")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "login_failed", entry["msg"])
	assert.Equal(t, "alice", entry["login"])
	assert.Equal(t, "invalid_password", entry["reason"])
}

func TestNewLogHandler_Text(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(newLogHandler(&buf, "debug", "text"))

	logger.Debug("attempts_pruned", "login", "alice", "count", 3)

	assert.Contains(t, buf.String(), "attempts_pruned")
	assert.Contains(t, buf.String(), "login=alice")
	assert.NotContains(t, buf.String(), "\x1b[")
}
