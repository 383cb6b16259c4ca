// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package models_test

import (
	"encoding/json"
	"testing"

	"codeberg.org/oliverandrich/bitsybay/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccount_IsActive(t *testing.T) {
	assert.True(t, (&models.Account{Status: models.StatusActive}).IsActive())
	assert.False(t, (&models.Account{Status: models.StatusInactive}).IsActive())
}

func TestAccount_JSONHidesCredentials(t *testing.T) {
	acc := models.Account{ID: 1, Username: "alice", Salt: "abcdef123", Password: "deadbeef"}

	data, err := json.Marshal(acc)
	require.NoError(t, err)

	assert.NotContains(t, string(data), "abcdef123")
	assert.NotContains(t, string(data), "deadbeef")
	assert.Contains(t, string(data), `"username":"alice"`)
}

func TestUserEmail_JSONHidesApprovalCode(t *testing.T) {
	e := models.UserEmail{Email: "alt@example.com", ApprovalCode: "code123"}

	data, err := json.Marshal(e)
	require.NoError(t, err)

	assert.NotContains(t, string(data), "code123")
}
