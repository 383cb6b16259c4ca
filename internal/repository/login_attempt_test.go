// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository_test

import (
	"context"
	"testing"
	"time"

	"codeberg.org/oliverandrich/bitsybay/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddLoginAttempt(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()
	now := time.Now().UTC()

	id1, err := repo.AddLoginAttempt(ctx, "alice", "10.0.0.1", now)
	require.NoError(t, err)
	id2, err := repo.AddLoginAttempt(ctx, "alice", "10.0.0.1", now)
	require.NoError(t, err)

	assert.Positive(t, id1)
	assert.Greater(t, id2, id1)

	count, err := repo.CountLoginAttempts(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestCountLoginAttempts_PerLogin(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()
	now := time.Now().UTC()

	for range 3 {
		_, err := repo.AddLoginAttempt(ctx, "alice", "10.0.0.1", now)
		require.NoError(t, err)
	}
	_, err := repo.AddLoginAttempt(ctx, "bob", "10.0.0.2", now)
	require.NoError(t, err)

	count, err := repo.CountLoginAttempts(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	count, err = repo.CountLoginAttempts(ctx, "carol")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestCountLoginAttemptsSince(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	for _, at := range []time.Time{now.Add(-time.Hour), now.Add(-16 * time.Minute), now.Add(-time.Minute), now} {
		_, err := repo.AddLoginAttempt(ctx, "alice", "ip", at)
		require.NoError(t, err)
	}
	_, err := repo.AddLoginAttempt(ctx, "bob", "ip", now)
	require.NoError(t, err)

	count, err := repo.CountLoginAttemptsSince(ctx, "alice", now.Add(-15*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	count, err = repo.CountLoginAttemptsSince(ctx, "alice", now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count, "the lower bound is inclusive")

	total, err := repo.CountLoginAttempts(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)
}

func TestDeleteLoginAttempts_LoginOrAge(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()
	now := time.Now().UTC()
	old := now.AddDate(0, 0, -400)

	_, err := repo.AddLoginAttempt(ctx, "alice", "ip", now)
	require.NoError(t, err)
	_, err = repo.AddLoginAttempt(ctx, "alice", "ip", old)
	require.NoError(t, err)
	_, err = repo.AddLoginAttempt(ctx, "bob", "ip", old)
	require.NoError(t, err)
	_, err = repo.AddLoginAttempt(ctx, "bob", "ip", now)
	require.NoError(t, err)

	n, err := repo.DeleteLoginAttempts(ctx, "alice", now.AddDate(0, 0, -365))
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	alice, err := repo.CountLoginAttempts(ctx, "alice")
	require.NoError(t, err)
	assert.Zero(t, alice)

	bob, err := repo.GetLoginAttempts(ctx, "bob")
	require.NoError(t, err)
	require.Len(t, bob, 1)
	assert.WithinDuration(t, now, bob[0].DateAdded, time.Second)
}

func TestGetLoginAttempts_NewestFirst(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()
	now := time.Now().UTC()

	_, err := repo.AddLoginAttempt(ctx, "alice", "1.1.1.1", now.Add(-time.Hour))
	require.NoError(t, err)
	_, err = repo.AddLoginAttempt(ctx, "alice", "2.2.2.2", now)
	require.NoError(t, err)

	attempts, err := repo.GetLoginAttempts(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, attempts, 2)
	assert.Equal(t, "2.2.2.2", attempts[0].IP)
	assert.Equal(t, "1.1.1.1", attempts[1].IP)
}
