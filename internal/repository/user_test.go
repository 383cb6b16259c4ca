// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository_test

import (
	"context"
	"testing"

	"codeberg.org/oliverandrich/bitsybay/internal/models"
	"codeberg.org/oliverandrich/bitsybay/internal/repository"
	"codeberg.org/oliverandrich/bitsybay/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAccount(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	acc := &models.Account{
		Username:  "alice",
		Email:     "Alice@Example.com",
		Salt:      "abc",
		Password:  "hash",
		FileQuota: 100,
		Status:    models.StatusActive,
		Seller:    true,
	}
	err := repo.CreateAccount(ctx, acc)

	require.NoError(t, err)
	assert.Equal(t, int64(1), acc.ID)
	assert.Equal(t, "alice@example.com", acc.Email)
	assert.NotZero(t, acc.DateAdded)

	stored, err := repo.GetAccountByID(ctx, acc.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", stored.Username)
	assert.Equal(t, "alice@example.com", stored.Email)
	assert.Equal(t, int64(100), stored.FileQuota)
	assert.True(t, stored.Seller)
	assert.False(t, stored.Verified)
	assert.Nil(t, stored.DateModified)
}

func TestCreateAccount_DuplicateUsername(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	testutil.NewTestAccount(t, repo, "alice")

	err := repo.CreateAccount(ctx, &models.Account{Username: "alice", Email: "other@example.com", Password: "x"})

	var dup *repository.DuplicateError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "username", dup.Field)
}

func TestCreateAccount_DuplicateEmailIgnoresCase(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	testutil.NewTestAccount(t, repo, "alice")

	err := repo.CreateAccount(ctx, &models.Account{Username: "bob", Email: "ALICE@example.com", Password: "x"})

	var dup *repository.DuplicateError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "email", dup.Field)
}

func TestGetAccountByID_NotFound(t *testing.T) {
	_, repo := testutil.NewTestDB(t)

	_, err := repo.GetAccountByID(context.Background(), 999)

	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestGetActiveAccount(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	acc := testutil.NewTestAccount(t, repo, "alice")

	got, err := repo.GetActiveAccount(ctx, acc.ID)
	require.NoError(t, err)
	assert.Equal(t, acc.ID, got.ID)

	_, err = repo.SetStatus(ctx, acc.ID, models.StatusInactive)
	require.NoError(t, err)

	_, err = repo.GetActiveAccount(ctx, acc.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestGetAccountByUsernameAndEmail(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	acc := testutil.NewTestAccount(t, repo, "alice")

	byName, err := repo.GetAccountByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, acc.ID, byName.ID)

	byEmail, err := repo.GetAccountByEmail(ctx, "ALICE@example.com")
	require.NoError(t, err)
	assert.Equal(t, acc.ID, byEmail.ID)

	_, err = repo.GetAccountByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestUsernameExists(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	testutil.NewTestAccount(t, repo, "alice")

	exists, err := repo.UsernameExists(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.UsernameExists(ctx, "Alice")
	require.NoError(t, err)
	assert.False(t, exists, "username match is exact")
}

func TestEmailExists_PrimaryAndSecondary(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	acc := testutil.NewTestAccount(t, repo, "alice")
	_, _, err := repo.AddEmail(ctx, acc.ID, "alt@example.com", "code")
	require.NoError(t, err)

	for _, email := range []string{"alice@example.com", "ALICE@EXAMPLE.COM", "alt@example.com", "Alt@Example.com"} {
		exists, err := repo.EmailExists(ctx, email)
		require.NoError(t, err)
		assert.True(t, exists, email)
	}

	exists, err := repo.EmailExists(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestUpdateAccount_WithoutPassword(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	acc := testutil.NewTestAccount(t, repo, "alice")

	n, err := repo.UpdateAccount(ctx, acc.ID, "alice2", "New@Example.com", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := repo.GetAccountByID(ctx, acc.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice2", got.Username)
	assert.Equal(t, "new@example.com", got.Email)
	assert.Equal(t, acc.Salt, got.Salt)
	assert.Equal(t, acc.Password, got.Password)
	assert.NotNil(t, got.DateModified)
}

func TestUpdateAccount_WithPassword(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	acc := testutil.NewTestAccount(t, repo, "alice")

	n, err := repo.UpdateAccount(ctx, acc.ID, "alice", "alice@example.com",
		&repository.PasswordHash{Salt: "", Hash: "$2a$bcrypt", Scheme: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := repo.GetAccountByID(ctx, acc.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Salt)
	assert.Equal(t, "$2a$bcrypt", got.Password)
	assert.Equal(t, 2, got.PasswordScheme)
}

func TestUpdateAccount_UnknownID(t *testing.T) {
	_, repo := testutil.NewTestDB(t)

	n, err := repo.UpdateAccount(context.Background(), 42, "x", "x@example.com", nil)

	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestResetPasswordByEmail(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	acc := testutil.NewTestAccount(t, repo, "alice")

	n, err := repo.ResetPasswordByEmail(ctx, "ALICE@example.com", repository.PasswordHash{Salt: "s", Hash: "h", Scheme: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := repo.GetAccountByID(ctx, acc.ID)
	require.NoError(t, err)
	assert.Equal(t, "s", got.Salt)
	assert.Equal(t, "h", got.Password)

	n, err = repo.ResetPasswordByEmail(ctx, "nobody@example.com", repository.PasswordHash{Hash: "h"})
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestAddQuotaBonus(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	acc := testutil.NewTestAccount(t, repo, "alice")

	n, err := repo.AddQuotaBonus(ctx, acc.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = repo.AddQuotaBonus(ctx, acc.ID, -200)
	require.NoError(t, err)

	got, err := repo.GetAccountByID(ctx, acc.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(-95), got.FileQuota)
}

func TestMarkVerified(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	acc := testutil.NewTestAccount(t, repo, "alice")

	n, err := repo.MarkVerified(ctx, acc.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := repo.GetAccountByID(ctx, acc.ID)
	require.NoError(t, err)
	assert.True(t, got.Verified)
}

func TestCountUsersAndSellers(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	testutil.NewTestAccount(t, repo, "alice")
	testutil.NewTestAccount(t, repo, "bob")
	require.NoError(t, repo.CreateAccount(ctx, &models.Account{
		Username: "carol", Email: "carol@example.com", Password: "x", Seller: true,
	}))

	users, err := repo.CountUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), users)

	sellers, err := repo.CountSellers(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), sellers)
}
