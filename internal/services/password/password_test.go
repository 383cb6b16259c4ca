// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package password_test

import (
	"regexp"
	"strings"
	"testing"

	"codeberg.org/oliverandrich/bitsybay/internal/services/password"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestLegacyHash_KnownVectors(t *testing.T) {
	tests := []struct {
		salt, raw, want string
	}{
		{"a1b2c3d4e", "secret", "64bb0ba09eb40a935fa625d3b68d0da0a551a5de"},
		{"a1b2c3d4e", "", "77f4b9231263ebbe823000462b274a6bd746944c"},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, password.LegacyHash(tt.salt, tt.raw))
		})
	}
}

func TestNewSalt(t *testing.T) {
	hexRe := regexp.MustCompile(`^[0-9a-f]{9}$`)
	seen := make(map[string]struct{})

	for range 50 {
		salt, err := password.NewSalt()
		require.NoError(t, err)
		assert.Regexp(t, hexRe, salt)
		seen[salt] = struct{}{}
	}

	assert.Greater(t, len(seen), 45, "salts should be effectively unique")
}

func TestLegacySHA1_RoundTrip(t *testing.T) {
	h := password.LegacySHA1{}

	cred, err := h.Hash("secret")
	require.NoError(t, err)

	assert.Equal(t, password.SchemeLegacySHA1, cred.Scheme)
	assert.Len(t, cred.Salt, password.SaltLength)
	assert.Len(t, cred.Hash, 40)
	assert.True(t, h.Verify("secret", cred))
	assert.False(t, h.Verify("wrong", cred))
	assert.False(t, h.Verify("Secret", cred))
}

func TestLegacySHA1_VerifiesStoredRecord(t *testing.T) {
	cred := password.Credential{
		Scheme: password.SchemeLegacySHA1,
		Salt:   "a1b2c3d4e",
		Hash:   "64bb0ba09eb40a935fa625d3b68d0da0a551a5de",
	}

	assert.True(t, password.LegacySHA1{}.Verify("secret", cred))
}

func TestBcrypt_RoundTrip(t *testing.T) {
	h := password.Bcrypt{Cost: bcrypt.MinCost}

	cred, err := h.Hash("secret")
	require.NoError(t, err)

	assert.Equal(t, password.SchemeBcrypt, cred.Scheme)
	assert.Empty(t, cred.Salt)
	assert.True(t, strings.HasPrefix(cred.Hash, "$2a$"))
	assert.True(t, h.Verify("secret", cred))
	assert.False(t, h.Verify("wrong", cred))
}

func TestBcrypt_TooLong(t *testing.T) {
	_, err := password.Bcrypt{Cost: bcrypt.MinCost}.Hash(strings.Repeat("x", 100))

	assert.Error(t, err)
}

func TestParseScheme(t *testing.T) {
	tests := []struct {
		in      string
		want    password.Scheme
		wantErr bool
	}{
		{"legacy", password.SchemeLegacySHA1, false},
		{"SHA1", password.SchemeLegacySHA1, false},
		{" bcrypt ", password.SchemeBcrypt, false},
		{"argon2", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := password.ParseScheme(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, password.ErrUnknownScheme)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSchemeString(t *testing.T) {
	assert.Equal(t, "legacy", password.SchemeLegacySHA1.String())
	assert.Equal(t, "bcrypt", password.SchemeBcrypt.String())
	assert.Equal(t, "scheme(9)", password.Scheme(9).String())
}

func TestNewRegistry_UnknownCurrent(t *testing.T) {
	_, err := password.NewRegistry(password.SchemeBcrypt, password.LegacySHA1{})

	assert.ErrorIs(t, err, password.ErrUnknownScheme)
}

func TestRegistry_VerifiesAllSchemes(t *testing.T) {
	reg, err := password.NewRegistry(password.SchemeBcrypt,
		password.LegacySHA1{}, password.Bcrypt{Cost: bcrypt.MinCost})
	require.NoError(t, err)

	legacy, err := password.LegacySHA1{}.Hash("secret")
	require.NoError(t, err)
	modern, err := reg.Hash("secret")
	require.NoError(t, err)

	assert.Equal(t, password.SchemeBcrypt, reg.Current())
	assert.Equal(t, password.SchemeBcrypt, modern.Scheme)
	assert.True(t, reg.Verify("secret", legacy))
	assert.True(t, reg.Verify("secret", modern))
	assert.False(t, reg.Verify("wrong", legacy))
	assert.False(t, reg.Verify("wrong", modern))
}

func TestRegistry_UnknownSchemeNeverMatches(t *testing.T) {
	reg := password.Default()

	cred := password.Credential{Scheme: 42, Salt: "a1b2c3d4e", Hash: "64bb0ba09eb40a935fa625d3b68d0da0a551a5de"}

	assert.False(t, reg.Verify("secret", cred))
}

func TestRegistry_NeedsRehash(t *testing.T) {
	reg, err := password.NewRegistry(password.SchemeBcrypt,
		password.LegacySHA1{}, password.Bcrypt{Cost: bcrypt.MinCost})
	require.NoError(t, err)

	assert.True(t, reg.NeedsRehash(password.Credential{Scheme: password.SchemeLegacySHA1}))
	assert.False(t, reg.NeedsRehash(password.Credential{Scheme: password.SchemeBcrypt}))
}

func TestRegistry_EmptyPassword(t *testing.T) {
	_, err := password.Default().Hash("")

	assert.ErrorIs(t, err, password.ErrEmptyPassword)
}

func TestDefault(t *testing.T) {
	reg := password.Default()

	cred, err := reg.Hash("secret")
	require.NoError(t, err)

	assert.Equal(t, password.SchemeLegacySHA1, reg.Current())
	assert.Equal(t, password.SchemeLegacySHA1, cred.Scheme)
	assert.NotPanics(t, func() { reg.Burn("anything") })
}
