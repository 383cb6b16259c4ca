// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package password

import (
	"crypto/md5"
	"crypto/rand"
	"crypto/sha1"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
)

// SaltLength is the length of a legacy salt in hex characters.
const SaltLength = 9

// LegacySHA1 reproduces the stored format of existing accounts:
// hex(sha1(salt + hex(sha1(salt + hex(sha1(raw)))))).
// The digests are concatenated as lowercase hex text, not raw bytes.
type LegacySHA1 struct{}

func (LegacySHA1) Scheme() Scheme { return SchemeLegacySHA1 }

func (LegacySHA1) Hash(raw string) (Credential, error) {
	salt, err := NewSalt()
	if err != nil {
		return Credential{}, err
	}
	return Credential{
		Scheme: SchemeLegacySHA1,
		Salt:   salt,
		Hash:   LegacyHash(salt, raw),
	}, nil
}

func (LegacySHA1) Verify(raw string, cred Credential) bool {
	want := LegacyHash(cred.Salt, raw)
	return subtle.ConstantTimeCompare([]byte(want), []byte(cred.Hash)) == 1
}

// LegacyHash computes the cascade for a given salt.
func LegacyHash(salt, raw string) string {
	inner := sha1Hex(raw)
	middle := sha1Hex(salt + inner)
	return sha1Hex(salt + middle)
}

// NewSalt returns SaltLength hex characters taken from the MD5 digest of
// 16 random bytes.
func NewSalt() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}
	sum := md5.Sum(b)
	return hex.EncodeToString(sum[:])[:SaltLength], nil
}

func sha1Hex(s string) string {
	sum := sha1.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}
