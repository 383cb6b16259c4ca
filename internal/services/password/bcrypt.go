// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package password

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Bcrypt hashes with golang.org/x/crypto/bcrypt. The salt lives inside the
// hash, so Credential.Salt stays empty. A zero Cost means bcrypt.DefaultCost.
type Bcrypt struct {
	Cost int
}

func (Bcrypt) Scheme() Scheme { return SchemeBcrypt }

func (b Bcrypt) Hash(raw string) (Credential, error) {
	cost := b.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(raw), cost)
	if err != nil {
		return Credential{}, fmt.Errorf("failed to hash password: %w", err)
	}
	return Credential{Scheme: SchemeBcrypt, Hash: string(hash)}, nil
}

func (Bcrypt) Verify(raw string, cred Credential) bool {
	return bcrypt.CompareHashAndPassword([]byte(cred.Hash), []byte(raw)) == nil
}
