// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package password hashes and verifies account credentials. Every stored
// credential carries a scheme tag so records written by older schemes stay
// verifiable while new ones use the configured scheme.
package password

import (
	"errors"
	"fmt"
	"strings"
)

// Scheme identifies the algorithm a credential was produced with. The value
// is persisted next to the hash and must never be renumbered.
type Scheme int

const (
	// SchemeLegacySHA1 is the salted triple SHA-1 cascade of existing records.
	SchemeLegacySHA1 Scheme = 1
	// SchemeBcrypt stores a bcrypt hash with the salt embedded in it.
	SchemeBcrypt Scheme = 2
)

var (
	ErrUnknownScheme = errors.New("unknown password scheme")
	ErrEmptyPassword = errors.New("password must not be empty")
)

func (s Scheme) String() string {
	switch s {
	case SchemeLegacySHA1:
		return "legacy"
	case SchemeBcrypt:
		return "bcrypt"
	default:
		return fmt.Sprintf("scheme(%d)", int(s))
	}
}

// ParseScheme maps a config value ("legacy", "bcrypt") to a Scheme.
func ParseScheme(name string) (Scheme, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "legacy", "sha1":
		return SchemeLegacySHA1, nil
	case "bcrypt":
		return SchemeBcrypt, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownScheme, name)
	}
}

// Credential is a stored password representation.
type Credential struct {
	Scheme Scheme
	Salt   string
	Hash   string
}

// Hasher produces and checks credentials of one scheme.
type Hasher interface {
	Scheme() Scheme
	Hash(raw string) (Credential, error)
	Verify(raw string, cred Credential) bool
}

// Registry hashes new passwords with the current scheme and verifies
// credentials of every registered scheme.
type Registry struct {
	current Hasher
	hashers map[Scheme]Hasher
	dummy   Credential
}

// NewRegistry creates a registry whose new credentials use current.
// The hasher for current must be among hashers.
func NewRegistry(current Scheme, hashers ...Hasher) (*Registry, error) {
	r := &Registry{hashers: make(map[Scheme]Hasher, len(hashers))}
	for _, h := range hashers {
		r.hashers[h.Scheme()] = h
	}

	h, ok := r.hashers[current]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownScheme, current)
	}
	r.current = h

	// dummy credential for timing equalization on unknown accounts
	dummy, err := h.Hash("dummy-password-for-timing")
	if err != nil {
		return nil, fmt.Errorf("failed to prepare dummy credential: %w", err)
	}
	r.dummy = dummy

	return r, nil
}

// Default returns a registry that writes legacy credentials and accepts
// both legacy and bcrypt ones.
func Default() *Registry {
	r, err := NewRegistry(SchemeLegacySHA1, LegacySHA1{}, Bcrypt{})
	if err != nil {
		panic(err)
	}
	return r
}

// Current returns the scheme used for new credentials.
func (r *Registry) Current() Scheme {
	return r.current.Scheme()
}

// Hash creates a credential for raw with the current scheme.
func (r *Registry) Hash(raw string) (Credential, error) {
	if raw == "" {
		return Credential{}, ErrEmptyPassword
	}
	return r.current.Hash(raw)
}

// Verify reports whether raw matches cred. Credentials of an unregistered
// scheme never match.
func (r *Registry) Verify(raw string, cred Credential) bool {
	h, ok := r.hashers[cred.Scheme]
	if !ok {
		return false
	}
	return h.Verify(raw, cred)
}

// NeedsRehash reports whether cred was written by a scheme other than the
// current one.
func (r *Registry) NeedsRehash(cred Credential) bool {
	return cred.Scheme != r.current.Scheme()
}

// Burn spends roughly the time of a real verification. Call it when the
// account does not exist so both failure paths cost the same.
func (r *Registry) Burn(raw string) {
	_ = r.current.Verify(raw, r.dummy)
}
