// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package password

import (
	"bufio"
	"embed"
	"fmt"
	"strings"
	"unicode"
)

//go:embed common_passwords.txt
var commonPasswordsFS embed.FS

var commonPasswords = loadCommonPasswords()

func loadCommonPasswords() map[string]struct{} {
	set := make(map[string]struct{})
	file, err := commonPasswordsFS.Open("common_passwords.txt")
	if err != nil {
		return set
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		if p := strings.ToLower(strings.TrimSpace(scanner.Text())); p != "" {
			set[p] = struct{}{}
		}
	}
	return set
}

// Problem is a single reason a password was rejected.
type Problem struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ValidationError lists every problem found with a new password.
type ValidationError struct {
	Problems []Problem
}

func (e *ValidationError) Error() string {
	if len(e.Problems) == 0 {
		return "password validation failed"
	}
	return e.Problems[0].Message
}

// Validator checks new passwords before they are hashed. Existing
// credentials are never re-validated.
type Validator struct {
	MinLength     int
	RejectCommon  bool
	RejectSimilar bool
	RejectNumeric bool
}

// DefaultValidator returns the rules applied to self-service registrations.
func DefaultValidator() *Validator {
	return &Validator{
		MinLength:     8,
		RejectCommon:  true,
		RejectSimilar: true,
		RejectNumeric: true,
	}
}

// Validate returns nil or a *ValidationError. attrs are account fields
// (username, email) the password must not resemble.
func (v *Validator) Validate(raw string, attrs ...string) error {
	var problems []Problem

	if len([]rune(raw)) < v.MinLength {
		problems = append(problems, Problem{
			Code:    "min_length",
			Message: fmt.Sprintf("Password must be at least %d characters long.", v.MinLength),
		})
	}

	if v.RejectNumeric && isNumeric(raw) {
		problems = append(problems, Problem{
			Code:    "entirely_numeric",
			Message: "Password cannot be entirely numeric.",
		})
	}

	if v.RejectCommon {
		if _, ok := commonPasswords[strings.ToLower(raw)]; ok {
			problems = append(problems, Problem{
				Code:    "common_password",
				Message: "This password is too common.",
			})
		}
	}

	if v.RejectSimilar && resemblesAny(raw, attrs) {
		problems = append(problems, Problem{
			Code:    "too_similar",
			Message: "Password is too similar to your username or email.",
		})
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

func isNumeric(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return s != ""
}

func resemblesAny(raw string, attrs []string) bool {
	p := strings.ToLower(raw)
	for _, attr := range attrs {
		a := strings.ToLower(attr)
		// compare against the local part of an email as well
		if at := strings.IndexByte(a, '@'); at > 0 {
			a = a[:at]
		}
		if a == "" {
			continue
		}
		if strings.Contains(p, a) || strings.Contains(a, p) || similarity(p, a) > 0.7 {
			return true
		}
	}
	return false
}

// similarity is the longest common subsequence over the longer length.
func similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	if a == "" || b == "" {
		return 0
	}

	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				cur[j] = prev[j-1] + 1
			} else {
				cur[j] = max(prev[j], cur[j-1])
			}
		}
		prev, cur = cur, prev
	}

	return float64(prev[len(b)]) / float64(max(len(a), len(b)))
}
