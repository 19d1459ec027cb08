// Package allocate contains the pure resolution logic for deployment
// resources: collision-free container/network names and host ports.
// This is part of the Functional Core - all functions take inventory
// snapshots as input and perform no I/O.
package allocate

import (
	"errors"
	"fmt"
)

// =============================================================================
// Errors
// =============================================================================

var (
	// ErrEmptyBaseName is returned when the base name is empty.
	ErrEmptyBaseName = errors.New("base name must not be empty")

	// ErrNamesExhausted is returned when no free name is found within the
	// probe bound.
	ErrNamesExhausted = errors.New("no free name found within attempt limit")
)

// maxNameAttempts bounds the suffix probe. The unsuffixed base name plus
// suffixes -1 .. -maxNameAttempts are tried before giving up.
const maxNameAttempts = 1000

// =============================================================================
// Name Resolution
// =============================================================================

// ResolveName returns a name derived from base that is not present in
// existing. The probe is a linear scan: base itself first, then base-1,
// base-2, and so on until a free name is found. The first gap wins, so a
// previously deleted intermediate suffix is reused.
//
// Matching against existing is exact string comparison; the base name is
// passed through uninspected, special characters included.
//
// The returned name is only guaranteed free against the snapshot in
// existing. A concurrent creation can still race with it - callers accept
// this (single-operator usage).
//
// Example:
//
//	ResolveName("runai-postgres", []string{"runai-postgres"})
//	// returns "runai-postgres-1"
//
//	ResolveName("runai-postgres", []string{"runai-postgres", "runai-postgres-1"})
//	// returns "runai-postgres-2"
func ResolveName(base string, existing []string) (string, error) {
	if base == "" {
		return "", ErrEmptyBaseName
	}

	taken := make(map[string]bool, len(existing))
	for _, name := range existing {
		taken[name] = true
	}

	if !taken[base] {
		return base, nil
	}

	for i := 1; i <= maxNameAttempts; i++ {
		candidate := fmt.Sprintf("%s-%d", base, i)
		if !taken[candidate] {
			return candidate, nil
		}
	}

	return "", fmt.Errorf("%w: base %q", ErrNamesExhausted, base)
}
