// Package ledger provides the append-only record of which deployments
// exist and where their materialized configuration lives. Two backends
// implement the same contract: a flat file in the format
// deploymentID:configFilePath:timestamp, and an embedded SQLite store.
package ledger

import (
	"errors"
	"fmt"
)

// =============================================================================
// Error Types
// =============================================================================

var (
	// ErrInvalidDeploymentID is returned when an ID would break the line
	// format (empty or containing the field delimiter).
	ErrInvalidDeploymentID = errors.New("deployment id must be non-empty and must not contain ':'")

	// ErrMalformedEntry is returned when a ledger line cannot be parsed.
	ErrMalformedEntry = errors.New("malformed ledger entry")

	// ErrLockTimeout is returned when the ledger lock cannot be acquired.
	ErrLockTimeout = errors.New("timed out acquiring ledger lock")

	// ErrConnectionFailed is returned when the SQLite database cannot be opened.
	ErrConnectionFailed = errors.New("database connection failed")

	// ErrMigrationFailed is returned when database migration fails.
	ErrMigrationFailed = errors.New("database migration failed")
)

// LedgerError wraps errors with additional context.
type LedgerError struct {
	Op      string // Operation that failed (e.g., "Append")
	ID      string // Deployment ID if applicable
	Message string
	Err     error
}

func (e *LedgerError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s %s: %s", e.Op, e.ID, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *LedgerError) Unwrap() error {
	return e.Err
}

// NewLedgerError creates a new LedgerError.
func NewLedgerError(op, id, message string, err error) *LedgerError {
	return &LedgerError{
		Op:      op,
		ID:      id,
		Message: message,
		Err:     err,
	}
}
