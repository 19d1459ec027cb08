package inventory

import (
	"errors"
	"fmt"
)

// =============================================================================
// Error Types
// =============================================================================

var (
	// ErrConnectionFailed is returned when the Docker daemon is unreachable.
	ErrConnectionFailed = errors.New("docker connection failed")

	// ErrSocketTableUnavailable is returned when a socket table cannot be read.
	ErrSocketTableUnavailable = errors.New("socket table unavailable")
)

// InventoryError wraps errors with additional context.
type InventoryError struct {
	Op      string // Operation that failed (e.g., "ContainerNames")
	Source  string // Inventory source (docker, procfs, ss)
	Message string
	Err     error
}

func (e *InventoryError) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("%s %s: %s", e.Op, e.Source, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *InventoryError) Unwrap() error {
	return e.Err
}

// NewInventoryError creates a new InventoryError.
func NewInventoryError(op, source, message string, err error) *InventoryError {
	return &InventoryError{
		Op:      op,
		Source:  source,
		Message: message,
		Err:     err,
	}
}
