package orchestrator

import (
	"errors"
	"fmt"
)

// =============================================================================
// Error Types
// =============================================================================

var (
	// Connection errors
	ErrConnectionFailed = errors.New("docker connection failed")

	// Container errors
	ErrContainerNotFound      = errors.New("container not found")
	ErrContainerAlreadyExists = errors.New("container already exists")
	ErrPortAlreadyAllocated   = errors.New("port is already allocated")

	// Network errors
	ErrNetworkNotFound      = errors.New("network not found")
	ErrNetworkAlreadyExists = errors.New("network already exists")
	ErrNetworkInUse         = errors.New("network has active endpoints")

	// Image errors
	ErrImageNotFound   = errors.New("image not found")
	ErrImagePullFailed = errors.New("image pull failed")

	// Readiness errors
	ErrProbeTimeout = errors.New("readiness probe timed out")
)

// OrchestratorError wraps errors with the operation and entity that failed.
type OrchestratorError struct {
	Op      string // Operation that failed
	Entity  string // Entity type (container, network, image)
	ID      string // Entity name or ID if applicable
	Message string
	Err     error
}

func (e *OrchestratorError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s %s %s: %s", e.Op, e.Entity, e.ID, e.Message)
	}
	if e.Entity != "" {
		return fmt.Sprintf("%s %s: %s", e.Op, e.Entity, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *OrchestratorError) Unwrap() error {
	return e.Err
}

// NewOrchestratorError creates a new OrchestratorError.
func NewOrchestratorError(op, entity, id, message string, err error) *OrchestratorError {
	return &OrchestratorError{
		Op:      op,
		Entity:  entity,
		ID:      id,
		Message: message,
		Err:     err,
	}
}
