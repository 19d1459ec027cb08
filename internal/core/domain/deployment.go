// Package domain defines the entities the allocator works with: the
// materialized deployment configuration, ledger entries, and the
// deployment lifecycle. This is part of the Functional Core - no I/O.
package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// Deployment Errors
// =============================================================================

var (
	ErrMissingDeploymentID = errors.New("deployment id is required")
	ErrNoServices          = errors.New("deployment has no services")
	ErrInvalidTransition   = errors.New("invalid state transition")
)

// =============================================================================
// Deployment State
// =============================================================================

// DeploymentState is the lifecycle state of one deployment as seen by the
// ledger. A deployment's configuration never changes after allocation;
// the only transitions are allocation and removal.
type DeploymentState string

const (
	StateUnallocated DeploymentState = "unallocated"
	StateAllocated   DeploymentState = "allocated"
	StateRemoved     DeploymentState = "removed"
)

// validTransitions defines the allowed state transitions. There is no
// update transition - configuration is immutable once allocated.
var validTransitions = map[DeploymentState][]DeploymentState{
	StateUnallocated: {StateAllocated},
	StateAllocated:   {StateRemoved},
	StateRemoved:     {}, // Terminal state
}

// ValidateTransition checks if a state transition is valid.
func ValidateTransition(from, to DeploymentState) error {
	allowed, exists := validTransitions[from]
	if !exists {
		return ErrInvalidTransition
	}
	for _, s := range allowed {
		if s == to {
			return nil
		}
	}
	return ErrInvalidTransition
}

// =============================================================================
// Service Endpoints
// =============================================================================

// ServiceEndpoint is one resolved (container name, host port) pair.
type ServiceEndpoint struct {
	ContainerName string `json:"container_name"`
	HostPort      int    `json:"host_port"`
}

// =============================================================================
// Deployment Config
// =============================================================================

// DeploymentConfig is the immutable, materialized set of resolved names,
// ports and secrets for one deployment of the chat stack. It is created
// once at deploy time and only ever deleted, never mutated.
type DeploymentConfig struct {
	ID                string            `json:"id"`
	Network           string            `json:"network"`
	Postgres          ServiceEndpoint   `json:"postgres"`
	WebUIs            []ServiceEndpoint `json:"webuis,omitempty"`
	LoadBalancer      *ServiceEndpoint  `json:"load_balancer,omitempty"`
	DatabaseName      string            `json:"database_name"`
	DatabaseUser      string            `json:"database_user"`
	DatabasePassword  string            `json:"database_password"`
	SecretKey         string            `json:"secret_key"`
	AdminPasswordHash string            `json:"admin_password_hash,omitempty"`
	CreatedAt         time.Time         `json:"created_at"`
}

// Validate checks structural invariants of a materialized config.
func (c *DeploymentConfig) Validate() error {
	if c.ID == "" {
		return ErrMissingDeploymentID
	}
	if c.Postgres.ContainerName == "" && len(c.WebUIs) == 0 {
		return ErrNoServices
	}
	return nil
}

// Endpoints returns every resolved endpoint of the deployment in start
// order: database first, app instances next, load balancer last.
func (c *DeploymentConfig) Endpoints() []ServiceEndpoint {
	endpoints := make([]ServiceEndpoint, 0, len(c.WebUIs)+2)
	if c.Postgres.ContainerName != "" {
		endpoints = append(endpoints, c.Postgres)
	}
	endpoints = append(endpoints, c.WebUIs...)
	if c.LoadBalancer != nil {
		endpoints = append(endpoints, *c.LoadBalancer)
	}
	return endpoints
}

// =============================================================================
// Ledger Entry
// =============================================================================

// LedgerEntry maps a deployment ID to its materialized config file.
// Entries are appended on successful deploy and removed on cleanup,
// never mutated otherwise.
type LedgerEntry struct {
	DeploymentID string    `json:"deployment_id"`
	ConfigPath   string    `json:"config_path"`
	CreatedAt    time.Time `json:"created_at"`
}

// =============================================================================
// ID Generation
// =============================================================================

// NewDeploymentID generates a deployment ID when the operator supplies
// none. The ID is timestamp-derived for operator readability with a short
// random tail so two deploys inside the same second cannot collide.
//
// Example: "20260830-154212-9f3ac1d2"
func NewDeploymentID(now time.Time) string {
	return fmt.Sprintf("%s-%s", now.UTC().Format("20060102-150405"), uuid.NewString()[:8])
}
