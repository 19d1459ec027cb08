// Package stack plans deployments of the chat-application stack:
// resolving collision-free names and ports against inventory snapshots,
// generating per-deployment secrets, and producing container plans ready
// for the shell to execute. This is part of the Functional Core - the
// shell supplies inventory snapshots and runs the resulting plans.
package stack

import (
	"github.com/runai/stackctl/internal/core/allocate"
)

// =============================================================================
// Stack Types
// =============================================================================

// StackType selects which built-in stack topology to deploy.
type StackType string

const (
	// TypePostgres deploys the database container only.
	TypePostgres StackType = "postgres"

	// TypeWebUI deploys the database plus one chat frontend instance.
	TypeWebUI StackType = "webui"

	// TypeScale deploys the database, N frontend instances and a load
	// balancer container in front of them.
	TypeScale StackType = "scale"
)

// ParseStackType validates an operator-supplied deployment type.
func ParseStackType(raw string) (StackType, error) {
	switch StackType(raw) {
	case TypePostgres, TypeWebUI, TypeScale:
		return StackType(raw), nil
	default:
		return "", ErrUnknownStackType
	}
}

// =============================================================================
// Inventory Snapshot
// =============================================================================

// Inventory is the point-in-time view of the host the resolvers probe
// against. Container names include stopped containers. The port set is
// the OR-merge of both socket inventory sources.
type Inventory struct {
	ContainerNames []string
	NetworkNames   []string
	UsedPorts      allocate.PortSet
}

// =============================================================================
// Static Defaults
// =============================================================================

// Defaults holds the static configuration every deployment starts from.
// Base names and ports are probe starting points, not final values.
type Defaults struct {
	PostgresName   string
	WebUIName      string
	LBName         string
	NetworkName    string
	PostgresPort   int
	WebUIPort      int
	LBPort         int
	DatabaseName   string
	DatabaseUser   string
	PostgresImage  string
	WebUIImage     string
	LBImage        string
	PostgresVolume string
}

// DefaultDefaults returns the stock chat-stack defaults.
func DefaultDefaults() Defaults {
	return Defaults{
		PostgresName:   "runai-postgres",
		WebUIName:      "runai-webui",
		LBName:         "runai-lb",
		NetworkName:    "runai-net",
		PostgresPort:   5432,
		WebUIPort:      3001,
		LBPort:         80,
		DatabaseName:   "openwebui_db",
		DatabaseUser:   "runai_user",
		PostgresImage:  "postgres:16-alpine",
		WebUIImage:     "ghcr.io/open-webui/open-webui:main",
		LBImage:        "nginx:1.27-alpine",
		PostgresVolume: "pgdata",
	}
}

// =============================================================================
// Container Plan Types
// =============================================================================

// ContainerPlan is one planned container, ready for the orchestrator.
// The plan is built entirely from structured fields - resolved values are
// never spliced into command strings.
type ContainerPlan struct {
	Name          string
	Image         string
	Env           map[string]string
	Ports         []PortPlan
	Volumes       []VolumePlan
	Networks      []string
	RestartPolicy string
}

// PortPlan is a planned host-to-container port binding.
type PortPlan struct {
	ContainerPort int
	HostPort      int
	Protocol      string
}

// VolumePlan is a planned volume mount.
type VolumePlan struct {
	Source   string
	Target   string
	ReadOnly bool
}
