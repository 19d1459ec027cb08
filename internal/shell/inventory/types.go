// Package inventory queries the external resource inventories the
// resolvers probe against: the Docker daemon for container and network
// names, and the host's listening-socket tables. Results are
// point-in-time snapshots; nothing here takes a reservation.
package inventory

import "context"

// =============================================================================
// Inventory Interfaces
// =============================================================================

// ContainerSource lists existing container and network names. Container
// listings include stopped containers - a stopped container still owns
// its name.
type ContainerSource interface {
	ContainerNames(ctx context.Context) ([]string, error)
	NetworkNames(ctx context.Context) ([]string, error)
}

// SocketSource lists all locally listening TCP ports. Two independent
// implementations exist (procfs and ss); callers OR-merge their results
// so a port either tool reports is treated as busy.
type SocketSource interface {
	ListeningPorts() ([]int, error)
}
