package inventory

import (
	"context"
	"strings"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/client"
)

// =============================================================================
// Docker Inventory
// =============================================================================

// DockerInventory implements ContainerSource against the Docker daemon.
type DockerInventory struct {
	cli *client.Client
}

// NewDockerInventory creates a Docker inventory client. If host is empty,
// the default Docker host from the environment is used.
func NewDockerInventory(host string) (*DockerInventory, error) {
	var opts []client.Opt
	opts = append(opts, client.FromEnv)
	opts = append(opts, client.WithAPIVersionNegotiation())
	if host != "" {
		opts = append(opts, client.WithHost(host))
	}

	cli, err := client.NewClientWithOpts(opts...)
	if err != nil {
		return nil, NewInventoryError("NewDockerInventory", "docker", "failed to create client", ErrConnectionFailed)
	}
	return &DockerInventory{cli: cli}, nil
}

// Ping checks if the Docker daemon is reachable.
func (d *DockerInventory) Ping(ctx context.Context) error {
	if _, err := d.cli.Ping(ctx); err != nil {
		return NewInventoryError("Ping", "docker", err.Error(), ErrConnectionFailed)
	}
	return nil
}

// Close closes the Docker client connection.
func (d *DockerInventory) Close() error {
	return d.cli.Close()
}

// ContainerNames lists the names of all containers, stopped ones
// included - a stopped container still owns its name.
func (d *DockerInventory) ContainerNames(ctx context.Context) ([]string, error) {
	containers, err := d.cli.ContainerList(ctx, container.ListOptions{All: true})
	if err != nil {
		return nil, NewInventoryError("ContainerNames", "docker", err.Error(), err)
	}

	names := make([]string, 0, len(containers))
	for _, c := range containers {
		for _, name := range c.Names {
			names = append(names, strings.TrimPrefix(name, "/"))
		}
	}
	return names, nil
}

// NetworkNames lists the names of all Docker networks.
func (d *DockerInventory) NetworkNames(ctx context.Context) ([]string, error) {
	networks, err := d.cli.NetworkList(ctx, network.ListOptions{})
	if err != nil {
		return nil, NewInventoryError("NetworkNames", "docker", err.Error(), err)
	}

	names := make([]string, 0, len(networks))
	for _, n := range networks {
		names = append(names, n.Name)
	}
	return names, nil
}
