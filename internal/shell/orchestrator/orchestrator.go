// Package orchestrator executes deployment plans against the Docker daemon.
//
// It turns planned containers into running ones: create the deployment
// network, create and start each container in plan order, and tear the
// whole stack down again on cleanup. Failures are reported to the caller
// as-is; a half-created stack is left in place for inspection rather than
// rolled back.
package orchestrator

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/mount"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/client"
	"github.com/docker/go-connections/nat"

	"github.com/runai/stackctl/internal/core/domain"
	"github.com/runai/stackctl/internal/core/stack"
)

// =============================================================================
// Orchestrator
// =============================================================================

// Orchestrator drives the Docker daemon from deployment plans.
type Orchestrator struct {
	cli    *client.Client
	logger *slog.Logger
}

// New creates an orchestrator connected to the Docker daemon.
// If host is empty, the client is configured from the environment.
func New(host string, logger *slog.Logger) (*Orchestrator, error) {
	opts := []client.Opt{
		client.FromEnv,
		client.WithAPIVersionNegotiation(),
	}
	if host != "" {
		opts = append(opts, client.WithHost(host))
	}

	cli, err := client.NewClientWithOpts(opts...)
	if err != nil {
		return nil, NewOrchestratorError("New", "", "", "failed to create client", ErrConnectionFailed)
	}
	return &Orchestrator{cli: cli, logger: logger}, nil
}

// Ping checks that the Docker daemon is reachable.
func (o *Orchestrator) Ping(ctx context.Context) error {
	if _, err := o.cli.Ping(ctx); err != nil {
		return NewOrchestratorError("Ping", "", "", fmt.Sprintf("failed to ping docker: %v", err), ErrConnectionFailed)
	}
	return nil
}

// Close closes the Docker client connection.
func (o *Orchestrator) Close() error {
	return o.cli.Close()
}

// =============================================================================
// Deployment Execution
// =============================================================================

// Deploy creates the deployment network and then creates and starts every
// planned container, in plan order. The first failure aborts the run and is
// returned; containers created before the failure are left as-is.
func (o *Orchestrator) Deploy(ctx context.Context, networkName string, plans []stack.ContainerPlan) error {
	if err := o.createNetwork(ctx, networkName); err != nil {
		return err
	}

	for _, plan := range plans {
		if err := o.ensureImage(ctx, plan.Image); err != nil {
			return err
		}
		id, err := o.createContainer(ctx, plan)
		if err != nil {
			return err
		}
		if err := o.cli.ContainerStart(ctx, id, container.StartOptions{}); err != nil {
			return NewOrchestratorError("StartContainer", "container", plan.Name, err.Error(), err)
		}
		o.logger.Info("container started", "container", plan.Name, "image", plan.Image)
	}

	return nil
}

// Teardown stops and removes the deployment's containers and its network.
// Containers are removed in reverse start order. Entities that no longer
// exist are skipped so a partially removed stack can be cleaned again.
func (o *Orchestrator) Teardown(ctx context.Context, cfg *domain.DeploymentConfig) error {
	endpoints := cfg.Endpoints()
	for i := len(endpoints) - 1; i >= 0; i-- {
		name := endpoints[i].ContainerName
		err := o.cli.ContainerRemove(ctx, name, container.RemoveOptions{
			Force:         true,
			RemoveVolumes: true,
		})
		if err != nil {
			if client.IsErrNotFound(err) {
				o.logger.Warn("container already gone", "container", name)
				continue
			}
			return NewOrchestratorError("RemoveContainer", "container", name, err.Error(), err)
		}
		o.logger.Info("container removed", "container", name)
	}

	if err := o.cli.NetworkRemove(ctx, cfg.Network); err != nil {
		if client.IsErrNotFound(err) {
			o.logger.Warn("network already gone", "network", cfg.Network)
			return nil
		}
		if strings.Contains(err.Error(), "has active endpoints") {
			return NewOrchestratorError("RemoveNetwork", "network", cfg.Network, "network has active endpoints", ErrNetworkInUse)
		}
		return NewOrchestratorError("RemoveNetwork", "network", cfg.Network, err.Error(), err)
	}
	o.logger.Info("network removed", "network", cfg.Network)
	return nil
}

// =============================================================================
// Container Operations
// =============================================================================

func (o *Orchestrator) createContainer(ctx context.Context, plan stack.ContainerPlan) (string, error) {
	config, hostConfig, netConfig := buildContainerSpec(plan)

	resp, err := o.cli.ContainerCreate(ctx, config, hostConfig, netConfig, nil, plan.Name)
	if err != nil {
		if strings.Contains(err.Error(), "Conflict") {
			return "", NewOrchestratorError("CreateContainer", "container", plan.Name, "container already exists", ErrContainerAlreadyExists)
		}
		if strings.Contains(err.Error(), "port is already allocated") {
			return "", NewOrchestratorError("CreateContainer", "container", plan.Name, err.Error(), ErrPortAlreadyAllocated)
		}
		return "", NewOrchestratorError("CreateContainer", "container", plan.Name, err.Error(), err)
	}
	return resp.ID, nil
}

// buildContainerSpec converts a container plan into the Docker API config
// triple. All values come from the plan's structured fields.
func buildContainerSpec(plan stack.ContainerPlan) (*container.Config, *container.HostConfig, *network.NetworkingConfig) {
	config := &container.Config{
		Image: plan.Image,
	}
	for k, v := range plan.Env {
		config.Env = append(config.Env, fmt.Sprintf("%s=%s", k, v))
	}

	hostConfig := &container.HostConfig{}

	if len(plan.Ports) > 0 {
		portBindings := nat.PortMap{}
		exposedPorts := nat.PortSet{}
		for _, p := range plan.Ports {
			proto := p.Protocol
			if proto == "" {
				proto = "tcp"
			}
			containerPort := nat.Port(fmt.Sprintf("%d/%s", p.ContainerPort, proto))
			exposedPorts[containerPort] = struct{}{}
			portBindings[containerPort] = []nat.PortBinding{
				{HostPort: fmt.Sprintf("%d", p.HostPort)},
			}
		}
		config.ExposedPorts = exposedPorts
		hostConfig.PortBindings = portBindings
	}

	for _, v := range plan.Volumes {
		mountType := mount.TypeVolume
		if strings.HasPrefix(v.Source, "/") {
			mountType = mount.TypeBind
		}
		hostConfig.Mounts = append(hostConfig.Mounts, mount.Mount{
			Type:     mountType,
			Source:   v.Source,
			Target:   v.Target,
			ReadOnly: v.ReadOnly,
		})
	}

	if plan.RestartPolicy != "" {
		hostConfig.RestartPolicy = container.RestartPolicy{
			Name: container.RestartPolicyMode(plan.RestartPolicy),
		}
	}

	var netConfig *network.NetworkingConfig
	if len(plan.Networks) > 0 {
		netConfig = &network.NetworkingConfig{
			EndpointsConfig: map[string]*network.EndpointSettings{},
		}
		for _, n := range plan.Networks {
			netConfig.EndpointsConfig[n] = &network.EndpointSettings{}
		}
	}

	return config, hostConfig, netConfig
}

// =============================================================================
// Network and Image Operations
// =============================================================================

func (o *Orchestrator) createNetwork(ctx context.Context, name string) error {
	_, err := o.cli.NetworkCreate(ctx, name, network.CreateOptions{
		Driver: "bridge",
	})
	if err != nil {
		if strings.Contains(err.Error(), "already exists") {
			return NewOrchestratorError("CreateNetwork", "network", name, "network already exists", ErrNetworkAlreadyExists)
		}
		return NewOrchestratorError("CreateNetwork", "network", name, err.Error(), err)
	}
	o.logger.Info("network created", "network", name)
	return nil
}

// ensureImage pulls the image when it is not present locally.
func (o *Orchestrator) ensureImage(ctx context.Context, ref string) error {
	_, _, err := o.cli.ImageInspectWithRaw(ctx, ref)
	if err == nil {
		return nil
	}
	if !client.IsErrNotFound(err) {
		return NewOrchestratorError("InspectImage", "image", ref, err.Error(), err)
	}

	o.logger.Info("pulling image", "image", ref)
	reader, err := o.cli.ImagePull(ctx, ref, image.PullOptions{})
	if err != nil {
		errStr := err.Error()
		if strings.Contains(errStr, "not found") ||
			strings.Contains(errStr, "manifest unknown") ||
			strings.Contains(errStr, "repository does not exist") ||
			strings.Contains(errStr, "pull access denied") {
			return NewOrchestratorError("PullImage", "image", ref, "image not found", ErrImageNotFound)
		}
		return NewOrchestratorError("PullImage", "image", ref, errStr, ErrImagePullFailed)
	}
	defer reader.Close()

	// Drain the reader to complete the pull
	if _, err := io.Copy(io.Discard, reader); err != nil {
		return NewOrchestratorError("PullImage", "image", ref, err.Error(), ErrImagePullFailed)
	}
	return nil
}
