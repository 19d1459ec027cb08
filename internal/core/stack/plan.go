package stack

import (
	"errors"
	"fmt"
	"time"

	"github.com/runai/stackctl/internal/core/allocate"
	"github.com/runai/stackctl/internal/core/domain"
)

// =============================================================================
// Errors
// =============================================================================

var (
	ErrUnknownStackType = errors.New("unknown stack type")
	ErrInvalidInstances = errors.New("instance count must be at least 1")
)

// =============================================================================
// Plan Parameters
// =============================================================================

// PlanParams are the inputs to one stack planning run.
type PlanParams struct {
	DeploymentID string
	Type         StackType
	Instances    int // frontend instances; only meaningful for TypeScale
	// AdminPassword, when set, is bcrypt-hashed into the config so the
	// frontend can be bootstrapped with a known admin account.
	AdminPassword string
	Defaults      Defaults
	Inventory     Inventory
	Now           time.Time
}

// =============================================================================
// Stack Planning
// =============================================================================

// Plan resolves every name and port the requested stack needs against the
// supplied inventory snapshot and materializes them, together with fresh
// secrets, into an immutable DeploymentConfig.
//
// Resolutions are strictly sequential; each resolved name is added to the
// working snapshot and each resolved port is claimed before the next
// resolution, so one plan never hands out the same resource twice.
// Everything is only guaranteed free against the snapshot - a concurrent
// deploy can still race (accepted, single-operator usage).
func Plan(params PlanParams) (*domain.DeploymentConfig, error) {
	if params.DeploymentID == "" {
		return nil, domain.ErrMissingDeploymentID
	}

	instances := params.Instances
	switch params.Type {
	case TypePostgres:
		instances = 0
	case TypeWebUI:
		instances = 1
	case TypeScale:
		if instances < 1 {
			return nil, fmt.Errorf("%w: got %d", ErrInvalidInstances, params.Instances)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStackType, params.Type)
	}

	defaults := params.Defaults
	containers := append([]string(nil), params.Inventory.ContainerNames...)
	networks := append([]string(nil), params.Inventory.NetworkNames...)
	ports := params.Inventory.UsedPorts
	if ports == nil {
		ports = allocate.NewPortSet()
	}

	resolveContainer := func(base string) (string, error) {
		name, err := allocate.ResolveName(base, containers)
		if err != nil {
			return "", err
		}
		containers = append(containers, name)
		return name, nil
	}
	resolvePort := func(base int) (int, error) {
		port, err := allocate.ResolvePort(base, ports)
		if err != nil {
			return 0, err
		}
		ports.Claim(port)
		return port, nil
	}

	network, err := allocate.ResolveName(defaults.NetworkName, networks)
	if err != nil {
		return nil, err
	}

	cfg := &domain.DeploymentConfig{
		ID:           params.DeploymentID,
		Network:      network,
		DatabaseName: defaults.DatabaseName,
		DatabaseUser: defaults.DatabaseUser,
		CreatedAt:    params.Now.UTC(),
	}

	pgName, err := resolveContainer(defaults.PostgresName)
	if err != nil {
		return nil, err
	}
	pgPort, err := resolvePort(defaults.PostgresPort)
	if err != nil {
		return nil, err
	}
	cfg.Postgres = domain.ServiceEndpoint{ContainerName: pgName, HostPort: pgPort}

	for i := 0; i < instances; i++ {
		name, err := resolveContainer(defaults.WebUIName)
		if err != nil {
			return nil, err
		}
		port, err := resolvePort(defaults.WebUIPort)
		if err != nil {
			return nil, err
		}
		cfg.WebUIs = append(cfg.WebUIs, domain.ServiceEndpoint{ContainerName: name, HostPort: port})
	}

	if params.Type == TypeScale {
		name, err := resolveContainer(defaults.LBName)
		if err != nil {
			return nil, err
		}
		port, err := resolvePort(defaults.LBPort)
		if err != nil {
			return nil, err
		}
		cfg.LoadBalancer = &domain.ServiceEndpoint{ContainerName: name, HostPort: port}
	}

	cfg.DatabasePassword, err = domain.GeneratePassword()
	if err != nil {
		return nil, err
	}
	cfg.SecretKey, err = domain.GenerateSecretKey()
	if err != nil {
		return nil, err
	}
	if params.AdminPassword != "" {
		cfg.AdminPasswordHash, err = domain.HashAdminPassword(params.AdminPassword)
		if err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// =============================================================================
// Container Plan Building
// =============================================================================

// BuildContainerPlans converts a materialized config into the ordered
// list of containers to create: database first, frontends next, load
// balancer last. Order matters - the orchestrator starts them as given.
func BuildContainerPlans(cfg *domain.DeploymentConfig, defaults Defaults) []ContainerPlan {
	plans := make([]ContainerPlan, 0, len(cfg.WebUIs)+2)

	if cfg.Postgres.ContainerName != "" {
		plans = append(plans, ContainerPlan{
			Name:  cfg.Postgres.ContainerName,
			Image: defaults.PostgresImage,
			Env: map[string]string{
				"POSTGRES_DB":       cfg.DatabaseName,
				"POSTGRES_USER":     cfg.DatabaseUser,
				"POSTGRES_PASSWORD": cfg.DatabasePassword,
			},
			Ports: []PortPlan{
				{ContainerPort: 5432, HostPort: cfg.Postgres.HostPort, Protocol: "tcp"},
			},
			Volumes: []VolumePlan{
				{Source: cfg.Postgres.ContainerName + "-" + defaults.PostgresVolume, Target: "/var/lib/postgresql/data"},
			},
			Networks:      []string{cfg.Network},
			RestartPolicy: "unless-stopped",
		})
	}

	for _, ep := range cfg.WebUIs {
		plans = append(plans, ContainerPlan{
			Name:  ep.ContainerName,
			Image: defaults.WebUIImage,
			Env: map[string]string{
				"DATABASE_URL":     DatabaseURL(cfg),
				"WEBUI_SECRET_KEY": cfg.SecretKey,
				"PORT":             "8080",
			},
			Ports: []PortPlan{
				{ContainerPort: 8080, HostPort: ep.HostPort, Protocol: "tcp"},
			},
			Networks:      []string{cfg.Network},
			RestartPolicy: "unless-stopped",
		})
	}

	if cfg.LoadBalancer != nil {
		plans = append(plans, ContainerPlan{
			Name:  cfg.LoadBalancer.ContainerName,
			Image: defaults.LBImage,
			Ports: []PortPlan{
				{ContainerPort: 80, HostPort: cfg.LoadBalancer.HostPort, Protocol: "tcp"},
			},
			Networks:      []string{cfg.Network},
			RestartPolicy: "unless-stopped",
		})
	}

	return plans
}

// DatabaseURL renders the in-network connection string the frontends use
// to reach the database container. Containers talk over the deployment
// network, so the container port is used, not the resolved host port.
func DatabaseURL(cfg *domain.DeploymentConfig) string {
	return fmt.Sprintf("postgresql://%s:%s@%s:5432/%s",
		cfg.DatabaseUser, cfg.DatabasePassword, cfg.Postgres.ContainerName, cfg.DatabaseName)
}
