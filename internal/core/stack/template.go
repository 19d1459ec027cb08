package stack

import (
	"strings"
	"time"

	"github.com/runai/stackctl/internal/core/allocate"
	"github.com/runai/stackctl/internal/core/compose"
	"github.com/runai/stackctl/internal/core/domain"
)

// =============================================================================
// Service Roles
// =============================================================================

// serviceRole classifies a template service into the slot it fills in the
// deployment config.
type serviceRole int

const (
	roleApp serviceRole = iota
	roleDatabase
	roleLoadBalancer
)

// classifyService infers the role from the service name. Built-in stacks
// use fixed names; templates follow the same convention.
func classifyService(name string) serviceRole {
	lower := strings.ToLower(name)
	switch {
	case strings.Contains(lower, "postgres"), strings.Contains(lower, "db"):
		return roleDatabase
	case strings.Contains(lower, "lb"), strings.Contains(lower, "nginx"), strings.Contains(lower, "proxy"):
		return roleLoadBalancer
	default:
		return roleApp
	}
}

// =============================================================================
// Template Planning
// =============================================================================

// TemplatePlan is the result of planning a template deployment: the
// materialized config plus the concrete container plans to execute.
type TemplatePlan struct {
	Config *domain.DeploymentConfig
	Plans  []ContainerPlan
}

// PlanTemplate resolves names and ports for every service of a parsed
// template and materializes the deployment config. Service container
// names are derived as <deploymentID>-<service> and then probed for
// collisions like any other base name; published ports from the template
// are probe starting points (0 means allocate from the webui base port).
//
// Placeholders in template environment values are substituted from the
// resolved config after resolution, so a template can reference
// ${DATABASE_URL}, ${POSTGRES_PASSWORD}, ${WEBUI_SECRET_KEY} and friends.
func PlanTemplate(deploymentID string, tpl *compose.Template, defaults Defaults, inv Inventory, now time.Time) (*TemplatePlan, error) {
	if deploymentID == "" {
		return nil, domain.ErrMissingDeploymentID
	}

	containers := append([]string(nil), inv.ContainerNames...)
	ports := inv.UsedPorts
	if ports == nil {
		ports = allocate.NewPortSet()
	}

	network, err := allocate.ResolveName(defaults.NetworkName, inv.NetworkNames)
	if err != nil {
		return nil, err
	}

	cfg := &domain.DeploymentConfig{
		ID:           deploymentID,
		Network:      network,
		DatabaseName: defaults.DatabaseName,
		DatabaseUser: defaults.DatabaseUser,
		CreatedAt:    now.UTC(),
	}
	cfg.DatabasePassword, err = domain.GeneratePassword()
	if err != nil {
		return nil, err
	}
	cfg.SecretKey, err = domain.GenerateSecretKey()
	if err != nil {
		return nil, err
	}

	type resolved struct {
		service  compose.Service
		endpoint domain.ServiceEndpoint
	}
	resolutions := make([]resolved, 0, len(tpl.Services))

	for _, svc := range tpl.Services {
		name, err := allocate.ResolveName(domain.Slugify(deploymentID)+"-"+svc.Name, containers)
		if err != nil {
			return nil, err
		}
		containers = append(containers, name)

		hostPort := 0
		if len(svc.Ports) > 0 {
			base := int(svc.Ports[0].Published)
			if base == 0 {
				base = defaults.WebUIPort
			}
			hostPort, err = allocate.ResolvePort(base, ports)
			if err != nil {
				return nil, err
			}
			ports.Claim(hostPort)
		}

		ep := domain.ServiceEndpoint{ContainerName: name, HostPort: hostPort}
		switch classifyService(svc.Name) {
		case roleDatabase:
			cfg.Postgres = ep
		case roleLoadBalancer:
			lb := ep
			cfg.LoadBalancer = &lb
		default:
			cfg.WebUIs = append(cfg.WebUIs, ep)
		}
		resolutions = append(resolutions, resolved{service: svc, endpoint: ep})
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	variables := templateVariables(cfg)
	plans := make([]ContainerPlan, 0, len(resolutions))
	for _, r := range resolutions {
		plans = append(plans, buildTemplatePlan(r.service, r.endpoint, cfg, variables))
	}

	return &TemplatePlan{Config: cfg, Plans: plans}, nil
}

// templateVariables exposes the resolved deployment values a template can
// reference in ${VAR} placeholders.
func templateVariables(cfg *domain.DeploymentConfig) map[string]string {
	vars := map[string]string{
		"DEPLOYMENT_ID":     cfg.ID,
		"NETWORK_NAME":      cfg.Network,
		"POSTGRES_DB":       cfg.DatabaseName,
		"POSTGRES_USER":     cfg.DatabaseUser,
		"POSTGRES_PASSWORD": cfg.DatabasePassword,
		"WEBUI_SECRET_KEY":  cfg.SecretKey,
	}
	if cfg.Postgres.ContainerName != "" {
		vars["POSTGRES_HOST"] = cfg.Postgres.ContainerName
		vars["DATABASE_URL"] = DatabaseURL(cfg)
	}
	return vars
}

func buildTemplatePlan(svc compose.Service, ep domain.ServiceEndpoint, cfg *domain.DeploymentConfig, variables map[string]string) ContainerPlan {
	env := make(map[string]string, len(svc.Environment))
	for k, v := range svc.Environment {
		env[k] = SubstituteVariables(v, variables)
	}

	var plannedPorts []PortPlan
	if len(svc.Ports) > 0 {
		proto := svc.Ports[0].Protocol
		if proto == "" {
			proto = "tcp"
		}
		plannedPorts = append(plannedPorts, PortPlan{
			ContainerPort: int(svc.Ports[0].Target),
			HostPort:      ep.HostPort,
			Protocol:      proto,
		})
	}

	var volumes []VolumePlan
	for _, v := range svc.Volumes {
		source := v.Source
		// Named volumes are scoped to the container to keep deployments
		// isolated; bind mounts pass through untouched.
		if !strings.HasPrefix(source, "/") && !strings.HasPrefix(source, ".") {
			source = ep.ContainerName + "-" + source
		}
		volumes = append(volumes, VolumePlan{Source: source, Target: v.Target, ReadOnly: v.ReadOnly})
	}

	restart := svc.Restart
	if restart == "" {
		restart = "unless-stopped"
	}

	return ContainerPlan{
		Name:          ep.ContainerName,
		Image:         svc.Image,
		Env:           env,
		Ports:         plannedPorts,
		Volumes:       volumes,
		Networks:      []string{cfg.Network},
		RestartPolicy: restart,
	}
}
