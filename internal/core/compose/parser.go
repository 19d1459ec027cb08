package compose

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"github.com/compose-spec/compose-go/v2/loader"
	"github.com/compose-spec/compose-go/v2/types"
	"gopkg.in/yaml.v3"
)

// =============================================================================
// Parser Functions
// =============================================================================

// ParseTemplate parses a stack template (Docker Compose YAML) into a
// Template. This is a pure function - no I/O, no side effects.
func ParseTemplate(yamlContent string) (*Template, error) {
	if strings.TrimSpace(yamlContent) == "" {
		return nil, ErrEmptyInput
	}

	project, err := loadProject(yamlContent)
	if err != nil {
		return nil, err
	}

	if err := checkUnsupportedFeatures(project); err != nil {
		return nil, err
	}

	if len(project.Services) == 0 {
		return nil, ErrNoServices
	}

	tpl := &Template{
		Services: make([]Service, 0, len(project.Services)),
		Volumes:  make([]Volume, 0, len(project.Volumes)),
	}

	for _, svc := range project.Services {
		converted, err := convertService(svc)
		if err != nil {
			return nil, err
		}
		tpl.Services = append(tpl.Services, converted)
	}

	if err := validateDependencies(tpl.Services); err != nil {
		return nil, err
	}
	tpl.Services = sortByDependency(tpl.Services)

	for name := range project.Volumes {
		tpl.Volumes = append(tpl.Volumes, Volume{Name: name})
	}
	sort.Slice(tpl.Volumes, func(i, j int) bool { return tpl.Volumes[i].Name < tpl.Volumes[j].Name })

	return tpl, nil
}

// loadProject loads a compose project using compose-go.
func loadProject(yamlContent string) (*types.Project, error) {
	// Parse YAML into a map first for an early syntax check
	var dict map[string]interface{}
	if err := yaml.Unmarshal([]byte(yamlContent), &dict); err != nil {
		return nil, NewParseError("", "invalid YAML syntax", ErrInvalidYAML)
	}
	if dict == nil {
		return nil, NewParseError("", "invalid YAML syntax", ErrInvalidYAML)
	}

	project, err := loader.LoadWithContext(context.Background(), types.ConfigDetails{
		ConfigFiles: []types.ConfigFile{
			{
				Content: []byte(yamlContent),
				Config:  dict,
			},
		},
	}, func(opts *loader.Options) {
		opts.SetProjectName("stackctl-template", false)
		opts.SkipValidation = false
		opts.SkipInterpolation = true // resolved values are injected later, keep ${VAR} intact
		opts.SkipNormalization = true
		opts.SkipExtends = true // don't try to load external files
	})
	if err != nil {
		errStr := err.Error()
		if strings.Contains(errStr, "image") && strings.Contains(errStr, "build") {
			return nil, NewParseError("", "service must have an image", ErrServiceNoImage)
		}
		return nil, NewParseError("", errStr, ErrInvalidYAML)
	}

	return project, nil
}

// checkUnsupportedFeatures rejects compose features outside template scope.
func checkUnsupportedFeatures(project *types.Project) error {
	if len(project.Secrets) > 0 {
		return NewParseError("secrets", "secrets are not supported", ErrUnsupportedFeature)
	}
	if len(project.Configs) > 0 {
		return NewParseError("configs", "configs are not supported", ErrUnsupportedFeature)
	}
	for _, svc := range project.Services {
		if svc.Build != nil {
			return NewParseError("services."+svc.Name+".build", "image builds are not supported", ErrUnsupportedFeature)
		}
		if svc.Extends != nil && svc.Extends.File != "" {
			return NewParseError("services."+svc.Name+".extends", "extends is not supported", ErrUnsupportedFeature)
		}
	}
	return nil
}

// convertService converts a compose-go service to our Service type.
func convertService(svc types.ServiceConfig) (Service, error) {
	if svc.Image == "" {
		return Service{}, NewParseError("services."+svc.Name, "service must have an image", ErrServiceNoImage)
	}

	service := Service{
		Name:        svc.Name,
		Image:       svc.Image,
		Command:     svc.Command,
		Environment: make(map[string]string),
		Restart:     svc.Restart,
	}

	for _, p := range svc.Ports {
		var published uint32
		if p.Published != "" {
			pub, err := strconv.ParseUint(p.Published, 10, 32)
			if err == nil {
				published = uint32(pub)
			}
		}
		service.Ports = append(service.Ports, Port{
			Target:    p.Target,
			Published: published,
			Protocol:  p.Protocol,
		})
	}

	for k, v := range svc.Environment {
		if v != nil {
			service.Environment[k] = *v
		}
	}

	for _, v := range svc.Volumes {
		service.Volumes = append(service.Volumes, VolumeMount{
			Source:   v.Source,
			Target:   v.Target,
			ReadOnly: v.ReadOnly,
		})
	}

	for dep := range svc.DependsOn {
		service.DependsOn = append(service.DependsOn, dep)
	}
	sort.Strings(service.DependsOn)

	return service, nil
}

// validateDependencies checks every depends_on reference resolves to a
// declared service. Cycles are caught by compose-go during loading.
func validateDependencies(services []Service) error {
	known := make(map[string]bool, len(services))
	for _, svc := range services {
		known[svc.Name] = true
	}
	for _, svc := range services {
		for _, dep := range svc.DependsOn {
			if !known[dep] {
				return NewParseError("services."+svc.Name+".depends_on", "unknown service "+dep, ErrUnknownDependsOn)
			}
		}
	}
	return nil
}

// sortByDependency orders services so dependencies come first. Ties are
// broken by name for deterministic output.
func sortByDependency(services []Service) []Service {
	byName := make(map[string]Service, len(services))
	names := make([]string, 0, len(services))
	for _, svc := range services {
		byName[svc.Name] = svc
		names = append(names, svc.Name)
	}
	sort.Strings(names)

	ordered := make([]Service, 0, len(services))
	visited := make(map[string]bool, len(services))

	var visit func(name string)
	visit = func(name string) {
		if visited[name] {
			return
		}
		visited[name] = true
		svc := byName[name]
		for _, dep := range svc.DependsOn {
			visit(dep)
		}
		ordered = append(ordered, svc)
	}

	for _, name := range names {
		visit(name)
	}
	return ordered
}
