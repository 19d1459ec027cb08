package compose

// =============================================================================
// Template - Main Output Type
// =============================================================================

// Template is a parsed stack template, decoupled from compose-go types.
// Services are ordered by dependency: a service appears after everything
// it depends on, so the orchestrator can start them front to back.
type Template struct {
	Services []Service `json:"services"`
	Volumes  []Volume  `json:"volumes,omitempty"`
}

// =============================================================================
// Service Types
// =============================================================================

// Service is a single service definition from a stack template. Base
// names and published ports are probe starting points for the resolvers,
// not final values.
type Service struct {
	Name        string            `json:"name"`
	Image       string            `json:"image"`
	Command     []string          `json:"command,omitempty"`
	Ports       []Port            `json:"ports,omitempty"`
	Environment map[string]string `json:"environment,omitempty"`
	Volumes     []VolumeMount     `json:"volumes,omitempty"`
	DependsOn   []string          `json:"depends_on,omitempty"`
	Restart     string            `json:"restart,omitempty"`
}

// Port is a port mapping from the template.
type Port struct {
	Target    uint32 `json:"target"`              // Container port
	Published uint32 `json:"published,omitempty"` // Base host port (0 = dynamic)
	Protocol  string `json:"protocol,omitempty"`
}

// VolumeMount is a volume mount in a service.
type VolumeMount struct {
	Source   string `json:"source"`
	Target   string `json:"target"`
	ReadOnly bool   `json:"readonly"`
}

// Volume is a named volume definition.
type Volume struct {
	Name string `json:"name"`
}
