// Package envfile is the single encode/decode boundary for materialized
// deployment config records. The on-disk format is one KEY=value
// assignment per line, suitable for sourcing as environment variables.
// Keys are fixed and known in advance; values never contain newlines.
// This is part of the Functional Core - no I/O.
package envfile

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/runai/stackctl/internal/core/domain"
)

// =============================================================================
// Errors
// =============================================================================

var (
	// ErrMalformedLine is returned when a non-empty line has no '='.
	ErrMalformedLine = errors.New("malformed line: missing '='")

	// ErrUnsafeValue is returned when a value would break the line format.
	ErrUnsafeValue = errors.New("value must not contain newlines")

	// ErrListMismatch is returned when the container and port lists of a
	// record disagree in length.
	ErrListMismatch = errors.New("container and port lists differ in length")
)

// =============================================================================
// Record Keys
// =============================================================================

// The fixed key set of a config record. Keys never contain '='.
const (
	KeyDeploymentID      = "DEPLOYMENT_ID"
	KeyNetworkName       = "NETWORK_NAME"
	KeyPostgresContainer = "POSTGRES_CONTAINER"
	KeyPostgresPort      = "POSTGRES_PORT"
	KeyPostgresDB        = "POSTGRES_DB"
	KeyPostgresUser      = "POSTGRES_USER"
	KeyPostgresPassword  = "POSTGRES_PASSWORD"
	KeyWebUIContainers   = "WEBUI_CONTAINERS"
	KeyWebUIPorts        = "WEBUI_PORTS"
	KeyWebUISecretKey    = "WEBUI_SECRET_KEY"
	KeyAdminPasswordHash = "ADMIN_PASSWORD_HASH"
	KeyLBContainer       = "LB_CONTAINER"
	KeyLBPort            = "LB_PORT"
	KeyCreatedAt         = "CREATED_AT"
)

// listSeparator joins multi-instance container and port lists.
const listSeparator = ","

// =============================================================================
// File Naming
// =============================================================================

// FileName returns the deterministic config file name for a deployment ID.
// The ID is slugified first so operator-supplied IDs cannot escape the
// config directory. Slugification is lossy ("Prod Chat" and "prod-chat"
// share a slug), so whenever the slug differs from the raw ID a short
// hash of the raw ID is appended - distinct IDs never share a file, and
// only reusing the exact same ID overwrites the previous file (accepted
// behavior, not guarded against).
func FileName(deploymentID string) string {
	slug := domain.Slugify(deploymentID)
	if slug != "" && slug == deploymentID {
		return slug + ".env"
	}
	sum := sha256.Sum256([]byte(deploymentID))
	tag := hex.EncodeToString(sum[:4])
	if slug == "" {
		slug = "deployment"
	}
	return slug + "-" + tag + ".env"
}

// =============================================================================
// Encoding
// =============================================================================

// Encode serializes a config to the KEY=value format. Key order is fixed;
// optional keys (load balancer, admin hash) are omitted when unset.
func Encode(cfg *domain.DeploymentConfig) (string, error) {
	if err := cfg.Validate(); err != nil {
		return "", err
	}

	containers := make([]string, 0, len(cfg.WebUIs))
	ports := make([]string, 0, len(cfg.WebUIs))
	for _, ep := range cfg.WebUIs {
		containers = append(containers, ep.ContainerName)
		ports = append(ports, strconv.Itoa(ep.HostPort))
	}

	var b strings.Builder
	write := func(key, value string) error {
		if strings.ContainsAny(value, "\n\r") {
			return fmt.Errorf("%w: key %s", ErrUnsafeValue, key)
		}
		b.WriteString(key)
		b.WriteByte('=')
		b.WriteString(value)
		b.WriteByte('\n')
		return nil
	}

	pairs := []struct {
		key   string
		value string
	}{
		{KeyDeploymentID, cfg.ID},
		{KeyNetworkName, cfg.Network},
		{KeyPostgresContainer, cfg.Postgres.ContainerName},
		{KeyPostgresPort, strconv.Itoa(cfg.Postgres.HostPort)},
		{KeyPostgresDB, cfg.DatabaseName},
		{KeyPostgresUser, cfg.DatabaseUser},
		{KeyPostgresPassword, cfg.DatabasePassword},
		{KeyWebUIContainers, strings.Join(containers, listSeparator)},
		{KeyWebUIPorts, strings.Join(ports, listSeparator)},
		{KeyWebUISecretKey, cfg.SecretKey},
		{KeyCreatedAt, cfg.CreatedAt.UTC().Format(time.RFC3339)},
	}
	for _, p := range pairs {
		if err := write(p.key, p.value); err != nil {
			return "", err
		}
	}

	if cfg.AdminPasswordHash != "" {
		if err := write(KeyAdminPasswordHash, cfg.AdminPasswordHash); err != nil {
			return "", err
		}
	}
	if cfg.LoadBalancer != nil {
		if err := write(KeyLBContainer, cfg.LoadBalancer.ContainerName); err != nil {
			return "", err
		}
		if err := write(KeyLBPort, strconv.Itoa(cfg.LoadBalancer.HostPort)); err != nil {
			return "", err
		}
	}

	return b.String(), nil
}

// =============================================================================
// Decoding
// =============================================================================

// Decode parses a config record previously produced by Encode. Blank
// lines and '#' comments are ignored; values keep everything after the
// first '='.
func Decode(content string) (*domain.DeploymentConfig, error) {
	values := make(map[string]string)

	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrMalformedLine, line)
		}
		values[key] = value
	}

	cfg := &domain.DeploymentConfig{
		ID:                values[KeyDeploymentID],
		Network:           values[KeyNetworkName],
		DatabaseName:      values[KeyPostgresDB],
		DatabaseUser:      values[KeyPostgresUser],
		DatabasePassword:  values[KeyPostgresPassword],
		SecretKey:         values[KeyWebUISecretKey],
		AdminPasswordHash: values[KeyAdminPasswordHash],
	}

	pgPort, err := parsePort(values[KeyPostgresPort])
	if err != nil {
		return nil, err
	}
	cfg.Postgres = domain.ServiceEndpoint{
		ContainerName: values[KeyPostgresContainer],
		HostPort:      pgPort,
	}

	webuis, err := parseEndpointLists(values[KeyWebUIContainers], values[KeyWebUIPorts])
	if err != nil {
		return nil, err
	}
	cfg.WebUIs = webuis

	if lb := values[KeyLBContainer]; lb != "" {
		lbPort, err := parsePort(values[KeyLBPort])
		if err != nil {
			return nil, err
		}
		cfg.LoadBalancer = &domain.ServiceEndpoint{ContainerName: lb, HostPort: lbPort}
	}

	if raw := values[KeyCreatedAt]; raw != "" {
		createdAt, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", KeyCreatedAt, err)
		}
		cfg.CreatedAt = createdAt
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func parsePort(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	port, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid port %q: %w", raw, err)
	}
	return port, nil
}

func parseEndpointLists(containers, ports string) ([]domain.ServiceEndpoint, error) {
	if containers == "" {
		return nil, nil
	}
	names := strings.Split(containers, listSeparator)
	rawPorts := strings.Split(ports, listSeparator)
	if len(names) != len(rawPorts) {
		return nil, fmt.Errorf("%w: %d containers, %d ports", ErrListMismatch, len(names), len(rawPorts))
	}

	endpoints := make([]domain.ServiceEndpoint, 0, len(names))
	for i, name := range names {
		port, err := parsePort(rawPorts[i])
		if err != nil {
			return nil, err
		}
		endpoints = append(endpoints, domain.ServiceEndpoint{ContainerName: name, HostPort: port})
	}
	return endpoints, nil
}
