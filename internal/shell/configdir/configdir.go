// Package configdir persists materialized deployment configs as env
// files in a directory owned by the allocator. Encoding and decoding go
// through the envfile codec; this package only does the file I/O.
package configdir

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/runai/stackctl/internal/core/domain"
	"github.com/runai/stackctl/internal/core/envfile"
)

// =============================================================================
// Config Directory
// =============================================================================

// Dir is the directory holding one env file per deployment.
type Dir struct {
	path string
}

// New creates the config directory if needed and returns a handle to it.
func New(path string) (Dir, error) {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return Dir{}, fmt.Errorf("create config dir: %w", err)
	}
	return Dir{path: path}, nil
}

// Path returns the directory path.
func (d Dir) Path() string {
	return d.path
}

// Write materializes a config to its deterministic file and returns the
// file path. Writing the same deployment ID again overwrites the
// previous file; that is accepted behavior. Exactly one file is written;
// the ledger is not touched. Files are 0600 - they hold secrets.
func (d Dir) Write(cfg *domain.DeploymentConfig) (string, error) {
	content, err := envfile.Encode(cfg)
	if err != nil {
		return "", err
	}

	path := filepath.Join(d.path, envfile.FileName(cfg.ID))
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		return "", fmt.Errorf("write config file: %w", err)
	}
	return path, nil
}

// Read loads and decodes a materialized config from path.
func (d Dir) Read(path string) (*domain.DeploymentConfig, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	return envfile.Decode(string(content))
}
