// Package e2e exercises the stackctl binary against a real Docker
// daemon. The tests are skipped unless STACKCTL_E2E_BIN points at a
// built binary, so the regular test run never needs a daemon.
package e2e

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

// =============================================================================
// Binary Invocation
// =============================================================================

// binPath returns the stackctl binary under test, skipping the test
// when none is configured.
func binPath(t *testing.T) string {
	t.Helper()
	bin := os.Getenv("STACKCTL_E2E_BIN")
	if bin == "" {
		t.Skip("STACKCTL_E2E_BIN not set; skipping e2e tests")
	}
	return bin
}

// Result holds the outcome of one stackctl invocation.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Run invokes stackctl with the given arguments against an isolated
// data directory and returns the outcome. It never fails the test
// itself so callers can assert on non-zero exits.
func Run(t *testing.T, dataDir string, args ...string) Result {
	t.Helper()

	cmd := exec.Command(binPath(t), args...)
	cmd.Env = append(os.Environ(),
		"STACKCTL_LEDGER_PATH="+filepath.Join(dataDir, "deployments.ledger"),
		"STACKCTL_LEDGER_CONFIG_DIR="+filepath.Join(dataDir, "configs"),
		"STACKCTL_LOG_FORMAT=text",
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	exitCode := 0
	if exitErr, ok := err.(*exec.ExitError); ok {
		exitCode = exitErr.ExitCode()
	} else if err != nil {
		t.Fatalf("failed to run stackctl: %v", err)
	}

	return Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: exitCode,
	}
}
