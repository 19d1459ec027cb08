package orchestrator

import (
	"context"
	"fmt"
	"net"
	"time"
)

// =============================================================================
// Readiness Probe
// =============================================================================

// defaultProbeInterval is the pause between connection attempts.
const defaultProbeInterval = 500 * time.Millisecond

// WaitReady blocks until a TCP connection to the given host port succeeds,
// the timeout elapses, or the context is cancelled. It is used after start
// to wait for the database to accept connections before reporting success.
func WaitReady(ctx context.Context, port int, timeout time.Duration) error {
	addr := net.JoinHostPort("127.0.0.1", fmt.Sprintf("%d", port))
	deadline := time.Now().Add(timeout)

	for {
		conn, err := net.DialTimeout("tcp", addr, defaultProbeInterval)
		if err == nil {
			conn.Close()
			return nil
		}

		if time.Now().After(deadline) {
			return NewOrchestratorError("WaitReady", "port", addr,
				fmt.Sprintf("not accepting connections after %s", timeout), ErrProbeTimeout)
		}

		select {
		case <-ctx.Done():
			return NewOrchestratorError("WaitReady", "port", addr, "cancelled", ctx.Err())
		case <-time.After(defaultProbeInterval):
		}
	}
}
