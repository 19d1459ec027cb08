package ledger

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/runai/stackctl/internal/core/domain"
)

// =============================================================================
// Ledger Interface
// =============================================================================

// Ledger is the deployment bookkeeping contract. Entries are appended on
// successful deploy, removed on cleanup, and never mutated otherwise.
// Insertion order is preserved and is the only meaningful order.
type Ledger interface {
	// Append records a deployment. Fails only on storage errors.
	Append(ctx context.Context, entry domain.LedgerEntry) error

	// List returns entries in insertion order. Entries whose config file
	// no longer exists are silently skipped - a missing config file
	// de-facto removes the deployment without a ledger rewrite.
	List(ctx context.Context) ([]domain.LedgerEntry, error)

	// Remove drops every entry with the given deployment ID (exact match)
	// and deletes the associated config files. Not atomic across the two
	// steps; a crash in between can leave one without the other.
	Remove(ctx context.Context, deploymentID string) error

	// Lifecycle
	Close() error
}

// =============================================================================
// Line Codec
// =============================================================================

// encodeEntry renders one ledger line: deploymentID:configFilePath:timestamp.
// The timestamp is unix seconds so it cannot contain the delimiter.
func encodeEntry(entry domain.LedgerEntry) (string, error) {
	if entry.DeploymentID == "" || strings.Contains(entry.DeploymentID, ":") {
		return "", fmt.Errorf("%w: %q", ErrInvalidDeploymentID, entry.DeploymentID)
	}
	return fmt.Sprintf("%s:%s:%d", entry.DeploymentID, entry.ConfigPath, entry.CreatedAt.Unix()), nil
}

// decodeEntry parses a ledger line. The ID is everything before the
// first delimiter and the timestamp everything after the last, so config
// paths containing ':' survive the round trip.
func decodeEntry(line string) (domain.LedgerEntry, error) {
	id, rest, ok := strings.Cut(line, ":")
	if !ok || id == "" {
		return domain.LedgerEntry{}, fmt.Errorf("%w: %q", ErrMalformedEntry, line)
	}
	idx := strings.LastIndex(rest, ":")
	if idx < 0 {
		return domain.LedgerEntry{}, fmt.Errorf("%w: %q", ErrMalformedEntry, line)
	}
	ts, err := strconv.ParseInt(rest[idx+1:], 10, 64)
	if err != nil {
		return domain.LedgerEntry{}, fmt.Errorf("%w: %q", ErrMalformedEntry, line)
	}
	return domain.LedgerEntry{
		DeploymentID: id,
		ConfigPath:   rest[:idx],
		CreatedAt:    time.Unix(ts, 0).UTC(),
	}, nil
}
