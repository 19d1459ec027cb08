package ledger

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runai/stackctl/internal/core/domain"
)

// =============================================================================
// Test Helpers
// =============================================================================

// writeConfigFile creates a dummy materialized config file and returns
// its path.
func writeConfigFile(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("DEPLOYMENT_ID=x\n"), 0o600))
	return path
}

func entryFor(id, configPath string) domain.LedgerEntry {
	return domain.LedgerEntry{
		DeploymentID: id,
		ConfigPath:   configPath,
		CreatedAt:    time.Date(2026, 8, 30, 15, 42, 12, 0, time.UTC),
	}
}

// backends lists the two Ledger implementations under test.
func backends(t *testing.T) map[string]Ledger {
	t.Helper()

	fileLed, err := NewFileLedger(filepath.Join(t.TempDir(), "deployments.ledger"))
	require.NoError(t, err)

	sqliteLed, err := NewSQLiteLedger(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { sqliteLed.Close() })

	return map[string]Ledger{
		"file":   fileLed,
		"sqlite": sqliteLed,
	}
}

// =============================================================================
// Shared Contract Tests
// =============================================================================

func TestLedger_AppendThenList(t *testing.T) {
	for name, led := range backends(t) {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			cfg := writeConfigFile(t, dir, "a.env")

			require.NoError(t, led.Append(context.Background(), entryFor("a", cfg)))

			entries, err := led.List(context.Background())
			require.NoError(t, err)
			require.Len(t, entries, 1)
			assert.Equal(t, "a", entries[0].DeploymentID)
			assert.Equal(t, cfg, entries[0].ConfigPath)
		})
	}
}

func TestLedger_InsertionOrderPreserved(t *testing.T) {
	for name, led := range backends(t) {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			for _, id := range []string{"charlie", "alpha", "bravo"} {
				cfg := writeConfigFile(t, dir, id+".env")
				require.NoError(t, led.Append(context.Background(), entryFor(id, cfg)))
			}

			entries, err := led.List(context.Background())
			require.NoError(t, err)
			require.Len(t, entries, 3)
			assert.Equal(t, "charlie", entries[0].DeploymentID)
			assert.Equal(t, "alpha", entries[1].DeploymentID)
			assert.Equal(t, "bravo", entries[2].DeploymentID)
		})
	}
}

func TestLedger_ListSkipsMissingConfigFile(t *testing.T) {
	for name, led := range backends(t) {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			cfgA := writeConfigFile(t, dir, "a.env")
			cfgB := writeConfigFile(t, dir, "b.env")
			require.NoError(t, led.Append(context.Background(), entryFor("a", cfgA)))
			require.NoError(t, led.Append(context.Background(), entryFor("b", cfgB)))

			// Simulate out-of-band cleanup of a's config file.
			require.NoError(t, os.Remove(cfgA))

			entries, err := led.List(context.Background())
			require.NoError(t, err)
			require.Len(t, entries, 1)
			assert.Equal(t, "b", entries[0].DeploymentID)
		})
	}
}

func TestLedger_Remove(t *testing.T) {
	for name, led := range backends(t) {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			cfgA := writeConfigFile(t, dir, "a.env")
			cfgB := writeConfigFile(t, dir, "b.env")
			require.NoError(t, led.Append(context.Background(), entryFor("a", cfgA)))
			require.NoError(t, led.Append(context.Background(), entryFor("b", cfgB)))

			require.NoError(t, led.Remove(context.Background(), "b"))

			entries, err := led.List(context.Background())
			require.NoError(t, err)
			require.Len(t, entries, 1)
			assert.Equal(t, "a", entries[0].DeploymentID)

			_, err = os.Stat(cfgB)
			assert.True(t, os.IsNotExist(err), "config file must be deleted")
			_, err = os.Stat(cfgA)
			assert.NoError(t, err, "unrelated config file must survive")
		})
	}
}

func TestLedger_RemoveExactIDOnly(t *testing.T) {
	for name, led := range backends(t) {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			cfgA := writeConfigFile(t, dir, "a.env")
			cfgAB := writeConfigFile(t, dir, "ab.env")
			require.NoError(t, led.Append(context.Background(), entryFor("a", cfgA)))
			require.NoError(t, led.Append(context.Background(), entryFor("ab", cfgAB)))

			require.NoError(t, led.Remove(context.Background(), "a"))

			entries, err := led.List(context.Background())
			require.NoError(t, err)
			require.Len(t, entries, 1)
			assert.Equal(t, "ab", entries[0].DeploymentID)
		})
	}
}

func TestLedger_RemoveUnknownIDIsNoOp(t *testing.T) {
	for name, led := range backends(t) {
		t.Run(name, func(t *testing.T) {
			assert.NoError(t, led.Remove(context.Background(), "ghost"))
		})
	}
}

func TestLedger_EmptyList(t *testing.T) {
	for name, led := range backends(t) {
		t.Run(name, func(t *testing.T) {
			entries, err := led.List(context.Background())
			require.NoError(t, err)
			assert.Empty(t, entries)
		})
	}
}

func TestLedger_RejectsInvalidID(t *testing.T) {
	for name, led := range backends(t) {
		t.Run(name, func(t *testing.T) {
			err := led.Append(context.Background(), entryFor("", "whatever"))
			assert.Error(t, err)
		})
	}
}

// =============================================================================
// Line Codec Tests
// =============================================================================

func TestEncodeEntry_Format(t *testing.T) {
	line, err := encodeEntry(entryFor("a", "/data/configs/a.env"))
	require.NoError(t, err)
	assert.Equal(t, "a:/data/configs/a.env:1788104532", line)
}

func TestEncodeEntry_RejectsDelimiterInID(t *testing.T) {
	_, err := encodeEntry(entryFor("a:b", "x.env"))
	assert.ErrorIs(t, err, ErrInvalidDeploymentID)
}

func TestDecodeEntry_RoundTrip(t *testing.T) {
	entry := entryFor("prod-chat", "/data/configs/prod-chat.env")
	line, err := encodeEntry(entry)
	require.NoError(t, err)

	decoded, err := decodeEntry(line)
	require.NoError(t, err)
	assert.Equal(t, entry, decoded)
}

func TestDecodeEntry_PathWithColon(t *testing.T) {
	entry := entryFor("a", "/data/conf:igs/a.env")
	line, err := encodeEntry(entry)
	require.NoError(t, err)

	decoded, err := decodeEntry(line)
	require.NoError(t, err)
	assert.Equal(t, "/data/conf:igs/a.env", decoded.ConfigPath)
}

func TestDecodeEntry_Malformed(t *testing.T) {
	for _, line := range []string{"", "justone", "a:nopath", "a:path:notatime"} {
		_, err := decodeEntry(line)
		assert.ErrorIs(t, err, ErrMalformedEntry, "line %q", line)
	}
}

// =============================================================================
// Lock Tests
// =============================================================================

func TestFileLock_Timeout(t *testing.T) {
	dir := t.TempDir()
	lock := &fileLock{path: filepath.Join(dir, "ledger.lock")}

	require.NoError(t, lock.acquire(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	other := &fileLock{path: lock.path}
	err := other.acquire(ctx)
	assert.ErrorIs(t, err, ErrLockTimeout)

	require.NoError(t, lock.release())
	require.NoError(t, other.acquire(context.Background()))
	require.NoError(t, other.release())
}
