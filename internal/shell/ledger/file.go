package ledger

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/runai/stackctl/internal/core/domain"
)

// =============================================================================
// File Ledger
// =============================================================================

// FileLedger implements Ledger on a flat file, one entry per line.
// The allocator exclusively owns the file; an advisory lock file next to
// it serializes read-modify-write sequences between invocations.
type FileLedger struct {
	path string
	lock *fileLock
}

// NewFileLedger creates a file-backed ledger at path, creating parent
// directories as needed. The ledger file itself appears on first Append.
func NewFileLedger(path string) (*FileLedger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, NewLedgerError("NewFileLedger", "", err.Error(), err)
	}
	return &FileLedger{
		path: path,
		lock: &fileLock{path: path + ".lock"},
	}, nil
}

// Close is a no-op for the file backend.
func (l *FileLedger) Close() error {
	return nil
}

// Append adds one entry at the end of the ledger file.
func (l *FileLedger) Append(ctx context.Context, entry domain.LedgerEntry) error {
	line, err := encodeEntry(entry)
	if err != nil {
		return err
	}

	if err := l.lock.acquire(ctx); err != nil {
		return err
	}
	defer l.lock.release()

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return NewLedgerError("Append", entry.DeploymentID, err.Error(), err)
	}
	defer f.Close()

	if _, err := f.WriteString(line + "\n"); err != nil {
		return NewLedgerError("Append", entry.DeploymentID, err.Error(), err)
	}
	return nil
}

// List reads the ledger top to bottom, cross-referencing each entry's
// config file. Entries whose config file is missing are silently
// skipped. Malformed lines are skipped as well rather than failing the
// whole listing.
func (l *FileLedger) List(ctx context.Context) ([]domain.LedgerEntry, error) {
	if err := l.lock.acquire(ctx); err != nil {
		return nil, err
	}
	defer l.lock.release()

	return l.readEntries()
}

// readEntries loads live entries without taking the lock.
func (l *FileLedger) readEntries() ([]domain.LedgerEntry, error) {
	content, err := os.ReadFile(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, NewLedgerError("List", "", err.Error(), err)
	}

	var entries []domain.LedgerEntry
	for _, line := range strings.Split(string(content), "\n") {
		if line == "" {
			continue
		}
		entry, err := decodeEntry(line)
		if err != nil {
			continue
		}
		if _, err := os.Stat(entry.ConfigPath); err != nil {
			continue // soft-delete: missing config file hides the entry
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// Remove filters the ledger to exclude the given deployment ID, rewrites
// the file through a temp file + rename, then deletes the associated
// config files. The two steps are not atomic with each other; a crash in
// between leaves a config file without an entry (harmless) or relies on
// List's soft-skip.
func (l *FileLedger) Remove(ctx context.Context, deploymentID string) error {
	if deploymentID == "" || strings.Contains(deploymentID, ":") {
		return NewLedgerError("Remove", deploymentID, "invalid id", ErrInvalidDeploymentID)
	}

	if err := l.lock.acquire(ctx); err != nil {
		return err
	}
	defer l.lock.release()

	content, err := os.ReadFile(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return NewLedgerError("Remove", deploymentID, err.Error(), err)
	}

	var kept []string
	var configPaths []string
	for _, line := range strings.Split(string(content), "\n") {
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, deploymentID+":") {
			if entry, err := decodeEntry(line); err == nil {
				configPaths = append(configPaths, entry.ConfigPath)
			}
			continue
		}
		kept = append(kept, line)
	}

	tmp := l.path + ".tmp"
	rewritten := ""
	if len(kept) > 0 {
		rewritten = strings.Join(kept, "\n") + "\n"
	}
	if err := os.WriteFile(tmp, []byte(rewritten), 0o644); err != nil {
		return NewLedgerError("Remove", deploymentID, err.Error(), err)
	}
	if err := os.Rename(tmp, l.path); err != nil {
		return NewLedgerError("Remove", deploymentID, err.Error(), err)
	}

	for _, path := range configPaths {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return NewLedgerError("Remove", deploymentID, err.Error(), err)
		}
	}
	return nil
}
