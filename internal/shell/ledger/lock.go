package ledger

import (
	"context"
	"fmt"
	"os"
	"time"
)

// =============================================================================
// Advisory Lock
// =============================================================================

// lockRetryInterval is the pause between lock acquisition attempts.
const lockRetryInterval = 25 * time.Millisecond

// fileLock is an advisory lock file wrapping the ledger's
// read-modify-write sequences. It closes the race between two
// invocations of the allocator rewriting the ledger; it does NOT cover
// the container/socket inventories, which stay racy by design.
type fileLock struct {
	path string
}

// acquire creates the lock file with O_EXCL, retrying until the context
// is done. A stale lock (crashed holder) must be removed by the
// operator; the timeout surfaces it instead of hanging forever.
func (l *fileLock) acquire(ctx context.Context) error {
	for {
		f, err := os.OpenFile(l.path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err == nil {
			fmt.Fprintf(f, "%d\n", os.Getpid())
			f.Close()
			return nil
		}
		if !os.IsExist(err) {
			return NewLedgerError("acquire", "", err.Error(), err)
		}

		select {
		case <-ctx.Done():
			return NewLedgerError("acquire", "", l.path, ErrLockTimeout)
		case <-time.After(lockRetryInterval):
		}
	}
}

// release removes the lock file.
func (l *fileLock) release() error {
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return NewLedgerError("release", "", err.Error(), err)
	}
	return nil
}
