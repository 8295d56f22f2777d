package state

import (
	"os"
	"time"

	"golang.org/x/sys/unix"

	"hookrouter/internal/paths"
	"hookrouter/internal/rlog"
)

// lockTimeout bounds how long a hook invocation waits for the per-session
// exclusive lock before degrading to an in-memory copy (spec.md §5
// "Ordering guarantees": "a 10-second timeout on lock acquisition").
const lockTimeout = 10 * time.Second

// WithLock loads, locks, runs fn, saves, and unlocks around a single
// session's state file. If the lock cannot be acquired within
// lockTimeout, fn still runs against an in-memory load but the result is
// not guaranteed durable against a concurrent writer; a CRITICAL log
// line records the degradation (spec.md §7 "Lock timeout").
func WithLock(layout paths.Layout, sessionID string, fn func(*State) error) error {
	st, err := Load(layout, sessionID)
	if err != nil {
		return err
	}

	lockPath := layout.LockFile(st.path)
	f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		rlog.Critical("failed to open lock file, proceeding unlocked", map[string]interface{}{"session_id": sessionID, "error": err.Error()})
		if ferr := fn(st); ferr != nil {
			return ferr
		}
		return st.Save()
	}
	defer f.Close()

	locked := acquireWithTimeout(f, lockTimeout)
	if !locked {
		rlog.Critical("lock acquisition timed out, degrading to in-memory state", map[string]interface{}{"session_id": sessionID, "timeout_seconds": lockTimeout.Seconds()})
	} else {
		defer unix.Flock(int(f.Fd()), unix.LOCK_UN)
		// Re-read under lock: another process may have written since our
		// unlocked Load above.
		if reloaded, err := Load(layout, sessionID); err == nil {
			st = reloaded
		}
	}

	if err := fn(st); err != nil {
		return err
	}
	return st.Save()
}

func acquireWithTimeout(f *os.File, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for {
		err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB)
		if err == nil {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(25 * time.Millisecond)
	}
}
