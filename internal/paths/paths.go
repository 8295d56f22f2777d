// Package paths centralizes file-path resolution for the router, the
// same single-source-of-truth role system/runtime/lib/paths plays for
// the teacher's commands: no hardcoded paths scattered across packages.
package paths

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"hookrouter/internal/config"
)

// Layout resolves every on-disk location the router touches, derived
// from a loaded config.Config.
type Layout struct {
	StateDir string
	LogDir   string
	TempDir  string
}

func NewLayout(cfg config.Config) Layout {
	return Layout{StateDir: cfg.StateDir, LogDir: cfg.LogDir, TempDir: cfg.TempDir}
}

// SessionHash returns the stable 8-character hex hash spec.md §4.A names
// for session-scoped file naming (state file, lock file, JSONL log).
func SessionHash(sessionID string) string {
	sum := sha256.Sum256([]byte(sessionID))
	return hex.EncodeToString(sum[:])[:8]
}

// StateFile returns the per-session, per-day state file path.
func (l Layout) StateFile(sessionID string, day time.Time) (string, error) {
	if err := os.MkdirAll(l.StateDir, 0o755); err != nil {
		return "", fmt.Errorf("paths: create state dir: %w", err)
	}
	name := fmt.Sprintf("%s-%s.json", day.Format("20060102"), SessionHash(sessionID))
	return filepath.Join(l.StateDir, name), nil
}

// LockFile returns the advisory-lock sentinel beside a state file.
func (l Layout) LockFile(stateFile string) string {
	return stateFile + ".lock"
}

// LogFile returns the per-session JSONL activity log path.
func (l Layout) LogFile(sessionID string, day time.Time) (string, error) {
	if err := os.MkdirAll(l.LogDir, 0o755); err != nil {
		return "", fmt.Errorf("paths: create log dir: %w", err)
	}
	name := fmt.Sprintf("%s-%s.jsonl", day.Format("20060102"), SessionHash(sessionID))
	return filepath.Join(l.LogDir, name), nil
}

// TempCategoryDir returns (and creates) a temp subdirectory for a named
// category, e.g. "hydrator" (spec.md §4.E temp file naming).
func (l Layout) TempCategoryDir(category string) (string, error) {
	dir := filepath.Join(l.TempDir, category)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("paths: create temp dir: %w", err)
	}
	return dir, nil
}
