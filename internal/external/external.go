// Package external wraps the router's narrow interfaces to out-of-process
// collaborators named in spec.md §6: a task CLI, a push-notification
// sender, an auto-commit handler, and a transcript generator. None of
// these are reimplemented here (spec.md Non-goals) — each is a thin,
// timeout-bounded exec.Command call that degrades silently on failure,
// grounded in router.py's _run_ntfy_notifier / _run_generate_transcript /
// _run_aca_data_autocommit and the teacher's hooks/git/cmd-commit-msg
// plumbing.
package external

import (
	"context"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"hookrouter/internal/rlog"
)

// TaskCLI queries the external task manager for active/inbox work.
type TaskCLI struct {
	Path string
}

// ListActive calls `<cli> list --status=active --limit=N` with a 5s
// timeout, returning raw stdout. Any failure degrades to an empty
// string — the hydration payload simply omits task state rather than
// blocking the prompt.
func (t TaskCLI) ListActive(limit int) string {
	if t.Path == "" {
		return ""
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, t.Path, "list", "--status=active", "--limit="+strconv.Itoa(limit))
	out, err := cmd.Output()
	if err != nil {
		rlog.Log.WithField("component", "task_cli").Debug("task list failed: ", err)
		return ""
	}
	return string(out)
}

// Notifier sends topic-based push notifications on session/task
// lifecycle events; a no-op unless Topic is configured.
type Notifier struct {
	Topic string
}

// Notify fires a best-effort notification. Failures are logged at debug
// level only — notification delivery never blocks a hook response.
func (n Notifier) Notify(title, message string) {
	if n.Topic == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, "ntfy", "publish", n.Topic, title, message)
	if err := cmd.Run(); err != nil {
		rlog.Log.WithField("component", "notifier").Debug("notify failed: ", err)
	}
}

// AutoCommit auto-commits state-modifying changes in a knowledge/task
// data repository, never on main/master (spec.md §6). It commits and
// pushes only; no fetch or rebase is attempted, and commit/push failures
// are logged as warnings.
type AutoCommit struct {
	RepoPath string
}

// CommitIfDirty stages and commits all changes with message if the repo
// has a dirty worktree and is not on a protected branch.
func (a AutoCommit) CommitIfDirty(message string) {
	if a.RepoPath == "" {
		return
	}
	branch := a.currentBranch()
	if branch == "" || branch == "main" || branch == "master" {
		return
	}
	if !a.isDirty() {
		return
	}

	a.run("add", "-A")
	if err := a.runErr("commit", "-m", message); err != nil {
		rlog.Log.WithField("component", "autocommit").Warn("commit failed: ", err)
		return
	}
	if err := a.runErr("push"); err != nil {
		rlog.Log.WithField("component", "autocommit").Warn("push failed (committed locally): ", err)
	}
}

func (a AutoCommit) currentBranch() string {
	out, err := a.output("rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return ""
	}
	return strings.TrimSpace(out)
}

func (a AutoCommit) isDirty() bool {
	out, err := a.output("status", "--porcelain")
	if err != nil {
		return false
	}
	return strings.TrimSpace(out) != ""
}

func (a AutoCommit) output(args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = a.RepoPath
	out, err := cmd.Output()
	return string(out), err
}

func (a AutoCommit) run(args ...string) {
	_ = a.runErr(args...)
}

func (a AutoCommit) runErr(args ...string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = a.RepoPath
	return cmd.Run()
}

// TranscriptGenerator runs an external transcript-rendering tool on
// Stop, tolerating a non-zero exit (the renderer may legitimately find
// nothing new to render).
type TranscriptGenerator struct {
	Path string
}

func (g TranscriptGenerator) Generate(sessionID string) {
	if g.Path == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	cmd := exec.CommandContext(ctx, g.Path, sessionID)
	if err := cmd.Run(); err != nil {
		rlog.Log.WithField("component", "transcript").Debug("transcript generation exited non-zero: ", err)
	}
}
