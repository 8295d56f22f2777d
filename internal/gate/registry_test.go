package gate

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"hookrouter/internal/hookcontext"
	"hookrouter/internal/state"
)

func TestRegistryBuiltinsAreNamedUniquely(t *testing.T) {
	r := NewRegistry()
	seen := map[string]bool{}
	for _, g := range r.All() {
		assert.False(t, seen[g.Cfg.Name], "duplicate gate name %s", g.Cfg.Name)
		seen[g.Cfg.Name] = true
	}
	assert.Len(t, seen, 6)
}

func TestTaskRequiredDeniesUnboundDestructiveBash(t *testing.T) {
	r := NewRegistry()
	st := state.New("sess")
	ctx := &hookcontext.HookContext{
		Event:    "PreToolUse",
		ToolName: "Bash",
		ToolInput: map[string]any{"command": "rm -rf build/"},
	}
	result := r.Gate("task_required").Check(ctx, st)
	assert.Equal(t, VerdictDeny, result.Verdict)
}

func TestTaskRequiredAllowsReadOnlyBashWithoutTask(t *testing.T) {
	r := NewRegistry()
	st := state.New("sess")
	ctx := &hookcontext.HookContext{
		Event:     "PreToolUse",
		ToolName:  "Bash",
		ToolInput: map[string]any{"command": "git status"},
	}
	result := r.Gate("task_required").Check(ctx, st)
	assert.Equal(t, VerdictAllow, result.Verdict)
}

func TestTaskRequiredAllowsWhenTaskBound(t *testing.T) {
	r := NewRegistry()
	st := state.New("sess")
	st.MainAgent.CurrentTask = "task-1"
	ctx := &hookcontext.HookContext{
		Event:     "PreToolUse",
		ToolName:  "Bash",
		ToolInput: map[string]any{"command": "rm -rf build/"},
	}
	result := r.Gate("task_required").Check(ctx, st)
	assert.Equal(t, VerdictAllow, result.Verdict)
}

func TestTaskRequiredDeniesUnboundWriteToCriticalFile(t *testing.T) {
	r := NewRegistry()
	st := state.New("sess")
	ctx := &hookcontext.HookContext{
		Event:     "PreToolUse",
		ToolName:  "Write",
		ToolInput: map[string]any{"file_path": "/home/user/.ssh/id_rsa"},
	}
	result := r.Gate("task_required").Check(ctx, st)
	assert.Equal(t, VerdictDeny, result.Verdict)
}

func TestCriticGateDeniesStopRightAfterHydrationWithNoSubagents(t *testing.T) {
	r := NewRegistry()
	st := state.New("sess")
	st.CloseGate("hydration") // closes at turn 0, turns_since_hydration == 0

	result := r.Gate("critic").OnStop(&hookcontext.HookContext{Event: "Stop"}, st)
	assert.Equal(t, VerdictDeny, result.Verdict)
}

func TestCriticGateAllowsStopAfterSubagentRan(t *testing.T) {
	r := NewRegistry()
	st := state.New("sess")
	st.CloseGate("hydration")
	st.RecordSubagentRun("critic", "success")

	result := r.Gate("critic").OnStop(&hookcontext.HookContext{Event: "Stop"}, st)
	assert.Equal(t, VerdictAllow, result.Verdict)
}

func TestCriticVerdictRecordedOnSubagentCompletion(t *testing.T) {
	r := NewRegistry()
	st := state.New("sess")
	ctx := &hookcontext.HookContext{
		Event:      "PostToolUse",
		ToolName:   "Task",
		ToolInput:  map[string]any{"subagent_type": "critic"},
		ToolOutput: map[string]any{"verdict": "pass"},
	}

	r.Gate("critic").OnToolUse(ctx, st)
	assert.Equal(t, "pass", st.Hydration.CriticVerdict)
}

func TestCustodietCountdownDeniesAtThreshold(t *testing.T) {
	r := NewRegistry()
	st := state.New("sess")
	g := st.GetGate("custodiet", "closed")
	g.OpsSinceClose = 7

	result := r.Gate("custodiet").Check(&hookcontext.HookContext{Event: "PreToolUse"}, st)
	assert.Equal(t, VerdictDeny, result.Verdict)
}
