package hookcontext

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeMapsGeminiEventNames(t *testing.T) {
	ctx, err := Normalize(ClientB, "BeforeTool", map[string]any{"session_id": "s1"}, map[string]string{}, nil)
	require.NoError(t, err)
	assert.Equal(t, "PreToolUse", ctx.Event)
}

func TestNormalizePreservesAfterAgentDistinctFromStop(t *testing.T) {
	ctx, err := Normalize(ClientA, "AfterAgent", map[string]any{"session_id": "s1"}, map[string]string{}, nil)
	require.NoError(t, err)
	assert.Equal(t, "AfterAgent", ctx.Event)
}

func TestNormalizeSessionIDFallsBackToLookup(t *testing.T) {
	lookup := func() (string, string, bool) { return "persisted-session", "agent-9", true }
	ctx, err := Normalize(ClientA, "PreToolUse", map[string]any{}, map[string]string{}, lookup)
	require.NoError(t, err)
	assert.Equal(t, "persisted-session", ctx.SessionID)
	assert.Equal(t, "agent-9", ctx.AgentID)
}

func TestNormalizeSynthesizesSessionIDOnSessionStart(t *testing.T) {
	ctx, err := Normalize(ClientA, "SessionStart", map[string]any{}, map[string]string{}, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, ctx.SessionID)
	assert.Contains(t, ctx.SessionID, "claude-")
}

func TestNormalizeParsesJSONStringToolInput(t *testing.T) {
	payload := map[string]any{
		"session_id": "s1",
		"tool_name":  "Bash",
		"tool_input": `{"command":"ls -la"}`,
	}
	ctx, err := Normalize(ClientA, "PreToolUse", payload, map[string]string{}, nil)
	require.NoError(t, err)
	require.NotNil(t, ctx.ToolInput)
	assert.Equal(t, "ls -la", ctx.ToolInput["command"])
}

func TestNormalizeSkillInvocationIsNotSubagent(t *testing.T) {
	payload := map[string]any{
		"session_id": "s1",
		"tool_name":  "Skill",
		"tool_input": map[string]any{"name": "prompt-hydrator", "subagent_type": "prompt-hydrator"},
	}
	ctx, err := Normalize(ClientA, "PreToolUse", payload, map[string]string{}, nil)
	require.NoError(t, err)
	assert.False(t, ctx.IsSubagent)
}

func TestNormalizeTaskInvocationIsSubagent(t *testing.T) {
	payload := map[string]any{
		"session_id": "s1",
		"tool_name":  "Task",
		"tool_input": map[string]any{"subagent_type": "critic"},
	}
	ctx, err := Normalize(ClientA, "PreToolUse", payload, map[string]string{}, nil)
	require.NoError(t, err)
	assert.True(t, ctx.IsSubagent)
	assert.Equal(t, "critic", ctx.SubagentType)
}

func TestNormalizeSidechainFlagMarksIsSubagent(t *testing.T) {
	payload := map[string]any{
		"session_id":   "s1",
		"tool_name":    "Bash",
		"tool_input":   map[string]any{"command": "ls"},
		"is_sidechain": true,
	}
	ctx, err := Normalize(ClientA, "PreToolUse", payload, map[string]string{}, nil)
	require.NoError(t, err)
	assert.True(t, ctx.IsSubagent)
}

func TestNormalizeCamelCaseSidechainFlagMarksIsSubagent(t *testing.T) {
	payload := map[string]any{
		"session_id":  "s1",
		"isSidechain": true,
	}
	ctx, err := Normalize(ClientA, "PreToolUse", payload, map[string]string{}, nil)
	require.NoError(t, err)
	assert.True(t, ctx.IsSubagent)
}

func TestNormalizeSubagentStopNeverMarkedIsSubagent(t *testing.T) {
	payload := map[string]any{
		"session_id": "s1",
		"tool_input": map[string]any{"subagent_type": "critic"},
	}
	ctx, err := Normalize(ClientA, "SubagentStop", payload, map[string]string{}, nil)
	require.NoError(t, err)
	assert.False(t, ctx.IsSubagent)
}

func TestNormalizeSubagentStopIgnoresSidechainFlag(t *testing.T) {
	payload := map[string]any{
		"session_id":   "s1",
		"is_sidechain": true,
	}
	ctx, err := Normalize(ClientA, "SubagentStop", payload, map[string]string{}, nil)
	require.NoError(t, err)
	assert.False(t, ctx.IsSubagent)
}
