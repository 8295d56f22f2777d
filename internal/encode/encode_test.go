package encode

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hookrouter/internal/gate"
	"hookrouter/internal/hookcontext"
)

func TestEncodeClientADeny(t *testing.T) {
	out, err := Encode(hookcontext.ClientA, "PreToolUse", gate.Result{Verdict: gate.VerdictDeny, Message: "nope"})
	require.NoError(t, err)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(out, &resp))
	assert.Equal(t, "block", resp["decision"])
	hso := resp["hookSpecificOutput"].(map[string]any)
	assert.Equal(t, "deny", hso["permissionDecision"])
}

func TestEncodeClientAWarnReportsAsAllowWithVisibleMessage(t *testing.T) {
	out, err := Encode(hookcontext.ClientA, "PreToolUse", gate.Result{Verdict: gate.VerdictWarn, Message: "heads up"})
	require.NoError(t, err)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(out, &resp))
	assert.Equal(t, "heads up", resp["systemMessage"])
	hso := resp["hookSpecificOutput"].(map[string]any)
	assert.Equal(t, "allow", hso["permissionDecision"])
}

func TestEncodeClientBStopBlock(t *testing.T) {
	out, err := Encode(hookcontext.ClientB, "Stop", gate.Result{Verdict: gate.VerdictDeny, Message: "blocked"})
	require.NoError(t, err)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(out, &resp))
	assert.Equal(t, "block", resp["decision"])
	assert.Equal(t, "blocked", resp["stopReason"])
}

func TestEncodeClientBStopApprove(t *testing.T) {
	out, err := Encode(hookcontext.ClientB, "Stop", gate.Result{Verdict: gate.VerdictAllow})
	require.NoError(t, err)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(out, &resp))
	assert.Equal(t, "approve", resp["decision"])
}

func TestEncodeClientBNonStopUsesPermissionDecision(t *testing.T) {
	out, err := Encode(hookcontext.ClientB, "PreToolUse", gate.Result{Verdict: gate.VerdictDeny, Message: "no"})
	require.NoError(t, err)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(out, &resp))
	hso := resp["hookSpecificOutput"].(map[string]any)
	assert.Equal(t, "deny", hso["permissionDecision"])
}
