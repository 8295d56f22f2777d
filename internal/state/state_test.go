package state

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hookrouter/internal/config"
	"hookrouter/internal/paths"
)

func testLayout(t *testing.T) paths.Layout {
	dir := t.TempDir()
	cfg := config.Config{StateDir: filepath.Join(dir, "state"), LogDir: filepath.Join(dir, "logs"), TempDir: filepath.Join(dir, "tmp")}
	return paths.NewLayout(cfg)
}

func TestLoadCreatesFreshState(t *testing.T) {
	layout := testLayout(t)
	st, err := Load(layout, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "sess-1", st.SessionID)
	assert.Equal(t, schemaVersion, st.Version)
	assert.Empty(t, st.Gates)
}

func TestSaveThenLoadRoundTrips(t *testing.T) {
	layout := testLayout(t)
	st, err := Load(layout, "sess-2")
	require.NoError(t, err)

	st.MainAgent.CurrentTask = "task-123"
	st.OpenGate("handover")
	st.GlobalTurnCount = 5
	require.NoError(t, st.Save())

	reloaded, err := Load(layout, "sess-2")
	require.NoError(t, err)
	assert.Equal(t, "task-123", reloaded.MainAgent.CurrentTask)
	assert.Equal(t, 5, reloaded.GlobalTurnCount)
	require.Contains(t, reloaded.Gates, "handover")
	assert.Equal(t, "open", reloaded.Gates["handover"].Status)
}

func TestOpenCloseGateResetsCounters(t *testing.T) {
	layout := testLayout(t)
	st, err := Load(layout, "sess-3")
	require.NoError(t, err)

	g := st.GetGate("custodiet", "closed")
	g.OpsSinceClose = 6

	st.CloseGate("custodiet")
	assert.Equal(t, 0, st.Gates["custodiet"].OpsSinceClose)

	st.OpenGate("custodiet")
	assert.Equal(t, "open", st.Gates["custodiet"].Status)
	assert.Equal(t, 0, st.Gates["custodiet"].OpsSinceOpen)
}

func TestCrashLoopWindowPurgesOldEntries(t *testing.T) {
	layout := testLayout(t)
	st, err := Load(layout, "sess-4")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		st.Scratch["stop_block_timestamps"] = []any{float64(1)} // ancient timestamp
		ts := st.PushStopBlockTimestamp(120)
		// the ancient "1" timestamp is always purged; only this call's
		// own fresh timestamp should remain.
		assert.Len(t, ts, 1)
	}
}

func TestHydrationSubDocumentRoundTrips(t *testing.T) {
	layout := testLayout(t)
	st, err := Load(layout, "sess-6")
	require.NoError(t, err)

	st.GlobalTurnCount = 3
	st.OpenGate("hydration")
	st.CloseGate("hydration")
	st.RefreshTurnsSinceHydration()
	st.SetCriticVerdict("pass")
	st.SetAcceptanceCriteria([]string{"tests pass", "docs updated"})
	require.NoError(t, st.Save())

	reloaded, err := Load(layout, "sess-6")
	require.NoError(t, err)
	assert.Equal(t, 0, reloaded.Hydration.TurnsSinceHydration)
	assert.Equal(t, "pass", reloaded.Hydration.CriticVerdict)
	assert.Equal(t, []string{"tests pass", "docs updated"}, reloaded.Hydration.AcceptanceCriteria)
}

func TestGateBlockedFieldsRoundTrip(t *testing.T) {
	layout := testLayout(t)
	st, err := Load(layout, "sess-7")
	require.NoError(t, err)

	g := st.GetGate("handover", "open")
	g.Blocked = true
	g.BlockReason = "handover incomplete"
	require.NoError(t, st.Save())

	reloaded, err := Load(layout, "sess-7")
	require.NoError(t, err)
	assert.True(t, reloaded.Gates["handover"].Blocked)
	assert.Equal(t, "handover incomplete", reloaded.Gates["handover"].BlockReason)
}

func TestRecordSubagentRun(t *testing.T) {
	layout := testLayout(t)
	st, err := Load(layout, "sess-5")
	require.NoError(t, err)

	st.RecordSubagentRun("critic", "success")
	st.RecordSubagentRun("critic", "success")
	require.Contains(t, st.Subagents, "critic")
	assert.Equal(t, 2, st.Subagents["critic"].Count)
	assert.Equal(t, "success", st.Subagents["critic"].LastResult)
}
