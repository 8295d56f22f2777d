package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithLockPersistsMutation(t *testing.T) {
	layout := testLayout(t)

	err := WithLock(layout, "sess-lock", func(st *State) error {
		st.MainAgent.CurrentTask = "bound-via-lock"
		return nil
	})
	require.NoError(t, err)

	reloaded, err := Load(layout, "sess-lock")
	require.NoError(t, err)
	assert.Equal(t, "bound-via-lock", reloaded.MainAgent.CurrentTask)
}

func TestWithLockSequentialCallsSerialize(t *testing.T) {
	layout := testLayout(t)

	for i := 0; i < 5; i++ {
		err := WithLock(layout, "sess-lock-seq", func(st *State) error {
			st.GlobalTurnCount++
			return nil
		})
		require.NoError(t, err)
	}

	reloaded, err := Load(layout, "sess-lock-seq")
	require.NoError(t, err)
	assert.Equal(t, 5, reloaded.GlobalTurnCount)
}
