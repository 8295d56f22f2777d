package hydrate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShouldSkipEmptyPrompt(t *testing.T) {
	skip, _ := ShouldSkip("")
	assert.True(t, skip)
}

func TestShouldSkipSlashCommand(t *testing.T) {
	skip, bypassed := ShouldSkip("/compact")
	assert.True(t, skip)
	assert.False(t, bypassed)
}

func TestShouldSkipDotBypassSetsFlag(t *testing.T) {
	skip, bypassed := ShouldSkip(".just do it")
	assert.True(t, skip)
	assert.True(t, bypassed)
}

func TestShouldSkipAgentEnvelope(t *testing.T) {
	skip, _ := ShouldSkip("<task-notification>done</task-notification>")
	assert.True(t, skip)
}

func TestShouldNotSkipOrdinaryPrompt(t *testing.T) {
	skip, _ := ShouldSkip("implement the new export feature")
	assert.False(t, skip)
}

func TestIsFollowupBoundaryThirtyWordsPasses(t *testing.T) {
	words := make([]string, 29)
	for i := range words {
		words[i] = "word"
	}
	prompt := strings.Join(words, " ") + " also"
	assert.Equal(t, 30, len(strings.Fields(prompt)))
	assert.True(t, IsFollowup(prompt, true))
}

func TestIsFollowupBoundaryThirtyOneWordsFails(t *testing.T) {
	words := make([]string, 30)
	for i := range words {
		words[i] = "word"
	}
	prompt := strings.Join(words, " ") + " also"
	assert.Equal(t, 31, len(strings.Fields(prompt)))
	assert.False(t, IsFollowup(prompt, true))
}

func TestIsFollowupRequiresPriorHydrationOrTask(t *testing.T) {
	assert.False(t, IsFollowup("also fix that", false))
}

func TestIsFollowupRequiresContinuationMarker(t *testing.T) {
	assert.False(t, IsFollowup("implement a completely new database schema design", true))
}
