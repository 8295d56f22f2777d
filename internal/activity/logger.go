// Package activity appends one JSONL record per hook invocation, the
// role hooks/lib/activity/logger.go's LogActivity plays for the teacher,
// narrowed to what the router's loop-safety/debugging story needs
// (spec.md §4.H): a durable per-session audit trail, append-only, no
// lock (concurrent writers interleave whole lines, which O_APPEND
// guarantees atomically up to PIPE_BUF).
package activity

import (
	"os"
	"time"

	"hookrouter/internal/gate"
	"hookrouter/internal/jsonx"
	"hookrouter/internal/privacy"
)

// Event is one logged hook invocation.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	SessionID string    `json:"session_id"`
	Event     string    `json:"event"`
	ToolName  string    `json:"tool_name,omitempty"`
	Context   string    `json:"context,omitempty"` // privacy-sanitized
	Verdict   string    `json:"verdict,omitempty"`
	Message   string    `json:"message,omitempty"`
}

// Log appends a sanitized record of one hook dispatch to path.
func Log(path, sessionID, eventName, toolName, rawContext string, result gate.Result) error {
	e := Event{
		Timestamp: time.Now(),
		SessionID: sessionID,
		Event:     eventName,
		ToolName:  toolName,
		Context:   sanitizeContext(toolName, rawContext),
		Verdict:   string(result.Verdict),
		Message:   result.Message,
	}

	data, err := jsonx.Marshal(e)
	if err != nil {
		return err
	}
	data = append(data, '\n')

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = f.Write(data)
	return err
}

func sanitizeContext(toolName, raw string) string {
	switch toolName {
	case "Bash":
		return privacy.SanitizeCommand(raw)
	case "Write", "Edit", "Read", "NotebookRead":
		return privacy.SanitizePath(raw)
	default:
		return raw
	}
}
