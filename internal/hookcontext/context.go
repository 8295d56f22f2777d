// Package hookcontext normalizes heterogeneous per-runtime hook payloads
// into one canonical HookContext, the way router.py's HookRouter.normalize_input
// isolates every runtime-specific quirk so everything downstream (gates,
// hydration, logging) sees one shape.
package hookcontext

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"hookrouter/internal/jsonx"
)

// Client identifies which calling runtime produced the raw payload.
type Client string

const (
	ClientA Client = "claude" // spec.md "Runtime A"
	ClientB Client = "gemini" // spec.md "Runtime B"
)

// eventMap mirrors GEMINI_EVENT_MAP in the original router: Runtime B
// spells lifecycle events differently than Runtime A's canonical names.
var eventMap = map[string]string{
	"BeforeTool":  "PreToolUse",
	"AfterTool":   "PostToolUse",
	"BeforeAgent": "UserPromptSubmit",
	// AfterAgent is kept distinct from Stop — see SPEC_FULL.md §B.
}

// spawnTools carries a subagent_type-shaped parameter but only some of
// them actually start a new subagent context; Skill invocations run in
// the main agent (SPEC_FULL.md "Skill vs. sidechain disambiguation").
var spawnTools = map[string]bool{
	"Task":              true,
	"delegate_to_agent": true,
}

var skillTools = map[string]bool{
	"Skill":          true,
	"activate_skill": true,
}

// HookContext is the canonical event the rest of the router operates on
// (spec.md §3.1).
type HookContext struct {
	Client         Client
	Event          string // canonical event name
	SessionID      string
	AgentID        string
	SubagentType   string
	IsSubagent     bool
	ToolName       string
	ToolInput      map[string]any
	ToolOutput     map[string]any
	Prompt         string
	TranscriptPath string
	CWD            string
	RawInput       map[string]any
}

// Normalize converts a raw JSON payload plus ambient process state
// (env vars, persisted session data) into a HookContext.
//
// sessionLookup resolves a previously-persisted session_id/agent_id pair
// for the runtimes that omit these fields on follow-up calls; it may be
// nil on SessionStart, where there is nothing to look up yet.
func Normalize(client Client, rawEvent string, payload map[string]any, env map[string]string, sessionLookup func() (sessionID, agentID string, ok bool)) (*HookContext, error) {
	ctx := &HookContext{Client: client, RawInput: payload}

	if rawEvent == "" {
		rawEvent, _ = payload["hook_event_name"].(string)
	}
	ctx.Event = canonicalEvent(rawEvent)

	ctx.SessionID = resolveSessionID(client, payload, env, sessionLookup, ctx.Event)
	ctx.AgentID, ctx.SubagentType = resolveAgent(payload, env, sessionLookup)

	if tn, ok := payload["tool_name"].(string); ok {
		ctx.ToolName = tn
	} else if tn, ok := payload["toolName"].(string); ok {
		ctx.ToolName = tn
	}

	ctx.ToolInput = parseJSONField(payload, "tool_input", "toolInput")
	ctx.ToolOutput = parseJSONField(payload, "tool_output", "toolOutput", "tool_response")

	fromSkill := false
	if ctx.ToolInput != nil {
		if st, ok := ctx.ToolInput["subagent_type"].(string); ok && st != "" {
			if skillTools[ctx.ToolName] {
				fromSkill = true
			} else if spawnTools[ctx.ToolName] && env["AOPS_SUBAGENT_TYPE"] == "" {
				ctx.SubagentType = st
			}
		}
		if name, ok := ctx.ToolInput["agent_name"].(string); ok && name != "" && spawnTools[ctx.ToolName] && env["AOPS_SUBAGENT_TYPE"] == "" {
			ctx.SubagentType = name
		}
		if name, _ := ctx.ToolInput["name"].(string); name != "" && skillTools[ctx.ToolName] {
			fromSkill = true
		}
	}

	sidechain := false
	if v, ok := payload["is_sidechain"].(bool); ok {
		sidechain = v
	} else if v, ok := payload["isSidechain"].(bool); ok {
		sidechain = v
	}

	// SubagentStart/SubagentStop describe a subagent but never execute
	// inside one themselves — excluded from is_subagent per spec.md §4.B.
	switch {
	case ctx.Event == "SubagentStart" || ctx.Event == "SubagentStop":
		ctx.IsSubagent = false
	case fromSkill:
		ctx.IsSubagent = false
	default:
		ctx.IsSubagent = ctx.SubagentType != "" || sidechain
	}

	if p, ok := payload["prompt"].(string); ok {
		ctx.Prompt = p
	} else if p, ok := payload["user_prompt"].(string); ok {
		ctx.Prompt = p
	}

	if t, ok := payload["transcript_path"].(string); ok {
		ctx.TranscriptPath = t
	}
	if c, ok := payload["cwd"].(string); ok {
		ctx.CWD = c
	}

	return ctx, nil
}

func canonicalEvent(raw string) string {
	if mapped, ok := eventMap[raw]; ok {
		return mapped
	}
	return raw
}

func resolveSessionID(client Client, payload map[string]any, env map[string]string, lookup func() (string, string, bool), event string) string {
	if sid, ok := payload["session_id"].(string); ok && sid != "" {
		return sid
	}
	if lookup != nil {
		if sid, _, ok := lookup(); ok && sid != "" {
			return sid
		}
	}
	if sid := env["CLAUDE_SESSION_ID"]; sid != "" {
		return sid
	}
	if sid := env["SESSION_ID"]; sid != "" {
		return sid
	}
	if event == "SessionStart" {
		return synthesizeSessionID(string(client))
	}
	return "unknown-" + shortUUID()
}

// synthesizeSessionID mirrors the original's
// "{runtime}-{yyyymmdd-hhmmss}-{rand8}" shape, with the random suffix
// drawn from a UUID rather than a hand-rolled hex generator.
func synthesizeSessionID(runtime string) string {
	return fmt.Sprintf("%s-%s-%s", runtime, time.Now().Format("20060102-150405"), shortUUID())
}

func shortUUID() string {
	return uuid.NewString()[:8]
}

func resolveAgent(payload map[string]any, env map[string]string, lookup func() (string, string, bool)) (agentID, subagentType string) {
	if aid, ok := payload["agent_id"].(string); ok && aid != "" {
		agentID = aid
	} else if lookup != nil {
		if _, aid, ok := lookup(); ok {
			agentID = aid
		}
	}

	// Env override is authoritative regardless of payload/persisted state.
	if v := env["AOPS_SUBAGENT_TYPE"]; v != "" {
		subagentType = v
	}
	return agentID, subagentType
}

func parseJSONField(payload map[string]any, keys ...string) map[string]any {
	for _, k := range keys {
		v, ok := payload[k]
		if !ok {
			continue
		}
		switch t := v.(type) {
		case map[string]any:
			return t
		case string:
			var out map[string]any
			if err := jsonx.Unmarshal([]byte(t), &out); err == nil {
				return out
			}
		}
	}
	return nil
}

