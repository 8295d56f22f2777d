// Package encode renders a merged gate.Result into the two
// runtime-specific JSON reply shapes of spec.md §4.G, grounded in
// router.py's output_for_claude/output_for_gemini.
package encode

import (
	"hookrouter/internal/gate"
	"hookrouter/internal/hookcontext"
	"hookrouter/internal/jsonx"
)

// hookSpecificOutput is the nested object both runtimes attach
// additional-context / permission-decision data on.
type hookSpecificOutput struct {
	HookEventName       string         `json:"hookEventName"`
	PermissionDecision  string         `json:"permissionDecision,omitempty"`
	AdditionalContext   string         `json:"additionalContext,omitempty"`
	UpdatedInput        map[string]any `json:"updatedInput,omitempty"`
}

// clientAResponse is Runtime A's generic allow/deny envelope.
type clientAResponse struct {
	Decision           string              `json:"decision,omitempty"`
	Reason             string              `json:"reason,omitempty"`
	SystemMessage      string              `json:"systemMessage,omitempty"`
	HookSpecificOutput *hookSpecificOutput `json:"hookSpecificOutput,omitempty"`
	Metadata           map[string]any      `json:"metadata,omitempty"`
}

// clientBResponse is Runtime B's shape: Stop/SessionEnd use
// approve/block + stopReason; every other event uses
// hookSpecificOutput.permissionDecision.
type clientBResponse struct {
	Decision           string              `json:"decision,omitempty"`
	Reason             string              `json:"reason,omitempty"`
	StopReason         string              `json:"stopReason,omitempty"`
	SystemMessage      string              `json:"systemMessage,omitempty"`
	HookSpecificOutput *hookSpecificOutput `json:"hookSpecificOutput,omitempty"`
}

// Encode renders the merged verdict for the given client/event, per
// spec.md §4.G's precedence rules: warn always reports as allow with a
// visible systemMessage; ask downgrades to allow+visible additionalContext
// on runtimes that have no native "ask" decision.
func Encode(client hookcontext.Client, event string, result gate.Result) ([]byte, error) {
	if client == hookcontext.ClientB {
		return jsonx.Marshal(encodeClientB(event, result))
	}
	return jsonx.Marshal(encodeClientA(event, result))
}

func encodeClientA(event string, r gate.Result) clientAResponse {
	resp := clientAResponse{SystemMessage: r.Message, Metadata: r.Metadata}

	decision, permission := decisionFor(r.Verdict, "claude")
	resp.Decision = decision
	if r.Verdict == gate.VerdictDeny {
		resp.Reason = r.Message
	}

	resp.HookSpecificOutput = &hookSpecificOutput{
		HookEventName:      event,
		PermissionDecision: permission,
		AdditionalContext:  r.ContextInject,
		UpdatedInput:       r.UpdatedInput,
	}
	return resp
}

func encodeClientB(event string, r gate.Result) clientBResponse {
	resp := clientBResponse{SystemMessage: r.Message}

	if event == "Stop" || event == "SessionEnd" {
		switch r.Verdict {
		case gate.VerdictDeny:
			resp.Decision = "block"
			resp.StopReason = r.Message
		default:
			resp.Decision = "approve"
		}
		return resp
	}

	_, permission := decisionFor(r.Verdict, "gemini")
	additional := r.ContextInject
	if r.Verdict == gate.VerdictAsk && r.Message != "" {
		if additional != "" {
			additional += "\n\n"
		}
		additional += r.Message
	}
	resp.HookSpecificOutput = &hookSpecificOutput{
		HookEventName:      event,
		PermissionDecision: permission,
		AdditionalContext:  additional,
		UpdatedInput:       r.UpdatedInput,
	}
	return resp
}

// decisionFor maps a verdict to (top-level decision, permissionDecision)
// per runtime. warn never blocks; ask downgrades to allow where the
// runtime has no native ask support, with the question surfaced via
// additionalContext instead.
func decisionFor(v gate.Verdict, runtime string) (decision, permission string) {
	switch v {
	case gate.VerdictDeny:
		return "block", "deny"
	case gate.VerdictAsk:
		if runtime == "claude" {
			return "", "ask"
		}
		return "", "allow"
	case gate.VerdictWarn:
		return "", "allow"
	default:
		return "", "allow"
	}
}
