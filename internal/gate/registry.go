package gate

import (
	"hookrouter/internal/hookcontext"
	"hookrouter/internal/state"
)

// Registry holds the built-in gates in a stable, deliberate order —
// hydration first (it gates everything else's context), task_required
// and custodiet next (tool-level enforcement), handover/qa/critic last
// (Stop-time reflection gates). Order matters for system_message
// concatenation readability, not for correctness.
type Registry struct {
	gates []*GenericGate
}

func NewRegistry() *Registry {
	r := &Registry{}
	for _, cfg := range builtinConfigs() {
		r.gates = append(r.gates, New(cfg))
	}
	return r
}

func (r *Registry) Gate(name string) *GenericGate {
	for _, g := range r.gates {
		if g.Cfg.Name == name {
			return g
		}
	}
	return nil
}

func (r *Registry) All() []*GenericGate { return r.gates }

// DispatchEvent runs every registered gate's handler for the canonical
// event and merges the results (spec.md §4.F "dispatch to every gate,
// merge the results").
func (r *Registry) DispatchEvent(ctx *hookcontext.HookContext, st *state.State, triggersOnly bool) Result {
	var results []Result
	for _, g := range r.gates {
		results = append(results, r.dispatchOne(g, ctx, st, triggersOnly))
	}
	return merge(results)
}

func (r *Registry) dispatchOne(g *GenericGate, ctx *hookcontext.HookContext, st *state.State, triggersOnly bool) Result {
	if triggersOnly {
		return g.EvaluateTriggers(ctx, st)
	}
	switch ctx.Event {
	case "PreToolUse":
		return g.Check(ctx, st)
	case "PostToolUse":
		return g.OnToolUse(ctx, st)
	case "Stop", "SessionEnd":
		return g.OnStop(ctx, st)
	case "UserPromptSubmit":
		return g.OnUserPrompt(ctx, st)
	case "SessionStart":
		return g.OnSessionStart(ctx, st)
	case "AfterAgent":
		return g.OnAfterAgent(ctx, st)
	case "SubagentStart":
		return g.OnSubagentStart(ctx, st)
	case "SubagentStop":
		return g.OnSubagentStop(ctx, st)
	default:
		return Result{Verdict: VerdictAllow}
	}
}
