package gate

import (
	"strconv"

	"hookrouter/internal/hookcontext"
	"hookrouter/internal/state"
)

// Check runs PreToolUse dispatch: triggers, then policies, then
// countdown, merged deny > ask > warn > allow (lib/gates/engine.py's
// check()).
func (gg *GenericGate) Check(ctx *hookcontext.HookContext, st *state.State) Result {
	g := gg.gateState(st)

	results := []Result{
		gg.evaluateTriggersResult(ctx, st, g),
		gg.evaluatePolicies(ctx, st, g),
	}
	if gg.Cfg.Countdown != nil {
		results = append(results, gg.evaluateCountdown(ctx, st, g))
	}
	return merge(results)
}

// OnToolUse runs PostToolUse accounting: ops counters increment first
// (based on status observed before this call), then triggers evaluate as
// cleanup/bookkeeping (lib/gates/engine.py's on_tool_use()).
func (gg *GenericGate) OnToolUse(ctx *hookcontext.HookContext, st *state.State) Result {
	g := gg.gateState(st)
	if g.Status == "open" {
		g.OpsSinceOpen++
	} else {
		g.OpsSinceClose++
	}
	return gg.evaluateTriggersResult(ctx, st, g)
}

// OnStop runs Stop dispatch: policies are evaluated FIRST (a deny
// short-circuits triggers), then triggers run as cleanup; a warn policy
// takes precedence over whatever a trigger would also produce
// (lib/gates/engine.py's on_stop()).
func (gg *GenericGate) OnStop(ctx *hookcontext.HookContext, st *state.State) Result {
	g := gg.gateState(st)
	policyResult := gg.evaluatePolicies(ctx, st, g)
	if policyResult.Verdict == VerdictDeny {
		return policyResult
	}
	triggerResult := gg.evaluateTriggersResult(ctx, st, g)
	if policyResult.Verdict == VerdictWarn {
		return merge([]Result{policyResult, triggerResult})
	}
	return triggerResult
}

// OnUserPrompt, OnSessionStart, OnAfterAgent, OnSubagentStart,
// OnSubagentStop run triggers only (no policies, no countdown).
func (gg *GenericGate) OnUserPrompt(ctx *hookcontext.HookContext, st *state.State) Result {
	return gg.EvaluateTriggers(ctx, st)
}
func (gg *GenericGate) OnSessionStart(ctx *hookcontext.HookContext, st *state.State) Result {
	return gg.EvaluateTriggers(ctx, st)
}
func (gg *GenericGate) OnAfterAgent(ctx *hookcontext.HookContext, st *state.State) Result {
	return gg.EvaluateTriggers(ctx, st)
}
func (gg *GenericGate) OnSubagentStart(ctx *hookcontext.HookContext, st *state.State) Result {
	return gg.EvaluateTriggers(ctx, st)
}
func (gg *GenericGate) OnSubagentStop(ctx *hookcontext.HookContext, st *state.State) Result {
	return gg.EvaluateTriggers(ctx, st)
}

// EvaluateTriggers is the public triggers-only entry point used by the
// compliance-agent bypass mode (spec.md §4.C "a triggers-only entry
// point usable when a compliance agent bypasses policy enforcement").
func (gg *GenericGate) EvaluateTriggers(ctx *hookcontext.HookContext, st *state.State) Result {
	g := gg.gateState(st)
	return gg.evaluateTriggersResult(ctx, st, g)
}

func (gg *GenericGate) evaluateTriggersResult(ctx *hookcontext.HookContext, st *state.State, g *state.GateState) Result {
	for _, trig := range gg.Cfg.Triggers {
		if gg.evaluateCondition(trig.Condition, ctx, st, g) {
			sysMsg, ctxMsg, updated := gg.applyTransition(trig.Transition, ctx, st, g)
			return Result{Verdict: VerdictAllow, Message: sysMsg, ContextInject: ctxMsg, UpdatedInput: updated}
		}
	}
	return Result{Verdict: VerdictAllow}
}

func (gg *GenericGate) evaluatePolicies(ctx *hookcontext.HookContext, st *state.State, g *state.GateState) Result {
	for _, pol := range gg.Cfg.Policies {
		if gg.evaluateCondition(pol.Condition, ctx, st, g) {
			var updated map[string]any
			if pol.CustomAction != "" {
				if fn, ok := customActions[pol.CustomAction]; ok {
					updated = fn(ctx, st, g)
				}
			}
			vars := templateVars(ctx, st, g)
			sysMsg, _ := renderTemplate(pol.SystemMessageTmpl, vars)
			ctxMsg, _ := renderTemplate(pol.ContextTmpl, vars)
			if pol.Verdict == VerdictDeny {
				g.Blocked = true
				g.BlockReason = sysMsg
			}
			return Result{Verdict: pol.Verdict, Message: sysMsg, ContextInject: ctxMsg, UpdatedInput: updated}
		}
	}
	g.Blocked = false
	g.BlockReason = ""
	return Result{Verdict: VerdictAllow}
}

// evaluateCountdown computes the metric's distance to threshold, warning
// inside the start_before window and denying at/after threshold
// (lib/gates/engine.py's _evaluate_countdown). Templates may reference
// {<gate name>_remaining}, the ops left before the threshold; no
// temp-path is derived here, so only metrics already on the gate are
// available to the warning.
func (gg *GenericGate) evaluateCountdown(ctx *hookcontext.HookContext, st *state.State, g *state.GateState) Result {
	cd := gg.Cfg.Countdown
	var current int
	switch cd.Metric {
	case "ops_since_open":
		current = g.OpsSinceOpen
	case "ops_since_close":
		current = g.OpsSinceClose
	}

	vars := templateVars(ctx, st, g)
	remaining := cd.Threshold - current
	vars[gg.Cfg.Name+"_remaining"] = strconv.Itoa(remaining)

	switch {
	case current >= cd.Threshold:
		msg, _ := renderTemplate(cd.DenyTmpl, vars)
		return Result{Verdict: VerdictDeny, Message: msg}
	case remaining <= cd.StartBefore:
		msg, _ := renderTemplate(cd.WarnTmpl, vars)
		return Result{Verdict: VerdictWarn, Message: msg}
	default:
		return Result{Verdict: VerdictAllow}
	}
}

// merge combines results deny > ask > warn > allow, concatenating
// messages/context and letting the last non-empty UpdatedInput win
// (spec.md §3.4).
func merge(results []Result) Result {
	out := Result{Verdict: VerdictAllow}
	var messages, contexts []string
	for _, r := range results {
		if r.Verdict.rank() > out.Verdict.rank() {
			out.Verdict = r.Verdict
		}
		if r.Message != "" {
			messages = append(messages, r.Message)
		}
		if r.ContextInject != "" {
			contexts = append(contexts, r.ContextInject)
		}
		if r.UpdatedInput != nil {
			out.UpdatedInput = r.UpdatedInput
		}
		if r.Metadata != nil {
			if out.Metadata == nil {
				out.Metadata = map[string]any{}
			}
			for k, v := range r.Metadata {
				out.Metadata[k] = v
			}
		}
	}
	out.Message = joinNonEmpty(messages, "\n")
	out.ContextInject = joinNonEmpty(contexts, "\n\n")
	return out
}

func joinNonEmpty(parts []string, sep string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += sep
		}
		out += p
	}
	return out
}

// Merge is exported for the router to combine results across every gate
// in the registry, in addition to each gate combining its own
// triggers/policies/countdown.
func Merge(results []Result) Result { return merge(results) }
