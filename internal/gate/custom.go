package gate

import (
	"hookrouter/internal/hookcontext"
	"hookrouter/internal/safety"
	"hookrouter/internal/state"
)

// streamlinedWorkflows skip the QA/Critic Stop gates entirely — quick
// interactions that never warranted hydration's full ceremony
// (gate_registry.py's streamlined-workflow allowlist).
var streamlinedWorkflows = map[string]bool{
	"interactive-followup": true,
	"simple-question":      true,
	"direct-skill":         true,
}

func init() {
	RegisterCheck("hydrator_completed", checkHydratorCompleted)
	RegisterCheck("task_unbound_and_unsafe", checkTaskUnboundAndUnsafe)
	RegisterCheck("is_custodiet_invocation", checkIsCustodietInvocation)
	RegisterCheck("is_actually_destructive", checkIsActuallyDestructive)
	RegisterCheck("is_handover_skill_invocation", checkIsHandoverSkillInvocation)
	RegisterCheck("handover_required", checkHandoverRequired)
	RegisterCheck("qa_required_and_missing", checkQARequiredAndMissing)
	RegisterCheck("is_qa_invocation", checkIsQAInvocation)
	RegisterCheck("critic_required_and_missing", checkCriticRequiredAndMissing)
	RegisterCheck("is_critic_invocation", checkIsCriticInvocation)

	RegisterAction("clear_hydration_pending", actionClearHydrationPending)
	RegisterAction("mark_qa_invoked", actionMarkQAInvoked)
	RegisterAction("record_critic_verdict", actionRecordCriticVerdict)
}

func checkHydratorCompleted(ctx *hookcontext.HookContext, st *state.State, g *state.GateState) bool {
	if ctx.ToolName != "Skill" && ctx.ToolName != "Task" {
		return false
	}
	name, _ := ctx.ToolInput["name"].(string)
	subagentType, _ := ctx.ToolInput["subagent_type"].(string)
	return name == "prompt-hydrator" || subagentType == "prompt-hydrator"
}

func checkTaskUnboundAndUnsafe(ctx *hookcontext.HookContext, st *state.State, g *state.GateState) bool {
	if st.MainAgent.CurrentTask != "" {
		return false
	}
	if ctx.ToolName == "Bash" {
		cmd, _ := ctx.ToolInput["command"].(string)
		if safety.IsSafeTempPath(cmd) || !safety.IsDestructiveBash(cmd) {
			return false
		}
	}
	if ctx.ToolName == "Write" || ctx.ToolName == "Edit" {
		path, _ := ctx.ToolInput["file_path"].(string)
		if safety.IsCriticalFile(path) {
			return true
		}
		if safety.IsSafeTempPath(path) {
			return false
		}
	}
	return true
}

func checkIsCustodietInvocation(ctx *hookcontext.HookContext, st *state.State, g *state.GateState) bool {
	if ctx.ToolName != "Task" && ctx.ToolName != "Skill" {
		return false
	}
	subagentType, _ := ctx.ToolInput["subagent_type"].(string)
	name, _ := ctx.ToolInput["name"].(string)
	return subagentType == "custodiet" || name == "custodiet"
}

func checkIsActuallyDestructive(ctx *hookcontext.HookContext, st *state.State, g *state.GateState) bool {
	switch ctx.ToolName {
	case "Bash":
		cmd, _ := ctx.ToolInput["command"].(string)
		return safety.IsDestructiveBash(cmd) && !safety.IsSafeTempPath(cmd)
	case "Write", "Edit":
		path, _ := ctx.ToolInput["file_path"].(string)
		if safety.IsCriticalFile(path) {
			return true
		}
		return !safety.IsSafeTempPath(path)
	default:
		return false
	}
}

func checkIsHandoverSkillInvocation(ctx *hookcontext.HookContext, st *state.State, g *state.GateState) bool {
	if ctx.ToolName != "Skill" {
		return false
	}
	name, _ := ctx.ToolInput["name"].(string)
	return name == "handover"
}

func checkHandoverRequired(ctx *hookcontext.HookContext, st *state.State, g *state.GateState) bool {
	return st.MainAgent.CurrentTask != "" || st.Scratch["git_dirty"] == true
}

func checkQARequiredAndMissing(ctx *hookcontext.HookContext, st *state.State, g *state.GateState) bool {
	if streamlinedWorkflows[st.MainAgent.CurrentWorkflow] {
		return false
	}
	hydrationGate := st.GetGate("hydration", "open")
	if hydrationGate.LastCloseTS == 0 {
		return false // hydration never happened in this session
	}
	if invoked, _ := st.Scratch["qa_invoked"].(bool); invoked {
		return false
	}
	return true
}

func checkIsQAInvocation(ctx *hookcontext.HookContext, st *state.State, g *state.GateState) bool {
	if ctx.ToolName != "Task" && ctx.ToolName != "Skill" {
		return false
	}
	subagentType, _ := ctx.ToolInput["subagent_type"].(string)
	name, _ := ctx.ToolInput["name"].(string)
	return subagentType == "qa" || name == "qa"
}

// checkCriticRequiredAndMissing mirrors run_accountant's comment: "if
// turns_since_hydration == 0, deny stop and demand Critic" — hydration
// just closed this turn and zero sub-agents have run since.
func checkCriticRequiredAndMissing(ctx *hookcontext.HookContext, st *state.State, g *state.GateState) bool {
	if streamlinedWorkflows[st.MainAgent.CurrentWorkflow] {
		return false
	}
	if st.GetGate("hydration", "open").LastCloseTS == 0 {
		return false // hydration never happened in this session
	}
	turnsSinceHydration := st.RefreshTurnsSinceHydration()
	if turnsSinceHydration != 0 {
		return false
	}
	return len(st.Subagents) == 0
}

// checkIsCriticInvocation recognizes the critic sub-agent/skill
// completing, the trigger point for recording its verdict.
func checkIsCriticInvocation(ctx *hookcontext.HookContext, st *state.State, g *state.GateState) bool {
	if ctx.ToolName != "Task" && ctx.ToolName != "Skill" {
		return false
	}
	subagentType, _ := ctx.ToolInput["subagent_type"].(string)
	name, _ := ctx.ToolInput["name"].(string)
	return subagentType == "critic" || name == "critic"
}

func actionClearHydrationPending(ctx *hookcontext.HookContext, st *state.State, g *state.GateState) map[string]any {
	st.Scratch["hydration_pending"] = false
	if criteria := stringSlice(ctx.ToolOutput["acceptance_criteria"]); criteria != nil {
		st.SetAcceptanceCriteria(criteria)
	}
	return nil
}

func actionMarkQAInvoked(ctx *hookcontext.HookContext, st *state.State, g *state.GateState) map[string]any {
	st.Scratch["qa_invoked"] = true
	return nil
}

// actionRecordCriticVerdict persists the critic's verdict from its tool
// output (hydration.critic_verdict, spec.md §3.2).
func actionRecordCriticVerdict(ctx *hookcontext.HookContext, st *state.State, g *state.GateState) map[string]any {
	if verdict, ok := ctx.ToolOutput["verdict"].(string); ok && verdict != "" {
		st.SetCriticVerdict(verdict)
	}
	return nil
}

// stringSlice converts a decoded JSON []any of strings into []string,
// returning nil if v isn't such a slice.
func stringSlice(v any) []string {
	raw, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		s, ok := item.(string)
		if !ok {
			return nil
		}
		out = append(out, s)
	}
	return out
}
