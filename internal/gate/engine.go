package gate

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"hookrouter/internal/hookcontext"
	"hookrouter/internal/state"
)

// customChecks and customActions are registries of named Go functions a
// Condition/Transition/Policy can reference by string (spec.md §4.C
// "Custom checks and actions are registered by name"), mirroring
// gate_registry.py's module-level predicate functions being referenced
// by name from the declarative configs in lib/gates/engine.py.
type CheckFunc func(ctx *hookcontext.HookContext, st *state.State, g *state.GateState) bool
type ActionFunc func(ctx *hookcontext.HookContext, st *state.State, g *state.GateState) map[string]any

var customChecks = map[string]CheckFunc{}
var customActions = map[string]ActionFunc{}

func RegisterCheck(name string, fn CheckFunc)   { customChecks[name] = fn }
func RegisterAction(name string, fn ActionFunc) { customActions[name] = fn }

// GenericGate evaluates one Config against (context, state). It has no
// gate-specific code: every behavioral difference between gates lives in
// their Config data (spec.md §9 "dynamic dispatch as data").
type GenericGate struct {
	Cfg Config
}

func New(cfg Config) *GenericGate { return &GenericGate{Cfg: cfg} }

func (gg *GenericGate) gateState(st *state.State) *state.GateState {
	return st.GetGate(gg.Cfg.Name, gg.Cfg.InitialStatus)
}

// evaluateCondition checks a single condition against the current event
// and gate state (lib/gates/engine.py's _evaluate_condition).
func (gg *GenericGate) evaluateCondition(c Condition, ctx *hookcontext.HookContext, st *state.State, g *state.GateState) bool {
	if c.CurrentStatus != "" && c.CurrentStatus != g.Status {
		return false
	}
	if c.HookEvent != "" && !matchEvent(c.HookEvent, ctx.Event) {
		return false
	}
	if c.ToolNamePattern != "" && !matchRegex(c.ToolNamePattern, ctx.ToolName) {
		return false
	}
	if len(c.ExcludedToolCategories) > 0 && toolInCategories(ctx.ToolName, c.ExcludedToolCategories) {
		return false
	}
	if c.ToolInputPattern != "" && !matchRegex(c.ToolInputPattern, stringifyToolInput(ctx.ToolInput)) {
		return false
	}
	if c.SubagentTypePattern != "" && !matchRegex(c.SubagentTypePattern, ctx.SubagentType) {
		return false
	}
	if c.MinOpsSinceOpen > 0 && g.OpsSinceOpen < c.MinOpsSinceOpen {
		return false
	}
	if c.MinOpsSinceClose > 0 && g.OpsSinceClose < c.MinOpsSinceClose {
		return false
	}
	if c.MinTurnsSinceOpen > 0 && (st.GlobalTurnCount-g.LastOpenTurn) < c.MinTurnsSinceOpen {
		return false
	}
	if c.CustomCheck != "" {
		fn, ok := customChecks[c.CustomCheck]
		if !ok {
			return false
		}
		if !fn(ctx, st, g) {
			return false
		}
	}
	return true
}

func matchEvent(pattern, event string) bool {
	if pattern == event {
		return true
	}
	return matchRegex(pattern, event)
}

func matchRegex(pattern, value string) bool {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return pattern == value
	}
	return re.MatchString(value)
}

func toolInCategories(toolName string, categories []string) bool {
	cat, ok := toolCategoryOf[toolName]
	if !ok {
		return false
	}
	for _, c := range categories {
		if c == cat {
			return true
		}
	}
	return false
}

func stringifyToolInput(input map[string]any) string {
	var b strings.Builder
	for k, v := range input {
		fmt.Fprintf(&b, "%s=%v ", k, v)
	}
	return b.String()
}

// applyTransition mirrors _apply_transition's ordering: status update,
// then metrics, then custom_action (which may itself set metrics the
// templates reference), then template rendering last.
func (gg *GenericGate) applyTransition(t Transition, ctx *hookcontext.HookContext, st *state.State, g *state.GateState) (systemMsg, contextMsg string, updated map[string]any) {
	if t.TargetStatus != "" {
		if t.TargetStatus == "open" {
			st.OpenGate(gg.Cfg.Name)
		} else {
			st.CloseGate(gg.Cfg.Name)
		}
		g = st.GetGate(gg.Cfg.Name, gg.Cfg.InitialStatus)
	}
	if t.ResetOpsCounter {
		g.OpsSinceOpen = 0
		g.OpsSinceClose = 0
	}
	for k, v := range t.SetMetrics {
		g.Metrics[k] = v
	}
	for _, k := range t.IncrementMetrics {
		cur, _ := g.Metrics[k].(float64)
		g.Metrics[k] = cur + 1
	}
	if t.CustomAction != "" {
		if fn, ok := customActions[t.CustomAction]; ok {
			if out := fn(ctx, st, g); out != nil {
				updated = out
			}
		}
	}

	vars := templateVars(ctx, st, g)
	if t.SystemMessageTmpl != "" {
		systemMsg, _ = renderTemplate(t.SystemMessageTmpl, vars)
	}
	if t.ContextTmpl != "" {
		contextMsg, _ = renderTemplate(t.ContextTmpl, vars)
	}
	return systemMsg, contextMsg, updated
}

// renderTemplate does fail-fast {placeholder} substitution: a missing
// key is an error, never a silently-blank string (lib/gates/engine.py's
// _render_template using format_map with a raising default).
func renderTemplate(tmpl string, vars map[string]string) (string, error) {
	var out strings.Builder
	i := 0
	for i < len(tmpl) {
		if tmpl[i] == '{' {
			end := strings.IndexByte(tmpl[i:], '}')
			if end == -1 {
				return "", fmt.Errorf("gate: unterminated template placeholder in %q", tmpl)
			}
			key := tmpl[i+1 : i+end]
			val, ok := vars[key]
			if !ok {
				return "", fmt.Errorf("gate: missing template variable %q", key)
			}
			out.WriteString(val)
			i += end + 1
			continue
		}
		out.WriteByte(tmpl[i])
		i++
	}
	return out.String(), nil
}

func templateVars(ctx *hookcontext.HookContext, st *state.State, g *state.GateState) map[string]string {
	vars := map[string]string{
		"session_id":      st.SessionID,
		"current_task":    st.MainAgent.CurrentTask,
		"tool_name":       ctx.ToolName,
		"status":          g.Status,
		"blocked":         strconv.FormatBool(g.Blocked),
		"block_reason":    g.BlockReason,
		"ops_since_open":  strconv.Itoa(g.OpsSinceOpen),
		"ops_since_close": strconv.Itoa(g.OpsSinceClose),
		"global_turn":     strconv.Itoa(st.GlobalTurnCount),
	}
	for k, v := range g.Metrics {
		vars[k] = fmt.Sprintf("%v", v)
	}
	return vars
}

// toolCategoryOf is a small fixed classification used by
// excluded_tool_categories; extended as new gates need finer exclusions.
var toolCategoryOf = map[string]string{
	"Read":      "read",
	"Glob":      "read",
	"Grep":      "read",
	"NotebookRead": "read",
	"TodoWrite": "meta",
	"Skill":     "meta",
}
