// Command router is the unified hook dispatcher: one binary invoked for
// every lifecycle event of every runtime, replacing the teacher's
// per-event compiled binaries (hooks/session/cmd-*, hooks/tool/cmd-*)
// with the single-dispatcher shape of
// original_source/aops-claude/hooks/router.py's HookRouter/main().
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"hookrouter/internal/activity"
	"hookrouter/internal/config"
	"hookrouter/internal/encode"
	"hookrouter/internal/external"
	"hookrouter/internal/gate"
	"hookrouter/internal/hookcontext"
	"hookrouter/internal/hydrate"
	"hookrouter/internal/jsonx"
	"hookrouter/internal/paths"
	"hookrouter/internal/rlog"
	"hookrouter/internal/state"
)

// crashLoopWindow and crashLoopLimit implement the 5th-consecutive-deny
// circuit breaker (spec.md §4.C, P6; SPEC_FULL.md follows the original's
// code — `len(timestamps) >= 5` — over its comment).
const (
	crashLoopWindowSeconds = 120.0
	crashLoopLimit         = 5
)

// complianceSubagentTypes are the subagent_type values that actually run
// compliance review (gate/custom.go's custodiet/qa custom checks) —
// these, not a literal "compliance-agent", are what the bypass mode in
// spec.md §8.4 scenario 6 tests against.
var complianceSubagentTypes = map[string]bool{
	"custodiet": true,
	"qa":        true,
}

func main() {
	var client string
	var configPath string

	root := &cobra.Command{
		Use:   "router [event]",
		Short: "Normalize a hook payload, run gates, emit a verdict",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			event := ""
			if len(args) == 1 {
				event = args[0]
			}
			return run(client, configPath, event)
		},
	}
	root.Flags().StringVar(&client, "client", "claude", "calling runtime: claude|gemini")
	root.Flags().StringVar(&configPath, "config", "", "path to router TOML config")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
}

func run(clientFlag, configPath, eventArg string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		rlog.Critical("config load failed, using defaults", map[string]interface{}{"error": err.Error()})
	}
	layout := paths.NewLayout(cfg)

	var payload map[string]any
	if err := jsonx.Decode(os.Stdin, &payload); err != nil {
		return fmt.Errorf("router: malformed stdin JSON: %w", err)
	}

	client := hookcontext.ClientA
	if clientFlag == string(hookcontext.ClientB) {
		client = hookcontext.ClientB
	}

	env := envMap()

	var lastSession, lastAgent string
	var haveLast bool
	lookup := func() (string, string, bool) { return lastSession, lastAgent, haveLast }

	ctx, err := hookcontext.Normalize(client, eventArg, payload, env, lookup)
	if err != nil {
		return fmt.Errorf("router: normalize failed: %w", err)
	}
	if ctx.Event == "" {
		// An event name is required; a missing event argument on a payload
		// that also lacks hook_event_name is a caller error (spec.md §7
		// "fail-fast on malformed invocation").
		return fmt.Errorf("router: no event name resolved")
	}

	registry := gate.NewRegistry()
	var result gate.Result
	var finalState *state.State

	writeErr := state.WithLock(layout, ctx.SessionID, func(st *state.State) error {
		finalState = st
		triggersOnly := cfg.ComplianceMode == "agent" && ctx.IsSubagent && complianceSubagentTypes[ctx.SubagentType]

		if ctx.Event == "UserPromptSubmit" {
			result = handleUserPromptSubmit(layout, env, ctx, st, registry, triggersOnly)
		} else {
			result = registry.DispatchEvent(ctx, st, triggersOnly)
		}

		if ctx.Event == "PostToolUse" && isSubagentCompletion(ctx) {
			st.RecordSubagentRun(ctx.SubagentType, outcomeOf(ctx))
		}

		if (ctx.Event == "Stop" || ctx.Event == "SessionEnd") && result.Verdict == gate.VerdictDeny {
			applyCrashLoopBreaker(st, &result)
		}

		runSpecialHandlers(cfg, ctx, result)
		return nil
	})
	if writeErr != nil {
		rlog.Critical("state write failed", map[string]interface{}{"session_id": ctx.SessionID, "error": writeErr.Error()})
	}

	if finalState != nil {
		result.Message = appendGateIcons(result.Message, finalState)
	}

	if logPath, err := layout.LogFile(ctx.SessionID, time.Now()); err == nil {
		_ = activity.Log(logPath, ctx.SessionID, ctx.Event, ctx.ToolName, toolContextString(ctx), result)
	}

	out, err := encode.Encode(client, ctx.Event, result)
	if err != nil {
		return fmt.Errorf("router: encode failed: %w", err)
	}
	_, err = os.Stdout.Write(out)
	return err
}

func handleUserPromptSubmit(layout paths.Layout, env map[string]string, ctx *hookcontext.HookContext, st *state.State, registry *gate.Registry, triggersOnly bool) gate.Result {
	skip, bypassed := hydrate.ShouldSkip(ctx.Prompt)
	if bypassed {
		st.Scratch["gates_bypassed"] = true
	}
	if skip {
		return registry.DispatchEvent(ctx, st, true)
	}

	hydrationGate := st.GetGate("hydration", "open")
	hydratedOrBound := hydrationGate.Status == "closed" || st.MainAgent.CurrentTask != ""
	if hydrate.IsFollowup(ctx.Prompt, hydratedOrBound) {
		return registry.DispatchEvent(ctx, st, triggersOnly)
	}

	sections := buildHydrationSections(layout, env, ctx, st)
	content := sections.Render()
	tempPath, err := hydrate.WriteTempFile(layout, ctx.SessionID, content)
	if err != nil {
		rlog.Critical("hydration temp file write failed", map[string]interface{}{"session_id": ctx.SessionID, "error": err.Error()})
		return registry.DispatchEvent(ctx, st, triggersOnly)
	}

	hydrate.ApplyGateSideEffects(st, ctx.Prompt, tempPath)
	base := registry.DispatchEvent(ctx, st, triggersOnly)
	base.ContextInject = gate.Merge([]gate.Result{base, {ContextInject: hydrate.Instruction(ctx.Prompt, tempPath)}}).ContextInject
	return base
}

// buildHydrationSections assembles every section of the hydration
// payload (spec.md §4.E "payload assembly") from the loaders in
// internal/hydrate/sections.go plus the session/task bookkeeping only
// main.go has access to.
func buildHydrationSections(layout paths.Layout, env map[string]string, ctx *hookcontext.HookContext, st *state.State) hydrate.Sections {
	return hydrate.Sections{
		Prompt:              ctx.Prompt,
		SessionContext:      sessionContextSummary(st),
		FrameworkPaths:      hydrate.LoadFrameworkPaths(layout.StateDir, layout.LogDir, layout.TempDir),
		MCPTools:            hydrate.LoadMCPToolsContext(),
		EnvVars:             hydrate.LoadEnvironmentVariablesContext(env),
		ProjectPaths:        hydrate.LoadProjectPathsContext(ctx.CWD),
		ProjectRules:        hydrate.LoadProjectRules(ctx.CWD),
		RelevantFiles:       hydrate.GetFormattedRelevantPaths(ctx.CWD, ctx.Prompt, 10),
		WorkflowsIndex:      hydrate.LoadWorkflowsIndex(ctx.CWD, ctx.Prompt),
		TaskState:           taskStateSummary(st),
	}
}

func sessionContextSummary(st *state.State) string {
	return fmt.Sprintf("session: %s\nturn: %d\nsubagent invocations: %d\n",
		st.SessionID, st.GlobalTurnCount, len(st.Subagents))
}

func taskStateSummary(st *state.State) string {
	if st.MainAgent.CurrentTask == "" {
		return "no task bound\n"
	}
	return fmt.Sprintf("task: %s\nworkflow: %s\n", st.MainAgent.CurrentTask, st.MainAgent.CurrentWorkflow)
}

func isSubagentCompletion(ctx *hookcontext.HookContext) bool {
	return (ctx.ToolName == "Task" || ctx.ToolName == "Skill") && ctx.SubagentType != ""
}

func outcomeOf(ctx *hookcontext.HookContext) string {
	if ctx.ToolOutput == nil {
		return "unknown"
	}
	if errVal, ok := ctx.ToolOutput["error"]; ok && errVal != nil {
		return "error"
	}
	return "success"
}

func applyCrashLoopBreaker(st *state.State, result *gate.Result) {
	timestamps := st.PushStopBlockTimestamp(crashLoopWindowSeconds)
	if len(timestamps) >= crashLoopLimit {
		result.Verdict = gate.VerdictAllow
		result.Message = "crash-loop breaker: forcing allow after repeated Stop denies"
		st.ClearStopBlockTimestamps()
	}
}

func runSpecialHandlers(cfg config.Config, ctx *hookcontext.HookContext, result gate.Result) {
	notifier := external.Notifier{Topic: cfg.NotifyTopic}
	switch ctx.Event {
	case "SessionStart", "Stop":
		notifier.Notify("session", ctx.Event+" "+ctx.SessionID)
	}

	if ctx.Event == "PostToolUse" {
		ac := external.AutoCommit{RepoPath: cfg.DataRepoPath}
		ac.CommitIfDirty("auto: " + ctx.ToolName)
	}

	if ctx.Event == "Stop" {
		gen := external.TranscriptGenerator{}
		gen.Generate(ctx.SessionID)
	}
}

// appendGateIcons adds the compact gate-status icon strip to the
// system_message, per router.py's format_gate_status_icons (glyphs
// chosen as the Open-Question resolution recorded in DESIGN.md).
func appendGateIcons(message string, st *state.State) string {
	var icons []string

	if g, ok := st.Gates["hydration"]; ok && g.Status == "closed" {
		icons = append(icons, "\U0001F4A7") // 💧 hydration pending
	}
	if g, ok := st.Gates["custodiet"]; ok {
		remaining := 7 - g.OpsSinceClose
		switch {
		case remaining <= 0:
			icons = append(icons, "◇!") // ◇! overdue
		case remaining <= 2:
			icons = append(icons, fmt.Sprintf("◇%d", remaining)) // ◇N countdown
		}
	}
	if g, ok := st.Gates["handover"]; ok && g.Status == "open" {
		icons = append(icons, "≡") // ≡ handover complete
	}
	if st.MainAgent.CurrentTask != "" {
		icons = append(icons, "▶"+st.MainAgent.CurrentTask) // ▶ active task
	}
	if len(icons) == 0 {
		icons = append(icons, "✓") // ✓ all clear
	}

	strip := joinIcons(icons)
	if message == "" {
		return strip
	}
	return message + "  " + strip
}

func joinIcons(icons []string) string {
	out := ""
	for i, s := range icons {
		if i > 0 {
			out += " "
		}
		out += s
	}
	return out
}

func toolContextString(ctx *hookcontext.HookContext) string {
	if ctx.ToolName == "Bash" {
		if cmd, ok := ctx.ToolInput["command"].(string); ok {
			return cmd
		}
	}
	if path, ok := ctx.ToolInput["file_path"].(string); ok {
		return path
	}
	return ""
}

func envMap() map[string]string {
	out := map[string]string{}
	for _, kv := range os.Environ() {
		for i := 0; i < len(kv); i++ {
			if kv[i] == '=' {
				out[kv[:i]] = kv[i+1:]
				break
			}
		}
	}
	return out
}
