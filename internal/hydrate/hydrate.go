// Package hydrate builds the hydration context payload on
// UserPromptSubmit: skip rules, follow-up detection, section assembly,
// atomic temp-file write, and the hydration gate's closing side effects
// (spec.md §4.E), grounded in
// original_source/aops-claude/lib/hydration/builder.go and
// aops-core-claude/hooks/user_prompt_submit.py.
package hydrate

import (
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"hookrouter/internal/paths"
	"hookrouter/internal/state"
)

const (
	tempCategory = "hydrator"
	filePrefix   = "hydrate_"
	staleAfter   = time.Hour
)

// continuationMarkers mirrors is_followup_prompt's marker list: pronouns,
// additive markers, repetition markers, quick-action verbs, continuation
// phrases (SPEC_FULL.md "Supplemented features").
var continuationMarkers = []string{
	"it", "that", "this", "them", "those",
	"also", "and", "additionally", "plus",
	"again", "another", "more", "same",
	"fix", "update", "change", "add", "remove", "check", "run", "show",
	"continue", "keep going", "next", "now do", "what about",
}

var envelopeTagRe = regexp.MustCompile(`(?i)^<(agent|task-notification)[ >]`)
var expandedCommandRe = regexp.MustCompile(`(?i)<command-name>`)

// ShouldSkip implements should_skip_hydration: agent/task-notification
// envelopes, expanded slash-command markers, literal slash-command or
// skill invocations, and the "." user-bypass prefix (which also flips
// gatesBypassed so the caller can record it).
func ShouldSkip(prompt string) (skip bool, gatesBypassed bool) {
	trimmed := strings.TrimSpace(prompt)
	if trimmed == "" {
		return true, false
	}
	if envelopeTagRe.MatchString(trimmed) || expandedCommandRe.MatchString(trimmed) {
		return true, false
	}
	if strings.HasPrefix(trimmed, "/") || strings.HasPrefix(trimmed, "# /") {
		return true, false
	}
	if strings.HasPrefix(trimmed, ".") {
		return true, true
	}
	return false, false
}

// IsFollowup implements is_followup_prompt: requires prior hydration or a
// bound task, a prompt of at most 30 words, and at least one continuation
// marker. 30 words exactly still counts as a follow-up; 31 does not.
func IsFollowup(prompt string, hydratedOrTaskBound bool) bool {
	if !hydratedOrTaskBound {
		return false
	}
	words := strings.Fields(prompt)
	if len(words) > 30 {
		return false
	}
	lower := strings.ToLower(prompt)
	for _, m := range continuationMarkers {
		if regexp.MustCompile(`\b` + regexp.QuoteMeta(m) + `\b`).MatchString(lower) {
			return true
		}
	}
	return false
}

// Sections is the assembled set of context blocks written to the temp
// file (spec.md §4.E "payload assembly").
type Sections struct {
	Prompt               string
	SessionContext       string
	FrameworkPaths       string
	MCPTools             string
	EnvVars              string
	ProjectPaths         string
	ProjectContextIndex  string
	ProjectRules         string
	RelevantFiles        string
	WorkflowsIndex       string
	SkillsIndex          string
	ScriptsIndex         string
	TaskState            string
}

// Render joins sections into the full context document written to the
// hydration temp file.
func (s Sections) Render() string {
	var b strings.Builder
	b.WriteString("# Hydration Context\n\n")
	b.WriteString("## Prompt\n" + s.Prompt + "\n\n")
	if s.SessionContext != "" {
		b.WriteString("## Session Context\n" + s.SessionContext + "\n\n")
	}
	b.WriteString("## Framework Paths\n" + s.FrameworkPaths + "\n\n")
	b.WriteString("## MCP Tools\n" + s.MCPTools + "\n\n")
	b.WriteString("## Environment\n" + s.EnvVars + "\n\n")
	b.WriteString("## Project Paths\n" + s.ProjectPaths + "\n\n")
	if s.ProjectContextIndex != "" {
		b.WriteString("## Project Context Index\n" + s.ProjectContextIndex + "\n\n")
	}
	if s.ProjectRules != "" {
		b.WriteString("## Project Rules\n" + s.ProjectRules + "\n\n")
	}
	b.WriteString("## Relevant Files\n" + s.RelevantFiles + "\n\n")
	b.WriteString("## Workflows Index\n" + s.WorkflowsIndex + "\n\n")
	b.WriteString("## Skills Index\n" + s.SkillsIndex + "\n\n")
	b.WriteString("## Scripts Index\n" + s.ScriptsIndex + "\n\n")
	b.WriteString("## Task State\n" + s.TaskState + "\n")
	return b.String()
}

// CleanupStale deletes hydration temp files older than staleAfter,
// mirroring cleanup_old_temp_files.
func CleanupStale(layout paths.Layout) error {
	dir, err := layout.TempCategoryDir(tempCategory)
	if err != nil {
		return err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	cutoff := time.Now().Add(-staleAfter)
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), filePrefix) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			_ = os.Remove(filepath.Join(dir, e.Name()))
		}
	}
	return nil
}

// WriteTempFile cleans up stale files then atomically writes the
// rendered context, returning the final path.
func WriteTempFile(layout paths.Layout, sessionID string, content string) (string, error) {
	if err := CleanupStale(layout); err != nil {
		return "", err
	}
	dir, err := layout.TempCategoryDir(tempCategory)
	if err != nil {
		return "", err
	}

	name := filePrefix + paths.SessionHash(sessionID) + "-" + strconv.FormatInt(time.Now().UnixNano(), 10) + ".md"
	target := filepath.Join(dir, name)

	tmp, err := os.CreateTemp(dir, ".hydrate-*.tmp")
	if err != nil {
		return "", err
	}
	tmpName := tmp.Name()
	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", err
	}
	if err := os.Rename(tmpName, target); err != nil {
		return "", err
	}
	return target, nil
}

// ApplyGateSideEffects records the closing bookkeeping build_hydration_instruction
// performs on the session's hydration gate: metrics.temp_path,
// metrics.original_prompt, close the gate, set hydration_pending, and
// increment the global turn counter.
func ApplyGateSideEffects(st *state.State, prompt, tempPath string) {
	st.GlobalTurnCount++
	g := st.GetGate("hydration", "open")
	g.Metrics["temp_path"] = tempPath
	g.Metrics["original_prompt"] = prompt
	st.CloseGate("hydration")
	st.Scratch["hydration_pending"] = true
}

// Instruction builds the short (<300 token) instruction text returned to
// the main agent, with the prompt preview truncated to 80 characters.
func Instruction(prompt, tempPath string) string {
	preview := strings.ReplaceAll(prompt, "\n", " ")
	preview = strings.TrimSpace(preview)
	truncated := false
	if len(preview) > 80 {
		preview = preview[:80]
		truncated = true
	}
	if truncated {
		preview += "..."
	}
	return "Prompt hydration required for: " + preview + "\nFull context written to: " + tempPath +
		"\nInvoke the prompt-hydrator skill with this file before responding."
}
