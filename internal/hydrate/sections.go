package hydrate

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// defaultWorkflows is the built-in workflows index keyed by name; a
// project-local .agent/workflows.local.yaml may add to or override it
// (SPEC_FULL.md §E "project-local YAML override").
var defaultWorkflows = map[string]string{
	"simple-question":      "Answer directly, no state changes.",
	"interactive-followup": "Continue the current task without re-hydrating.",
	"direct-skill":         "Invoke the named skill directly.",
	"feature-work":         "Bind a task, implement, hand over, QA.",
	"bugfix":                "Bind a task, reproduce, fix, verify, hand over.",
}

// LoadWorkflowsIndex returns the built-in index merged with any
// project-local override found under cwd/.agent/workflows.local.yaml,
// then renders entries relevant to prompt first.
func LoadWorkflowsIndex(cwd, prompt string) string {
	index := make(map[string]string, len(defaultWorkflows))
	for k, v := range defaultWorkflows {
		index[k] = v
	}

	overridePath := filepath.Join(cwd, ".agent", "workflows.local.yaml")
	if data, err := os.ReadFile(overridePath); err == nil {
		var overrides map[string]string
		if yaml.Unmarshal(data, &overrides) == nil {
			for k, v := range overrides {
				index[k] = v
			}
		}
	}

	names := make([]string, 0, len(index))
	for k := range index {
		names = append(names, k)
	}
	sort.Strings(names)

	lower := strings.ToLower(prompt)
	relevant := func(name string) bool { return strings.Contains(lower, strings.Split(name, "-")[0]) }
	sort.SliceStable(names, func(i, j int) bool { return relevant(names[i]) && !relevant(names[j]) })

	var b strings.Builder
	for _, name := range names {
		marker := ""
		if relevant(name) {
			marker = " (relevant)"
		}
		fmt.Fprintf(&b, "- %s%s: %s\n", name, marker, index[name])
	}
	return b.String()
}

// LoadFrameworkPaths returns the router's own directory table (state,
// logs, temp); plugin/data roots and framework subdirectories are not
// listed.
func LoadFrameworkPaths(stateDir, logDir, tempDir string) string {
	return fmt.Sprintf(
		"state: %s\nlogs: %s\ntemp: %s\n",
		stateDir, logDir, tempDir,
	)
}

// LoadMCPToolsContext returns a static description of the MCP/tool
// surface available to the agent.
func LoadMCPToolsContext() string {
	return "Standard tool surface: Read, Write, Edit, Bash, Grep, Glob, Task, Skill.\n"
}

// LoadEnvironmentVariablesContext renders the recognized env vars that
// shape router behavior (spec.md §6).
func LoadEnvironmentVariablesContext(env map[string]string) string {
	var b strings.Builder
	for _, k := range []string{"AOPS_COMPLIANCE_MODE", "AOPS_HYDRATION_MODE", "AOPS_TASK_GATE_MODE"} {
		if v, ok := env[k]; ok {
			fmt.Fprintf(&b, "%s=%s\n", k, v)
		}
	}
	return b.String()
}

// LoadProjectPathsContext reports the working directory.
func LoadProjectPathsContext(cwd string) string {
	return "cwd: " + cwd + "\n"
}

// LoadProjectRules reads AXIOMS.md/HEURISTICS.md from cwd if present.
func LoadProjectRules(cwd string) string {
	var b strings.Builder
	for _, name := range []string{"AXIOMS.md", "HEURISTICS.md"} {
		if data, err := os.ReadFile(filepath.Join(cwd, name)); err == nil {
			b.WriteString(string(data))
			b.WriteString("\n")
		}
	}
	return b.String()
}

// GetFormattedRelevantPaths returns up to maxFiles repo-relative paths
// whose name matches a keyword from prompt, ranked by match count.
func GetFormattedRelevantPaths(cwd, prompt string, maxFiles int) string {
	keywords := strings.Fields(strings.ToLower(prompt))
	if len(keywords) == 0 {
		return ""
	}

	type scored struct {
		path  string
		score int
	}
	var candidates []scored

	_ = filepath.WalkDir(cwd, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		rel, _ := filepath.Rel(cwd, path)
		lower := strings.ToLower(rel)
		score := 0
		for _, kw := range keywords {
			if len(kw) > 2 && strings.Contains(lower, kw) {
				score++
			}
		}
		if score > 0 {
			candidates = append(candidates, scored{rel, score})
		}
		return nil
	})

	sort.Slice(candidates, func(i, j int) bool { return candidates[i].score > candidates[j].score })
	if len(candidates) > maxFiles {
		candidates = candidates[:maxFiles]
	}

	var b strings.Builder
	for _, c := range candidates {
		fmt.Fprintf(&b, "- %s\n", c.path)
	}
	return b.String()
}
