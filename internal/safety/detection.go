// Package safety classifies shell commands and file paths as
// destructive, safe-temp, or critical — the same conservative-bias
// pattern-matching hooks/lib/safety/detection.go uses for
// IsDangerousOperation/IsCriticalFile, adapted here into the predicates
// the gate engine's handover/task_required gates reference by name
// (SPEC_FULL.md §C/D).
package safety

import (
	"regexp"
	"strings"
)

// destructivePatterns are command prefixes/substrings the original's
// _is_destructive_bash treats as state-modifying (as opposed to the
// readonly allowlist).
var destructivePatterns = []string{
	`^\s*rm\s`, `^\s*rm$`, `^\s*mv\s`, `^\s*git\s+push`, `^\s*git\s+reset\s+--hard`,
	`^\s*git\s+clean`, `\bdrop\s+table\b`, `^\s*truncate\s`, `>\s*/dev/`,
	`^\s*chmod\s`, `^\s*chown\s`, `^\s*dd\s`, `^\s*kill\s`, `^\s*systemctl\s+(stop|restart)`,
}

var readonlyPatterns = []string{
	`^\s*(cat|less|head|tail|grep|find|ls|git\s+(status|log|diff|show|branch))\b`,
}

var destructiveRe = compileAll(destructivePatterns)
var readonlyRe = compileAll(readonlyPatterns)

func compileAll(patterns []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		out = append(out, regexp.MustCompile(p))
	}
	return out
}

func matchesAny(res []*regexp.Regexp, text string) bool {
	for _, re := range res {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

// IsDestructiveBash reports whether cmd modifies state in a way that
// should count against the task_required/handover gates. Conservative
// bias: readonly patterns win ties, uncertain commands are NOT
// destructive (false positives block legitimate work).
func IsDestructiveBash(cmd string) bool {
	if cmd == "" {
		return false
	}
	if matchesAny(readonlyRe, cmd) {
		return false
	}
	return matchesAny(destructiveRe, cmd)
}

var safeTempPrefixes = []string{"/tmp/", "/var/tmp/"}

// IsSafeTempPath reports whether a path/command contains one of the
// scratch prefixes the gate engine should never hold hostage (the
// original's SAFE_TEMP_PREFIXES/_is_safe_temp_path). The test is a
// substring match: other paths named in the same command are not
// examined.
func IsSafeTempPath(pathOrCmd string) bool {
	trimmed := strings.TrimSpace(pathOrCmd)
	for _, prefix := range safeTempPrefixes {
		if strings.Contains(trimmed, prefix) {
			return true
		}
	}
	return false
}

var criticalPathPatterns = []string{
	`/\.ssh/`, `/\.aws/`, `/etc/passwd`, `/etc/shadow`, `\.git/config$`, `/\.gnupg/`,
}

var criticalPathRe = compileAll(criticalPathPatterns)

// IsCriticalFile reports whether filePath names a security-sensitive
// system location; the task_required and handover gates treat a write
// there as destructive even under a temp prefix
// (hooks/lib/safety/detection.go's IsCriticalFile, same
// patterns, Go-native regex instead of JSONC-configured strings since
// this engine has no config-driven pattern file for it).
func IsCriticalFile(filePath string) bool {
	return matchesAny(criticalPathRe, filePath)
}
