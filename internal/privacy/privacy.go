// Package privacy sanitizes paths and shell commands before they reach
// an activity log, carrying forward system/runtime/lib/privacy's
// "privacy is protection, not secrecy" stance: capture behavioral shape
// (a command ran, a file was touched) without leaking arguments or home
// directories.
package privacy

import (
	"os"
	"path/filepath"
	"strings"
)

var sensitivePathFragments = []string{
	".ssh", ".aws", ".gnupg", ".netrc", "credentials", ".env", "id_rsa", ".pem", ".key",
}

// SanitizePath strips a path to its basename, and redacts entirely when
// the path looks sensitive (keys, credentials, dotfiles holding secrets).
func SanitizePath(path string) string {
	if path == "" {
		return ""
	}
	lower := strings.ToLower(path)
	for _, frag := range sensitivePathFragments {
		if strings.Contains(lower, frag) {
			return "[private]"
		}
	}
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		path = strings.Replace(path, home, "~", 1)
	}
	return filepath.Base(path)
}

// SanitizeCommand reduces a shell command to its leading verb (and
// subcommand, for common multi-word CLIs), dropping arguments that may
// carry secrets or personal data.
func SanitizeCommand(cmd string) string {
	fields := strings.Fields(cmd)
	if len(fields) == 0 {
		return ""
	}
	verb := fields[0]
	multiword := map[string]bool{"git": true, "docker": true, "kubectl": true, "npm": true, "go": true}
	if multiword[verb] && len(fields) > 1 {
		return verb + " " + fields[1]
	}
	return verb
}
