// Package config loads router settings the way system/runtime/lib/config
// loads identity config: TOML on disk, environment variables taking
// precedence, safe defaults when neither is present.
package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config holds the toggles named in spec.md §6 ("Environment variables
// recognized").
type Config struct {
	StateDir          string `toml:"state_dir"`
	LogDir            string `toml:"log_dir"`
	TempDir           string `toml:"temp_dir"`
	NotifyTopic       string `toml:"notify_topic"`
	ComplianceMode    string `toml:"compliance_mode"`     // "agent" | "enforced"
	HydrationMode     string `toml:"hydration_mode"`      // "block" | "warn" | "off"
	TaskGateMode      string `toml:"task_gate_mode"`      // "block" | "warn" | "off"
	CustodietGateMode string `toml:"custodiet_gate_mode"` // "block" | "warn" | "off"
	TaskCLIPath       string `toml:"task_cli_path"`
	DataRepoPath      string `toml:"data_repo_path"`
}

func defaults() Config {
	home, _ := os.UserHomeDir()
	base := filepath.Join(home, ".aops")
	return Config{
		StateDir:          filepath.Join(base, "state"),
		LogDir:            filepath.Join(base, "logs"),
		TempDir:           filepath.Join(os.TempDir(), "aops-hooks"),
		ComplianceMode:    "agent",
		HydrationMode:     "block",
		TaskGateMode:      "block",
		CustodietGateMode: "block",
	}
}

// Load reads an optional TOML file at path (if it exists) over the
// defaults, then applies environment-variable overrides. A missing file
// is not an error — the teacher's config loader degrades the same way.
func Load(path string) (Config, error) {
	cfg := defaults()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if _, err := toml.DecodeFile(path, &cfg); err != nil {
				return cfg, err
			}
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	overrides := map[string]*string{
		"AOPS_STATE_DIR":           &cfg.StateDir,
		"AOPS_LOG_DIR":             &cfg.LogDir,
		"AOPS_TEMP_DIR":            &cfg.TempDir,
		"AOPS_NOTIFY_TOPIC":        &cfg.NotifyTopic,
		"AOPS_COMPLIANCE_MODE":     &cfg.ComplianceMode,
		"AOPS_HYDRATION_MODE":      &cfg.HydrationMode,
		"AOPS_TASK_GATE_MODE":      &cfg.TaskGateMode,
		"AOPS_CUSTODIET_GATE_MODE": &cfg.CustodietGateMode,
		"AOPS_TASK_CLI":            &cfg.TaskCLIPath,
		"AOPS_DATA_REPO":           &cfg.DataRepoPath,
	}
	for env, field := range overrides {
		if v, ok := os.LookupEnv(env); ok && v != "" {
			*field = v
		}
	}
}
