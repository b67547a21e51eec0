package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// ErrMissingCredential is returned when a required secret is not in the environment
var ErrMissingCredential = errors.New("missing credential")

// Config holds all application configuration
type Config struct {
	General       GeneralConfig       `toml:"general"`
	Git           GitConfig           `toml:"git"`
	Wizard        WizardConfig        `toml:"wizard"`
	Claude        ClaudeConfig        `toml:"claude"`
	Evaluator     EvaluatorConfig     `toml:"evaluator"`
	Notifications NotificationsConfig `toml:"notifications"`
	Schedules     []ScheduleConfig    `toml:"schedule"`
}

// GeneralConfig holds general settings
type GeneralConfig struct {
	WorkbenchRoot string `toml:"workbench_root"` // empty means the repository of the working directory
	AppsDir       string `toml:"apps_dir"`       // relative to the workbench root
	Manifest      string `toml:"manifest"`       // file marking an app directory
	DatabasePath  string `toml:"database_path"`
}

// GitConfig holds branch and remote defaults
type GitConfig struct {
	Remote       string `toml:"remote"`
	Base         string `toml:"base"`
	BranchPrefix string `toml:"branch_prefix"`
}

// WizardConfig describes how the wizard is invoked
type WizardConfig struct {
	Path          string `toml:"path"` // wizard checkout; WIZARD_PATH overrides
	Node          string `toml:"node"`
	CI            bool   `toml:"ci"`
	Region        string `toml:"region"` // POSTHOG_REGION overrides
	TranscriptDir string `toml:"transcript_dir"`

	APIKey string `toml:"-"` // POSTHOG_PERSONAL_API_KEY
}

// ClaudeConfig holds agent settings
type ClaudeConfig struct {
	Binary       string   `toml:"binary"`
	Model        string   `toml:"model"`
	MaxTurns     int      `toml:"max_turns"`
	AllowedTools []string `toml:"allowed_tools"`

	APIKey string `toml:"-"` // ANTHROPIC_API_KEY
}

// EvaluatorConfig holds evaluator settings
type EvaluatorConfig struct {
	Command      string `toml:"command"`       // binary invoked by wizard-ci --evaluate
	ArtifactsDir string `toml:"artifacts_dir"` // test-run output, relative to the workbench root
}

// NotificationsConfig holds notification settings
type NotificationsConfig struct {
	Desktop      bool   `toml:"desktop"`
	SlackWebhook string `toml:"slack_webhook"`
}

// ScheduleConfig is a cron-triggered CI batch
type ScheduleConfig struct {
	Name     string   `toml:"name"`
	Cron     string   `toml:"cron"`
	Apps     []string `toml:"apps"` // empty means all apps
	Evaluate bool     `toml:"evaluate"`
	Local    bool     `toml:"local"`
}

// Default returns a Config with sensible defaults
func Default() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		General: GeneralConfig{
			AppsDir:      "apps",
			Manifest:     "package.json",
			DatabasePath: filepath.Join(home, ".wizard-workbench", "history.db"),
		},
		Git: GitConfig{
			Remote:       "origin",
			Base:         "main",
			BranchPrefix: "wizard-ci",
		},
		Wizard: WizardConfig{
			Path: filepath.Join(home, "development", "wizard"),
			Node: "node",
		},
		Claude: ClaudeConfig{
			Binary:       "claude",
			Model:        "claude-sonnet-4-20250514",
			MaxTurns:     30,
			AllowedTools: []string{"Read", "Grep", "Glob"},
		},
		Evaluator: EvaluatorConfig{
			Command:      "pr-evaluator",
			ArtifactsDir: "test-evaluations",
		},
		Notifications: NotificationsConfig{
			Desktop: false,
		},
	}
}

// Load reads configuration from a TOML file, falling back to defaults.
// Environment overrides are applied afterwards.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	if err == nil {
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	cfg.ApplyEnv(os.Getenv)

	// Expand paths
	cfg.General.WorkbenchRoot = ExpandPath(cfg.General.WorkbenchRoot)
	cfg.General.DatabasePath = ExpandPath(cfg.General.DatabasePath)
	cfg.Wizard.Path = ExpandPath(cfg.Wizard.Path)
	cfg.Wizard.TranscriptDir = ExpandPath(cfg.Wizard.TranscriptDir)

	return cfg, nil
}

// ApplyEnv overlays values from the environment. Secrets only ever come
// from here.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv("WIZARD_PATH"); v != "" {
		c.Wizard.Path = v
	}
	if v := getenv("POSTHOG_REGION"); v != "" {
		c.Wizard.Region = v
	}
	c.Wizard.APIKey = getenv("POSTHOG_PERSONAL_API_KEY")
	c.Claude.APIKey = getenv("ANTHROPIC_API_KEY")
}

// RequireAgentCredential fails when no agent API key is available
func (c *Config) RequireAgentCredential() error {
	if c.Claude.APIKey == "" {
		return fmt.Errorf("%w: ANTHROPIC_API_KEY environment variable is required", ErrMissingCredential)
	}
	return nil
}

// ValidateWizardCI checks the region and key needed for non-interactive wizard runs
func (c *Config) ValidateWizardCI() error {
	if !c.Wizard.CI {
		return nil
	}
	if c.Wizard.Region != "us" && c.Wizard.Region != "eu" {
		return fmt.Errorf("POSTHOG_REGION must be \"us\" or \"eu\" in CI mode, got %q", c.Wizard.Region)
	}
	if c.Wizard.APIKey == "" {
		return fmt.Errorf("%w: POSTHOG_PERSONAL_API_KEY is required in CI mode", ErrMissingCredential)
	}
	return nil
}

// ExpandPath expands ~ to the user's home directory
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}

// DefaultConfigPath returns the default config file location
func DefaultConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "wizard-workbench", "config.toml")
}
