// Package config loads orc's project configuration from
// .orc/config.yaml, falling back to defaults when the file is absent.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config is orc's full project configuration.
type Config struct {
	Timeout               int                `mapstructure:"timeout"`
	MaxRetries            int                `mapstructure:"max_retries"`
	Model                 string             `mapstructure:"model"`
	Output                string             `mapstructure:"output"`
	Interactive           bool               `mapstructure:"interactive"`
	Notifications         NotificationConfig `mapstructure:"notifications"`
	GitHub                GitHubSyncConfig   `mapstructure:"github"`
	Jira                  JiraSyncConfig     `mapstructure:"jira"`
	StrictCompliance      bool               `mapstructure:"strict_compliance"`
	Learnings             bool               `mapstructure:"learnings"`
	SandboxMode           string             `mapstructure:"sandbox_mode"`
	AutoCommit            bool               `mapstructure:"auto_commit"`
	CommitOnFailure       bool               `mapstructure:"commit_on_failure"`
	CommitMessageTemplate string             `mapstructure:"commit_message_template"`
	ContextThreshold      float64            `mapstructure:"context_threshold"`
	ToolCallThreshold     int                `mapstructure:"tool_call_threshold"`
	MaxRestarts           int                `mapstructure:"max_restarts"`
	PlanGenerationModel   string             `mapstructure:"plan_generation_model"`
	PlanGenerationTimeout int                `mapstructure:"plan_generation_timeout"`
}

// NotificationConfig configures where orchestration events are sent.
type NotificationConfig struct {
	Enabled         bool   `mapstructure:"enabled"`
	Provider        string `mapstructure:"provider"` // console, ntfy, slack
	NtfyServer      string `mapstructure:"ntfy_server"`
	NtfyTopic       string `mapstructure:"ntfy_topic"`
	SlackWebhookURL string `mapstructure:"slack_webhook_url"`
}

// GitHubLabelConfig names the labels applied as a phase moves through
// its lifecycle.
type GitHubLabelConfig struct {
	InProgress      string `mapstructure:"in_progress"`
	Completed       string `mapstructure:"completed"`
	Failed          string `mapstructure:"failed"`
	ColorInProgress string `mapstructure:"color_in_progress"`
	ColorCompleted  string `mapstructure:"color_completed"`
	ColorFailed     string `mapstructure:"color_failed"`
}

// GitHubSyncConfig configures syncing phase status to GitHub issues.
type GitHubSyncConfig struct {
	Enabled               bool              `mapstructure:"enabled"`
	AutoClose             bool              `mapstructure:"auto_close"`
	Labels                GitHubLabelConfig `mapstructure:"labels"`
	CreateLabelsIfMissing bool              `mapstructure:"create_labels_if_missing"`
	DryRun                bool              `mapstructure:"dry_run"`
}

// JiraSyncConfig configures syncing phase status to Jira issues.
type JiraSyncConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	BaseURL    string `mapstructure:"base_url"`
	ProjectKey string `mapstructure:"project_key"`
	AutoClose  bool   `mapstructure:"auto_close"`
	DryRun     bool   `mapstructure:"dry_run"`
}

const orchestratorDirName = ".orc"

// Load reads .orc/config.yaml under projectRoot, falling back to
// DefaultConfig if the file doesn't exist.
func Load(projectRoot string) (*Config, error) {
	configPath := filepath.Join(projectRoot, orchestratorDirName, "config.yaml")

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("orc")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// DefaultConfig mirrors the defaults an unconfigured project runs
// with.
func DefaultConfig() *Config {
	return &Config{
		Timeout:     1800,
		MaxRetries:  2,
		Model:       "opus",
		Output:      "",
		Interactive: true,
		Notifications: NotificationConfig{
			Enabled:  false,
			Provider: "console",
		},
		GitHub: GitHubSyncConfig{
			Enabled: false,
			Labels: GitHubLabelConfig{
				InProgress:      "orc:in-progress",
				Completed:       "orc:completed",
				Failed:          "orc:failed",
				ColorInProgress: "fbca04",
				ColorCompleted:  "0e8a16",
				ColorFailed:     "d93f0b",
			},
			CreateLabelsIfMissing: true,
		},
		Jira: JiraSyncConfig{
			Enabled: false,
		},
		StrictCompliance:      true,
		Learnings:             false,
		SandboxMode:           "none",
		AutoCommit:            true,
		CommitOnFailure:       false,
		CommitMessageTemplate: "orc: Phase {phase_id} - {phase_name} {status}",
		ContextThreshold:      80.0,
		ToolCallThreshold:     100,
		MaxRestarts:           3,
		PlanGenerationModel:   "sonnet",
		PlanGenerationTimeout: 300,
	}
}

// OrchestratorDir returns (creating if necessary) the .orc directory
// under projectRoot.
func OrchestratorDir(projectRoot string) (string, error) {
	dir := filepath.Join(projectRoot, orchestratorDirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create orchestrator dir: %w", err)
	}
	return dir, nil
}
