package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/arcflow-dev/orc/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "View or modify orc's project configuration",
	Long: `View or modify the .orc/config.yaml for the current project.

Examples:
  orc config                       Show all config
  orc config model                 Get a specific value
  orc config model sonnet          Set a value`,
	Args: cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cwd, err := os.Getwd()
		if err != nil {
			return err
		}

		dir, err := config.OrchestratorDir(cwd)
		if err != nil {
			return err
		}
		configPath := filepath.Join(dir, "config.yaml")

		switch len(args) {
		case 0:
			return showConfig(configPath)
		case 1:
			return getConfigValue(configPath, args[0])
		case 2:
			return setConfigValue(configPath, args[0], args[1])
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func showConfig(configPath string) error {
	content, err := os.ReadFile(configPath)
	if os.IsNotExist(err) {
		return writeDefaultConfig(configPath)
	}
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}
	fmt.Println(string(content))
	return nil
}

// writeDefaultConfig materializes config.yaml from the project's
// built-in defaults the first time orc config is run.
func writeDefaultConfig(configPath string) error {
	cfg := config.DefaultConfig()
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	for key, value := range structToMap(cfg) {
		v.Set(key, value)
	}
	if err := v.WriteConfigAs(configPath); err != nil {
		return fmt.Errorf("failed to write default config: %w", err)
	}
	content, err := os.ReadFile(configPath)
	if err != nil {
		return err
	}
	fmt.Println(string(content))
	return nil
}

func getConfigValue(configPath, key string) error {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}

	value := v.Get(key)
	if value == nil {
		return fmt.Errorf("key not found: %s", key)
	}
	fmt.Println(value)
	return nil
}

func setConfigValue(configPath, key, value string) error {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		if os.IsNotExist(err) {
			if wErr := writeDefaultConfig(configPath); wErr != nil {
				return wErr
			}
		} else {
			return fmt.Errorf("failed to read config: %w", err)
		}
		if rErr := v.ReadInConfig(); rErr != nil {
			return fmt.Errorf("failed to read config: %w", rErr)
		}
	}

	if strings.Contains(value, ",") {
		v.Set(key, strings.Split(value, ","))
	} else {
		v.Set(key, value)
	}

	if err := v.WriteConfig(); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	fmt.Printf("Set %s = %s\n", key, value)
	return nil
}

// structToMap flattens cfg's mapstructure tags into a plain map so a
// fresh config.yaml can be written out with the project's defaults.
func structToMap(cfg *config.Config) map[string]any {
	return map[string]any{
		"timeout":                 cfg.Timeout,
		"max_retries":             cfg.MaxRetries,
		"model":                   cfg.Model,
		"output":                  cfg.Output,
		"interactive":             cfg.Interactive,
		"strict_compliance":       cfg.StrictCompliance,
		"learnings":               cfg.Learnings,
		"sandbox_mode":            cfg.SandboxMode,
		"auto_commit":             cfg.AutoCommit,
		"commit_on_failure":       cfg.CommitOnFailure,
		"commit_message_template": cfg.CommitMessageTemplate,
		"context_threshold":       cfg.ContextThreshold,
		"tool_call_threshold":     cfg.ToolCallThreshold,
		"max_restarts":            cfg.MaxRestarts,
		"plan_generation_model":   cfg.PlanGenerationModel,
		"plan_generation_timeout": cfg.PlanGenerationTimeout,
		"notifications": map[string]any{
			"enabled":  cfg.Notifications.Enabled,
			"provider": cfg.Notifications.Provider,
		},
		"github": map[string]any{
			"enabled":    cfg.GitHub.Enabled,
			"auto_close": cfg.GitHub.AutoClose,
		},
		"jira": map[string]any{
			"enabled":     cfg.Jira.Enabled,
			"base_url":    cfg.Jira.BaseURL,
			"project_key": cfg.Jira.ProjectKey,
		},
	}
}
