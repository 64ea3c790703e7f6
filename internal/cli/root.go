// Package cli implements orc's cobra command surface: one file per
// subcommand, a shared root command, and small helpers used across
// commands.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Version is set by goreleaser via ldflags.
	Version = "dev"
	cfgFile string
)

var rootCmd = &cobra.Command{
	Use:   "orc",
	Short: "Orchestrate multi-phase worker CLI sessions with compliance verification",
	Long: `orc drives a coding-agent CLI through the phases of a master plan,
verifying each phase's completion against evidence in its session log
before moving on, and retrying or escalating to a human when it isn't
satisfied.

Core Commands:
  run <plan.md>     Start orchestrating a master plan
  status            Show a run's phase-execution table
  resume            Resume the most recent paused/running run
  history           List past runs
  audit <plan.md>   Validate a plan's structure without executing it

Invoked by the worker itself mid-session:
  done              Signal phase completion
  progress          Log a progress breadcrumb`,
	Version: Version,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "accepted but not read; configuration always comes from .orc/config.yaml")
	rootCmd.SetVersionTemplate(fmt.Sprintf("orc version %s\n", Version))
}

func exitError(msg string) {
	fmt.Fprintln(os.Stderr, "Error:", msg)
	os.Exit(1)
}
