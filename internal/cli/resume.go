package cli

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/arcflow-dev/orc/internal/display"
	"github.com/arcflow-dev/orc/internal/model"
	"github.com/arcflow-dev/orc/internal/orchestrator"
)

var resumeCmd = &cobra.Command{
	Use:   "resume",
	Short: "Resume a paused or interrupted orchestration run",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, store, cwd, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		ctx := context.Background()
		run, err := store.GetCurrentRun(ctx)
		if err != nil {
			return err
		}
		if run == nil {
			color.New(color.FgYellow).Println("No paused orchestration run found")
			return nil
		}
		if run.Status != model.RunStatusRunning && run.Status != model.RunStatusPaused {
			color.New(color.FgYellow).Printf("Run %s is not resumable (status: %s)\n", run.ID, run.Status)
			return nil
		}

		color.New(color.FgBlue).Printf("Resuming run %s\n", run.ID)

		disp := display.New()
		notifier := buildNotifier(cfg)
		orch := orchestrator.New(cwd, cfg, store, notifier, disp)

		runID, err := orch.Resume(ctx)
		if err != nil {
			color.New(color.FgRed).Printf("Resume failed: %v\n", err)
			return err
		}
		fmt.Printf("Run %s resumed and finished.\n", runID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(resumeCmd)
}
