package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arcflow-dev/orc/internal/model"
)

var (
	doneOptPhase  string
	doneOptStatus string
	doneOptReason string
	doneOptReport string
)

var doneCmd = &cobra.Command{
	Use:   "done",
	Short: "Signal phase completion (called by the worker)",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, store, _, err := openStore()
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
			exitError("no active orchestration run found")
			return nil
		}

		var report map[string]any
		if doneOptReport != "" {
			if err := json.Unmarshal([]byte(doneOptReport), &report); err != nil {
				exitError("invalid JSON report: " + err.Error())
				return nil
			}
		}

		signal := model.CompletionSignal{
			PhaseID: doneOptPhase,
			Status:  doneOptStatus,
			Reason:  doneOptReason,
			Report:  report,
		}
		if err := store.RecordCompletionSignal(ctx, run.ID, signal); err != nil {
			return err
		}

		fmt.Printf("Completion signal recorded for phase %s\n", doneOptPhase)
		fmt.Printf("  Status: %s\n", doneOptStatus)
		if doneOptReason != "" {
			fmt.Printf("  Reason: %s\n", doneOptReason)
		}
		return nil
	},
}

func init() {
	doneCmd.Flags().StringVarP(&doneOptPhase, "phase", "p", "", "phase ID that completed")
	doneCmd.Flags().StringVarP(&doneOptStatus, "status", "s", "completed", "completion status: completed, blocked, failed")
	doneCmd.Flags().StringVarP(&doneOptReason, "reason", "r", "", "reason for blocked/failed status")
	doneCmd.Flags().StringVar(&doneOptReport, "report", "", "JSON completion report")
	_ = doneCmd.MarkFlagRequired("phase")
	rootCmd.AddCommand(doneCmd)
}
