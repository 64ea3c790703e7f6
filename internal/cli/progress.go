package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	progressPhase string
	progressStep  string
)

var progressCmd = &cobra.Command{
	Use:   "progress",
	Short: "Log progress during execution (for stuck detection)",
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

		if err := store.LogProgress(ctx, run.ID, progressPhase, progressStep); err != nil {
			return err
		}
		fmt.Printf("Progress logged: %s - %s\n", progressPhase, progressStep)
		return nil
	},
}

func init() {
	progressCmd.Flags().StringVarP(&progressPhase, "phase", "p", "", "phase ID")
	progressCmd.Flags().StringVarP(&progressStep, "step", "s", "", "step name (e.g. 'implementation:started')")
	_ = progressCmd.MarkFlagRequired("phase")
	_ = progressCmd.MarkFlagRequired("step")
	rootCmd.AddCommand(progressCmd)
}
