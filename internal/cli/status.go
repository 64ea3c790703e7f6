package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/arcflow-dev/orc/internal/model"
)

var statusRunID string

var statusColor = map[model.RunStatus]color.Attribute{
	model.RunStatusRunning:   color.FgBlue,
	model.RunStatusCompleted: color.FgGreen,
	model.RunStatusFailed:    color.FgRed,
	model.RunStatusPaused:    color.FgYellow,
}

var phaseColor = map[model.PhaseStatus]color.Attribute{
	model.PhaseStatusPending:       color.FgHiBlack,
	model.PhaseStatusRunning:       color.FgBlue,
	model.PhaseStatusValidating:    color.FgCyan,
	model.PhaseStatusCompleted:     color.FgGreen,
	model.PhaseStatusFailed:        color.FgRed,
	model.PhaseStatusBlocked:       color.FgYellow,
	model.PhaseStatusAwaitingHuman: color.FgMagenta,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show current orchestration status",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, store, _, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		ctx := context.Background()
		var run *model.Run
		if statusRunID != "" {
			run, err = store.GetRun(ctx, statusRunID)
		} else {
			run, err = store.GetCurrentRun(ctx)
		}
		if err != nil {
			return err
		}
		if run == nil {
			color.New(color.FgYellow).Println("No orchestration run found")
			return nil
		}

		c := color.New(statusColor[run.Status])
		fmt.Printf("\nRun %s\n", run.ID)
		fmt.Printf("  Status: %s\n", c.Sprint(run.Status))
		fmt.Printf("  Plan: %s\n", filepath.Base(run.MasterPlanPath))
		fmt.Printf("  Started: %s\n", run.StartedAt.Format("2006-01-02 15:04:05"))
		if run.CompletedAt != nil {
			fmt.Printf("  Completed: %s\n", run.CompletedAt.Format("2006-01-02 15:04:05"))
		}
		if run.CurrentPhase != "" {
			fmt.Printf("  Current Phase: %s\n", run.CurrentPhase)
		}

		executions, err := store.ListPhaseExecutions(ctx, run.ID)
		if err != nil {
			return err
		}
		if len(executions) > 0 {
			fmt.Println("\nPhase Executions")
			fmt.Printf("%-10s %-8s %-16s %s\n", "Phase", "Attempt", "Status", "Duration")
			for _, pe := range executions {
				pc := color.New(phaseColor[pe.Status])
				duration := ""
				if pe.StartedAt != nil && pe.CompletedAt != nil {
					duration = pe.CompletedAt.Sub(*pe.StartedAt).Round(1e8).String()
				}
				fmt.Printf("%-10s %-8d %-16s %s\n", pe.PhaseID, pe.Attempt, pc.Sprint(pe.Status), duration)
			}
		}
		return nil
	},
}

func init() {
	statusCmd.Flags().StringVarP(&statusRunID, "run", "r", "", "specific run ID to check")
	rootCmd.AddCommand(statusCmd)
}
