package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List past orchestration runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, store, _, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		runs, err := store.ListRuns(context.Background(), historyLimit)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			color.New(color.FgYellow).Println("No orchestration runs found")
			return nil
		}

		fmt.Printf("%-10s %-30s %-12s %-18s %s\n", "Run ID", "Plan", "Status", "Started", "Duration")
		for _, run := range runs {
			c := color.New(statusColor[run.Status])
			duration := ""
			if run.CompletedAt != nil {
				duration = run.CompletedAt.Sub(run.StartedAt).Round(1e9).String()
			}
			fmt.Printf("%-10s %-30s %-12s %-18s %s\n",
				run.ID, filepath.Base(run.MasterPlanPath), c.Sprint(run.Status),
				run.StartedAt.Format("2006-01-02 15:04"), duration)
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "l", 10, "number of runs to show")
	rootCmd.AddCommand(historyCmd)
}
