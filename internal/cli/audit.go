package cli

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/arcflow-dev/orc/internal/audit"
)

var auditCmd = &cobra.Command{
	Use:   "audit <master-plan.md>",
	Short: "Validate a plan's structure without executing it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a := audit.New()
		result := a.Audit(args[0])

		for _, issue := range result.Issues {
			c := color.New(color.FgYellow)
			if issue.Severity == "error" {
				c = color.New(color.FgRed)
			}
			c.Printf("[%s] %s: %s (%s)\n", issue.Severity, issue.Code, issue.Message, issue.Location)
		}

		fmt.Printf("\nPhases found: %d, valid: %d, gates: %d\n",
			result.Summary.PhasesFound, result.Summary.PhasesValid, result.Summary.GatesTotal)
		fmt.Printf("Errors: %d, Warnings: %d\n", result.Summary.Errors, result.Summary.Warnings)

		if !result.Passed {
			os.Exit(1)
		}
		color.New(color.FgGreen).Println("Audit passed")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(auditCmd)
}
