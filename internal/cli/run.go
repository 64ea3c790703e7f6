package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/sourcegraph/conc"
	"github.com/spf13/cobra"

	"github.com/arcflow-dev/orc/internal/audit"
	"github.com/arcflow-dev/orc/internal/config"
	"github.com/arcflow-dev/orc/internal/display"
	"github.com/arcflow-dev/orc/internal/model"
	"github.com/arcflow-dev/orc/internal/orchestrator"
	"github.com/arcflow-dev/orc/internal/planparser"
	"github.com/arcflow-dev/orc/internal/worker"
)

var (
	runPhase         string
	runDryRun        bool
	runModel         string
	runOutput        string
	runNoInteractive bool
)

var runCmd = &cobra.Command{
	Use:   "run <master-plan.md>",
	Short: "Start orchestrating a master plan",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		masterPlanPath := args[0]

		if runDryRun {
			return dryRun(masterPlanPath)
		}

		if err := worker.CheckInstalled(""); err != nil {
			return err
		}

		cfg, store, cwd, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		if runModel != "" {
			cfg.Model = runModel
		}
		if runOutput != "" {
			cfg.Output = runOutput
		}
		if runNoInteractive {
			cfg.Interactive = false
		}

		disp := display.New()
		notifier := buildNotifier(cfg)

		orch := orchestrator.New(cwd, cfg, store, notifier, disp)
		plan, err := orch.LoadPlan(masterPlanPath)
		if err != nil {
			return err
		}
		printBanner(plan, cfg)

		if runPhase != "" {
			fmt.Printf("Starting from phase: %s\n\n", runPhase)
		}

		// A WaitGroup lets the orchestration run alongside SIGINT/SIGTERM
		// handling; an interrupt cancels ctx and the run loop writes a
		// Paused status instead of leaving a Running row orphaned.
		ctx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stopSignals()

		var runID string
		var runErr error
		var wg conc.WaitGroup
		wg.Go(func() {
			runID, runErr = orch.Run(ctx, masterPlanPath, orchestrator.RunOptions{
				StartPhase: runPhase,
			})
		})
		wg.Wait()

		if ctx.Err() != nil {
			color.New(color.FgYellow, color.Bold).Printf("\nOrchestration paused (run %s). Resume with: orc resume\n", runID)
			return nil
		}
		if runErr != nil {
			color.New(color.FgRed, color.Bold).Printf("\nOrchestration failed: %v\n", runErr)
			os.Exit(1)
		}

		color.New(color.FgGreen, color.Bold).Printf("\nOrchestration completed. Run ID: %s\n", runID)
		if cfg.Output == "file" || cfg.Output == "both" {
			fmt.Printf("Session logs saved to: .orc/sessions/%s/\n", runID)
		}
		return nil
	},
}

func init() {
	runCmd.Flags().StringVarP(&runPhase, "phase", "p", "", "start from specific phase ID")
	runCmd.Flags().BoolVarP(&runDryRun, "dry-run", "n", false, "parse and validate only, don't execute")
	runCmd.Flags().StringVarP(&runModel, "model", "m", "", "worker model: haiku, sonnet, opus")
	runCmd.Flags().StringVarP(&runOutput, "output", "o", "", "output mode: terminal, file, both")
	runCmd.Flags().BoolVar(&runNoInteractive, "no-interactive", false, "disable interactive dashboard (for CI/automation)")
	runCmd.Flags().BoolVar(&runNoInteractive, "yolo", false, "alias for --no-interactive")
	rootCmd.AddCommand(runCmd)
}

func printBanner(plan *model.MasterPlan, cfg *config.Config) {
	bold := color.New(color.Bold).SprintFunc()
	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()

	fmt.Println(cyan("orc"))
	fmt.Printf("  %-40s %s\n", bold("Plan: ")+plan.Name, bold("Model: ")+cfg.Model)
	fmt.Printf("  %-40s %s\n", bold("Phases: ")+fmt.Sprint(len(plan.Phases)), bold("Retries: ")+fmt.Sprint(cfg.MaxRetries))
	fmt.Printf("  %-40s %s\n", bold("Output: ")+cfg.Output, bold("Timeout: ")+fmt.Sprintf("%dmin", cfg.Timeout/60))

	mode := color.New(color.FgGreen).Sprint("Interactive")
	if !cfg.Interactive {
		mode = color.New(color.FgYellow).Sprint("YOLO")
	}
	fmt.Printf("  %s %s\n\n", bold("Mode:"), mode)

	for _, phase := range plan.Phases {
		deps := "-"
		if len(phase.DependsOn) > 0 {
			deps = fmt.Sprint(phase.DependsOn)
		}
		fmt.Printf("  %-6s %-25s %-12s %s\n", phase.ID, display.Truncate(phase.Title, 24), phase.Status.String(), deps)
	}
	fmt.Println()
}

func dryRun(masterPlanPath string) error {
	fmt.Println("Dry Run - Parsing and Validating")
	fmt.Println()

	a := audit.New()
	result := a.Audit(masterPlanPath)

	plan, err := planparser.ParseMasterPlan(masterPlanPath)
	if err != nil {
		color.New(color.FgRed).Printf("Validation failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Name: %s\n", plan.Name)
	fmt.Printf("Phases: %d\n\n", len(plan.Phases))

	fmt.Printf("%-6s %-30s %-12s %-20s %s\n", "ID", "Title", "Status", "Dependencies", "Gates")
	for _, phase := range plan.Phases {
		deps := "-"
		if len(phase.DependsOn) > 0 {
			deps = fmt.Sprintf("%v", phase.DependsOn)
		}
		gatesCount := 0
		if _, statErr := os.Stat(phase.Path); statErr == nil {
			if detailed, parseErr := planparser.ParsePhase(phase.Path, phase.ID); parseErr == nil {
				gatesCount = len(detailed.Gates)
			}
		}
		fmt.Printf("%-6s %-30s %-12s %-20s %d\n", phase.ID, phase.Title, phase.Status.String(), deps, gatesCount)
	}

	fmt.Println()
	for _, issue := range result.Issues {
		fmt.Printf("[%s] %s: %s\n", issue.Severity, issue.Code, issue.Message)
	}

	if !result.Passed {
		color.New(color.FgRed).Printf("\nValidation failed: %d error(s)\n", result.Summary.Errors)
		os.Exit(1)
	}
	color.New(color.FgGreen).Println("\nValidation passed")
	return nil
}
