// Package gates runs a phase's validation gates as shell commands and
// reports pass/fail with captured output.
package gates

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"time"

	"github.com/arcflow-dev/orc/internal/model"
)

const defaultTimeout = 300 * time.Second

// Runner executes gate commands inside a working directory.
type Runner struct {
	WorkDir string
	Timeout time.Duration
}

func New(workDir string) *Runner {
	return &Runner{WorkDir: workDir, Timeout: defaultTimeout}
}

// RunGates runs every gate in order, stopping at the first blocking
// failure. It returns the results gathered so far.
func (r *Runner) RunGates(ctx context.Context, gates []model.Gate) []model.GateResult {
	var results []model.GateResult
	for _, gate := range gates {
		result := r.runSingleGate(ctx, gate)
		results = append(results, result)
		if !result.Passed && gate.Blocking {
			break
		}
	}
	return results
}

// RunSingleGateByName finds and runs one gate by name.
func (r *Runner) RunSingleGateByName(ctx context.Context, gates []model.Gate, name string) (model.GateResult, error) {
	for _, gate := range gates {
		if gate.Name == name {
			return r.runSingleGate(ctx, gate), nil
		}
	}
	return model.GateResult{}, fmt.Errorf("gate not found: %s", name)
}

// VerifyAllGatesPass reports whether every gate result passed.
func VerifyAllGatesPass(results []model.GateResult) bool {
	for _, r := range results {
		if !r.Passed {
			return false
		}
	}
	return true
}

func (r *Runner) runSingleGate(ctx context.Context, gate model.Gate) model.GateResult {
	timeout := r.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, "sh", "-c", gate.Command)
	cmd.Dir = r.WorkDir

	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output

	err := cmd.Run()
	executedAt := time.Now().UTC()

	if runCtx.Err() == context.DeadlineExceeded {
		return model.GateResult{
			Name:       gate.Name,
			Command:    gate.Command,
			Passed:     false,
			Output:     fmt.Sprintf("TIMEOUT after %d seconds", int(timeout.Seconds())),
			ExecutedAt: executedAt,
		}
	}

	if err != nil {
		if _, ok := err.(*exec.ExitError); !ok {
			return model.GateResult{
				Name:       gate.Name,
				Command:    gate.Command,
				Passed:     false,
				Output:     fmt.Sprintf("error executing gate: %v", err),
				ExecutedAt: executedAt,
			}
		}
	}

	return model.GateResult{
		Name:       gate.Name,
		Command:    gate.Command,
		Passed:     err == nil,
		Output:     output.String(),
		ExecutedAt: executedAt,
	}
}
