// Package worker spawns the worker coding-agent CLI as a subprocess for
// a single phase attempt and streams its stream-json output.
package worker

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/arcflow-dev/orc/internal/checkpoint"
	"github.com/arcflow-dev/orc/internal/model"
	"github.com/arcflow-dev/orc/internal/streamparse"
	"github.com/arcflow-dev/orc/internal/utils"
)

const defaultTimeout = 30 * time.Minute

// Options configures a single worker invocation.
type Options struct {
	ProjectRoot   string
	Command       string // defaults to "claude"
	Model         string // defaults to "sonnet"
	Timeout       time.Duration
	SessionLogDir string // if set, raw JSONL is mirrored to a file here
	Callbacks     streamparse.Callbacks
}

// ExecutionResult is the outcome of running a worker process to
// completion (or until it was killed on timeout).
type ExecutionResult struct {
	Success     bool
	SessionLog  string // raw JSON-lines output, not pretty printed
	ExitCode    int
	Duration    time.Duration
	PID         int
}

// Runner spawns and streams a worker CLI process.
type Runner struct {
	opts Options
}

func New(opts Options) *Runner {
	if opts.Command == "" {
		opts.Command = "claude"
	}
	opts.Command = utils.ResolveBinaryPath(opts.Command)
	if opts.Model == "" {
		opts.Model = "sonnet"
	}
	if opts.Timeout == 0 {
		opts.Timeout = defaultTimeout
	}
	return &Runner{opts: opts}
}

// ExecutePhase runs the worker against a single prompt, streaming its
// stdout through the stream-json parser and returning the raw session
// log once the process exits or the timeout is reached.
//
// If ctx is canceled by the caller before the process would otherwise
// exit (distinct from ExecutePhase's own timeout firing), the worker is
// killed and the result's SessionLog is prefixed with
// checkpoint.Sentinel so the orchestrator's restart loop recognizes a
// cooperative stop rather than a real failure. Callers that want
// context-budget restarts derive a cancelable context and cancel it
// from a token-stats/tool-use callback once the budget estimator trips.
func (r *Runner) ExecutePhase(ctx context.Context, prompt string) (*ExecutionResult, error) {
	start := time.Now()

	runCtx, cancel := context.WithTimeout(ctx, r.opts.Timeout)
	defer cancel()

	args := []string{
		"--print", "--verbose",
		"--output-format", "stream-json",
		"--dangerously-skip-permissions",
		"--model", r.opts.Model,
		"-p", prompt,
	}

	cmd := exec.CommandContext(runCtx, r.opts.Command, args...)
	cmd.Dir = r.opts.ProjectRoot

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("create stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("create stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		if strings.Contains(err.Error(), "executable file not found") {
			return nil, workerNotFoundError(r.opts.Command)
		}
		return nil, fmt.Errorf("start worker: %w", err)
	}

	var sessionLog bytes.Buffer
	var debugFile *os.File
	if r.opts.SessionLogDir != "" {
		_ = os.MkdirAll(r.opts.SessionLogDir, 0o755)
		if f, err := os.Create(filepath.Join(r.opts.SessionLogDir, "session.jsonl")); err == nil {
			debugFile = f
			defer debugFile.Close()
		}
	}

	parser := streamparse.New(r.opts.Callbacks, nil)

	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error {
		return streamLines(gctx, stdout, func(line string) {
			sessionLog.WriteString(line)
			sessionLog.WriteByte('\n')
			if debugFile != nil {
				debugFile.WriteString(line + "\n")
			}
			parser.ParseLine(line)
		})
	})
	g.Go(func() error {
		return streamLines(gctx, stderr, func(line string) {
			fmt.Fprintln(os.Stderr, "[ERR] "+line)
		})
	})

	waitErr := g.Wait()
	exitErr := cmd.Wait()

	duration := time.Since(start)

	if runCtx.Err() == context.DeadlineExceeded {
		return &ExecutionResult{
			Success:    false,
			SessionLog: sessionLog.String(),
			ExitCode:   -1,
			Duration:   duration,
			PID:        cmd.Process.Pid,
		}, fmt.Errorf("worker timed out after %s", r.opts.Timeout)
	}
	if ctx.Err() == context.Canceled {
		return &ExecutionResult{
			Success:    false,
			SessionLog: checkpoint.Sentinel + "\n" + sessionLog.String(),
			ExitCode:   -2,
			Duration:   duration,
			PID:        cmd.Process.Pid,
		}, nil
	}
	if waitErr != nil {
		return nil, fmt.Errorf("stream worker output: %w", waitErr)
	}

	exitCode := 0
	success := exitErr == nil
	if ee, ok := exitErr.(*exec.ExitError); ok {
		exitCode = ee.ExitCode()
	} else if exitErr != nil {
		return nil, fmt.Errorf("worker process error: %w", exitErr)
	}

	return &ExecutionResult{
		Success:    success,
		SessionLog: sessionLog.String(),
		ExitCode:   exitCode,
		Duration:   duration,
		PID:        cmd.Process.Pid,
	}, nil
}

func streamLines(ctx context.Context, r io.Reader, onLine func(string)) error {
	scanner := bufio.NewScanner(r)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 4*1024*1024)
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		onLine(scanner.Text())
	}
	return scanner.Err()
}

// CheckInstalled verifies the worker CLI binary is reachable.
func CheckInstalled(command string) error {
	if command == "" {
		command = "claude"
	}
	resolved := utils.ResolveBinaryPath(command)
	if _, err := exec.LookPath(resolved); err == nil {
		return nil
	}
	if _, err := os.Stat(resolved); err == nil {
		return nil
	}
	return workerNotFoundError(command)
}

func workerNotFoundError(command string) error {
	return fmt.Errorf(`%s CLI not found in PATH

Add it to your shell profile, e.g.:
  export PATH="$HOME/.claude/local:$PATH"

or install it in ~/.claude/local, /usr/local/bin or /opt/homebrew/bin`, command)
}

// phaseStatusFromResult maps a raw execution result to the next phase
// status when no explicit completion signal was recorded: Validating on
// success, Failed otherwise.
func phaseStatusFromResult(result *ExecutionResult) model.PhaseStatus {
	if result.Success {
		return model.PhaseStatusValidating
	}
	return model.PhaseStatusFailed
}
