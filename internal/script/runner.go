// Package script executes external tool scripts as subprocesses.
package script

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
)

// Runner executes tool scripts under an interpreter with a bounded timeout.
type Runner struct {
	interpreter string
}

// NewRunner creates a runner for the given interpreter, e.g. "python3".
func NewRunner(interpreter string) *Runner {
	return &Runner{interpreter: interpreter}
}

// Run executes the script with the given arguments and returns its stdout
// parsed as JSON. A non-zero exit reports stderr; exceeding the timeout
// reports a timeout error. The process inherits the gateway's environment,
// which the scripts need for backend and inference URLs.
func (r *Runner) Run(ctx context.Context, timeout time.Duration, scriptPath string, args ...string) (json.RawMessage, error) {
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	argv := append([]string{scriptPath}, args...)
	cmd := exec.CommandContext(runCtx, r.interpreter, argv...)
	cmd.Env = os.Environ()

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if runCtx.Err() == context.DeadlineExceeded {
		return nil, fmt.Errorf("script timed out after %s", timeout)
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			msg := strings.TrimSpace(stderr.String())
			if msg == "" {
				msg = err.Error()
			}
			return nil, fmt.Errorf("script exited with status %d: %s", exitErr.ExitCode(), msg)
		}
		return nil, fmt.Errorf("failed to run script: %w", err)
	}

	out := bytes.TrimSpace(stdout.Bytes())
	if !json.Valid(out) {
		return nil, fmt.Errorf("script produced non-JSON output: %s", truncate(string(out), 200))
	}
	return json.RawMessage(out), nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
