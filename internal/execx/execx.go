package execx

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"time"
)

// Result holds the captured output of a finished command.
type Result struct {
	Stdout   string
	Stderr   string
	Duration time.Duration
	ExitCode int
}

// Run executes a command and captures its output.
// Non-zero exit codes are captured (not treated as errors), since the
// diagnostic tools exit non-zero when a sub-test fails and their output is
// still the thing we want. Timeouts are treated as errors.
func Run(ctx context.Context, timeout time.Duration, path string, args ...string) (*Result, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, path, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()

	result := &Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}

	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return result, fmt.Errorf("%s timed out after %s", path, timeout)
		}
		if exitErr, ok := err.(*exec.ExitError); ok {
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}
		return result, fmt.Errorf("running %s: %w", path, err)
	}

	return result, nil
}
