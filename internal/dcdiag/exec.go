package dcdiag

import (
	"context"
	"time"

	"github.com/dchealth/dchealth/internal/execx"
)

// DefaultTimeout bounds a full dcdiag batch run.
const DefaultTimeout = 2 * time.Minute

// ExecRunner invokes the dcdiag tool against a target host.
type ExecRunner struct {
	Path    string
	Timeout time.Duration
}

// NewExecRunner creates an ExecRunner for the given dcdiag binary path.
// An empty path defaults to "dcdiag" on PATH.
func NewExecRunner(path string, timeout time.Duration) *ExecRunner {
	if path == "" {
		path = "dcdiag"
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &ExecRunner{Path: path, Timeout: timeout}
}

// Run executes the fixed test battery against target and returns the raw
// output. dcdiag exits non-zero when a sub-test fails; that output is still
// returned for parsing. Only a failure to produce output at all (missing
// tool, timeout) is an error.
func (r *ExecRunner) Run(ctx context.Context, target string) (string, error) {
	args := []string{"/s:" + target}
	for _, name := range TestNames {
		args = append(args, "/test:"+name)
	}

	result, err := execx.Run(ctx, r.Timeout, r.Path, args...)
	if err != nil {
		return "", err
	}
	return result.Stdout, nil
}
