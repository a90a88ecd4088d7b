package runner

import "time"

// Result captures the outcome of one audit run. Errors are stored in
// Err/ErrStage rather than returned, so the caller always has something to
// display.
type Result struct {
	Target   string
	Report   string // full rendered report
	Subject  string // derived summary line
	Alerts   int
	Eligible bool
	Notified []string // services notified (or would-notify)
	DryRun   bool
	Duration time.Duration
	Err      error
	ErrStage string // "eligibility", "template", "notify"
}

// Failed reports whether the run should exit nonzero: the target was not a
// domain controller, any field raised an alert, or a pipeline stage errored.
func (r Result) Failed() bool {
	return !r.Eligible || r.Alerts > 0 || r.Err != nil
}
