// Package dcdiag runs the dcdiag batch against a domain controller and parses
// its free-form text output into per-test verdicts.
package dcdiag

import (
	"strings"
)

// TestNames are the sub-tests the audit runs, in report order.
var TestNames = []string{"Connectivity", "Advertising", "Replications", "Services", "FsmoCheck"}

// Verdict is the outcome of a single dcdiag sub-test.
type Verdict string

const (
	Passed  Verdict = "Passed"
	Failed  Verdict = "Failed"
	Unknown Verdict = "Unknown"
)

const (
	startMarker  = "Starting test:"
	passedMarker = "passed test"
	failedMarker = "failed test"
)

// Parse scans dcdiag output line by line with a two-slot state machine: a
// "Starting test:" line fills the name slot, a line containing "passed test"
// or "failed test" fills the verdict slot, and whenever both slots are filled
// the pair is emitted and the slots cleared. A later entry for the same test
// name overwrites the earlier one. A start line with no result line before
// end of input emits nothing; callers report such tests as Unknown rather
// than Failed.
func Parse(output string) map[string]Verdict {
	verdicts := make(map[string]Verdict)

	var name string
	var verdict Verdict

	for _, line := range strings.Split(output, "\n") {
		switch {
		case strings.Contains(line, startMarker):
			idx := strings.Index(line, startMarker) + len(startMarker)
			name = strings.TrimSpace(line[idx:])
		case strings.Contains(line, passedMarker):
			verdict = Passed
		case strings.Contains(line, failedMarker):
			verdict = Failed
		}

		if name != "" && verdict != "" {
			verdicts[name] = verdict
			name, verdict = "", ""
		}
	}

	return verdicts
}

// Unreachable returns the degraded outcome for a target that produced no
// dcdiag output at all: every known test is marked Failed.
func Unreachable() map[string]Verdict {
	verdicts := make(map[string]Verdict, len(TestNames))
	for _, name := range TestNames {
		verdicts[name] = Failed
	}
	return verdicts
}
