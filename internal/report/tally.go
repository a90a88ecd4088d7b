package report

import (
	"fmt"
	"strings"
)

// Tally counts the rendered lines carrying the alert marker. The count is
// derived from the displayed text rather than from the Alert flags so the
// exit decision always matches what the report shows.
func Tally(rendered string) int {
	count := 0
	for _, line := range strings.Split(rendered, "\n") {
		if strings.Contains(line, AlertMarker) {
			count++
		}
	}
	return count
}

// Subject builds the one-line summary handed to the notifier alongside the
// report body.
func Subject(alerts int) string {
	if alerts > 0 {
		return fmt.Sprintf("Summary: %d Error(s) Detected", alerts)
	}
	return "Summary: No Errors Detected"
}
