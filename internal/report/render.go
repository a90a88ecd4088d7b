package report

import (
	"fmt"
	"strings"
)

// labelWidth is the fixed column the labels are padded to so values align.
const labelWidth = 22

// Render formats the classified fields into the final report text, one line
// per field in the order Classify produced them.
func Render(fields []Field) string {
	var b strings.Builder
	for _, f := range fields {
		line := fmt.Sprintf("%-*s: %s", labelWidth, f.Label, f.Display)
		if f.Alert {
			line += " " + AlertMarker
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String()
}
