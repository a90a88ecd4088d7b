package notify

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/Masterminds/sprig/v3"
)

// TemplateData holds all data available to notification templates.
type TemplateData struct {
	// Host is the audited domain controller.
	Host string

	// Status is "ok" or "alert".
	Status string

	// Alerts is the number of flagged fields in the report.
	Alerts int

	// Subject is the derived summary line.
	Subject string

	// Report is the full rendered report body.
	Report string
}

// DefaultTemplate is the message body used when a notify target declares no
// template of its own: the report text verbatim.
const DefaultTemplate = "{{ .Report }}"

// BuildTemplateData constructs template data from an audit outcome.
func BuildTemplateData(host, subject, report string, alerts int) TemplateData {
	status := "ok"
	if alerts > 0 {
		status = "alert"
	}
	return TemplateData{
		Host:    host,
		Status:  status,
		Alerts:  alerts,
		Subject: subject,
		Report:  report,
	}
}

// Render executes a Go text/template string with Sprig functions against the
// template data.
func Render(tmplStr string, data TemplateData) (string, error) {
	t, err := template.New("notify").Funcs(sprig.TxtFuncMap()).Parse(tmplStr)
	if err != nil {
		return "", fmt.Errorf("parsing template: %w", err)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("executing template: %w", err)
	}

	return buf.String(), nil
}
