package report

import (
	"fmt"
	"strconv"
	"strings"
)

// AlertMarker is the fixed substring appended to a failing line. The tally
// stage re-scans rendered text for it, so the marker is the single source of
// truth for the overall verdict.
const AlertMarker = "<-------------------- ALERT"

// failKeyword triggers the binary rule, matched case-insensitively.
const failKeyword = "fail"

// freeSpaceAlertPct is the threshold below which a drive's free-space
// percentage raises an alert. Exactly this value does not alert.
const freeSpaceAlertPct = 5

// Field is one classified line of the report.
type Field struct {
	Label   string
	Display string
	Alert   bool
}

// Binary applies the binary rule: any value containing the failing keyword
// alerts. The display is the raw value unchanged, so distinct sentinels
// ("Fail", "WMI Failure", a pre-tagged "3 Failure") stay distinguishable in
// the report while sharing one alert mechanism.
func Binary(value string) (string, bool) {
	return value, strings.Contains(strings.ToLower(value), failKeyword)
}

// Percent applies the threshold rule to a free-space percentage.
func Percent(v int) (string, bool) {
	return strconv.Itoa(v) + "%", v < freeSpaceAlertPct
}

// Classify maps a Record to the report's fields in fixed order. Identity
// fields (server, site, OS version, roles, uptime, processing time) pass
// through unclassified; everything else goes through the binary or threshold
// rule.
func Classify(rec Record) []Field {
	passthrough := func(label, value string) Field {
		return Field{Label: label, Display: value}
	}
	binary := func(label, value string) Field {
		display, alert := Binary(value)
		return Field{Label: label, Display: display, Alert: alert}
	}
	percent := func(label string, v int) Field {
		display, alert := Percent(v)
		return Field{Label: label, Display: display, Alert: alert}
	}

	return []Field{
		passthrough("Server Name", rec.Server),
		passthrough("AD Site", rec.Site),
		passthrough("OS Version", rec.OSVersion),
		passthrough("FSMO Roles", rec.Roles),
		binary("DNS Check", rec.DNSCheck),
		passthrough("Uptime (hrs)", rec.UptimeHours),
		percent("OS Drive Free", rec.FreeSpaceOS),
		percent("NTDS Drive Free", rec.FreeSpaceNTDS),
		binary("DNS Service", rec.SvcDNS),
		binary("NTDS Service", rec.SvcNTDS),
		binary("Netlogon Service", rec.SvcNetlogon),
		binary("DCDIAG: Connectivity", rec.DiagConnectivity),
		binary("DCDIAG: Advertising", rec.DiagAdvertising),
		binary("DCDIAG: Replications", rec.DiagReplications),
		binary("DCDIAG: Services", rec.DiagServices),
		binary("DCDIAG: FsmoCheck", rec.DiagFsmoCheck),
		binary("Replication Failures", rec.ReplFailures),
		binary("Last Replication", rec.LastReplication),
		binary("DC Count", rec.DCCount),
		binary("Domain Level", rec.DomainLevel),
		binary("Forest Level", rec.ForestLevel),
		passthrough("Processing Time", fmt.Sprintf("%.1fs", rec.Elapsed.Seconds())),
	}
}
