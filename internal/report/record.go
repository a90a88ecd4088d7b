// Package report holds one audit run's fixed-shape result record and the
// pure classification, rendering, and tallying stages that turn it into the
// final report text.
package report

import "time"

// Record is the aggregate outcome of one audit run. Every field is written
// exactly once by its probe during collection and read exactly once during
// rendering; the struct is never mutated afterwards.
type Record struct {
	Server    string
	Site      string
	OSVersion string
	Roles     string

	DNSCheck    string
	UptimeHours string

	FreeSpaceOS   int
	FreeSpaceNTDS int

	SvcDNS      string
	SvcNTDS     string
	SvcNetlogon string

	DiagConnectivity string
	DiagAdvertising  string
	DiagReplications string
	DiagServices     string
	DiagFsmoCheck    string

	ReplFailures    string
	LastReplication string
	DCCount         string
	DomainLevel     string
	ForestLevel     string

	Elapsed time.Duration
}
