// Package probe implements the audit's check battery. Each probe verifies
// its precondition (target reachable, data source answering) and resolves to
// a definite value: on failure it falls back to a documented sentinel rather
// than returning an error, so every downstream stage treats all probes
// uniformly and a dead target still produces a complete, fully-failing
// report.
package probe

import (
	"context"

	"github.com/dchealth/dchealth/internal/dsquery"
	"github.com/dchealth/dchealth/internal/wmi"
)

// Sentinel values substituted when a probe cannot produce a real result.
// SentinelWMI marks a reachable host whose management channel rejected the
// query, which the report keeps visually distinct from plain unreachability.
const (
	SentinelZero = "0"
	SentinelFail = "Fail"
	SentinelWMI  = "WMI Failure"
)

// Source provides remote host facts over the management channel.
type Source interface {
	Reachable(ctx context.Context, host string) bool
	OS(ctx context.Context, host string) (wmi.OSInfo, error)
	DiskFreePercent(ctx context.Context, host, drive string) (int, error)
	ServiceState(ctx context.Context, host, name string) (string, error)
}

// Directory provides directory-wide facts.
type Directory interface {
	Controllers(ctx context.Context) ([]string, error)
	Site(ctx context.Context, host string) (string, error)
	Roles(ctx context.Context, host string) ([]string, error)
	DomainLevel(ctx context.Context) (string, error)
	ForestLevel(ctx context.Context) (string, error)
	ReplicationSummary(ctx context.Context, host string) (dsquery.ReplSummary, error)
}

// DiagRunner produces the raw diagnostic batch output for a target.
type DiagRunner interface {
	Run(ctx context.Context, target string) (string, error)
}

// NameChecker verifies a target's registration in DNS.
type NameChecker interface {
	Check(ctx context.Context, target string) string
}

// tag renders a probe's self-computed verdict. The binary classification
// rule later keys off the "Failure" suffix.
func tag(ok bool) string {
	if ok {
		return "Passed"
	}
	return "Failure"
}
