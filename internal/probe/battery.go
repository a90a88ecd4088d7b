package probe

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dchealth/dchealth/internal/dcdiag"
	"github.com/dchealth/dchealth/internal/report"
)

// monitoredServices are the services whose state is audited, in report order.
var monitoredServices = [3]string{"DNS", "NTDS", "Netlogon"}

// maxReplAge is how stale the last successful replication may be before the
// probe tags it as failing.
const maxReplAge = 24 * time.Hour

// Battery runs every probe against one target and assembles the result
// record. Probes are independent: each writes only its own record fields, so
// they run concurrently and join before the record is returned.
type Battery struct {
	Source Source
	Dir    Directory
	Diag   DiagRunner
	DNS    NameChecker

	// OSDrive and NTDSDrive are the logical drives whose free space is
	// audited.
	OSDrive   string
	NTDSDrive string

	Log *slog.Logger
}

func (b *Battery) logger() *slog.Logger {
	if b.Log != nil {
		return b.Log
	}
	return slog.Default()
}

// Eligible reports whether the target is a domain controller and therefore
// auditable. An unanswerable directory counts as ineligible.
func (b *Battery) Eligible(ctx context.Context, target string) bool {
	names, err := b.Dir.Controllers(ctx)
	if err != nil {
		return false
	}
	short, _, _ := strings.Cut(target, ".")
	for _, name := range names {
		if strings.EqualFold(name, short) || strings.EqualFold(name, target) {
			return true
		}
	}
	return false
}

// Collect runs the full battery against target and returns the populated
// record. It always returns a complete record; a dead target yields sentinel
// values in every slot.
func (b *Battery) Collect(ctx context.Context, target string) report.Record {
	start := time.Now()
	log := b.logger().With("target", target)

	reachable := b.Source.Reachable(ctx, target)
	if !reachable {
		log.Warn("target unreachable, probes fall back to sentinel values")
	}

	rec := report.Record{Server: target}

	var wg sync.WaitGroup
	run := func(name string, f func()) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			probeStart := time.Now()
			f()
			log.Debug("probe finished", "probe", name, "duration", time.Since(probeStart))
		}()
	}

	run("os", func() { rec.OSVersion, rec.UptimeHours = b.osFacts(ctx, target, reachable) })
	run("dns", func() { rec.DNSCheck = b.DNS.Check(ctx, target) })
	run("freespace_os", func() { rec.FreeSpaceOS = b.freeSpace(ctx, target, b.OSDrive, reachable) })
	run("freespace_ntds", func() { rec.FreeSpaceNTDS = b.freeSpace(ctx, target, b.NTDSDrive, reachable) })
	run("services", func() { rec.SvcDNS, rec.SvcNTDS, rec.SvcNetlogon = b.services(ctx, target, reachable) })
	run("dcdiag", func() { b.diag(ctx, target, reachable, &rec) })
	run("site", func() { rec.Site = b.site(ctx, target) })
	run("roles", func() { rec.Roles = b.roles(ctx, target) })
	run("replication", func() { rec.ReplFailures, rec.LastReplication = b.replication(ctx, target) })
	run("dccount", func() { rec.DCCount = b.dcCount(ctx) })
	run("levels", func() { rec.DomainLevel, rec.ForestLevel = b.levels(ctx, target, reachable) })

	wg.Wait()
	rec.Elapsed = time.Since(start)
	return rec
}

func (b *Battery) osFacts(ctx context.Context, target string, reachable bool) (version, uptime string) {
	if !reachable {
		return "Unknown", SentinelZero
	}
	info, err := b.Source.OS(ctx, target)
	if err != nil {
		return SentinelWMI, SentinelZero
	}
	hours := int(time.Since(info.LastBoot).Hours())
	if hours < 0 {
		hours = 0
	}
	return info.Caption, strconv.Itoa(hours)
}

func (b *Battery) freeSpace(ctx context.Context, target, drive string, reachable bool) int {
	if !reachable {
		return 0
	}
	pct, err := b.Source.DiskFreePercent(ctx, target, drive)
	if err != nil {
		return 0
	}
	return pct
}

func (b *Battery) services(ctx context.Context, target string, reachable bool) (dnsSvc, ntds, netlogon string) {
	states := [len(monitoredServices)]string{}
	for i, name := range monitoredServices {
		states[i] = b.serviceState(ctx, target, name, reachable)
	}
	return states[0], states[1], states[2]
}

func (b *Battery) serviceState(ctx context.Context, target, name string, reachable bool) string {
	if !reachable {
		return SentinelFail
	}
	state, err := b.Source.ServiceState(ctx, target, name)
	if err != nil {
		return SentinelWMI
	}
	if state != "Running" {
		return SentinelFail
	}
	return "OK"
}

func (b *Battery) diag(ctx context.Context, target string, reachable bool, rec *report.Record) {
	verdicts := dcdiag.Unreachable()
	if reachable {
		out, err := b.Diag.Run(ctx, target)
		if err == nil {
			verdicts = dcdiag.Parse(out)
		}
	}

	get := func(name string) string {
		if v, ok := verdicts[name]; ok {
			return string(v)
		}
		return string(dcdiag.Unknown)
	}
	rec.DiagConnectivity = get("Connectivity")
	rec.DiagAdvertising = get("Advertising")
	rec.DiagReplications = get("Replications")
	rec.DiagServices = get("Services")
	rec.DiagFsmoCheck = get("FsmoCheck")
}

func (b *Battery) site(ctx context.Context, target string) string {
	site, err := b.Dir.Site(ctx, target)
	if err != nil {
		return "Unknown"
	}
	return site
}

func (b *Battery) roles(ctx context.Context, target string) string {
	roles, err := b.Dir.Roles(ctx, target)
	if err != nil {
		return "Unknown"
	}
	if len(roles) == 0 {
		return "None"
	}
	return strings.Join(roles, ", ")
}

func (b *Battery) replication(ctx context.Context, target string) (failures, last string) {
	summary, err := b.Dir.ReplicationSummary(ctx, target)
	if err != nil {
		return SentinelWMI, SentinelWMI
	}

	failures = fmt.Sprintf("%d %s", summary.Failures, tag(summary.Failures == 0))

	if summary.LastSuccess.IsZero() {
		return failures, "Never " + tag(false)
	}
	fresh := time.Since(summary.LastSuccess) <= maxReplAge
	last = summary.LastSuccess.Format("2006-01-02 15:04") + " " + tag(fresh)
	return failures, last
}

func (b *Battery) dcCount(ctx context.Context) string {
	names, err := b.Dir.Controllers(ctx)
	if err != nil {
		return SentinelWMI
	}
	return fmt.Sprintf("%d %s", len(names), tag(len(names) >= 1))
}

func (b *Battery) levels(ctx context.Context, target string, reachable bool) (domain, forest string) {
	var release string
	if reachable {
		if info, err := b.Source.OS(ctx, target); err == nil {
			release = osRelease(info.Caption)
		}
	}

	domain = b.levelField(ctx, release, b.Dir.DomainLevel)
	forest = b.levelField(ctx, release, b.Dir.ForestLevel)
	return domain, forest
}

func (b *Battery) levelField(ctx context.Context, release string, query func(context.Context) (string, error)) string {
	level, err := query(ctx)
	if err != nil {
		return SentinelWMI
	}
	return levelVerdict(level, release)
}
