package probe

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dchealth/dchealth/internal/dsquery"
	"github.com/dchealth/dchealth/internal/report"
	"github.com/dchealth/dchealth/internal/wmi"
)

// fakeSource is a Source whose behavior is driven by its fields.
type fakeSource struct {
	reachable bool
	os        wmi.OSInfo
	osErr     error
	free      map[string]int
	services  map[string]string
	svcErr    error
}

func (f *fakeSource) Reachable(context.Context, string) bool { return f.reachable }

func (f *fakeSource) OS(context.Context, string) (wmi.OSInfo, error) {
	return f.os, f.osErr
}

func (f *fakeSource) DiskFreePercent(_ context.Context, _ string, drive string) (int, error) {
	pct, ok := f.free[drive]
	if !ok {
		return 0, errors.New("no such drive")
	}
	return pct, nil
}

func (f *fakeSource) ServiceState(_ context.Context, _ string, name string) (string, error) {
	if f.svcErr != nil {
		return "", f.svcErr
	}
	return f.services[name], nil
}

type fakeDirectory struct {
	controllers []string
	ctrlErr     error
	site        string
	siteErr     error
	roles       []string
	rolesErr    error
	domainLevel string
	forestLevel string
	levelErr    error
	repl        dsquery.ReplSummary
	replErr     error
}

func (f *fakeDirectory) Controllers(context.Context) ([]string, error) {
	return f.controllers, f.ctrlErr
}
func (f *fakeDirectory) Site(context.Context, string) (string, error)    { return f.site, f.siteErr }
func (f *fakeDirectory) Roles(context.Context, string) ([]string, error) { return f.roles, f.rolesErr }
func (f *fakeDirectory) DomainLevel(context.Context) (string, error) {
	return f.domainLevel, f.levelErr
}
func (f *fakeDirectory) ForestLevel(context.Context) (string, error) {
	return f.forestLevel, f.levelErr
}
func (f *fakeDirectory) ReplicationSummary(context.Context, string) (dsquery.ReplSummary, error) {
	return f.repl, f.replErr
}

type fakeDiag struct {
	output string
	err    error
}

func (f *fakeDiag) Run(context.Context, string) (string, error) { return f.output, f.err }

type fakeDNS struct{ result string }

func (f *fakeDNS) Check(context.Context, string) string { return f.result }

func healthyBattery() *Battery {
	diagOut := ""
	for _, name := range []string{"Connectivity", "Advertising", "Replications", "Services", "FsmoCheck"} {
		diagOut += "   Starting test: " + name + "\n" +
			"      ......................... DC01 passed test " + name + "\n"
	}
	return &Battery{
		Source: &fakeSource{
			reachable: true,
			os: wmi.OSInfo{
				Caption:  "Microsoft Windows Server 2016 Datacenter",
				LastBoot: time.Now().Add(-50 * time.Hour),
			},
			free:     map[string]int{"C:": 50, "D:": 60},
			services: map[string]string{"DNS": "Running", "NTDS": "Running", "Netlogon": "Running"},
		},
		Dir: &fakeDirectory{
			controllers: []string{"DC01", "DC02"},
			site:        "Default-First-Site-Name",
			roles:       []string{"PDC"},
			domainLevel: "2016",
			forestLevel: "2016",
			repl:        dsquery.ReplSummary{Failures: 0, LastSuccess: time.Now().Add(-time.Hour)},
		},
		Diag:      &fakeDiag{output: diagOut},
		DNS:       &fakeDNS{result: "Pass"},
		OSDrive:   "C:",
		NTDSDrive: "D:",
	}
}

func TestCollect_Healthy(t *testing.T) {
	b := healthyBattery()
	rec := b.Collect(context.Background(), "DC01")

	rendered := report.Render(report.Classify(rec))
	if got := report.Tally(rendered); got != 0 {
		t.Errorf("alerts = %d, want 0\nreport:\n%s", got, rendered)
	}
	if rec.FreeSpaceOS != 50 || rec.FreeSpaceNTDS != 60 {
		t.Errorf("free space = %d/%d, want 50/60", rec.FreeSpaceOS, rec.FreeSpaceNTDS)
	}
	if rec.UptimeHours != "50" {
		t.Errorf("uptime = %q, want 50", rec.UptimeHours)
	}
	if rec.DCCount != "2 Passed" {
		t.Errorf("dc count = %q, want 2 Passed", rec.DCCount)
	}
	if rec.Elapsed <= 0 {
		t.Error("elapsed should be set")
	}
}

func TestCollect_UnreachableTarget(t *testing.T) {
	b := healthyBattery()
	b.Source = &fakeSource{reachable: false}
	b.DNS = &fakeDNS{result: SentinelFail}
	b.Dir = &fakeDirectory{
		ctrlErr:  errors.New("no directory"),
		siteErr:  errors.New("no directory"),
		rolesErr: errors.New("no directory"),
		levelErr: errors.New("no directory"),
		replErr:  errors.New("no directory"),
	}

	rec := b.Collect(context.Background(), "DC01")

	// Every probe resolved to its sentinel.
	if rec.UptimeHours != SentinelZero {
		t.Errorf("uptime = %q, want %q", rec.UptimeHours, SentinelZero)
	}
	for _, svc := range []string{rec.SvcDNS, rec.SvcNTDS, rec.SvcNetlogon} {
		if svc != SentinelFail {
			t.Errorf("service state = %q, want %q", svc, SentinelFail)
		}
	}
	for _, diag := range []string{rec.DiagConnectivity, rec.DiagAdvertising, rec.DiagReplications, rec.DiagServices, rec.DiagFsmoCheck} {
		if diag != "Failed" {
			t.Errorf("diag outcome = %q, want Failed", diag)
		}
	}

	rendered := report.Render(report.Classify(rec))
	if !strings.Contains(rendered, "0%") {
		t.Errorf("report missing 0%% free space:\n%s", rendered)
	}
	if got := report.Tally(rendered); got < 9 {
		t.Errorf("alerts = %d, want at least 9\nreport:\n%s", got, rendered)
	}
}

func TestCollect_WMIFailureDistinctFromUnreachable(t *testing.T) {
	b := healthyBattery()
	b.Source = &fakeSource{
		reachable: true,
		osErr:     errors.New("access denied"),
		svcErr:    errors.New("access denied"),
	}

	rec := b.Collect(context.Background(), "DC01")
	if rec.SvcNTDS != SentinelWMI {
		t.Errorf("service state = %q, want %q", rec.SvcNTDS, SentinelWMI)
	}
	if rec.OSVersion != SentinelWMI {
		t.Errorf("os version = %q, want %q", rec.OSVersion, SentinelWMI)
	}

	// Still classified as failing.
	if _, alert := report.Binary(rec.SvcNTDS); !alert {
		t.Error("WMI failure sentinel should alert under the binary rule")
	}
}

func TestCollect_StoppedServiceFails(t *testing.T) {
	b := healthyBattery()
	b.Source.(*fakeSource).services["NTDS"] = "Stopped"

	rec := b.Collect(context.Background(), "DC01")
	if rec.SvcNTDS != SentinelFail {
		t.Errorf("NTDS state = %q, want %q", rec.SvcNTDS, SentinelFail)
	}
	if rec.SvcDNS != "OK" {
		t.Errorf("DNS state = %q, want OK", rec.SvcDNS)
	}
}

func TestCollect_DiagAbsentTestIsUnknown(t *testing.T) {
	b := healthyBattery()
	// Only Connectivity produces a result line.
	b.Diag = &fakeDiag{output: "   Starting test: Connectivity\n" +
		"      ......................... DC01 passed test Connectivity\n" +
		"   Starting test: Advertising\n"}

	rec := b.Collect(context.Background(), "DC01")
	if rec.DiagConnectivity != "Passed" {
		t.Errorf("Connectivity = %q, want Passed", rec.DiagConnectivity)
	}
	if rec.DiagAdvertising != "Unknown" {
		t.Errorf("Advertising = %q, want Unknown", rec.DiagAdvertising)
	}
	// Unknown is reported but does not alert.
	if _, alert := report.Binary(rec.DiagAdvertising); alert {
		t.Error("Unknown should not alert")
	}
}

func TestCollect_StaleReplicationFails(t *testing.T) {
	b := healthyBattery()
	b.Dir.(*fakeDirectory).repl = dsquery.ReplSummary{
		Failures:    0,
		LastSuccess: time.Now().Add(-48 * time.Hour),
	}

	rec := b.Collect(context.Background(), "DC01")
	if !strings.HasSuffix(rec.LastReplication, "Failure") {
		t.Errorf("last replication = %q, want Failure tag", rec.LastReplication)
	}
	if rec.ReplFailures != "0 Passed" {
		t.Errorf("repl failures = %q, want 0 Passed", rec.ReplFailures)
	}
}

func TestCollect_ReplicationFailuresTagged(t *testing.T) {
	b := healthyBattery()
	b.Dir.(*fakeDirectory).repl = dsquery.ReplSummary{
		Failures:    3,
		LastSuccess: time.Now().Add(-time.Hour),
	}

	rec := b.Collect(context.Background(), "DC01")
	if rec.ReplFailures != "3 Failure" {
		t.Errorf("repl failures = %q, want 3 Failure", rec.ReplFailures)
	}
}

func TestCollect_DomainLevelNewerOS(t *testing.T) {
	b := healthyBattery()
	b.Dir.(*fakeDirectory).domainLevel = "2012 R2"
	b.Dir.(*fakeDirectory).forestLevel = "2012 R2"

	rec := b.Collect(context.Background(), "DC01")
	if rec.DomainLevel != "2012 R2 Failure" {
		t.Errorf("domain level = %q, want 2012 R2 Failure", rec.DomainLevel)
	}
}

func TestEligible(t *testing.T) {
	b := healthyBattery()

	if !b.Eligible(context.Background(), "DC01") {
		t.Error("DC01 should be eligible")
	}
	if !b.Eligible(context.Background(), "dc01.corp.example.com") {
		t.Error("FQDN of a known controller should be eligible")
	}
	if b.Eligible(context.Background(), "WS42") {
		t.Error("non-controller should not be eligible")
	}

	b.Dir.(*fakeDirectory).ctrlErr = errors.New("directory down")
	if b.Eligible(context.Background(), "DC01") {
		t.Error("eligibility requires an answering directory")
	}
}
