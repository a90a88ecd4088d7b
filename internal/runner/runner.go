package runner

import (
	"context"
	"log/slog"
	"time"

	"github.com/dchealth/dchealth/internal/config"
	"github.com/dchealth/dchealth/internal/dcdiag"
	"github.com/dchealth/dchealth/internal/dsquery"
	"github.com/dchealth/dchealth/internal/notify"
	"github.com/dchealth/dchealth/internal/probe"
	"github.com/dchealth/dchealth/internal/report"
	"github.com/dchealth/dchealth/internal/wmi"
)

// Runner orchestrates the collect → classify → render → notify pipeline.
type Runner struct {
	cfg    *config.Config
	logger *slog.Logger

	// Battery is exposed so tests can substitute probe fakes.
	Battery *probe.Battery
}

// New creates a Runner wired to the external tools named in the config.
func New(cfg *config.Config, logger *slog.Logger) *Runner {
	timeout, err := time.ParseDuration(cfg.Options.Timeout)
	if err != nil || timeout <= 0 {
		timeout = wmi.DefaultTimeout
	}

	source := wmi.NewClient(toolPath(cfg.Tools.Wmic, "wmic"), toolPath(cfg.Tools.Ping, "ping"), timeout)
	dir := dsquery.NewClient(
		toolPath(cfg.Tools.Dsquery, "dsquery"),
		toolPath(cfg.Tools.Netdom, "netdom"),
		toolPath(cfg.Tools.Repadmin, "repadmin"),
		timeout,
	)

	// The diagnostic batch runs many tests back to back, so it gets a
	// longer leash than single-tool probes.
	diagTimeout := timeout
	if diagTimeout < dcdiag.DefaultTimeout {
		diagTimeout = dcdiag.DefaultTimeout
	}

	battery := &probe.Battery{
		Source:    source,
		Dir:       dir,
		Diag:      dcdiag.NewExecRunner(toolPath(cfg.Tools.Dcdiag, "dcdiag"), diagTimeout),
		DNS:       probe.NewDNSProbe(cfg.Nameserver, timeout),
		OSDrive:   cfg.Options.OSDrive,
		NTDSDrive: cfg.Options.NTDSDrive,
		Log:       logger,
	}

	return &Runner{cfg: cfg, logger: logger, Battery: battery}
}

func toolPath(configured, fallback string) string {
	if configured != "" {
		return configured
	}
	return fallback
}

// Run executes a full audit of the configured target.
func (r *Runner) Run(ctx context.Context, dryRun bool) Result {
	target := r.cfg.Target
	log := r.logger.With("target", target)
	start := time.Now()

	result := Result{
		Target: target,
		DryRun: dryRun,
	}

	// Stage 1: Eligibility. A target that is not a known domain controller
	// gets no report at all.
	log.Info("checking eligibility")
	if !r.Battery.Eligible(ctx, target) {
		result.ErrStage = "eligibility"
		result.Duration = time.Since(start)
		log.Error("target is not a domain controller", "duration", result.Duration)
		return result
	}
	result.Eligible = true

	// Stage 2: Collect. The battery always returns a complete record, so
	// there is no error path here.
	log.Info("collecting probes")
	rec := r.Battery.Collect(ctx, target)

	// Stage 3: Classify, render, tally. The alert count comes from the
	// rendered text, not the classification, so what the reader sees is
	// what gets counted.
	fields := report.Classify(rec)
	result.Report = report.Render(fields)
	result.Alerts = report.Tally(result.Report)
	result.Subject = report.Subject(result.Alerts)
	log.Info("report ready", "alerts", result.Alerts)

	// Stage 4: Resolve notification targets.
	data := notify.BuildTemplateData(target, result.Subject, result.Report, result.Alerts)
	targets, err := notify.ResolveTargets(r.cfg.Notify, r.cfg.Services, data)
	if err != nil {
		result.Err = err
		result.ErrStage = "template"
		result.Duration = time.Since(start)
		log.Error("template failed", "error", err)
		return result
	}

	// Stage 5: Send. The report goes out whether or not anything alerted;
	// a clean report is itself a signal that the audit ran.
	for _, t := range targets {
		if dryRun {
			if err := notify.Validate(t); err != nil {
				result.Err = err
				result.ErrStage = "notify"
				result.Duration = time.Since(start)
				log.Error("notify validation failed (dry-run)", "service", t.ServiceName, "error", err)
				return result
			}
			result.Notified = append(result.Notified, t.ServiceName)
			log.Debug("would notify (dry-run)", "service", t.ServiceName)
			continue
		}

		log.Info("sending notification", "service", t.ServiceName)
		if err := notify.Send(t); err != nil {
			result.Err = err
			result.ErrStage = "notify"
			result.Duration = time.Since(start)
			log.Error("notify failed", "service", t.ServiceName, "error", err)
			return result
		}
		result.Notified = append(result.Notified, t.ServiceName)
	}

	result.Duration = time.Since(start)
	log.Info("audit complete", "alerts", result.Alerts, "notified", len(result.Notified), "duration", result.Duration)
	return result
}
