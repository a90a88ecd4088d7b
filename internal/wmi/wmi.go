// Package wmi queries remote host facts over the Windows management
// instrumentation channel by shelling out to wmic. Callers distinguish a host
// that cannot be contacted at all (Reachable returns false) from a host that
// answers ping but rejects the management query (the query methods return an
// error).
package wmi

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dchealth/dchealth/internal/execx"
)

// DefaultTimeout bounds a single remote query.
const DefaultTimeout = 30 * time.Second

// OSInfo holds the operating-system facts of a remote host.
type OSInfo struct {
	Caption  string
	Version  string
	LastBoot time.Time
}

// Client runs wmic queries against remote hosts.
type Client struct {
	WmicPath string
	PingPath string
	Timeout  time.Duration
}

// NewClient creates a Client. Empty paths default to the bare tool names on
// PATH.
func NewClient(wmicPath, pingPath string, timeout time.Duration) *Client {
	if wmicPath == "" {
		wmicPath = "wmic"
	}
	if pingPath == "" {
		pingPath = "ping"
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{WmicPath: wmicPath, PingPath: pingPath, Timeout: timeout}
}

// Reachable reports whether the host answers a single echo request.
func (c *Client) Reachable(ctx context.Context, host string) bool {
	result, err := execx.Run(ctx, c.Timeout, c.PingPath, "-n", "1", host)
	return err == nil && result.ExitCode == 0
}

// OS returns the remote host's operating-system facts.
func (c *Client) OS(ctx context.Context, host string) (OSInfo, error) {
	fields, err := c.query(ctx, host, "os", "get", "Caption,Version,LastBootUpTime", "/format:list")
	if err != nil {
		return OSInfo{}, err
	}

	info := OSInfo{
		Caption: fields["Caption"],
		Version: fields["Version"],
	}
	if raw, ok := fields["LastBootUpTime"]; ok {
		boot, err := parseCIMTime(raw)
		if err != nil {
			return OSInfo{}, fmt.Errorf("os query for %s: %w", host, err)
		}
		info.LastBoot = boot
	}
	return info, nil
}

// DiskFreePercent returns the free-space percentage of the given logical
// drive on the remote host, rounded down.
func (c *Client) DiskFreePercent(ctx context.Context, host, drive string) (int, error) {
	where := fmt.Sprintf("DeviceID='%s'", drive)
	fields, err := c.query(ctx, host, "logicaldisk", "where", where, "get", "Size,FreeSpace", "/format:list")
	if err != nil {
		return 0, err
	}

	size, err := strconv.ParseUint(fields["Size"], 10, 64)
	if err != nil || size == 0 {
		return 0, fmt.Errorf("disk query for %s %s: bad size %q", host, drive, fields["Size"])
	}
	free, err := strconv.ParseUint(fields["FreeSpace"], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("disk query for %s %s: bad free space %q", host, drive, fields["FreeSpace"])
	}

	return int(free * 100 / size), nil
}

// ServiceState returns the state of a named service on the remote host,
// e.g. "Running" or "Stopped".
func (c *Client) ServiceState(ctx context.Context, host, name string) (string, error) {
	where := fmt.Sprintf("Name='%s'", name)
	fields, err := c.query(ctx, host, "service", "where", where, "get", "State", "/format:list")
	if err != nil {
		return "", err
	}

	state, ok := fields["State"]
	if !ok || state == "" {
		return "", fmt.Errorf("service query for %s: %s not found", host, name)
	}
	return state, nil
}

func (c *Client) query(ctx context.Context, host string, args ...string) (map[string]string, error) {
	full := append([]string{"/node:" + host}, args...)
	result, err := execx.Run(ctx, c.Timeout, c.WmicPath, full...)
	if err != nil {
		return nil, err
	}
	if result.ExitCode != 0 {
		return nil, fmt.Errorf("wmic query for %s failed: %s", host, strings.TrimSpace(result.Stderr))
	}
	return parseList(result.Stdout), nil
}

// parseList parses wmic /format:list output, which is KEY=VALUE lines.
// Lines without '=' are ignored.
func parseList(stdout string) map[string]string {
	fields := make(map[string]string)
	for _, line := range strings.Split(stdout, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}

		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		fields[key] = strings.TrimSpace(value)
	}
	return fields
}

// parseCIMTime parses a CIM_DATETIME value such as
// "20260830061500.000000+120" into a time.Time in the embedded UTC offset.
func parseCIMTime(raw string) (time.Time, error) {
	if len(raw) < 21 {
		return time.Time{}, fmt.Errorf("bad CIM datetime %q", raw)
	}

	stamp := raw[:14]
	t, err := time.Parse("20060102150405", stamp)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad CIM datetime %q: %w", raw, err)
	}

	// Offset suffix is signed minutes from UTC.
	offsetRaw := raw[21:]
	offsetMin, err := strconv.Atoi(offsetRaw)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad CIM datetime offset %q", offsetRaw)
	}

	loc := time.FixedZone("", offsetMin*60)
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, loc), nil
}
