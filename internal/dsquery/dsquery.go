// Package dsquery queries directory-wide facts by shelling out to the
// standard directory tools (dsquery, netdom, repadmin) and parsing their
// text output.
package dsquery

import (
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dchealth/dchealth/internal/execx"
)

// DefaultTimeout bounds a single directory query.
const DefaultTimeout = 30 * time.Second

// ReplSummary aggregates a controller's inbound replication links.
type ReplSummary struct {
	Failures    int
	LastSuccess time.Time
}

// Client runs directory queries.
type Client struct {
	DsqueryPath  string
	NetdomPath   string
	RepadminPath string
	Timeout      time.Duration
}

// NewClient creates a Client. Empty paths default to the bare tool names on
// PATH.
func NewClient(dsqueryPath, netdomPath, repadminPath string, timeout time.Duration) *Client {
	if dsqueryPath == "" {
		dsqueryPath = "dsquery"
	}
	if netdomPath == "" {
		netdomPath = "netdom"
	}
	if repadminPath == "" {
		repadminPath = "repadmin"
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		DsqueryPath:  dsqueryPath,
		NetdomPath:   netdomPath,
		RepadminPath: repadminPath,
		Timeout:      timeout,
	}
}

// Controllers returns the names of all domain controllers in the domain.
func (c *Client) Controllers(ctx context.Context) ([]string, error) {
	out, err := c.run(ctx, c.DsqueryPath, "server", "-o", "rdn")
	if err != nil {
		return nil, err
	}
	return parseControllers(out), nil
}

// Site returns the directory site the given controller belongs to.
func (c *Client) Site(ctx context.Context, host string) (string, error) {
	out, err := c.run(ctx, c.DsqueryPath, "server", "-name", host)
	if err != nil {
		return "", err
	}
	site := parseSite(out)
	if site == "" {
		return "", fmt.Errorf("no site found for %s", host)
	}
	return site, nil
}

// Roles returns the FSMO roles held by the given controller.
func (c *Client) Roles(ctx context.Context, host string) ([]string, error) {
	out, err := c.run(ctx, c.NetdomPath, "query", "fsmo")
	if err != nil {
		return nil, err
	}
	return parseRoles(out, host), nil
}

// DomainLevel returns the domain functional level as a release name,
// e.g. "2012 R2".
func (c *Client) DomainLevel(ctx context.Context) (string, error) {
	return c.behaviorLevel(ctx, "domainroot")
}

// ForestLevel returns the forest functional level as a release name.
func (c *Client) ForestLevel(ctx context.Context) (string, error) {
	return c.behaviorLevel(ctx, "forestroot")
}

func (c *Client) behaviorLevel(ctx context.Context, root string) (string, error) {
	out, err := c.run(ctx, c.DsqueryPath, "*", root, "-scope", "base", "-attr", "msDS-Behavior-Version")
	if err != nil {
		return "", err
	}
	v, err := parseBehaviorVersion(out)
	if err != nil {
		return "", fmt.Errorf("%s: %w", root, err)
	}
	return LevelName(v), nil
}

// ReplicationSummary returns the failure count across all inbound links of
// the given controller and the most recent successful replication time.
func (c *Client) ReplicationSummary(ctx context.Context, host string) (ReplSummary, error) {
	out, err := c.run(ctx, c.RepadminPath, "/showrepl", host, "/csv")
	if err != nil {
		return ReplSummary{}, err
	}
	return parseShowRepl(out)
}

func (c *Client) run(ctx context.Context, path string, args ...string) (string, error) {
	result, err := execx.Run(ctx, c.Timeout, path, args...)
	if err != nil {
		return "", err
	}
	if result.ExitCode != 0 {
		return "", fmt.Errorf("%s failed: %s", path, strings.TrimSpace(result.Stderr))
	}
	return result.Stdout, nil
}

// parseControllers extracts RDN values from dsquery output, one quoted name
// per line.
func parseControllers(out string) []string {
	var names []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		line = strings.Trim(line, `"`)
		if line == "" {
			continue
		}
		names = append(names, line)
	}
	return names
}

// parseSite extracts the site name from a server object DN. The server object
// lives under CN=<server>,CN=Servers,CN=<site>,CN=Sites,... so the site is
// the component following CN=Servers.
func parseSite(out string) string {
	dn := strings.Trim(strings.TrimSpace(out), `"`)
	parts := strings.Split(dn, ",")
	for i, part := range parts {
		if strings.EqualFold(strings.TrimSpace(part), "CN=Servers") && i+1 < len(parts) {
			return strings.TrimPrefix(strings.TrimSpace(parts[i+1]), "CN=")
		}
	}
	return ""
}

// parseRoles extracts the FSMO role names held by host from netdom output.
// Each line is "<role name>  <holder fqdn>" separated by a run of spaces.
func parseRoles(out, host string) []string {
	var roles []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		idx := strings.Index(line, "  ")
		if idx < 0 {
			continue
		}

		role := strings.TrimSpace(line[:idx])
		holder := strings.TrimSpace(line[idx:])
		if role == "" || holder == "" {
			continue
		}

		short, _, _ := strings.Cut(holder, ".")
		if strings.EqualFold(short, host) || strings.EqualFold(holder, host) {
			roles = append(roles, role)
		}
	}
	return roles
}

// parseBehaviorVersion finds the msDS-Behavior-Version integer in dsquery
// -attr output (an attribute-name header line followed by the value).
func parseBehaviorVersion(out string) (int, error) {
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if v, err := strconv.Atoi(line); err == nil {
			return v, nil
		}
	}
	return 0, fmt.Errorf("no msDS-Behavior-Version value in output")
}

// parseShowRepl parses repadmin /showrepl /csv output, summing the
// "Number of Failures" column and taking the newest "Last Success Time".
func parseShowRepl(out string) (ReplSummary, error) {
	r := csv.NewReader(strings.NewReader(strings.TrimSpace(out)))
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return ReplSummary{}, fmt.Errorf("parsing repadmin csv: %w", err)
	}
	if len(records) < 2 {
		return ReplSummary{}, fmt.Errorf("repadmin csv has no data rows")
	}

	failCol, successCol := -1, -1
	for i, name := range records[0] {
		switch strings.TrimSpace(name) {
		case "Number of Failures":
			failCol = i
		case "Last Success Time":
			successCol = i
		}
	}
	if failCol < 0 || successCol < 0 {
		return ReplSummary{}, fmt.Errorf("repadmin csv missing expected columns")
	}

	var summary ReplSummary
	for _, row := range records[1:] {
		if failCol < len(row) {
			if n, err := strconv.Atoi(strings.TrimSpace(row[failCol])); err == nil {
				summary.Failures += n
			}
		}
		if successCol < len(row) {
			if t, err := time.Parse("2006-01-02 15:04:05", strings.TrimSpace(row[successCol])); err == nil {
				if t.After(summary.LastSuccess) {
					summary.LastSuccess = t
				}
			}
		}
	}
	return summary, nil
}

// levelNames maps msDS-Behavior-Version values to release names. Versions
// past 7 have not introduced new functional levels.
var levelNames = map[int]string{
	0: "2000",
	1: "2003 Interim",
	2: "2003",
	3: "2008",
	4: "2008 R2",
	5: "2012",
	6: "2012 R2",
	7: "2016",
}

// LevelName returns the release name for a behavior version, or "Unknown".
func LevelName(v int) string {
	if name, ok := levelNames[v]; ok {
		return name
	}
	return "Unknown"
}
