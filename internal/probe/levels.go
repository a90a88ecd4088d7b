package probe

import "strings"

// releaseOrder lists Windows Server releases oldest-first, for comparing a
// host's OS release against a functional level.
var releaseOrder = []string{
	"2000",
	"2003",
	"2008",
	"2008 R2",
	"2012",
	"2012 R2",
	"2016",
	"2019",
	"2022",
	"2025",
}

// legacyExemptLevel is the one functional level exempt from the
// "OS release newer than the level" failure rule. Domains still at this
// level predate the comparison data the rule relies on and are accepted
// as-is.
const legacyExemptLevel = "2003"

// releaseIndex returns the position of a release name in releaseOrder, or -1.
func releaseIndex(name string) int {
	for i, r := range releaseOrder {
		if r == name {
			return i
		}
	}
	return -1
}

// osRelease extracts the release name from an OS caption such as
// "Microsoft Windows Server 2012 R2 Datacenter". The longest match wins so
// "2012 R2" is not mistaken for "2012".
func osRelease(caption string) string {
	best := ""
	for _, r := range releaseOrder {
		if strings.Contains(caption, r) && len(r) > len(best) {
			best = r
		}
	}
	return best
}

// levelVerdict tags a functional level with the probe's own pass/fail
// verdict: Failure when the host's OS release is newer than the level,
// except for the exempt legacy level. Unknown releases or levels compare as
// passing since there is nothing to compare against.
func levelVerdict(level, release string) string {
	ok := true
	li, ri := releaseIndex(level), releaseIndex(release)
	if li >= 0 && ri >= 0 && ri > li && level != legacyExemptLevel {
		ok = false
	}
	return level + " " + tag(ok)
}
