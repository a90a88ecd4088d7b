package probe

import (
	"context"
	"time"

	"github.com/miekg/dns"
)

// DefaultDNSTimeout is the default DNS query timeout.
const DefaultDNSTimeout = 5 * time.Second

// DNSProbe verifies that the target has an A record registered on the
// configured nameserver. A domain controller that has dropped out of DNS is
// invisible to clients even when it is otherwise healthy.
type DNSProbe struct {
	Server string // host:port of the nameserver to query
	client *dns.Client
}

// NewDNSProbe creates a DNSProbe querying the given nameserver.
func NewDNSProbe(server string, timeout time.Duration) *DNSProbe {
	if timeout <= 0 {
		timeout = DefaultDNSTimeout
	}
	return &DNSProbe{
		Server: server,
		client: &dns.Client{Timeout: timeout},
	}
}

// Check returns "Pass" when the target resolves to at least one A record,
// and the failing sentinel on any query error, non-success rcode, or empty
// answer.
func (p *DNSProbe) Check(ctx context.Context, target string) string {
	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(target), dns.TypeA)
	msg.RecursionDesired = true

	resp, _, err := p.client.ExchangeContext(ctx, msg, p.Server)
	if err != nil || resp.Rcode != dns.RcodeSuccess {
		return SentinelFail
	}

	for _, rr := range resp.Answer {
		if _, ok := rr.(*dns.A); ok {
			return "Pass"
		}
	}
	return SentinelFail
}
