// Package dnsauth verifies the TXT records that authenticate the sending
// domain (SPF, DKIM, DMARC) before a newsletter goes out.
package dnsauth

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/miekg/dns"
	"github.com/sirupsen/logrus"
)

// Defaults used when a Checker option is not given.
const (
	DefaultServer  = "8.8.8.8:53"
	DefaultTimeout = 5 * time.Second
)

// ednsBufferSize is the UDP payload size advertised to the server.
const ednsBufferSize = 4096

// Status is the outcome of one check.
type Status int

const (
	// Unknown means the record could not be looked up (timeout, transport
	// or server error). It does not count as a failure.
	Unknown Status = iota
	Pass
	Fail
)

func (s Status) String() string {
	switch s {
	case Pass:
		return "pass"
	case Fail:
		return "fail"
	default:
		return "unknown"
	}
}

// Check expects a TXT record at Name containing Expect.
type Check struct {
	Label  string
	Name   string
	Expect string
}

// Result is the outcome of a Check. Detail explains a Fail or Unknown.
type Result struct {
	Check  Check
	Status Status
	Detail string
}

// Report holds the results in check order.
type Report struct {
	Results []Result
}

// AllPassed reports whether no check failed. Unknown results are ignored.
func (r Report) AllPassed() bool {
	return len(r.Failed()) == 0
}

// Failed returns the labels of failed checks.
func (r Report) Failed() []string {
	var labels []string
	for _, res := range r.Results {
		if res.Status == Fail {
			labels = append(labels, res.Check.Label)
		}
	}
	return labels
}

// Checker queries one DNS server directly, bypassing the system resolver.
type Checker struct {
	server string
	client *dns.Client
	logger logrus.FieldLogger
}

// Option configures a Checker.
type Option func(*Checker)

// WithServer sets the host:port to query. Empty is ignored.
func WithServer(addr string) Option {
	return func(c *Checker) {
		if addr != "" {
			c.server = addr
		}
	}
}

// WithTimeout bounds each query.
// Panics if d <= 0 (programmer error, similar to time.NewTicker).
func WithTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("dnsauth: WithTimeout duration must be positive")
	}
	return func(c *Checker) {
		c.client.Timeout = d
	}
}

// WithLogger sets the logger for lookup errors.
func WithLogger(l logrus.FieldLogger) Option {
	return func(c *Checker) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewChecker creates a Checker.
func NewChecker(opts ...Option) *Checker {
	c := &Checker{
		server: DefaultServer,
		client: &dns.Client{Net: "udp", Timeout: DefaultTimeout},
		logger: logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run performs every check in order. Cancellation stops early and returns
// the results gathered so far with the context error.
func (c *Checker) Run(ctx context.Context, checks []Check) (Report, error) {
	var report Report
	for _, check := range checks {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Results = append(report.Results, c.Check(ctx, check))
	}
	return report, nil
}

// Check looks up one record.
func (c *Checker) Check(ctx context.Context, check Check) Result {
	res := Result{Check: check}

	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(check.Name), dns.TypeTXT)
	msg.RecursionDesired = true
	msg.SetEdns0(ednsBufferSize, false)

	resp, err := c.exchange(ctx, msg)
	if err != nil {
		c.logger.WithFields(logrus.Fields{"name": check.Name, "error": err}).Debug("dns query failed")
		res.Status = Unknown
		res.Detail = queryErrorDetail(err)
		return res
	}

	switch resp.Rcode {
	case dns.RcodeSuccess:
	case dns.RcodeNameError:
		res.Status = Fail
		res.Detail = "Record not found"
		return res
	default:
		res.Status = Unknown
		res.Detail = "DNS server returned " + dns.RcodeToString[resp.Rcode]
		return res
	}

	var records []string
	for _, rr := range resp.Answer {
		if txt, ok := rr.(*dns.TXT); ok {
			records = append(records, strings.Join(txt.Txt, ""))
		}
	}
	if len(records) == 0 {
		res.Status = Fail
		res.Detail = "No TXT record"
		return res
	}

	for _, record := range records {
		if strings.Contains(record, check.Expect) {
			res.Status = Pass
			return res
		}
	}
	res.Status = Fail
	res.Detail = "Record exists but doesn't match expected value"
	return res
}

// exchange sends msg over UDP and repeats it over TCP when the answer
// comes back truncated.
func (c *Checker) exchange(ctx context.Context, msg *dns.Msg) (*dns.Msg, error) {
	resp, _, err := c.client.ExchangeContext(ctx, msg, c.server)
	if err != nil || !resp.Truncated {
		return resp, err
	}

	c.logger.WithField("name", msg.Question[0].Name).Debug("truncated dns answer, retrying over tcp")
	tcp := &dns.Client{Net: "tcp", Timeout: c.client.Timeout}
	resp, _, err = tcp.ExchangeContext(ctx, msg, c.server)
	return resp, err
}

func queryErrorDetail(err error) string {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "DNS query timeout"
	}
	return fmt.Sprintf("Error checking: %v", err)
}
