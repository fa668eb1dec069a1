// Package dnscheck queries a nameserver for the AAAA records it serves, to
// confirm an update has reached the public DNS.
package dnscheck

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/netip"
	"slices"
	"time"

	"github.com/miekg/dns"

	"gitlab.bluewillows.net/root/ddns6/internal/metrics"
)

const (
	// DefaultPort is appended to servers given without a port.
	DefaultPort = "53"

	// DefaultTimeout bounds a single query.
	DefaultTimeout = 5 * time.Second
)

var (
	// ErrNotConfigured is returned when no nameserver is set.
	ErrNotConfigured = errors.New("dnscheck: no nameserver configured")

	// ErrLookupFailed is returned when the server answers with an error rcode.
	ErrLookupFailed = errors.New("dnscheck: lookup failed")
)

// Checker looks up AAAA records on one nameserver.
type Checker struct {
	server string
	client *dns.Client
	logger *slog.Logger
}

// Option is a functional option for configuring the Checker.
type Option func(*Checker)

// WithTimeout sets the per-query timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Checker) {
		if d > 0 {
			c.client.Timeout = d
		}
	}
}

// WithTCP sends queries over TCP instead of UDP.
func WithTCP() Option {
	return func(c *Checker) {
		c.client.Net = "tcp"
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Checker) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a checker for server ("host" or "host:port"; IPv6 literals
// may be bracketed).
func New(server string, opts ...Option) (*Checker, error) {
	if server == "" {
		return nil, ErrNotConfigured
	}

	c := &Checker{
		server: normalizeServer(server),
		client: &dns.Client{Net: "udp", Timeout: DefaultTimeout},
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Server returns the nameserver address queries are sent to.
func (c *Checker) Server() string {
	return c.server
}

// Lookup returns the AAAA addresses the server holds for fqdn. A name that
// does not exist yields an empty result, not an error.
func (c *Checker) Lookup(ctx context.Context, fqdn string) ([]netip.Addr, error) {
	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(fqdn), dns.TypeAAAA)
	msg.RecursionDesired = true

	resp, rtt, err := c.client.ExchangeContext(ctx, msg, c.server)
	if err == nil && resp.Truncated && c.client.Net == "udp" {
		tcp := *c.client
		tcp.Net = "tcp"
		resp, rtt, err = tcp.ExchangeContext(ctx, msg, c.server)
	}
	if err != nil {
		return nil, fmt.Errorf("querying %s for %s: %w", c.server, fqdn, err)
	}

	switch resp.Rcode {
	case dns.RcodeSuccess, dns.RcodeNameError:
	default:
		return nil, fmt.Errorf("%w: %s for %s", ErrLookupFailed, dns.RcodeToString[resp.Rcode], fqdn)
	}

	var addrs []netip.Addr
	for _, rr := range resp.Answer {
		aaaa, ok := rr.(*dns.AAAA)
		if !ok {
			continue
		}
		if a, ok := netip.AddrFromSlice(aaaa.AAAA); ok {
			addrs = append(addrs, a)
		}
	}

	c.logger.Debug("looked up AAAA",
		slog.String("server", c.server),
		slog.String("name", fqdn),
		slog.Int("answers", len(addrs)),
		slog.Duration("rtt", rtt),
	)

	return addrs, nil
}

// Published reports whether addr is among the AAAA records served for fqdn.
func (c *Checker) Published(ctx context.Context, fqdn string, addr netip.Addr) (bool, error) {
	addrs, err := c.Lookup(ctx, fqdn)
	if err != nil {
		metrics.DNSChecksTotal.WithLabelValues("error").Inc()
		return false, err
	}

	published := slices.Contains(addrs, addr)
	if published {
		metrics.DNSChecksTotal.WithLabelValues("published").Inc()
	} else {
		metrics.DNSChecksTotal.WithLabelValues("stale").Inc()
	}
	return published, nil
}

func normalizeServer(server string) string {
	if _, _, err := net.SplitHostPort(server); err == nil {
		return server
	}
	// Bare IPv6 literal or bracketed literal without port
	host := server
	if len(host) > 1 && host[0] == '[' && host[len(host)-1] == ']' {
		host = host[1 : len(host)-1]
	}
	return net.JoinHostPort(host, DefaultPort)
}
