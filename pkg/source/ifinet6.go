package source

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/netip"
	"os"
	"strconv"
	"strings"
)

// DefaultIfInet6Path is the Linux per-interface IPv6 address table.
const DefaultIfInet6Path = "/proc/net/if_inet6"

// Entry is one parsed line of the address table.
type Entry struct {
	Addr      netip.Addr
	Index     int    // interface index
	PrefixLen int    // prefix length in bits
	Scope     int    // kernel scope value (0 global, 0x20 link)
	Flags     int    // IFA_F_* flags
	Interface string // interface name
}

// ParseIfInet6 reads an if_inet6 table and returns the entries of interface
// iface whose address is not link-local (fe80::/10), in table order.
//
// Each line holds six whitespace-separated fields: 32 hex digits of address,
// then hex interface index, prefix length, scope and flags, then the
// interface name. The name must equal iface exactly.
//
// Malformed lines are skipped. When any were found the returned error is a
// *ParseError and the entries from the good lines are still returned.
func ParseIfInet6(r io.Reader, iface string) ([]Entry, error) {
	var (
		entries []Entry
		bad     []*LineError
	)

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) != 6 {
			bad = append(bad, &LineError{Line: lineNo, Text: line, Err: fmt.Errorf("%w: expected 6 fields, got %d", ErrMalformedLine, len(fields))})
			continue
		}

		if fields[5] != iface {
			continue
		}

		entry, err := parseEntry(fields)
		if err != nil {
			bad = append(bad, &LineError{Line: lineNo, Text: line, Err: err})
			continue
		}

		if entry.Addr.IsLinkLocalUnicast() {
			continue
		}

		entries = append(entries, entry)
	}

	if err := scanner.Err(); err != nil {
		return entries, fmt.Errorf("%w: %w", ErrTableUnreadable, err)
	}

	if len(bad) > 0 {
		return entries, &ParseError{Lines: bad}
	}
	return entries, nil
}

func parseEntry(fields []string) (Entry, error) {
	addr, err := parseHexAddr(fields[0])
	if err != nil {
		return Entry{}, err
	}

	var nums [4]int
	for i, f := range fields[1:5] {
		n, err := strconv.ParseUint(f, 16, 32)
		if err != nil {
			return Entry{}, fmt.Errorf("%w: field %d: %w", ErrMalformedLine, i+2, err)
		}
		nums[i] = int(n)
	}

	return Entry{
		Addr:      addr,
		Index:     nums[0],
		PrefixLen: nums[1],
		Scope:     nums[2],
		Flags:     nums[3],
		Interface: fields[5],
	}, nil
}

// parseHexAddr turns 32 hex digits into an address by regrouping them into
// eight colon-separated groups.
func parseHexAddr(s string) (netip.Addr, error) {
	if len(s) != 32 {
		return netip.Addr{}, fmt.Errorf("%w: address has %d hex digits, want 32", ErrMalformedLine, len(s))
	}

	var b strings.Builder
	b.Grow(39)
	for i := 0; i < 32; i += 4 {
		if i > 0 {
			b.WriteByte(':')
		}
		b.WriteString(s[i : i+4])
	}

	addr, err := netip.ParseAddr(b.String())
	if err != nil {
		return netip.Addr{}, fmt.Errorf("%w: %w", ErrMalformedLine, err)
	}
	return addr, nil
}

// IfInet6 is a Source backed by the kernel address table.
// The table is re-read on every call.
type IfInet6 struct {
	iface  string
	path   string
	logger *slog.Logger
}

// IfInet6Option is a functional option for configuring IfInet6.
type IfInet6Option func(*IfInet6)

// WithPath overrides the table location (useful for testing).
func WithPath(path string) IfInet6Option {
	return func(s *IfInet6) {
		if path != "" {
			s.path = path
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) IfInet6Option {
	return func(s *IfInet6) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewIfInet6 creates a source for the addresses of iface.
func NewIfInet6(iface string, opts ...IfInet6Option) *IfInet6 {
	s := &IfInet6{
		iface:  iface,
		path:   DefaultIfInet6Path,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns "if_inet6:<iface>".
func (s *IfInet6) Name() string {
	return "if_inet6:" + s.iface
}

// Interface returns the watched interface name.
func (s *IfInet6) Interface() string {
	return s.iface
}

// Entries returns the parsed table entries of the watched interface.
// Malformed lines are logged and skipped.
func (s *IfInet6) Entries(ctx context.Context) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTableUnreadable, err)
	}
	defer f.Close()

	entries, err := ParseIfInet6(f, s.iface)
	if perr, ok := IsParseError(err); ok {
		for _, l := range perr.Lines {
			s.logger.Warn("skipping malformed address table line",
				slog.String("path", s.path),
				slog.Int("line", l.Line),
				slog.String("error", l.Err.Error()),
			)
		}
		err = nil
	}
	if err != nil {
		return nil, err
	}

	return entries, nil
}

// Addresses returns the usable addresses of the watched interface.
func (s *IfInet6) Addresses(ctx context.Context) ([]netip.Addr, error) {
	entries, err := s.Entries(ctx)
	if err != nil {
		return nil, err
	}

	addrs := make([]netip.Addr, len(entries))
	for i, e := range entries {
		addrs[i] = e.Addr
	}

	s.logger.Debug("discovered addresses",
		slog.String("interface", s.iface),
		slog.Int("count", len(addrs)),
	)

	return addrs, nil
}

// Ensure IfInet6 implements Source at compile time.
var _ Source = (*IfInet6)(nil)
