package source

import (
	"context"
	"fmt"
	"net/netip"
	"slices"
)

// Static is a Source that always returns the same addresses.
type Static struct {
	addrs []netip.Addr
}

// NewStatic creates a source for a fixed address list.
func NewStatic(addrs ...netip.Addr) *Static {
	return &Static{addrs: slices.Clone(addrs)}
}

// ParseStatic creates a static source from IPv6 literals.
func ParseStatic(values ...string) (*Static, error) {
	addrs := make([]netip.Addr, 0, len(values))
	for _, v := range values {
		a, err := netip.ParseAddr(v)
		if err != nil {
			return nil, fmt.Errorf("parsing address %q: %w", v, err)
		}
		if !a.Is6() || a.Is4In6() {
			return nil, fmt.Errorf("address %q is not IPv6", v)
		}
		addrs = append(addrs, a)
	}
	return &Static{addrs: addrs}, nil
}

// Name returns "static".
func (s *Static) Name() string {
	return "static"
}

// Addresses returns a copy of the configured addresses.
func (s *Static) Addresses(ctx context.Context) ([]netip.Addr, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return slices.Clone(s.addrs), nil
}

// Ensure Static implements Source at compile time.
var _ Source = (*Static)(nil)
