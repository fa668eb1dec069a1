// Package source discovers the local IPv6 addresses a DNS record should point at.
//
// The primary implementation reads the kernel's per-interface address table
// (/proc/net/if_inet6 on Linux):
//
//	src := source.NewIfInet6("eth0", source.WithLogger(logger))
//	addrs, err := src.Addresses(ctx)
//	if err != nil {
//	    // table unreadable; try again next tick
//	}
//	if len(addrs) > 0 {
//	    log.Printf("publish %s", addrs[0])
//	}
package source

import (
	"context"
	"net/netip"
)

// Source defines the interface for local address discovery.
//
// Sources should:
//   - Be safe for concurrent use
//   - Return an empty slice (not error) when the interface has no usable address
//   - Preserve discovery order; callers publish the first address
type Source interface {
	// Name returns the source identifier (e.g., "if_inet6:eth0").
	// This is used for logging.
	Name() string

	// Addresses returns the usable (non link-local) IPv6 addresses.
	Addresses(ctx context.Context) ([]netip.Addr, error)
}
