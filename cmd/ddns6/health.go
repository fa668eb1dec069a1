package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/netip"

	"gitlab.bluewillows.net/root/ddns6/internal/config"
	"gitlab.bluewillows.net/root/ddns6/internal/health"
	"gitlab.bluewillows.net/root/ddns6/internal/reconciler"
	"gitlab.bluewillows.net/root/ddns6/pkg/dnscheck"
	"gitlab.bluewillows.net/root/ddns6/pkg/provider"
)

// lastResulter is the slice of the reconciler the health endpoints read.
type lastResulter interface {
	LastResult() *reconciler.Result
}

// registerHealth wires readiness, degraded and info reporters into hs.
func registerHealth(hs *health.Server, cfg *config.Config, p provider.Provider, rec lastResulter, logger *slog.Logger) error {
	hs.RegisterChecker("provider:"+p.Name(), p.Ping)

	hs.RegisterDegradedChecker("reconciler", func(context.Context) (bool, string) {
		last := rec.LastResult()
		if last == nil || last.Outcome.Succeeded() {
			return false, ""
		}
		if last.Err != nil {
			return true, fmt.Sprintf("last tick %s: %v", last.Outcome, last.Err)
		}
		return true, "last tick " + string(last.Outcome)
	})

	if cfg.VerifyNameserver != "" {
		checker, err := dnscheck.New(cfg.VerifyNameserver, dnscheck.WithLogger(logger))
		if err != nil {
			return fmt.Errorf("creating dns check: %w", err)
		}
		hs.RegisterDegradedChecker("dns:"+checker.Server(), propagationCheck(checker, cfg.Domain, rec))
	}

	hs.RegisterInfo("interface", func() string { return cfg.Interface })
	hs.RegisterInfo("domain", func() string { return cfg.Domain })
	hs.RegisterInfo("last_outcome", func() string {
		if last := rec.LastResult(); last != nil {
			return string(last.Outcome)
		}
		return "pending"
	})
	hs.RegisterInfo("last_run_id", func() string {
		if last := rec.LastResult(); last != nil {
			return last.RunID
		}
		return ""
	})
	hs.RegisterInfo("address", func() string {
		if last := rec.LastResult(); last != nil {
			return last.Desired
		}
		return ""
	})

	return nil
}

// propagationCheck reports degraded while the nameserver does not yet serve
// the address the last tick published.
func propagationCheck(checker *dnscheck.Checker, zone string, rec lastResulter) health.DegradedChecker {
	return func(ctx context.Context) (bool, string) {
		last := rec.LastResult()
		if last == nil || !last.Outcome.Succeeded() || len(last.Records) == 0 {
			return false, ""
		}

		want, err := netip.ParseAddr(last.Desired)
		if err != nil {
			return false, ""
		}

		fqdn := last.Records[0].FQDN(zone)
		ok, err := checker.Published(ctx, fqdn, want)
		switch {
		case err != nil:
			return true, fmt.Sprintf("lookup %s failed: %v", fqdn, err)
		case !ok:
			return true, fmt.Sprintf("%s does not serve %s for %s yet", checker.Server(), want, fqdn)
		default:
			return false, ""
		}
	}
}
