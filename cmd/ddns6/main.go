// ddns6 keeps the AAAA records of a DNSPod zone pointed at the global IPv6
// address of a local network interface.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os"
	"os/signal"
	"runtime"
	"slices"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"gitlab.bluewillows.net/root/ddns6/internal/config"
	"gitlab.bluewillows.net/root/ddns6/internal/health"
	"gitlab.bluewillows.net/root/ddns6/internal/metrics"
	"gitlab.bluewillows.net/root/ddns6/internal/reconciler"
	"gitlab.bluewillows.net/root/ddns6/pkg/provider"
	"gitlab.bluewillows.net/root/ddns6/pkg/source"
	"gitlab.bluewillows.net/root/ddns6/providers/dnspod"
)

// Version and BuildDate are set via ldflags during build.
// Example: -ldflags="-X main.Version=v1.0.0 -X main.BuildDate=2026-01-03"
var (
	Version   = "dev"
	BuildDate = "unknown"
)

// options holds command-line flags.
type options struct {
	configFile string
	iface      string
	domain     string
	once       bool
	dryRun     bool
	addresses  []string
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "ddns6",
		Short: "Keep DNSPod AAAA records in sync with a local IPv6 address",
		Long: "ddns6 reads the global IPv6 addresses of a network interface and rewrites\n" +
			"every AAAA record of a DNSPod zone whenever the published address drifts.",
		Version:       Version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), opts, cmd.OutOrStdout())
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.iface, "ifacename", "i", "", "network interface to read addresses from (env DDNS6_INTERFACE)")
	flags.StringVarP(&opts.domain, "domain", "d", "", "zone whose AAAA records are updated (env DDNS6_DOMAIN)")
	flags.StringVarP(&opts.configFile, "config", "c", "", "YAML or TOML config file (env DDNS6_CONFIG)")
	flags.BoolVar(&opts.once, "once", false, "run a single reconciliation and exit")
	flags.BoolVar(&opts.dryRun, "dry-run", false, "log updates without sending them (env DDNS6_DRY_RUN)")
	flags.StringSliceVar(&opts.addresses, "address", nil, "publish these addresses instead of reading the interface")

	cmd.AddCommand(newCmdVersion())
	return cmd
}

func newCmdVersion() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "ddns6 version %s (built %s, %s)\n", Version, BuildDate, runtime.Version())
		},
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "ddns6: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts *options, out io.Writer) error {
	// Configuration errors stop the process before the loop starts
	cfg, err := config.Load(config.Overrides{
		ConfigFile: opts.configFile,
		Interface:  opts.iface,
		Domain:     opts.domain,
		DryRun:     opts.dryRun,
	})
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.LogLevel, cfg.LogFormat, os.Stdout)

	metrics.SetBuildInfo(Version, runtime.Version())

	attrs := []any{
		slog.String("version", Version),
		slog.String("build_date", BuildDate),
		slog.String("go_version", runtime.Version()),
	}
	summary := cfg.Summary()
	for _, k := range slices.Sorted(maps.Keys(summary)) {
		if v := summary[k]; v != "" {
			attrs = append(attrs, slog.String(k, v))
		}
	}
	logger.Info("ddns6 starting", attrs...)

	p, err := newProvider(cfg, logger)
	if err != nil {
		return fmt.Errorf("creating provider: %w", err)
	}

	src, err := newSource(cfg, opts.addresses, logger)
	if err != nil {
		return fmt.Errorf("creating address source: %w", err)
	}

	rec := reconciler.New(p, src,
		reconciler.WithConfig(cfg.ReconcilerConfig()),
		reconciler.WithLogger(logger),
	)

	if opts.once {
		result, err := rec.RunOnce(ctx)
		fmt.Fprint(out, result.Summary())
		if err != nil {
			return err
		}
		if !result.Outcome.Succeeded() {
			return fmt.Errorf("reconciliation ended with %s", result.Outcome)
		}
		return nil
	}

	if cfg.HealthPort > 0 {
		hs := health.New(cfg.HealthPort, health.WithLogger(logger))
		if err := registerHealth(hs, cfg, p, rec, logger); err != nil {
			return err
		}
		if err := hs.Start(); err != nil {
			return fmt.Errorf("starting health server: %w", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := hs.Shutdown(shutdownCtx); err != nil {
				logger.Warn("health server shutdown error", slog.String("error", err.Error()))
			}
		}()
	}

	if err := rec.Run(ctx); err != nil {
		return fmt.Errorf("running reconciler: %w", err)
	}

	logger.Info("ddns6 shutdown complete")
	return nil
}

// newProvider builds the configured provider through the factory registry.
func newProvider(cfg *config.Config, logger *slog.Logger) (provider.Provider, error) {
	registry := provider.NewRegistry()
	registry.RegisterFactory(dnspod.TypeName, dnspod.Factory(dnspod.WithProviderLogger(logger)))

	return registry.Create(cfg.Provider, cfg.Provider, cfg.ProviderConfig())
}

// newSource returns a static source when addresses are given on the command
// line, and the interface's address table otherwise.
func newSource(cfg *config.Config, addresses []string, logger *slog.Logger) (source.Source, error) {
	if len(addresses) > 0 {
		src, err := source.ParseStatic(addresses...)
		if err != nil {
			return nil, err
		}
		logger.Info("using static addresses", slog.Any("addresses", addresses))
		return src, nil
	}

	return source.NewIfInet6(cfg.Interface,
		source.WithPath(cfg.IfInet6Path),
		source.WithLogger(logger),
	), nil
}
