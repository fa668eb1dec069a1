// Package reconciler keeps the AAAA records of a zone pointed at the
// interface's current global IPv6 address. Each tick reads the published
// records and the local address table, and rewrites every AAAA record when
// the first of each disagree.
package reconciler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/netip"
	"sync"
	"time"

	"github.com/google/uuid"

	"gitlab.bluewillows.net/root/ddns6/internal/metrics"
	"gitlab.bluewillows.net/root/ddns6/pkg/provider"
	"gitlab.bluewillows.net/root/ddns6/pkg/source"
)

// DefaultInterval is the wait between ticks when none is configured.
const DefaultInterval = time.Hour

// Config holds reconciler configuration options.
type Config struct {
	// DryRun if true, logs updates without applying them.
	DryRun bool

	// Interval is the wait after a tick before the next one starts.
	Interval time.Duration

	// Retry shortens the wait after failed ticks.
	Retry RetryConfig
}

// DefaultConfig returns a Config with the fixed hourly schedule.
func DefaultConfig() Config {
	return Config{
		Interval: DefaultInterval,
		Retry:    RetryConfig{Policy: RetryFixed},
	}
}

// Reconciler drives the read-compare-write cycle for one zone.
type Reconciler struct {
	provider provider.Provider
	source   source.Source
	config   Config
	logger   *slog.Logger
	now      func() time.Time
	newRunID func() string

	mu   sync.RWMutex
	last *Result
}

// Option is a functional option for configuring the Reconciler.
type Option func(*Reconciler)

// WithLogger sets a custom logger for the reconciler.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Reconciler) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithConfig sets the reconciler configuration.
func WithConfig(cfg Config) Option {
	return func(r *Reconciler) {
		r.config = cfg
	}
}

// WithClock overrides the time source used for result timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *Reconciler) {
		if now != nil {
			r.now = now
		}
	}
}

// New creates a Reconciler publishing the addresses of src through p.
func New(p provider.Provider, src source.Source, opts ...Option) *Reconciler {
	r := &Reconciler{
		provider: p,
		source:   src,
		config:   DefaultConfig(),
		logger:   slog.Default(),
		now:      time.Now,
		newRunID: uuid.NewString,
	}

	for _, opt := range opts {
		opt(r)
	}

	if r.config.Interval <= 0 {
		r.config.Interval = DefaultInterval
	}

	return r
}

// Reconcile performs one tick. The returned Result is never nil; the error
// is non-nil for the fetch_failed, source_failed and update_failed outcomes
// and mirrors Result.Err. None of them is fatal to the run loop.
func (r *Reconciler) Reconcile(ctx context.Context) (*Result, error) {
	result := NewResult(r.newRunID(), r.config.DryRun, r.now())
	logger := r.logger.With(slog.String("run_id", result.RunID))

	logger.Debug("starting reconciliation",
		slog.String("provider", r.provider.Name()),
		slog.String("source", r.source.Name()),
		slog.Bool("dry_run", r.config.DryRun),
	)

	r.reconcile(ctx, logger, result)

	result.Complete(r.now())
	r.recordMetrics(result)

	r.mu.Lock()
	r.last = result
	r.mu.Unlock()

	attrs := []any{
		slog.String("run_id", result.RunID),
		slog.String("outcome", string(result.Outcome)),
		slog.Int("records", len(result.Records)),
		slog.Int("addresses", len(result.Addresses)),
		slog.Int("updated", len(result.Updated())),
		slog.Int("failed", len(result.Failed())),
		slog.Int("skipped", len(result.Skipped())),
		slog.Duration("duration", result.Duration()),
	}
	if result.Err != nil {
		attrs = append(attrs, slog.String("error", result.Err.Error()))
	}

	switch result.Outcome {
	case OutcomeInSync:
		r.logger.Debug("reconciliation complete", attrs...)
	case OutcomeUpdated:
		r.logger.Info("reconciliation complete", attrs...)
	case OutcomeNoRecord, OutcomeNoAddress:
		r.logger.Warn("reconciliation complete", attrs...)
	default:
		r.logger.Error("reconciliation failed", attrs...)
	}

	return result, result.Err
}

func (r *Reconciler) reconcile(ctx context.Context, logger *slog.Logger, result *Result) {
	// Step 1: published records
	records, err := r.provider.List(ctx)
	if err != nil {
		result.Outcome = OutcomeFetchFailed
		result.Err = fmt.Errorf("listing records: %w", err)
		return
	}
	result.Records = provider.FilterByType(records, provider.RecordTypeAAAA)

	logger.Debug("fetched records",
		slog.Int("total", len(records)),
		slog.Int("aaaa", len(result.Records)),
	)

	// Step 2: local addresses
	addrs, err := r.source.Addresses(ctx)
	if err != nil {
		result.Outcome = OutcomeSourceFailed
		result.Err = fmt.Errorf("reading local addresses: %w", err)
		return
	}
	result.Addresses = addrs

	logger.Debug("found local addresses", slog.Any("addresses", addrs))

	if len(result.Records) == 0 {
		result.Outcome = OutcomeNoRecord
		return
	}
	if len(addrs) == 0 {
		result.Outcome = OutcomeNoAddress
		return
	}

	// Step 3: compare first against first
	result.Published = canonical(result.Records[0].Value)
	result.Desired = addrs[0].String()

	if result.Published == result.Desired {
		result.Outcome = OutcomeInSync
		return
	}

	logger.Info("address drift detected",
		slog.String("old_value", result.Published),
		slog.String("new_value", result.Desired),
		slog.Int("records", len(result.Records)),
	)

	// Step 4: rewrite every AAAA record, each independently
	var errs []error
	for _, rec := range result.Records {
		action := r.update(ctx, logger, rec, result.Desired)
		if action.Status == StatusFailed {
			errs = append(errs, fmt.Errorf("record %d: %s", rec.ID, action.Error))
		}
		result.AddAction(action)
	}

	if len(errs) > 0 {
		result.Outcome = OutcomeUpdateFailed
		result.Err = fmt.Errorf("updating records: %w", errors.Join(errs...))
		return
	}
	result.Outcome = OutcomeUpdated
}

func (r *Reconciler) update(ctx context.Context, logger *slog.Logger, rec provider.Record, value string) Action {
	action := Action{
		Provider: r.provider.Name(),
		RecordID: rec.ID,
		Name:     rec.Name,
		Line:     rec.Line,
		OldValue: rec.Value,
		NewValue: value,
	}

	attrs := []any{
		slog.Int64("record_id", rec.ID),
		slog.String("name", rec.Name),
		slog.String("line", rec.Line),
		slog.String("old_value", rec.Value),
		slog.String("new_value", value),
	}

	if r.config.DryRun {
		action.Status = StatusSkipped
		logger.Info("dry-run: would update record", attrs...)
		return action
	}

	if err := r.provider.Modify(ctx, rec, value); err != nil {
		action.Status = StatusFailed
		action.Error = err.Error()
		logger.Error("failed to update record", append(attrs, slog.String("error", err.Error()))...)
		return action
	}

	action.Status = StatusSuccess
	logger.Info("updated record", attrs...)
	return action
}

// RunOnce performs a single tick. It is Reconcile under the name the
// one-shot command uses.
func (r *Reconciler) RunOnce(ctx context.Context) (*Result, error) {
	return r.Reconcile(ctx)
}

// Run ticks immediately, then waits the scheduled delay after each tick
// completes. Ticks never overlap. Run returns nil once ctx is cancelled;
// tick errors are logged and recorded, never returned.
func (r *Reconciler) Run(ctx context.Context) error {
	sched, err := newScheduler(r.config.Interval, r.config.Retry)
	if err != nil {
		return err
	}

	r.logger.Info("reconciler started",
		slog.Duration("interval", r.config.Interval),
		slog.String("retry_policy", policyName(r.config.Retry.Policy)),
		slog.Bool("dry_run", r.config.DryRun),
	)

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("reconciler stopped")
			return nil
		case <-timer.C:
		}

		result, _ := r.Reconcile(ctx)
		if ctx.Err() != nil {
			r.logger.Info("reconciler stopped")
			return nil
		}

		delay := sched.next(result.Outcome)
		r.logger.Debug("next reconciliation scheduled",
			slog.String("run_id", result.RunID),
			slog.Duration("delay", delay),
		)
		timer.Reset(delay)
	}
}

// LastResult returns the result of the most recent tick, or nil before the
// first one completes.
func (r *Reconciler) LastResult() *Result {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.last
}

// Config returns the current reconciler configuration.
func (r *Reconciler) Config() Config {
	return r.config
}

// recordMetrics records Prometheus metrics from a tick result.
func (r *Reconciler) recordMetrics(result *Result) {
	metrics.ReconciliationsTotal.WithLabelValues(string(result.Outcome)).Inc()
	metrics.ReconciliationDuration.Observe(result.Duration().Seconds())

	if result.Outcome != OutcomeSourceFailed && result.Outcome != OutcomeFetchFailed {
		metrics.LocalAddresses.Set(float64(len(result.Addresses)))
	}
	if result.Outcome.Succeeded() {
		metrics.LastSuccessTimestamp.Set(float64(result.EndTime.Unix()))
	}

	for _, action := range result.Actions {
		switch action.Status {
		case StatusSuccess:
			metrics.RecordsUpdatedTotal.WithLabelValues(action.Provider).Inc()
		case StatusFailed:
			metrics.RecordsFailedTotal.WithLabelValues(action.Provider).Inc()
		case StatusSkipped:
			metrics.RecordsSkippedTotal.WithLabelValues("dry_run").Inc()
		}
	}
}

// canonical returns the text form of an address value, or the value itself
// when it does not parse.
func canonical(value string) string {
	if a, err := netip.ParseAddr(value); err == nil {
		return a.String()
	}
	return value
}

func policyName(p string) string {
	if p == "" {
		return RetryFixed
	}
	return p
}
