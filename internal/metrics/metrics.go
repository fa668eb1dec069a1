// Package metrics provides Prometheus metrics for ddns6.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace prefixes every metric name.
const Namespace = "ddns6"

// Build metadata.
var BuildInfo = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: Namespace,
		Name:      "build_info",
		Help:      "Build information, value is always 1.",
	},
	[]string{"version", "go_version"},
)

// Reconciliation metrics.
var (
	ReconciliationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "reconciliations_total",
			Help:      "Reconciliation ticks by outcome.",
		},
		[]string{"outcome"},
	)

	ReconciliationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "reconcile_duration_seconds",
			Help:      "Duration of a reconciliation tick.",
			Buckets:   prometheus.DefBuckets,
		},
	)

	LastSuccessTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last tick that ended in sync or updated.",
		},
	)

	LocalAddresses = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "local_addresses",
			Help:      "Usable IPv6 addresses found on the watched interface in the last tick.",
		},
	)
)

// Record metrics.
var (
	RecordsUpdatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "records_updated_total",
			Help:      "AAAA records successfully rewritten.",
		},
		[]string{"provider"},
	)

	RecordsFailedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "records_failed_total",
			Help:      "AAAA record updates that failed.",
		},
		[]string{"provider"},
	)

	RecordsSkippedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "records_skipped_total",
			Help:      "AAAA record updates that were not sent.",
		},
		[]string{"reason"},
	)
)

// Provider API metrics.
var (
	ProviderAPIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "provider_api_requests_total",
			Help:      "Provider API calls by operation and status.",
		},
		[]string{"provider", "operation", "status"},
	)

	ProviderAPIDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "provider_api_duration_seconds",
			Help:      "Provider API call latency.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"provider", "operation"},
	)

	ProviderHealthy = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "provider_healthy",
			Help:      "1 if the last provider ping succeeded, 0 otherwise.",
		},
		[]string{"provider"},
	)
)

// DNS propagation check metrics.
var DNSChecksTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "dns_checks_total",
		Help:      "Published AAAA lookups by result (published, stale, error).",
	},
	[]string{"result"},
)

// SetBuildInfo records the running version.
func SetBuildInfo(version, goVersion string) {
	BuildInfo.WithLabelValues(version, goVersion).Set(1)
}

// ObserveProviderCall records one provider API call that started at start.
func ObserveProviderCall(provider, operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	ProviderAPIRequestsTotal.WithLabelValues(provider, operation, status).Inc()
	ProviderAPIDuration.WithLabelValues(provider, operation).Observe(time.Since(start).Seconds())
}

// SetProviderHealthy records the result of a provider ping.
func SetProviderHealthy(provider string, healthy bool) {
	v := 0.0
	if healthy {
		v = 1
	}
	ProviderHealthy.WithLabelValues(provider).Set(v)
}
