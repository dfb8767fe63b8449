// Package metrics defines the Prometheus metrics exposed by the server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles all collectors. Holding them in a struct keeps tests
// isolated: each test registers against its own registry.
type Metrics struct {
	FetchRuns        *prometheus.CounterVec
	ItemsFetched     *prometheus.CounterVec
	DigestsStored    prometheus.Counter
	SummarizeSeconds *prometheus.HistogramVec
	Exports          *prometheus.CounterVec
	SettingsWrites   prometheus.Counter
	BuildInfo        *prometheus.GaugeVec
}

// New creates and registers all collectors against r.
func New(r prometheus.Registerer) *Metrics {
	m := &Metrics{
		FetchRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reconly_fetch_runs_total",
				Help: "Total number of fetch runs, by fetcher and outcome",
			},
			[]string{"fetcher", "status"},
		),
		ItemsFetched: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reconly_items_fetched_total",
				Help: "Total number of items returned by fetchers",
			},
			[]string{"fetcher"},
		),
		DigestsStored: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "reconly_digests_stored_total",
				Help: "Total number of new digests stored",
			},
		),
		SummarizeSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "reconly_summarize_duration_seconds",
				Help:    "Duration of summarization calls in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"provider"},
		),
		Exports: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reconly_exports_total",
				Help: "Total number of digest exports, by exporter and outcome",
			},
			[]string{"exporter", "status"},
		),
		SettingsWrites: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "reconly_settings_writes_total",
				Help: "Total number of accepted settings updates",
			},
		),
		BuildInfo: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "reconly_build_info",
				Help: "Build information for the reconly server",
			},
			[]string{"version", "sha", "date"},
		),
	}
	r.MustRegister(
		m.FetchRuns,
		m.ItemsFetched,
		m.DigestsStored,
		m.SummarizeSeconds,
		m.Exports,
		m.SettingsWrites,
		m.BuildInfo,
	)
	return m
}

// SetBuildInfo records the build identity as a constant gauge.
func (m *Metrics) SetBuildInfo(version, sha, date string) {
	m.BuildInfo.WithLabelValues(version, sha, date).Set(1)
}
