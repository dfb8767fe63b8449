package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsRegisterAndCount(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.FetchRuns.WithLabelValues("rss", "ok").Inc()
	m.FetchRuns.WithLabelValues("rss", "ok").Inc()
	m.ItemsFetched.WithLabelValues("rss").Add(5)
	m.DigestsStored.Inc()
	m.Exports.WithLabelValues("obsidian", "ok").Inc()
	m.SettingsWrites.Inc()
	m.SetBuildInfo("1.0.0", "abc123", "2025-06-01")

	if got := testutil.ToFloat64(m.FetchRuns.WithLabelValues("rss", "ok")); got != 2 {
		t.Fatalf("fetch runs: got %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.ItemsFetched.WithLabelValues("rss")); got != 5 {
		t.Fatalf("items fetched: got %v, want 5", got)
	}
	if got := testutil.ToFloat64(m.DigestsStored); got != 1 {
		t.Fatalf("digests stored: got %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.BuildInfo.WithLabelValues("1.0.0", "abc123", "2025-06-01")); got != 1 {
		t.Fatalf("build info: got %v, want 1", got)
	}
}

func TestMetricsIsolatedRegistries(t *testing.T) {
	a := New(prometheus.NewRegistry())
	b := New(prometheus.NewRegistry())
	a.DigestsStored.Inc()
	if got := testutil.ToFloat64(b.DigestsStored); got != 0 {
		t.Fatalf("registries leaked state: got %v", got)
	}
}
