// Package metrics holds the Prometheus collectors of the fetch pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics groups the collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	RefreshTotal   *prometheus.CounterVec
	QueryFailures  prometheus.Counter
	CacheLookups   *prometheus.CounterVec
	SourceServed   *prometheus.CounterVec
	FetchDuration  prometheus.Histogram
	IngestUpserted *prometheus.CounterVec
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		RefreshTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "property_browser_refresh_total",
				Help: "Remote refresh attempts by outcome",
			},
			[]string{"outcome"},
		),
		QueryFailures: f.NewCounter(
			prometheus.CounterOpts{
				Name: "property_browser_query_failures_total",
				Help: "Failed store queries",
			},
		),
		CacheLookups: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "property_browser_cache_lookups_total",
				Help: "Result cache lookups by result",
			},
			[]string{"result"},
		),
		SourceServed: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "property_browser_source_served_total",
				Help: "Fetch results by the source that served them",
			},
			[]string{"source"},
		),
		FetchDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "property_browser_fetch_duration_seconds",
				Help:    "Duration of a refresh and query cycle in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),
		IngestUpserted: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "property_browser_ingest_rows_total",
				Help: "Rows written by ingestion runs by result",
			},
			[]string{"result"},
		),
	}
}

func (m *Metrics) Refresh(outcome string) {
	if m == nil {
		return
	}
	m.RefreshTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) QueryFailed() {
	if m == nil {
		return
	}
	m.QueryFailures.Inc()
}

func (m *Metrics) CacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookups.WithLabelValues(result).Inc()
}

func (m *Metrics) Served(source string) {
	if m == nil {
		return
	}
	m.SourceServed.WithLabelValues(source).Inc()
}

func (m *Metrics) ObserveFetch(d time.Duration) {
	if m == nil {
		return
	}
	m.FetchDuration.Observe(d.Seconds())
}

func (m *Metrics) Ingested(ok bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "error"
	}
	m.IngestUpserted.WithLabelValues(result).Inc()
}
