// Package metrics holds the Prometheus collectors for ingestion and the API.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const Namespace = "jobportal"

type Metrics struct {
	// Ingestion
	RunsTotal        *prometheus.CounterVec
	RunDuration      prometheus.Histogram
	SourceFetches    *prometheus.CounterVec
	JobsFetched      prometheus.Counter
	JobsUpserted     prometheus.Counter
	RecordsRejected  prometheus.Counter
	LastSuccessEpoch prometheus.Gauge

	// HTTP
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

// New registers every collector on reg (the default registerer when nil).
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	m := &Metrics{}
	m.initIngest(factory)
	m.initHTTP(factory)
	return m
}

func (m *Metrics) initIngest(factory promauto.Factory) {
	m.RunsTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Subsystem: "ingest",
		Name:      "runs_total",
		Help:      "Ingestion runs by outcome",
	}, []string{"status"})

	m.RunDuration = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: Namespace,
		Subsystem: "ingest",
		Name:      "run_duration_seconds",
		Help:      "Wall time of one ingestion run",
		Buckets:   prometheus.ExponentialBuckets(0.5, 2, 10), // 0.5s to ~4min
	})

	m.SourceFetches = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Subsystem: "ingest",
		Name:      "source_fetches_total",
		Help:      "Per-source fetches by platform and outcome",
	}, []string{"platform", "status"})

	m.JobsFetched = factory.NewCounter(prometheus.CounterOpts{
		Namespace: Namespace,
		Subsystem: "ingest",
		Name:      "jobs_fetched_total",
		Help:      "Normalized jobs returned by adapters",
	})

	m.JobsUpserted = factory.NewCounter(prometheus.CounterOpts{
		Namespace: Namespace,
		Subsystem: "ingest",
		Name:      "jobs_upserted_total",
		Help:      "Jobs written to the store",
	})

	m.RecordsRejected = factory.NewCounter(prometheus.CounterOpts{
		Namespace: Namespace,
		Subsystem: "ingest",
		Name:      "records_rejected_total",
		Help:      "Records the store refused to write",
	})

	m.LastSuccessEpoch = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: Namespace,
		Subsystem: "ingest",
		Name:      "last_success_timestamp_seconds",
		Help:      "Unix time of the last run that reached the store",
	})
}

func (m *Metrics) initHTTP(factory promauto.Factory) {
	m.RequestsTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by route and status code",
	}, []string{"method", "route", "code"})

	m.RequestDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: Namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})
}
