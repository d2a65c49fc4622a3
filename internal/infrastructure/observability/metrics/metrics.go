// Package metrics holds the Prometheus collectors for ingestion, retention,
// scheduling and HTTP traffic.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "cmi_charts"

// Metrics holds the Prometheus counters and histograms for the application.
type Metrics struct {
	// Ingestion
	ImagesTranscoded  prometheus.Counter
	ThumbsGenerated   prometheus.Counter
	SourcesRemoved    *prometheus.CounterVec // labels: kind={image,marker}
	MarkersNormalized *prometheus.CounterVec // labels: dialect={map,section}
	IngestFailures    *prometheus.CounterVec // labels: stage={transcode,normalize}

	// Retention
	RunsSwept prometheus.Counter

	// Scheduler
	JobRuns     *prometheus.CounterVec // labels: job
	JobSkips    *prometheus.CounterVec // labels: job
	JobFailures *prometheus.CounterVec // labels: job
	JobDuration *prometheus.HistogramVec

	// HTTP
	HTTPRequests *prometheus.CounterVec // labels: route, code
}

// New creates all collectors and registers them on reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := build()
	for _, c := range m.collectors() {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register metric: %w", err)
		}
	}
	return m, nil
}

// NewForTesting creates Metrics on a fresh registry so tests never collide.
func NewForTesting() *Metrics {
	m, err := New(prometheus.NewRegistry())
	if err != nil {
		panic(err)
	}
	return m
}

func build() *Metrics {
	return &Metrics{
		ImagesTranscoded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "images_transcoded_total",
			Help:      "Raster images converted to WebP.",
		}),
		ThumbsGenerated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "thumbnails_generated_total",
			Help:      "WebP thumbnails written.",
		}),
		SourcesRemoved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sources_removed_total",
			Help:      "Source files deleted after conversion.",
		}, []string{"kind"}),
		MarkersNormalized: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "markers_normalized_total",
			Help:      "XML marker files converted to JSON records.",
		}, []string{"dialect"}),
		IngestFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingest_failures_total",
			Help:      "Files that could not be converted.",
		}, []string{"stage"}),
		RunsSwept: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_swept_total",
			Help:      "Model run directories removed by retention.",
		}),
		JobRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "job_runs_total",
			Help:      "Scheduled job executions.",
		}, []string{"job"}),
		JobSkips: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "job_skips_total",
			Help:      "Ticks skipped because the previous run was still executing.",
		}, []string{"job"}),
		JobFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "job_failures_total",
			Help:      "Scheduled job executions that returned an error.",
		}, []string{"job"}),
		JobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "job_duration_seconds",
			Help:      "Duration of scheduled job executions.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"job"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"route", "code"}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.ImagesTranscoded,
		m.ThumbsGenerated,
		m.SourcesRemoved,
		m.MarkersNormalized,
		m.IngestFailures,
		m.RunsSwept,
		m.JobRuns,
		m.JobSkips,
		m.JobFailures,
		m.JobDuration,
		m.HTTPRequests,
	}
}
