// Package metrics exposes Prometheus counters for the analysis pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder records pipeline activity through Prometheus collectors.
type Recorder struct {
	scansTotal       *prometheus.CounterVec
	patternsAccepted *prometheus.CounterVec
	errorsTotal      *prometheus.CounterVec
	scanDuration     *prometheus.HistogramVec
}

// New registers the collectors on the default registry.
func New() *Recorder {
	return &Recorder{
		scansTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wave_scans_total",
				Help: "Total number of analysis scans served",
			},
			[]string{"operation"},
		),
		patternsAccepted: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wave_patterns_accepted_total",
				Help: "Total number of patterns that cleared validation",
			},
			[]string{"kind"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wave_errors_total",
				Help: "Total number of request errors",
			},
			[]string{"type"},
		),
		scanDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "wave_scan_duration_seconds",
				Help:    "Duration of analysis scans in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordScan records one completed scan of the named operation.
func (r *Recorder) RecordScan(op string, seconds float64) {
	r.scansTotal.WithLabelValues(op).Inc()
	r.scanDuration.WithLabelValues(op).Observe(seconds)
}

// RecordPattern records one accepted pattern of the given kind.
func (r *Recorder) RecordPattern(kind string) {
	r.patternsAccepted.WithLabelValues(kind).Inc()
}

// RecordError records a request error by type.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}
