// Package metrics counts what a batch run did and writes the counters in the
// Prometheus text format, for pickup by a node_exporter textfile collector.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/menta2k/snipper/pkg/types"
)

const namespace = "snipper"

// Recorder holds the counters of one process
type Recorder struct {
	registry   *prometheus.Registry
	manifests  *prometheus.CounterVec
	thumbnails *prometheus.CounterVec
	failures   *prometheus.CounterVec
	lastRun    *prometheus.GaugeVec
}

// New creates a Recorder with its own registry
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		manifests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "manifests_total",
			Help:      "Manifest status transitions.",
		}, []string{"status"}),
		thumbnails: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "thumbnails_total",
			Help:      "Thumbnails written, by artifact type.",
		}, []string{"type"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "annotations_failed_total",
			Help:      "Annotations that aborted their manifest, by reason.",
		}, []string{"reason"}),
		lastRun: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last run finished, by outcome.",
		}, []string{"outcome"}),
	}
	r.registry.MustRegister(r.manifests, r.thumbnails, r.failures, r.lastRun)
	return r
}

// Registry exposes the underlying registry
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

func (r *Recorder) ManifestStatus(status string) {
	r.manifests.WithLabelValues(status).Inc()
}

func (r *Recorder) Thumbnail(t types.ArtifactType) {
	r.thumbnails.WithLabelValues(string(t)).Inc()
}

func (r *Recorder) AnnotationFailed(reason string) {
	r.failures.WithLabelValues(reason).Inc()
}

// RunFinished stamps the end of a run
func (r *Recorder) RunFinished(success bool, at time.Time) {
	outcome := "failure"
	if success {
		outcome = "success"
	}
	r.lastRun.WithLabelValues(outcome).Set(float64(at.Unix()))
}

// WriteTextfile atomically writes all counters to path
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
