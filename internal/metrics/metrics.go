package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Item outcomes reported by the build.
const (
	OutcomeRendered = "rendered"
	OutcomeCopied   = "copied"
	OutcomeFailed   = "failed"
	OutcomeSkipped  = "skipped"
)

// Recorder collects build counters in a private registry so they can be
// written to a node_exporter textfile after each run.
type Recorder struct {
	registry  *prometheus.Registry
	items     *prometheus.CounterVec
	protected prometheus.Counter
	artifacts prometheus.Counter
	duration  prometheus.Gauge
	finished  prometheus.Gauge
}

// NewRecorder registers the garden build metrics.
func NewRecorder() (*Recorder, error) {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		items: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "garden_build_items_total",
				Help: "Content items processed by the last build, by format and outcome.",
			},
			[]string{"format", "outcome"},
		),
		protected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "garden_build_protected_items_total",
			Help: "Items published behind a password gate.",
		}),
		artifacts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "garden_build_artifacts_total",
			Help: "Files written to the output.",
		}),
		duration: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "garden_build_duration_seconds",
			Help: "Wall time of the last build.",
		}),
		finished: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "garden_build_last_finished_timestamp_seconds",
			Help: "Unix time the last build finished.",
		}),
	}

	for _, c := range []prometheus.Collector{r.items, r.protected, r.artifacts, r.duration, r.finished} {
		if err := r.registry.Register(c); err != nil {
			return nil, fmt.Errorf("metrics: register: %w", err)
		}
	}
	return r, nil
}

// ObserveItem counts one processed item.
func (r *Recorder) ObserveItem(format, outcome string) {
	if r == nil {
		return
	}
	r.items.WithLabelValues(format, outcome).Inc()
}

// ObserveProtected counts one item published behind a gate.
func (r *Recorder) ObserveProtected() {
	if r == nil {
		return
	}
	r.protected.Inc()
}

// ObserveArtifact counts one written file.
func (r *Recorder) ObserveArtifact() {
	if r == nil {
		return
	}
	r.artifacts.Inc()
}

// ObserveBuild records the duration and completion time of a build.
func (r *Recorder) ObserveBuild(duration time.Duration, finishedAt time.Time) {
	if r == nil {
		return
	}
	r.duration.Set(duration.Seconds())
	r.finished.Set(float64(finishedAt.Unix()))
}

// Gatherer exposes the registry for tests and custom exporters.
func (r *Recorder) Gatherer() prometheus.Gatherer {
	return r.registry
}

// WriteTextfile writes the current values in the text exposition format.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("metrics: write %s: %w", path, err)
	}
	return nil
}
