package observer

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/dcshock/piperline/pipeline"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsObserver records pipeline metrics with Prometheus.
type MetricsObserver struct {
	runs          *prometheus.CounterVec
	runDuration   *prometheus.HistogramVec
	inFlight      *prometheus.GaugeVec
	stages        *prometheus.CounterVec
	stageDuration *prometheus.HistogramVec

	// started holds the ids of runs counted in inFlight.
	started sync.Map
}

// NewMetricsObserver creates and registers the collectors on reg under
// namespace. Registering twice on the same registerer panics, as with promauto.
func NewMetricsObserver(reg prometheus.Registerer, namespace string) *MetricsObserver {
	f := promauto.With(reg)
	return &MetricsObserver{
		runs: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pipeline_runs_total",
			Help:      "Settled pipeline runs by outcome.",
		}, []string{"pipeline", "outcome"}),
		runDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pipeline_run_duration_seconds",
			Help:      "Time from run start to settlement.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"pipeline"}),
		inFlight: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_runs_in_flight",
			Help:      "Runs started but not yet settled.",
		}, []string{"pipeline"}),
		stages: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pipeline_stages_total",
			Help:      "Resolved handler invocations by resolution.",
		}, []string{"pipeline", "stage", "resolution"}),
		stageDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pipeline_stage_duration_seconds",
			Help:      "Time from handler invocation to resolution.",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1, 5},
		}, []string{"pipeline", "stage"}),
	}
}

// RunStarted implements pipeline.Observer.
func (m *MetricsObserver) RunStarted(_ context.Context, runID, name string, _ any) {
	if _, loaded := m.started.LoadOrStore(runID, name); !loaded {
		m.inFlight.WithLabelValues(name).Inc()
	}
}

// StageStarted implements pipeline.Observer.
func (m *MetricsObserver) StageStarted(context.Context, string, int, any) {}

// StageResolved implements pipeline.Observer.
func (m *MetricsObserver) StageResolved(ctx context.Context, _ string, stage int, how pipeline.Resolution, _ any, d time.Duration) {
	name := pipelineName(ctx)
	idx := strconv.Itoa(stage)
	m.stages.WithLabelValues(name, idx, how.String()).Inc()
	m.stageDuration.WithLabelValues(name, idx).Observe(d.Seconds())
}

// RunCompleted implements pipeline.Observer.
func (m *MetricsObserver) RunCompleted(ctx context.Context, runID string, _ any, err error, d time.Duration) {
	name := pipelineName(ctx)
	outcome := "done"
	if err != nil {
		outcome = "error"
	}
	m.runs.WithLabelValues(name, outcome).Inc()
	m.runDuration.WithLabelValues(name).Observe(d.Seconds())
	if started, ok := m.started.LoadAndDelete(runID); ok {
		m.inFlight.WithLabelValues(started.(string)).Dec()
	}
}
