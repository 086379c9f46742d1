package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/DBarbosa15987/clav-migrador-sub000/internal/report"
)

const namespace = "clavcheck"

// Recorder collects run metrics into a private registry.
// Safe for concurrent use; it satisfies correction.Observer.
type Recorder struct {
	registry *prometheus.Registry

	runs        prometheus.Counter
	records     prometheus.Gauge
	failures    *prometheus.GaugeVec
	structural  *prometheus.GaugeVec
	warnings    prometheus.Gauge
	regressions prometheus.Gauge
	fixes       *prometheus.CounterVec
	phase       *prometheus.HistogramVec
}

// New returns a Recorder with every collector registered.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		runs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Validation runs completed.",
		}),
		records: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "records",
			Help:      "Records in the last closed graph.",
		}),
		failures: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "invariant_failures",
			Help:      "Invariant failures in the last run, by invariant and fix status.",
		}, []string{"invariant", "status"}),
		structural: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "structural_errors",
			Help:      "Load errors in the last run, by severity.",
		}, []string{"severity"}),
		warnings: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "warnings",
			Help:      "Warnings in the last run.",
		}),
		regressions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "regressions",
			Help:      "Failures introduced by corrections in the last run.",
		}),
		fixes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fix_attempts_total",
			Help:      "Correction attempts, by invariant and outcome.",
		}, []string{"invariant", "status"}),
		phase: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "phase_duration_seconds",
			Help:      "Time spent in each pipeline phase.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
		}, []string{"phase"}),
	}
	r.registry.MustRegister(
		r.runs, r.records, r.failures, r.structural,
		r.warnings, r.regressions, r.fixes, r.phase,
	)
	return r
}

// Registry returns the registry backing r.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// ObserveFix counts one correction attempt.
func (r *Recorder) ObserveFix(invariantID string, status report.FixStatus) {
	r.fixes.WithLabelValues(invariantID, string(status)).Inc()
}

// ObservePhase records how long a pipeline phase took.
func (r *Recorder) ObservePhase(phase string, d time.Duration) {
	r.phase.WithLabelValues(phase).Observe(d.Seconds())
}

// ObserveRecords sets the record count of the closed graph.
func (r *Recorder) ObserveRecords(n int) {
	r.records.Set(float64(n))
}

// ObserveReport replaces the per-run gauges with the totals of rep and
// counts the run.
func (r *Recorder) ObserveReport(rep *report.Report) {
	r.failures.Reset()
	for _, f := range rep.All() {
		r.failures.WithLabelValues(f.InvariantID, string(f.FixStatus)).Inc()
	}

	c := rep.Counts()
	r.structural.WithLabelValues("grave").Set(float64(c.Grave))
	r.structural.WithLabelValues("normal").Set(float64(c.Normal))
	r.warnings.Set(float64(c.Warnings))
	r.regressions.Set(float64(c.Regressions))
	r.runs.Inc()
}

// WriteTextfile writes every metric to path atomically.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics %s: %w", path, err)
	}
	return nil
}
