package provisioning

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records per-run pipeline metrics in a private registry.
type Metrics struct {
	Registry *prometheus.Registry

	phaseDuration *prometheus.HistogramVec
	runsTotal     *prometheus.CounterVec
}

// NewMetrics creates and registers the pipeline metrics.
func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		phaseDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "onpremctl",
				Subsystem: "pipeline",
				Name:      "phase_duration_seconds",
				Help:      "Duration of bootstrap phases in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.5, 2, 12), // 0.5s to ~17min
			},
			[]string{"phase", "result"},
		),
		runsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "onpremctl",
				Subsystem: "pipeline",
				Name:      "runs_total",
				Help:      "Bootstrap runs by result and final stage",
			},
			[]string{"result", "stage"},
		),
	}
	m.Registry.MustRegister(m.phaseDuration, m.runsTotal)
	return m
}

// ObservePhase records a phase duration.
func (m *Metrics) ObservePhase(phase string, d time.Duration, err error) {
	m.phaseDuration.WithLabelValues(phase, result(err)).Observe(d.Seconds())
}

// RecordRun counts a finished run.
func (m *Metrics) RecordRun(stage Stage, err error) {
	m.runsTotal.WithLabelValues(result(err), string(stage)).Inc()
}

// WriteTextfile writes all metrics in the node-exporter textfile format.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.Registry)
}

func result(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}
