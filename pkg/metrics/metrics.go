// Package metrics records per-step results as Prometheus gauges for the node_exporter textfile collector.
package metrics

import (
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

type Recorder struct {
	registry *prometheus.Registry
	duration *prometheus.GaugeVec
	success  *prometheus.GaugeVec
	action   *prometheus.GaugeVec
	started  prometheus.Gauge
}

func NewRecorder(runID string) *Recorder {
	constLabels := prometheus.Labels{"run_id": runID}
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		duration: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name:        "kubeboot_step_duration_seconds",
			Help:        "Duration of the last run of each provisioning step.",
			ConstLabels: constLabels,
		}, []string{"step"}),
		success: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name:        "kubeboot_step_success",
			Help:        "Whether the last run of each provisioning step succeeded.",
			ConstLabels: constLabels,
		}, []string{"step"}),
		action: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name:        "kubeboot_cluster_action",
			Help:        "Cluster action chosen by the last run.",
			ConstLabels: constLabels,
		}, []string{"action"}),
		started: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "kubeboot_run_start_timestamp_seconds",
			Help:        "Unix time the last run started.",
			ConstLabels: constLabels,
		}),
	}
	r.registry.MustRegister(r.duration, r.success, r.action, r.started)
	return r
}

func (r *Recorder) Started(t time.Time) {
	r.started.Set(float64(t.Unix()))
}

func (r *Recorder) ObserveStep(step string, d time.Duration, err error) {
	r.duration.WithLabelValues(step).Set(d.Seconds())
	if err != nil {
		r.success.WithLabelValues(step).Set(0)
		return
	}
	r.success.WithLabelValues(step).Set(1)
}

func (r *Recorder) SetAction(action string) {
	r.action.Reset()
	r.action.WithLabelValues(action).Set(1)
}

func (r *Recorder) Gatherer() prometheus.Gatherer {
	return r.registry
}

// WriteTextfile writes the gathered metrics to file. An empty file name is a no-op.
func (r *Recorder) WriteTextfile(file string) error {
	if file == "" {
		return nil
	}
	return errors.Wrapf(prometheus.WriteToTextfile(file, r.registry), "writing metrics to %s", file)
}
