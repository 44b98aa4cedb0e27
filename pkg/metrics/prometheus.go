// Package metrics provides Prometheus-based metrics recording for the
// context window manager.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"contextwindow/pkg/contextmgr"
)

// PrometheusRecorder implements contextmgr.MetricsRecorder using Prometheus
// counters and a histogram.
type PrometheusRecorder struct {
	processTotal   *prometheus.CounterVec
	tokensUsed     prometheus.Histogram
	rollbacksTotal prometheus.Counter
}

var _ contextmgr.MetricsRecorder = (*PrometheusRecorder)(nil)

// NewPrometheusRecorder creates a new Prometheus-based metrics recorder.
func NewPrometheusRecorder() *PrometheusRecorder {
	return &PrometheusRecorder{
		processTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cwm_process_total",
				Help: "Total number of Manager.Process calls, by whether elision or truncation fired",
			},
			[]string{"elided", "truncated"},
		),
		tokensUsed: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "cwm_tokens_used",
				Help:    "Estimated token count of the prepared history returned by Manager.Process",
				Buckets: prometheus.ExponentialBuckets(1000, 2, 12),
			},
		),
		rollbacksTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "cwm_rollbacks_total",
				Help: "Total number of Manager.RollbackAtTimestamp calls that changed the edit log",
			},
		),
	}
}

// ObserveProcess implements contextmgr.MetricsRecorder.
func (p *PrometheusRecorder) ObserveProcess(elided, truncated bool, tokensUsed int) {
	p.processTotal.WithLabelValues(boolLabel(elided), boolLabel(truncated)).Inc()
	p.tokensUsed.Observe(float64(tokensUsed))
}

// ObserveRollback implements contextmgr.MetricsRecorder.
func (p *PrometheusRecorder) ObserveRollback() {
	p.rollbacksTotal.Inc()
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
