package hooks

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/pixelgate/imagepipe/core"
)

// PrometheusMetrics exports pipeline metrics through a prometheus registry.
type PrometheusMetrics struct {
	stageDuration *prometheus.HistogramVec
	outputBytes   prometheus.Counter
	errorsTotal   *prometheus.CounterVec
}

// NewPrometheusMetrics registers the collectors on reg and returns the
// collector. Pass prometheus.DefaultRegisterer for the default registry.
func NewPrometheusMetrics(reg prometheus.Registerer) (*PrometheusMetrics, error) {
	m := &PrometheusMetrics{
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "imagepipe",
			Name:      "stage_duration_seconds",
			Help:      "Time spent in each pipeline stage.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
		}, []string{"stage"}),
		outputBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "imagepipe",
			Name:      "output_bytes_total",
			Help:      "Total bytes of encoded output produced.",
		}),
		errorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "imagepipe",
			Name:      "errors_total",
			Help:      "Pipeline errors by stage and kind.",
		}, []string{"stage", "kind"}),
	}
	for _, c := range []prometheus.Collector{m.stageDuration, m.outputBytes, m.errorsTotal} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *PrometheusMetrics) RecordStageTime(stage string, d time.Duration) {
	m.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (m *PrometheusMetrics) RecordOutputBytes(n int64) {
	m.outputBytes.Add(float64(n))
}

func (m *PrometheusMetrics) RecordError(stage string, kind string) {
	m.errorsTotal.WithLabelValues(stage, kind).Inc()
}

var _ core.MetricsCollector = (*PrometheusMetrics)(nil)
