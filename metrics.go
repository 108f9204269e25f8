package protect

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// metricsCollector wraps the prometheus collectors an EncryptionClient
// registers for its operations. A nil-safe zero value (metricsCollector{})
// is usable directly: all methods guard against missing collectors so a
// client built with metrics disabled still runs.
type metricsCollector struct {
	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
}

// newMetricsCollector builds and registers the client's collectors against
// reg. Passing nil skips registration; observeOperation still updates the
// collectors, but they are not exposed through any registry.
func newMetricsCollector(reg prometheus.Registerer) *metricsCollector {
	mc := &metricsCollector{
		operationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "protect_operations_total",
			Help: "Total number of encryption client operations, by outcome.",
		}, []string{"outcome"}),
		operationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "protect_operation_duration_seconds",
			Help:    "Duration of encryption client operations in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"outcome"}),
	}
	if reg != nil {
		reg.MustRegister(mc.operationsTotal, mc.operationDuration)
	}
	return mc
}

// observeOperation records one completed operation's outcome and duration.
func (mc *metricsCollector) observeOperation(outcome string, duration time.Duration) {
	if mc == nil || mc.operationsTotal == nil {
		return
	}
	mc.operationsTotal.WithLabelValues(outcome).Inc()
	mc.operationDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}
