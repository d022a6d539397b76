package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// MessageMetrics records contract message activity segmented by operation
// and outcome (exit-code label or "ok").
type MessageMetrics struct {
	handled *prometheus.CounterVec
}

var (
	messageMetricsOnce sync.Once
	messageRegistry    *MessageMetrics
)

// Messages returns the lazily initialised message metrics registry.
func Messages() *MessageMetrics {
	messageMetricsOnce.Do(func() {
		messageRegistry = &MessageMetrics{
			handled: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "escrow",
				Name:      "messages_total",
				Help:      "Total inbound contract messages segmented by operation and outcome.",
			}, []string{"op", "outcome"}),
		}
		prometheus.MustRegister(messageRegistry.handled)
	})
	return messageRegistry
}

// Observe records one handled message.
func (m *MessageMetrics) Observe(op, outcome string) {
	if m == nil || m.handled == nil {
		return
	}
	m.handled.WithLabelValues(op, outcome).Inc()
}
