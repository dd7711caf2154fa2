// Package metrics exposes the Prometheus gauges for buzzer/subscriber
// counts and degraded mode, registered against the default registry and
// served at /metrics via promhttp.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ConnectedBuzzers = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "neon_beat",
		Name:      "connected_buzzers",
		Help:      "Number of currently connected buzzer devices.",
	})

	PublicSubscribers = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "neon_beat",
		Name:      "public_subscribers",
		Help:      "Number of currently connected public SSE subscribers.",
	})

	AdminSubscribers = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "neon_beat",
		Name:      "admin_subscribers",
		Help:      "Number of currently connected admin SSE subscribers (0 or 1).",
	})

	Degraded = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "neon_beat",
		Name:      "degraded",
		Help:      "1 if the storage backend is currently degraded, 0 otherwise.",
	})
)

// RegisterAPILatencyP99 exposes the HTTP layer's rolling p99 as a gauge,
// sampled at scrape time.
func RegisterAPILatencyP99(sample func() float64) {
	promauto.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "neon_beat",
		Name:      "api_latency_p99_seconds",
		Help:      "99th percentile of recent HTTP request latencies.",
	}, sample)
}

func SetDegraded(degraded bool) {
	if degraded {
		Degraded.Set(1)
		return
	}
	Degraded.Set(0)
}
