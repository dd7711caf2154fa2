package httpapi

import (
	"net/http"
	"sync"
	"time"

	"neon-beat-back/internal/latency"
	"neon-beat-back/internal/storage/metrics"
)

var (
	apiLatency          latency.Ring
	registerLatencyOnce sync.Once
)

// latencyMiddleware records request duration into the shared p99 ring and
// surfaces it as a scrape-time gauge.
func latencyMiddleware() func(http.Handler) http.Handler {
	registerLatencyOnce.Do(func() {
		metrics.RegisterAPILatencyP99(func() float64 { return apiLatency.P99().Seconds() })
	})
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			apiLatency.Record(time.Since(start))
		})
	}
}

// LatencyP99 returns the 99th percentile of recent request latencies.
func LatencyP99() time.Duration { return apiLatency.P99() }
