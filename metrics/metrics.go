package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registered once per process on the default registry, served by promhttp at /metrics.
var (
	SessionEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "skillswap_auth_session_events_total",
		Help: "Session lifecycle events by type and outcome",
	}, []string{"event", "outcome"})

	RateLimitDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "skillswap_ratelimit_decisions_total",
		Help: "Rate limiter decisions by limiter prefix and outcome",
	}, []string{"limiter", "outcome"})

	RateLimitBackendFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "skillswap_ratelimit_backend_failures_total",
		Help: "Distributed counter backend failures that opened the breaker",
	})

	RateLimitFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "skillswap_ratelimit_fallback_increments_total",
		Help: "Increments served by the in-process store instead of the distributed backend",
	})
)

func ObserveSession(event string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	SessionEvents.WithLabelValues(event, outcome).Inc()
}

func ObserveRateLimit(limiter string, allowed bool) {
	outcome := "allowed"
	if !allowed {
		outcome = "denied"
	}
	RateLimitDecisions.WithLabelValues(limiter, outcome).Inc()
}
