// Package metrics provides Prometheus instrumentation for the TrustNet service.
package metrics

import (
	"context"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTPRequestsTotal counts HTTP requests by method, path, and status.
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "trustnet",
			Name:      "http_requests_total",
			Help:      "Total HTTP requests by method, path pattern, and status code.",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration observes request latency by method and path.
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "trustnet",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// ChallengesIssuedTotal counts issued challenges by kind.
	ChallengesIssuedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "trustnet",
			Name:      "challenges_issued_total",
			Help:      "Total verification challenges issued, by challenge kind.",
		},
		[]string{"kind"},
	)

	// ChallengeValidationsTotal counts validation attempts by result.
	ChallengeValidationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "trustnet",
			Name:      "challenge_validations_total",
			Help:      "Total challenge validation attempts by result (pass, fail, not_found).",
		},
		[]string{"result"},
	)

	// ActiveChallenges tracks challenges issued but not yet validated.
	ActiveChallenges = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "trustnet",
			Name:      "active_challenges",
			Help:      "Number of outstanding (unvalidated) challenges.",
		},
	)

	// BiometricSamplesTotal counts biometric frame evaluations.
	BiometricSamplesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "trustnet",
			Name:      "biometric_samples_total",
			Help:      "Total biometric frame evaluations.",
		},
	)

	// TrustScore tracks the current smoothed trust score.
	TrustScore = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "trustnet",
			Name:      "trust_score",
			Help:      "Current exponentially smoothed trust score (0-100).",
		},
	)

	// TrustEvaluationsTotal counts trust score evaluations by level.
	TrustEvaluationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "trustnet",
			Name:      "trust_evaluations_total",
			Help:      "Total trust score evaluations by resulting level.",
		},
		[]string{"level"},
	)

	// ActiveWebSocketClients tracks connected WebSocket clients.
	ActiveWebSocketClients = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "trustnet",
			Name:      "active_websocket_clients",
			Help:      "Number of currently connected WebSocket clients.",
		},
	)

	// GoroutineCount tracks the current number of goroutines.
	GoroutineCount = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "trustnet", Name: "goroutines",
		Help: "Current number of goroutines.",
	})
)

func init() {
	prometheus.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		ChallengesIssuedTotal,
		ChallengeValidationsTotal,
		ActiveChallenges,
		BiometricSamplesTotal,
		TrustScore,
		TrustEvaluationsTotal,
		ActiveWebSocketClients,
		GoroutineCount,
	)
}

// StartRuntimeCollector periodically samples the goroutine count into its
// Prometheus gauge. Call in a goroutine; exits when ctx is done.
func StartRuntimeCollector(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			GoroutineCount.Set(float64(runtime.NumGoroutine()))
		}
	}
}

// Middleware returns a gin middleware that records request metrics.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		timer := prometheus.NewTimer(HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(), // Uses route pattern, not actual path (avoids cardinality explosion)
		))

		c.Next()

		timer.ObserveDuration()
		HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			statusBucket(c.Writer.Status()),
		).Inc()
	}
}

// Handler returns the Prometheus metrics HTTP handler for /metrics endpoint.
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// statusBucket groups HTTP status codes into buckets (2xx, 3xx, 4xx, 5xx).
func statusBucket(code int) string {
	switch {
	case code < 200:
		return "1xx"
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}
