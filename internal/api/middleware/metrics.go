package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "rotorgate",
		Name:      "http_requests_total",
		Help:      "HTTP requests handled, by method, route and status.",
	}, []string{"method", "route", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "rotorgate",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	upstreamRetries = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "rotorgate",
		Name:      "upstream_rotation_retries_total",
		Help:      "Rate-limit rotations that led to a transparent retry.",
	}, []string{"provider"})
)

// Metrics records per-route request counts and latency.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		requestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		requestDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// CountRotationRetry records one transparent rate-limit retry for provider.
func CountRotationRetry(provider string) {
	upstreamRetries.WithLabelValues(provider).Inc()
}
