// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file holds the Prometheus instrumentation of the HTTP surface. Labels
// use the registered route (/bots/:bot/intents), never the raw path of a
// matched request, so bot ids do not become label values.
package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// unmatchedRoute labels requests that matched no route.
const unmatchedRoute = "unmatched"

var (
	httpReqs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "route", "status"},
	)

	httpLat = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	httpInflight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_inflight",
			Help: "Current number of in-flight HTTP requests.",
		},
	)

	// Webhook payloads and exports dominate the size range.
	sizeBuckets = []float64{
		200, 500, 1 << 10, 4 << 10, 16 << 10,
		64 << 10, 256 << 10, 1 << 20, 4 << 20,
	}

	httpReqSize = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_size_bytes",
			Help:    "Size of HTTP request bodies in bytes, when declared.",
			Buckets: sizeBuckets,
		},
		[]string{"method", "route"},
	)

	httpRespSize = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_response_size_bytes",
			Help:    "Size of HTTP responses in bytes.",
			Buckets: sizeBuckets,
		},
		[]string{"method", "route"},
	)

	idemReplays = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "idempotent_replays_total",
			Help: "Create requests answered from a stored idempotent result.",
		},
		[]string{"route"},
	)
)

func init() {
	prometheus.MustRegister(httpReqs, httpLat, httpInflight, httpReqSize, httpRespSize, idemReplays)
}

// Metrics records count, latency, in-flight, request and response sizes
// per route, and counts idempotent replays. Install it after
// IdempotencyValidator so replays are visible.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		httpInflight.Inc()
		defer httpInflight.Dec()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}
		method := c.Request.Method

		httpReqs.WithLabelValues(method, route, strconv.Itoa(c.Writer.Status())).Inc()
		httpLat.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
		if n := c.Request.ContentLength; n > 0 {
			httpReqSize.WithLabelValues(method, route).Observe(float64(n))
		}
		if size := c.Writer.Size(); size >= 0 {
			httpRespSize.WithLabelValues(method, route).Observe(float64(size))
		}
		if IsReplay(c) {
			idemReplays.WithLabelValues(route).Inc()
		}
	}
}
