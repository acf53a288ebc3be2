// Package metrics provides Prometheus instrumentation for BlockSage.
package metrics

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTPRequestsTotal counts HTTP requests by method, route and status class.
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "blocksage",
			Name:      "http_requests_total",
			Help:      "Total HTTP requests by method, route pattern, and status class.",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration observes request latency by method and route.
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "blocksage",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// KnowledgeRequestsTotal counts knowledge service calls by outcome.
	KnowledgeRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "blocksage",
			Subsystem: "advisor",
			Name:      "knowledge_requests_total",
			Help:      "Knowledge service calls by outcome (success, network, timeout, canceled, malformed_response).",
		},
		[]string{"outcome"},
	)

	// FallbackRepliesTotal counts fallback responder replies by matched rule.
	FallbackRepliesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "blocksage",
			Subsystem: "advisor",
			Name:      "fallback_replies_total",
			Help:      "Replies synthesized by the fallback responder, by rule.",
		},
		[]string{"rule"},
	)

	// ActiveSessions tracks open advisory sessions.
	ActiveSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "blocksage",
			Subsystem: "advisor",
			Name:      "active_sessions",
			Help:      "Number of currently open advisory sessions.",
		},
	)

	// ScansTotal counts completed portfolio scans by overall label.
	ScansTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "blocksage",
			Subsystem: "scan",
			Name:      "completed_total",
			Help:      "Completed portfolio scans by overall risk label.",
		},
		[]string{"label"},
	)

	// ScanFailuresTotal counts scans that returned an error, by reason.
	ScanFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "blocksage",
			Subsystem: "scan",
			Name:      "failures_total",
			Help:      "Failed portfolio scans by reason (feed, validation, store).",
		},
		[]string{"reason"},
	)

	// ScanDuration observes end-to-end scan latency.
	ScanDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "blocksage",
			Subsystem: "scan",
			Name:      "duration_seconds",
			Help:      "Portfolio scan duration in seconds, feed fetch included.",
			Buckets:   prometheus.DefBuckets,
		},
	)

	// AlertsSentTotal counts alert notifications handed to the notificator.
	AlertsSentTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "blocksage",
			Name:      "alerts_sent_total",
			Help:      "Risk alerts handed to the notificator.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		KnowledgeRequestsTotal,
		FallbackRepliesTotal,
		ActiveSessions,
		ScansTotal,
		ScanFailuresTotal,
		ScanDuration,
		AlertsSentTotal,
	)
}

// Middleware records request count and latency per route pattern.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		timer := prometheus.NewTimer(HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
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

// Handler serves the Prometheus exposition format.
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

func statusBucket(code int) string {
	return fmt.Sprintf("%dxx", code/100)
}
