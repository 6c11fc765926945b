package middleware

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "rfqportal",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by method, route pattern and status code.",
	}, []string{"method", "route", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "rfqportal",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency by method and route pattern.",
		// Email routes wait on the model, so the upper buckets run long.
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
	}, []string{"method", "route"})

	mcpToolCallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "rfqportal",
		Subsystem: "mcp",
		Name:      "tool_calls_total",
		Help:      "MCP tool calls by tool and outcome.",
	}, []string{"tool", "outcome"})
)
