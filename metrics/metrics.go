// Package metrics exposes prometheus counters for the gateway.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ChatRequests counts chat requests by endpoint and outcome.
	ChatRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chatgate_chat_requests_total",
		Help: "Chat requests by endpoint and outcome.",
	}, []string{"endpoint", "outcome"})

	// RateLimited counts requests rejected by the rate limiter.
	RateLimited = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chatgate_rate_limited_total",
		Help: "Requests rejected by the rate limiter.",
	})

	// ToolExecutions counts tool executions by tool name.
	ToolExecutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chatgate_tool_executions_total",
		Help: "Tool executions by tool name.",
	}, []string{"tool"})

	// UpstreamErrors counts failed upstream completion calls.
	UpstreamErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chatgate_upstream_errors_total",
		Help: "Failed upstream completion calls.",
	})

	// SessionsSwept counts sessions reaped by TTL sweeps.
	SessionsSwept = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chatgate_sessions_swept_total",
		Help: "Sessions reaped by TTL sweeps.",
	})
)
