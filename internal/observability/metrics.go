// Package observability exposes process-wide Prometheus metrics and the
// audit trail for tool orchestration.
package observability

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type coreMetrics struct {
	queryTotal    *prometheus.CounterVec
	queryDuration *prometheus.HistogramVec
	phaseDuration *prometheus.HistogramVec

	toolExecutionTotal    *prometheus.CounterVec
	toolExecutionDuration *prometheus.HistogramVec
	toolErrorsTotal       *prometheus.CounterVec
	toolRetriesTotal      *prometheus.CounterVec

	cacheRequestsTotal *prometheus.CounterVec

	policyViolationsTotal *prometheus.CounterVec

	inflightTools prometheus.Gauge
}

var (
	metricsOnce sync.Once
	metricsInst *coreMetrics
)

func getMetrics() *coreMetrics {
	metricsOnce.Do(func() {
		m := &coreMetrics{
			queryTotal: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "lyra_query_total",
					Help: "Total queries by mode and status.",
				},
				[]string{"mode", "status"},
			),
			queryDuration: prometheus.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "lyra_query_duration_seconds",
					Help:    "End-to-end query duration in seconds by mode.",
					Buckets: prometheus.DefBuckets,
				},
				[]string{"mode"},
			),
			phaseDuration: prometheus.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "lyra_phase_duration_seconds",
					Help:    "Orchestration phase duration in seconds.",
					Buckets: prometheus.DefBuckets,
				},
				[]string{"phase"},
			),
			toolExecutionTotal: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "lyra_tool_execution_total",
					Help: "Total tool executions by tool and status.",
				},
				[]string{"tool", "status"},
			),
			toolExecutionDuration: prometheus.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "lyra_tool_execution_duration_seconds",
					Help:    "Tool execution duration in seconds by tool.",
					Buckets: prometheus.DefBuckets,
				},
				[]string{"tool"},
			),
			toolErrorsTotal: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "lyra_tool_errors_total",
					Help: "Total tool execution failures by tool.",
				},
				[]string{"tool"},
			),
			toolRetriesTotal: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "lyra_tool_retries_total",
					Help: "Total tool execution retries by tool.",
				},
				[]string{"tool"},
			),
			cacheRequestsTotal: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "lyra_cache_requests_total",
					Help: "Total cache lookups by result (hit, miss).",
				},
				[]string{"result"},
			),
			policyViolationsTotal: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "lyra_policy_violations_total",
					Help: "Total policy violations by rule (content, tool, domain).",
				},
				[]string{"rule"},
			),
			inflightTools: prometheus.NewGauge(
				prometheus.GaugeOpts{
					Name: "lyra_tools_inflight",
					Help: "Tool executions currently holding a concurrency slot.",
				},
			),
		}

		prometheus.MustRegister(
			m.queryTotal,
			m.queryDuration,
			m.phaseDuration,
			m.toolExecutionTotal,
			m.toolExecutionDuration,
			m.toolErrorsTotal,
			m.toolRetriesTotal,
			m.cacheRequestsTotal,
			m.policyViolationsTotal,
			m.inflightTools,
		)

		metricsInst = m
	})

	return metricsInst
}

// EnsureRegistered initializes and registers metrics the first time it
// is called. Safe to call from multiple components.
func EnsureRegistered() {
	_ = getMetrics()
}

// MetricsHandler returns the HTTP handler for the metrics endpoint.
func MetricsHandler() http.Handler {
	EnsureRegistered()
	return promhttp.Handler()
}

// RecordQuery records a completed query.
func RecordQuery(mode string, duration time.Duration, success bool) {
	m := getMetrics()
	status := "error"
	if success {
		status = "success"
	}
	m.queryTotal.WithLabelValues(mode, status).Inc()
	m.queryDuration.WithLabelValues(mode).Observe(duration.Seconds())
}

// RecordPhase records one orchestration phase (planning, tool_execution,
// synthesis).
func RecordPhase(phase string, duration time.Duration) {
	getMetrics().phaseDuration.WithLabelValues(phase).Observe(duration.Seconds())
}

// RecordToolExecution records one tool execution. Status is one of
// success, error, cached.
func RecordToolExecution(tool, status string, duration time.Duration) {
	m := getMetrics()
	m.toolExecutionTotal.WithLabelValues(tool, status).Inc()
	m.toolExecutionDuration.WithLabelValues(tool).Observe(duration.Seconds())
	if status == "error" {
		m.toolErrorsTotal.WithLabelValues(tool).Inc()
	}
}

// RecordToolRetry records a retry attempt for a tool.
func RecordToolRetry(tool string) {
	getMetrics().toolRetriesTotal.WithLabelValues(tool).Inc()
}

// RecordCacheRequest records a cache lookup outcome.
func RecordCacheRequest(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	getMetrics().cacheRequestsTotal.WithLabelValues(result).Inc()
}

// RecordPolicyViolation records a rejected tool call by rule.
func RecordPolicyViolation(rule string) {
	getMetrics().policyViolationsTotal.WithLabelValues(rule).Inc()
}

// ToolSlotAcquired marks a concurrency slot as held.
func ToolSlotAcquired() {
	getMetrics().inflightTools.Inc()
}

// ToolSlotReleased marks a concurrency slot as released.
func ToolSlotReleased() {
	getMetrics().inflightTools.Dec()
}
