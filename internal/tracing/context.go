// Package tracing carries request identity through contexts and wires
// spans to the process-wide OpenTelemetry provider.
package tracing

import (
	"context"

	"github.com/google/uuid"
)

// ContextKey is the type for context keys
type ContextKey string

const (
	// TraceIDKey is the context key for trace ID
	TraceIDKey ContextKey = "trace_id"
	// QueryIDKey is the context key for the agent query ID
	QueryIDKey ContextKey = "query_id"
)

// TraceContext holds tracing information
type TraceContext struct {
	TraceID string
	QueryID string
}

// NewTraceID generates a new trace ID
func NewTraceID() string {
	return uuid.New().String()
}

// NewQueryID generates a new query ID
func NewQueryID() string {
	return uuid.New().String()
}

// WithTraceID adds a trace ID to the context
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, TraceIDKey, traceID)
}

// WithQueryID adds a query ID to the context
func WithQueryID(ctx context.Context, queryID string) context.Context {
	return context.WithValue(ctx, QueryIDKey, queryID)
}

// GetTraceID retrieves the trace ID from the context
func GetTraceID(ctx context.Context) string {
	if traceID, ok := ctx.Value(TraceIDKey).(string); ok {
		return traceID
	}
	return ""
}

// GetQueryID retrieves the query ID from the context
func GetQueryID(ctx context.Context) string {
	if queryID, ok := ctx.Value(QueryIDKey).(string); ok {
		return queryID
	}
	return ""
}

// FromContext extracts all tracing information from the context
func FromContext(ctx context.Context) *TraceContext {
	return &TraceContext{
		TraceID: GetTraceID(ctx),
		QueryID: GetQueryID(ctx),
	}
}

// NewQueryContext creates a context for one agent query, minting a
// trace ID and query ID when absent.
func NewQueryContext(ctx context.Context) context.Context {
	if GetTraceID(ctx) == "" {
		ctx = WithTraceID(ctx, NewTraceID())
	}
	if GetQueryID(ctx) == "" {
		ctx = WithQueryID(ctx, NewQueryID())
	}
	return ctx
}
