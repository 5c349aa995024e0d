package observability

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// AuditEvent is one structured entry in the audit trail.
type AuditEvent struct {
	Type      string                 `json:"event_type"`
	Timestamp time.Time              `json:"timestamp"`
	QueryID   string                 `json:"query_id,omitempty"`
	Action    string                 `json:"action"` // e.g. "execute:weather", "policy_rejected"
	Status    string                 `json:"status"` // "success", "failure", "rejected"
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	TraceID   string                 `json:"trace_id,omitempty"`
}

// AuditLogger records tool executions and policy decisions as JSON
// lines, independent of the application log.
type AuditLogger struct {
	logger zerolog.Logger
	mu     sync.Mutex
	file   *os.File
}

var (
	auditOnce sync.Once
	auditInst *AuditLogger
)

// GetAuditLogger returns the global audit logger, defaulting to stderr
// until InitAuditLogger is called.
func GetAuditLogger() *AuditLogger {
	auditOnce.Do(func() {
		if auditInst == nil {
			auditInst = &AuditLogger{
				logger: zerolog.New(os.Stderr).With().Timestamp().Logger(),
			}
		}
	})
	return auditInst
}

// InitAuditLogger points the global audit logger at a file.
func InitAuditLogger(path string) error {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}

	auditInst = &AuditLogger{
		logger: zerolog.New(file).With().Timestamp().Logger(),
		file:   file,
	}
	return nil
}

// Record emits an audit event, attaching the active trace when one is
// present in ctx.
func (a *AuditLogger) Record(ctx context.Context, event AuditEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		event.TraceID = span.SpanContext().TraceID().String()
		span.AddEvent(event.Action, trace.WithAttributes(
			attribute.String("audit.type", event.Type),
			attribute.String("audit.status", event.Status),
		))
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	entry := a.logger.Log().
		Str("type", event.Type).
		Str("query_id", event.QueryID).
		Str("action", event.Action).
		Str("status", event.Status).
		Str("trace_id", event.TraceID)

	if event.Metadata != nil {
		entry = entry.Interface("metadata", event.Metadata)
	}

	entry.Msg("")
}

// Close releases the audit logger's file handle.
func (a *AuditLogger) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.file != nil {
		return a.file.Close()
	}
	return nil
}

// RecordToolAudit records one tool execution outcome.
func RecordToolAudit(ctx context.Context, toolName, queryID, status string, metadata map[string]interface{}) {
	GetAuditLogger().Record(ctx, AuditEvent{
		Type:     "tool",
		QueryID:  queryID,
		Action:   "execute:" + toolName,
		Status:   status,
		Metadata: metadata,
	})
}

// RecordPolicyAudit records a tool call rejected by policy.
func RecordPolicyAudit(ctx context.Context, toolName, queryID, reason string) {
	GetAuditLogger().Record(ctx, AuditEvent{
		Type:    "policy",
		QueryID: queryID,
		Action:  "reject:" + toolName,
		Status:  "rejected",
		Metadata: map[string]interface{}{
			"reason": reason,
		},
	})
}
