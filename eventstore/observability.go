package eventstore

import (
	"context"
	"time"
)

// Logger is the interface store engines log through: SQL statements at
// debug level, operational results at info level, non-critical cleanup
// issues at warn level and operation failures at error level. Engines work
// without one.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// ContextualLogger is the context-aware counterpart of Logger, for logging
// backends that correlate log records with traces through the context.
type ContextualLogger interface {
	DebugContext(ctx context.Context, msg string, args ...any)
	InfoContext(ctx context.Context, msg string, args ...any)
	WarnContext(ctx context.Context, msg string, args ...any)
	ErrorContext(ctx context.Context, msg string, args ...any)
}

// MetricsCollector receives performance and operational metrics from store
// engines. The interface is dependency-free so any metrics backend can
// implement it.
type MetricsCollector interface {
	RecordDuration(metric string, duration time.Duration, labels map[string]string)
	IncrementCounter(metric string, labels map[string]string)
}

// SpanContext represents an active tracing span that can be updated with
// attributes and finished.
type SpanContext interface {
	SetStatus(status string)
	AddAttribute(key, value string)
}

// TracingCollector receives distributed tracing information from store
// engines. Like MetricsCollector it is dependency-free; adapters for
// OpenTelemetry live in the oteladapters package.
type TracingCollector interface {
	StartSpan(ctx context.Context, name string, attrs map[string]string) (context.Context, SpanContext)
	FinishSpan(spanCtx SpanContext, status string, attrs map[string]string)
}
