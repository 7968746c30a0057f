package postgresengine

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/domainkit/event-sourced-entities-go/eventstore"
)

const (
	spanAttrOriginatorID = "originator_id"
	spanAttrEventTypes   = "event_types"
)

// logQueryWithDuration logs SQL queries with execution time at debug level
// if a logger is configured.
func (es EventStore) logQueryWithDuration(
	ctx context.Context,
	sqlQuery string,
	action string,
	duration time.Duration,
) {

	if es.contextualLogger != nil {
		es.contextualLogger.DebugContext(ctx, logMsgSQLExecuted+action, logAttrDurationMS, es.toMilliseconds(duration), logAttrQuery, sqlQuery)
		return
	}

	if es.logger != nil {
		es.logger.Debug(logMsgSQLExecuted+action, logAttrDurationMS, es.toMilliseconds(duration), logAttrQuery, sqlQuery)
	}
}

// logOperation logs operational information at info level if a logger is configured.
func (es EventStore) logOperation(ctx context.Context, msg string, args ...any) {
	if es.contextualLogger != nil {
		es.contextualLogger.InfoContext(ctx, msg, args...)
		return
	}

	if es.logger != nil {
		es.logger.Info(msg, args...)
	}
}

// logError logs error information at error level if a logger is configured.
func (es EventStore) logError(ctx context.Context, msg string, args ...any) {
	if es.contextualLogger != nil {
		es.contextualLogger.ErrorContext(ctx, msg, args...)
		return
	}

	if es.logger != nil {
		es.logger.Error(msg, args...)
	}
}

// toMilliseconds converts a time.Duration to float64 milliseconds with 3 decimal places.
func (es EventStore) toMilliseconds(d time.Duration) float64 {
	return math.Round(float64(d.Nanoseconds())/1e6*1000) / 1000
}

// startSpan starts a tracing span if the tracing collector is configured.
func (es EventStore) startSpan(
	ctx context.Context,
	name string,
	filter eventstore.Filter,
) (context.Context, eventstore.SpanContext) {

	if es.tracing == nil {
		return ctx, nil
	}

	return es.tracing.StartSpan(ctx, name, spanAttributes(filter))
}

// finishSpan finishes a tracing span if the tracing collector is configured.
func (es EventStore) finishSpan(span eventstore.SpanContext, status string) {
	if es.tracing != nil && span != nil {
		es.tracing.FinishSpan(span, status, nil)
	}
}

// recordDuration records a duration metric if the metrics collector is configured.
func (es EventStore) recordDuration(metric string, duration time.Duration, filter eventstore.Filter) {
	if es.metrics != nil {
		es.metrics.RecordDuration(metric, duration, metricLabels(filter))
	}
}

// incrementCounter increments a counter metric if the metrics collector is configured.
func (es EventStore) incrementCounter(metric string, filter eventstore.Filter) {
	if es.metrics != nil {
		es.metrics.IncrementCounter(metric, metricLabels(filter))
	}
}

func spanAttributes(filter eventstore.Filter) map[string]string {
	attrs := map[string]string{
		spanAttrOriginatorID: filter.OriginatorID(),
	}

	if eventTypes := filter.EventTypes(); len(eventTypes) > 0 {
		attrs[spanAttrEventTypes] = strings.Join(eventTypes, ",")
	}

	return attrs
}

func metricLabels(filter eventstore.Filter) map[string]string {
	return map[string]string{
		spanAttrOriginatorID: filter.OriginatorID(),
	}
}
