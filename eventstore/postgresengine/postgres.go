package postgresengine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect import
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"

	"github.com/domainkit/event-sourced-entities-go/eventstore"
	"github.com/domainkit/event-sourced-entities-go/eventstore/postgresengine/internal/adapters"
)

const (
	defaultEventTableName        = "entity_events"
	logMsgBuildSelectQueryFailed = "failed to build select query"
	logMsgBuildInsertQueryFailed = "failed to build insert query"
	logMsgDBQueryFailed          = "database query execution failed"
	logMsgDBExecFailed           = "database execution failed during event append"
	logMsgCloseRowsFailed        = "failed to close database rows"
	logMsgScanRowFailed          = "failed to scan database row"
	logMsgBuildStorableFailed    = "failed to build storable event from database row"
	logMsgRowsAffectedFailed     = "failed to get rows affected count"
	logMsgQueryCompleted         = "query completed"
	logMsgEventsAppended         = "events appended"
	logMsgConcurrencyConflict    = "concurrency conflict detected"
	logMsgSQLExecuted            = "executed sql for: "
	logAttrError                 = "error"
	logAttrQuery                 = "query"
	logAttrOriginatorID          = "originator_id"
	logAttrEventCount            = "event_count"
	logAttrDurationMS            = "duration_ms"
	logAttrExpectedEvents        = "expected_events"
	logAttrRowsAffected          = "rows_affected"
	logAttrExpectedSequence      = "expected_sequence"
	logActionQuery               = "query"
	logActionAppend              = "append"
	metricQueryDuration          = "eventstore_query_duration"
	metricAppendDuration         = "eventstore_append_duration"
	metricConcurrencyConflicts   = "eventstore_concurrency_conflicts"
	spanNameQuery                = "eventstore.query"
	spanNameAppend               = "eventstore.append"
	spanStatusOK                 = "ok"
	spanStatusError              = "error"
	colSequenceNumber            = "sequence_number"
	colOriginatorID              = "originator_id"
	colEventType                 = "event_type"
	colOccurredAt                = "occurred_at"
	colPayload                   = "payload"
	colMetadata                  = "metadata"
	cteContext                   = "context"
	cteVals                      = "vals"
	aliasMaxSeq                  = "max_seq"
	dialectPostgres              = "postgres"
	castText                     = "?::text"
	castTimestamp                = "?::timestamp with time zone"
	castJsonb                    = "?::jsonb"
)

type (
	sqlQueryString    = string
	rowsAffectedInt64 = int64
)

// EventStore is the Postgres implementation of the eventstore.Engine
// contract. Events are stored in one append-only table; the expected
// maximum sequence number of the originator's stream guards every append,
// which makes the insert an atomic compare-and-append.
type EventStore struct {
	db               adapters.DBAdapter
	eventTableName   string
	logger           eventstore.Logger
	contextualLogger eventstore.ContextualLogger
	metrics          eventstore.MetricsCollector
	tracing          eventstore.TracingCollector
}

// NewEventStoreFromPGXPool creates a new EventStore using a pgx pool with
// optional configuration.
func NewEventStoreFromPGXPool(db *pgxpool.Pool, options ...Option) (EventStore, error) {
	if db == nil {
		return EventStore{}, eventstore.ErrNilDatabaseConnection
	}

	return newEventStore(adapters.NewPGXAdapter(db), options...)
}

// NewEventStoreFromSQLDB creates a new EventStore using a sql.DB with
// optional configuration.
func NewEventStoreFromSQLDB(db *sql.DB, options ...Option) (EventStore, error) {
	if db == nil {
		return EventStore{}, eventstore.ErrNilDatabaseConnection
	}

	return newEventStore(adapters.NewSQLAdapter(db), options...)
}

// NewEventStoreFromSQLX creates a new EventStore using a sqlx.DB with
// optional configuration.
func NewEventStoreFromSQLX(db *sqlx.DB, options ...Option) (EventStore, error) {
	if db == nil {
		return EventStore{}, eventstore.ErrNilDatabaseConnection
	}

	return newEventStore(adapters.NewSQLXAdapter(db), options...)
}

func newEventStore(db adapters.DBAdapter, options ...Option) (EventStore, error) {
	es := EventStore{
		db:             db,
		eventTableName: defaultEventTableName,
	}

	for _, option := range options {
		if err := option(&es); err != nil {
			return EventStore{}, err
		}
	}

	return es, nil
}

// Query retrieves the events matching the eventstore.Filter in stream
// order and returns them as eventstore.StorableEvents together with the
// stream's MaxSequenceNumberUint at the time of the query.
func (es EventStore) Query(ctx context.Context, filter eventstore.Filter) (
	eventstore.StorableEvents,
	eventstore.MaxSequenceNumberUint,
	error,
) {

	var empty eventstore.StorableEvents

	ctx, span := es.startSpan(ctx, spanNameQuery, filter)

	sqlQuery, buildQueryErr := es.buildSelectQuery(filter)
	if buildQueryErr != nil {
		es.logError(ctx, logMsgBuildSelectQueryFailed, logAttrError, buildQueryErr.Error())
		es.finishSpan(span, spanStatusError)

		return empty, 0, buildQueryErr
	}

	start := time.Now()
	rows, queryErr := es.db.Query(ctx, sqlQuery)
	duration := time.Since(start)
	es.logQueryWithDuration(ctx, sqlQuery, logActionQuery, duration)

	if queryErr != nil {
		es.logError(ctx, logMsgDBQueryFailed, logAttrError, queryErr.Error(), logAttrQuery, sqlQuery)
		es.finishSpan(span, spanStatusError)

		return empty, 0, errors.Join(eventstore.ErrQueryingEventsFailed, queryErr)
	}
	defer es.closeRows(ctx, rows)

	eventStream, maxSequenceNumber, scanErr := es.processQueryResults(ctx, rows)
	if scanErr != nil {
		es.finishSpan(span, spanStatusError)
		return empty, 0, scanErr
	}

	es.recordDuration(metricQueryDuration, duration, filter)
	es.logOperation(ctx, logMsgQueryCompleted,
		logAttrEventCount, len(eventStream),
		logAttrDurationMS, es.toMilliseconds(duration))
	es.finishSpan(span, spanStatusOK)

	return eventStream, maxSequenceNumber, nil
}

// Append attempts to append one or multiple eventstore.StorableEvent(s)
// onto the stream selected by the eventstore.Filter, guarded by the
// expected MaxSequenceNumberUint.
//
// The filter criteria should be the same as the ones used for the Query
// whose result the new events were derived from. If the stream advanced in
// between, no row is inserted and eventstore.ErrConcurrencyConflict is
// returned: reload, recompute, retry is the caller's responsibility.
func (es EventStore) Append(
	ctx context.Context,
	filter eventstore.Filter,
	expectedMaxSequenceNumber eventstore.MaxSequenceNumberUint,
	event eventstore.StorableEvent,
	additionalEvents ...eventstore.StorableEvent,
) error {

	allEvents := eventstore.StorableEvents{event}
	allEvents = append(allEvents, additionalEvents...)

	ctx, span := es.startSpan(ctx, spanNameAppend, filter)

	sqlQuery, buildQueryErr := es.buildInsertQuery(allEvents, filter, expectedMaxSequenceNumber)
	if buildQueryErr != nil {
		es.logError(ctx, logMsgBuildInsertQueryFailed, logAttrError, buildQueryErr.Error(), logAttrEventCount, len(allEvents))
		es.finishSpan(span, spanStatusError)

		return buildQueryErr
	}

	start := time.Now()
	result, execErr := es.db.Exec(ctx, sqlQuery)
	duration := time.Since(start)
	es.logQueryWithDuration(ctx, sqlQuery, logActionAppend, duration)

	if execErr != nil {
		es.logError(ctx, logMsgDBExecFailed, logAttrError, execErr.Error(), logAttrQuery, sqlQuery)
		es.finishSpan(span, spanStatusError)

		return errors.Join(eventstore.ErrAppendingEventsFailed, execErr)
	}

	rowsAffected, rowsAffectedErr := result.RowsAffected()
	if rowsAffectedErr != nil {
		es.logError(ctx, logMsgRowsAffectedFailed, logAttrError, rowsAffectedErr.Error())
		es.finishSpan(span, spanStatusError)

		return errors.Join(eventstore.ErrGettingRowsAffectedFailed, rowsAffectedErr)
	}

	if validateErr := es.validateAppendResult(ctx, rowsAffected, len(allEvents), expectedMaxSequenceNumber, filter); validateErr != nil {
		es.finishSpan(span, spanStatusError)
		return validateErr
	}

	es.recordDuration(metricAppendDuration, duration, filter)
	es.logOperation(ctx, logMsgEventsAppended,
		logAttrEventCount, len(allEvents),
		logAttrDurationMS, es.toMilliseconds(duration))
	es.finishSpan(span, spanStatusOK)

	return nil
}

// processQueryResults scans the database rows into storable events.
func (es EventStore) processQueryResults(ctx context.Context, rows adapters.DBRows) (
	eventstore.StorableEvents,
	eventstore.MaxSequenceNumberUint,
	error,
) {

	var empty eventstore.StorableEvents

	var eventType, originatorID string
	var occurredAt time.Time
	var payload, metadata []byte
	var sequenceNumber eventstore.MaxSequenceNumberUint

	eventStream := make(eventstore.StorableEvents, 0)
	maxSequenceNumber := eventstore.MaxSequenceNumberUint(0)

	for rows.Next() {
		rowScanErr := rows.Scan(&eventType, &originatorID, &occurredAt, &payload, &metadata, &sequenceNumber)
		if rowScanErr != nil {
			es.logError(ctx, logMsgScanRowFailed, logAttrError, rowScanErr.Error())
			return empty, 0, errors.Join(eventstore.ErrScanningDBRowFailed, rowScanErr)
		}

		storableEvent, buildStorableErr := eventstore.BuildStorableEvent(eventType, originatorID, occurredAt, payload, metadata)
		if buildStorableErr != nil {
			es.logError(ctx, logMsgBuildStorableFailed, logAttrError, buildStorableErr.Error(), logAttrOriginatorID, originatorID)
			return empty, 0, errors.Join(eventstore.ErrBuildingStorableEventFailed, buildStorableErr)
		}

		eventStream = append(eventStream, storableEvent)
		maxSequenceNumber = sequenceNumber
	}

	return eventStream, maxSequenceNumber, nil
}

// validateAppendResult detects concurrency conflicts: fewer inserted rows
// than events means the guarded insert selected nothing.
func (es EventStore) validateAppendResult(
	ctx context.Context,
	rowsAffected rowsAffectedInt64,
	expectedEventCount int,
	expectedMaxSequenceNumber eventstore.MaxSequenceNumberUint,
	filter eventstore.Filter,
) error {

	if rowsAffected < int64(expectedEventCount) {
		es.incrementCounter(metricConcurrencyConflicts, filter)
		es.logOperation(ctx, logMsgConcurrencyConflict,
			logAttrExpectedEvents, expectedEventCount,
			logAttrRowsAffected, rowsAffected,
			logAttrExpectedSequence, expectedMaxSequenceNumber)

		return eventstore.ErrConcurrencyConflict
	}

	return nil
}

func (es EventStore) buildSelectQuery(filter eventstore.Filter) (sqlQueryString, error) {
	selectStmt := goqu.Dialect(dialectPostgres).
		From(es.eventTableName).
		Select(colEventType, colOriginatorID, colOccurredAt, colPayload, colMetadata, colSequenceNumber).
		Order(goqu.I(colSequenceNumber).Asc())

	selectStmt = selectStmt.Where(whereExpressions(filter)...)

	sqlQuery, _, toSQLErr := selectStmt.ToSQL()
	if toSQLErr != nil {
		return "", errors.Join(eventstore.ErrBuildingQueryFailed, toSQLErr)
	}

	return sqlQuery, nil
}

// buildInsertQuery builds the guarded INSERT ... SELECT: a CTE computes
// the stream's current maximum sequence number, and rows are only selected
// for insertion while it equals the expected one.
func (es EventStore) buildInsertQuery(
	events eventstore.StorableEvents,
	filter eventstore.Filter,
	expectedMaxSequenceNumber eventstore.MaxSequenceNumberUint,
) (sqlQueryString, error) {

	builder := goqu.Dialect(dialectPostgres)

	cteStmt := builder.
		From(es.eventTableName).
		Select(goqu.MAX(colSequenceNumber).As(aliasMaxSeq)).
		Where(whereExpressions(filter)...)

	guard := goqu.COALESCE(goqu.C(aliasMaxSeq), 0).Eq(goqu.V(expectedMaxSequenceNumber))

	var insertStmt *goqu.InsertDataset

	if len(events) == 1 {
		event := events[0]
		insertStmt = builder.
			Insert(es.eventTableName).
			Cols(colEventType, colOriginatorID, colOccurredAt, colPayload, colMetadata).
			With(cteContext, cteStmt).
			FromQuery(
				builder.From(cteContext).
					Select(
						goqu.V(event.EventType),
						goqu.V(event.OriginatorID),
						goqu.V(event.OccurredAt),
						goqu.V(event.PayloadJSON),
						goqu.V(event.MetadataJSON),
					).
					Where(guard),
			)
	} else {
		unionStatements := make([]*goqu.SelectDataset, len(events))
		for i, event := range events {
			unionStatements[i] = builder.
				Select(
					goqu.L(castText, event.EventType).As(colEventType),
					goqu.L(castText, event.OriginatorID).As(colOriginatorID),
					goqu.L(castTimestamp, event.OccurredAt).As(colOccurredAt),
					goqu.L(castJsonb, event.PayloadJSON).As(colPayload),
					goqu.L(castJsonb, event.MetadataJSON).As(colMetadata),
				)
		}

		valuesStmt := unionStatements[0]
		for i := 1; i < len(unionStatements); i++ {
			valuesStmt = valuesStmt.UnionAll(unionStatements[i])
		}

		insertStmt = builder.
			Insert(es.eventTableName).
			Cols(colEventType, colOriginatorID, colOccurredAt, colPayload, colMetadata).
			With(cteContext, cteStmt).
			With(cteVals, valuesStmt).
			FromQuery(
				builder.From(cteContext, cteVals).
					Select(
						fmt.Sprintf("%s.%s", cteVals, colEventType),
						fmt.Sprintf("%s.%s", cteVals, colOriginatorID),
						fmt.Sprintf("%s.%s", cteVals, colOccurredAt),
						fmt.Sprintf("%s.%s", cteVals, colPayload),
						fmt.Sprintf("%s.%s", cteVals, colMetadata),
					).
					Where(guard),
			)
	}

	sqlQuery, _, toSQLErr := insertStmt.ToSQL()
	if toSQLErr != nil {
		return "", errors.Join(eventstore.ErrBuildingQueryFailed, toSQLErr)
	}

	return sqlQuery, nil
}

func whereExpressions(filter eventstore.Filter) []goqu.Expression {
	expressions := make([]goqu.Expression, 0, 2)

	if filter.OriginatorID() != "" {
		expressions = append(expressions, goqu.Ex{colOriginatorID: filter.OriginatorID()})
	}

	if eventTypes := filter.EventTypes(); len(eventTypes) > 0 {
		expressions = append(expressions, goqu.C(colEventType).In(eventTypes))
	}

	return expressions
}

func (es EventStore) closeRows(ctx context.Context, rows adapters.DBRows) {
	if closeErr := rows.Close(); closeErr != nil {
		if es.contextualLogger != nil {
			es.contextualLogger.WarnContext(ctx, logMsgCloseRowsFailed, logAttrError, closeErr.Error())
		} else if es.logger != nil {
			es.logger.Warn(logMsgCloseRowsFailed, logAttrError, closeErr.Error())
		}
	}
}
