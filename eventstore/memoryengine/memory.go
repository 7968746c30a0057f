// Package memoryengine provides an in-memory implementation of the
// eventstore.Engine contract, with the same optimistic compare-and-append
// semantics as the Postgres engine. It is intended for tests and for
// embedding in applications that do not need durability.
package memoryengine

import (
	"context"
	"sync"

	"github.com/domainkit/event-sourced-entities-go/eventstore"
)

type storedEvent struct {
	sequenceNumber eventstore.MaxSequenceNumberUint
	event          eventstore.StorableEvent
}

// EventStore is an in-memory, mutex-guarded append-only event store.
type EventStore struct {
	mu     sync.RWMutex
	events []storedEvent
}

// NewEventStore creates an empty in-memory event store.
func NewEventStore() *EventStore {
	return &EventStore{}
}

// Query returns the events matching the filter in append order, together
// with the maximum sequence number of the matching stream at the time of
// the query.
func (es *EventStore) Query(_ context.Context, filter eventstore.Filter) (
	eventstore.StorableEvents,
	eventstore.MaxSequenceNumberUint,
	error,
) {

	es.mu.RLock()
	defer es.mu.RUnlock()

	eventStream := make(eventstore.StorableEvents, 0)
	maxSequenceNumber := eventstore.MaxSequenceNumberUint(0)

	for _, stored := range es.events {
		if filter.Matches(stored.event) {
			eventStream = append(eventStream, stored.event)
			maxSequenceNumber = stored.sequenceNumber
		}
	}

	return eventStream, maxSequenceNumber, nil
}

// Append appends the events if the matching stream still is at the
// expected maximum sequence number, otherwise it fails with
// eventstore.ErrConcurrencyConflict.
func (es *EventStore) Append(
	_ context.Context,
	filter eventstore.Filter,
	expectedMaxSequenceNumber eventstore.MaxSequenceNumberUint,
	event eventstore.StorableEvent,
	additionalEvents ...eventstore.StorableEvent,
) error {

	es.mu.Lock()
	defer es.mu.Unlock()

	currentMaxSequenceNumber := eventstore.MaxSequenceNumberUint(0)
	for _, stored := range es.events {
		if filter.Matches(stored.event) {
			currentMaxSequenceNumber = stored.sequenceNumber
		}
	}

	if currentMaxSequenceNumber != expectedMaxSequenceNumber {
		return eventstore.ErrConcurrencyConflict
	}

	allEvents := eventstore.StorableEvents{event}
	allEvents = append(allEvents, additionalEvents...)

	nextSequenceNumber := eventstore.MaxSequenceNumberUint(len(es.events))
	for _, appendedEvent := range allEvents {
		nextSequenceNumber++
		es.events = append(es.events, storedEvent{
			sequenceNumber: nextSequenceNumber,
			event:          appendedEvent,
		})
	}

	return nil
}

var _ eventstore.Engine = (*EventStore)(nil)
