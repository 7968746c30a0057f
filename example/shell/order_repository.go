package shell

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/domainkit/event-sourced-entities-go/entity"
	"github.com/domainkit/event-sourced-entities-go/eventstore"
	"github.com/domainkit/event-sourced-entities-go/example/core"
)

// ErrOrderNotFound occurs when no event stream exists for the requested order.
var ErrOrderNotFound = errors.New("order not found")

// ErrOrderIsDiscarded occurs when the requested order's stream ends with a
// discard.
var ErrOrderIsDiscarded = errors.New("order is discarded")

// OrderRepository loads Order entities by replaying their event streams
// from a store engine and saves the pending events of commanded orders
// with optimistic concurrency.
type OrderRepository struct {
	engine eventstore.Engine
}

// NewOrderRepository creates a repository on top of any store engine.
func NewOrderRepository(engine eventstore.Engine) OrderRepository {
	return OrderRepository{engine: engine}
}

// Load replays the order with the given id from its event stream. The
// returned sequence number is the stream's maximum at query time and must
// be passed to Save so concurrent writers are detected.
func (r OrderRepository) Load(ctx context.Context, id uuid.UUID) (
	*core.Order,
	eventstore.MaxSequenceNumberUint,
	error,
) {

	filter := eventstore.FilterForOriginator(id.String())

	storables, maxSequenceNumber, queryErr := r.engine.Query(ctx, filter)
	if queryErr != nil {
		return nil, 0, queryErr
	}

	if len(storables) == 0 {
		return nil, 0, fmt.Errorf("%w: %s", ErrOrderNotFound, id)
	}

	history, decodeErr := eventstore.EntityEventsFrom(storables)
	if decodeErr != nil {
		return nil, 0, decodeErr
	}

	replayed, replayErr := entity.Replay(history)
	if replayErr != nil {
		return nil, 0, replayErr
	}

	if replayed == nil {
		return nil, 0, fmt.Errorf("%w: %s", ErrOrderIsDiscarded, id)
	}

	order, ok := replayed.(*core.Order)
	if !ok {
		return nil, 0, fmt.Errorf("stream %s does not contain an order", id)
	}

	return order, maxSequenceNumber, nil
}

// Save appends the order's pending events to its stream, guarded by the
// sequence number obtained from Load. On eventstore.ErrConcurrencyConflict
// the order must be reloaded and the command retried; the drained events
// are not restored.
func (r OrderRepository) Save(
	ctx context.Context,
	order *core.Order,
	expectedMaxSequenceNumber eventstore.MaxSequenceNumberUint,
) error {

	pending := order.CollectPendingEvents()
	if len(pending) == 0 {
		return nil
	}

	storables := make(eventstore.StorableEvents, 0, len(pending))
	for _, event := range pending {
		storable, convertErr := eventstore.StorableEventFrom(event)
		if convertErr != nil {
			return convertErr
		}

		storables = append(storables, storable)
	}

	filter := eventstore.FilterForOriginator(order.ID().String())

	return r.engine.Append(ctx, filter, expectedMaxSequenceNumber, storables[0], storables[1:]...)
}
