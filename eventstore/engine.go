package eventstore

import (
	"context"
)

// Engine is the storage contract the entity protocol is paired with: an
// append-only store enforcing atomic compare-and-append per event stream.
//
// Query returns the selected events in stream order together with the
// stream's maximum sequence number at the time of the query. Append only
// succeeds if the stream still is at the expected maximum sequence number;
// otherwise it fails with ErrConcurrencyConflict and the caller is
// expected to reload, recompute and retry.
type Engine interface {
	Query(ctx context.Context, filter Filter) (StorableEvents, MaxSequenceNumberUint, error)

	Append(
		ctx context.Context,
		filter Filter,
		expectedMaxSequenceNumber MaxSequenceNumberUint,
		event StorableEvent,
		additionalEvents ...StorableEvent,
	) error
}
