package entity

// Deferred is the embeddable state for aggregate-root style entities that
// defer publishing. Events triggered on an entity embedding Deferred are
// queued instead of handed to the publish collaborator immediately; Save
// publishes the whole batch.
//
// This lets many events from one command be published together. A failed
// Save loses the drained events on purpose: the entity state must be
// reloaded and the command retried, the same contract as a failed append
// to the event store.
type Deferred struct {
	pending Events
}

// CollectPendingEvents drains the queue and returns the batch in trigger
// order. Repositories use this to persist one command's events atomically;
// after a failed store append the entity must be reloaded and the command
// retried.
func (d *Deferred) CollectPendingEvents() Events {
	return d.drainPending()
}

// PendingEvents returns a copy of the events queued since the last Save.
func (d *Deferred) PendingEvents() Events {
	pending := make(Events, len(d.pending))
	copy(pending, d.pending)

	return pending
}

func (d *Deferred) deferEvent(event Event) {
	d.pending = append(d.pending, event)
}

func (d *Deferred) drainPending() Events {
	batch := d.pending
	d.pending = nil

	return batch
}

type deferrer interface {
	deferEvent(event Event)
	drainPending() Events
}

// Save publishes all pending events of an entity with deferred publishing,
// in trigger order, stopping at the first subscriber error. Entities
// without deferred publishing have nothing pending; Save is a no-op for
// them.
func Save(target Root) error {
	queue, ok := target.(deferrer)
	if !ok {
		return nil
	}

	batch := queue.drainPending()

	publisher := target.base().publisher
	if publisher == nil {
		return nil
	}

	for _, event := range batch {
		if err := publisher.Publish(event); err != nil {
			return err
		}
	}

	return nil
}
