package entity

import (
	"fmt"
)

// Apply runs the uniform check-then-mutate pipeline for one event against
// one target entity.
//
// Every check runs before any field of the entity is mutated, so a failed
// check never leaves the entity partially updated. The phase order is
// fixed and identical for live triggers and for replay from history:
//
//	discarded check -> identity check -> hash-chain check -> version check ->
//	structural mutation -> version update -> head update ->
//	timestamp / event-id update -> discard finalization
//
// A Created event applied to a nil target resolves the concrete type
// through the topic registry and constructs the entity from the event's
// field set; with a non-nil target the supplied instance is constructed
// directly and the topic is ignored. A Discarded event returns a nil
// entity: it is the terminal result of any mutation chain.
func Apply(target Root, event Event) (Root, error) {
	if event.kind == KindCreated {
		return applyCreated(target, event)
	}

	if target == nil {
		return nil, fmt.Errorf("%w: event type '%s'", ErrNoLiveTarget, event.eventType)
	}

	if err := checkEvent(target, event); err != nil {
		return nil, err
	}

	return mutateEntity(target, event)
}

// checkEvent runs every active extension's read-only validation.
func checkEvent(target Root, event Event) error {
	if target.IsDiscarded() {
		return DiscardedEntityError{EntityID: target.ID()}
	}

	if target.ID() != event.originatorID {
		return IdentityMismatchError{
			EntityID:          target.ID(),
			EventOriginatorID: event.originatorID,
			EventType:         event.eventType,
		}
	}

	if carrier, ok := target.(headCarrier); ok {
		if carrier.Head() != event.previousHash {
			return IntegrityBreakError{
				EntityID:    target.ID(),
				CurrentHead: carrier.Head(),
				EventType:   event.eventType,
			}
		}
	}

	if carrier, ok := target.(versionCarrier); ok {
		if event.originatorVersion != carrier.Version()+1 {
			return ConcurrencyConflictError{
				ExpectedVersion: event.originatorVersion,
				ActualVersion:   carrier.Version(),
				EventType:       event.eventType,
				EntityType:      entityTypeName(target),
				EntityID:        target.ID(),
			}
		}
	}

	return nil
}

// mutateEntity runs every active extension's mutation step, in the fixed
// declared order, after all checks have passed.
func mutateEntity(target Root, event Event) (Root, error) {
	if err := mutateStructure(target, event); err != nil {
		return nil, err
	}

	if carrier, ok := target.(versionCarrier); ok {
		carrier.setVersion(event.originatorVersion)
	}

	if carrier, ok := target.(headCarrier); ok {
		carrier.setHead(event.eventHash)
	}

	if carrier, ok := target.(timestampCarrier); ok {
		carrier.setLastModified(event.timestamp)
	}

	if carrier, ok := target.(eventIDCarrier); ok {
		carrier.setLastEventID(event.eventID)
	}

	if event.kind == KindDiscarded {
		target.base().discarded = true
		return nil, nil
	}

	return target, nil
}

// mutateStructure performs the kind-specific state update. Entities
// implementing EventApplier take over this step for AttributeChanged and
// custom kinds.
func mutateStructure(target Root, event Event) error {
	switch event.kind {
	case KindAttributeChanged:
		if applier, ok := target.(EventApplier); ok {
			return applier.ApplyEvent(event)
		}

		return target.SetAttribute(event.name, event.value)

	case KindCustom:
		applier, ok := target.(EventApplier)
		if !ok {
			return fmt.Errorf("%w: '%s' on %T", ErrUnhandledEventType, event.eventType, target)
		}

		return applier.ApplyEvent(event)

	default:
		return nil
	}
}

// applyCreated constructs the entity from the Created event's field set.
// The originator id becomes the entity id; meta-only fields such as the
// topic reference never reach the entity.
func applyCreated(target Root, event Event) (Root, error) {
	constructed := target

	if constructed == nil {
		factory, err := ResolveTopic(event.originatorTopic)
		if err != nil {
			return nil, err
		}

		constructed = factory()
	}

	constructed.base().id = event.originatorID

	for _, name := range sortedFieldNames(event.fields) {
		if err := constructed.SetAttribute(name, event.fields[name]); err != nil {
			return nil, err
		}
	}

	if carrier, ok := constructed.(versionCarrier); ok {
		carrier.setVersion(event.originatorVersion)
	}

	if carrier, ok := constructed.(headCarrier); ok {
		carrier.setHead(event.eventHash)
	}

	if carrier, ok := constructed.(timestampCarrier); ok {
		carrier.setCreatedOn(event.timestamp)
		carrier.setLastModified(event.timestamp)
	}

	if carrier, ok := constructed.(eventIDCarrier); ok {
		carrier.setInitialEventID(event.eventID)
		carrier.setLastEventID(event.eventID)
	}

	return constructed, nil
}
