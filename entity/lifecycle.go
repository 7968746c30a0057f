package entity

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// CreateOption defines a functional option for creating an entity.
type CreateOption func(*createConfig)

type createConfig struct {
	id        uuid.UUID
	eventType string
	publisher Publisher
	hasher    Hasher
	clock     Clock
}

// WithID sets the identifier of the new entity instead of generating a
// fresh one.
func WithID(id uuid.UUID) CreateOption {
	return func(cfg *createConfig) {
		cfg.id = id
	}
}

// WithEventType overrides the event type identifier of the Created event.
func WithEventType(eventType string) CreateOption {
	return func(cfg *createConfig) {
		cfg.eventType = eventType
	}
}

// WithPublisher injects the publish collaborator the entity hands every
// applied event to. Without one, events are applied but not published.
func WithPublisher(publisher Publisher) CreateOption {
	return func(cfg *createConfig) {
		cfg.publisher = publisher
	}
}

// WithHasher injects the hashing collaborator used to compute event
// digests for hash-chained entities. Defaults to CanonicalHasher.
func WithHasher(hasher Hasher) CreateOption {
	return func(cfg *createConfig) {
		cfg.hasher = hasher
	}
}

// WithClock injects the clock used to stamp event timestamps. Defaults to
// the wall clock.
func WithClock(clock Clock) CreateOption {
	return func(cfg *createConfig) {
		cfg.clock = clock
	}
}

// Create creates a new entity of the concrete type produced by the given
// factory.
//
// It builds a Created event carrying the entity's topic reference and the
// given fields, stamps it with whatever the composed extensions require
// (version 0, the genesis hash, the current time, a fresh time-ordered
// event id), applies the event's own mutation to the fresh instance,
// publishes the event and returns the new entity. The concrete type must
// be registered with the topic registry.
func Create[T Root](factory func() T, fields Fields, opts ...CreateOption) (T, error) {
	var none T

	cfg := createConfig{id: uuid.New(), hasher: CanonicalHasher{}}
	for _, opt := range opts {
		opt(&cfg)
	}

	instance := factory()

	topic, topicErr := TopicFor(instance)
	if topicErr != nil {
		return none, topicErr
	}

	base := instance.base()
	base.publisher = cfg.publisher
	base.hasher = cfg.hasher
	base.clock = cfg.clock

	stamps, stampsErr := createdStampsFor(instance, cfg)
	if stampsErr != nil {
		return none, stampsErr
	}

	event := BuildCreatedEvent(cfg.id, topic, fields, stamps...)

	event, sealErr := sealEventFor(instance, event)
	if sealErr != nil {
		return none, sealErr
	}

	created, applyErr := Apply(instance, event)
	if applyErr != nil {
		return none, applyErr
	}

	if created == nil {
		return none, fmt.Errorf("%w: topic '%s'", ErrCreateProducedNoEntity, topic)
	}

	if publishErr := publishFrom(instance, event); publishErr != nil {
		return none, publishErr
	}

	return created.(T), nil
}

// Trigger constructs, applies and publishes an entity-specific event kind.
// The target must implement EventApplier to receive it.
func Trigger(target Root, eventType string, fields Fields) (Event, error) {
	return triggerEvent(target, func(stamps []EventOption) Event {
		return BuildCustomEvent(eventType, target.ID(), fields, stamps...)
	})
}

// ChangeAttribute changes the named attribute to the given value by
// triggering an AttributeChanged event.
func ChangeAttribute(target Root, name string, value any) (Event, error) {
	return triggerEvent(target, func(stamps []EventOption) Event {
		return BuildAttributeChangedEvent(target.ID(), name, value, stamps...)
	})
}

// Discard discards the entity by triggering a Discarded event. Discarding
// is terminal: no further event can be applied afterwards.
func Discard(target Root) (Event, error) {
	return triggerEvent(target, func(stamps []EventOption) Event {
		return BuildDiscardedEvent(target.ID(), stamps...)
	})
}

// triggerEvent is the shared trigger path: refuse discarded targets, stamp
// the extension fields, seal the digest, apply, publish.
func triggerEvent(target Root, build func(stamps []EventOption) Event) (Event, error) {
	if target == nil {
		return Event{}, ErrNoLiveTarget
	}

	if target.IsDiscarded() {
		return Event{}, DiscardedEntityError{EntityID: target.ID()}
	}

	stamps, stampsErr := triggerStampsFor(target)
	if stampsErr != nil {
		return Event{}, stampsErr
	}

	event := build(stamps)

	event, sealErr := sealEventFor(target, event)
	if sealErr != nil {
		return Event{}, sealErr
	}

	if _, applyErr := Apply(target, event); applyErr != nil {
		return Event{}, applyErr
	}

	if publishErr := publishFrom(target, event); publishErr != nil {
		return Event{}, publishErr
	}

	return event, nil
}

// createdStampsFor collects the extension stamps for a Created event: the
// initial version, the genesis hash as previous hash, the creation time
// and a fresh time-ordered event id.
func createdStampsFor(target Root, cfg createConfig) ([]EventOption, error) {
	var stamps []EventOption

	if cfg.eventType != "" {
		stamps = append(stamps, NamedEventType(cfg.eventType))
	}

	if _, ok := target.(versionCarrier); ok {
		stamps = append(stamps, StampedWithVersion(0))
	}

	if carrier, ok := target.(headCarrier); ok {
		stamps = append(stamps, StampedWithPreviousHash(carrier.GenesisHash()))
	}

	if _, ok := target.(timestampCarrier); ok {
		stamps = append(stamps, StampedWithTimestamp(target.base().clockOrDefault()()))
	}

	if _, ok := target.(eventIDCarrier); ok {
		eventID, err := newTimeOrderedID()
		if err != nil {
			return nil, err
		}

		stamps = append(stamps, StampedWithEventID(eventID))
	}

	return stamps, nil
}

// triggerStampsFor collects the extension stamps for a triggered event:
// the next version, the current head, the current time and a fresh
// time-ordered event id.
func triggerStampsFor(target Root) ([]EventOption, error) {
	var stamps []EventOption

	if carrier, ok := target.(versionCarrier); ok {
		stamps = append(stamps, StampedWithVersion(carrier.Version()+1))
	}

	if carrier, ok := target.(headCarrier); ok {
		stamps = append(stamps, StampedWithPreviousHash(carrier.Head()))
	}

	if _, ok := target.(timestampCarrier); ok {
		stamps = append(stamps, StampedWithTimestamp(target.base().clockOrDefault()()))
	}

	if _, ok := target.(eventIDCarrier); ok {
		eventID, err := newTimeOrderedID()
		if err != nil {
			return nil, err
		}

		stamps = append(stamps, StampedWithEventID(eventID))
	}

	return stamps, nil
}

// sealEventFor computes and stamps the event's digest if the target is
// hash-chained.
func sealEventFor(target Root, event Event) (Event, error) {
	if _, ok := target.(headCarrier); !ok {
		return event, nil
	}

	eventHash, err := target.base().hasherOrDefault().SumEvent(event)
	if err != nil {
		return Event{}, err
	}

	return event.withEventHash(eventHash), nil
}

func newTimeOrderedID() (uuid.UUID, error) {
	eventID, err := uuid.NewV7()
	if err != nil {
		return uuid.Nil, errors.Join(ErrStampingEventFailed, err)
	}

	return eventID, nil
}

// publishFrom hands the event to the entity's publish collaborator, or
// queues it if the entity defers publishing.
func publishFrom(target Root, event Event) error {
	if queue, ok := target.(deferrer); ok {
		queue.deferEvent(event)
		return nil
	}

	publisher := target.base().publisher
	if publisher == nil {
		return nil
	}

	return publisher.Publish(event)
}

// Replay reconstructs an entity purely from its full ordered event
// history, with no live target. The history must start with a Created
// event; its topic reference resolves the concrete type. Replaying the
// same events an entity produced live converges to equal state. A history
// ending in a Discarded event yields a nil entity.
func Replay(history Events) (Root, error) {
	if len(history) == 0 {
		return nil, ErrEmptyHistory
	}

	if history[0].Kind() != KindCreated {
		return nil, fmt.Errorf("%w: got '%s'", ErrHistoryMustStartWithCreated, history[0].EventType())
	}

	var current Root

	for _, event := range history {
		next, err := Apply(current, event)
		if err != nil {
			return nil, err
		}

		current = next
	}

	return current, nil
}
