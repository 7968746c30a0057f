package entity

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// Fields is an alias type for the named values carried by an event.
type Fields = map[string]any

// Events is an alias type for a slice of Event.
type Events = []Event

// Kind discriminates the event variants of the mutation protocol.
type Kind int

const (
	KindCreated Kind = iota + 1
	KindAttributeChanged
	KindDiscarded
	KindCustom
)

// String returns the name of the event kind.
func (k Kind) String() string {
	switch k {
	case KindCreated:
		return "Created"
	case KindAttributeChanged:
		return "AttributeChanged"
	case KindDiscarded:
		return "Discarded"
	case KindCustom:
		return "Custom"
	default:
		return "Unknown"
	}
}

// Default event type identifiers for the built-in event kinds.
const (
	CreatedEventType          = "Created"
	AttributeChangedEventType = "AttributeChanged"
	DiscardedEventType        = "Discarded"
)

// Event is one immutable record of a state transition for a specific entity.
//
// It is a tagged variant: one concrete type carries the union of the fields
// the composed extensions need, discriminated by Kind. Unset extension
// fields are flagged off. Events are write-once; all fields are unexported
// and only readable through the accessor methods. Construct events with the
// supplied factory methods:
//   - BuildCreatedEvent
//   - BuildAttributeChangedEvent
//   - BuildDiscardedEvent
//   - BuildCustomEvent
type Event struct {
	kind              Kind
	eventType         string
	originatorID      uuid.UUID
	originatorTopic   string
	originatorVersion uint64
	hasVersion        bool
	eventHash         string
	previousHash      string
	hasHashchain      bool
	timestamp         time.Time
	eventID           uuid.UUID
	hasEventID        bool
	name              string
	value             any
	fields            Fields
}

// EventOption defines a functional option to stamp extension fields onto an
// event while it is being built.
type EventOption func(*Event)

// NamedEventType overrides the default event type identifier.
func NamedEventType(eventType string) EventOption {
	return func(e *Event) {
		if eventType != "" {
			e.eventType = eventType
		}
	}
}

// StampedWithVersion stamps the originator version the entity will have
// once this event is applied.
func StampedWithVersion(originatorVersion uint64) EventOption {
	return func(e *Event) {
		e.originatorVersion = originatorVersion
		e.hasVersion = true
	}
}

// StampedWithPreviousHash stamps the head hash the triggering entity
// observed at trigger time.
func StampedWithPreviousHash(previousHash string) EventOption {
	return func(e *Event) {
		e.previousHash = previousHash
		e.hasHashchain = true
	}
}

// StampedWithEventHash stamps the event's own digest. It is used when
// restoring persisted events; live triggers compute the digest through the
// entity's hashing collaborator instead.
func StampedWithEventHash(eventHash string) EventOption {
	return func(e *Event) {
		e.eventHash = eventHash
		e.hasHashchain = true
	}
}

// StampedWithTimestamp stamps the time at which the event occurred.
func StampedWithTimestamp(timestamp time.Time) EventOption {
	return func(e *Event) {
		e.timestamp = timestamp
	}
}

// StampedWithEventID stamps a time-ordered unique event identifier.
func StampedWithEventID(eventID uuid.UUID) EventOption {
	return func(e *Event) {
		e.eventID = eventID
		e.hasEventID = true
	}
}

// BuildCreatedEvent is a factory method for the Created event variant.
//
// The originator topic is a resolvable reference to the concrete entity
// type; it is only used when the event is applied with no existing target.
func BuildCreatedEvent(originatorID uuid.UUID, originatorTopic string, fields Fields, opts ...EventOption) Event {
	event := Event{
		kind:            KindCreated,
		eventType:       CreatedEventType,
		originatorID:    originatorID,
		originatorTopic: originatorTopic,
		fields:          copyFields(fields),
	}

	for _, opt := range opts {
		opt(&event)
	}

	return event
}

// BuildAttributeChangedEvent is a factory method for the AttributeChanged
// event variant.
func BuildAttributeChangedEvent(originatorID uuid.UUID, name string, value any, opts ...EventOption) Event {
	event := Event{
		kind:         KindAttributeChanged,
		eventType:    AttributeChangedEventType,
		originatorID: originatorID,
		name:         name,
		value:        value,
	}

	for _, opt := range opts {
		opt(&event)
	}

	return event
}

// BuildDiscardedEvent is a factory method for the Discarded event variant.
func BuildDiscardedEvent(originatorID uuid.UUID, opts ...EventOption) Event {
	event := Event{
		kind:         KindDiscarded,
		eventType:    DiscardedEventType,
		originatorID: originatorID,
	}

	for _, opt := range opts {
		opt(&event)
	}

	return event
}

// BuildCustomEvent is a factory method for entity-specific event variants
// beyond the built-in kinds. Entities receiving such events must implement
// EventApplier.
func BuildCustomEvent(eventType string, originatorID uuid.UUID, fields Fields, opts ...EventOption) Event {
	event := Event{
		kind:         KindCustom,
		eventType:    eventType,
		originatorID: originatorID,
		fields:       copyFields(fields),
	}

	for _, opt := range opts {
		opt(&event)
	}

	return event
}

// Kind returns the event variant discriminator.
func (e Event) Kind() Kind {
	return e.kind
}

// EventType returns the string identifier for this event type.
func (e Event) EventType() string {
	return e.eventType
}

// OriginatorID returns the identifier of the entity this event targets.
func (e Event) OriginatorID() uuid.UUID {
	return e.originatorID
}

// OriginatorTopic returns the resolvable reference to the concrete entity
// type. It is only set on Created events.
func (e Event) OriginatorTopic() string {
	return e.originatorTopic
}

// OriginatorVersion returns the version the originator will have once this
// event is applied. Only meaningful if HasVersion reports true.
func (e Event) OriginatorVersion() uint64 {
	return e.originatorVersion
}

// HasVersion reports whether the version counter extension stamped this event.
func (e Event) HasVersion() bool {
	return e.hasVersion
}

// EventHash returns the event's own deterministic digest.
func (e Event) EventHash() string {
	return e.eventHash
}

// PreviousHash returns the head hash the triggering entity observed.
func (e Event) PreviousHash() string {
	return e.previousHash
}

// HasHashchain reports whether the hash-chain extension stamped this event.
func (e Event) HasHashchain() bool {
	return e.hasHashchain
}

// Timestamp returns when this event occurred; the zero time if the
// timestamp extension did not stamp it.
func (e Event) Timestamp() time.Time {
	return e.timestamp
}

// HasTimestamp reports whether the timestamp extension stamped this event.
func (e Event) HasTimestamp() bool {
	return !e.timestamp.IsZero()
}

// EventID returns the time-ordered unique identifier of this event. Only
// meaningful if HasEventID reports true.
func (e Event) EventID() uuid.UUID {
	return e.eventID
}

// HasEventID reports whether the time-derived identity extension stamped
// this event.
func (e Event) HasEventID() bool {
	return e.hasEventID
}

// Name returns the attribute name of an AttributeChanged event.
func (e Event) Name() string {
	return e.name
}

// Value returns the attribute value of an AttributeChanged event.
func (e Event) Value() any {
	return e.value
}

// Fields returns a copy of the named values carried by the event.
func (e Event) Fields() Fields {
	return copyFields(e.fields)
}

// withEventHash returns a copy of the event with its digest set, keeping
// the original write-once.
func (e Event) withEventHash(eventHash string) Event {
	e.eventHash = eventHash
	e.hasHashchain = true
	return e
}

// hashablePayload collects the canonical field set the hashing collaborator
// digests. The event's own hash is excluded.
func (e Event) hashablePayload() map[string]any {
	payload := map[string]any{
		"kind":          e.kind.String(),
		"event_type":    e.eventType,
		"originator_id": e.originatorID.String(),
	}

	if e.originatorTopic != "" {
		payload["originator_topic"] = e.originatorTopic
	}

	if e.hasVersion {
		payload["originator_version"] = e.originatorVersion
	}

	if e.hasHashchain {
		payload["previous_hash"] = e.previousHash
	}

	if !e.timestamp.IsZero() {
		payload["timestamp"] = e.timestamp.UTC().Format(time.RFC3339Nano)
	}

	if e.hasEventID {
		payload["event_id"] = e.eventID.String()
	}

	if e.kind == KindAttributeChanged {
		payload["name"] = e.name
		payload["value"] = e.value
	}

	if len(e.fields) > 0 {
		payload["fields"] = e.fields
	}

	return payload
}

func copyFields(fields Fields) Fields {
	if fields == nil {
		return nil
	}

	copied := make(Fields, len(fields))
	for name, value := range fields {
		copied[name] = value
	}

	return copied
}

func sortedFieldNames(fields Fields) []string {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}
