package entity

import (
	"fmt"
	"reflect"
	"time"

	"github.com/google/uuid"
)

// Clock is an alias type for a function returning the current time,
// swappable for deterministic tests.
type Clock = func() time.Time

// Publisher is the external publish/subscribe collaborator. Publishing is
// synchronous; an error raised by a subscriber propagates uncaught to the
// caller of the triggering operation.
type Publisher interface {
	Publish(event Event) error
}

// Root is the contract every event-sourced entity fulfills.
//
// Concrete entity types implement it by embedding Base plus the extension
// state they compose (Versioned, Hashchained, Timestamped or Timeuuided)
// and by providing attribute dispatch, either hand-declared per attribute
// or through an embedded AttributeMap. Types without changeable attributes
// embed NoAttributes.
type Root interface {
	// ID returns the immutable unique identifier, set once at creation.
	ID() uuid.UUID

	// IsDiscarded reports whether a Discarded event was applied; terminal
	// once true.
	IsDiscarded() bool

	// SetAttribute assigns one named attribute. It is invoked both when
	// constructing the entity from a Created event's field set and when
	// applying an AttributeChanged event.
	SetAttribute(name string, value any) error

	base() *Base
}

// EventApplier is the centralized mutator hook for concrete entity types.
//
// A type implementing it takes over the structural mutation step for
// AttributeChanged and custom event kinds; the extension bookkeeping
// (version, head, timestamps) and the Created/Discarded lifecycle steps
// always stay with the mutation pipeline, so every extension's required
// side effects are reproduced regardless.
type EventApplier interface {
	ApplyEvent(event Event) error
}

// Equaler is implemented by concrete entity types to compare every owned
// field, including extension state, against another entity.
type Equaler interface {
	Equals(other Root) bool
}

// Equal reports whether two entities are the same concrete type with equal
// state. Injected collaborators are not part of an entity's state. Types
// that do not implement Equaler compare equal only to themselves.
func Equal(a, b Root) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	if a == b {
		return true
	}

	if reflect.TypeOf(a) != reflect.TypeOf(b) {
		return false
	}

	comparable, ok := a.(Equaler)
	if !ok {
		return false
	}

	return comparable.Equals(b)
}

// Base is the embeddable identity and lifecycle state shared by all
// entities. Entities are never constructed directly; state is only set by
// the mutation step of a Created event.
type Base struct {
	id        uuid.UUID
	discarded bool

	publisher Publisher
	hasher    Hasher
	clock     Clock
}

// ID returns the immutable unique identifier of the entity.
func (b *Base) ID() uuid.UUID {
	return b.id
}

// IsDiscarded reports whether the entity was discarded.
func (b *Base) IsDiscarded() bool {
	return b.discarded
}

func (b *Base) base() *Base {
	return b
}

func (b *Base) hasherOrDefault() Hasher {
	if b.hasher != nil {
		return b.hasher
	}

	return CanonicalHasher{}
}

func (b *Base) clockOrDefault() Clock {
	if b.clock != nil {
		return b.clock
	}

	return time.Now
}

// NoAttributes satisfies the attribute dispatch part of Root for entity
// types without changeable attributes.
type NoAttributes struct{}

// SetAttribute rejects every attribute.
func (NoAttributes) SetAttribute(name string, _ any) error {
	return fmt.Errorf("%w: %s", ErrUnknownAttribute, name)
}

/***** Version counter extension *****/

// Versioned is the embeddable state of the optimistic-concurrency version
// counter extension. The version starts at 0 when the entity is constructed
// by a Created event and advances with every applied event.
type Versioned struct {
	version uint64
}

// Version returns the entity's current version.
func (v *Versioned) Version() uint64 {
	return v.version
}

func (v *Versioned) setVersion(version uint64) {
	v.version = version
}

type versionCarrier interface {
	Version() uint64
	setVersion(version uint64)
}

/***** Hash-chain integrity extension *****/

// GenesisHash is the fixed constant used as the expected previous hash for
// an entity's first event. Entity types may override it by shadowing the
// GenesisHash method of the embedded Hashchained state.
const GenesisHash = "genesis"

// Hashchained is the embeddable state of the hash-chain integrity
// extension. The head is the hash of the most recently applied event and
// advances with every mutation, including the final Discarded event.
type Hashchained struct {
	head string
}

// Head returns the hash of the most recently applied event.
func (h *Hashchained) Head() string {
	return h.head
}

// GenesisHash returns the expected previous hash for the entity's first event.
func (h *Hashchained) GenesisHash() string {
	return GenesisHash
}

func (h *Hashchained) setHead(head string) {
	h.head = head
}

type headCarrier interface {
	Head() string
	GenesisHash() string
	setHead(head string)
}

/***** Timestamp extension *****/

// Timestamped is the embeddable state of the audit timestamp extension.
// CreatedOn is set once from the Created event; LastModified advances with
// every applied event, unconditionally. Compose either Timestamped or
// Timeuuided, not both.
type Timestamped struct {
	createdOn    time.Time
	lastModified time.Time
}

// CreatedOn returns the timestamp of the Created event.
func (t *Timestamped) CreatedOn() time.Time {
	return t.createdOn
}

// LastModified returns the timestamp of the most recently applied event.
func (t *Timestamped) LastModified() time.Time {
	return t.lastModified
}

func (t *Timestamped) setCreatedOn(timestamp time.Time) {
	t.createdOn = timestamp
}

func (t *Timestamped) setLastModified(timestamp time.Time) {
	t.lastModified = timestamp
}

type timestampCarrier interface {
	CreatedOn() time.Time
	LastModified() time.Time
	setCreatedOn(timestamp time.Time)
	setLastModified(timestamp time.Time)
}

/***** Time-derived identity extension *****/

// Timeuuided is the embeddable state of the time-derived identity
// extension. Instead of storing timestamps, the entity retains the first
// and most recent event identifiers, drawn from a time-ordered unique-id
// scheme (UUID version 7); CreatedOn and LastModified are computed lazily
// from the time component embedded in those identifiers.
type Timeuuided struct {
	initialEventID uuid.UUID
	lastEventID    uuid.UUID
}

// InitialEventID returns the identifier of the Created event.
func (t *Timeuuided) InitialEventID() uuid.UUID {
	return t.initialEventID
}

// LastEventID returns the identifier of the most recently applied event.
func (t *Timeuuided) LastEventID() uuid.UUID {
	return t.lastEventID
}

// CreatedOn returns the time component of the Created event's identifier.
func (t *Timeuuided) CreatedOn() time.Time {
	return timeFromEventID(t.initialEventID)
}

// LastModified returns the time component of the most recent event's identifier.
func (t *Timeuuided) LastModified() time.Time {
	return timeFromEventID(t.lastEventID)
}

func (t *Timeuuided) setInitialEventID(eventID uuid.UUID) {
	t.initialEventID = eventID
}

func (t *Timeuuided) setLastEventID(eventID uuid.UUID) {
	t.lastEventID = eventID
}

type eventIDCarrier interface {
	InitialEventID() uuid.UUID
	LastEventID() uuid.UUID
	setInitialEventID(eventID uuid.UUID)
	setLastEventID(eventID uuid.UUID)
}

func timeFromEventID(eventID uuid.UUID) time.Time {
	if eventID == uuid.Nil {
		return time.Time{}
	}

	sec, nsec := eventID.Time().UnixTime()

	return time.Unix(sec, nsec).UTC()
}

func entityTypeName(target Root) string {
	targetType := reflect.TypeOf(target)
	for targetType != nil && targetType.Kind() == reflect.Pointer {
		targetType = targetType.Elem()
	}

	if targetType == nil {
		return ""
	}

	return targetType.Name()
}
