package entity

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var ErrIdentityMismatch = errors.New("event originator id does not match entity id")
var ErrIntegrityBreak = errors.New("event previous hash does not match entity head")
var ErrConcurrencyConflict = errors.New("event originator version does not follow entity version")
var ErrEntityIsDiscarded = errors.New("entity is discarded")
var ErrNoLiveTarget = errors.New("no live entity to apply the event to")
var ErrCreateProducedNoEntity = errors.New("creating the entity produced no entity")
var ErrEmptyHistory = errors.New("event history is empty")
var ErrHistoryMustStartWithCreated = errors.New("event history must start with a created event")
var ErrUnknownAttribute = errors.New("entity has no such attribute")
var ErrUnhandledEventType = errors.New("entity cannot apply events of this type")
var ErrTopicAlreadyRegistered = errors.New("topic is already registered")
var ErrTopicNotRegistered = errors.New("topic is not registered")
var ErrHashingEventFailed = errors.New("hashing the event failed")
var ErrStampingEventFailed = errors.New("stamping the event failed")

// IdentityMismatchError is returned when an event is applied to an entity
// it was not triggered for. This indicates structural corruption and must
// never be retried.
type IdentityMismatchError struct {
	EntityID          uuid.UUID
	EventOriginatorID uuid.UUID
	EventType         string
}

func (e IdentityMismatchError) Error() string {
	return fmt.Sprintf(
		"entity id '%s' is not equal to the originator id '%s' of event '%s'",
		e.EntityID, e.EventOriginatorID, e.EventType)
}

func (e IdentityMismatchError) Is(target error) bool {
	return target == ErrIdentityMismatch
}

// IntegrityBreakError is returned when an event's previous hash does not
// match the entity's current head. It signals a tampered or reordered
// event, or a conflicting concurrent write; the caller may reload the
// current head and retry the whole operation.
type IntegrityBreakError struct {
	EntityID    uuid.UUID
	CurrentHead string
	EventType   string
}

func (e IntegrityBreakError) Error() string {
	return fmt.Sprintf(
		"previous hash of event '%s' does not match head '%s' of entity '%s'",
		e.EventType, e.CurrentHead, e.EntityID)
}

func (e IntegrityBreakError) Is(target error) bool {
	return target == ErrIntegrityBreak
}

// ConcurrencyConflictError is returned when an event's originator version
// does not follow the entity's current version. The caller is expected to
// reload the current state and retry.
type ConcurrencyConflictError struct {
	ExpectedVersion uint64
	ActualVersion   uint64
	EventType       string
	EntityType      string
	EntityID        uuid.UUID
}

func (e ConcurrencyConflictError) Error() string {
	return fmt.Sprintf(
		"event takes entity to version %d, but entity is currently at version %d, event type: '%s', entity type: '%s', entity id: '%s'",
		e.ExpectedVersion, e.ActualVersion, e.EventType, e.EntityType, e.EntityID)
}

func (e ConcurrencyConflictError) Is(target error) bool {
	return target == ErrConcurrencyConflict
}

// DiscardedEntityError is returned when an operation is attempted on an
// entity that was already discarded. Discarding is terminal; this must
// never be retried.
type DiscardedEntityError struct {
	EntityID uuid.UUID
}

func (e DiscardedEntityError) Error() string {
	return fmt.Sprintf("entity '%s' is discarded", e.EntityID)
}

func (e DiscardedEntityError) Is(target error) bool {
	return target == ErrEntityIsDiscarded
}
