package eventstore

import (
	"encoding/json"
	"errors"
	"time"
)

var ErrInvalidPayloadJSON = errors.New("payload json is not valid")
var ErrInvalidMetadataJSON = errors.New("metadata json is not valid")

// StorableEvents is an alias type for a slice of StorableEvent.
type StorableEvents = []StorableEvent

// StorableEvent is a DTO (data transfer object) used by the store engines
// to append events and query them back.
//
// It is built on scalars to be agnostic of the entity protocol: the
// originator id keys the event stream, the payload carries the domain
// fields and the metadata carries the protocol stamps (kind, topic,
// version, hashes, event id).
//
// While its properties are exported, it should only be constructed with
// the supplied factory methods:
//   - BuildStorableEvent
//   - BuildStorableEventWithEmptyMetadata
type StorableEvent struct {
	EventType    string
	OriginatorID string
	OccurredAt   time.Time
	PayloadJSON  []byte
	MetadataJSON []byte
}

// BuildStorableEvent is a factory method for StorableEvent.
//
// It populates the StorableEvent with the given scalar input. Returns an
// error if the originator id is empty or payloadJSON or metadataJSON are
// not valid JSON.
func BuildStorableEvent(
	eventType string,
	originatorID string,
	occurredAt time.Time,
	payloadJSON []byte,
	metadataJSON []byte,
) (StorableEvent, error) {

	if originatorID == "" {
		return StorableEvent{}, ErrEmptyOriginatorID
	}

	if !json.Valid(payloadJSON) {
		return StorableEvent{}, ErrInvalidPayloadJSON
	}

	if !json.Valid(metadataJSON) {
		return StorableEvent{}, ErrInvalidMetadataJSON
	}

	return StorableEvent{
		EventType:    eventType,
		OriginatorID: originatorID,
		OccurredAt:   occurredAt,
		PayloadJSON:  payloadJSON,
		MetadataJSON: metadataJSON,
	}, nil
}

// BuildStorableEventWithEmptyMetadata is a factory method for
// StorableEvent which creates valid empty JSON for MetadataJSON.
func BuildStorableEventWithEmptyMetadata(
	eventType string,
	originatorID string,
	occurredAt time.Time,
	payloadJSON []byte,
) (StorableEvent, error) {

	return BuildStorableEvent(eventType, originatorID, occurredAt, payloadJSON, []byte("{}"))
}
