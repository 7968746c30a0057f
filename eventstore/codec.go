package eventstore

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"

	"github.com/domainkit/event-sourced-entities-go/entity"
)

var ErrMappingToStorableEventFailed = errors.New("mapping entity event to storable event failed")
var ErrRestoringEntityEventFailed = errors.New("restoring entity event from storable event failed")

// storableMetadata carries the protocol stamps of an entity event through
// storage, separate from the domain payload.
type storableMetadata struct {
	Kind              string  `json:"kind"`
	OriginatorTopic   string  `json:"originator_topic,omitempty"`
	OriginatorVersion *uint64 `json:"originator_version,omitempty"`
	EventHash         string  `json:"event_hash,omitempty"`
	PreviousHash      string  `json:"previous_hash,omitempty"`
	Hashchained       bool    `json:"hashchained,omitempty"`
	EventID           string  `json:"event_id,omitempty"`
}

// attributeChangedPayload is the domain payload of an AttributeChanged event.
type attributeChangedPayload struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}

// StorableEventFrom converts an entity event into its storage
// representation: the domain fields become the payload, the protocol
// stamps become the metadata.
//
// Attribute values and event fields round-trip with JSON semantics, so
// numeric values come back as float64.
func StorableEventFrom(event entity.Event) (StorableEvent, error) {
	var payload any

	switch event.Kind() {
	case entity.KindAttributeChanged:
		payload = attributeChangedPayload{Name: event.Name(), Value: event.Value()}
	default:
		fields := event.Fields()
		if fields == nil {
			fields = entity.Fields{}
		}
		payload = fields
	}

	payloadJSON, payloadErr := jsoniter.ConfigFastest.Marshal(payload)
	if payloadErr != nil {
		return StorableEvent{}, errors.Join(ErrMappingToStorableEventFailed, payloadErr)
	}

	metadata := storableMetadata{
		Kind:            event.Kind().String(),
		OriginatorTopic: event.OriginatorTopic(),
		EventHash:       event.EventHash(),
		PreviousHash:    event.PreviousHash(),
		Hashchained:     event.HasHashchain(),
	}

	if event.HasVersion() {
		version := event.OriginatorVersion()
		metadata.OriginatorVersion = &version
	}

	if event.HasEventID() {
		metadata.EventID = event.EventID().String()
	}

	metadataJSON, metadataErr := jsoniter.ConfigFastest.Marshal(metadata)
	if metadataErr != nil {
		return StorableEvent{}, errors.Join(ErrMappingToStorableEventFailed, metadataErr)
	}

	storableEvent, buildErr := BuildStorableEvent(
		event.EventType(),
		event.OriginatorID().String(),
		event.Timestamp(),
		payloadJSON,
		metadataJSON,
	)
	if buildErr != nil {
		return StorableEvent{}, errors.Join(ErrMappingToStorableEventFailed, buildErr)
	}

	return storableEvent, nil
}

// EntityEventFrom restores an entity event from its storage
// representation, stamps included, so that replaying restored events
// converges to the same entity state as the live application did.
func EntityEventFrom(storable StorableEvent) (entity.Event, error) {
	metadata := storableMetadata{}
	if err := jsoniter.ConfigFastest.Unmarshal(storable.MetadataJSON, &metadata); err != nil {
		return entity.Event{}, errors.Join(ErrRestoringEntityEventFailed, err)
	}

	originatorID, idErr := uuid.Parse(storable.OriginatorID)
	if idErr != nil {
		return entity.Event{}, errors.Join(ErrRestoringEntityEventFailed, idErr)
	}

	stamps, stampsErr := stampsFromMetadata(storable, metadata)
	if stampsErr != nil {
		return entity.Event{}, stampsErr
	}

	switch metadata.Kind {
	case entity.KindCreated.String():
		fields := entity.Fields{}
		if err := jsoniter.ConfigFastest.Unmarshal(storable.PayloadJSON, &fields); err != nil {
			return entity.Event{}, errors.Join(ErrRestoringEntityEventFailed, err)
		}

		return entity.BuildCreatedEvent(originatorID, metadata.OriginatorTopic, fields, stamps...), nil

	case entity.KindAttributeChanged.String():
		payload := attributeChangedPayload{}
		if err := jsoniter.ConfigFastest.Unmarshal(storable.PayloadJSON, &payload); err != nil {
			return entity.Event{}, errors.Join(ErrRestoringEntityEventFailed, err)
		}

		return entity.BuildAttributeChangedEvent(originatorID, payload.Name, payload.Value, stamps...), nil

	case entity.KindDiscarded.String():
		return entity.BuildDiscardedEvent(originatorID, stamps...), nil

	case entity.KindCustom.String():
		fields := entity.Fields{}
		if err := jsoniter.ConfigFastest.Unmarshal(storable.PayloadJSON, &fields); err != nil {
			return entity.Event{}, errors.Join(ErrRestoringEntityEventFailed, err)
		}

		return entity.BuildCustomEvent(storable.EventType, originatorID, fields, stamps...), nil

	default:
		return entity.Event{}, fmt.Errorf("%w: unknown kind '%s'", ErrRestoringEntityEventFailed, metadata.Kind)
	}
}

// EntityEventsFrom restores a whole stream in order.
func EntityEventsFrom(storables StorableEvents) (entity.Events, error) {
	history := make(entity.Events, 0, len(storables))

	for _, storable := range storables {
		event, err := EntityEventFrom(storable)
		if err != nil {
			return nil, err
		}

		history = append(history, event)
	}

	return history, nil
}

func stampsFromMetadata(storable StorableEvent, metadata storableMetadata) ([]entity.EventOption, error) {
	stamps := []entity.EventOption{entity.NamedEventType(storable.EventType)}

	if metadata.OriginatorVersion != nil {
		stamps = append(stamps, entity.StampedWithVersion(*metadata.OriginatorVersion))
	}

	if metadata.Hashchained {
		stamps = append(stamps,
			entity.StampedWithPreviousHash(metadata.PreviousHash),
			entity.StampedWithEventHash(metadata.EventHash),
		)
	}

	if !storable.OccurredAt.IsZero() {
		stamps = append(stamps, entity.StampedWithTimestamp(storable.OccurredAt))
	}

	if metadata.EventID != "" {
		eventID, err := uuid.Parse(metadata.EventID)
		if err != nil {
			return nil, errors.Join(ErrRestoringEntityEventFailed, err)
		}

		stamps = append(stamps, entity.StampedWithEventID(eventID))
	}

	return stamps, nil
}
