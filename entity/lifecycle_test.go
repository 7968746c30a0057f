package entity_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/domainkit/event-sourced-entities-go/entity"
)

func Test_Create_StampsEveryComposedExtension(t *testing.T) {
	// arrange
	publisher := &recordingPublisher{}
	creationTime := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

	// act
	created, err := entity.Create(
		newShipment,
		entity.Fields{attrDestination: "Rotterdam", attrPriority: "high"},
		entity.WithPublisher(publisher),
		entity.WithClock(func() time.Time { return creationTime }),
	)

	// assert
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, created.ID())
	assert.False(t, created.IsDiscarded())
	assert.Equal(t, uint64(0), created.Version())
	assert.NotEmpty(t, created.Head())
	assert.True(t, creationTime.Equal(created.CreatedOn()))
	assert.True(t, creationTime.Equal(created.LastModified()))
	assert.Equal(t, "Rotterdam", created.destination)
	assert.Equal(t, "high", created.priority)

	require.Len(t, publisher.published, 1)
	createdEvent := publisher.published[0]
	assert.Equal(t, entity.KindCreated, createdEvent.Kind())
	assert.Equal(t, entity.CreatedEventType, createdEvent.EventType())
	assert.Equal(t, created.ID(), createdEvent.OriginatorID())
	assert.Equal(t, shipmentTopic, createdEvent.OriginatorTopic())
	assert.Equal(t, entity.GenesisHash, createdEvent.PreviousHash())
	assert.Equal(t, created.Head(), createdEvent.EventHash())
}

func Test_Create_WithChosenID(t *testing.T) {
	// arrange
	chosenID := uuid.New()

	// act
	created, err := entity.Create(
		newShipment,
		entity.Fields{attrDestination: "Oslo"},
		entity.WithID(chosenID),
	)

	// assert
	require.NoError(t, err)
	assert.Equal(t, chosenID, created.ID())
}

func Test_Create_WithCustomEventType(t *testing.T) {
	// arrange
	publisher := &recordingPublisher{}

	// act
	_, err := entity.Create(
		newShipment,
		entity.Fields{attrDestination: "Hamburg"},
		entity.WithPublisher(publisher),
		entity.WithEventType("ShipmentBooked"),
	)

	// assert
	require.NoError(t, err)
	require.Len(t, publisher.published, 1)
	assert.Equal(t, "ShipmentBooked", publisher.published[0].EventType())
	assert.Equal(t, entity.KindCreated, publisher.published[0].Kind())
}

func Test_Create_Fails_WhenTypeNotRegistered(t *testing.T) {
	// arrange
	type driftwood struct {
		entity.Base
		entity.NoAttributes
	}

	// act
	_, err := entity.Create(func() *driftwood { return &driftwood{} }, nil)

	// assert
	assert.ErrorIs(t, err, entity.ErrTopicNotRegistered)
}

func Test_Create_Fails_WhenPublisherRejectsEvent(t *testing.T) {
	// act
	_, err := entity.Create(
		newShipment,
		entity.Fields{attrDestination: "Lisbon"},
		entity.WithPublisher(failingPublisher{}),
	)

	// assert
	assert.ErrorIs(t, err, errPublisherRejected)
}

func Test_ChangeAttribute_AdvancesEveryComposedExtension(t *testing.T) {
	// arrange
	creationTime := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	changeTime := creationTime.Add(42 * time.Minute)
	now := creationTime

	target, err := entity.Create(
		newShipment,
		entity.Fields{attrDestination: "Rotterdam"},
		entity.WithClock(func() time.Time { return now }),
	)
	require.NoError(t, err)

	headBefore := target.Head()
	now = changeTime

	// act
	changedEvent, changeErr := entity.ChangeAttribute(target, attrDestination, "Antwerp")

	// assert
	require.NoError(t, changeErr)
	assert.Equal(t, "Antwerp", target.destination)
	assert.Equal(t, uint64(1), target.Version())
	assert.NotEqual(t, headBefore, target.Head())
	assert.True(t, creationTime.Equal(target.CreatedOn()))
	assert.True(t, changeTime.Equal(target.LastModified()))

	assert.Equal(t, entity.KindAttributeChanged, changedEvent.Kind())
	assert.Equal(t, attrDestination, changedEvent.Name())
	assert.Equal(t, "Antwerp", changedEvent.Value())
	assert.Equal(t, headBefore, changedEvent.PreviousHash())
	assert.Equal(t, target.Head(), changedEvent.EventHash())
}

func Test_ChangeAttribute_Fails_OnUnknownAttribute(t *testing.T) {
	// arrange
	target, err := entity.Create(newShipment, entity.Fields{attrDestination: "Rotterdam"})
	require.NoError(t, err)

	// act
	_, changeErr := entity.ChangeAttribute(target, "color", "red")

	// assert - the entity is not partially updated
	assert.ErrorIs(t, changeErr, entity.ErrUnknownAttribute)
	assert.Equal(t, uint64(0), target.Version())
	assert.Equal(t, "Rotterdam", target.destination)
}

func Test_Trigger_Fails_WhenEntityHasNoCentralizedMutator(t *testing.T) {
	// arrange
	target, err := entity.Create(newShipment, entity.Fields{attrDestination: "Rotterdam"})
	require.NoError(t, err)

	// act
	_, triggerErr := entity.Trigger(target, "ShipmentDispatched", nil)

	// assert
	assert.ErrorIs(t, triggerErr, entity.ErrUnhandledEventType)
}

func Test_Trigger_CustomEvent_ThroughCentralizedMutator(t *testing.T) {
	// arrange
	target, err := entity.Create(newMeter, entity.Fields{"unit": "kWh"})
	require.NoError(t, err)

	// act
	calibratedEvent, triggerErr := entity.Trigger(target, meterCalibratedEventType, nil)

	// assert
	require.NoError(t, triggerErr)
	assert.Equal(t, 1, target.calibrations)
	assert.Equal(t, uint64(1), target.Version())
	assert.Equal(t, entity.KindCustom, calibratedEvent.Kind())
	assert.Equal(t, meterCalibratedEventType, calibratedEvent.EventType())
}

func Test_Discard_IsTerminal(t *testing.T) {
	// arrange
	target, err := entity.Create(newShipment, entity.Fields{attrDestination: "Rotterdam"})
	require.NoError(t, err)

	// act
	discardedEvent, discardErr := entity.Discard(target)

	// assert
	require.NoError(t, discardErr)
	assert.True(t, target.IsDiscarded())
	assert.Equal(t, entity.KindDiscarded, discardedEvent.Kind())

	_, changeErr := entity.ChangeAttribute(target, attrDestination, "Antwerp")
	assert.ErrorIs(t, changeErr, entity.ErrEntityIsDiscarded)

	_, secondDiscardErr := entity.Discard(target)
	assert.ErrorIs(t, secondDiscardErr, entity.ErrEntityIsDiscarded)
}

func Test_Replay_ConvergesToLiveState(t *testing.T) {
	// arrange
	publisher := &recordingPublisher{}
	now := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

	live, err := entity.Create(
		newShipment,
		entity.Fields{attrDestination: "Rotterdam", attrPriority: "low"},
		entity.WithPublisher(publisher),
		entity.WithClock(func() time.Time { return now }),
	)
	require.NoError(t, err)

	now = now.Add(time.Hour)
	_, err = entity.ChangeAttribute(live, attrDestination, "Antwerp")
	require.NoError(t, err)

	now = now.Add(time.Hour)
	_, err = entity.ChangeAttribute(live, attrPriority, "high")
	require.NoError(t, err)

	// act
	replayed, replayErr := entity.Replay(publisher.published)

	// assert
	require.NoError(t, replayErr)
	require.NotNil(t, replayed)
	assert.True(t, entity.Equal(live, replayed))
}

func Test_Replay_ConvergesToLiveState_WithTimeDerivedIdentities(t *testing.T) {
	// arrange
	publisher := &recordingPublisher{}

	live, err := entity.Create(
		newStampCard,
		entity.Fields{"holder": "reader-17"},
		entity.WithPublisher(publisher),
	)
	require.NoError(t, err)

	_, err = entity.ChangeAttribute(live, "holder", "reader-18")
	require.NoError(t, err)

	// act
	replayed, replayErr := entity.Replay(publisher.published)

	// assert
	require.NoError(t, replayErr)
	require.NotNil(t, replayed)
	assert.True(t, entity.Equal(live, replayed))

	replayedCard, ok := replayed.(*stampCard)
	require.True(t, ok)
	assert.False(t, replayedCard.CreatedOn().IsZero())
	assert.False(t, replayedCard.LastModified().Before(replayedCard.CreatedOn()))
}

func Test_Replay_YieldsNilEntity_WhenHistoryEndsWithDiscard(t *testing.T) {
	// arrange
	publisher := &recordingPublisher{}

	live, err := entity.Create(
		newShipment,
		entity.Fields{attrDestination: "Rotterdam"},
		entity.WithPublisher(publisher),
	)
	require.NoError(t, err)

	_, err = entity.Discard(live)
	require.NoError(t, err)

	// act
	replayed, replayErr := entity.Replay(publisher.published)

	// assert
	require.NoError(t, replayErr)
	assert.Nil(t, replayed)
}

func Test_Replay_Fails_WhenHistoryIsEmpty(t *testing.T) {
	// act
	_, err := entity.Replay(nil)

	// assert
	assert.ErrorIs(t, err, entity.ErrEmptyHistory)
}

func Test_Replay_Fails_WhenHistoryDoesNotStartWithCreated(t *testing.T) {
	// arrange
	notCreated := entity.BuildAttributeChangedEvent(uuid.New(), attrDestination, "Antwerp")

	// act
	_, err := entity.Replay(entity.Events{notCreated})

	// assert
	assert.ErrorIs(t, err, entity.ErrHistoryMustStartWithCreated)
}

func Test_IdentityOnlyEntity_CarriesNoExtensionStamps(t *testing.T) {
	// arrange
	publisher := &recordingPublisher{}

	// act
	created, err := entity.Create(
		newPlainItem,
		entity.Fields{"label": "box"},
		entity.WithPublisher(publisher),
	)

	// assert
	require.NoError(t, err)
	require.Len(t, publisher.published, 1)

	createdEvent := publisher.published[0]
	assert.False(t, createdEvent.HasVersion())
	assert.False(t, createdEvent.HasHashchain())
	assert.False(t, createdEvent.HasTimestamp())
	assert.False(t, createdEvent.HasEventID())

	label, ok := created.Attribute("label")
	require.True(t, ok)
	assert.Equal(t, "box", label)
}
