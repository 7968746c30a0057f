package core_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/domainkit/event-sourced-entities-go/entity"
	"github.com/domainkit/event-sourced-entities-go/example/core"
)

func Test_RecordAuditNote_DerivesTimesFromEventIDs(t *testing.T) {
	// act
	note, err := core.RecordAuditNote(entity.Fields{"actor": "ops", "reason": "manual correction"})

	// assert
	require.NoError(t, err)
	assert.Equal(t, uint64(0), note.Version())
	assert.False(t, note.CreatedOn().IsZero())
	assert.True(t, note.CreatedOn().Equal(note.LastModified()))

	actor, ok := note.Attribute("actor")
	require.True(t, ok)
	assert.Equal(t, "ops", actor)
}

func Test_AuditNote_Annotate_AdvancesLastModified(t *testing.T) {
	// arrange
	note, err := core.RecordAuditNote(entity.Fields{"actor": "ops"})
	require.NoError(t, err)

	initialEventID := note.InitialEventID()

	// act
	require.NoError(t, note.Annotate("reviewed", true))

	// assert
	assert.Equal(t, uint64(1), note.Version())
	assert.Equal(t, initialEventID, note.InitialEventID())
	assert.NotEqual(t, initialEventID, note.LastEventID())
	assert.False(t, note.LastModified().Before(note.CreatedOn()))

	reviewed, ok := note.Attribute("reviewed")
	require.True(t, ok)
	assert.Equal(t, true, reviewed)
}

func Test_AuditNote_ReplayConvergesToLiveState(t *testing.T) {
	// arrange
	publisher := &recordingPublisher{}

	note, err := core.RecordAuditNote(
		entity.Fields{"actor": "ops"},
		entity.WithPublisher(publisher),
	)
	require.NoError(t, err)

	require.NoError(t, note.Annotate("reviewed", true))

	// act
	replayed, replayErr := entity.Replay(publisher.published)

	// assert
	require.NoError(t, replayErr)
	require.NotNil(t, replayed)
	assert.True(t, entity.Equal(note, replayed))
}

type recordingPublisher struct {
	published entity.Events
}

func (p *recordingPublisher) Publish(event entity.Event) error {
	p.published = append(p.published, event)
	return nil
}
