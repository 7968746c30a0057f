package core_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/domainkit/event-sourced-entities-go/entity"
	"github.com/domainkit/event-sourced-entities-go/example/core"
)

func TestMain(m *testing.M) {
	core.RegisterTopics()
	os.Exit(m.Run())
}

func Test_OpenOrder_InitializesAllState(t *testing.T) {
	// act
	order, err := core.OpenOrder("Ada Lovelace", 12500)

	// assert
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", order.CustomerName())
	assert.Equal(t, int64(12500), order.TotalCents())
	assert.False(t, order.IsShipped())
	assert.False(t, order.IsDiscarded())
	assert.Equal(t, uint64(0), order.Version())
	assert.NotEmpty(t, order.Head())
	assert.False(t, order.CreatedOn().IsZero())
}

func Test_Order_CommandsAdvanceTheOrder(t *testing.T) {
	// arrange
	order, err := core.OpenOrder("Ada Lovelace", 12500)
	require.NoError(t, err)

	// act
	require.NoError(t, order.Rename("Grace Hopper"))
	require.NoError(t, order.AdjustTotal(9900))
	require.NoError(t, order.Ship())

	// assert
	assert.Equal(t, "Grace Hopper", order.CustomerName())
	assert.Equal(t, int64(9900), order.TotalCents())
	assert.True(t, order.IsShipped())
	assert.Equal(t, uint64(3), order.Version())
}

func Test_Order_Cancel_IsTerminal(t *testing.T) {
	// arrange
	order, err := core.OpenOrder("Ada Lovelace", 12500)
	require.NoError(t, err)

	// act
	require.NoError(t, order.Cancel())

	// assert
	assert.True(t, order.IsDiscarded())
	assert.ErrorIs(t, order.Ship(), entity.ErrEntityIsDiscarded)
}

func Test_Order_SetAttribute_AcceptsJSONNumbers(t *testing.T) {
	// arrange - numeric attribute values come back as float64 from storage
	order, err := core.OpenOrder("Ada Lovelace", 12500)
	require.NoError(t, err)

	// act
	setErr := order.SetAttribute(core.AttrTotalCents, float64(4200))

	// assert
	require.NoError(t, setErr)
	assert.Equal(t, int64(4200), order.TotalCents())
}

func Test_Order_SetAttribute_RejectsBadValues(t *testing.T) {
	// arrange
	order, err := core.OpenOrder("Ada Lovelace", 12500)
	require.NoError(t, err)

	// assert
	assert.ErrorIs(t, order.SetAttribute(core.AttrCustomerName, 7), core.ErrInvalidAttributeValue)
	assert.ErrorIs(t, order.SetAttribute(core.AttrTotalCents, 12.5), core.ErrInvalidAttributeValue)
	assert.ErrorIs(t, order.SetAttribute("color", "red"), entity.ErrUnknownAttribute)
}

func Test_Order_RejectsForeignCustomEvents(t *testing.T) {
	// arrange
	order, err := core.OpenOrder("Ada Lovelace", 12500)
	require.NoError(t, err)

	// act
	_, triggerErr := entity.Trigger(order, "OrderTeleported", nil)

	// assert
	assert.ErrorIs(t, triggerErr, entity.ErrUnhandledEventType)
}

func Test_Order_ReplayConvergesToLiveState(t *testing.T) {
	// arrange
	order, err := core.OpenOrder("Ada Lovelace", 12500)
	require.NoError(t, err)

	require.NoError(t, order.Rename("Grace Hopper"))
	require.NoError(t, order.Ship())

	history := order.PendingEvents()

	// act
	replayed, replayErr := entity.Replay(history)

	// assert
	require.NoError(t, replayErr)
	require.NotNil(t, replayed)
	assert.True(t, entity.Equal(order, replayed))
}
