package entity_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/domainkit/event-sourced-entities-go/entity"
)

func Test_Equal_ComparesConcreteTypeAndState(t *testing.T) {
	// arrange
	first, err := entity.Create(newShipment, entity.Fields{attrDestination: "Rotterdam"})
	require.NoError(t, err)

	second, err := entity.Create(newShipment, entity.Fields{attrDestination: "Rotterdam"})
	require.NoError(t, err)

	differentType, err := entity.Create(newPlainItem, nil)
	require.NoError(t, err)

	// assert
	assert.True(t, entity.Equal(first, first))
	assert.False(t, entity.Equal(first, second)) // different identities
	assert.False(t, entity.Equal(first, differentType))
	assert.False(t, entity.Equal(first, nil))
	assert.True(t, entity.Equal(nil, nil))
}

func Test_Equal_TypeWithoutEqualsMatchesOnlyItself(t *testing.T) {
	// arrange
	first, err := entity.Create(func() *lantern { return &lantern{} }, nil)
	require.NoError(t, err)

	second, err := entity.Create(func() *lantern { return &lantern{} }, nil)
	require.NoError(t, err)

	// assert
	assert.True(t, entity.Equal(first, first))
	assert.False(t, entity.Equal(first, second))
}

func Test_NoAttributes_RejectsEveryAttribute(t *testing.T) {
	// act
	err := entity.NoAttributes{}.SetAttribute("anything", 1)

	// assert
	assert.ErrorIs(t, err, entity.ErrUnknownAttribute)
}
