package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_PublishSubscribe(t *testing.T) {
	bus := NewBus()
	first, unsubscribeFirst := bus.Subscribe()
	second, unsubscribeSecond := bus.Subscribe()
	defer unsubscribeSecond()

	bus.Publish(New(TypeRunStarted, "run-1", nil))

	got := <-first
	assert.Equal(t, TypeRunStarted, got.Type)
	assert.Equal(t, "run-1", got.RunID)
	assert.NotEmpty(t, got.ID)
	assert.NotEmpty(t, got.Timestamp)
	assert.Equal(t, got.ID, (<-second).ID)

	unsubscribeFirst()
	_, open := <-first
	assert.False(t, open)

	// second call is a no-op
	unsubscribeFirst()
}

func TestBus_DropsWhenSubscriberIsFull(t *testing.T) {
	bus := NewBusWithBuffer(1)
	ch, unsubscribe := bus.Subscribe()
	defer unsubscribe()

	bus.Publish(New(TypeRenameCompleted, "run-1", 1))
	bus.Publish(New(TypeRenameCompleted, "run-1", 2))

	require.Len(t, ch, 1)
	assert.Equal(t, 1, (<-ch).Payload)
	assert.Equal(t, int64(1), bus.Dropped())
}
