package events

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventBus_PublishDeliversToSubscribers(t *testing.T) {
	bus := NewEventBus(nil)

	var got []RecordChange
	bus.Subscribe(TypeRecordsChanged, func(e Event) error {
		change, err := DecodeRecordChange(e)
		require.NoError(t, err)
		got = append(got, change)
		return nil
	})
	bus.Subscribe("other", func(Event) error {
		t.Fatal("handler for another type must not run")
		return nil
	})

	delivered := bus.Publish(NewRecordsChanged(RecordChange{Entity: "medication", EntityID: 7, Action: "administered"}))

	require.Len(t, got, 1)
	assert.Equal(t, RecordChange{Entity: "medication", EntityID: 7, Action: "administered"}, got[0])
	_, err := uuid.Parse(delivered.ID)
	assert.NoError(t, err)
	assert.False(t, delivered.CreatedAt.IsZero())
}

func TestEventBus_HandlerErrorDoesNotStopOthers(t *testing.T) {
	bus := NewEventBus(nil)
	calls := 0
	bus.Subscribe(TypeRecordsChanged, func(Event) error {
		calls++
		return errors.New("boom")
	})
	bus.Subscribe(TypeRecordsChanged, func(Event) error {
		calls++
		return nil
	})

	bus.Publish(Event{Type: TypeRecordsChanged, ID: "fixed"})

	assert.Equal(t, 2, calls)
}

func TestEventBus_PublishWithoutSubscribers(t *testing.T) {
	bus := NewEventBus(nil)
	e := bus.Publish(Event{Type: "nobody.listens"})
	assert.NotEmpty(t, e.ID)
}
