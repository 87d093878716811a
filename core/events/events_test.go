package events

import (
	"testing"

	"Atlas/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBusFiltersByKind(t *testing.T) {
	bus := NewBus()
	tracks, cancel := bus.Subscribe(TrackAdded)
	defer cancel()
	all, cancelAll := bus.Subscribe()
	defer cancelAll()

	id := model.NewID()
	bus.Emit(ArtistAdded, model.NewID(), model.NilID)
	bus.Emit(TrackAdded, id, model.NilID)

	e := <-tracks
	assert.Equal(t, TrackAdded, e.Kind)
	assert.Equal(t, id, e.EntityID)
	assert.False(t, e.Time.IsZero())
	assert.Len(t, all, 2)
	assert.Len(t, tracks, 0)
}

func TestBusDropsWhenFull(t *testing.T) {
	bus := NewBus()
	ch, cancel := bus.Subscribe()
	defer cancel()

	for i := 0; i < subscriberBuffer+5; i++ {
		bus.Emit(AlbumUpdated, model.NewID(), model.NilID)
	}
	assert.Len(t, ch, subscriberBuffer)
	assert.Equal(t, int64(5), bus.Dropped())
}

func TestBusCancelClosesChannel(t *testing.T) {
	bus := NewBus()
	ch, cancel := bus.Subscribe()
	cancel()
	cancel()

	_, ok := <-ch
	require.False(t, ok)
	bus.Emit(TrackRemoved, model.NewID(), model.NilID)
}

func TestNilBusIsNoop(t *testing.T) {
	var bus *Bus
	bus.Emit(IndexStarted, model.NilID, model.NewID())
	ch, cancel := bus.Subscribe()
	cancel()
	_, ok := <-ch
	assert.False(t, ok)
	assert.Zero(t, bus.Dropped())
	bus.Close()
}
