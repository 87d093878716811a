package cache

import (
	"context"
	"testing"
	"time"

	"Atlas/core/playlist"
	"Atlas/model"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCache(t *testing.T, ttl time.Duration) (*SessionCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewSessionCache(client, ttl), mr
}

func snapshot() playlist.Snapshot {
	a, b, c := model.NewID(), model.NewID(), model.NewID()
	return playlist.Snapshot{
		ID:           model.NewID(),
		Name:         "Kind of Blue",
		Ephemeral:    true,
		Queue:        []model.ID{a, b, c},
		Current:      b,
		Cursor:       1,
		Model:        playlist.SortAlbum,
		Repeat:       true,
		Shuffle:      true,
		ShuffleOrder: []model.ID{b, c, a},
	}
}

func TestSaveLoadSession(t *testing.T) {
	sc, _ := newCache(t, time.Hour)
	ctx := context.Background()
	s := snapshot()

	require.NoError(t, sc.Save(ctx, s))
	got, err := sc.Load(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, s, got)
}

func TestSaveReplacesQueue(t *testing.T) {
	sc, _ := newCache(t, time.Hour)
	ctx := context.Background()
	s := snapshot()
	require.NoError(t, sc.Save(ctx, s))

	s.Queue = s.Queue[:1]
	s.Current = s.Queue[0]
	s.Cursor = 0
	s.Shuffle, s.ShuffleOrder = false, nil
	require.NoError(t, sc.Save(ctx, s))

	got, err := sc.Load(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, s.Queue, got.Queue)
	assert.False(t, got.Shuffle)
	assert.Empty(t, got.ShuffleOrder)
}

func TestSessionExpires(t *testing.T) {
	sc, mr := newCache(t, time.Minute)
	ctx := context.Background()
	s := snapshot()
	require.NoError(t, sc.Save(ctx, s))

	mr.FastForward(2 * time.Minute)
	_, err := sc.Load(ctx, s.ID)
	assert.ErrorIs(t, err, model.ErrNotFound)
	_, err = sc.Latest(ctx)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestLatestAndDelete(t *testing.T) {
	sc, mr := newCache(t, time.Hour)
	ctx := context.Background()
	first, second := snapshot(), snapshot()
	require.NoError(t, sc.Save(ctx, first))
	mr.FastForward(time.Second)
	time.Sleep(2 * time.Millisecond)
	require.NoError(t, sc.Save(ctx, second))

	got, err := sc.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, second.ID, got.ID)

	require.NoError(t, sc.Delete(ctx, second.ID))
	got, err = sc.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)
}
