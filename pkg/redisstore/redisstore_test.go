package redisstore

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ fiber.Storage = (*Storage)(nil)

func newTestStorage(t *testing.T) (*Storage, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return New(client, "sess:"), mr
}

func TestStorage_SetGetDelete(t *testing.T) {
	store, mr := newTestStorage(t)

	val, err := store.Get("missing")
	require.NoError(t, err)
	assert.Nil(t, val)

	require.NoError(t, store.Set("abc", []byte("hello"), time.Minute))
	assert.True(t, mr.Exists("sess:abc"))

	val, err = store.Get("abc")
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), val)

	require.NoError(t, store.Delete("abc"))
	val, err = store.Get("abc")
	require.NoError(t, err)
	assert.Nil(t, val)
}

func TestStorage_Expiration(t *testing.T) {
	store, mr := newTestStorage(t)

	require.NoError(t, store.Set("short", []byte("x"), time.Second))
	mr.FastForward(2 * time.Second)

	val, err := store.Get("short")
	require.NoError(t, err)
	assert.Nil(t, val)
}

func TestStorage_ResetOnlyTouchesPrefix(t *testing.T) {
	store, mr := newTestStorage(t)

	require.NoError(t, store.Set("a", []byte("1"), 0))
	require.NoError(t, store.Set("b", []byte("2"), 0))
	require.NoError(t, mr.Set("other:key", "keep"))

	require.NoError(t, store.Reset())
	assert.False(t, mr.Exists("sess:a"))
	assert.False(t, mr.Exists("sess:b"))
	assert.True(t, mr.Exists("other:key"))
}

func TestConnect(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client, err := Connect(context.Background(), "redis://"+mr.Addr()+"/0")
	require.NoError(t, err)
	assert.NoError(t, client.Close())

	client, err = Connect(context.Background(), mr.Addr())
	require.NoError(t, err)
	assert.NoError(t, client.Close())

	_, err = Connect(context.Background(), "127.0.0.1:1")
	assert.Error(t, err)
}
