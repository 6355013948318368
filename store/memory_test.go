package store

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/resonance/core"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	defer s.Close()

	_, err := s.Get(ctx, "missing")
	assert.True(t, core.IsStoreNotFound(err))

	buf := []byte("v1")
	require.NoError(t, s.Set(ctx, "k1", buf))
	buf[0] = 'x'
	got, err := s.Get(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), got)

	require.NoError(t, s.BatchSet(ctx, map[string][]byte{"k2": []byte("v2"), "k3": []byte("v3")}))
	all, err := s.BatchGet(ctx, []string{"k1", "k2", "k3", "k4"})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	require.NoError(t, s.Delete(ctx, "k2"))
	_, err = s.Get(ctx, "k2")
	assert.ErrorIs(t, err, core.ErrStoreNotFound)
}

func TestMemoryStoreTTL(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	defer s.Close()

	s.data["expired"] = entry{value: []byte("v"), expireAt: time.Now().Add(-time.Second)}
	_, err := s.Get(ctx, "expired")
	assert.True(t, core.IsStoreNotFound(err))

	require.NoError(t, s.Set(ctx, "live", []byte("v"), 60))
	_, err = s.Get(ctx, "live")
	assert.NoError(t, err)
}

func TestMemoryStoreCloseIdempotent(t *testing.T) {
	s := NewMemoryStore()
	assert.NoError(t, s.Close())
	assert.NoError(t, s.Close())
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	ctx := context.Background()
	s, err := NewRedisStore(ctx, RedisOptions{Addr: addr})
	require.NoError(t, err)
	defer s.Close()

	key := "resonance:test:" + time.Now().Format("150405.000000")
	require.NoError(t, s.Set(ctx, key, []byte("v"), 30))
	got, err := s.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)
	require.NoError(t, s.Delete(ctx, key))
	_, err = s.Get(ctx, key)
	assert.True(t, core.IsStoreNotFound(err))
}
