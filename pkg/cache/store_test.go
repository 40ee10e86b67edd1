package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreExpiry(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }
	ctx := context.Background()

	value := []byte("v")
	require.NoError(t, s.SetMany(ctx, map[string][]byte{"a": value}, time.Minute))
	value[0] = 'x'

	got, err := s.GetMany(ctx, []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, [][]byte{[]byte("v"), nil}, got)

	now = now.Add(2 * time.Minute)
	got, err = s.GetMany(ctx, []string{"a"})
	require.NoError(t, err)
	assert.Nil(t, got[0])
	assert.Zero(t, s.Len())
}

func TestMemoryStoreCanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewMemoryStore().GetMany(ctx, []string{"a"})
	assert.ErrorIs(t, err, context.Canceled)
}

// TestRedisStore needs a server; set MODELPORT_TEST_REDIS_ADDR to run it.
func TestRedisStore(t *testing.T) {
	addr := os.Getenv("MODELPORT_TEST_REDIS_ADDR")
	if testing.Short() || addr == "" {
		t.Skip("MODELPORT_TEST_REDIS_ADDR not set")
	}

	ctx := context.Background()
	s, err := DialRedis(ctx, addr, "", 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	key := "modelport:test:" + t.Name()
	require.NoError(t, s.SetMany(ctx, map[string][]byte{key: []byte("[1,2]")}, time.Minute))

	got, err := s.GetMany(ctx, []string{key, key + ":missing"})
	require.NoError(t, err)
	assert.Equal(t, []byte("[1,2]"), got[0])
	assert.Nil(t, got[1])
}
