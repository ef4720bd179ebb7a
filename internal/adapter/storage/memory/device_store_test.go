package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeviceStore(t *testing.T) {
	ctx := context.Background()
	store := NewDeviceStore("WPC-1")

	serial, err := store.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "WPC-1", serial)

	require.NoError(t, store.Set(ctx, "CHB-2"))
	serial, _ = store.Get(ctx)
	assert.Equal(t, "CHB-2", serial)

	require.NoError(t, store.Clear(ctx))
	serial, _ = store.Get(ctx)
	assert.Empty(t, serial)
}

func TestRateLimitStore_Allow(t *testing.T) {
	ctx := context.Background()
	store := NewRateLimitStore()
	now := time.Unix(1_800_000_000, 0)
	store.now = func() time.Time { return now }

	for i := int64(1); i <= 2; i++ {
		result, err := store.Allow(ctx, "op:charges", 2, time.Minute)
		require.NoError(t, err)
		assert.True(t, result.Allowed)
		assert.Equal(t, 2-i, result.Remaining)
	}

	result, err := store.Allow(ctx, "op:charges", 2, time.Minute)
	require.NoError(t, err)
	assert.False(t, result.Allowed)
	assert.Equal(t, (now.Unix()/60+1)*60, result.ResetAt)

	other, err := store.Allow(ctx, "other:charges", 2, time.Minute)
	require.NoError(t, err)
	assert.True(t, other.Allowed)

	now = now.Add(time.Minute)
	result, err = store.Allow(ctx, "op:charges", 2, time.Minute)
	require.NoError(t, err)
	assert.True(t, result.Allowed)
	assert.Len(t, store.counters, 1)
}
