package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(1_700_000_000, 0)
	m := NewMemory().WithClock(func() time.Time { return now })

	require.NoError(t, m.Set(ctx, "k", "v", time.Minute))
	v, ok, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", v)

	now = now.Add(time.Minute)
	_, ok, _ = m.Get(ctx, "k")
	assert.False(t, ok)
}

func TestMemorySetNX(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	ok, err := m.SetNX(ctx, "k", "first", 0)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = m.SetNX(ctx, "k", "second", 0)
	require.NoError(t, err)
	assert.False(t, ok)

	v, _, _ := m.Get(ctx, "k")
	assert.Equal(t, "first", v)

	require.NoError(t, m.Del(ctx, "k"))
	ok, _ = m.SetNX(ctx, "k", "third", 0)
	assert.True(t, ok)
}
