package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_EvictsLeastRecentlyUsed(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(2)

	require.NoError(t, m.Set(ctx, "a", []byte("1"), 0))
	require.NoError(t, m.Set(ctx, "b", []byte("2"), 0))

	// touch a so b becomes the eviction candidate
	_, ok, _ := m.Get(ctx, "a")
	require.True(t, ok)

	require.NoError(t, m.Set(ctx, "c", []byte("3"), 0))
	assert.Equal(t, 2, m.Len())

	_, ok, _ = m.Get(ctx, "b")
	assert.False(t, ok)
	val, ok, _ := m.Get(ctx, "a")
	assert.True(t, ok)
	assert.Equal(t, []byte("1"), val)
}

func TestMemory_TTL(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(10)
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	require.NoError(t, m.Set(ctx, "k", []byte("v"), time.Second))
	_, ok, _ := m.Get(ctx, "k")
	assert.True(t, ok)

	now = now.Add(2 * time.Second)
	_, ok, _ = m.Get(ctx, "k")
	assert.False(t, ok)
	assert.Equal(t, 0, m.Len())
}

func TestMemory_OverwriteAndDelete(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(10)

	require.NoError(t, m.Set(ctx, "k", []byte("v1"), 0))
	require.NoError(t, m.Set(ctx, "k", []byte("v2"), 0))
	val, _, _ := m.Get(ctx, "k")
	assert.Equal(t, []byte("v2"), val)
	assert.Equal(t, 1, m.Len())

	require.NoError(t, m.Delete(ctx, "k", "missing"))
	_, ok, _ := m.Get(ctx, "k")
	assert.False(t, ok)
}

func TestJSONHelpers(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(10)

	type item struct {
		Title string `json:"title"`
	}
	require.NoError(t, SetJSON(ctx, m, "item", item{Title: "drill"}, time.Minute))

	var got item
	ok, err := GetJSON(ctx, m, "item", &got)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "drill", got.Title)

	ok, err = GetJSON(ctx, m, "nope", &got)
	require.NoError(t, err)
	assert.False(t, ok)
}
