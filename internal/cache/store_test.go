package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func storeContract(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	_, ok, err := s.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, "a", []byte("1"), SetOptions{TTL: time.Minute, Tags: []string{"search:a", TagSearchResults}}))
	require.NoError(t, s.Set(ctx, "b", []byte("2"), SetOptions{TTL: time.Minute, Tags: []string{"search:b", TagSearchResults}}))
	require.NoError(t, s.Set(ctx, "u", []byte("3"), SetOptions{TTL: time.Minute, Tags: []string{TagTaxonomyUsage}}))
	require.NoError(t, s.Set(ctx, "zero", []byte("4"), SetOptions{}))

	v, ok, err := s.Get(ctx, "a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("1"), v)

	_, ok, _ = s.Get(ctx, "zero")
	assert.False(t, ok, "zero TTL stores nothing")

	require.NoError(t, s.InvalidateTag(ctx, "search:a"))
	_, ok, _ = s.Get(ctx, "a")
	assert.False(t, ok)
	_, ok, _ = s.Get(ctx, "b")
	assert.True(t, ok)

	require.NoError(t, s.InvalidateTag(ctx, TagSearchResults))
	_, ok, _ = s.Get(ctx, "b")
	assert.False(t, ok)
	_, ok, _ = s.Get(ctx, "u")
	assert.True(t, ok, "other tags survive")

	require.NoError(t, s.InvalidateTag(ctx, "never-used"))
}

func TestLRUStore(t *testing.T) {
	s, err := NewLRUStore(16)
	require.NoError(t, err)
	storeContract(t, s)
}

func TestBadgerStore(t *testing.T) {
	s, err := OpenBadgerStore("", nil)
	require.NoError(t, err)
	defer s.Close()
	storeContract(t, s)
}

func TestBadgerStorePersists(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := OpenBadgerStore(dir, nil)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "k", []byte("v"), SetOptions{TTL: time.Hour, Tags: []string{TagItems}}))
	require.NoError(t, s.Close())

	s, err = OpenBadgerStore(dir, nil)
	require.NoError(t, err)
	defer s.Close()

	v, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("v"), v)
}

func TestLRUStoreExpiry(t *testing.T) {
	s, err := NewLRUStore(4)
	require.NoError(t, err)
	now := time.Unix(1_700_000_000, 0)
	s.now = func() time.Time { return now }

	ctx := context.Background()
	require.NoError(t, s.Set(ctx, "k", []byte("v"), SetOptions{TTL: time.Second, Tags: []string{"t"}}))

	now = now.Add(999 * time.Millisecond)
	_, ok, _ := s.Get(ctx, "k")
	assert.True(t, ok)

	now = now.Add(time.Millisecond)
	_, ok, _ = s.Get(ctx, "k")
	assert.False(t, ok)
	assert.Empty(t, s.tags, "expired entries leave the tag index")
}

func TestLRUStoreEvictionCleansTags(t *testing.T) {
	s, err := NewLRUStore(2)
	require.NoError(t, err)
	ctx := context.Background()

	for _, k := range []string{"a", "b", "c"} {
		require.NoError(t, s.Set(ctx, k, []byte(k), SetOptions{TTL: time.Minute, Tags: []string{"tag-" + k}}))
	}
	assert.Equal(t, 2, s.Len())
	assert.NotContains(t, s.tags, "tag-a")

	require.NoError(t, s.Set(ctx, "b", []byte("b2"), SetOptions{TTL: time.Minute, Tags: []string{"tag-new"}}))
	assert.NotContains(t, s.tags, "tag-b", "rewrites drop old tags")
	assert.Contains(t, s.tags, "tag-new")
}
