package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type brokenStore struct {
	sets int
}

var errDown = errors.New("cache down")

func (b *brokenStore) Get(context.Context, string) ([]byte, bool, error) { return nil, false, errDown }
func (b *brokenStore) Set(context.Context, string, []byte, SetOptions) error {
	b.sets++
	return errDown
}
func (b *brokenStore) InvalidateTag(context.Context, string) error { return errDown }

type payload struct {
	Words []string `json:"words"`
}

func counting(calls *int, words ...string) func(context.Context) (payload, error) {
	return func(context.Context) (payload, error) {
		*calls++
		return payload{Words: words}, nil
	}
}

func TestGetOrComputeMemoizes(t *testing.T) {
	store, err := NewLRUStore(8)
	require.NoError(t, err)
	c := New(store, Policy{Env: EnvProduction}, nil)
	key := BuildKey("search", Params{"query": "καθ"})
	opts := Options{Class: ClassSearch, Tags: []string{SearchTag("καθ"), TagSearchResults}}
	ctx := context.Background()

	calls := 0
	first, err := GetOrCompute(ctx, c, key, opts, counting(&calls, "α"))
	require.NoError(t, err)
	second, err := GetOrCompute(ctx, c, key, opts, counting(&calls, "β"))
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.Equal(t, first, second)

	require.NoError(t, c.Invalidate(ctx, TagSearchResults))
	third, err := GetOrCompute(ctx, c, key, opts, counting(&calls, "γ"))
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, []string{"γ"}, third.Words)
}

func TestGetOrComputeBypassedInTest(t *testing.T) {
	store, err := NewLRUStore(8)
	require.NoError(t, err)
	c := New(store, Policy{Env: EnvTest}, nil)
	key := BuildKey("search", nil)

	calls := 0
	for i := 0; i < 3; i++ {
		_, err := GetOrCompute(context.Background(), c, key, Options{Class: ClassSearch}, counting(&calls))
		require.NoError(t, err)
	}
	assert.Equal(t, 3, calls)
	assert.Zero(t, store.Len())
}

func TestGetOrComputeSurvivesBrokenStore(t *testing.T) {
	store := &brokenStore{}
	c := New(store, Policy{Env: EnvProduction}, nil)

	calls := 0
	got, err := GetOrCompute(context.Background(), c, BuildKey("search", nil), Options{Class: ClassSearch}, counting(&calls, "ok"))
	require.NoError(t, err)
	assert.Equal(t, []string{"ok"}, got.Words)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, store.sets)

	assert.ErrorIs(t, c.Invalidate(context.Background(), "a", "b"), errDown)
}

func TestGetOrComputeDoesNotCacheErrors(t *testing.T) {
	store, err := NewLRUStore(8)
	require.NoError(t, err)
	c := New(store, Policy{Env: EnvProduction}, nil)
	key := BuildKey("search", nil)
	boom := errors.New("boom")

	_, err = GetOrCompute(context.Background(), c, key, Options{Class: ClassSearch}, func(context.Context) (payload, error) {
		return payload{}, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, store.Len())
}

func TestGetOrComputeIgnoresUndecodableEntry(t *testing.T) {
	store, err := NewLRUStore(8)
	require.NoError(t, err)
	c := New(store, Policy{Env: EnvProduction}, nil)
	key := BuildKey("search", nil)
	require.NoError(t, store.Set(context.Background(), key.ID(), []byte("{not json"), SetOptions{TTL: time.Minute}))

	calls := 0
	got, err := GetOrCompute(context.Background(), c, key, Options{Class: ClassSearch}, counting(&calls, "fresh"))
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, []string{"fresh"}, got.Words)
}

func TestNilCacheComputes(t *testing.T) {
	var c *Cache
	calls := 0
	_, err := GetOrCompute(context.Background(), c, BuildKey("x", nil), Options{Class: ClassSearch}, counting(&calls))
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.NoError(t, c.Invalidate(context.Background(), "x"))
}
