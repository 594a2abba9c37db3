package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/searchforge/suggestions/sources"
)

// FakeResponse describes the behaviour of a single fake store call.
type FakeResponse struct {
	Delay time.Duration
	Err   error
}

// FakeStore wraps an in-memory item store with a controllable response plan
// and per-operation call counters. When more calls run than the plan holds,
// the last response is reused.
type FakeStore struct {
	inner *sources.MemoryStore

	mu        sync.Mutex
	responses []FakeResponse
	index     int
	calls     map[string]int
}

var _ sources.ItemStore = (*FakeStore)(nil)

// NewFakeStore seeds a FakeStore with items. Every call succeeds until
// SetResponses says otherwise.
func NewFakeStore(items ...sources.Item) *FakeStore {
	return &FakeStore{
		inner:     sources.NewMemoryStore(items...),
		responses: []FakeResponse{{}},
		calls:     make(map[string]int),
	}
}

// Add inserts or replaces items.
func (f *FakeStore) Add(items ...sources.Item) {
	f.inner.Add(items...)
}

func (f *FakeStore) SearchItems(ctx context.Context, term string, limit int) ([]sources.Item, error) {
	if err := f.play(ctx, "search_items"); err != nil {
		return nil, err
	}
	return f.inner.SearchItems(ctx, term, limit)
}

func (f *FakeStore) UsedTaxonomy(ctx context.Context) (sources.TaxonomyRefs, error) {
	if err := f.play(ctx, "used_taxonomy"); err != nil {
		return sources.TaxonomyRefs{}, err
	}
	return f.inner.UsedTaxonomy(ctx)
}

func (f *FakeStore) Ping(ctx context.Context) error {
	return f.play(ctx, "ping")
}

func (f *FakeStore) play(ctx context.Context, op string) error {
	resp := f.nextResponse(op)
	if resp.Delay > 0 {
		timer := time.NewTimer(resp.Delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
	}
	return resp.Err
}

func (f *FakeStore) nextResponse(op string) FakeResponse {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls[op]++
	if f.index >= len(f.responses) {
		return f.responses[len(f.responses)-1]
	}

	resp := f.responses[f.index]
	f.index++
	return resp
}

// Calls returns how many times op ran. An empty op sums every operation.
func (f *FakeStore) Calls(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	if op != "" {
		return f.calls[op]
	}
	total := 0
	for _, n := range f.calls {
		total += n
	}
	return total
}

// SetResponses overrides the remaining response plan and resets counters.
func (f *FakeStore) SetResponses(responses ...FakeResponse) {
	if len(responses) == 0 {
		responses = []FakeResponse{{}}
	}
	f.mu.Lock()
	f.responses = responses
	f.index = 0
	f.calls = make(map[string]int)
	f.mu.Unlock()
}
