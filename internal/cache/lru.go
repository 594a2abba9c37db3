package cache

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/simplelru"
)

// DefaultLRUSize bounds the in-process store.
const DefaultLRUSize = 4096

// LRUStore is an in-process Store: a size-bounded LRU plus a tag index.
type LRUStore struct {
	mu   sync.Mutex
	lru  *simplelru.LRU[string, Entry]
	tags map[string]map[string]struct{}
	now  func() time.Time
}

var _ Store = (*LRUStore)(nil)

// NewLRUStore returns a store holding at most size entries.
func NewLRUStore(size int) (*LRUStore, error) {
	if size <= 0 {
		size = DefaultLRUSize
	}
	s := &LRUStore{
		tags: make(map[string]map[string]struct{}),
		now:  time.Now,
	}
	l, err := simplelru.NewLRU[string, Entry](size, s.untag)
	if err != nil {
		return nil, err
	}
	s.lru = l
	return s, nil
}

func (s *LRUStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.lru.Get(key)
	if !ok {
		return nil, false, nil
	}
	if e.Expired(s.now()) {
		s.lru.Remove(key)
		return nil, false, nil
	}
	return e.Value, true, nil
}

func (s *LRUStore) Set(_ context.Context, key string, value []byte, opts SetOptions) error {
	if opts.TTL <= 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	// Replacing a key does not fire the eviction hook.
	if old, ok := s.lru.Peek(key); ok {
		s.untag(key, old)
	}
	e := Entry{
		Value:     value,
		Tags:      append([]string(nil), opts.Tags...),
		ExpiresAt: s.now().Add(opts.TTL),
	}
	s.lru.Add(key, e)
	for _, tag := range e.Tags {
		keys, ok := s.tags[tag]
		if !ok {
			keys = make(map[string]struct{})
			s.tags[tag] = keys
		}
		keys[key] = struct{}{}
	}
	return nil
}

func (s *LRUStore) InvalidateTag(_ context.Context, tag string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := make([]string, 0, len(s.tags[tag]))
	for key := range s.tags[tag] {
		keys = append(keys, key)
	}
	for _, key := range keys {
		s.lru.Remove(key)
	}
	delete(s.tags, tag)
	return nil
}

// Len reports the number of stored entries, expired ones included.
func (s *LRUStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lru.Len()
}

// untag is the eviction hook; it runs with mu held.
func (s *LRUStore) untag(key string, e Entry) {
	for _, tag := range e.Tags {
		keys := s.tags[tag]
		delete(keys, key)
		if len(keys) == 0 {
			delete(s.tags, tag)
		}
	}
}
