// Package cache memoizes computed results behind a tagged key-value store
// whose expiry follows a per-environment TTL policy.
package cache

import (
	"context"
	"time"
)

// Tags understood by the mutation pathway that invalidates suggestions.
const (
	TagSearchResults = "search-results"
	TagItems         = "items"
	TagTaxonomyUsage = "taxonomy-usage"
)

// SearchTag tags the cached results of one normalized search term.
func SearchTag(term string) string {
	return "search:" + term
}

// SetOptions carry expiry and tags for a write.
type SetOptions struct {
	TTL  time.Duration
	Tags []string
}

// Entry is a stored value with its tags and absolute expiry.
type Entry struct {
	Value     []byte
	Tags      []string
	ExpiresAt time.Time
}

// Expired reports whether e is past its expiry at now.
func (e Entry) Expired(now time.Time) bool {
	return !e.ExpiresAt.IsZero() && !now.Before(e.ExpiresAt)
}

// Store is any key-value store with per-entry TTL and tag invalidation.
// Implementations must be safe for concurrent use. A Set with a
// non-positive TTL stores nothing.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, opts SetOptions) error
	InvalidateTag(ctx context.Context, tag string) error
}
