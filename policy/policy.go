// Package policy guards calls into the item store with a timeout, a rate
// limit and a circuit breaker, and bounds HTTP requests with a budget.
package policy

import "errors"

var (
	// ErrCircuitOpen is returned while the breaker rejects calls.
	ErrCircuitOpen = errors.New("circuit breaker open")
	// ErrRateLimited is returned when the limiter has no tokens left.
	ErrRateLimited = errors.New("rate limited")
)
