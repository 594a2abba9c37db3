package policy

import (
	"context"
	"errors"
	"time"

	"github.com/searchforge/suggestions/obs"
)

// BudgetResult tells whether a request ran out of its budget.
type BudgetResult struct {
	ctx context.Context
}

// Hit reports whether the budget deadline fired. A manual cancel is not a
// hit.
func (b *BudgetResult) Hit() bool {
	if b == nil || b.ctx == nil {
		return false
	}
	return errors.Is(b.ctx.Err(), context.DeadlineExceeded)
}

// Budget derives a context bounded by d. A non-positive d only adds
// cancellation.
func Budget(parent context.Context, d time.Duration) (context.Context, context.CancelFunc, *BudgetResult) {
	if d <= 0 {
		ctx, cancel := context.WithCancel(parent)
		return ctx, cancel, &BudgetResult{ctx: ctx}
	}

	ctx, cancel := context.WithTimeout(parent, d)
	go func() {
		<-ctx.Done()
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			obs.IncBudgetHit()
		}
	}()
	return ctx, cancel, &BudgetResult{ctx: ctx}
}
