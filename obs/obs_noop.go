//go:build nometrics

package obs

import (
	"context"
	"time"
)

func ObserveSuggest(string, time.Duration, string) {}

func ObserveCacheLookup(string, string) {}

func RecordStoreCall(string, time.Duration, error) {}

func IncBudgetHit() {}

func SetCircuitState(string, string) {}

func InitTracer(string, float64) (func(context.Context) error, error) {
	return func(context.Context) error { return nil }, nil
}
