package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// MaxPingLatency is the slowest store ping still reported as ready.
const MaxPingLatency = 200 * time.Millisecond

// Pinger is anything whose backing store can be pinged.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Readyz returns a handler reporting item store readiness.
func Readyz(p Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		err := p.Ping(r.Context())
		latency := time.Since(start)

		ok := err == nil && latency <= MaxPingLatency
		status := http.StatusOK
		if !ok {
			status = http.StatusServiceUnavailable
		}

		payload := map[string]any{
			"store_ok":     err == nil,
			"last_ping_ms": latency.Milliseconds(),
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(payload)
	}
}

// Healthz reports liveness only.
func Healthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
