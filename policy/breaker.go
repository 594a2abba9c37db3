package policy

import (
	"sync"
	"time"

	"github.com/searchforge/suggestions/obs"
)

// State of a Breaker.
type State int

const (
	Closed State = iota
	HalfOpen
	Open
)

func (s State) String() string {
	switch s {
	case HalfOpen:
		return "half-open"
	case Open:
		return "open"
	default:
		return "closed"
	}
}

// BreakerConfig tunes when a Breaker trips and recovers.
type BreakerConfig struct {
	// Window is the span of history the failure ratio is computed over.
	Window time.Duration
	// Buckets splits Window into fixed slots.
	Buckets int
	// FailureRatio in (0,1] trips the breaker.
	FailureRatio float64
	// MinRequests is the sample size below which the breaker never trips.
	MinRequests int
	// Cooldown is how long the breaker stays open before probing.
	Cooldown time.Duration
	// Probes is the number of successful half-open calls that close it.
	Probes int
}

func (c BreakerConfig) withDefaults() BreakerConfig {
	if c.Window <= 0 {
		c.Window = 10 * time.Second
	}
	if c.Buckets <= 0 {
		c.Buckets = 10
	}
	if c.FailureRatio <= 0 || c.FailureRatio > 1 {
		c.FailureRatio = 0.5
	}
	if c.MinRequests <= 0 {
		c.MinRequests = 5
	}
	if c.Cooldown <= 0 {
		c.Cooldown = 5 * time.Second
	}
	if c.Probes <= 0 {
		c.Probes = 1
	}
	return c
}

type bucket struct {
	slot      int64
	successes int
	failures  int
}

// Breaker tracks outcomes in a bucketed rolling window.
type Breaker struct {
	name  string
	cfg   BreakerConfig
	width time.Duration

	mu       sync.Mutex
	state    State
	openedAt time.Time
	buckets  []bucket
	inFlight int
	passed   int
}

// NewBreaker returns a closed breaker reporting its state under name.
func NewBreaker(name string, cfg BreakerConfig) *Breaker {
	cfg = cfg.withDefaults()
	width := cfg.Window / time.Duration(cfg.Buckets)
	if width <= 0 {
		width = time.Millisecond
	}
	b := &Breaker{
		name:    name,
		cfg:     cfg,
		width:   width,
		buckets: make([]bucket, cfg.Buckets),
	}
	obs.SetCircuitState(name, Closed.String())
	return b
}

// Allow reports whether a call may proceed at now.
func (b *Breaker) Allow(now time.Time) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == Open && now.Sub(b.openedAt) >= b.cfg.Cooldown {
		b.setState(HalfOpen, now)
	}
	switch b.state {
	case Open:
		return false
	case HalfOpen:
		if b.inFlight >= b.cfg.Probes {
			return false
		}
		b.inFlight++
	}
	return true
}

// Record stores the outcome of an allowed call.
func (b *Breaker) Record(now time.Time, success bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == HalfOpen {
		if b.inFlight > 0 {
			b.inFlight--
		}
		if !success {
			b.setState(Open, now)
			return
		}
		b.passed++
		if b.passed >= b.cfg.Probes {
			b.setState(Closed, now)
		}
		return
	}

	bk := b.bucketAt(now)
	if success {
		bk.successes++
	} else {
		bk.failures++
	}

	if b.state == Closed {
		ok, failed := b.totals(now)
		total := ok + failed
		if total >= b.cfg.MinRequests && float64(failed)/float64(total) >= b.cfg.FailureRatio {
			b.setState(Open, now)
		}
	}
}

// State returns the current state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *Breaker) bucketAt(now time.Time) *bucket {
	slot := now.UnixNano() / int64(b.width)
	bk := &b.buckets[int(slot%int64(len(b.buckets)))]
	if bk.slot != slot {
		*bk = bucket{slot: slot}
	}
	return bk
}

func (b *Breaker) totals(now time.Time) (successes, failures int) {
	current := now.UnixNano() / int64(b.width)
	oldest := current - int64(len(b.buckets)) + 1
	for _, bk := range b.buckets {
		if bk.slot < oldest || bk.slot > current {
			continue
		}
		successes += bk.successes
		failures += bk.failures
	}
	return successes, failures
}

// setState must be called with mu held.
func (b *Breaker) setState(s State, now time.Time) {
	if b.state == s {
		return
	}
	b.state = s
	b.inFlight = 0
	b.passed = 0
	switch s {
	case Open:
		b.openedAt = now
	case Closed:
		for i := range b.buckets {
			b.buckets[i] = bucket{}
		}
	}
	obs.SetCircuitState(b.name, s.String())
}

// release frees a half-open probe slot without recording an outcome.
func (b *Breaker) release() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == HalfOpen && b.inFlight > 0 {
		b.inFlight--
	}
}
