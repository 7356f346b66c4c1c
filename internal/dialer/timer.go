package dialer

import (
	"sync"
	"time"
)

// CallTimer tracks elapsed call time from a stored connect timestamp.
//
// Elapsed time is always recomputed as now minus the connect timestamp rather
// than accumulated per tick, so a delayed or missed tick never causes drift.
type CallTimer struct {
	now      func() time.Time
	interval time.Duration

	mu          sync.Mutex
	running     bool
	connectedAt time.Time
	stop        chan struct{}
	onTick      func(elapsed time.Duration)
}

// NewCallTimer constructs a timer. The clock and tick interval are injectable
// for tests; onTick may be nil.
func NewCallTimer(now func() time.Time, interval time.Duration, onTick func(elapsed time.Duration)) *CallTimer {
	if now == nil {
		now = time.Now
	}
	if interval <= 0 {
		interval = time.Second
	}
	return &CallTimer{now: now, interval: interval, onTick: onTick}
}

// Start begins ticking from the given connect timestamp. Any previous
// instance is stopped first, making Start idempotent.
func (t *CallTimer) Start(connectedAt time.Time) {
	t.mu.Lock()
	t.stopLocked()
	t.connectedAt = connectedAt
	t.running = true
	stop := make(chan struct{})
	t.stop = stop
	t.mu.Unlock()

	go t.run(stop)
}

func (t *CallTimer) run(stop chan struct{}) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if t.onTick != nil {
				t.onTick(t.Elapsed())
			}
		}
	}
}

// Elapsed reports time since the connect timestamp, zero when not running.
func (t *CallTimer) Elapsed() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.running {
		return 0
	}
	return t.now().Sub(t.connectedAt)
}

// Stop halts the ticker and returns the final elapsed duration.
func (t *CallTimer) Stop() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	var elapsed time.Duration
	if t.running {
		elapsed = t.now().Sub(t.connectedAt)
	}
	t.stopLocked()
	return elapsed
}

func (t *CallTimer) stopLocked() {
	if t.stop != nil {
		close(t.stop)
		t.stop = nil
	}
	t.running = false
}
