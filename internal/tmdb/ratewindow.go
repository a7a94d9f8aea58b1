package tmdb

import (
	"context"
	"sync"
	"time"
)

// RateWindow admits at most limit requests in any trailing window.
//
// The timestamp log is pruned on every admission check. A caller that finds
// the window full sleeps until the oldest stamp leaves it and then checks
// again, so concurrent callers compete for slots without ever exceeding the
// budget.
type RateWindow struct {
	mu     sync.Mutex
	limit  int
	window time.Duration
	clock  Clock
	sleep  Sleeper
	stamps []time.Time
}

// NewRateWindow constructs a sliding-window limiter. A nil clock or sleeper
// falls back to wall time.
func NewRateWindow(limit int, window time.Duration, clock Clock, sleep Sleeper) *RateWindow {
	if limit <= 0 {
		limit = 1
	}
	if clock == nil {
		clock = systemClock{}
	}
	if sleep == nil {
		sleep = sleepContext
	}
	return &RateWindow{
		limit:  limit,
		window: window,
		clock:  clock,
		sleep:  sleep,
		stamps: make([]time.Time, 0, limit),
	}
}

// Admit blocks until a slot is free, records the admission, and reports how
// long the caller waited.
func (w *RateWindow) Admit(ctx context.Context) (time.Duration, error) {
	var waited time.Duration
	for {
		w.mu.Lock()
		now := w.clock.Now()
		w.pruneLocked(now)
		if len(w.stamps) < w.limit {
			w.stamps = append(w.stamps, now)
			w.mu.Unlock()
			return waited, nil
		}
		wait := w.window - now.Sub(w.stamps[0])
		w.mu.Unlock()

		if wait <= 0 {
			continue
		}
		if err := w.sleep(ctx, wait); err != nil {
			return waited, err
		}
		waited += wait
	}
}

// InFlight reports how many admissions fall inside the current window.
func (w *RateWindow) InFlight() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pruneLocked(w.clock.Now())
	return len(w.stamps)
}

func (w *RateWindow) pruneLocked(now time.Time) {
	drop := 0
	for drop < len(w.stamps) && now.Sub(w.stamps[drop]) >= w.window {
		drop++
	}
	if drop > 0 {
		w.stamps = append(w.stamps[:0], w.stamps[drop:]...)
	}
}
