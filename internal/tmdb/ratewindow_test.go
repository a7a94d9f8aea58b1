package tmdb

import (
	"context"
	"sync"
	"testing"
	"time"

	"filmscout/internal/testsupport"
)

func TestRateWindowDelaysFortyFirstAdmission(t *testing.T) {
	clock := testsupport.NewFakeClock()
	window := NewRateWindow(40, 10*time.Second, clock, clock.Sleep)
	ctx := context.Background()

	for i := 0; i < 40; i++ {
		waited, err := window.Admit(ctx)
		if err != nil {
			t.Fatalf("admit %d: %v", i+1, err)
		}
		if waited != 0 {
			t.Fatalf("admit %d waited %v, want no wait", i+1, waited)
		}
	}
	if got := len(clock.Sleeps()); got != 0 {
		t.Fatalf("expected no sleeps for first 40 admissions, got %d", got)
	}

	waited, err := window.Admit(ctx)
	if err != nil {
		t.Fatalf("admit 41: %v", err)
	}
	if waited != 10*time.Second {
		t.Fatalf("41st admission waited %v, want 10s", waited)
	}
	if got := window.InFlight(); got != 1 {
		t.Fatalf("in flight after slide = %d, want 1", got)
	}
}

func TestRateWindowSlidesRatherThanResetting(t *testing.T) {
	clock := testsupport.NewFakeClock()
	window := NewRateWindow(40, 10*time.Second, clock, clock.Sleep)
	ctx := context.Background()

	admit := func(n int) {
		t.Helper()
		for i := 0; i < n; i++ {
			if _, err := window.Admit(ctx); err != nil {
				t.Fatalf("admit: %v", err)
			}
		}
	}

	admit(20)
	clock.Advance(6 * time.Second)
	admit(20)
	clock.Advance(5 * time.Second)
	// The first 20 have left the window; the second 20 have not.
	admit(20)
	if sleeps := clock.Sleeps(); len(sleeps) != 0 {
		t.Fatalf("unexpected sleeps %v", sleeps)
	}

	waited, err := window.Admit(ctx)
	if err != nil {
		t.Fatalf("admit: %v", err)
	}
	if waited != 5*time.Second {
		t.Fatalf("waited %v, want 5s until the t+6s batch expires", waited)
	}
}

func TestRateWindowHonoursCancellation(t *testing.T) {
	clock := testsupport.NewFakeClock()
	window := NewRateWindow(1, 10*time.Second, clock, clock.Sleep)
	if _, err := window.Admit(context.Background()); err != nil {
		t.Fatalf("admit: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := window.Admit(ctx); err == nil {
		t.Fatal("expected cancellation error when the window is full")
	}
}

func TestRateWindowConcurrentAdmissions(t *testing.T) {
	clock := testsupport.NewFakeClock()
	window := NewRateWindow(200, 10*time.Second, clock, clock.Sleep)

	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := window.Admit(context.Background()); err != nil {
				t.Errorf("admit: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := window.InFlight(); got != 200 {
		t.Fatalf("in flight = %d, want 200", got)
	}
	if sleeps := clock.Sleeps(); len(sleeps) != 0 {
		t.Fatalf("no admission should wait under budget, got %v", sleeps)
	}
}
