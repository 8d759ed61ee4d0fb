package ratelimit

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func testPacer(cooldown time.Duration) *Pacer {
	return New(cooldown, zerolog.Nop())
}

func TestNewDefaultCooldown(t *testing.T) {
	tests := []struct {
		name     string
		cooldown time.Duration
		want     time.Duration
	}{
		{name: "zero falls back", cooldown: 0, want: Cooldown},
		{name: "negative falls back", cooldown: -time.Second, want: Cooldown},
		{name: "explicit value kept", cooldown: 50 * time.Millisecond, want: 50 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := testPacer(tt.cooldown)
			if p.cooldown != tt.want {
				t.Errorf("cooldown = %v, want %v", p.cooldown, tt.want)
			}
		})
	}
}

func TestDoFirstRequestImmediate(t *testing.T) {
	p := testPacer(time.Second)

	start := time.Now()
	err := p.Do(context.Background(), func() error { return nil })
	if err != nil {
		t.Fatalf("Do error: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("first request waited %v, want immediate start", elapsed)
	}
}

func TestDoSpacesConcurrentStarts(t *testing.T) {
	const (
		cooldown = 40 * time.Millisecond
		requests = 5
	)

	p := testPacer(cooldown)

	var mu sync.Mutex
	var starts []time.Time

	var wg sync.WaitGroup
	for i := 0; i < requests; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = p.Do(context.Background(), func() error {
				mu.Lock()
				starts = append(starts, time.Now())
				mu.Unlock()
				return nil
			})
		}()
	}
	wg.Wait()

	if len(starts) != requests {
		t.Fatalf("%d requests ran, want %d", len(starts), requests)
	}

	sort.Slice(starts, func(i, j int) bool { return starts[i].Before(starts[j]) })
	for i := 1; i < len(starts); i++ {
		if gap := starts[i].Sub(starts[i-1]); gap < cooldown {
			t.Errorf("gap between start %d and %d is %v, want >= %v", i-1, i, gap, cooldown)
		}
	}
}

func TestDoErrorPropagatesAndPaysCooldown(t *testing.T) {
	const cooldown = 40 * time.Millisecond
	p := testPacer(cooldown)

	wantErr := errors.New("connection reset")
	if err := p.Do(context.Background(), func() error { return wantErr }); !errors.Is(err, wantErr) {
		t.Fatalf("Do error = %v, want %v", err, wantErr)
	}

	// The failed attempt still counts against the cooldown.
	start := time.Now()
	if err := p.Do(context.Background(), func() error { return nil }); err != nil {
		t.Fatalf("Do error: %v", err)
	}
	if elapsed := time.Since(start); elapsed < cooldown {
		t.Errorf("second request started after %v, want >= %v", elapsed, cooldown)
	}
}

func TestDoPanicStillPaysCooldown(t *testing.T) {
	const cooldown = 40 * time.Millisecond
	p := testPacer(cooldown)

	func() {
		defer func() {
			if recover() == nil {
				t.Fatal("panic did not propagate")
			}
		}()
		_ = p.Do(context.Background(), func() error { panic("request blew up") })
	}()

	start := time.Now()
	if err := p.Do(context.Background(), func() error { return nil }); err != nil {
		t.Fatalf("Do error: %v", err)
	}
	if elapsed := time.Since(start); elapsed < cooldown {
		t.Errorf("request after panic started after %v, want >= %v", elapsed, cooldown)
	}
}

func TestDoContextCancelledWhileWaiting(t *testing.T) {
	p := testPacer(time.Minute)

	// Use up the first free slot so the next caller has to wait.
	if err := p.Do(context.Background(), func() error { return nil }); err != nil {
		t.Fatalf("Do error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	ran := false
	err := p.Do(ctx, func() error { ran = true; return nil })
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Do error = %v, want context.DeadlineExceeded", err)
	}
	if ran {
		t.Error("request ran despite cancelled context")
	}

	// A cancelled wait must not corrupt the slot for later callers.
	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	p.deadline = p.now() // let it through immediately
	if err := p.Do(ctx2, func() error { return nil }); err != nil {
		t.Errorf("Do after cancelled wait: %v", err)
	}
}
