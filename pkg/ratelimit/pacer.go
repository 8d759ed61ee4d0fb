// Package ratelimit enforces the minimum spacing between outbound API
// requests. The upstream service allows at most two requests per second and
// answers excess traffic with HTTP 503, so every request a client issues goes
// through one shared Pacer that keeps consecutive request starts at least the
// cooldown apart.
package ratelimit

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Cooldown is the default gap enforced between the starts of consecutive
// requests. The documented server limit of two requests per second puts the
// floor at 500ms; the extra 100ms absorbs clock and scheduling jitter.
const Cooldown = 600 * time.Millisecond

// Prometheus metrics for request pacing.
var (
	pacerWaitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "booru_pacer_waits_total",
		Help: "Total requests that had to wait for the request cooldown",
	})

	pacerWaitSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "booru_pacer_wait_seconds",
		Help:    "Time requests spent waiting for the request cooldown",
		Buckets: []float64{0.05, 0.1, 0.3, 0.6, 1.2, 3, 6},
	})
)

// Pacer hands out request start slots in arrival order. All requests issued
// through one client share one Pacer. It serializes the decision of when a
// request may start, not the requests themselves: the network round-trips of
// already-started requests may overlap freely.
type Pacer struct {
	cooldown time.Duration
	now      func() time.Time
	logger   zerolog.Logger

	// gate is a 1-slot channel used as the exclusive lock on deadline.
	// Goroutines blocked sending on a channel are queued by the runtime in
	// arrival order, which keeps waiters first-come-first-served; a
	// sync.Mutex makes no such promise.
	gate     chan struct{}
	deadline time.Time // next permitted start; zero before the first request
}

// New creates a Pacer enforcing the given cooldown between request starts.
// Values of zero or less fall back to Cooldown; going below the server's
// documented limit is how clients get banned.
func New(cooldown time.Duration, logger zerolog.Logger) *Pacer {
	if cooldown <= 0 {
		cooldown = Cooldown
	}

	return &Pacer{
		cooldown: cooldown,
		now:      time.Now,
		logger:   logger,
		gate:     make(chan struct{}, 1),
	}
}

// Do runs fn once the caller's turn arrives. Across all concurrent calls on
// one Pacer, successive fn starts are at least the cooldown apart. fn's
// result propagates untouched; whether fn succeeds, fails or panics, the next
// slot is pushed to the end of the attempt plus the cooldown.
func (p *Pacer) Do(ctx context.Context, fn func() error) error {
	if err := p.waitTurn(ctx); err != nil {
		return err
	}
	defer p.recordAttempt()
	return fn()
}

// waitTurn blocks until the cooldown deadline has passed and reserves the
// next slot, so no concurrent waiter can also decide to proceed immediately.
// The gate is never held across a sleep or any I/O.
func (p *Pacer) waitTurn(ctx context.Context) error {
	for {
		select {
		case p.gate <- struct{}{}:
		case <-ctx.Done():
			return ctx.Err()
		}

		deadline := p.deadline
		now := p.now()
		if deadline.IsZero() || !now.Before(deadline) {
			p.deadline = now.Add(p.cooldown)
			<-p.gate
			return nil
		}
		<-p.gate

		wait := deadline.Sub(now)
		pacerWaitsTotal.Inc()
		pacerWaitSeconds.Observe(wait.Seconds())
		p.logger.Debug().
			Dur("wait", wait).
			Msg("Waiting for request cooldown")

		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
			// Another waiter may have reserved a later slot while this one
			// slept; loop and check again.
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
	}
}

// recordAttempt pushes the deadline past the end of the attempt, success or
// failure. Called via defer so a panicking request still pays its cooldown.
func (p *Pacer) recordAttempt() {
	p.gate <- struct{}{}
	p.deadline = p.now().Add(p.cooldown)
	<-p.gate
}
