package transport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// ErrReconnectExhausted reports that the attempt cap was reached without a
// successful reconnect.
var ErrReconnectExhausted = errors.New("reconnect attempts exhausted")

// ReconnectPolicy configures bounded exponential backoff:
// delay = min(InitialDelay · 2^(attempt−1), MaxDelay), up to MaxAttempts.
type ReconnectPolicy struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
}

// DefaultReconnectPolicy mirrors the stock client behaviour.
func DefaultReconnectPolicy() ReconnectPolicy {
	return ReconnectPolicy{
		MaxAttempts:  5,
		InitialDelay: 1 * time.Second,
		MaxDelay:     30 * time.Second,
	}
}

// Reconnector retries a connect function under a ReconnectPolicy. One Run
// call covers one outage: the attempt counter starts fresh (a successful
// reconnect therefore resets the count for the next outage).
type Reconnector struct {
	policy  ReconnectPolicy
	connect func(ctx context.Context) error

	// sleep is swappable so the schedule is testable without real waits.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewReconnector creates a reconnector around connect.
func NewReconnector(policy ReconnectPolicy, connect func(ctx context.Context) error) *Reconnector {
	return &Reconnector{
		policy:  policy,
		connect: connect,
		sleep:   sleepCtx,
	}
}

// Run retries connect until it succeeds, ctx is canceled, or the attempt cap
// is exhausted (reported as ErrReconnectExhausted wrapping the last error).
func (r *Reconnector) Run(ctx context.Context) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = r.policy.InitialDelay
	bo.MaxInterval = r.policy.MaxDelay
	bo.Multiplier = 2
	bo.RandomizationFactor = 0
	bo.MaxElapsedTime = 0
	bo.Reset()

	var lastErr error
	for attempt := 1; attempt <= r.policy.MaxAttempts; attempt++ {
		delay := bo.NextBackOff()
		slog.Info("reconnecting", "attempt", attempt, "delay", delay)

		if err := r.sleep(ctx, delay); err != nil {
			return err
		}

		lastErr = r.connect(ctx)
		if lastErr == nil {
			slog.Info("reconnected", "attempt", attempt)
			return nil
		}
		slog.Warn("reconnect attempt failed", "attempt", attempt, "error", lastErr)
	}

	return fmt.Errorf("%w after %d attempts: %w", ErrReconnectExhausted, r.policy.MaxAttempts, lastErr)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
