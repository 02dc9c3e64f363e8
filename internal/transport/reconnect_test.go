package transport

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconnectorBackoffSchedule(t *testing.T) {
	policy := ReconnectPolicy{
		MaxAttempts:  5,
		InitialDelay: 1 * time.Second,
		MaxDelay:     30 * time.Second,
	}

	var delays []time.Duration
	dialErr := errors.New("refused")

	r := NewReconnector(policy, func(ctx context.Context) error { return dialErr })
	r.sleep = func(ctx context.Context, d time.Duration) error {
		delays = append(delays, d)
		return nil
	}

	err := r.Run(context.Background())
	require.ErrorIs(t, err, ErrReconnectExhausted)
	require.ErrorIs(t, err, dialErr)

	assert.Equal(t, []time.Duration{
		1 * time.Second,
		2 * time.Second,
		4 * time.Second,
		8 * time.Second,
		16 * time.Second,
	}, delays)
}

func TestReconnectorCapsDelay(t *testing.T) {
	policy := ReconnectPolicy{
		MaxAttempts:  8,
		InitialDelay: 1 * time.Second,
		MaxDelay:     30 * time.Second,
	}

	var delays []time.Duration
	r := NewReconnector(policy, func(ctx context.Context) error { return errors.New("down") })
	r.sleep = func(ctx context.Context, d time.Duration) error {
		delays = append(delays, d)
		return nil
	}

	_ = r.Run(context.Background())

	require.Len(t, delays, 8)
	// 1,2,4,8,16 then pinned at the 30s cap.
	assert.Equal(t, 30*time.Second, delays[5])
	assert.Equal(t, 30*time.Second, delays[6])
	assert.Equal(t, 30*time.Second, delays[7])
}

func TestReconnectorSuccessResetsForNextOutage(t *testing.T) {
	policy := ReconnectPolicy{MaxAttempts: 5, InitialDelay: time.Second, MaxDelay: 30 * time.Second}

	attempts := 0
	var delays []time.Duration
	r := NewReconnector(policy, func(ctx context.Context) error {
		attempts++
		if attempts%3 == 0 {
			return nil
		}
		return errors.New("down")
	})
	r.sleep = func(ctx context.Context, d time.Duration) error {
		delays = append(delays, d)
		return nil
	}

	require.NoError(t, r.Run(context.Background()))
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}, delays)

	// Next outage: the schedule starts over at the initial delay.
	delays = nil
	require.NoError(t, r.Run(context.Background()))
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}, delays)
}

func TestReconnectorCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := NewReconnector(DefaultReconnectPolicy(), func(ctx context.Context) error { return errors.New("down") })

	err := r.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
}
