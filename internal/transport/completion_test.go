package transport

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompletionFirstWriterWins(t *testing.T) {
	c := NewCompletion[int]()
	c.Complete(1)
	c.Complete(2) // ignored

	v, err := c.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, v)
}

func TestCompletionTimeout(t *testing.T) {
	c := NewCompletion[int]()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := c.Wait(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	// A late completion is still readable by a later waiter.
	c.Complete(7)
	v, err := c.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, v)
}
