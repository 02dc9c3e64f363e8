package transport

import (
	"context"
	"sync"
)

// Completion is a single-shot result slot: the first Complete wins, later
// completions are ignored. Wait races the result against the context.
type Completion[T any] struct {
	once sync.Once
	ch   chan T
}

// NewCompletion creates an empty Completion.
func NewCompletion[T any]() *Completion[T] {
	return &Completion[T]{ch: make(chan T, 1)}
}

// Complete stores the result if none has been stored yet.
func (c *Completion[T]) Complete(v T) {
	c.once.Do(func() {
		c.ch <- v
	})
}

// Wait blocks until a result is stored or ctx is done.
func (c *Completion[T]) Wait(ctx context.Context) (T, error) {
	select {
	case v := <-c.ch:
		return v, nil
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
