package session

import (
	"context"
	"sync"
)

// NewReply creates a single-use reply slot. The Replier travels with the
// command to the actor; the Awaiter stays with the caller.
func NewReply[T any]() (*Replier[T], *Awaiter[T]) {
	ch := make(chan T, 1)
	dropped := make(chan struct{})
	return &Replier[T]{ch: ch, dropped: dropped}, &Awaiter[T]{ch: ch, dropped: dropped}
}

// Replier is the producer half of a reply slot. It is used at most once.
type Replier[T any] struct {
	mu      sync.Mutex
	used    bool
	ch      chan<- T
	dropped chan struct{}
}

// Fulfill delivers v to the awaiting caller. The slot is buffered, so
// Fulfill never blocks even if the caller stopped waiting.
func (r *Replier[T]) Fulfill(v T) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.used {
		return ErrReplyAlreadyUsed
	}
	r.used = true
	r.ch <- v
	return nil
}

// Discard releases the slot without a value. The caller observes
// ErrReplyDiscarded. No-op once the slot was used.
func (r *Replier[T]) Discard() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.used {
		return
	}
	r.used = true
	close(r.dropped)
}

// Used reports whether the slot was fulfilled or discarded.
func (r *Replier[T]) Used() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.used
}

// Awaiter is the consumer half of a reply slot.
type Awaiter[T any] struct {
	ch      <-chan T
	dropped <-chan struct{}
}

// Wait blocks until the slot is fulfilled or discarded, the consumer side
// signals it stopped via done, or ctx ends. A value already delivered wins
// over a concurrent stop signal. A nil done never fires.
func (a *Awaiter[T]) Wait(ctx context.Context, done <-chan struct{}) (T, error) {
	var zero T
	select {
	case v := <-a.ch:
		return v, nil
	case <-a.dropped:
		return zero, ErrReplyDiscarded
	case <-done:
		select {
		case v := <-a.ch:
			return v, nil
		default:
			return zero, ErrReplyDiscarded
		}
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}
