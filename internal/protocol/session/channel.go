package session

import (
	"context"
	"sync"
	"sync/atomic"
)

// DefaultCommandCapacity bounds the command queue when no capacity is given.
const DefaultCommandCapacity = 32

type channelState struct {
	queue chan Command

	closed    chan struct{}
	closeOnce sync.Once

	senders       atomic.Int64
	noSenders     chan struct{}
	noSendersOnce sync.Once
}

func (st *channelState) discardQueued() {
	for {
		select {
		case cmd := <-st.queue:
			cmd.Discard()
		default:
			return
		}
	}
}

// NewCommandChannel returns a connected, bounded, multi-producer
// single-consumer command queue. The Receiver goes to the session actor;
// the Sender is wrapped into the first Control handle. A capacity below 1
// is raised to 1.
func NewCommandChannel(capacity int) (*Sender, *Receiver) {
	if capacity < 1 {
		capacity = 1
	}
	st := &channelState{
		queue:     make(chan Command, capacity),
		closed:    make(chan struct{}),
		noSenders: make(chan struct{}),
	}
	st.senders.Store(1)
	return &Sender{st: st}, &Receiver{st: st}
}

// Sender is one reference to the producer side of a command channel.
type Sender struct {
	st       *channelState
	released atomic.Bool
}

// Clone returns a new reference to the same channel. Cloning a released
// Sender yields another released Sender.
func (s *Sender) Clone() *Sender {
	if s.released.Load() {
		clone := &Sender{st: s.st}
		clone.released.Store(true)
		return clone
	}
	s.st.senders.Add(1)
	return &Sender{st: s.st}
}

// Release drops this reference. When the last reference is released the
// receiver drains what is queued and then reports ErrNoSenders. Calling
// Release more than once on the same Sender has no further effect.
func (s *Sender) Release() {
	if !s.released.CompareAndSwap(false, true) {
		return
	}
	if s.st.senders.Add(-1) == 0 {
		s.st.noSendersOnce.Do(func() {
			close(s.st.noSenders)
		})
	}
}

// Send queues cmd, blocking while the queue is full. It fails with
// ErrChannelClosed once the receiver stopped, or with ctx.Err() if ctx ends
// before the command was queued.
func (s *Sender) Send(ctx context.Context, cmd Command) error {
	if s.released.Load() {
		return ErrChannelClosed
	}
	select {
	case <-s.st.closed:
		return ErrChannelClosed
	default:
	}
	select {
	case s.st.queue <- cmd:
		// A Close racing this send may have drained the queue already.
		select {
		case <-s.st.closed:
			s.st.discardQueued()
		default:
		}
		return nil
	case <-s.st.closed:
		return ErrChannelClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// IsClosed reports whether commands can no longer be delivered.
func (s *Sender) IsClosed() bool {
	if s.released.Load() {
		return true
	}
	select {
	case <-s.st.closed:
		return true
	default:
		return false
	}
}

// Done is closed once the receiver stops consuming.
func (s *Sender) Done() <-chan struct{} {
	return s.st.closed
}

// Capacity returns the queue bound.
func (s *Sender) Capacity() int {
	return cap(s.st.queue)
}

// Receiver is the single consumer side of a command channel.
type Receiver struct {
	st *channelState
}

// C exposes the queue for select loops. Pair it with NoSenders and Done.
func (r *Receiver) C() <-chan Command {
	return r.st.queue
}

// NoSenders is closed once every Sender was released.
func (r *Receiver) NoSenders() <-chan struct{} {
	return r.st.noSenders
}

// Done is closed once Close was called.
func (r *Receiver) Done() <-chan struct{} {
	return r.st.closed
}

// Recv returns the next command in queue order. After every Sender was
// released it keeps yielding queued commands, then ErrNoSenders.
func (r *Receiver) Recv(ctx context.Context) (Command, error) {
	select {
	case cmd := <-r.st.queue:
		return cmd, nil
	case <-r.st.closed:
		return nil, ErrChannelClosed
	case <-r.st.noSenders:
		select {
		case cmd := <-r.st.queue:
			return cmd, nil
		default:
			return nil, ErrNoSenders
		}
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close stops consumption for good: every later Send fails and every
// command still queued has its reply slot discarded. Safe to call more
// than once.
func (r *Receiver) Close() {
	r.st.closeOnce.Do(func() {
		close(r.st.closed)
	})
	r.st.discardQueued()
}
