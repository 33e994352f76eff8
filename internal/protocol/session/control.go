package session

import (
	"context"
	"errors"
	"time"
)

const (
	ResultOK       = "ok"
	ResultError    = "error"
	ResultShutdown = "shutdown"
	ResultCanceled = "canceled"
)

// Observer receives one callback per completed Control call.
type Observer interface {
	ObserveCommand(command, result string, elapsed time.Duration)
}

// ControlOption customizes a Control at construction.
type ControlOption func(*Control)

// WithObserver attaches a call observer. Clones inherit it.
func WithObserver(obs Observer) ControlOption {
	return func(c *Control) {
		c.obs = obs
	}
}

// Control is a cloneable handle used to open streams on, query, and close a
// session. All clones share one command channel; the session actor owns
// every piece of session state.
//
// Each call sends one command and waits for its one reply. Cancelling ctx
// after the command was queued abandons the reply only: the actor still
// performs the command, so a stream opened that way stays open with no
// caller holding it.
type Control struct {
	tx  *Sender
	obs Observer
}

// NewControl wraps the producer side of a command channel.
func NewControl(tx *Sender, opts ...ControlOption) *Control {
	c := &Control{tx: tx}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Clone returns another handle on the same session.
func (c *Control) Clone() *Control {
	return &Control{tx: c.tx.Clone(), obs: c.obs}
}

// Release drops this handle. Once every clone is released the actor sees
// no more senders. Calls on a released handle fail with ErrSessionShutdown.
func (c *Control) Release() {
	c.tx.Release()
}

// IsClosed reports whether the session stopped accepting commands.
func (c *Control) IsClosed() bool {
	return c.tx.IsClosed()
}

// OpenStream asks the session for a new stream.
func (c *Control) OpenStream(ctx context.Context) (StreamHandle, error) {
	reply, wait := NewReply[Result[StreamHandle]]()
	return call(ctx, c, OpenStreamCommand{Reply: reply}, wait)
}

// LatestPing returns the latest measured round-trip time in milliseconds.
func (c *Control) LatestPing(ctx context.Context) (uint64, error) {
	reply, wait := NewReply[Result[uint64]]()
	return call(ctx, c, LatestPingCommand{Reply: reply}, wait)
}

// Close asks the session to shut down and waits for the acknowledgement
// when it can. It returns at once if the session is already gone and never
// reports an error: a closed channel already satisfies the request.
func (c *Control) Close(ctx context.Context) {
	if c.tx.IsClosed() {
		return
	}
	start := time.Now()
	reply, wait := NewReply[struct{}]()
	if err := c.tx.Send(ctx, ShutdownCommand{Reply: reply}); err != nil {
		c.observe(CommandShutdown, resultFor(err), start)
		return
	}
	_, err := wait.Wait(ctx, c.tx.Done())
	c.observe(CommandShutdown, resultFor(err), start)
}

func call[T any](ctx context.Context, c *Control, cmd Command, wait *Awaiter[Result[T]]) (T, error) {
	var zero T
	start := time.Now()
	if err := c.tx.Send(ctx, cmd); err != nil {
		err = mapCallErr(err)
		c.observe(cmd.Name(), resultFor(err), start)
		return zero, err
	}
	res, err := wait.Wait(ctx, c.tx.Done())
	if err != nil {
		err = mapCallErr(err)
		c.observe(cmd.Name(), resultFor(err), start)
		return zero, err
	}
	c.observe(cmd.Name(), resultFor(res.Err), start)
	if res.Err != nil {
		return zero, res.Err
	}
	return res.Value, nil
}

func mapCallErr(err error) error {
	if errors.Is(err, ErrChannelClosed) || errors.Is(err, ErrReplyDiscarded) {
		return ErrSessionShutdown
	}
	return err
}

func resultFor(err error) string {
	switch {
	case err == nil:
		return ResultOK
	case errors.Is(err, ErrSessionShutdown), errors.Is(err, ErrChannelClosed), errors.Is(err, ErrReplyDiscarded):
		return ResultShutdown
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return ResultCanceled
	default:
		return ResultError
	}
}

func (c *Control) observe(command, result string, start time.Time) {
	if c.obs == nil {
		return
	}
	c.obs.ObserveCommand(command, result, time.Since(start))
}
