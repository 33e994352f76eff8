package session

import "context"

// Actor is the single consumer of a command channel. It handles commands
// one at a time and must answer every reply slot it takes, except when it
// dies; it then stops consuming by closing its Receiver, which callers see
// as ErrSessionShutdown.
type Actor interface {
	Serve(ctx context.Context) error
}

// Handler performs the effect behind each command on the actor's goroutine.
type Handler interface {
	OpenStream() (StreamHandle, error)
	LatestPing() (uint64, error)
	// Shutdown runs the orderly stop. The acknowledgement is sent after it
	// returns.
	Shutdown()
}

// Dispatch runs cmd against h and answers its reply slot exactly once. It
// reports whether cmd was a shutdown request. If h panics the reply slot
// is discarded before the panic continues.
func Dispatch(cmd Command, h Handler) (bool, error) {
	if cmd == nil {
		return false, ErrUnknownCommand
	}
	defer cmd.Discard()
	switch c := cmd.(type) {
	case OpenStreamCommand:
		stream, err := h.OpenStream()
		if err != nil {
			return false, c.Reply.Fulfill(Fail[StreamHandle](err))
		}
		return false, c.Reply.Fulfill(Ok(stream))
	case LatestPingCommand:
		rtt, err := h.LatestPing()
		if err != nil {
			return false, c.Reply.Fulfill(Fail[uint64](err))
		}
		return false, c.Reply.Fulfill(Ok(rtt))
	case ShutdownCommand:
		h.Shutdown()
		return true, c.Reply.Fulfill(struct{}{})
	default:
		return false, ErrUnknownCommand
	}
}
