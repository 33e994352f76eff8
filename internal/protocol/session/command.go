package session

// StreamHandle is the opaque result of opening a stream. Its structure
// belongs to the session actor.
type StreamHandle interface {
	StreamID() uint32
}

// Result carries a value or the error the actor produced for it.
type Result[T any] struct {
	Value T
	Err   error
}

// Ok wraps a successful value.
func Ok[T any](v T) Result[T] {
	return Result[T]{Value: v}
}

// Fail wraps an actor-side error.
func Fail[T any](err error) Result[T] {
	return Result[T]{Err: err}
}

// Command is one request from a Control handle to the session actor. Every
// command carries exactly one reply slot.
type Command interface {
	// Name is a stable label used in logs and metrics.
	Name() string
	// Discard releases the reply slot unanswered.
	Discard()

	isCommand()
}

// OpenStreamCommand asks the actor to create a new stream.
type OpenStreamCommand struct {
	Reply *Replier[Result[StreamHandle]]
}

// LatestPingCommand asks for the latest round-trip time in milliseconds.
// It never changes actor state.
type LatestPingCommand struct {
	Reply *Replier[Result[uint64]]
}

// ShutdownCommand asks the actor to stop. The reply is the acknowledgement.
type ShutdownCommand struct {
	Reply *Replier[struct{}]
}

const (
	CommandOpenStream = "open_stream"
	CommandLatestPing = "latest_ping"
	CommandShutdown   = "shutdown"
)

func (OpenStreamCommand) Name() string { return CommandOpenStream }
func (LatestPingCommand) Name() string { return CommandLatestPing }
func (ShutdownCommand) Name() string   { return CommandShutdown }

func (c OpenStreamCommand) Discard() { c.Reply.Discard() }
func (c LatestPingCommand) Discard() { c.Reply.Discard() }
func (c ShutdownCommand) Discard()   { c.Reply.Discard() }

func (OpenStreamCommand) isCommand() {}
func (LatestPingCommand) isCommand() {}
func (ShutdownCommand) isCommand()   {}
