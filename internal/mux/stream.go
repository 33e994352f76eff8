package mux

import (
	"sync"

	"github.com/danmuck/edgemux/internal/protocol/session"
)

// Side selects the stream ID parity a session allocates from.
type Side int

const (
	SideClient Side = iota
	SideServer
)

func (s Side) String() string {
	if s == SideServer {
		return "server"
	}
	return "client"
}

func (s Side) firstStreamID() uint32 {
	if s == SideServer {
		return 2
	}
	return 1
}

// Stream is the handle returned for an opened stream.
type Stream struct {
	id      uint32
	closed  chan struct{}
	once    sync.Once
	release chan<- uint32
	done    <-chan struct{}
}

var _ session.StreamHandle = (*Stream)(nil)

func newStream(id uint32, release chan<- uint32, done <-chan struct{}) *Stream {
	return &Stream{
		id:      id,
		closed:  make(chan struct{}),
		release: release,
		done:    done,
	}
}

func (s *Stream) StreamID() uint32 {
	return s.id
}

// Closed is closed once the stream was closed by its holder or by session
// shutdown.
func (s *Stream) Closed() <-chan struct{} {
	return s.closed
}

// Close closes the stream and removes it from the session's table. It
// returns ErrStreamClosed if the stream was already closed.
func (s *Stream) Close() error {
	if !s.markClosed() {
		return ErrStreamClosed
	}
	select {
	case s.release <- s.id:
	case <-s.done:
	}
	return nil
}

func (s *Stream) markClosed() bool {
	closed := false
	s.once.Do(func() {
		close(s.closed)
		closed = true
	})
	return closed
}

// streamTable is owned by the actor goroutine and is not locked.
type streamTable struct {
	side    Side
	limit   int
	nextID  uint32
	streams map[uint32]*Stream

	exhausted bool
}

func newStreamTable(side Side, limit int) *streamTable {
	return &streamTable{
		side:    side,
		limit:   limit,
		nextID:  side.firstStreamID(),
		streams: make(map[uint32]*Stream),
	}
}

func (t *streamTable) open(release chan<- uint32, done <-chan struct{}) (*Stream, error) {
	if t.limit > 0 && len(t.streams) >= t.limit {
		return nil, ErrStreamLimit
	}
	if t.exhausted {
		return nil, ErrStreamIDsExhausted
	}
	id := t.nextID
	t.nextID += 2
	if t.nextID < id {
		t.exhausted = true
	}
	stream := newStream(id, release, done)
	t.streams[id] = stream
	return stream, nil
}

func (t *streamTable) remove(id uint32) bool {
	if _, ok := t.streams[id]; !ok {
		return false
	}
	delete(t.streams, id)
	return true
}

func (t *streamTable) closeAll() int {
	n := len(t.streams)
	for id, stream := range t.streams {
		stream.markClosed()
		delete(t.streams, id)
	}
	return n
}

func (t *streamTable) len() int {
	return len(t.streams)
}
