package mux

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/danmuck/edgemux/internal/observability"
	"github.com/danmuck/edgemux/internal/protocol/session"
	"github.com/lithammer/shortuuid/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Option customizes a Session at construction.
type Option func(*Session)

// WithPinger sets the keepalive transport. Without one no RTT is measured.
func WithPinger(p Pinger) Option {
	return func(s *Session) {
		s.pinger = p
	}
}

// WithSide selects client (odd) or server (even) stream IDs.
func WithSide(side Side) Option {
	return func(s *Session) {
		s.side = side
	}
}

// WithLogger overrides the global logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

// WithControlOptions forwards options to the first Control handle.
func WithControlOptions(opts ...session.ControlOption) Option {
	return func(s *Session) {
		s.controlOpts = append(s.controlOpts, opts...)
	}
}

// Session is the actor that owns one multiplexed session's state. Only
// Serve's goroutine reads or writes that state.
type Session struct {
	id          string
	cfg         session.Config
	side        Side
	pinger      Pinger
	logger      zerolog.Logger
	controlOpts []session.ControlOption

	rx      *session.Receiver
	streams *streamTable

	rtt          uint64
	hasRTT       bool
	pingFailures int
	pinging      bool

	pingResults chan pingResult
	released    chan uint32

	done chan struct{}
	err  error
}

// NewSession creates the command channel, the actor and the first Control
// handle. Run the actor with Serve.
func NewSession(cfg session.Config, opts ...Option) (*Session, *session.Control) {
	s := &Session{
		id:          shortuuid.New(),
		cfg:         cfg,
		logger:      log.Logger,
		pingResults: make(chan pingResult),
		released:    make(chan uint32),
		done:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With().Str("session_id", s.id).Logger()
	s.streams = newStreamTable(s.side, cfg.MaxStreams)

	tx, rx := session.NewCommandChannel(cfg.CommandCapacity)
	s.rx = rx
	ctrlOpts := append([]session.ControlOption{
		session.WithObserver(observability.CommandObserver{}),
	}, s.controlOpts...)
	return s, session.NewControl(tx, ctrlOpts...)
}

func (s *Session) ID() string {
	return s.id
}

// Done is closed once Serve returned.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Err returns Serve's result once Done is closed.
func (s *Session) Err() error {
	select {
	case <-s.done:
		return s.err
	default:
		return nil
	}
}

// Serve consumes commands until a shutdown command, ctx cancellation,
// keepalive failure, or the release of every Control handle. It returns nil
// only for an orderly shutdown. Serve must be called once.
func (s *Session) Serve(ctx context.Context) (err error) {
	defer func() {
		s.finish(err)
	}()

	var tick <-chan time.Time
	if s.cfg.EnableKeepalive && s.pinger != nil && s.cfg.KeepaliveInterval > 0 {
		ticker := time.NewTicker(s.cfg.KeepaliveInterval)
		defer ticker.Stop()
		tick = ticker.C
		s.startPing(ctx)
	}

	s.logger.Info().
		Str("side", s.side.String()).
		Int("capacity", s.cfg.CommandCapacity).
		Bool("keepalive", tick != nil).
		Msg("mux.Session.serve start")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case cmd := <-s.rx.C():
			if s.handle(cmd) {
				return nil
			}
		case <-s.rx.NoSenders():
			select {
			case cmd := <-s.rx.C():
				if s.handle(cmd) {
					return nil
				}
			default:
				return session.ErrNoSenders
			}
		case <-tick:
			s.startPing(ctx)
		case res := <-s.pingResults:
			if err := s.recordPing(res); err != nil {
				return err
			}
		case id := <-s.released:
			if s.streams.remove(id) {
				observability.RecordOpenStreams(s.id, s.streams.len())
				s.logger.Debug().Uint32("stream_id", id).Msg("mux.Session.stream closed")
			}
		}
	}
}

func (s *Session) handle(cmd session.Command) bool {
	shutdown, err := session.Dispatch(cmd, (*actorHandler)(s))
	if err != nil {
		s.logger.Warn().Err(err).Msg("mux.Session.handle dispatch failed")
	}
	return shutdown
}

func (s *Session) startPing(ctx context.Context) {
	if s.pinging {
		return
	}
	s.pinging = true
	timeout := s.cfg.PingTimeout
	go func() {
		pctx := ctx
		if timeout > 0 {
			var cancel context.CancelFunc
			pctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		rtt, err := s.pinger.Ping(pctx)
		select {
		case s.pingResults <- pingResult{rtt: rtt, err: err}:
		case <-s.done:
		}
	}()
}

func (s *Session) recordPing(res pingResult) error {
	s.pinging = false
	if res.err != nil {
		s.pingFailures++
		s.logger.Warn().Err(res.err).Int("failures", s.pingFailures).Msg("mux.Session.keepalive ping failed")
		if s.cfg.MaxPingFailures > 0 && s.pingFailures >= s.cfg.MaxPingFailures {
			return fmt.Errorf("%w: %d consecutive failures: %v", ErrKeepaliveFailed, s.pingFailures, res.err)
		}
		return nil
	}
	s.pingFailures = 0
	s.rtt = rttMillis(res.rtt)
	s.hasRTT = true
	observability.RecordSessionRTT(s.id, s.rtt)
	s.logger.Debug().Uint64("rtt_ms", s.rtt).Msg("mux.Session.keepalive pong")
	return nil
}

// finish stops consumption so every pending and future Control call fails
// with session.ErrSessionShutdown.
func (s *Session) finish(err error) {
	closed := s.streams.closeAll()
	s.rx.Close()
	s.err = err
	close(s.done)
	observability.ForgetSession(s.id)

	event := s.logger.Info()
	if err != nil && !errors.Is(err, context.Canceled) {
		event = s.logger.Warn().Err(err)
	}
	event.Int("streams_closed", closed).Msg("mux.Session.serve stopped")
}

// actorHandler is the session.Handler view of a Session. Its methods run on
// the Serve goroutine only.
type actorHandler Session

func (h *actorHandler) OpenStream() (session.StreamHandle, error) {
	s := (*Session)(h)
	stream, err := s.streams.open(s.released, s.done)
	if err != nil {
		return nil, err
	}
	observability.RecordOpenStreams(s.id, s.streams.len())
	s.logger.Debug().Uint32("stream_id", stream.StreamID()).Msg("mux.Session.stream opened")
	return stream, nil
}

func (h *actorHandler) LatestPing() (uint64, error) {
	s := (*Session)(h)
	if !s.hasRTT {
		return 0, ErrNoPingSample
	}
	return s.rtt, nil
}

func (h *actorHandler) Shutdown() {
	s := (*Session)(h)
	closed := s.streams.closeAll()
	s.rx.Close()
	s.logger.Info().Int("streams_closed", closed).Msg("mux.Session.shutdown requested")
}
