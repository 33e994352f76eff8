package mux

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/danmuck/edgemux/internal/protocol/session"
	"github.com/rs/zerolog/log"
)

// ServiceConfig configures session supervision.
type ServiceConfig struct {
	Session session.Config
	// MaxRestarts bounds restarts after abnormal exits; 0 means unlimited.
	MaxRestarts int
}

// Service keeps a session running. When a session dies for any reason
// other than an orderly shutdown, it starts a fresh one after a backoff
// delay. Restarting is the caller-level retry; Control calls themselves
// never retry.
type Service struct {
	cfg  ServiceConfig
	opts []Option
	rng  *rand.Rand

	mu      sync.RWMutex
	current *Session
	ctrl    *session.Control
	ready   chan struct{}
	once    sync.Once
}

func NewService(cfg ServiceConfig, opts ...Option) *Service {
	return &Service{
		cfg:   cfg,
		opts:  opts,
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
		ready: make(chan struct{}),
	}
}

// Ready is closed once the first session exists.
func (s *Service) Ready() <-chan struct{} {
	return s.ready
}

// Control returns a new handle on the current session, or nil before the
// first session started. The caller may Release it when done.
func (s *Service) Control() *session.Control {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.ctrl == nil {
		return nil
	}
	return s.ctrl.Clone()
}

// SessionID returns the ID of the current session.
func (s *Service) SessionID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return ""
	}
	return s.current.ID()
}

// Run supervises sessions until an orderly shutdown, ctx cancellation, or
// MaxRestarts abnormal exits. The last session error is returned only in
// the latter case.
func (s *Service) Run(ctx context.Context) error {
	attempt := 0
	for {
		sess, ctrl := NewSession(s.cfg.Session, s.opts...)
		s.setCurrent(sess, ctrl)

		err := sess.Serve(ctx)
		switch {
		case ctx.Err() != nil:
			log.Info().Str("session_id", sess.ID()).Msg("mux.Service.run shutdown")
			return nil
		case err == nil:
			log.Info().Str("session_id", sess.ID()).Msg("mux.Service.run session closed")
			return nil
		case errors.Is(err, session.ErrNoSenders):
			return nil
		}

		attempt++
		if s.cfg.MaxRestarts > 0 && attempt > s.cfg.MaxRestarts {
			log.Error().Err(err).Int("attempt", attempt).Msg("mux.Service.run restart budget spent")
			return err
		}
		log.Warn().
			Err(err).
			Str("session_id", sess.ID()).
			Int("attempt", attempt).
			Msg("mux.Service.run session lost")
		if err := s.waitRestartBackoff(ctx, attempt); err != nil {
			return nil
		}
	}
}

func (s *Service) setCurrent(sess *Session, ctrl *session.Control) {
	s.mu.Lock()
	prev := s.ctrl
	s.current = sess
	s.ctrl = ctrl
	s.mu.Unlock()
	if prev != nil {
		prev.Release()
	}
	s.once.Do(func() {
		close(s.ready)
	})
}

func (s *Service) waitRestartBackoff(ctx context.Context, attempt int) error {
	delay := session.NextBackoffDelay(s.cfg.Session.Backoff, attempt, s.rng)
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
