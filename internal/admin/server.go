package admin

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danmuck/edgemux/internal/auth"
	"github.com/danmuck/edgemux/internal/observability"
	"github.com/danmuck/edgemux/internal/protocol/session"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// ControlSource hands out Control handles for the session being served.
// Handles may be released after use.
type ControlSource interface {
	Control() *session.Control
}

// StaticControl serves clones of one fixed handle.
type StaticControl struct {
	Handle *session.Control
}

func (s StaticControl) Control() *session.Control {
	if s.Handle == nil {
		return nil
	}
	return s.Handle.Clone()
}

// Server is the HTTP control surface of one session.
type Server struct {
	ID       string    `json:"id"`
	Addr     string    `json:"addr"`
	Appeared time.Time `json:"appeared"`
	// Auth guards the routes that change session state. Nil leaves them open.
	Auth auth.Validator `json:"-"`

	controls ControlSource
	router   *gin.Engine
}

func New(id, addr string, controls ControlSource, corsOrigins []string) *Server {
	observability.RegisterMetrics()
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(observability.AdminRequestLogger(log.Logger))
	r.Use(observability.AdminRequestMetrics(id))
	r.Use(cors.New(cors.Config{
		AllowOrigins: normalizeOrigins(corsOrigins),
		AllowMethods: []string{"GET", "POST"},
		AllowHeaders: []string{"Origin", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))
	_ = r.SetTrustedProxies([]string{"127.0.0.1", "::1"})

	return &Server{
		ID:       id,
		Addr:     addr,
		Appeared: time.Now(),
		controls: controls,
		router:   r,
	}
}

func (s *Server) HTTPRouter() *gin.Engine {
	return s.router
}

// Serve registers routes and listens until ctx ends.
func (s *Server) Serve(ctx context.Context) error {
	s.RegisterRoutes()
	srv := &http.Server{
		Addr:              s.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("admin", s.ID).Str("addr", s.Addr).Msg("admin.Server.serve listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		log.Info().Str("admin", s.ID).Msg("admin.Server.serve shutdown")
		return nil
	}
}

func normalizeOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"http://localhost:3000"}
	}
	return origins
}
