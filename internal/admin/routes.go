package admin

import (
	"errors"
	"net/http"
	"time"

	"github.com/danmuck/edgemux/internal/auth"
	"github.com/danmuck/edgemux/internal/mux"
	"github.com/danmuck/edgemux/internal/protocol/session"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

func (s *Server) RegisterRoutes() {
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"uptime":  time.Since(s.Appeared).String(),
			"service": s.ID,
			"version": "0.0.1",
		})
	})

	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	s.router.GET("/ping", func(c *gin.Context) {
		ctrl, ok := s.acquire(c)
		if !ok {
			return
		}
		defer ctrl.Release()

		rtt, err := ctrl.LatestPing(c.Request.Context())
		if err != nil {
			respondControlError(c, session.CommandLatestPing, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"rtt_ms": rtt})
	})

	guard := auth.RequireToken(s.Auth)

	s.router.POST("/streams", guard, func(c *gin.Context) {
		ctrl, ok := s.acquire(c)
		if !ok {
			return
		}
		defer ctrl.Release()

		stream, err := ctrl.OpenStream(c.Request.Context())
		if err != nil {
			respondControlError(c, session.CommandOpenStream, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"stream_id": stream.StreamID()})
	})

	s.router.POST("/shutdown", guard, func(c *gin.Context) {
		ctrl, ok := s.acquire(c)
		if !ok {
			return
		}
		defer ctrl.Release()

		ctrl.Close(c.Request.Context())
		log.Info().Str("admin", s.ID).Msg("admin.Server.shutdown requested")
		c.JSON(http.StatusAccepted, gin.H{"status": "closed"})
	})
}

func (s *Server) acquire(c *gin.Context) (*session.Control, bool) {
	var ctrl *session.Control
	if s.controls != nil {
		ctrl = s.controls.Control()
	}
	if ctrl == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "session not started"})
		return nil, false
	}
	return ctrl, true
}

func respondControlError(c *gin.Context, command string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, session.ErrSessionShutdown):
		status = http.StatusServiceUnavailable
	case errors.Is(err, mux.ErrNoPingSample):
		status = http.StatusNotFound
	case errors.Is(err, mux.ErrStreamLimit), errors.Is(err, mux.ErrStreamIDsExhausted):
		status = http.StatusTooManyRequests
	case c.Request.Context().Err() != nil:
		// client went away; the status is never read
		status = http.StatusRequestTimeout
	}
	log.Debug().Str("command", command).Err(err).Int("status", status).Msg("admin.Server.control failed")
	c.JSON(status, gin.H{"error": err.Error()})
}
