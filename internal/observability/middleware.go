package observability

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// AdminRequestLogger logs one line per admin request. Outcomes the control
// surface produces on purpose (a stopped session, no ping sample yet, a
// full stream table) stay below warn; auth failures warn and server faults
// error.
func AdminRequestLogger(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		event := adminEvent(logger, status)
		if len(c.Errors) > 0 {
			event = event.Str("gin_errors", c.Errors.String())
		}
		event.
			Str("method", c.Request.Method).
			Str("route", routeOf(c)).
			Int("status", status).
			Dur("elapsed", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Msg("admin.request")
	}
}

func adminEvent(logger zerolog.Logger, status int) *zerolog.Event {
	switch {
	case status == http.StatusServiceUnavailable, status == http.StatusTooManyRequests:
		return logger.Info()
	case status == http.StatusUnauthorized:
		return logger.Warn()
	case status >= 500:
		return logger.Error()
	case status >= 400:
		return logger.Debug().Bool("client_error", true)
	default:
		return logger.Debug()
	}
}

// AdminRequestMetrics records request counts and latency per route for the
// admin server identified by server.
func AdminRequestMetrics(server string) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		RecordHTTPRequest(server, c.Request.Method, routeOf(c), c.Writer.Status(), time.Since(start))
	}
}

func routeOf(c *gin.Context) string {
	if route := c.FullPath(); route != "" {
		return route
	}
	return "unmatched"
}
