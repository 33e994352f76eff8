package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "edgemux",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total admin HTTP requests.",
		},
		[]string{"server", "method", "route", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "edgemux",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Admin HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"server", "method", "route", "status"},
	)
	controlCommands = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "edgemux",
			Subsystem: "control",
			Name:      "commands_total",
			Help:      "Control handle calls by command and result.",
		},
		[]string{"command", "result"},
	)
	controlDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "edgemux",
			Subsystem: "control",
			Name:      "command_duration_seconds",
			Help:      "Time from send to reply for control handle calls.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"command"},
	)
	sessionRTT = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "edgemux",
			Subsystem: "session",
			Name:      "rtt_milliseconds",
			Help:      "Latest keepalive round-trip time.",
		},
		[]string{"session"},
	)
	sessionStreams = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "edgemux",
			Subsystem: "session",
			Name:      "streams_open",
			Help:      "Streams currently open in the session.",
		},
		[]string{"session"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			httpRequests,
			httpDuration,
			controlCommands,
			controlDuration,
			sessionRTT,
			sessionStreams,
		)
	})
}

func RecordHTTPRequest(server, method, route string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(server, method, route, statusLabel).Inc()
	httpDuration.WithLabelValues(server, method, route, statusLabel).Observe(duration.Seconds())
}

func RecordControlCommand(command, result string, duration time.Duration) {
	RegisterMetrics()
	controlCommands.WithLabelValues(command, result).Inc()
	controlDuration.WithLabelValues(command).Observe(duration.Seconds())
}

func RecordSessionRTT(sessionID string, rttMS uint64) {
	RegisterMetrics()
	sessionRTT.WithLabelValues(sessionID).Set(float64(rttMS))
}

func RecordOpenStreams(sessionID string, open int) {
	RegisterMetrics()
	sessionStreams.WithLabelValues(sessionID).Set(float64(open))
}

// ForgetSession drops the per-session series of a stopped session.
func ForgetSession(sessionID string) {
	sessionRTT.DeleteLabelValues(sessionID)
	sessionStreams.DeleteLabelValues(sessionID)
}

// CommandObserver feeds control handle calls into the control metrics.
type CommandObserver struct{}

func (CommandObserver) ObserveCommand(command, result string, elapsed time.Duration) {
	RecordControlCommand(command, result, elapsed)
}
