package session

import "time"

// BackoffConfig defines restart backoff behavior for session supervisors.
type BackoffConfig struct {
	InitialDelay time.Duration
	Multiplier   float64
	MaxDelay     time.Duration
	Jitter       bool
}

// Config defines control-channel and session actor defaults.
type Config struct {
	CommandCapacity   int
	EnableKeepalive   bool
	KeepaliveInterval time.Duration
	PingTimeout       time.Duration
	MaxPingFailures   int
	MaxStreams        int
	Backoff           BackoffConfig
}

// DefaultConfig returns yamux-aligned defaults.
func DefaultConfig() Config {
	return Config{
		CommandCapacity:   DefaultCommandCapacity,
		EnableKeepalive:   true,
		KeepaliveInterval: 30 * time.Second,
		PingTimeout:       10 * time.Second,
		MaxPingFailures:   3,
		MaxStreams:        256,
		Backoff: BackoffConfig{
			InitialDelay: 250 * time.Millisecond,
			Multiplier:   2.0,
			MaxDelay:     5 * time.Second,
			Jitter:       true,
		},
	}
}
