package mux

import (
	"context"
	"net"
	"time"
)

// Pinger measures one round trip to the remote end of a session.
type Pinger interface {
	Ping(ctx context.Context) (time.Duration, error)
}

// PingerFunc adapts a function to Pinger.
type PingerFunc func(ctx context.Context) (time.Duration, error)

func (f PingerFunc) Ping(ctx context.Context) (time.Duration, error) {
	return f(ctx)
}

// DialPinger measures the time to establish a connection to Address.
type DialPinger struct {
	Network string
	Address string
	Dialer  net.Dialer
}

func (p *DialPinger) Ping(ctx context.Context) (time.Duration, error) {
	network := p.Network
	if network == "" {
		network = "tcp"
	}
	start := time.Now()
	conn, err := p.Dialer.DialContext(ctx, network, p.Address)
	if err != nil {
		return 0, err
	}
	rtt := time.Since(start)
	_ = conn.Close()
	return rtt, nil
}

type pingResult struct {
	rtt time.Duration
	err error
}

// rttMillis rounds up so a completed sub-millisecond ping never reads as 0.
func rttMillis(rtt time.Duration) uint64 {
	if rtt <= 0 {
		return 0
	}
	ms := uint64((rtt + time.Millisecond - 1) / time.Millisecond)
	return ms
}
