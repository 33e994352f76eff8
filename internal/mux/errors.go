package mux

import "errors"

var (
	ErrNoPingSample       = errors.New("mux: no ping measurement yet")
	ErrStreamLimit        = errors.New("mux: stream limit reached")
	ErrStreamIDsExhausted = errors.New("mux: stream ids exhausted")
	ErrKeepaliveFailed    = errors.New("mux: keepalive failed")
	ErrStreamClosed       = errors.New("mux: stream closed")
)
