// Package mux owns the reference session actor.
//
// Ownership boundary:
// - the stream table and stream ID allocation
// - keepalive pings and the latest round-trip measurement
// - the actor loop that consumes session.Command values one at a time
// - restart supervision for sessions that die
//
// Callers never touch actor state directly; they hold a session.Control.
package mux
