// Package session owns the control surface of a multiplexed session.
//
// Ownership boundary:
// - the bounded command channel between Control handles and the actor
// - single-use reply slots that pair each command with one answer
// - the cloneable Control handle and its shutdown semantics
// - the Actor/Handler contract a session actor implements
//
// Stream framing, flow control and socket I/O belong to the actor
// (see internal/mux for the reference implementation).
package session
