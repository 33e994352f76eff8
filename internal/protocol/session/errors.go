package session

import "errors"

var (
	// ErrSessionShutdown is returned by Control operations once the session
	// actor is gone, whether the command could not be queued or the actor
	// dropped the reply without answering.
	ErrSessionShutdown = errors.New("session: shutdown")

	ErrChannelClosed    = errors.New("session: command channel closed")
	ErrNoSenders        = errors.New("session: all control handles released")
	ErrReplyAlreadyUsed = errors.New("session: reply slot already used")
	ErrReplyDiscarded   = errors.New("session: reply slot discarded")
	ErrUnknownCommand   = errors.New("session: unknown command")
)
