package domain

import "errors"

var (
	// ErrNoSample means the source had nothing to produce within its bound.
	ErrNoSample = errors.New("no sample available")
	// ErrMalformedSample means upstream data could not be decoded into a Sample.
	ErrMalformedSample = errors.New("malformed sample")
	// ErrHubStopped means an operation raced with hub shutdown.
	ErrHubStopped = errors.New("hub stopped")
	// ErrHubFull means the global subscriber cap has been reached.
	ErrHubFull = errors.New("subscriber limit reached")
)
