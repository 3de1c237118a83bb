package domain

import "context"

// Source produces the next sample or reports that none is available.
// Next is bounded-blocking: it must return within the caller's context (or
// its own internal bound) so it can never stall the cadence loop
// indefinitely. A malformed upstream payload is reported as
// ErrMalformedSample and the sample is skipped, never fatal.
type Source interface {
	Next(ctx context.Context) (Sample, error)
}
