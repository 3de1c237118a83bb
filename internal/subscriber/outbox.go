package subscriber

import (
	"github.com/timf34/FOVWiFiStreamingApp/internal/domain"
	"github.com/timf34/FOVWiFiStreamingApp/internal/metrics"
)

// outbox is the bounded buffer of encoded frames between Deliver and the
// transport write path. Under the coalesce policy it holds a single pending
// frame and a newer one displaces it; under the drop policy it holds up to
// size frames and reports BufferFull on overflow.
type outbox struct {
	frames chan []byte
	policy domain.BackpressurePolicy
}

func newOutbox(policy domain.BackpressurePolicy, size int) *outbox {
	if policy == domain.PolicyCoalesce {
		size = 1
	}
	return &outbox{
		frames: make(chan []byte, size),
		policy: policy,
	}
}

// put attempts a non-blocking enqueue. It never blocks the caller: the worst
// case under coalesce is draining one stale frame before retrying.
func (o *outbox) put(frame []byte) domain.DeliveryResult {
	if o.policy == domain.PolicyCoalesce {
		for {
			select {
			case o.frames <- frame:
				return domain.Accepted
			default:
			}
			// Buffer full: displace the stale pending frame. The writer may
			// race us and drain it first, in which case the retry succeeds.
			select {
			case <-o.frames:
				metrics.HubFramesCoalescedTotal.Inc()
			default:
			}
		}
	}

	select {
	case o.frames <- frame:
		return domain.Accepted
	default:
		return domain.BufferFull
	}
}
