package domain

import "github.com/google/uuid"

// Transport identifies which wire protocol a subscriber is attached over.
type Transport string

const (
	TransportSSE       Transport = "sse"
	TransportWebSocket Transport = "websocket"
)

// DeliveryResult reports the outcome of a single non-blocking delivery attempt.
type DeliveryResult int

const (
	// Accepted means the frame was queued (or displaced a stale pending frame).
	Accepted DeliveryResult = iota
	// BufferFull means the subscriber's outbound buffer had no room.
	BufferFull
	// Closed means the subscriber's connection is gone; it must be unregistered.
	Closed
)

func (r DeliveryResult) String() string {
	switch r {
	case Accepted:
		return "accepted"
	case BufferFull:
		return "buffer_full"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}

// Subscriber is one active client connection, abstracted over SSE/WebSocket.
// Deliver must never block: it either queues the sample, reports a full
// buffer, or reports that the connection is closed.
type Subscriber interface {
	ID() uuid.UUID
	Transport() Transport
	Deliver(Sample) DeliveryResult
	Close(reason string)
}

// BackpressurePolicy decides what happens when a subscriber cannot keep up.
type BackpressurePolicy string

const (
	// PolicyCoalesce keeps a single pending frame per subscriber; a newer
	// sample displaces an undelivered older one. Stale positions are worthless.
	PolicyCoalesce BackpressurePolicy = "coalesce"
	// PolicyDrop buffers up to N frames; on overflow the subscriber is
	// unregistered and must reconnect.
	PolicyDrop BackpressurePolicy = "drop"
)
