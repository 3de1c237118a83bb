package subscriber

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/timf34/FOVWiFiStreamingApp/internal/domain"
	"github.com/timf34/FOVWiFiStreamingApp/internal/metrics"
)

const heartbeatInterval = 15 * time.Second

// SSEChannel delivers samples to one Server-Sent Events client as
// "data: <JSON>\n\n" frames. Unlike the WebSocket channel, frames are
// written on the HTTP handler goroutine via Run, which blocks for the
// connection's lifetime.
type SSEChannel struct {
	id           uuid.UUID
	writer       http.ResponseWriter
	flusher      http.Flusher
	control      *http.ResponseController
	clock        clockwork.Clock
	out          *outbox
	writeTimeout time.Duration
	doneChannel  chan struct{}
	stopOnce     sync.Once
	closed       atomic.Bool
}

// NewSSE wraps a streaming HTTP response in a subscriber channel. Returns an
// error if the response writer does not support flushing.
func NewSSE(w http.ResponseWriter, policy domain.BackpressurePolicy, bufferSize int, writeTimeout time.Duration, clock clockwork.Clock) (*SSEChannel, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("response writer does not support streaming")
	}

	return &SSEChannel{
		id:           uuid.New(),
		writer:       w,
		flusher:      flusher,
		control:      http.NewResponseController(w),
		clock:        clock,
		out:          newOutbox(policy, bufferSize),
		writeTimeout: writeTimeout,
		doneChannel:  make(chan struct{}),
	}, nil
}

func (c *SSEChannel) ID() uuid.UUID { return c.id }

func (c *SSEChannel) Transport() domain.Transport { return domain.TransportSSE }

// Deliver encodes the sample and attempts a non-blocking handoff to the
// Run loop.
func (c *SSEChannel) Deliver(s domain.Sample) domain.DeliveryResult {
	if c.closed.Load() {
		return domain.Closed
	}

	frame, err := json.Marshal(s)
	if err != nil {
		return domain.Closed
	}

	return c.out.put(frame)
}

// Close signals the Run loop to exit. There is no close frame in SSE; the
// stream simply ends when the handler returns.
func (c *SSEChannel) Close(string) {
	c.stopOnce.Do(func() {
		c.closed.Store(true)
		close(c.doneChannel)
	})
}

// Run writes frames until the client disconnects, the context is cancelled,
// or the channel is closed. It sends periodic comment frames so idle
// connections are not dropped by intermediaries.
func (c *SSEChannel) Run(ctx context.Context) {
	heartbeat := c.clock.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()
	defer c.closed.Store(true)

	for {
		select {
		case frame := <-c.out.frames:
			if err := c.writeFrame(frame); err != nil {
				metrics.SSEWriteFailures.Inc()
				return
			}
		case <-heartbeat.Chan():
			if err := c.writeComment("keepalive"); err != nil {
				metrics.SSEWriteFailures.Inc()
				return
			}
		case <-ctx.Done():
			return
		case <-c.doneChannel:
			return
		}
	}
}

func (c *SSEChannel) writeFrame(frame []byte) error {
	_ = c.control.SetWriteDeadline(c.clock.Now().Add(c.writeTimeout))
	if _, err := fmt.Fprintf(c.writer, "data: %s\n\n", frame); err != nil {
		return err
	}
	c.flusher.Flush()
	return nil
}

func (c *SSEChannel) writeComment(text string) error {
	_ = c.control.SetWriteDeadline(c.clock.Now().Add(c.writeTimeout))
	if _, err := fmt.Fprintf(c.writer, ": %s\n\n", text); err != nil {
		return err
	}
	c.flusher.Flush()
	return nil
}
