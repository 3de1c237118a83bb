package subscriber

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"

	"github.com/timf34/FOVWiFiStreamingApp/internal/domain"
	"github.com/timf34/FOVWiFiStreamingApp/internal/metrics"
)

const (
	pingInterval = 30 * time.Second
	pongDeadline = 60 * time.Second
)

// WebSocketChannel delivers samples to one WebSocket client as JSON text
// frames. A dedicated writer goroutine drains the outbox so slow sockets
// never block the hub.
type WebSocketChannel struct {
	id           uuid.UUID
	connection   *websocket.Conn
	clock        clockwork.Clock
	out          *outbox
	writeTimeout time.Duration
	doneChannel  chan struct{}
	stopOnce     sync.Once
	wg           sync.WaitGroup
	closed       atomic.Bool
}

// NewWebSocket wraps an upgraded connection in a subscriber channel and
// starts its writer goroutine.
func NewWebSocket(conn *websocket.Conn, policy domain.BackpressurePolicy, bufferSize int, writeTimeout time.Duration, clock clockwork.Clock) *WebSocketChannel {
	c := &WebSocketChannel{
		id:           uuid.New(),
		connection:   conn,
		clock:        clock,
		out:          newOutbox(policy, bufferSize),
		writeTimeout: writeTimeout,
		doneChannel:  make(chan struct{}),
	}
	c.configurePongHandler()
	c.wg.Add(1)
	go c.run()
	return c
}

func (c *WebSocketChannel) ID() uuid.UUID { return c.id }

func (c *WebSocketChannel) Transport() domain.Transport { return domain.TransportWebSocket }

// Deliver encodes the sample and attempts a non-blocking handoff to the
// writer goroutine.
func (c *WebSocketChannel) Deliver(s domain.Sample) domain.DeliveryResult {
	if c.closed.Load() {
		return domain.Closed
	}

	frame, err := json.Marshal(s)
	if err != nil {
		// A flat struct of three float64s cannot fail to marshal.
		return domain.Closed
	}

	return c.out.put(frame)
}

// Close shuts the channel down, sending a close frame with the given reason.
// Idempotent and safe to call concurrently with an in-flight Deliver.
func (c *WebSocketChannel) Close(reason string) {
	c.stopOnce.Do(func() {
		c.closed.Store(true)
		close(c.doneChannel)

		// Wait for the writer to exit so the close frame is not written
		// concurrently with a data frame.
		c.wg.Wait()

		closeMsg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason)
		c.updateWriteDeadline()
		_ = c.connection.WriteMessage(websocket.CloseMessage, closeMsg)
		_ = c.connection.Close()
	})
}

func (c *WebSocketChannel) run() {
	ticker := c.clock.NewTicker(pingInterval)
	defer ticker.Stop()
	defer c.wg.Done()

	for {
		select {
		case frame := <-c.out.frames:
			start := c.clock.Now()
			c.updateWriteDeadline()
			if err := c.connection.WriteMessage(websocket.TextMessage, frame); err != nil {
				c.closed.Store(true)
				return
			}
			metrics.WSMessageSendDuration.Observe(c.clock.Since(start).Seconds())
		case <-ticker.Chan():
			c.updateWriteDeadline()
			if err := c.connection.WriteMessage(websocket.PingMessage, nil); err != nil {
				metrics.WSPingFailures.Inc()
				c.closed.Store(true)
				return
			}
		case <-c.doneChannel:
			return
		}
	}
}

func (c *WebSocketChannel) configurePongHandler() {
	c.updateReadDeadline()
	c.connection.SetPongHandler(func(string) error {
		c.updateReadDeadline()
		return nil
	})
}

func (c *WebSocketChannel) updateWriteDeadline() {
	_ = c.connection.SetWriteDeadline(c.clock.Now().Add(c.writeTimeout))
}

func (c *WebSocketChannel) updateReadDeadline() {
	_ = c.connection.SetReadDeadline(c.clock.Now().Add(pongDeadline))
}
