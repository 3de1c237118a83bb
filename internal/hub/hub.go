package hub

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/timf34/FOVWiFiStreamingApp/internal/domain"
	"github.com/timf34/FOVWiFiStreamingApp/internal/metrics"
)

const (
	commandTimeout = 5 * time.Second
	stopTimeout    = 10 * time.Second
	cmdChannelSize = 256
)

// --- Command types ---

type hubCmd interface{ isHubCmd() }

type baseHubCmd struct{}

func (baseHubCmd) isHubCmd() {}

type registerCmd struct {
	baseHubCmd
	subscriber   domain.Subscriber
	errorChannel chan error
}

type unregisterCmd struct {
	baseHubCmd
	subscriberID uuid.UUID
}

type publishCmd struct {
	baseHubCmd
	sample domain.Sample
}

type lenCmd struct {
	baseHubCmd
	replyChannel chan int
}

type latestCmd struct {
	baseHubCmd
	replyChannel chan latestReply
}

type latestReply struct {
	sample domain.Sample
	ok     bool
}

type stopCmd struct {
	baseHubCmd
}

// --- Hub ---

// Hub is the single authoritative fan-out point. It owns the registry of
// active subscribers and retains the most recent sample so late joiners see
// current state without waiting for the next tick.
type Hub struct {
	cmdCh     chan hubCmd
	clock     clockwork.Clock
	registry  map[uuid.UUID]domain.Subscriber
	latest    domain.Sample
	hasLatest bool
	policy    domain.BackpressurePolicy
	maxSubs   int
	done      chan struct{}
}

// New creates a hub and starts its actor goroutine.
// maxSubscribers caps the registry size; policy decides what happens to
// subscribers that cannot keep up (see domain.BackpressurePolicy).
func New(policy domain.BackpressurePolicy, maxSubscribers int, clock clockwork.Clock) *Hub {
	h := &Hub{
		cmdCh:    make(chan hubCmd, cmdChannelSize),
		clock:    clock,
		registry: make(map[uuid.UUID]domain.Subscriber),
		policy:   policy,
		maxSubs:  maxSubscribers,
		done:     make(chan struct{}),
	}
	go h.run()
	return h
}

// Register adds a subscriber to the registry. The subscriber immediately
// receives the most recent sample, if any, as its first frame.
func (h *Hub) Register(sub domain.Subscriber) error {
	errCh := make(chan error, 1)
	select {
	case h.cmdCh <- registerCmd{subscriber: sub, errorChannel: errCh}:
	case <-h.done:
		return domain.ErrHubStopped
	}

	timer := h.clock.NewTimer(commandTimeout)
	defer timer.Stop()

	select {
	case err := <-errCh:
		return err
	case <-timer.Chan():
		return fmt.Errorf("register command timed out after %v", commandTimeout)
	}
}

// Unregister removes a subscriber by id. Idempotent: unknown ids are a no-op.
// Safe to call concurrently with an in-flight delivery for the same
// subscriber; the registry is only ever touched by the actor goroutine.
func (h *Hub) Unregister(id uuid.UUID) {
	select {
	case h.cmdCh <- unregisterCmd{subscriberID: id}:
	case <-h.done:
	}
}

// Publish fans a sample out to every registered subscriber. Non-blocking per
// subscriber: a full buffer either coalesces or evicts, it never stalls the
// hub.
func (h *Hub) Publish(sample domain.Sample) {
	select {
	case h.cmdCh <- publishCmd{sample: sample}:
	case <-h.done:
	}
}

// Len returns the number of registered subscribers, or -1 on timeout.
func (h *Hub) Len() int {
	replyCh := make(chan int, 1)
	select {
	case h.cmdCh <- lenCmd{replyChannel: replyCh}:
	case <-h.done:
		return 0
	}

	timer := h.clock.NewTimer(commandTimeout)
	defer timer.Stop()

	select {
	case n := <-replyCh:
		return n
	case <-timer.Chan():
		slog.Warn("Hub Len timed out", "timeout", commandTimeout)
		return -1
	}
}

// Latest returns the most recently published sample, if any.
func (h *Hub) Latest() (domain.Sample, bool) {
	replyCh := make(chan latestReply, 1)
	select {
	case h.cmdCh <- latestCmd{replyChannel: replyCh}:
	case <-h.done:
		return domain.Sample{}, false
	}

	timer := h.clock.NewTimer(commandTimeout)
	defer timer.Stop()

	select {
	case r := <-replyCh:
		return r.sample, r.ok
	case <-timer.Chan():
		return domain.Sample{}, false
	}
}

// Stop shuts the hub down, closing every subscriber. Blocks until the actor
// goroutine has exited or the stop timeout is reached.
func (h *Hub) Stop() {
	select {
	case h.cmdCh <- stopCmd{}:
	case <-h.done:
		return
	}

	timer := h.clock.NewTimer(stopTimeout)
	defer timer.Stop()

	select {
	case <-h.done:
		slog.Info("Hub stopped gracefully")
	case <-timer.Chan():
		slog.Error("Hub stop timeout exceeded", "timeout", stopTimeout)
	}
}

// --- Actor loop ---

func (h *Hub) run() {
	defer close(h.done)

	depthTicker := h.clock.NewTicker(1 * time.Second)
	defer depthTicker.Stop()

	for {
		select {
		case <-depthTicker.Chan():
			depth := len(h.cmdCh)
			metrics.HubCommandChannelDepth.Set(float64(depth))
			if depth > cmdChannelSize*4/5 {
				slog.Warn("Hub command channel near capacity", "depth", depth, "capacity", cmdChannelSize)
			}

		case cmd := <-h.cmdCh:
			switch c := cmd.(type) {
			case registerCmd:
				h.handleRegister(c)
			case unregisterCmd:
				h.handleUnregister(c.subscriberID, "unregistered")
			case publishCmd:
				h.handlePublish(c.sample)
			case lenCmd:
				c.replyChannel <- len(h.registry)
			case latestCmd:
				c.replyChannel <- latestReply{sample: h.latest, ok: h.hasLatest}
			case stopCmd:
				h.handleStop()
				return
			default:
				slog.Warn("Hub received unknown command type", "command_type", fmt.Sprintf("%T", cmd))
			}
		}
	}
}

func (h *Hub) handleRegister(c registerCmd) {
	if len(h.registry) >= h.maxSubs {
		slog.Warn("Rejecting subscriber: registry full", "max_subscribers", h.maxSubs)
		c.subscriber.Close("subscriber limit reached")
		c.errorChannel <- domain.ErrHubFull
		return
	}

	h.registry[c.subscriber.ID()] = c.subscriber
	metrics.HubSubscribers.WithLabelValues(string(c.subscriber.Transport())).Inc()
	slog.Debug("Subscriber registered",
		"subscriber_id", c.subscriber.ID().String(),
		"transport", c.subscriber.Transport(),
		"total", len(h.registry),
	)
	c.errorChannel <- nil

	// Late joiners see the current position right away.
	if h.hasLatest {
		if res := c.subscriber.Deliver(h.latest); res == domain.Closed {
			h.handleUnregister(c.subscriber.ID(), "closed during snapshot delivery")
		}
	}
}

func (h *Hub) handleUnregister(id uuid.UUID, reason string) {
	sub, exists := h.registry[id]
	if !exists {
		return
	}

	sub.Close(reason)
	delete(h.registry, id)
	metrics.HubSubscribers.WithLabelValues(string(sub.Transport())).Dec()
	slog.Debug("Subscriber unregistered",
		"subscriber_id", id.String(),
		"reason", reason,
		"remaining", len(h.registry),
	)
}

func (h *Hub) handlePublish(sample domain.Sample) {
	h.latest = sample
	h.hasLatest = true
	metrics.HubSamplesPublishedTotal.Inc()

	type eviction struct {
		id     uuid.UUID
		reason string
	}
	var evict []eviction
	for id, sub := range h.registry {
		switch sub.Deliver(sample) {
		case domain.Accepted:
			metrics.HubFramesDeliveredTotal.WithLabelValues(string(sub.Transport())).Inc()
		case domain.BufferFull:
			// Only possible under the drop policy: the subscriber is too far
			// behind, force a reconnect.
			evict = append(evict, eviction{id: id, reason: "buffer overflow"})
			metrics.HubSlowSubscribersEvicted.Inc()
		case domain.Closed:
			evict = append(evict, eviction{id: id, reason: "connection closed"})
		}
	}

	for _, e := range evict {
		h.handleUnregister(e.id, e.reason)
	}
}

func (h *Hub) handleStop() {
	slog.Info("Hub shutting down", "subscribers", len(h.registry))
	for id, sub := range h.registry {
		sub.Close("server shutting down")
		metrics.HubSubscribers.WithLabelValues(string(sub.Transport())).Dec()
		delete(h.registry, id)
	}
}

// Policy returns the backpressure policy this hub runs with.
func (h *Hub) Policy() domain.BackpressurePolicy {
	return h.policy
}
