package source

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/nats-io/nats.go"

	"github.com/timf34/FOVWiFiStreamingApp/internal/domain"
	"github.com/timf34/FOVWiFiStreamingApp/internal/platform/retry"
)

const (
	natsConnectAttempts = 5
	natsReconnectWait   = 2 * time.Second
	msgBufferSize       = 64
)

// NATS consumes {"x","y","t"} JSON payloads from a subject. When more than
// one message is queued between ticks, Next returns the most recent one;
// intermediate positions are already stale.
type NATS struct {
	conn    *nats.Conn
	sub     *nats.Subscription
	msgs    chan *nats.Msg
	clock   clockwork.Clock
	maxWait time.Duration
}

// ConnectNATS dials the server with exponential backoff and subscribes to
// the subject. maxWait bounds how long Next blocks waiting for a message.
func ConnectNATS(ctx context.Context, url, subject string, maxWait time.Duration, clock clockwork.Clock) (*NATS, error) {
	policy := retry.Policy{
		MaxAttempts:    natsConnectAttempts,
		InitialBackoff: 500 * time.Millisecond,
		MaxBackoff:     5 * time.Second,
		OnRetry: func(attempt int, err error, backoff time.Duration) {
			slog.Warn("NATS connect failed, retrying", "attempt", attempt, "backoff", backoff, "error", err)
		},
	}

	conn, err := retry.Do(ctx, policy, func(error) retry.Action { return retry.Retry }, func() (*nats.Conn, error) {
		return nats.Connect(url,
			nats.Name("fovstream"),
			nats.MaxReconnects(-1),
			nats.ReconnectWait(natsReconnectWait),
		)
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS at %s: %w", url, err)
	}

	msgs := make(chan *nats.Msg, msgBufferSize)
	sub, err := conn.ChanSubscribe(subject, msgs)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("subscribing to %q: %w", subject, err)
	}

	slog.Info("NATS source connected", "url", conn.ConnectedUrl(), "subject", subject)

	return &NATS{
		conn:    conn,
		sub:     sub,
		msgs:    msgs,
		clock:   clock,
		maxWait: maxWait,
	}, nil
}

// Next returns the newest queued sample, waiting up to maxWait for one to
// arrive. Returns domain.ErrNoSample if nothing showed up in time and
// domain.ErrMalformedSample (wrapped) for undecodable payloads.
func (n *NATS) Next(ctx context.Context) (domain.Sample, error) {
	var msg *nats.Msg

	select {
	case msg = <-n.msgs:
	case <-n.clock.After(n.maxWait):
		return domain.Sample{}, domain.ErrNoSample
	case <-ctx.Done():
		return domain.Sample{}, ctx.Err()
	}

	// Drain any backlog; only the latest position matters.
	for {
		select {
		case newer := <-n.msgs:
			msg = newer
		default:
			return decodeSample(msg.Data)
		}
	}
}

// Close unsubscribes and drains the connection.
func (n *NATS) Close() {
	_ = n.sub.Unsubscribe()
	if err := n.conn.Drain(); err != nil {
		n.conn.Close()
	}
}

func decodeSample(data []byte) (domain.Sample, error) {
	var s domain.Sample
	if err := json.Unmarshal(data, &s); err != nil {
		return domain.Sample{}, fmt.Errorf("%w: %v", domain.ErrMalformedSample, err)
	}
	return s, nil
}
