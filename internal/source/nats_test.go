package source

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timf34/FOVWiFiStreamingApp/internal/domain"
)

// newTestNATS builds a source around a raw message channel so Next can be
// tested without a running server. conn and sub stay nil; Next never
// touches them.
func newTestNATS(clock clockwork.Clock, maxWait time.Duration) *NATS {
	return &NATS{
		msgs:    make(chan *nats.Msg, msgBufferSize),
		clock:   clock,
		maxWait: maxWait,
	}
}

func TestNATS_NextReturnsQueuedSample(t *testing.T) {
	src := newTestNATS(clockwork.NewFakeClock(), 100*time.Millisecond)
	src.msgs <- &nats.Msg{Data: []byte(`{"x":1.0,"y":2.0,"t":100.0}`)}

	sample, err := src.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.Sample{X: 1.0, Y: 2.0, T: 100.0}, sample)
}

func TestNATS_NextDrainsBacklogKeepingNewest(t *testing.T) {
	src := newTestNATS(clockwork.NewFakeClock(), 100*time.Millisecond)
	src.msgs <- &nats.Msg{Data: []byte(`{"x":1.0,"y":1.0,"t":100.0}`)}
	src.msgs <- &nats.Msg{Data: []byte(`{"x":2.0,"y":2.0,"t":100.2}`)}
	src.msgs <- &nats.Msg{Data: []byte(`{"x":3.0,"y":3.0,"t":100.4}`)}

	sample, err := src.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.Sample{X: 3.0, Y: 3.0, T: 100.4}, sample)
	assert.Empty(t, src.msgs)
}

func TestNATS_NextTimesOutWithNoSample(t *testing.T) {
	clock := clockwork.NewFakeClock()
	src := newTestNATS(clock, 100*time.Millisecond)

	type result struct {
		sample domain.Sample
		err    error
	}
	resCh := make(chan result, 1)
	go func() {
		sample, err := src.Next(context.Background())
		resCh <- result{sample, err}
	}()

	clock.BlockUntilContext(context.Background(), 1) //nolint:errcheck // Wait for Next to be blocked on the timeout
	clock.Advance(100 * time.Millisecond)

	select {
	case res := <-resCh:
		assert.ErrorIs(t, res.err, domain.ErrNoSample)
	case <-time.After(time.Second):
		t.Fatal("Next did not return after the wait elapsed")
	}
}

func TestNATS_NextHonoursContextCancellation(t *testing.T) {
	src := newTestNATS(clockwork.NewFakeClock(), time.Hour)
	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error, 1)
	go func() {
		_, err := src.Next(ctx)
		errCh <- err
	}()

	cancel()

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Next did not return after context cancellation")
	}
}

func TestNATS_NextRejectsMalformedPayload(t *testing.T) {
	src := newTestNATS(clockwork.NewFakeClock(), 100*time.Millisecond)
	src.msgs <- &nats.Msg{Data: []byte(`{"x": "not a number"}`)}

	_, err := src.Next(context.Background())
	assert.ErrorIs(t, err, domain.ErrMalformedSample)
}

func TestDecodeSample(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    domain.Sample
		wantErr bool
	}{
		{
			name:    "valid sample",
			payload: `{"x":48.5,"y":12.25,"t":1714000000.2}`,
			want:    domain.Sample{X: 48.5, Y: 12.25, T: 1714000000.2},
		},
		{
			name:    "missing fields default to zero",
			payload: `{"x":1.0}`,
			want:    domain.Sample{X: 1.0},
		},
		{
			name:    "not JSON",
			payload: `1.0,2.0,100.0`,
			wantErr: true,
		},
		{
			name:    "wrong field type",
			payload: `{"x":true,"y":2.0,"t":100.0}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeSample([]byte(tt.payload))
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrMalformedSample)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

var _ domain.Source = (*NATS)(nil)
