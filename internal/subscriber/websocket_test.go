package subscriber

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	ws "github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timf34/FOVWiFiStreamingApp/internal/domain"
)

const testWriteTimeout = 400 * time.Millisecond

// dialWebSocketChannel spins up a test server that wraps the accepted
// connection in a WebSocketChannel and hands both ends back.
func dialWebSocketChannel(t *testing.T, policy domain.BackpressurePolicy, bufferSize int) (*WebSocketChannel, *ws.Conn) {
	t.Helper()

	upgrader := ws.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	chCh := make(chan *WebSocketChannel, 1)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		chCh <- NewWebSocket(conn, policy, bufferSize, testWriteTimeout, clockwork.NewRealClock())
	}))
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	client, _, err := ws.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	channel := <-chCh
	t.Cleanup(func() { channel.Close("test cleanup") })

	return channel, client
}

func TestWebSocketChannel_DeliverSendsJSONTextFrame(t *testing.T) {
	channel, client := dialWebSocketChannel(t, domain.PolicyCoalesce, 1)

	sample := domain.Sample{X: 12.34, Y: 56.78, T: 1700000000.5}
	require.Equal(t, domain.Accepted, channel.Deliver(sample))

	client.SetReadDeadline(time.Now().Add(time.Second))
	msgType, msg, err := client.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, ws.TextMessage, msgType)

	var got domain.Sample
	require.NoError(t, json.Unmarshal(msg, &got))
	assert.Equal(t, sample, got)
}

func TestWebSocketChannel_DeliversInOrder(t *testing.T) {
	channel, client := dialWebSocketChannel(t, domain.PolicyDrop, 16)

	samples := []domain.Sample{
		{X: 1.0, Y: 2.0, T: 100.0},
		{X: 3.0, Y: 4.0, T: 100.2},
	}
	for _, s := range samples {
		require.Equal(t, domain.Accepted, channel.Deliver(s))
	}

	for _, want := range samples {
		client.SetReadDeadline(time.Now().Add(time.Second))
		_, msg, err := client.ReadMessage()
		require.NoError(t, err)

		var got domain.Sample
		require.NoError(t, json.Unmarshal(msg, &got))
		assert.Equal(t, want, got)
	}
}

func TestWebSocketChannel_CloseSendsCloseFrame(t *testing.T) {
	channel, client := dialWebSocketChannel(t, domain.PolicyCoalesce, 1)

	channel.Close("server shutting down")

	client.SetReadDeadline(time.Now().Add(time.Second))
	_, _, err := client.ReadMessage()
	var closeErr *ws.CloseError
	require.ErrorAs(t, err, &closeErr)
	assert.Equal(t, ws.CloseNormalClosure, closeErr.Code)
	assert.Equal(t, "server shutting down", closeErr.Text)
}

func TestWebSocketChannel_DeliverAfterCloseReportsClosed(t *testing.T) {
	channel, _ := dialWebSocketChannel(t, domain.PolicyCoalesce, 1)

	channel.Close("gone")
	assert.Equal(t, domain.Closed, channel.Deliver(domain.Sample{X: 1, Y: 2, T: 3}))
}

func TestWebSocketChannel_CloseIsIdempotent(t *testing.T) {
	channel, _ := dialWebSocketChannel(t, domain.PolicyCoalesce, 1)

	channel.Close("first")
	channel.Close("second")
}

func TestWebSocketChannel_ReportsClosedAfterPeerDisconnect(t *testing.T) {
	channel, client := dialWebSocketChannel(t, domain.PolicyCoalesce, 1)

	client.Close()

	// Writes start failing once the peer is gone; the channel flags itself
	// closed so the hub can evict it.
	require.Eventually(t, func() bool {
		channel.Deliver(domain.Sample{X: 1, Y: 1, T: 1})
		return channel.Deliver(domain.Sample{X: 1, Y: 1, T: 1}) == domain.Closed
	}, 5*time.Second, 50*time.Millisecond)
}
