package server

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	apperrors "github.com/timf34/FOVWiFiStreamingApp/internal/errors"
	"github.com/timf34/FOVWiFiStreamingApp/internal/metrics"
	"github.com/timf34/FOVWiFiStreamingApp/internal/platform/correlation"
	"github.com/timf34/FOVWiFiStreamingApp/internal/platform/logging"
	"github.com/timf34/FOVWiFiStreamingApp/internal/subscriber"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // viewers connect from arbitrary origins
	},
}

func (s *Server) handleWebSocket(c echo.Context) error {
	release, err := s.admit(c)
	if err != nil {
		return err
	}
	defer release()

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// Upgrader already wrote the HTTP error response.
		metrics.ConnectionsRejectedTotal.WithLabelValues("upgrade").Inc()
		return apperrors.UpgradeError("websocket handshake failed", err)
	}

	ch := subscriber.NewWebSocket(conn, s.config.Policy(), s.config.SubscriberBuffer, s.config.WriteTimeout, s.clock)

	if err := s.hub.Register(ch); err != nil {
		metrics.ConnectionsRejectedTotal.WithLabelValues("capacity").Inc()
		ch.Close("subscriber limit reached")
		return nil
	}

	ctx := correlation.WithID(c.Request().Context(), correlation.NewID())
	logger := logging.WithSubscriber(ch.ID().String(), "websocket")
	logger.InfoContext(ctx, "WebSocket subscriber connected", "remote", c.RealIP())

	// Read pump: the server never expects client messages, but reading is
	// how we notice a client-initiated close and keep pong handling alive.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	s.hub.Unregister(ch.ID())

	logger.InfoContext(ctx, "WebSocket subscriber disconnected")
	return nil
}
