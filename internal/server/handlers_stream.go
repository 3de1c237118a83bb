package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	apperrors "github.com/timf34/FOVWiFiStreamingApp/internal/errors"
	"github.com/timf34/FOVWiFiStreamingApp/internal/metrics"
	"github.com/timf34/FOVWiFiStreamingApp/internal/platform/correlation"
	"github.com/timf34/FOVWiFiStreamingApp/internal/platform/logging"
	"github.com/timf34/FOVWiFiStreamingApp/internal/subscriber"
)

// admit applies the connection limits shared by both transports. The
// returned release function must be called when the connection ends.
func (s *Server) admit(c echo.Context) (func(), error) {
	ip := c.RealIP()

	if !s.rateLimiter.Allow(ip) {
		metrics.ConnectionsRejectedTotal.WithLabelValues("rate_limited").Inc()
		return nil, apperrors.RateLimitedError("too many connection attempts")
	}
	if !s.ipLimiter.Acquire(ip) {
		metrics.ConnectionsRejectedTotal.WithLabelValues("capacity").Inc()
		return nil, apperrors.CapacityError("per-IP connection limit reached")
	}
	if !s.limiter.Acquire() {
		s.ipLimiter.Release(ip)
		metrics.ConnectionsRejectedTotal.WithLabelValues("capacity").Inc()
		return nil, apperrors.CapacityError("server at capacity")
	}

	return func() {
		s.limiter.Release()
		s.ipLimiter.Release(ip)
	}, nil
}

func (s *Server) handleStream(c echo.Context) error {
	release, err := s.admit(c)
	if err != nil {
		return err
	}
	defer release()

	h := c.Response().Header()
	h.Set(echo.HeaderContentType, "text/event-stream; charset=utf-8")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set(echo.HeaderAccessControlAllowOrigin, "*")

	ch, err := subscriber.NewSSE(c.Response(), s.config.Policy(), s.config.SubscriberBuffer, s.config.WriteTimeout, s.clock)
	if err != nil {
		return apperrors.InternalError("response writer does not support streaming", err)
	}

	if err := s.hub.Register(ch); err != nil {
		metrics.ConnectionsRejectedTotal.WithLabelValues("capacity").Inc()
		return apperrors.CapacityError("subscriber limit reached")
	}

	c.Response().WriteHeader(http.StatusOK)
	c.Response().Flush()

	ctx := correlation.WithID(c.Request().Context(), correlation.NewID())
	logger := logging.WithSubscriber(ch.ID().String(), "sse")
	logger.InfoContext(ctx, "SSE subscriber connected", "remote", c.RealIP())

	// Blocks until the client disconnects or the hub closes the channel.
	ch.Run(ctx)
	s.hub.Unregister(ch.ID())

	logger.InfoContext(ctx, "SSE subscriber disconnected")
	return nil
}
