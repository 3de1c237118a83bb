package server

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) registerRoutes() {
	// SSE listener: stream plus observability endpoints.
	s.sse.GET("/stream", s.handleStream)
	s.sse.GET("/health/live", s.handleLiveness)
	s.sse.GET("/health/ready", s.handleReadiness)
	s.sse.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// WebSocket listener: upgrade at the root, matching the producer fixtures
	// this server replaces.
	s.ws.GET("/", s.handleWebSocket)
}
