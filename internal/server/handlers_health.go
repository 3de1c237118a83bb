package server

import (
	"github.com/labstack/echo/v4"

	"github.com/timf34/FOVWiFiStreamingApp/internal/platform/version"
)

func (s *Server) handleLiveness(c echo.Context) error {
	return c.JSON(200, map[string]any{
		"status":  "ok",
		"uptime":  s.clock.Since(s.startTime).Seconds(),
		"version": version.Get(),
	})
}

func (s *Server) handleReadiness(c echo.Context) error {
	// Len round-trips through the hub actor, so a response proves the hub
	// goroutine is alive and draining commands.
	n := s.hub.Len()
	if n < 0 {
		return c.JSON(503, map[string]any{
			"status": "unhealthy",
			"error":  "hub unresponsive",
		})
	}

	return c.JSON(200, map[string]any{
		"status":      "ready",
		"subscribers": n,
	})
}
