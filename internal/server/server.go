package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/timf34/FOVWiFiStreamingApp/internal/config"
	"github.com/timf34/FOVWiFiStreamingApp/internal/domain"
	apperrors "github.com/timf34/FOVWiFiStreamingApp/internal/errors"
)

// Hub is the consumer-side contract the handlers need from the broadcast hub.
type Hub interface {
	Register(domain.Subscriber) error
	Unregister(uuid.UUID)
	Len() int
}

type Server struct {
	sse         *echo.Echo
	ws          *echo.Echo
	config      *config.Config
	hub         Hub
	clock       clockwork.Clock
	limiter     *GlobalConnectionLimiter
	ipLimiter   *IPConnectionLimiter
	rateLimiter *ConnectionRateLimiter
	startTime   time.Time
}

func NewServer(cfg *config.Config, hub Hub, clock clockwork.Clock) *Server {
	srv := &Server{
		sse:         newEcho(),
		ws:          newEcho(),
		config:      cfg,
		hub:         hub,
		clock:       clock,
		limiter:     NewGlobalConnectionLimiter(int64(cfg.MaxSubscribers)),
		ipLimiter:   NewIPConnectionLimiter(cfg.MaxConnsPerIP),
		rateLimiter: NewConnectionRateLimiter(float64(cfg.ConnectsPerIPPS), cfg.ConnectsPerIPPS),
		startTime:   clock.Now(),
	}

	srv.registerRoutes()

	return srv
}

func newEcho() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(apperrors.Middleware())
	return e
}

// Start runs both listeners and blocks until they shut down. A bind failure
// on either returns a fatal BindError.
func (s *Server) Start() error {
	errCh := make(chan error, 2)
	go func() { errCh <- listen(s.sse, s.config.SSEAddr()) }()
	go func() { errCh <- listen(s.ws, s.config.WSAddr()) }()

	for range 2 {
		if err := <-errCh; err != nil {
			return err
		}
	}
	return nil
}

func listen(e *echo.Echo, addr string) error {
	if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return apperrors.BindError(addr, err)
	}
	return nil
}

// Shutdown stops both listeners gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	sseErr := s.sse.Shutdown(ctx)
	wsErr := s.ws.Shutdown(ctx)
	return errors.Join(sseErr, wsErr)
}
