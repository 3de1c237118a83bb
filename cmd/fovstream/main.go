package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/timf34/FOVWiFiStreamingApp/internal/cadence"
	"github.com/timf34/FOVWiFiStreamingApp/internal/config"
	"github.com/timf34/FOVWiFiStreamingApp/internal/domain"
	"github.com/timf34/FOVWiFiStreamingApp/internal/hub"
	"github.com/timf34/FOVWiFiStreamingApp/internal/platform/logging"
	"github.com/timf34/FOVWiFiStreamingApp/internal/platform/version"
	"github.com/timf34/FOVWiFiStreamingApp/internal/server"
	"github.com/timf34/FOVWiFiStreamingApp/internal/source"
)

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func setupSource(ctx context.Context, cfg *config.Config, clock clockwork.Clock) (domain.Source, func()) {
	switch cfg.Source {
	case "nats":
		src, err := source.ConnectNATS(ctx, cfg.NATSURL, cfg.NATSSubject, cfg.Interval/2, clock)
		if err != nil {
			slog.Error("Failed to connect sample source", "error", err)
			os.Exit(1)
		}
		return src, src.Close
	default:
		return source.NewSim(cfg.SimSeed, clock), func() {}
	}
}

func runGracefulShutdown(srv *server.Server, h *hub.Hub, stopDriver context.CancelFunc, closeSource func()) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		// Stop producing first, then close every subscriber so the blocked
		// stream handlers return, then let the listeners drain.
		stopDriver()
		h.Stop()
		closeSource()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logging.WithError(err).Error("Server shutdown error")
		}

		close(done)
	}()

	return done
}

func main() {
	cfg := setupConfig()
	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)

	info := version.Get()
	slog.Info("Starting fovstream",
		"version", info.Version,
		"commit", info.Commit,
		"sse_addr", cfg.SSEAddr(),
		"ws_addr", cfg.WSAddr(),
		"interval", cfg.Interval,
		"policy", cfg.BackpressurePolicy,
		"source", cfg.Source,
	)

	clock := clockwork.NewRealClock()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	src, closeSource := setupSource(ctx, cfg, clock)

	h := hub.New(cfg.Policy(), cfg.MaxSubscribers, clock)

	driver := cadence.NewDriver(src, h, cfg.Interval, clock)
	go driver.Run(ctx)

	srv := server.NewServer(cfg, h, clock)
	done := runGracefulShutdown(srv, h, cancel, closeSource)

	if err := srv.Start(); err != nil {
		logging.WithError(err).Error("Server failed")
		os.Exit(1)
	}

	<-done
	slog.Info("Shutdown complete")
}
