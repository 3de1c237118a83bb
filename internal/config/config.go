// Package config loads server configuration from the environment.
package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/joho/godotenv"
	"go-simpler.org/env"

	"github.com/timf34/FOVWiFiStreamingApp/internal/domain"
)

type Config struct {
	AppEnv string `env:"APP_ENV" default:"development"`

	Host    string `env:"HOST" default:"0.0.0.0"`
	SSEPort string `env:"SSE_PORT" default:"5000"`
	WSPort  string `env:"WS_PORT" default:"8765"`

	// Interval is the cadence at which samples are produced and broadcast.
	Interval time.Duration `env:"INTERVAL" default:"200ms"`

	// BackpressurePolicy is "coalesce" (capacity-1 buffer, newest wins) or
	// "drop" (capacity-N buffer, overflow evicts the subscriber).
	BackpressurePolicy string `env:"BACKPRESSURE_POLICY" default:"coalesce"`

	// SubscriberBuffer is the outbound frame buffer size under the drop policy.
	SubscriberBuffer int `env:"SUBSCRIBER_BUFFER" default:"16"`

	// WriteTimeout bounds a single transport write. Recommended 1-2 cadence
	// periods; a write that exceeds it closes the subscriber.
	WriteTimeout time.Duration `env:"WRITE_TIMEOUT" default:"400ms"`

	// Source selects the sample producer: "sim" or "nats".
	Source      string `env:"SOURCE" default:"sim"`
	SimSeed     int64  `env:"SIM_SEED" default:"0"`
	NATSURL     string `env:"NATS_URL"`
	NATSSubject string `env:"NATS_SUBJECT" default:"telemetry.samples"`

	MaxSubscribers  int `env:"MAX_SUBSCRIBERS" default:"10000"`
	MaxConnsPerIP   int `env:"MAX_CONNS_PER_IP" default:"32"`
	ConnectsPerIPPS int `env:"CONNECTS_PER_IP_PER_SECOND" default:"10"`

	LogLevel  string `env:"LOG_LEVEL" default:"info"`
	LogFormat string `env:"LOG_FORMAT" default:"text"`
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func validate(cfg *Config) error {
	if cfg.Interval <= 0 {
		return fmt.Errorf("INTERVAL must be positive, got %s", cfg.Interval)
	}

	switch domain.BackpressurePolicy(cfg.BackpressurePolicy) {
	case domain.PolicyCoalesce, domain.PolicyDrop:
	default:
		return fmt.Errorf("BACKPRESSURE_POLICY must be %q or %q, got %q",
			domain.PolicyCoalesce, domain.PolicyDrop, cfg.BackpressurePolicy)
	}

	if cfg.SubscriberBuffer < 1 {
		return fmt.Errorf("SUBSCRIBER_BUFFER must be at least 1, got %d", cfg.SubscriberBuffer)
	}

	switch cfg.Source {
	case "sim":
	case "nats":
		if cfg.NATSURL == "" {
			return fmt.Errorf("NATS_URL is required when SOURCE=nats")
		}
	default:
		return fmt.Errorf("SOURCE must be \"sim\" or \"nats\", got %q", cfg.Source)
	}

	if cfg.WriteTimeout <= 0 {
		return fmt.Errorf("WRITE_TIMEOUT must be positive, got %s", cfg.WriteTimeout)
	}

	return nil
}

// Policy returns the validated backpressure policy.
func (c *Config) Policy() domain.BackpressurePolicy {
	return domain.BackpressurePolicy(c.BackpressurePolicy)
}

// SSEAddr returns the host:port the SSE listener binds to.
func (c *Config) SSEAddr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.SSEPort)
}

// WSAddr returns the host:port the WebSocket listener binds to.
func (c *Config) WSAddr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.WSPort)
}
