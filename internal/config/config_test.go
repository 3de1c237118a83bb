package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timf34/FOVWiFiStreamingApp/internal/domain"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.AppEnv)
	assert.Equal(t, "0.0.0.0", cfg.Host)
	assert.Equal(t, "5000", cfg.SSEPort)
	assert.Equal(t, "8765", cfg.WSPort)
	assert.Equal(t, 200*time.Millisecond, cfg.Interval)
	assert.Equal(t, "coalesce", cfg.BackpressurePolicy)
	assert.Equal(t, 16, cfg.SubscriberBuffer)
	assert.Equal(t, 400*time.Millisecond, cfg.WriteTimeout)
	assert.Equal(t, "sim", cfg.Source)
	assert.Equal(t, "telemetry.samples", cfg.NATSSubject)
	assert.Equal(t, 10000, cfg.MaxSubscribers)
	assert.Equal(t, 32, cfg.MaxConnsPerIP)
	assert.Equal(t, 10, cfg.ConnectsPerIPPS)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("INTERVAL", "50ms")
	t.Setenv("BACKPRESSURE_POLICY", "drop")
	t.Setenv("SUBSCRIBER_BUFFER", "4")
	t.Setenv("SSE_PORT", "9000")
	t.Setenv("WS_PORT", "9001")
	t.Setenv("SOURCE", "nats")
	t.Setenv("NATS_URL", "nats://localhost:4222")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 50*time.Millisecond, cfg.Interval)
	assert.Equal(t, domain.PolicyDrop, cfg.Policy())
	assert.Equal(t, 4, cfg.SubscriberBuffer)
	assert.Equal(t, "nats", cfg.Source)
	assert.Equal(t, "nats://localhost:4222", cfg.NATSURL)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   string
		wantErr string
	}{
		{"zero interval", "INTERVAL", "0s", "INTERVAL must be positive"},
		{"negative interval", "INTERVAL", "-200ms", "INTERVAL must be positive"},
		{"unknown policy", "BACKPRESSURE_POLICY", "block", "BACKPRESSURE_POLICY must be"},
		{"zero buffer", "SUBSCRIBER_BUFFER", "0", "SUBSCRIBER_BUFFER must be at least 1"},
		{"unknown source", "SOURCE", "kafka", "SOURCE must be"},
		{"zero write timeout", "WRITE_TIMEOUT", "0s", "WRITE_TIMEOUT must be positive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_NATSRequiresURL(t *testing.T) {
	t.Setenv("SOURCE", "nats")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NATS_URL is required")
}

func TestConfig_Addrs(t *testing.T) {
	cfg := &Config{Host: "127.0.0.1", SSEPort: "5000", WSPort: "8765"}

	assert.Equal(t, "127.0.0.1:5000", cfg.SSEAddr())
	assert.Equal(t, "127.0.0.1:8765", cfg.WSAddr())
}
