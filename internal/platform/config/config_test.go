package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsAndEnv(t *testing.T) {
	t.Setenv("LOYALTY_GATEWAY_CONFIG", "")
	t.Setenv("BACKEND_BASE_URL", "http://backend.local")
	t.Setenv("LOYALTY_GATEWAY_ADDR", ":9090")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, "http://backend.local", cfg.Backend.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.Backend.Timeout.Std())
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "loyalty.audit", cfg.Kafka.Topic)
}

func TestLoadYAMLFileWithEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
addr: ":7000"
backend:
  base_url: "http://file-backend:3000"
  timeout: 3s
redis:
  url: "redis://localhost:6379/0"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv("LOYALTY_GATEWAY_CONFIG", path)
	t.Setenv("BACKEND_BASE_URL", "http://env-backend:3000")
	t.Setenv("LOYALTY_GATEWAY_ADDR", "")
	t.Setenv("KAFKA_BROKERS", "")

	cfg, err := Load()
	require.NoError(t, err)

	// Env wins over file; file wins over defaults.
	assert.Equal(t, "http://env-backend:3000", cfg.Backend.BaseURL)
	assert.Equal(t, ":7000", cfg.Addr)
	assert.Equal(t, 3*time.Second, cfg.Backend.Timeout.Std())
	assert.Equal(t, "redis://localhost:6379/0", cfg.Redis.URL)
}

func TestLoadRequiresBackendURL(t *testing.T) {
	t.Setenv("LOYALTY_GATEWAY_CONFIG", "")
	t.Setenv("BACKEND_BASE_URL", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BACKEND_BASE_URL")
}
