package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, StoreMemory, cfg.StoreBackend)
	assert.Equal(t, BrokerNone, cfg.Broker)
	assert.Equal(t, []time.Duration{time.Second, 5 * time.Second, 30 * time.Second}, cfg.RetryBackoff)
	assert.Equal(t, 168*time.Hour, cfg.IdempotencyTTL)
	assert.InDelta(t, 0.14, cfg.ServiceFeeRate, 1e-12)
	assert.InDelta(t, 0.18, cfg.TaxRate, 1e-12)
	assert.Equal(t, 10, cfg.DefaultPageSize)
	assert.True(t, cfg.SchedulerEnabled)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "prod")
	t.Setenv("STORE_BACKEND", "Mongo")
	t.Setenv("MONGO_URI", "mongodb://localhost:27017")
	t.Setenv("BROKER", "kafka")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("RETRY_BACKOFF", "2s,,10s")
	t.Setenv("SERVICE_FEE_RATE", "0.1")
	t.Setenv("DEFAULT_PAGE_SIZE", "25")
	t.Setenv("SCHEDULER_ENABLED", "off")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, StoreMongo, cfg.StoreBackend)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, []time.Duration{2 * time.Second, 10 * time.Second}, cfg.RetryBackoff)
	assert.InDelta(t, 0.1, cfg.ServiceFeeRate, 1e-12)
	assert.Equal(t, 25, cfg.DefaultPageSize)
	assert.False(t, cfg.SchedulerEnabled)
}

func TestFromEnvRejectsInvalidValues(t *testing.T) {
	cases := map[string]map[string]string{
		"bad duration":      {"IDEMP_TTL": "forever"},
		"bad backoff":       {"RETRY_BACKOFF": "1s,soon"},
		"bad float":         {"TAX_RATE": "eighteen"},
		"rate above one":    {"TAX_RATE": "18"},
		"bad int":           {"DEFAULT_PAGE_SIZE": "ten"},
		"zero page size":    {"DEFAULT_PAGE_SIZE": "0"},
		"bad bool":          {"SCHEDULER_ENABLED": "maybe"},
		"mongo without uri": {"STORE_BACKEND": "mongo"},
		"kafka no brokers":  {"BROKER": "kafka"},
		"rabbit no url":     {"BROKER": "rabbitmq"},
		"unknown store":     {"STORE_BACKEND": "redis"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := FromEnv()
			assert.Error(t, err)
		})
	}
}

func TestLoadReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("HTTP_ADDR=:9191\nTAX_RATE=0.05\n"), 0o600))
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	t.Setenv("TAX_RATE", "0.12")
	// Registered through t.Setenv so the value godotenv writes is restored.
	t.Setenv("HTTP_ADDR", "")
	require.NoError(t, os.Unsetenv("HTTP_ADDR"))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":9191", cfg.HTTPAddr)
	assert.InDelta(t, 0.12, cfg.TaxRate, 1e-12, "environment wins over .env")
}
