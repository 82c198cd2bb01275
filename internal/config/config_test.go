package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "")
	t.Setenv("DAILY_LIMIT_KG", "")

	cfg := Load()
	assert.Equal(t, ":8080", cfg.HTTPAddress)
	assert.Equal(t, StoreBackendPostgres, cfg.StoreBackend)
	assert.Equal(t, []string{"kafka:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, []string{"emission_records", "emission_alerts"}, cfg.ConsumerTopics)
	assert.Equal(t, 70.0, cfg.DailyLimitKg)
	assert.Equal(t, 2*time.Second, cfg.OutboxPollInterval)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", " a:1 , ,b:2")
	t.Setenv("OUTBOX_BATCH_SIZE", "7")
	t.Setenv("DLQ_BASE_DELAY", "5s")
	t.Setenv("DAILY_LIMIT_KG", "42.5")
	t.Setenv("STORE_BACKEND", "MEMORY")
	t.Setenv("OUTBOX_POLL_INTERVAL", "not-a-duration")

	cfg := Load()
	assert.Equal(t, []string{"a:1", "b:2"}, cfg.KafkaBrokers)
	assert.Equal(t, 7, cfg.OutboxBatchSize)
	assert.Equal(t, 5*time.Second, cfg.DLQBaseDelay)
	assert.Equal(t, 42.5, cfg.DailyLimitKg)
	assert.Equal(t, StoreBackendMemory, cfg.StoreBackend)
	assert.Equal(t, 2*time.Second, cfg.OutboxPollInterval)
}

func TestLoadFactorTable(t *testing.T) {
	t.Run("empty path uses defaults", func(t *testing.T) {
		table, err := LoadFactorTable("")
		require.NoError(t, err)
		assert.Equal(t, 7, table.Len())
	})

	t.Run("yaml file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "factors.yaml")
		body := "factors:\n  - activity: electricity\n    kg_per_unit: 0.5\n  - activity: flights\n    kg_per_unit: 90\n"
		require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

		table, err := LoadFactorTable(path)
		require.NoError(t, err)
		assert.Equal(t, []string{"electricity", "flights"}, table.Activities())
		f, ok := table.Lookup("flights")
		require.True(t, ok)
		assert.Equal(t, 90.0, f)
	})

	t.Run("invalid factor", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "factors.yaml")
		require.NoError(t, os.WriteFile(path, []byte("factors:\n  - activity: paper\n    kg_per_unit: -1\n"), 0o600))

		_, err := LoadFactorTable(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "positive")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadFactorTable(filepath.Join(t.TempDir(), "nope.yaml"))
		require.Error(t, err)
	})
}
