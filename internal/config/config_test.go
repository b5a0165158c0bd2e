package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWithoutPath(t *testing.T) {
	t.Setenv("TEEMAP_CONFIG", "")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, int64(32<<20), cfg.Loader.GetBlockCacheBytes())
}

func TestLoad_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "teemap.yaml")
	yamlData := `
loader:
  block_cache_mb: 8
  strict_quad_count: true
metrics:
  addr: ":9100"
storage:
  path: /var/lib/teemap
logging:
  level: debug
api:
  addr: ":9000"
  max_upload_mb: 4
tracing:
  enabled: true
  endpoint: "collector:4318"
events:
  nats_url: nats://127.0.0.1:4222
  stream: MAPS
  retention_hours: 2
`
	require.NoError(t, os.WriteFile(path, []byte(yamlData), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Loader.BlockCacheMB)
	assert.True(t, cfg.Loader.StrictQuadCount)
	assert.Equal(t, ":9100", cfg.Metrics.GetMetricsAddr())
	assert.Equal(t, "/var/lib/teemap", cfg.Storage.GetPath())
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "", cfg.Logging.Dir)
	assert.Equal(t, ":9000", cfg.API.GetAddr())
	assert.Equal(t, int64(4<<20), cfg.API.GetMaxUploadBytes())
	assert.True(t, cfg.Tracing.Enabled)
	assert.Equal(t, "collector:4318", cfg.Tracing.GetEndpoint())
	assert.Equal(t, "nats://127.0.0.1:4222", cfg.Events.GetNatsURL())
	assert.Equal(t, "MAPS", cfg.Events.Stream)
	assert.Equal(t, 2*time.Hour, cfg.Events.GetRetention())
}

func TestAPIDefaults(t *testing.T) {
	t.Setenv("TEEMAP_API_ADDR", "")
	t.Setenv("TEEMAP_API_MAX_UPLOAD_MB", "")
	t.Setenv("TEEMAP_OTLP_ENDPOINT", "")

	cfg := Default()
	assert.Equal(t, ":8088", cfg.API.GetAddr())
	assert.Equal(t, int64(32<<20), cfg.API.GetMaxUploadBytes())
	assert.Equal(t, "", cfg.Tracing.GetEndpoint())

	t.Setenv("TEEMAP_NATS_URL", "")
	t.Setenv("TEEMAP_EVENTS_RETENTION_HOURS", "")
	assert.Equal(t, "", cfg.Events.GetNatsURL())
	assert.Equal(t, 24*time.Hour, cfg.Events.GetRetention())
}

func TestLoad_PathFromEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "env.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: warn\n"), 0644))
	t.Setenv("TEEMAP_CONFIG", path)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, 32, cfg.Loader.BlockCacheMB)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("loader: [1, 2"), 0644))
	_, err = Load(path)
	assert.Error(t, err)
}

func TestEnvFallback(t *testing.T) {
	t.Setenv("TEEMAP_METRICS_ADDR", ":2112")
	t.Setenv("TEEMAP_STORAGE_PATH", "/tmp/teemap")
	t.Setenv("TEEMAP_BLOCK_CACHE_MB", "4")

	var cfg Config
	assert.Equal(t, ":2112", cfg.Metrics.GetMetricsAddr())
	assert.Equal(t, "/tmp/teemap", cfg.Storage.GetPath())
	assert.Equal(t, int64(4<<20), cfg.Loader.GetBlockCacheBytes())

	cfg.Metrics.Addr = ":8080"
	assert.Equal(t, ":8080", cfg.Metrics.GetMetricsAddr())
}

func TestBlockCacheDisabled(t *testing.T) {
	t.Setenv("TEEMAP_BLOCK_CACHE_MB", "")
	l := LoaderConfig{BlockCacheMB: -1}
	assert.Equal(t, int64(0), l.GetBlockCacheBytes())

	t.Setenv("TEEMAP_BLOCK_CACHE_MB", "0")
	l = LoaderConfig{}
	assert.Equal(t, int64(0), l.GetBlockCacheBytes())
}

func TestStorageBackend(t *testing.T) {
	for _, k := range []string{"TEEMAP_STORAGE_BACKEND", "TEEMAP_STORAGE_PATH", "TEEMAP_MYSQL_DSN", "TEEMAP_REDIS_ADDR", "TEEMAP_REDIS_TTL_MINUTES"} {
		t.Setenv(k, "")
	}
	var s StorageConfig
	assert.Equal(t, "badger", s.GetBackend())
	assert.False(t, s.Configured())
	assert.Equal(t, time.Hour, s.GetRedisTTL())

	s.Backend = "mysql"
	assert.False(t, s.Configured())
	t.Setenv("TEEMAP_MYSQL_DSN", "user:pass@tcp(localhost:3306)/teemap")
	assert.True(t, s.Configured())

	s.Backend = "memory"
	assert.True(t, s.Configured())

	t.Setenv("TEEMAP_REDIS_TTL_MINUTES", "5")
	assert.Equal(t, 5*time.Minute, s.GetRedisTTL())
}
