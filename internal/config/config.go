package config

import (
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config корневая структура конфигурации.
type Config struct {
	Loader  LoaderConfig  `yaml:"loader"`
	Metrics MetricsConfig `yaml:"metrics"`
	Storage StorageConfig `yaml:"storage"`
	Logging LoggingConfig `yaml:"logging"`
	API     APIConfig     `yaml:"api"`
	Tracing TracingConfig `yaml:"tracing"`
	Events  EventsConfig  `yaml:"events"`
}

type LoaderConfig struct {
	// BlockCacheMB - размер кеша распакованных блоков; отрицательное значение отключает кеш.
	BlockCacheMB int `yaml:"block_cache_mb"`
	// StrictQuadCount превращает расхождение заявленного и фактического
	// количества квадов из предупреждения в ошибку.
	StrictQuadCount bool `yaml:"strict_quad_count"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

type StorageConfig struct {
	// Backend: badger (по умолчанию), memory, mysql, mongo.
	Backend  string `yaml:"backend"`
	Path     string `yaml:"path"`
	MariaDSN string `yaml:"mysql_dsn"`
	MongoURI string `yaml:"mongo_uri"`
	MongoDB  string `yaml:"mongo_db"`
	// RedisAddr включает кеш сводок в Redis поверх бэкенда.
	RedisAddr       string `yaml:"redis_addr"`
	RedisTTLMinutes int    `yaml:"redis_ttl_minutes"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
	Dir   string `yaml:"dir"`
}

type APIConfig struct {
	Addr        string `yaml:"addr"`
	MaxUploadMB int    `yaml:"max_upload_mb"`
}

type TracingConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Endpoint string `yaml:"endpoint"` // host:port OTLP/HTTP, пусто - localhost:4318
}

// Default возвращает конфигурацию по умолчанию.
func Default() *Config {
	return &Config{
		Loader:  LoaderConfig{BlockCacheMB: 32},
		Logging: LoggingConfig{Level: "info"},
	}
}

// GetMetricsAddr возвращает адрес /metrics: config -> env -> "" (выключено)
func (m *MetricsConfig) GetMetricsAddr() string {
	return getStringWithEnvFallback(m.Addr, "TEEMAP_METRICS_ADDR", "")
}

// GetPath возвращает каталог хранилища: config -> env -> "" (выключено)
func (s *StorageConfig) GetPath() string {
	return getStringWithEnvFallback(s.Path, "TEEMAP_STORAGE_PATH", "")
}

// GetBackend возвращает бэкенд хранилища: config -> env -> "badger"
func (s *StorageConfig) GetBackend() string {
	return getStringWithEnvFallback(s.Backend, "TEEMAP_STORAGE_BACKEND", "badger")
}

// Configured сообщает, можно ли открыть хранилище с этими настройками.
func (s *StorageConfig) Configured() bool {
	switch s.GetBackend() {
	case "badger":
		return s.GetPath() != ""
	case "mysql":
		return s.GetMariaDSN() != ""
	default:
		return true
	}
}

// GetMariaDSN возвращает DSN MariaDB: config -> env -> ""
func (s *StorageConfig) GetMariaDSN() string {
	return getStringWithEnvFallback(s.MariaDSN, "TEEMAP_MYSQL_DSN", "")
}

// GetMongoURI возвращает адрес MongoDB: config -> env -> ""
func (s *StorageConfig) GetMongoURI() string {
	return getStringWithEnvFallback(s.MongoURI, "TEEMAP_MONGO_URI", "")
}

// GetRedisAddr возвращает адрес Redis: config -> env -> "" (кеш выключен)
func (s *StorageConfig) GetRedisAddr() string {
	return getStringWithEnvFallback(s.RedisAddr, "TEEMAP_REDIS_ADDR", "")
}

// GetRedisTTL возвращает время жизни записей кеша: config -> env -> 1h
func (s *StorageConfig) GetRedisTTL() time.Duration {
	return time.Duration(getIntWithEnvFallback(s.RedisTTLMinutes, "TEEMAP_REDIS_TTL_MINUTES", 60)) * time.Minute
}

type EventsConfig struct {
	NatsURL        string `yaml:"nats_url"`
	Stream         string `yaml:"stream"`
	RetentionHours int    `yaml:"retention_hours"`
}

// GetNatsURL возвращает адрес NATS: config -> env -> "" (in-memory шина)
func (e *EventsConfig) GetNatsURL() string {
	return getStringWithEnvFallback(e.NatsURL, "TEEMAP_NATS_URL", "")
}

// GetRetention возвращает срок хранения событий в JetStream: config -> env -> 24h
func (e *EventsConfig) GetRetention() time.Duration {
	return time.Duration(getIntWithEnvFallback(e.RetentionHours, "TEEMAP_EVENTS_RETENTION_HOURS", 24)) * time.Hour
}

// GetAddr возвращает адрес REST API: config -> env -> ":8088"
func (a *APIConfig) GetAddr() string {
	return getStringWithEnvFallback(a.Addr, "TEEMAP_API_ADDR", ":8088")
}

// GetMaxUploadBytes возвращает лимит размера загружаемой карты: config -> env -> 32MB
func (a *APIConfig) GetMaxUploadBytes() int64 {
	return int64(getIntWithEnvFallback(a.MaxUploadMB, "TEEMAP_API_MAX_UPLOAD_MB", 32)) << 20
}

// GetEndpoint возвращает адрес OTLP коллектора: config -> env -> "" (по умолчанию экспортера)
func (t *TracingConfig) GetEndpoint() string {
	return getStringWithEnvFallback(t.Endpoint, "TEEMAP_OTLP_ENDPOINT", "")
}

// GetBlockCacheBytes возвращает размер кеша блоков в байтах: config -> env -> 32MB.
// Ноль означает, что кеш выключен.
func (l *LoaderConfig) GetBlockCacheBytes() int64 {
	mb := getIntWithEnvFallback(l.BlockCacheMB, "TEEMAP_BLOCK_CACHE_MB", 32)
	if mb <= 0 {
		return 0
	}
	return int64(mb) << 20
}

func getStringWithEnvFallback(value, envVar, def string) string {
	if value != "" {
		return value
	}
	if envVal := os.Getenv(envVar); envVal != "" {
		return envVal
	}
	return def
}

// getIntWithEnvFallback возвращает значение с приоритетом: config -> env -> default
func getIntWithEnvFallback(value int, envVar string, def int) int {
	if value != 0 {
		return value
	}
	if envVal := os.Getenv(envVar); envVal != "" {
		if v, err := strconv.Atoi(envVal); err == nil {
			return v
		}
	}
	return def
}

// Load читает YAML файл конфигурации поверх значений по умолчанию.
// Если path == "", пытается прочитать из ENV TEEMAP_CONFIG или возвращает Default().
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		path = os.Getenv("TEEMAP_CONFIG")
		if path == "" {
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
