package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/annel0/teemap/internal/logging"
	"github.com/annel0/teemap/internal/teemap"
	"github.com/go-redis/redis/v8"
)

// RedisConfig содержит настройки подключения к Redis
type RedisConfig struct {
	Addr      string        // Адрес Redis сервера
	Password  string        // Пароль (пустой если не требуется)
	DB        int           // Номер базы данных
	KeyPrefix string        // Префикс для ключей
	TTL       time.Duration // Время жизни записей
}

// DefaultRedisConfig возвращает конфигурацию по умолчанию
func DefaultRedisConfig() *RedisConfig {
	return &RedisConfig{
		Addr:      "localhost:6379",
		KeyPrefix: "teemap:summary:",
		TTL:       time.Hour,
	}
}

// RedisSummaryCache кеширует сводки в Redis поверх основного репозитория.
// Запись идёт в оба хранилища, чтение сначала из Redis. List всегда
// обращается к основному репозиторию.
type RedisSummaryCache struct {
	client    *redis.Client
	backend   SummaryRepo
	keyPrefix string
	ttl       time.Duration
	timeout   time.Duration
	hits      atomic.Int64
	misses    atomic.Int64
}

// NewRedisSummaryCache подключается к Redis и оборачивает backend.
func NewRedisSummaryCache(config *RedisConfig, backend SummaryRepo) (*RedisSummaryCache, error) {
	if config == nil {
		config = DefaultRedisConfig()
	}

	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logging.GetStorageLogger().Info("🔴 Connected to Redis at %s", config.Addr)
	return &RedisSummaryCache{
		client:    client,
		backend:   backend,
		keyPrefix: config.KeyPrefix,
		ttl:       config.TTL,
		timeout:   2 * time.Second,
	}, nil
}

func (c *RedisSummaryCache) key(checksum uint64) string {
	return c.keyPrefix + checksumKey(checksum)
}

// Save пишет в основной репозиторий, затем обновляет кеш.
func (c *RedisSummaryCache) Save(s teemap.Summary) error {
	if err := c.backend.Save(s); err != nil {
		return err
	}
	c.put(s)
	return nil
}

// Load читает из Redis, при промахе - из основного репозитория с заполнением кеша.
func (c *RedisSummaryCache) Load(checksum uint64) (*teemap.Summary, error) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	data, err := c.client.Get(ctx, c.key(checksum)).Bytes()
	switch {
	case err == nil:
		var s teemap.Summary
		if err := json.Unmarshal(data, &s); err == nil {
			c.hits.Add(1)
			return &s, nil
		}
		logging.GetStorageLogger().Warn("⚠️ Failed to unmarshal cached summary %s", checksumKey(checksum))
	case !errors.Is(err, redis.Nil):
		// Недоступный кеш не должен ломать чтение.
		logging.GetStorageLogger().Warn("⚠️ Redis get %s: %v", checksumKey(checksum), err)
	}
	c.misses.Add(1)

	s, err := c.backend.Load(checksum)
	if err != nil {
		return nil, err
	}
	c.put(*s)
	return s, nil
}

func (c *RedisSummaryCache) List() ([]teemap.Summary, error) {
	return c.backend.List()
}

// Close закрывает соединение с Redis и основной репозиторий.
func (c *RedisSummaryCache) Close() error {
	return errors.Join(c.client.Close(), c.backend.Close())
}

// Stats возвращает количество попаданий и промахов кеша.
func (c *RedisSummaryCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

func (c *RedisSummaryCache) put(s teemap.Summary) {
	data, err := json.Marshal(s)
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()
	if err := c.client.Set(ctx, c.key(s.Checksum), data, c.ttl).Err(); err != nil {
		logging.GetStorageLogger().Warn("⚠️ Redis set %s: %v", checksumKey(s.Checksum), err)
	}
}
