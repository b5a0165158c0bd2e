package storage

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Тесты внешних бэкендов запускаются, только если задан адрес сервера.

func exerciseRepo(t *testing.T, repo SummaryRepo) {
	t.Helper()
	s := sampleSummary(0xfeedface00000001)
	require.NoError(t, repo.Save(s))

	got, err := repo.Load(s.Checksum)
	require.NoError(t, err)
	assert.Equal(t, s.Checksum, got.Checksum)
	assert.Equal(t, s.Author, got.Author)
	assert.Equal(t, s.Images, got.Images)

	s.Author = "updated"
	require.NoError(t, repo.Save(s))
	got, err = repo.Load(s.Checksum)
	require.NoError(t, err)
	assert.Equal(t, "updated", got.Author)

	_, err = repo.Load(0xfeedface000000ff)
	assert.ErrorIs(t, err, ErrSummaryNotFound)

	all, err := repo.List()
	require.NoError(t, err)
	assert.NotEmpty(t, all)
}

func TestMariaSummaryRepo(t *testing.T) {
	dsn := os.Getenv("TEEMAP_TEST_MYSQL_DSN")
	if dsn == "" {
		t.Skip("TEEMAP_TEST_MYSQL_DSN не задан")
	}
	repo, err := NewMariaSummaryRepo(dsn)
	require.NoError(t, err)
	defer repo.Close()
	exerciseRepo(t, repo)
}

func TestMongoSummaryRepo(t *testing.T) {
	uri := os.Getenv("TEEMAP_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("TEEMAP_TEST_MONGO_URI не задан")
	}
	repo, err := NewMongoSummaryRepo(MongoConfig{URI: uri, Database: "teemap_test"})
	require.NoError(t, err)
	defer repo.Close()
	exerciseRepo(t, repo)
}

func TestRedisSummaryCache(t *testing.T) {
	addr := os.Getenv("TEEMAP_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEEMAP_TEST_REDIS_ADDR не задан")
	}
	cfg := DefaultRedisConfig()
	cfg.Addr = addr
	cfg.KeyPrefix = "teemap:test:"
	backend := NewMemorySummaryRepo()
	cache, err := NewRedisSummaryCache(cfg, backend)
	require.NoError(t, err)
	defer cache.Close()

	exerciseRepo(t, cache)
	hits, _ := cache.Stats()
	assert.Greater(t, hits, int64(0))
}

func TestOpen_RedisUnavailable(t *testing.T) {
	_, err := Open(Options{Backend: BackendMemory, RedisAddr: "127.0.0.1:1"})
	assert.Error(t, err)
}
