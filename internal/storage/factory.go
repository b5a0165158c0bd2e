package storage

import (
	"fmt"
	"time"

	"github.com/annel0/teemap/internal/logging"
)

// Бэкенды хранилища сводок.
const (
	BackendBadger = "badger"
	BackendMemory = "memory"
	BackendMaria  = "mysql"
	BackendMongo  = "mongo"
)

// Options выбирает бэкенд и, при заданном RedisAddr, кеш Redis поверх него.
type Options struct {
	Backend  string
	Path     string // каталог BadgerDB
	MariaDSN string
	Mongo    MongoConfig
	// RedisAddr включает RedisSummaryCache.
	RedisAddr string
	RedisTTL  time.Duration
}

// Open создаёт репозиторий сводок по настройкам.
func Open(opts Options) (SummaryRepo, error) {
	var (
		repo SummaryRepo
		err  error
	)
	switch opts.Backend {
	case "", BackendBadger:
		if opts.Path == "" {
			return nil, fmt.Errorf("не задан каталог для BadgerDB")
		}
		repo, err = NewSummaryStore(opts.Path)
	case BackendMemory:
		repo = NewMemorySummaryRepo()
	case BackendMaria:
		repo, err = NewMariaSummaryRepo(opts.MariaDSN)
	case BackendMongo:
		repo, err = NewMongoSummaryRepo(opts.Mongo)
	default:
		return nil, fmt.Errorf("неизвестный бэкенд хранилища %q", opts.Backend)
	}
	if err != nil {
		return nil, err
	}
	logging.GetStorageLogger().Info("💾 Хранилище сводок: %s", backendName(opts.Backend))

	if opts.RedisAddr == "" {
		return repo, nil
	}
	cfg := DefaultRedisConfig()
	cfg.Addr = opts.RedisAddr
	if opts.RedisTTL > 0 {
		cfg.TTL = opts.RedisTTL
	}
	cached, err := NewRedisSummaryCache(cfg, repo)
	if err != nil {
		repo.Close()
		return nil, err
	}
	return cached, nil
}

func backendName(b string) string {
	if b == "" {
		return BackendBadger
	}
	return b
}
