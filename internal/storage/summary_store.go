package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/annel0/teemap/internal/logging"
	"github.com/annel0/teemap/internal/teemap"
	"github.com/dgraph-io/badger/v3"
	"github.com/klauspost/compress/zstd"
)

const summaryPrefix = "summary:"

// ErrSummaryNotFound возвращается, если сводка карты не сохранялась.
var ErrSummaryNotFound = errors.New("summary not found")

// SummaryStore хранит сводки загруженных карт по контрольной сумме файла.
// Значения - JSON, сжатый zstd.
type SummaryStore struct {
	db      *badger.DB
	dbPath  string
	encoder *zstd.Encoder
	decoder *zstd.Decoder
	mutex   sync.RWMutex
	isReady bool
}

// NewSummaryStore открывает (или создаёт) хранилище в каталоге dataPath.
func NewSummaryStore(dataPath string) (*SummaryStore, error) {
	dbPath := filepath.Join(dataPath, "summaries")
	opts := badger.DefaultOptions(dbPath)
	opts.Logger = nil // Отключаем логирование BadgerDB

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("не удалось открыть BadgerDB: %w", err)
	}

	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("не удалось создать zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		encoder.Close()
		db.Close()
		return nil, fmt.Errorf("не удалось создать zstd decoder: %w", err)
	}

	return &SummaryStore{
		db:      db,
		dbPath:  dbPath,
		encoder: encoder,
		decoder: decoder,
		isReady: true,
	}, nil
}

// Close закрывает хранилище
func (ss *SummaryStore) Close() error {
	ss.mutex.Lock()
	defer ss.mutex.Unlock()

	if !ss.isReady {
		return nil
	}

	ss.isReady = false
	ss.decoder.Close()
	if err := ss.encoder.Close(); err != nil {
		logging.GetStorageLogger().Warn("zstd encoder close: %v", err)
	}
	return ss.db.Close()
}

func summaryKey(checksum uint64) []byte {
	return []byte(summaryPrefix + checksumKey(checksum))
}

// Save сохраняет сводку карты, перезаписывая предыдущую с той же суммой.
func (ss *SummaryStore) Save(s teemap.Summary) error {
	ss.mutex.RLock()
	defer ss.mutex.RUnlock()

	if !ss.isReady {
		return fmt.Errorf("хранилище не готово")
	}

	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("ошибка сериализации сводки: %w", err)
	}
	packed := ss.encoder.EncodeAll(data, nil)

	err = ss.db.Update(func(txn *badger.Txn) error {
		return txn.Set(summaryKey(s.Checksum), packed)
	})
	if err != nil {
		return fmt.Errorf("ошибка сохранения в BadgerDB: %w", err)
	}

	logging.GetStorageLogger().Debug("summary %016x saved (%d -> %d bytes)", s.Checksum, len(data), len(packed))
	return nil
}

// Load загружает сводку по контрольной сумме файла.
func (ss *SummaryStore) Load(checksum uint64) (*teemap.Summary, error) {
	ss.mutex.RLock()
	defer ss.mutex.RUnlock()

	if !ss.isReady {
		return nil, fmt.Errorf("хранилище не готово")
	}

	var packed []byte
	err := ss.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(summaryKey(checksum))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			packed = append([]byte{}, val...)
			return nil
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, notFound(checksum)
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения из BadgerDB: %w", err)
	}

	return ss.decode(packed)
}

// List возвращает все сохранённые сводки в порядке ключей.
func (ss *SummaryStore) List() ([]teemap.Summary, error) {
	ss.mutex.RLock()
	defer ss.mutex.RUnlock()

	if !ss.isReady {
		return nil, fmt.Errorf("хранилище не готово")
	}

	var out []teemap.Summary
	err := ss.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(summaryPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				s, err := ss.decode(val)
				if err != nil {
					return err
				}
				out = append(out, *s)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения из BadgerDB: %w", err)
	}
	return out, nil
}

func (ss *SummaryStore) decode(packed []byte) (*teemap.Summary, error) {
	data, err := ss.decoder.DecodeAll(packed, nil)
	if err != nil {
		return nil, fmt.Errorf("ошибка распаковки сводки: %w", err)
	}
	var s teemap.Summary
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("ошибка десериализации сводки: %w", err)
	}
	return &s, nil
}
