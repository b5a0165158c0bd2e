package storage

import (
	"fmt"
	"strconv"

	"github.com/annel0/teemap/internal/teemap"
)

// SummaryRepo определяет интерфейс хранилища сводок карт.
// Сводки привязаны к контрольной сумме файла карты: повторное
// сохранение той же карты перезаписывает запись.
type SummaryRepo interface {
	// Save сохраняет сводку, перезаписывая предыдущую с той же суммой.
	Save(s teemap.Summary) error
	// Load возвращает сводку или ошибку, оборачивающую ErrSummaryNotFound.
	Load(checksum uint64) (*teemap.Summary, error)
	// List возвращает все сводки в порядке возрастания контрольной суммы.
	List() ([]teemap.Summary, error)
	Close() error
}

var (
	_ SummaryRepo = (*SummaryStore)(nil)
	_ SummaryRepo = (*MemorySummaryRepo)(nil)
	_ SummaryRepo = (*MariaSummaryRepo)(nil)
	_ SummaryRepo = (*MongoSummaryRepo)(nil)
	_ SummaryRepo = (*RedisSummaryCache)(nil)
)

// checksumKey - 16 hex-символов, сортируется так же, как число.
func checksumKey(checksum uint64) string {
	return fmt.Sprintf("%016x", checksum)
}

func parseChecksumKey(key string) (uint64, error) {
	return strconv.ParseUint(key, 16, 64)
}

func notFound(checksum uint64) error {
	return fmt.Errorf("%w: %s", ErrSummaryNotFound, checksumKey(checksum))
}
