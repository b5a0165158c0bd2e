package storage

import (
	"sort"
	"sync"

	"github.com/annel0/teemap/internal/teemap"
)

// MemorySummaryRepo реализует SummaryRepo в памяти.
// Используется, когда хранилище не настроено, и в тестах.
// ВНИМАНИЕ: Данные теряются при перезапуске!
type MemorySummaryRepo struct {
	mu   sync.RWMutex
	data map[uint64]teemap.Summary
}

// NewMemorySummaryRepo создает пустой репозиторий сводок в памяти.
func NewMemorySummaryRepo() *MemorySummaryRepo {
	return &MemorySummaryRepo{data: make(map[uint64]teemap.Summary)}
}

func (r *MemorySummaryRepo) Save(s teemap.Summary) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[s.Checksum] = s
	return nil
}

func (r *MemorySummaryRepo) Load(checksum uint64) (*teemap.Summary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.data[checksum]
	if !ok {
		return nil, notFound(checksum)
	}
	return &s, nil
}

func (r *MemorySummaryRepo) List() ([]teemap.Summary, error) {
	r.mu.RLock()
	out := make([]teemap.Summary, 0, len(r.data))
	for _, s := range r.data {
		out = append(out, s)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Checksum < out[j].Checksum })
	return out, nil
}

// Close ничего не освобождает, данные остаются доступны.
func (r *MemorySummaryRepo) Close() error {
	return nil
}

// Count возвращает количество сохранённых сводок.
func (r *MemorySummaryRepo) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.data)
}
