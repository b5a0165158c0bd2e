package cache

import (
	"fmt"
	"strconv"
	"sync/atomic"

	"github.com/dgraph-io/ristretto/v2"
)

// BlockCache хранит распакованные блоки данных карт между загрузками.
// Ключ - контрольная сумма файла и индекс блока, стоимость - размер в байтах.
//
// Использование:
//
//	bc, err := cache.NewBlockCache(64 << 20)
//	resolver := mapitem.NewResolver(file, mapitem.WithCache(bc.ForFile(file.Checksum)))
type BlockCache struct {
	c      *ristretto.Cache[string, []byte]
	hits   atomic.Int64
	misses atomic.Int64
}

// CacheMetrics содержит метрики производительности кеша.
type CacheMetrics struct {
	TotalRequests int64   `json:"total_requests"`
	CacheHits     int64   `json:"cache_hits"`
	CacheMisses   int64   `json:"cache_misses"`
	HitRatio      float64 `json:"hit_ratio"`
}

// NewBlockCache создаёт кеш с ограничением maxBytes.
func NewBlockCache(maxBytes int64) (*BlockCache, error) {
	if maxBytes <= 0 {
		return nil, fmt.Errorf("размер кеша должен быть положительным, получено %d", maxBytes)
	}
	c, err := ristretto.NewCache(&ristretto.Config[string, []byte]{
		NumCounters:        1e5,
		MaxCost:            maxBytes,
		BufferItems:        64,
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, fmt.Errorf("не удалось создать кеш блоков: %w", err)
	}
	return &BlockCache{c: c}, nil
}

// ForFile возвращает представление кеша для одного файла карты.
func (bc *BlockCache) ForFile(checksum uint64) *FileView {
	return &FileView{bc: bc, prefix: strconv.FormatUint(checksum, 16) + ":"}
}

// GetMetrics возвращает метрики кеша.
func (bc *BlockCache) GetMetrics() CacheMetrics {
	hits, misses := bc.hits.Load(), bc.misses.Load()
	m := CacheMetrics{
		TotalRequests: hits + misses,
		CacheHits:     hits,
		CacheMisses:   misses,
	}
	if m.TotalRequests > 0 {
		m.HitRatio = float64(hits) / float64(m.TotalRequests)
	}
	return m
}

// Close освобождает ресурсы кеша.
func (bc *BlockCache) Close() {
	bc.c.Close()
}

// FileView - кеш блоков одного файла.
type FileView struct {
	bc     *BlockCache
	prefix string
}

func (v *FileView) key(index int) string {
	return v.prefix + strconv.Itoa(index)
}

// Get возвращает распакованный блок, если он есть в кеше.
func (v *FileView) Get(index int) ([]byte, bool) {
	data, ok := v.bc.c.Get(v.key(index))
	if ok {
		v.bc.hits.Add(1)
	} else {
		v.bc.misses.Add(1)
	}
	return data, ok
}

// Set сохраняет распакованный блок.
func (v *FileView) Set(index int, data []byte) {
	cost := int64(len(data))
	if cost == 0 {
		cost = 1
	}
	v.bc.c.Set(v.key(index), data, cost)
	v.bc.c.Wait()
}
