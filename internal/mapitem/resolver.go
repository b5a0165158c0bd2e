package mapitem

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"
)

// BlockSource - контейнер, хранящий пул сжатых блоков данных.
type BlockSource interface {
	// RawBlock возвращает ещё сжатые байты блока index.
	RawBlock(index int) ([]byte, error)
	// NumRawBlocks возвращает общее количество блоков в контейнере.
	NumRawBlocks() int
}

// BlockCache хранит уже распакованные блоки одного контейнера.
type BlockCache interface {
	Get(index int) ([]byte, bool)
	Set(index int, data []byte)
}

// ResolverStats - счётчики работы Resolver за время прохода.
type ResolverStats struct {
	Fetched           int
	CacheHits         int
	CompressedBytes   int
	DecompressedBytes int
}

// Resolver достаёт блоки из контейнера по индексу и распаковывает их.
type Resolver struct {
	src   BlockSource
	cache BlockCache
	stats ResolverStats
}

// ResolverOption настраивает Resolver.
type ResolverOption func(*Resolver)

// WithCache подключает кеш распакованных блоков.
func WithCache(cache BlockCache) ResolverOption {
	return func(r *Resolver) {
		r.cache = cache
	}
}

// NewResolver создаёт Resolver поверх контейнера.
func NewResolver(src BlockSource, opts ...ResolverOption) *Resolver {
	r := &Resolver{src: src}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// NumRawBlocks возвращает количество блоков контейнера.
func (r *Resolver) NumRawBlocks() int {
	return r.src.NumRawBlocks()
}

// Stats возвращает накопленные счётчики.
func (r *Resolver) Stats() ResolverStats {
	return r.stats
}

// InRange сообщает, ссылается ли index на существующий блок.
func (r *Resolver) InRange(index int32) bool {
	return index >= 0 && int(index) < r.src.NumRawBlocks()
}

// Data возвращает распакованное содержимое блока. Вызывающий получает
// собственную копию: кеш может быть общим для нескольких загрузок.
func (r *Resolver) Data(index int32) ([]byte, error) {
	if !r.InRange(index) {
		return nil, fmt.Errorf("%w: %d not in [0, %d)", ErrInvalidBlockIndex, index, r.src.NumRawBlocks())
	}

	if r.cache != nil {
		if data, ok := r.cache.Get(int(index)); ok {
			r.stats.CacheHits++
			return bytes.Clone(data), nil
		}
	}

	raw, err := r.src.RawBlock(int(index))
	if err != nil {
		return nil, fmt.Errorf("block %d: %w", index, err)
	}

	data, err := inflate(raw)
	if err != nil {
		return nil, fmt.Errorf("block %d: %w", index, err)
	}

	r.stats.Fetched++
	r.stats.CompressedBytes += len(raw)
	r.stats.DecompressedBytes += len(data)

	if r.cache != nil {
		r.cache.Set(int(index), bytes.Clone(data))
	}
	return data, nil
}

// Text возвращает блок как строку без завершающего терминатора.
func (r *Resolver) Text(index int32) (string, error) {
	data, err := r.Data(index)
	if err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", fmt.Errorf("%w: text block %d is empty", ErrMalformedRecord, index)
	}
	return string(data[:len(data)-1]), nil
}

// OptionalText разрешает необязательную текстовую ссылку: NoIndex даёт nil
// без обращения к контейнеру.
func (r *Resolver) OptionalText(index int32) (*string, error) {
	if index == NoIndex {
		return nil, nil
	}
	text, err := r.Text(index)
	if err != nil {
		return nil, err
	}
	return &text, nil
}

// Strings возвращает блок как набор строк, разделённых терминатором.
// Хвостовые терминаторы отбрасываются, блок из одного терминатора даёт пустой срез.
func (r *Resolver) Strings(index int32) ([]string, error) {
	data, err := r.Data(index)
	if err != nil {
		return nil, err
	}
	data = bytes.TrimRight(data, "\x00")
	if len(data) == 0 {
		return []string{}, nil
	}

	parts := bytes.Split(data, []byte{0})
	out := make([]string, len(parts))
	for i, p := range parts {
		out[i] = string(p)
	}
	return out, nil
}

func inflate(raw []byte) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecompression, err)
	}
	defer zr.Close()

	data, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecompression, err)
	}
	return data, nil
}
