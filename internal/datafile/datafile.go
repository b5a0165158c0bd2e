package datafile

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"

	"github.com/annel0/teemap/internal/mapitem"
	"github.com/cespare/xxhash/v2"
)

// Поддерживаемая версия формата: блоки данных сжаты zlib,
// в заголовке есть таблица распакованных размеров.
const Version = 4

const headerSize = 36

var (
	ErrBadHeader          = errors.New("bad datafile header")
	ErrUnsupportedVersion = errors.New("unsupported datafile version")
	ErrTruncated          = errors.New("datafile truncated")
	ErrNoSuchBlock        = errors.New("no such data block")
)

type itemType struct {
	typeID int
	start  int
	num    int
}

type rawItem struct {
	typeID int
	id     int
	data   []byte
}

// File - разобранный файл карты: таблица элементов и пул сжатых блоков.
// Данные элементов и блоков ссылаются на исходный буфер без копирования.
type File struct {
	Version  int
	Checksum uint64

	types      []itemType
	items      []rawItem
	blocks     [][]byte
	blockSizes []int
}

// Open читает и разбирает файл карты.
func Open(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("не удалось прочитать %s: %w", path, err)
	}
	return Parse(data)
}

// Parse разбирает файл карты из памяти.
func Parse(data []byte) (*File, error) {
	if len(data) < headerSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrTruncated, len(data))
	}
	sig := string(data[:4])
	if sig != "DATA" && sig != "ATAD" {
		return nil, fmt.Errorf("%w: signature %q", ErrBadHeader, sig)
	}

	r := &reader{buf: data, pos: 4}
	version := r.next()
	if version != Version {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, version)
	}
	_ = r.next() // size
	_ = r.next() // swaplen
	numTypes := r.next()
	numItems := r.next()
	numBlocks := r.next()
	itemSize := r.next()
	dataSize := r.next()

	if numTypes < 0 || numItems < 0 || numBlocks < 0 || itemSize < 0 || dataSize < 0 {
		return nil, fmt.Errorf("%w: negative counts", ErrBadHeader)
	}

	tablesSize := numTypes*12 + numItems*4 + numBlocks*8
	itemsStart := headerSize + tablesSize
	dataStart := itemsStart + itemSize
	if dataStart+dataSize > len(data) {
		return nil, fmt.Errorf("%w: need %d bytes, have %d", ErrTruncated, dataStart+dataSize, len(data))
	}

	f := &File{
		Version:  version,
		Checksum: xxhash.Sum64(data),
		types:    make([]itemType, numTypes),
		items:    make([]rawItem, numItems),
	}

	for i := range f.types {
		f.types[i] = itemType{typeID: r.next(), start: r.next(), num: r.next()}
	}

	itemOffsets := r.nextN(numItems)
	blockOffsets := r.nextN(numBlocks)
	f.blockSizes = r.nextN(numBlocks)

	items := data[itemsStart:dataStart]
	for i, off := range itemOffsets {
		it, err := parseItem(items, off)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		f.items[i] = it
	}

	blocks := data[dataStart : dataStart+dataSize]
	f.blocks = make([][]byte, numBlocks)
	for i, off := range blockOffsets {
		end := dataSize
		if i+1 < numBlocks {
			end = blockOffsets[i+1]
		}
		if off < 0 || off > end || end > dataSize {
			return nil, fmt.Errorf("%w: block %d spans [%d, %d) of %d", ErrBadHeader, i, off, end, dataSize)
		}
		f.blocks[i] = blocks[off:end:end]
	}

	return f, nil
}

func parseItem(items []byte, off int) (rawItem, error) {
	if off < 0 || off+8 > len(items) {
		return rawItem{}, fmt.Errorf("%w: item offset %d", ErrTruncated, off)
	}
	typeAndID := binary.LittleEndian.Uint32(items[off:])
	size := int(int32(binary.LittleEndian.Uint32(items[off+4:])))
	start := off + 8
	if size < 0 || start+size > len(items) {
		return rawItem{}, fmt.Errorf("%w: item size %d at %d", ErrTruncated, size, off)
	}
	return rawItem{
		typeID: int(typeAndID >> 16),
		id:     int(typeAndID & 0xffff),
		data:   items[start : start+size : start+size],
	}, nil
}

// NumItems возвращает общее количество элементов.
func (f *File) NumItems() int {
	return len(f.items)
}

// Items возвращает элементы указанного типа в порядке файла.
func (f *File) Items(kind mapitem.Kind) []mapitem.Item {
	for _, t := range f.types {
		if t.typeID != int(kind) {
			continue
		}
		out := make([]mapitem.Item, 0, t.num)
		for i := t.start; i < t.start+t.num && i < len(f.items); i++ {
			if i < 0 {
				continue
			}
			it := f.items[i]
			out = append(out, mapitem.Item{ID: it.id, Size: len(it.data), Data: it.data})
		}
		return out
	}
	return nil
}

// RawBlock возвращает сжатые байты блока.
func (f *File) RawBlock(index int) ([]byte, error) {
	if index < 0 || index >= len(f.blocks) {
		return nil, fmt.Errorf("%w: %d of %d", ErrNoSuchBlock, index, len(f.blocks))
	}
	return f.blocks[index], nil
}

// NumRawBlocks возвращает количество блоков данных.
func (f *File) NumRawBlocks() int {
	return len(f.blocks)
}

// UncompressedSize возвращает суммарный заявленный размер распакованных блоков.
func (f *File) UncompressedSize() int {
	total := 0
	for _, n := range f.blockSizes {
		total += n
	}
	return total
}

type reader struct {
	buf []byte
	pos int
}

func (r *reader) next() int {
	v := int32(binary.LittleEndian.Uint32(r.buf[r.pos:]))
	r.pos += 4
	return int(v)
}

func (r *reader) nextN(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = r.next()
	}
	return out
}
