// Package datafiletest собирает файлы карт в памяти для тестов.
package datafiletest

import (
	"bytes"
	"encoding/binary"
	"sort"

	"github.com/annel0/teemap/internal/mapitem"
	"github.com/klauspost/compress/zlib"
)

type item struct {
	typeID int
	id     int
	words  []int32
}

// Builder накапливает элементы и блоки и сериализует их в формат версии 4.
type Builder struct {
	items  []item
	blocks [][]byte
}

// New создаёт пустой Builder.
func New() *Builder {
	return &Builder{}
}

// AddItem добавляет элемент указанного типа.
func (b *Builder) AddItem(kind mapitem.Kind, id int, words ...int32) *Builder {
	b.items = append(b.items, item{typeID: int(kind), id: id, words: words})
	return b
}

// AddBlock добавляет блок (ещё не сжатый) и возвращает его индекс.
func (b *Builder) AddBlock(data []byte) int32 {
	b.blocks = append(b.blocks, data)
	return int32(len(b.blocks) - 1)
}

// AddText добавляет текстовый блок с терминатором.
func (b *Builder) AddText(s string) int32 {
	return b.AddBlock(append([]byte(s), 0))
}

// NumBlocks возвращает количество добавленных блоков.
func (b *Builder) NumBlocks() int {
	return len(b.blocks)
}

// Bytes сериализует файл.
func (b *Builder) Bytes() []byte {
	items := append([]item(nil), b.items...)
	sort.SliceStable(items, func(i, j int) bool { return items[i].typeID < items[j].typeID })

	type typeEntry struct{ typeID, start, num int }
	var types []typeEntry
	for i, it := range items {
		if len(types) == 0 || types[len(types)-1].typeID != it.typeID {
			types = append(types, typeEntry{typeID: it.typeID, start: i})
		}
		types[len(types)-1].num++
	}

	var itemArea bytes.Buffer
	itemOffsets := make([]int32, len(items))
	for i, it := range items {
		itemOffsets[i] = int32(itemArea.Len())
		putInts(&itemArea, int32(it.typeID<<16|it.id), int32(len(it.words)*4))
		putInts(&itemArea, it.words...)
	}

	var dataArea bytes.Buffer
	blockOffsets := make([]int32, len(b.blocks))
	blockSizes := make([]int32, len(b.blocks))
	for i, blk := range b.blocks {
		blockOffsets[i] = int32(dataArea.Len())
		blockSizes[i] = int32(len(blk))
		dataArea.Write(Compress(blk))
	}

	var tables bytes.Buffer
	for _, t := range types {
		putInts(&tables, int32(t.typeID), int32(t.start), int32(t.num))
	}
	putInts(&tables, itemOffsets...)
	putInts(&tables, blockOffsets...)
	putInts(&tables, blockSizes...)

	var out bytes.Buffer
	out.WriteString("DATA")
	size := 20 + tables.Len() + itemArea.Len() + dataArea.Len()
	putInts(&out,
		4,
		int32(size),
		int32(size-dataArea.Len()),
		int32(len(types)),
		int32(len(items)),
		int32(len(b.blocks)),
		int32(itemArea.Len()),
		int32(dataArea.Len()),
	)
	out.Write(tables.Bytes())
	out.Write(itemArea.Bytes())
	out.Write(dataArea.Bytes())
	return out.Bytes()
}

// Compress сжимает данные zlib так же, как это делает редактор карт.
func Compress(data []byte) []byte {
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		panic(err)
	}
	if err := zw.Close(); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// ItemBytes кодирует слова записи в little-endian.
func ItemBytes(words ...int32) []byte {
	var buf bytes.Buffer
	putInts(&buf, words...)
	return buf.Bytes()
}

func putInts(buf *bytes.Buffer, vals ...int32) {
	var tmp [4]byte
	for _, v := range vals {
		binary.LittleEndian.PutUint32(tmp[:], uint32(v))
		buf.Write(tmp[:])
	}
}
