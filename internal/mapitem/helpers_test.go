package mapitem_test

import (
	"github.com/annel0/teemap/internal/datafile/datafiletest"
	"github.com/annel0/teemap/internal/mapitem"
)

// memSource - пул сжатых блоков в памяти, считающий обращения.
type memSource struct {
	blocks  [][]byte
	fetches int
}

func (s *memSource) RawBlock(index int) ([]byte, error) {
	s.fetches++
	return s.blocks[index], nil
}

func (s *memSource) NumRawBlocks() int {
	return len(s.blocks)
}

func (s *memSource) add(plain []byte) int32 {
	s.blocks = append(s.blocks, datafiletest.Compress(plain))
	return int32(len(s.blocks) - 1)
}

func (s *memSource) addRaw(compressed []byte) int32 {
	s.blocks = append(s.blocks, compressed)
	return int32(len(s.blocks) - 1)
}

func (s *memSource) addText(text string) int32 {
	return s.add(append([]byte(text), 0))
}

func newSource() (*memSource, *mapitem.Resolver) {
	src := &memSource{}
	return src, mapitem.NewResolver(src)
}

func item(id int, words ...int32) mapitem.Item {
	data := datafiletest.ItemBytes(words...)
	return mapitem.Item{ID: id, Size: len(data), Data: data}
}

func concat(parts ...[]int32) []int32 {
	var out []int32
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}
