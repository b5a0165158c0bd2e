package mapitem_test

import (
	"testing"

	"github.com/annel0/teemap/internal/mapitem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolver_TextRoundTrip(t *testing.T) {
	src, r := newSource()
	idx := src.addText("Saavik")

	text, err := r.Text(idx)
	require.NoError(t, err)
	assert.Equal(t, "Saavik", text)

	raw, err := r.Data(idx)
	require.NoError(t, err)
	assert.Equal(t, raw, append([]byte(text), 0), "текст с терминатором должен совпадать с распакованным блоком")
}

func TestResolver_EmptyTextBlock(t *testing.T) {
	src, r := newSource()
	idx := src.add(nil)

	_, err := r.Text(idx)
	assert.ErrorIs(t, err, mapitem.ErrMalformedRecord)
}

func TestResolver_Strings(t *testing.T) {
	src, r := newSource()

	settings, err := r.Strings(src.add([]byte("a\x00b\x00\x00")))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, settings)

	settings, err = r.Strings(src.add([]byte("sv_gametype dm\x00")))
	require.NoError(t, err)
	assert.Equal(t, []string{"sv_gametype dm"}, settings)

	settings, err = r.Strings(src.add([]byte{0}))
	require.NoError(t, err)
	assert.NotNil(t, settings)
	assert.Empty(t, settings)
}

func TestResolver_OptionalTextSentinel(t *testing.T) {
	src, r := newSource()
	src.addText("unused")

	text, err := r.OptionalText(mapitem.NoIndex)
	require.NoError(t, err)
	assert.Nil(t, text)
	assert.Zero(t, src.fetches, "NoIndex не должен обращаться к контейнеру")
}

func TestResolver_InvalidIndex(t *testing.T) {
	src, r := newSource()
	src.addText("x")

	for _, idx := range []int32{-2, 1, 100} {
		_, err := r.Data(idx)
		assert.ErrorIs(t, err, mapitem.ErrInvalidBlockIndex, "индекс %d", idx)
	}
	assert.Zero(t, src.fetches)
}

func TestResolver_CorruptBlock(t *testing.T) {
	src, r := newSource()
	idx := src.addRaw([]byte("definitely not zlib"))

	_, err := r.Data(idx)
	assert.ErrorIs(t, err, mapitem.ErrDecompression)
}

type mapCache map[int][]byte

func (c mapCache) Get(index int) ([]byte, bool) {
	data, ok := c[index]
	return data, ok
}

func (c mapCache) Set(index int, data []byte) {
	c[index] = data
}

func TestResolver_Cache(t *testing.T) {
	src := &memSource{}
	idx := src.addText("cached")
	c := mapCache{}
	r := mapitem.NewResolver(src, mapitem.WithCache(c))

	for i := 0; i < 3; i++ {
		text, err := r.Text(idx)
		require.NoError(t, err)
		assert.Equal(t, "cached", text)
	}

	assert.Equal(t, 1, src.fetches)
	stats := r.Stats()
	assert.Equal(t, 1, stats.Fetched)
	assert.Equal(t, 2, stats.CacheHits)
	assert.Equal(t, len("cached")+1, stats.DecompressedBytes)
}

func TestResolver_DataIsNotSharedWithCache(t *testing.T) {
	src := &memSource{}
	idx := src.add([]byte{1, 2, 3, 4})
	c := mapCache{}
	r := mapitem.NewResolver(src, mapitem.WithCache(c))

	fetched, err := r.Data(idx)
	require.NoError(t, err)
	fetched[0] = 99

	cached, err := r.Data(idx)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3, 4}, cached)
	cached[1] = 99

	again, err := r.Data(idx)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3, 4}, again)
	assert.Equal(t, 1, src.fetches)
}
