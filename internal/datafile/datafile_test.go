package datafile_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/annel0/teemap/internal/datafile"
	"github.com/annel0/teemap/internal/datafile/datafiletest"
	"github.com/annel0/teemap/internal/mapitem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildSample() []byte {
	b := datafiletest.New()
	name := b.AddText("grass_main")
	b.AddBlock([]byte{1, 2, 3, 4})
	b.AddItem(mapitem.KindImage, 0, 1, 256, 256, 1, name, -1)
	b.AddItem(mapitem.KindVersion, 0, 1)
	b.AddItem(mapitem.KindImage, 1, 1, 64, 64, 1, name, -1)
	return b.Bytes()
}

func TestParse_ItemsAndBlocks(t *testing.T) {
	f, err := datafile.Parse(buildSample())
	require.NoError(t, err)

	assert.Equal(t, datafile.Version, f.Version)
	assert.Equal(t, 3, f.NumItems())
	assert.Equal(t, 2, f.NumRawBlocks())
	assert.Equal(t, len("grass_main")+1+4, f.UncompressedSize())
	assert.NotZero(t, f.Checksum)

	images := f.Items(mapitem.KindImage)
	require.Len(t, images, 2)
	assert.Equal(t, 0, images[0].ID)
	assert.Equal(t, 1, images[1].ID)
	assert.Equal(t, 24, images[1].Size)

	words, err := mapitem.ItemWords(images[1])
	require.NoError(t, err)
	assert.Equal(t, []int32{1, 64, 64, 1, 0, -1}, words)

	assert.Len(t, f.Items(mapitem.KindVersion), 1)
	assert.Empty(t, f.Items(mapitem.KindGroup))
}

func TestParse_BlocksDecompress(t *testing.T) {
	f, err := datafile.Parse(buildSample())
	require.NoError(t, err)

	r := mapitem.NewResolver(f)
	text, err := r.Text(0)
	require.NoError(t, err)
	assert.Equal(t, "grass_main", text)

	data, err := r.Data(1)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3, 4}, data)

	_, err = f.RawBlock(2)
	assert.ErrorIs(t, err, datafile.ErrNoSuchBlock)
}

func TestParse_SwappedSignature(t *testing.T) {
	data := buildSample()
	copy(data, "ATAD")

	_, err := datafile.Parse(data)
	assert.NoError(t, err)
}

func TestParse_Errors(t *testing.T) {
	sample := buildSample()

	_, err := datafile.Parse(sample[:20])
	assert.ErrorIs(t, err, datafile.ErrTruncated)

	_, err = datafile.Parse(sample[:len(sample)-1])
	assert.ErrorIs(t, err, datafile.ErrTruncated)

	bad := append([]byte(nil), sample...)
	copy(bad, "MAPS")
	_, err = datafile.Parse(bad)
	assert.ErrorIs(t, err, datafile.ErrBadHeader)

	old := append([]byte(nil), sample...)
	old[4] = 3
	_, err = datafile.Parse(old)
	assert.ErrorIs(t, err, datafile.ErrUnsupportedVersion)
}

func TestOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.map")
	require.NoError(t, os.WriteFile(path, buildSample(), 0644))

	f, err := datafile.Open(path)
	require.NoError(t, err)
	assert.Equal(t, 3, f.NumItems())

	_, err = datafile.Open(filepath.Join(t.TempDir(), "missing.map"))
	assert.Error(t, err)
}
