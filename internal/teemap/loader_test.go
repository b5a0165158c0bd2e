package teemap

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/annel0/teemap/internal/cache"
	"github.com/annel0/teemap/internal/datafile"
	"github.com/annel0/teemap/internal/datafile/datafiletest"
	"github.com/annel0/teemap/internal/mapitem"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func words(parts ...[]int32) []int32 {
	var out []int32
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// buildMap собирает небольшую карту: две группы, игровой слой,
// слой телепортов без данных, слой квадов и слой неизвестного типа.
func buildMap(t *testing.T) []byte {
	t.Helper()
	b := datafiletest.New()

	author := b.AddText("nameless tee")
	settings := b.AddBlock([]byte("sv_gametype race\x00"))
	imgName := b.AddText("grass_main")
	bgName := b.AddText("bg_cloud")
	pixels := b.AddBlock(make([]byte, 2*2*4))
	gameTiles := b.AddBlock(make([]byte, 4*3*4))
	teleTiles := b.AddBlock(make([]byte, 4*3*4))
	quads := b.AddBlock(datafiletest.ItemBytes(make([]int32, mapitem.QuadWords)...))

	b.AddItem(mapitem.KindVersion, 0, 1)
	b.AddItem(mapitem.KindInfo, 0, 1, author, -1, -1, -1, settings)
	b.AddItem(mapitem.KindImage, 0, 1, 1024, 1024, 1, imgName, -1)
	b.AddItem(mapitem.KindImage, 1, 1, 2, 2, 0, bgName, pixels)
	b.AddItem(mapitem.KindEnvpoints, 0,
		0, 1, 0, 0, 0, 0,
		500, 1, 1024, 0, 0, 0,
	)
	b.AddItem(mapitem.KindEnvelope, 0, words([]int32{1, 3, 0, 2}, mapitem.PackName("move", 8))...)

	b.AddItem(mapitem.KindGroup, 0, words([]int32{3, 0, 0, 50, 50, 0, 1, 0, 0, 0, 0, 0}, mapitem.PackName("Background", 3))...)
	b.AddItem(mapitem.KindGroup, 1, words([]int32{3, 0, 0, 100, 100, 1, 3, 0, 0, 0, 0, 0}, mapitem.PackName("Game", 3))...)

	b.AddItem(mapitem.KindLayer, 0, words([]int32{0, 3, 0, 2, 1, quads, 1}, mapitem.PackName("Clouds", 3))...)
	b.AddItem(mapitem.KindLayer, 1, words([]int32{0, 2, 0, 3, 4, 3, 1, 255, 255, 255, 255, -1, 0, -1, gameTiles}, mapitem.PackName("Game", 3))...)
	b.AddItem(mapitem.KindLayer, 2, 0, 10, 0, 1)
	b.AddItem(mapitem.KindLayer, 3, words([]int32{0, 2, 0, 3, 4, 3, 2, 255, 255, 255, 255, -1, 0, 0, teleTiles}, mapitem.PackName("Tele", 3), []int32{int32(b.NumBlocks())})...)

	return b.Bytes()
}

func loadSample(t *testing.T, opts Options) *Map {
	t.Helper()
	f, err := datafile.Parse(buildMap(t))
	require.NoError(t, err)
	m, err := Load(f, opts)
	require.NoError(t, err)
	return m
}

func TestLoad_Pools(t *testing.T) {
	m := loadSample(t, Options{})

	assert.NotEmpty(t, m.LoadID)
	assert.Equal(t, MapVersion, m.Version)
	require.NotNil(t, m.Info)
	require.NotNil(t, m.Info.Author)
	assert.Equal(t, "nameless tee", *m.Info.Author)
	assert.Equal(t, []string{"sv_gametype race"}, m.Info.Settings)

	require.Len(t, m.Images, 2)
	assert.True(t, m.Images[0].External)
	assert.Nil(t, m.Images[0].Data)
	assert.Len(t, m.Images[1].Data, 16)

	require.Len(t, m.Envpoints, 2)
	require.Len(t, m.Envelopes, 1)
	assert.Equal(t, "move", m.Envelopes[0].Name)
	assert.Len(t, m.Envelopes[0].Points, 2)
}

func TestLoad_AttachesLayersInOrder(t *testing.T) {
	m := loadSample(t, Options{})

	require.Len(t, m.Layers, 4)
	assert.Nil(t, m.Layers[2], "неизвестный слой остаётся пустым местом в арене")

	require.Len(t, m.Groups, 2)
	bg, game := m.Groups[0], m.Groups[1]
	assert.Equal(t, "Background", bg.Name)
	require.Len(t, bg.Layers, 1)
	assert.Same(t, m.Layers[0], bg.Layers[0])

	require.Len(t, game.Layers, 2)
	assert.Same(t, m.Layers[1], game.Layers[0])
	assert.Same(t, m.Layers[3], game.Layers[1])
}

func TestLoad_ResolutionHelpers(t *testing.T) {
	m := loadSample(t, Options{})

	img, err := m.LayerImage(m.Layers[0])
	require.NoError(t, err)
	assert.Equal(t, "bg_cloud", img.Name)

	img, err = m.LayerImage(m.Layers[1])
	require.NoError(t, err)
	assert.Nil(t, img)

	img, err = m.LayerImage(m.Layers[3])
	require.NoError(t, err)
	assert.Equal(t, "grass_main", img.Name)

	gl := m.GameLayer()
	require.NotNil(t, gl)
	assert.Equal(t, "Game", gl.Name)
	w, h := m.Size()
	assert.Equal(t, 4, w)
	assert.Equal(t, 3, h)

	tele := m.TeleLayer()
	require.NotNil(t, tele)
	assert.Empty(t, tele.TeleTiles, "индекс телепортов вне диапазона даёт пустой набор")
	assert.Nil(t, m.SpeedupLayer())
}

func TestLoad_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)

	loadSample(t, Options{Metrics: metrics})

	assert.Equal(t, 3.0, testutil.ToFloat64(metrics.itemsDecoded.WithLabelValues("layer")))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.itemsDecoded.WithLabelValues("image")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.degraded.WithLabelValues(degradedUnsupportedLayer)))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.degraded.WithLabelValues(degradedTeleMissing)))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.loads))
	assert.Greater(t, testutil.ToFloat64(metrics.blockBytes.WithLabelValues("decompressed")), 0.0)
}

func TestLoad_StrictQuadCount(t *testing.T) {
	b := datafiletest.New()
	quads := b.AddBlock(nil)
	b.AddItem(mapitem.KindLayer, 0, 0, 3, 0, 1, 5, quads, -1)
	f, err := datafile.Parse(b.Bytes())
	require.NoError(t, err)

	m, err := Load(f, Options{})
	require.NoError(t, err)
	assert.Len(t, m.Layers, 1)

	_, err = Load(f, Options{StrictQuadCount: true})
	assert.ErrorIs(t, err, ErrQuadCountMismatch)
}

func TestLoad_ItemErrorCarriesKindAndID(t *testing.T) {
	b := datafiletest.New()
	b.AddItem(mapitem.KindImage, 0, 1, 64, 64, 1, 99, -1)
	f, err := datafile.Parse(b.Bytes())
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	_, err = Load(f, Options{Metrics: metrics})
	require.Error(t, err)
	assert.ErrorIs(t, err, mapitem.ErrInvalidBlockIndex)

	var de *mapitem.DecodeError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, mapitem.KindImage, de.Kind)
	assert.Equal(t, 0, de.ID)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.decodeErrors.WithLabelValues("image")))
}

func TestLoad_UnsupportedMapVersion(t *testing.T) {
	b := datafiletest.New()
	b.AddItem(mapitem.KindVersion, 0, 2)
	f, err := datafile.Parse(b.Bytes())
	require.NoError(t, err)

	_, err = Load(f, Options{})
	assert.ErrorIs(t, err, ErrUnsupportedMapVersion)
}

func TestLoad_GroupRangeClamped(t *testing.T) {
	b := datafiletest.New()
	tiles := b.AddBlock(make([]byte, 4))
	b.AddItem(mapitem.KindGroup, 0, 1, 0, 0, 100, 100, 0, 5, 0, 0, 0, 0, 0)
	b.AddItem(mapitem.KindLayer, 0, 0, 2, 0, 2, 1, 1, 1, 255, 255, 255, 255, -1, 0, -1, tiles)
	f, err := datafile.Parse(b.Bytes())
	require.NoError(t, err)

	m, err := Load(f, Options{})
	require.NoError(t, err)
	require.Len(t, m.Groups, 1)
	assert.Len(t, m.Groups[0].Layers, 1)
}

func TestLoadFile_WithBlockCache(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.map")
	require.NoError(t, os.WriteFile(path, buildMap(t), 0644))

	bc, err := cache.NewBlockCache(1 << 20)
	require.NoError(t, err)
	defer bc.Close()

	first, err := LoadFile(path, Options{BlockCache: bc})
	require.NoError(t, err)
	require.Len(t, first.Images[1].Data, 16)
	first.Images[1].Data[0] = 99

	second, err := LoadFile(path, Options{BlockCache: bc})
	require.NoError(t, err)

	// Каждая загрузка владеет своими пикселями, даже при общем кеше.
	assert.Equal(t, byte(0), second.Images[1].Data[0])
	second.Images[1].Data[1] = 42
	assert.Equal(t, byte(0), first.Images[1].Data[1])

	assert.Equal(t, first.Checksum, second.Checksum)
	assert.NotEqual(t, first.LoadID, second.LoadID)
	assert.Greater(t, bc.GetMetrics().CacheHits, int64(0))

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.map"), Options{})
	assert.Error(t, err)
}

func TestLoadBytes(t *testing.T) {
	data := buildMap(t)
	m, err := LoadBytes(data, Options{})
	require.NoError(t, err)
	assert.NotZero(t, m.Checksum)
	assert.Len(t, m.Groups, 2)

	_, err = LoadBytes(data[:10], Options{})
	assert.ErrorIs(t, err, datafile.ErrTruncated)
}

func TestSummary(t *testing.T) {
	m := loadSample(t, Options{})
	m.Checksum = 0xabc

	s := m.Summary()
	assert.Equal(t, uint64(0xabc), s.Checksum)
	assert.Equal(t, "nameless tee", s.Author)
	assert.Equal(t, "", s.License)
	assert.Equal(t, 2, s.Groups)
	assert.Equal(t, 3, s.Layers)
	assert.Equal(t, 1, s.Envelopes)
	assert.Equal(t, 4, s.Width)
	assert.True(t, s.HasTele)
	assert.False(t, s.HasSpeedup)
	require.Len(t, s.Images, 2)
	assert.Equal(t, ImageSummary{Name: "bg_cloud", Resolution: "2x2", External: false}, s.Images[1])
}
