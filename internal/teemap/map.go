package teemap

import (
	"fmt"

	"github.com/annel0/teemap/internal/mapitem"
)

// LayerImage разрешает изображение слоя. Слой без изображения даёт nil.
func (m *Map) LayerImage(layer *mapitem.Layer) (*mapitem.Image, error) {
	switch {
	case layer.Quads != nil:
		return layer.Quads.Image(m.Images)
	case layer.Tiles != nil:
		return layer.Tiles.Image(m.Images)
	}
	return nil, fmt.Errorf("%w: layer of type %s", mapitem.ErrUnsupportedLayer, layer.Type)
}

// tileLayer возвращает первый тайловый слой, для которого match истинно.
func (m *Map) tileLayer(match func(*mapitem.TileLayer) bool) *mapitem.TileLayer {
	for _, g := range m.Groups {
		for _, layer := range g.Layers {
			if layer.Tiles != nil && match(layer.Tiles) {
				return layer.Tiles
			}
		}
	}
	return nil
}

// GameLayer возвращает игровой слой или nil.
func (m *Map) GameLayer() *mapitem.TileLayer {
	return m.tileLayer((*mapitem.TileLayer).IsGame)
}

// TeleLayer возвращает слой телепортов или nil.
func (m *Map) TeleLayer() *mapitem.TileLayer {
	return m.tileLayer((*mapitem.TileLayer).IsTele)
}

// SpeedupLayer возвращает слой ускорителей или nil.
func (m *Map) SpeedupLayer() *mapitem.TileLayer {
	return m.tileLayer((*mapitem.TileLayer).IsSpeedup)
}

// Size возвращает размер карты по игровому слою.
func (m *Map) Size() (width, height int) {
	if gl := m.GameLayer(); gl != nil {
		return gl.Width, gl.Height
	}
	return 0, 0
}
