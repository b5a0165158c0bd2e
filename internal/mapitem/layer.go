package mapitem

import (
	"errors"
	"fmt"
)

// LayerType - тип слоя, записанный в общей части элемента.
type LayerType int

const (
	LayerTypeInvalid LayerType = iota
	LayerTypeGame
	LayerTypeTiles
	LayerTypeQuads
)

// String возвращает строковое представление типа слоя
func (t LayerType) String() string {
	switch t {
	case LayerTypeInvalid:
		return "invalid"
	case LayerTypeGame:
		return "game"
	case LayerTypeTiles:
		return "tiles"
	case LayerTypeQuads:
		return "quads"
	default:
		return fmt.Sprintf("layertype(%d)", int(t))
	}
}

// LayerFlagDetail помечает детальный слой, который клиент может не рисовать.
const LayerFlagDetail = 1

// ErrUnsupportedLayer - слой неизвестного типа. Такие слои пропускаются.
var ErrUnsupportedLayer = errors.New("unsupported layer type")

// Layer - слой карты. Ровно одно из полей Quads/Tiles заполнено,
// в зависимости от Type.
type Layer struct {
	Version int
	Type    LayerType
	Flags   int

	Quads *QuadLayer
	Tiles *TileLayer
}

// Name возвращает имя слоя или пустую строку.
func (l *Layer) Name() string {
	switch {
	case l.Quads != nil:
		return l.Quads.Name
	case l.Tiles != nil:
		return l.Tiles.Name
	}
	return ""
}

// IsDetail сообщает, помечен ли слой как детальный.
func (l *Layer) IsDetail() bool {
	return l.Flags&LayerFlagDetail != 0
}

// DecodeLayer декодирует общую часть слоя и затем его вид.
func DecodeLayer(item Item, r *Resolver) (*Layer, error) {
	layer, err := decodeLayer(item, r)
	return layer, wrapItem(KindLayer, item.ID, err)
}

func decodeLayer(item Item, r *Resolver) (*Layer, error) {
	words, err := ItemWords(item)
	if err != nil {
		return nil, err
	}
	if len(words) < layerBaseWords {
		return nil, fmt.Errorf("%w: layer needs %d words, got %d", ErrVersionLayoutMismatch, layerBaseWords, len(words))
	}

	layer := &Layer{
		Version: int(words[0]),
		Type:    LayerType(words[1]),
		Flags:   int(words[2]),
	}

	switch layer.Type {
	case LayerTypeQuads:
		layer.Quads, err = decodeQuadLayer(words, r)
	case LayerTypeTiles:
		layer.Tiles, err = decodeTileLayer(words, r)
	default:
		err = fmt.Errorf("%w: %s", ErrUnsupportedLayer, layer.Type)
	}
	if err != nil {
		return nil, err
	}
	return layer, nil
}

func resolveIndex[T any](what string, index int, pool []*T) (*T, error) {
	if index == NoIndex {
		return nil, nil
	}
	if index < 0 || index >= len(pool) {
		return nil, fmt.Errorf("%w: %s %d of %d", ErrUnresolvedReference, what, index, len(pool))
	}
	return pool[index], nil
}
