package mapitem

import "github.com/annel0/teemap/internal/vec"

// ClipRect - прямоугольник отсечения группы.
type ClipRect struct {
	X, Y, W, H int
}

// Group - группа слоёв со смещением и параллаксом.
type Group struct {
	Version     int
	Offset      vec.Vec2
	Parallax    vec.Vec2
	StartLayer  int
	NumLayers   int
	UseClipping bool
	Clip        ClipRect
	Name        string

	// Layers заполняется вызывающим кодом через AddLayer в порядке файла.
	Layers []*Layer
}

// DecodeGroup декодирует элемент группы. Список слоёв изначально пуст.
func DecodeGroup(item Item) (*Group, error) {
	g, err := decodeGroup(item)
	return g, wrapItem(KindGroup, item.ID, err)
}

func decodeGroup(item Item) (*Group, error) {
	words, err := ItemWords(item)
	if err != nil {
		return nil, err
	}
	l, version, err := checkLayout(layoutGroup, words, 0)
	if err != nil {
		return nil, err
	}

	return &Group{
		Version:     int(version),
		Offset:      vec.Vec2{X: int(words[1]), Y: int(words[2])},
		Parallax:    vec.Vec2{X: int(words[3]), Y: int(words[4])},
		StartLayer:  int(words[5]),
		NumLayers:   int(words[6]),
		UseClipping: words[7] != 0,
		Clip: ClipRect{
			X: int(words[8]),
			Y: int(words[9]),
			W: int(words[10]),
			H: int(words[11]),
		},
		Name:   l.optionalName(words),
		Layers: []*Layer{},
	}, nil
}

// AddLayer добавляет слой в конец группы.
func (g *Group) AddLayer(layer *Layer) {
	g.Layers = append(g.Layers, layer)
}
