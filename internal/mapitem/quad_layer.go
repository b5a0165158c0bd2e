package mapitem

import "fmt"

// QuadLayer - векторный слой из квадов.
type QuadLayer struct {
	Version    int
	NumQuads   int
	ImageIndex int
	Name       string
	Quads      []Quad
}

func decodeQuadLayer(words []int32, r *Resolver) (*QuadLayer, error) {
	l, version, err := checkLayout(layoutQuadLayer, words, layerBaseWords)
	if err != nil {
		return nil, err
	}

	ql := &QuadLayer{
		Version:    int(version),
		NumQuads:   int(words[4]),
		ImageIndex: int(words[6]),
		Name:       l.optionalName(words),
	}

	data, err := r.Data(words[5])
	if err != nil {
		return nil, fmt.Errorf("quads: %w", err)
	}
	ql.Quads, err = UnpackQuads(data)
	if err != nil {
		return nil, err
	}
	return ql, nil
}

// Image разрешает ссылку на изображение по списку изображений карты.
func (ql *QuadLayer) Image(images []*Image) (*Image, error) {
	return resolveIndex("image", ql.ImageIndex, images)
}

// PositionEnvelope разрешает огибающую позиции квада.
func (q *Quad) PositionEnvelope(envelopes []*Envelope) (*Envelope, error) {
	return resolveIndex("envelope", q.PosEnv, envelopes)
}

// ColorEnvelope разрешает огибающую цвета квада.
func (q *Quad) ColorEnvelope(envelopes []*Envelope) (*Envelope, error) {
	return resolveIndex("envelope", q.ColorEnv, envelopes)
}
