package mapitem

import "fmt"

// TileKind - смысловой флаг тайлового слоя.
type TileKind int

const (
	TileKindNormal  TileKind = 0
	TileKindGame    TileKind = 1
	TileKindTele    TileKind = 2
	TileKindSpeedup TileKind = 4
)

// TileLayer - тайловый слой. TeleTiles и SpeedupTiles заполняются только
// у слоёв соответствующего вида, если запись ссылается на существующий блок.
type TileLayer struct {
	Version        int
	Width          int
	Height         int
	Kind           TileKind
	Color          Color
	ColorEnv       int
	ColorEnvOffset int
	ImageIndex     int
	Name           string

	Tiles        []Tile
	TeleTiles    []TeleTile
	SpeedupTiles []SpeedupTile
}

func decodeTileLayer(words []int32, r *Resolver) (*TileLayer, error) {
	l, version, err := checkLayout(layoutTileLayer, words, layerBaseWords)
	if err != nil {
		return nil, err
	}

	tl := &TileLayer{
		Version: int(version),
		Width:   int(words[4]),
		Height:  int(words[5]),
		Kind:    TileKind(words[6]),
		Color: Color{
			R: int(words[7]),
			G: int(words[8]),
			B: int(words[9]),
			A: int(words[10]),
		},
		ColorEnv:       int(words[11]),
		ColorEnvOffset: int(words[12]),
		ImageIndex:     int(words[13]),
		Name:           l.optionalName(words),
		TeleTiles:      []TeleTile{},
		SpeedupTiles:   []SpeedupTile{},
	}

	data, err := r.Data(words[14])
	if err != nil {
		return nil, fmt.Errorf("tiles: %w", err)
	}
	if tl.Tiles, err = UnpackTiles(data); err != nil {
		return nil, err
	}

	switch tl.Kind {
	case TileKindTele:
		if data, ok, err := optionalBlock(words, l.teleAt, r); err != nil {
			return nil, fmt.Errorf("tele: %w", err)
		} else if ok {
			if tl.TeleTiles, err = UnpackTeleTiles(data); err != nil {
				return nil, err
			}
		}
	case TileKindSpeedup:
		if data, ok, err := optionalBlock(words, l.speedupAt, r); err != nil {
			return nil, fmt.Errorf("speedup: %w", err)
		} else if ok {
			if tl.SpeedupTiles, err = UnpackSpeedupTiles(data); err != nil {
				return nil, err
			}
		}
	}
	return tl, nil
}

// optionalBlock читает необязательную ссылку на блок. Отсутствующее слово
// или индекс вне [0, NumRawBlocks) дают ok == false без ошибки.
func optionalBlock(words []int32, at int, r *Resolver) ([]byte, bool, error) {
	idx, present := optionalWord(words, at)
	if !present || !r.InRange(idx) {
		return nil, false, nil
	}
	data, err := r.Data(idx)
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// IsGame сообщает, является ли слой игровым.
func (tl *TileLayer) IsGame() bool { return tl.Kind == TileKindGame }

// IsTele сообщает, является ли слой слоем телепортов.
func (tl *TileLayer) IsTele() bool { return tl.Kind == TileKindTele }

// IsSpeedup сообщает, является ли слой слоем ускорителей.
func (tl *TileLayer) IsSpeedup() bool { return tl.Kind == TileKindSpeedup }

// Image разрешает ссылку на изображение по списку изображений карты.
func (tl *TileLayer) Image(images []*Image) (*Image, error) {
	return resolveIndex("image", tl.ImageIndex, images)
}

// ColorEnvelope разрешает огибающую цвета слоя.
func (tl *TileLayer) ColorEnvelope(envelopes []*Envelope) (*Envelope, error) {
	return resolveIndex("envelope", tl.ColorEnv, envelopes)
}
