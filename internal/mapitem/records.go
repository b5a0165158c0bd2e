package mapitem

import "fmt"

// Ширина записей в распакованных блоках.
const (
	QuadWords        = 38
	TileBytes        = 4
	TeleTileBytes    = 3
	SpeedupTileBytes = 2
)

// Tile - запись основного тайлового блока. Байты не интерпретируются.
type Tile [TileBytes]byte

// TeleTile - запись блока телепортов.
type TeleTile [TeleTileBytes]byte

// SpeedupTile - запись блока ускорителей.
type SpeedupTile [SpeedupTileBytes]byte

// chunkRecords делит плоский буфер на записи фиксированной ширины.
// Остаток, не кратный ширине, считается повреждением блока.
func chunkRecords[T any](buf []T, width int, what string) ([][]T, error) {
	if len(buf)%width != 0 {
		return nil, fmt.Errorf("%w: %s block of %d units is not a multiple of %d", ErrMalformedRecord, what, len(buf), width)
	}
	out := make([][]T, 0, len(buf)/width)
	for i := 0; i < len(buf); i += width {
		out = append(out, buf[i:i+width:i+width])
	}
	return out, nil
}

// UnpackTiles делит блок тайлов на 4-байтовые записи.
func UnpackTiles(data []byte) ([]Tile, error) {
	recs, err := chunkRecords(data, TileBytes, "tile")
	if err != nil {
		return nil, err
	}
	tiles := make([]Tile, len(recs))
	for i, rec := range recs {
		copy(tiles[i][:], rec)
	}
	return tiles, nil
}

// UnpackTeleTiles делит блок телепортов на 3-байтовые записи.
func UnpackTeleTiles(data []byte) ([]TeleTile, error) {
	recs, err := chunkRecords(data, TeleTileBytes, "tele")
	if err != nil {
		return nil, err
	}
	tiles := make([]TeleTile, len(recs))
	for i, rec := range recs {
		copy(tiles[i][:], rec)
	}
	return tiles, nil
}

// UnpackSpeedupTiles делит блок ускорителей на 2-байтовые записи.
func UnpackSpeedupTiles(data []byte) ([]SpeedupTile, error) {
	recs, err := chunkRecords(data, SpeedupTileBytes, "speedup")
	if err != nil {
		return nil, err
	}
	tiles := make([]SpeedupTile, len(recs))
	for i, rec := range recs {
		copy(tiles[i][:], rec)
	}
	return tiles, nil
}

// UnpackQuads делит блок квадов на записи по 38 слов.
func UnpackQuads(data []byte) ([]Quad, error) {
	if len(data) == 0 {
		return []Quad{}, nil
	}
	words, err := Words(len(data), data)
	if err != nil {
		return nil, fmt.Errorf("quad block: %w", err)
	}
	recs, err := chunkRecords(words, QuadWords, "quad")
	if err != nil {
		return nil, err
	}
	quads := make([]Quad, len(recs))
	for i, rec := range recs {
		quads[i] = quadFromRecord(rec)
	}
	return quads, nil
}
