package mapitem

import "fmt"

// layout описывает раскладку слов одного типа элемента для группы версий.
// Все смещения - индексы слов; -1 означает, что поля в этой раскладке нет.
type layout struct {
	minWords  int // обязательные поля
	nameAt    int // начало упакованного имени
	nameWords int
	extraAt   int // необязательное одиночное поле (format, synchronized, settings)
	teleAt    int
	speedupAt int
}

type layoutKey struct {
	kind   layoutKind
	bucket int
}

type layoutKind int

const (
	layoutInfo layoutKind = iota
	layoutImage
	layoutEnvelope
	layoutGroup
	layoutQuadLayer
	layoutTileLayer
)

// Номер слова, с которого начинаются поля конкретного вида слоя.
const layerBaseWords = 3

var layouts = map[layoutKey]layout{
	{layoutInfo, 0}: {minWords: 5, nameAt: -1, extraAt: 5, teleAt: -1, speedupAt: -1},

	{layoutImage, 0}: {minWords: 6, nameAt: -1, extraAt: -1, teleAt: -1, speedupAt: -1},
	{layoutImage, 1}: {minWords: 6, nameAt: -1, extraAt: 6, teleAt: -1, speedupAt: -1},

	{layoutEnvelope, 0}: {minWords: 4, nameAt: 4, nameWords: 8, extraAt: -1, teleAt: -1, speedupAt: -1},
	{layoutEnvelope, 1}: {minWords: 4, nameAt: 4, nameWords: 8, extraAt: 12, teleAt: -1, speedupAt: -1},

	{layoutGroup, 0}: {minWords: 12, nameAt: -1, extraAt: -1, teleAt: -1, speedupAt: -1},
	{layoutGroup, 1}: {minWords: 12, nameAt: 12, nameWords: 3, extraAt: -1, teleAt: -1, speedupAt: -1},

	{layoutQuadLayer, 0}: {minWords: 7, nameAt: -1, extraAt: -1, teleAt: -1, speedupAt: -1},
	{layoutQuadLayer, 1}: {minWords: 7, nameAt: 7, nameWords: 3, extraAt: -1, teleAt: -1, speedupAt: -1},

	// Старые тайловые слои хранят tele/speedup сразу после индекса тайлов,
	// новые - после имени.
	{layoutTileLayer, 0}: {minWords: 15, nameAt: -1, extraAt: -1, teleAt: 15, speedupAt: 16},
	{layoutTileLayer, 1}: {minWords: 15, nameAt: 15, nameWords: 3, extraAt: -1, teleAt: 18, speedupAt: 19},
}

// versionBucket сводит версию элемента к группе с одинаковой раскладкой.
func versionBucket(kind layoutKind, version int32) int {
	switch kind {
	case layoutImage, layoutEnvelope:
		if version >= 2 {
			return 1
		}
	case layoutGroup, layoutTileLayer:
		if version >= 3 {
			return 1
		}
	case layoutQuadLayer:
		if version >= 2 {
			return 1
		}
	}
	return 0
}

func lookupLayout(kind layoutKind, version int32) layout {
	return layouts[layoutKey{kind: kind, bucket: versionBucket(kind, version)}]
}

// checkLayout проверяет, что запись содержит все обязательные поля.
// versionAt - индекс слова версии, который должен быть прочитан до выбора раскладки.
func checkLayout(kind layoutKind, words []int32, versionAt int) (layout, int32, error) {
	if len(words) <= versionAt {
		return layout{}, 0, fmt.Errorf("%w: %d words, version word at %d", ErrVersionLayoutMismatch, len(words), versionAt)
	}
	version := words[versionAt]
	l := lookupLayout(kind, version)
	if len(words) < l.minWords {
		return layout{}, 0, fmt.Errorf("%w: version %d needs %d words, got %d", ErrVersionLayoutMismatch, version, l.minWords, len(words))
	}
	return l, version, nil
}

// optionalWord возвращает слово по смещению, если запись его содержит.
func optionalWord(words []int32, at int) (int32, bool) {
	if at < 0 || at >= len(words) {
		return 0, false
	}
	return words[at], true
}

// optionalName декодирует упакованное имя, если оно полностью помещается в запись.
func (l layout) optionalName(words []int32) string {
	if l.nameAt < 0 || len(words) < l.nameAt+l.nameWords {
		return ""
	}
	return UnpackName(words[l.nameAt : l.nameAt+l.nameWords])
}
