package mapitem

import "fmt"

// CurveType - вид интерполяции между точками огибающей.
type CurveType int

const (
	CurveStep CurveType = iota
	CurveLinear
	CurveSlow
	CurveFast
	CurveSmooth
	CurveBezier
)

// EnvpointWords - размер одной точки огибающей в словах.
const EnvpointWords = 6

// Envpoint - ключевая точка огибающей.
type Envpoint struct {
	Time   int
	Curve  CurveType
	Values [4]int
}

// DecodeEnvpoint читает одну точку из ровно шести слов.
func DecodeEnvpoint(words []int32) (Envpoint, error) {
	if len(words) != EnvpointWords {
		return Envpoint{}, fmt.Errorf("%w: envpoint has %d words, want %d", ErrMalformedRecord, len(words), EnvpointWords)
	}
	p := Envpoint{Time: int(words[0]), Curve: CurveType(words[1])}
	for i := range p.Values {
		p.Values[i] = int(words[2+i])
	}
	return p, nil
}

// DecodeEnvpoints декодирует элемент, хранящий все точки огибающих подряд.
// Результат - общий пул, из которого огибающие берут свои диапазоны.
func DecodeEnvpoints(item Item) ([]Envpoint, error) {
	points, err := decodeEnvpoints(item)
	return points, wrapItem(KindEnvpoints, item.ID, err)
}

func decodeEnvpoints(item Item) ([]Envpoint, error) {
	words, err := ItemWords(item)
	if err != nil {
		return nil, err
	}
	recs, err := chunkRecords(words, EnvpointWords, "envpoint")
	if err != nil {
		return nil, err
	}
	points := make([]Envpoint, 0, len(recs))
	for _, rec := range recs {
		p, err := DecodeEnvpoint(rec)
		if err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	return points, nil
}

// Envelope - именованная огибающая анимации.
type Envelope struct {
	Version      int
	Channels     int
	Name         string
	Synchronized bool
	StartPoint   int
	NumPoints    int
	// Points - окно в общий пул точек, огибающая им не владеет.
	Points []Envpoint
}

// DecodeEnvelope декодирует огибающую и берёт её точки из pool
// по диапазону [start, start+count). Диапазон за пределами пула обрезается.
func DecodeEnvelope(item Item, pool []Envpoint) (*Envelope, error) {
	env, err := decodeEnvelope(item, pool)
	return env, wrapItem(KindEnvelope, item.ID, err)
}

func decodeEnvelope(item Item, pool []Envpoint) (*Envelope, error) {
	words, err := ItemWords(item)
	if err != nil {
		return nil, err
	}
	l, version, err := checkLayout(layoutEnvelope, words, 0)
	if err != nil {
		return nil, err
	}

	env := &Envelope{
		Version:    int(version),
		Channels:   int(words[1]),
		StartPoint: int(words[2]),
		NumPoints:  int(words[3]),
		Name:       l.optionalName(words),
	}
	if sync, ok := optionalWord(words, l.extraAt); ok {
		env.Synchronized = sync != 0
	}

	start, end := clampRange(env.StartPoint, env.NumPoints, len(pool))
	env.Points = pool[start:end:end]
	return env, nil
}

func clampRange(start, count, n int) (int, int) {
	if start < 0 {
		start = 0
	}
	if start > n {
		start = n
	}
	if count < 0 {
		count = 0
	}
	end := start + count
	if end > n || end < start {
		end = n
	}
	return start, end
}
