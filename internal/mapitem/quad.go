package mapitem

import "github.com/annel0/teemap/internal/vec"

// TexUnit - единица текстурной координаты в фиксированной точке.
const TexUnit = 1 << 10

// Color - цвет RGBA, компоненты 0-255.
type Color struct {
	R, G, B, A int
}

// White - непрозрачный белый, цвет углов квада по умолчанию.
var White = Color{R: 255, G: 255, B: 255, A: 255}

// Quad - один квад векторного слоя: четыре угла и центр (пятая точка).
type Quad struct {
	Points         [5]vec.Vec2
	Colors         [4]Color
	TexCoords      [4]vec.Vec2
	PosEnv         int
	PosEnvOffset   int
	ColorEnv       int
	ColorEnvOffset int
}

// NewQuad собирает квад из плоских массивов: 10 координат точек, 16 компонент
// цветов и 8 текстурных координат. Пустой массив заменяется значением по умолчанию.
func NewQuad(points, colors, texcoords []int32, posEnv, posEnvOffset, colorEnv, colorEnvOffset int) Quad {
	q := DefaultQuad()
	if len(points) >= 10 {
		for i := range q.Points {
			q.Points[i] = vec.Vec2{X: int(points[i*2]), Y: int(points[i*2+1])}
		}
	}
	if len(colors) >= 16 {
		for i := range q.Colors {
			q.Colors[i] = Color{
				R: int(colors[i*4]),
				G: int(colors[i*4+1]),
				B: int(colors[i*4+2]),
				A: int(colors[i*4+3]),
			}
		}
	}
	if len(texcoords) >= 8 {
		for i := range q.TexCoords {
			q.TexCoords[i] = vec.Vec2{X: int(texcoords[i*2]), Y: int(texcoords[i*2+1])}
		}
	}
	q.PosEnv = posEnv
	q.PosEnvOffset = posEnvOffset
	q.ColorEnv = colorEnv
	q.ColorEnvOffset = colorEnvOffset
	return q
}

// DefaultQuad возвращает квад в начале координат, белый, с полной текстурой
// и без огибающих.
func DefaultQuad() Quad {
	return Quad{
		Colors: [4]Color{White, White, White, White},
		TexCoords: [4]vec.Vec2{
			{X: 0, Y: 0},
			{X: TexUnit, Y: 0},
			{X: 0, Y: TexUnit},
			{X: TexUnit, Y: TexUnit},
		},
		PosEnv:   NoIndex,
		ColorEnv: NoIndex,
	}
}

func quadFromRecord(rec []int32) Quad {
	return NewQuad(rec[0:10], rec[10:26], rec[26:34],
		int(rec[34]), int(rec[35]), int(rec[36]), int(rec[37]))
}
