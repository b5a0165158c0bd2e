package vec

import "fmt"

// Vec2 представляет 2D координаты в единицах карты.
// Точки квадов хранятся в фиксированной точке (1 тайл = 32<<10).
type Vec2 struct {
	X, Y int
}

// String возвращает строковое представление вектора
func (v Vec2) String() string {
	return fmt.Sprintf("(%d,%d)", v.X, v.Y)
}
