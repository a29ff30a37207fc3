package lane

import (
	"lane-detector-go/pkg/models"
)

// DefaultTopRatio - доля высоты кадра, с которой начинается линия полосы.
// Выше обычно небо, ниже - дорога.
const DefaultTopRatio = 0.60

// VerticalSpan возвращает y_top и y_bottom для кадра заданной высоты
func VerticalSpan(height int, topRatio float64) (yTop, yBottom float64) {
	return topRatio * float64(height), float64(height)
}

// Extrapolate продлевает прямую до вертикального диапазона [yTop, yBottom].
// Горизонтальная прямая или прямая, дающая бесконечные координаты, не строится.
func Extrapolate(line models.LineModel, yTop, yBottom float64) (models.LaneGeometry, error) {
	if line.Slope == 0 || !finite(line.Slope) || !finite(line.Intercept) {
		return models.LaneGeometry{}, ErrDegenerateGeometry
	}

	top := models.Point{X: line.XAt(yTop), Y: yTop}
	bottom := models.Point{X: line.XAt(yBottom), Y: yBottom}
	if !finite(top.X) || !finite(bottom.X) {
		return models.LaneGeometry{}, ErrDegenerateGeometry
	}
	return models.LaneGeometry{Top: top, Bottom: bottom}, nil
}
