package render

import (
	"image"
	"image/color"
	"math"

	"lane-detector-go/internal/lane"
	"lane-detector-go/pkg/models"

	"golang.org/x/image/vector"
)

// Цвета по умолчанию
var (
	Red   = color.RGBA{R: 255, G: 0, B: 0, A: 255}
	Green = color.RGBA{R: 0, G: 255, B: 0, A: 255}
	Blue  = color.RGBA{R: 0, G: 0, B: 255, A: 255}
	White = color.RGBA{R: 255, G: 255, B: 255, A: 255}
)

// Style задает цвет и толщину линии
type Style struct {
	Color     color.RGBA
	Thickness float64
}

// DefaultLaneStyle - стиль линий полосы по умолчанию
func DefaultLaneStyle() Style {
	return Style{Color: Red, Thickness: 6}
}

// Renderer рисует линии полосы и, при необходимости, исходные сегменты
type Renderer struct {
	Lane     Style
	LeftRaw  Style
	RightRaw Style
}

// NewRenderer создает рендерер с заданным стилем линий полосы
func NewRenderer(laneStyle Style) *Renderer {
	return &Renderer{
		Lane:     laneStyle,
		LeftRaw:  Style{Color: Red, Thickness: 2},
		RightRaw: Style{Color: Green, Thickness: 2},
	}
}

// DrawLanes рисует имеющиеся стороны полосы. nil-сторона пропускается.
// Возвращает количество нарисованных линий.
func (r *Renderer) DrawLanes(c *Canvas, left, right *models.LaneGeometry) int {
	drawn := 0
	for _, g := range []*models.LaneGeometry{left, right} {
		if g == nil {
			continue
		}
		if DrawLine(c, g.Top, g.Bottom, r.Lane) {
			drawn++
		}
	}
	return drawn
}

// DrawSegments рисует классифицированные сегменты цветом их стороны
func (r *Renderer) DrawSegments(c *Canvas, classified []lane.ClassifiedSegment) {
	for _, cs := range classified {
		style := r.RightRaw
		if cs.Side == lane.SideLeft {
			style = r.LeftRaw
		}
		seg := cs.Segment
		DrawLine(c, models.Point{X: seg.X1, Y: seg.Y1}, models.Point{X: seg.X2, Y: seg.Y2}, style)
	}
}

// DrawQuadrilateral рисует контур четырехугольника, например области интереса
func DrawQuadrilateral(c *Canvas, pts [4]models.Point, style Style) {
	for i := range pts {
		DrawLine(c, pts[i], pts[(i+1)%len(pts)], style)
	}
}

// DrawLine рисует отрезок заданной толщины. Отрезок обрезается по границам холста,
// расширенным на толщину линии. Возвращает false, если рисовать нечего.
func DrawLine(c *Canvas, a, b models.Point, style Style) bool {
	if style.Thickness <= 0 {
		return false
	}
	half := style.Thickness / 2

	bounds := c.Bounds()
	a, b, ok := clipSegment(a, b,
		float64(bounds.Min.X)-half, float64(bounds.Min.Y)-half,
		float64(bounds.Max.X)+half, float64(bounds.Max.Y)+half)
	if !ok {
		return false
	}

	dx, dy := b.X-a.X, b.Y-a.Y
	length := math.Hypot(dx, dy)
	if length == 0 {
		return false
	}
	// нормаль к отрезку длиной half
	nx, ny := -dy/length*half, dx/length*half

	z := vector.NewRasterizer(bounds.Dx(), bounds.Dy())
	ox, oy := float64(bounds.Min.X), float64(bounds.Min.Y)
	z.MoveTo(float32(a.X+nx-ox), float32(a.Y+ny-oy))
	z.LineTo(float32(b.X+nx-ox), float32(b.Y+ny-oy))
	z.LineTo(float32(b.X-nx-ox), float32(b.Y-ny-oy))
	z.LineTo(float32(a.X-nx-ox), float32(a.Y-ny-oy))
	z.ClosePath()
	z.Draw(c.img, bounds, image.NewUniform(style.Color), image.Point{})

	return true
}

// clipSegment обрезает отрезок прямоугольником (алгоритм Лианга-Барски)
func clipSegment(a, b models.Point, minX, minY, maxX, maxY float64) (models.Point, models.Point, bool) {
	dx, dy := b.X-a.X, b.Y-a.Y
	t0, t1 := 0.0, 1.0

	edges := [4][2]float64{
		{-dx, a.X - minX},
		{dx, maxX - a.X},
		{-dy, a.Y - minY},
		{dy, maxY - a.Y},
	}
	for _, e := range edges {
		p, q := e[0], e[1]
		if p == 0 {
			if q < 0 {
				return a, b, false
			}
			continue
		}
		t := q / p
		if p < 0 {
			if t > t1 {
				return a, b, false
			}
			if t > t0 {
				t0 = t
			}
		} else {
			if t < t0 {
				return a, b, false
			}
			if t < t1 {
				t1 = t
			}
		}
	}

	return models.Point{X: a.X + t0*dx, Y: a.Y + t0*dy},
		models.Point{X: a.X + t1*dx, Y: a.Y + t1*dy}, true
}
