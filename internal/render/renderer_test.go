package render

import (
	"bytes"
	"image/color"
	"image/png"
	"testing"

	"lane-detector-go/internal/lane"
	"lane-detector-go/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var transparent = color.RGBA{}

func TestNewCanvasIsBlank(t *testing.T) {
	c := NewCanvas(64, 48)
	assert.True(t, c.IsBlank())
	assert.Equal(t, 64, c.Bounds().Dx())
	assert.Equal(t, 48, c.Bounds().Dy())
}

func TestDrawLine(t *testing.T) {
	c := NewCanvas(100, 100)

	ok := DrawLine(c, models.Point{X: 50, Y: 10}, models.Point{X: 50, Y: 90}, Style{Color: Red, Thickness: 6})
	require.True(t, ok)

	assert.Equal(t, Red, c.Image().RGBAAt(50, 50))
	assert.Equal(t, Red, c.Image().RGBAAt(48, 20))
	assert.Equal(t, transparent, c.Image().RGBAAt(10, 50))
	assert.Equal(t, transparent, c.Image().RGBAAt(50, 95))
}

func TestDrawLineOutsideCanvas(t *testing.T) {
	c := NewCanvas(100, 100)

	ok := DrawLine(c, models.Point{X: -500, Y: -10}, models.Point{X: -400, Y: -200}, Style{Color: Red, Thickness: 6})
	assert.False(t, ok)
	assert.True(t, c.IsBlank())
}

func TestDrawLinePartiallyOutside(t *testing.T) {
	c := NewCanvas(100, 100)

	// экстраполированная линия может выходить за кадр
	ok := DrawLine(c, models.Point{X: -200, Y: 50}, models.Point{X: 300, Y: 50}, Style{Color: Blue, Thickness: 4})
	require.True(t, ok)
	assert.Equal(t, Blue, c.Image().RGBAAt(0, 50))
	assert.Equal(t, Blue, c.Image().RGBAAt(99, 50))
	assert.Equal(t, transparent, c.Image().RGBAAt(50, 10))
}

func TestDrawLineZeroThickness(t *testing.T) {
	c := NewCanvas(10, 10)
	assert.False(t, DrawLine(c, models.Point{X: 1, Y: 1}, models.Point{X: 8, Y: 8}, Style{Color: Red}))
	assert.True(t, c.IsBlank())
}

func TestDrawLanesToleratesMissingSide(t *testing.T) {
	r := NewRenderer(DefaultLaneStyle())
	c := NewCanvas(200, 100)

	left := &models.LaneGeometry{Top: models.Point{X: 80, Y: 60}, Bottom: models.Point{X: 20, Y: 100}}
	assert.Equal(t, 1, r.DrawLanes(c, left, nil))
	assert.False(t, c.IsBlank())

	blank := NewCanvas(200, 100)
	assert.Equal(t, 0, r.DrawLanes(blank, nil, nil))
	assert.True(t, blank.IsBlank())
}

func TestDrawSegmentsUsesSideColours(t *testing.T) {
	r := NewRenderer(DefaultLaneStyle())
	r.LeftRaw.Thickness = 4
	r.RightRaw.Thickness = 4
	c := NewCanvas(100, 100)

	r.DrawSegments(c, []lane.ClassifiedSegment{
		{Segment: models.Segment{X1: 20, Y1: 10, X2: 20, Y2: 90}, Side: lane.SideLeft},
		{Segment: models.Segment{X1: 80, Y1: 10, X2: 80, Y2: 90}, Side: lane.SideRight},
	})

	assert.Equal(t, Red, c.Image().RGBAAt(20, 50))
	assert.Equal(t, Green, c.Image().RGBAAt(80, 50))
}

func TestDrawQuadrilateral(t *testing.T) {
	c := NewCanvas(100, 100)

	DrawQuadrilateral(c, [4]models.Point{{X: 10, Y: 10}, {X: 90, Y: 10}, {X: 90, Y: 90}, {X: 10, Y: 90}},
		Style{Color: White, Thickness: 2})

	assert.Equal(t, White, c.Image().RGBAAt(50, 10))
	assert.Equal(t, White, c.Image().RGBAAt(90, 50))
	assert.Equal(t, transparent, c.Image().RGBAAt(50, 50))
}

func TestPoolResetsCanvas(t *testing.T) {
	var p Pool

	c := p.Get(40, 30)
	DrawLine(c, models.Point{X: 0, Y: 15}, models.Point{X: 40, Y: 15}, Style{Color: Red, Thickness: 4})
	require.False(t, c.IsBlank())
	p.Put(c)

	assert.True(t, c.IsBlank())
	next := p.Get(40, 30)
	assert.True(t, next.IsBlank())

	other := p.Get(10, 10)
	assert.Equal(t, 10, other.Bounds().Dx())
}

func TestEncodePNG(t *testing.T) {
	c := NewCanvas(32, 16)
	DrawLine(c, models.Point{X: 0, Y: 8}, models.Point{X: 32, Y: 8}, Style{Color: Red, Thickness: 2})

	var buf bytes.Buffer
	require.NoError(t, c.EncodePNG(&buf))

	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, c.Bounds(), img.Bounds())
}

func TestClipSegment(t *testing.T) {
	a, b, ok := clipSegment(models.Point{X: -10, Y: 5}, models.Point{X: 20, Y: 5}, 0, 0, 10, 10)
	require.True(t, ok)
	assert.InDelta(t, 0, a.X, 1e-9)
	assert.InDelta(t, 10, b.X, 1e-9)
	assert.Equal(t, 5.0, a.Y)
	assert.Equal(t, 5.0, b.Y)

	_, _, ok = clipSegment(models.Point{X: -10, Y: 20}, models.Point{X: 20, Y: 20}, 0, 0, 10, 10)
	assert.False(t, ok)
}
