package lane

import (
	"testing"

	"lane-detector-go/pkg/models"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFit(t *testing.T) {
	line, ok := Fit(models.Segment{X1: 100, Y1: 600, X2: 150, Y2: 500})
	require.True(t, ok)
	assert.Equal(t, -2.0, line.Slope)
	assert.Equal(t, 800.0, line.Intercept)

	_, ok = Fit(models.Segment{X1: 10, Y1: 0, X2: 10, Y2: 50})
	assert.False(t, ok, "vertical segment")

	_, ok = Fit(models.Segment{X1: 0, Y1: 5, X2: 40, Y2: 5})
	assert.False(t, ok, "horizontal segment")
}

func TestFitRejectsNonFiniteLine(t *testing.T) {
	// ширина сегмента - денормализованное число, наклон переполняется
	_, ok := Fit(models.Segment{X1: 0, Y1: 0, X2: 1e-320, Y2: 1})
	assert.False(t, ok)

	left, right, classified := Classifier{}.Classify([]models.Segment{{X1: 0, Y1: 0, X2: 1e-320, Y2: 1}})
	assert.Zero(t, left.Len())
	assert.Zero(t, right.Len())
	assert.Empty(t, classified)
}

func TestClassifySingleLeftSegment(t *testing.T) {
	left, right, classified := Classifier{}.Classify([]models.Segment{{X1: 100, Y1: 600, X2: 150, Y2: 500}})

	want := CandidateSet{Slopes: []float64{-2.0}, Intercepts: []float64{800}}
	if diff := cmp.Diff(want, left); diff != "" {
		t.Errorf("left candidates mismatch (-want +got):\n%s", diff)
	}
	assert.Zero(t, right.Len())
	require.Len(t, classified, 1)
	assert.Equal(t, SideLeft, classified[0].Side)
}

func TestClassifyPartition(t *testing.T) {
	segments := []models.Segment{
		{X1: 100, Y1: 600, X2: 150, Y2: 500}, // left
		{X1: 500, Y1: 400, X2: 600, Y2: 500}, // right
		{X1: 300, Y1: 300, X2: 300, Y2: 500}, // vertical
		{X1: 200, Y1: 450, X2: 260, Y2: 450}, // horizontal
		{X1: 180, Y1: 520, X2: 120, Y2: 580}, // left, points reversed
		{X1: 0, Y1: 0, X2: 0, Y2: 0},         // point
		{X1: 700, Y1: 600, X2: 640, Y2: 540}, // right, points reversed
	}

	left, right, classified := Classifier{}.Classify(segments)

	assert.Equal(t, 2, left.Len())
	assert.Equal(t, 2, right.Len())
	assert.Len(t, left.Intercepts, left.Len())
	assert.Len(t, right.Intercepts, right.Len())
	require.Len(t, classified, 4)

	for _, s := range left.Slopes {
		assert.Less(t, s, 0.0)
	}
	for _, s := range right.Slopes {
		assert.GreaterOrEqual(t, s, 0.0)
	}

	// каждый невырожденный сегмент попадает ровно в одну сторону
	seen := map[models.Segment]int{}
	for _, c := range classified {
		seen[c.Segment]++
	}
	for i, seg := range segments {
		_, ok := Fit(seg)
		if ok {
			assert.Equal(t, 1, seen[seg], "segment %d", i)
		} else {
			assert.Zero(t, seen[seg], "segment %d", i)
		}
	}
}

func TestClassifyBoundary(t *testing.T) {
	segments := []models.Segment{
		{X1: 0, Y1: 0, X2: 10, Y2: 5},  // slope 0.5
		{X1: 0, Y1: 0, X2: 10, Y2: 20}, // slope 2
		{X1: 0, Y1: 0, X2: 10, Y2: -5}, // slope -0.5
	}

	left, right, _ := Classifier{Boundary: 1}.Classify(segments)
	assert.Equal(t, []float64{0.5, -0.5}, left.Slopes)
	assert.Equal(t, []float64{2}, right.Slopes)
}

func TestClassifyEmpty(t *testing.T) {
	left, right, classified := Classifier{}.Classify(nil)
	assert.Zero(t, left.Len())
	assert.Zero(t, right.Len())
	assert.Empty(t, classified)
}
