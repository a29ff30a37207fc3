// Package lane строит левую и правую линии полосы по набору зашумленных сегментов.
package lane

import (
	"math"

	"lane-detector-go/pkg/models"
)

// Side определяет сторону полосы
type Side int

const (
	SideLeft Side = iota
	SideRight
)

func (s Side) String() string {
	if s == SideLeft {
		return "left"
	}
	return "right"
}

// CandidateSet хранит наклоны и смещения принятых сегментов одной стороны.
// Slopes и Intercepts всегда имеют одинаковую длину.
type CandidateSet struct {
	Slopes     []float64
	Intercepts []float64
}

// Len возвращает количество кандидатов
func (c *CandidateSet) Len() int {
	return len(c.Slopes)
}

func (c *CandidateSet) add(slope, intercept float64) {
	c.Slopes = append(c.Slopes, slope)
	c.Intercepts = append(c.Intercepts, intercept)
}

// ClassifiedSegment - сегмент, отнесенный к одной из сторон
type ClassifiedSegment struct {
	Segment models.Segment
	Side    Side
}

// Classifier раскладывает сегменты по сторонам полосы.
// Сегмент с наклоном меньше Boundary относится к левой стороне, иначе к правой.
// Boundary = 0 соответствует камере, установленной по центру.
type Classifier struct {
	Boundary float64
}

// Classify вычисляет наклон и смещение каждого сегмента и распределяет их по сторонам.
// Вертикальные и горизонтальные сегменты отбрасываются.
func (c Classifier) Classify(segments []models.Segment) (left, right CandidateSet, classified []ClassifiedSegment) {
	for _, seg := range segments {
		line, ok := Fit(seg)
		if !ok {
			continue
		}

		side := SideRight
		if line.Slope < c.Boundary {
			side = SideLeft
		}

		if side == SideLeft {
			left.add(line.Slope, line.Intercept)
		} else {
			right.add(line.Slope, line.Intercept)
		}
		classified = append(classified, ClassifiedSegment{Segment: seg, Side: side})
	}

	return left, right, classified
}

// Fit возвращает прямую, проходящую через концы сегмента.
// ok = false, если ширина или высота сегмента равна нулю
// или параметры прямой не представимы конечными числами.
func Fit(seg models.Segment) (models.LineModel, bool) {
	dx := seg.X1 - seg.X2
	dy := seg.Y1 - seg.Y2
	if dx == 0 || dy == 0 {
		return models.LineModel{}, false
	}

	slope := dy / dx
	intercept := seg.Y1 - slope*seg.X1
	if !finite(slope) || !finite(intercept) {
		return models.LineModel{}, false
	}
	return models.LineModel{
		Slope:     slope,
		Intercept: intercept,
	}, true
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
