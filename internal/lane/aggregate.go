package lane

import (
	"fmt"
	"math"
	"sort"

	"lane-detector-go/pkg/models"

	"gonum.org/v1/gonum/stat"
)

// TrimMode определяет способ отсечения выбросов при усреднении
type TrimMode string

const (
	// TrimIndependent отсекает наклоны и смещения независимо друг от друга
	TrimIndependent TrimMode = "independent"
	// TrimJoint отсекает пары (наклон, смещение) по совместной z-оценке
	TrimJoint TrimMode = "joint"
)

// ParseTrimMode разбирает строковое значение режима
func ParseTrimMode(s string) (TrimMode, error) {
	switch TrimMode(s) {
	case "", TrimIndependent:
		return TrimIndependent, nil
	case TrimJoint:
		return TrimJoint, nil
	}
	return "", fmt.Errorf("%w: unknown trim mode %q", ErrInvalidConfiguration, s)
}

// ValidateClip проверяет, что процент отсечения лежит в [0, 50)
func ValidateClip(clip float64) error {
	if math.IsNaN(clip) || clip < 0 || clip >= 50 {
		return fmt.Errorf("%w: clip must be in [0, 50), got %g", ErrInvalidConfiguration, clip)
	}
	return nil
}

// trimBounds возвращает границы сохраняемого среза отсортированной последовательности длины n.
// Правая граница включительная, как у квартильного среднего.
func trimBounds(n int, clip float64) (lo, hi int) {
	lo = int(clip / 100.0 * float64(n))
	hi = int((100.0-clip)/100.0*float64(n)) + 1
	if hi > n {
		hi = n
	}
	return lo, hi
}

// TrimmedMean возвращает среднее значений после отбрасывания clip% наименьших и clip% наибольших.
// При clip = 25 это среднее между первым и третьим квартилями.
func TrimmedMean(values []float64, clip float64) (float64, error) {
	if err := ValidateClip(clip); err != nil {
		return 0, err
	}
	if len(values) == 0 {
		return 0, ErrInsufficientData
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	lo, hi := trimBounds(len(sorted), clip)
	return stat.Mean(sorted[lo:hi], nil), nil
}

// Aggregate сводит набор кандидатов к одной прямой
func Aggregate(set CandidateSet, clip float64, mode TrimMode) (models.LineModel, error) {
	if mode == TrimJoint {
		return jointTrimmedMean(set, clip)
	}

	slope, err := TrimmedMean(set.Slopes, clip)
	if err != nil {
		return models.LineModel{}, err
	}
	intercept, err := TrimmedMean(set.Intercepts, clip)
	if err != nil {
		return models.LineModel{}, err
	}
	return models.LineModel{Slope: slope, Intercept: intercept}, nil
}

// jointTrimmedMean ранжирует пары по расстоянию до центра в z-единицах и
// оставляет столько же пар, сколько независимое отсечение оставляет значений.
func jointTrimmedMean(set CandidateSet, clip float64) (models.LineModel, error) {
	if err := ValidateClip(clip); err != nil {
		return models.LineModel{}, err
	}
	n := set.Len()
	if n == 0 {
		return models.LineModel{}, ErrInsufficientData
	}

	sMean, sStd := stat.MeanStdDev(set.Slopes, nil)
	bMean, bStd := stat.MeanStdDev(set.Intercepts, nil)

	type pair struct {
		slope, intercept, score float64
	}
	pairs := make([]pair, n)
	for i := range pairs {
		s, b := set.Slopes[i], set.Intercepts[i]
		pairs[i] = pair{slope: s, intercept: b, score: math.Hypot(zScore(s, sMean, sStd), zScore(b, bMean, bStd))}
	}
	sort.SliceStable(pairs, func(i, j int) bool { return pairs[i].score < pairs[j].score })

	lo, hi := trimBounds(n, clip)
	keep := pairs[:hi-lo]

	slopes := make([]float64, len(keep))
	intercepts := make([]float64, len(keep))
	for i, p := range keep {
		slopes[i] = p.slope
		intercepts[i] = p.intercept
	}
	return models.LineModel{
		Slope:     stat.Mean(slopes, nil),
		Intercept: stat.Mean(intercepts, nil),
	}, nil
}

func zScore(v, mean, std float64) float64 {
	if std == 0 || math.IsNaN(std) {
		return 0
	}
	return (v - mean) / std
}
