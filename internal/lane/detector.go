package lane

import (
	"errors"
	"fmt"
	"math"

	"lane-detector-go/pkg/models"

	"github.com/sirupsen/logrus"
)

// Options настраивает детектор линий полосы
type Options struct {
	Clip          float64  // Процент отсечения с каждого края, [0, 50)
	SlopeBoundary float64  // Граница наклона между левой и правой сторонами
	TopRatio      float64  // Доля высоты кадра для верхней точки линии
	TrimMode      TrimMode // Режим отсечения выбросов
}

// DefaultOptions возвращает параметры, совпадающие с исходным поведением
func DefaultOptions() Options {
	return Options{
		Clip:          25,
		SlopeBoundary: 0,
		TopRatio:      DefaultTopRatio,
		TrimMode:      TrimIndependent,
	}
}

// Validate проверяет параметры детектора
func (o Options) Validate() error {
	if err := ValidateClip(o.Clip); err != nil {
		return err
	}
	if o.TopRatio <= 0 || o.TopRatio >= 1 {
		return fmt.Errorf("%w: top ratio must be in (0, 1), got %g", ErrInvalidConfiguration, o.TopRatio)
	}
	if _, err := ParseTrimMode(string(o.TrimMode)); err != nil {
		return err
	}
	return nil
}

// SideResult - результат построения линии для одной стороны
type SideResult struct {
	Side       Side
	Candidates int
	Line       *models.LineModel
	Geometry   *models.LaneGeometry
	Err        error
}

// OK сообщает, построена ли линия
func (r SideResult) OK() bool {
	return r.Err == nil && r.Geometry != nil
}

// Result - результат обработки одного кадра
type Result struct {
	Left       SideResult
	Right      SideResult
	Classified []ClassifiedSegment
}

// Err возвращает объединенную ошибку обеих сторон или nil
func (r Result) Err() error {
	return errors.Join(r.Left.Err, r.Right.Err)
}

// Detector строит линии полосы для отдельных кадров.
// Детектор не хранит состояния между кадрами и безопасен для параллельного использования.
type Detector struct {
	opts   Options
	logger logrus.FieldLogger
}

// NewDetector создает новый детектор
func NewDetector(opts Options, logger logrus.FieldLogger) (*Detector, error) {
	if opts.TrimMode == "" {
		opts.TrimMode = TrimIndependent
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Detector{opts: opts, logger: logger}, nil
}

// Options возвращает параметры детектора
func (d *Detector) Options() Options {
	return d.opts
}

// Detect строит левую и правую линии по сегментам кадра размером width x height
func (d *Detector) Detect(segments []models.Segment, width, height int) Result {
	return d.DetectWithClip(segments, width, height, d.opts.Clip)
}

// DetectWithClip работает как Detect, но с другим процентом отсечения
func (d *Detector) DetectWithClip(segments []models.Segment, width, height int, clip float64) Result {
	classifier := Classifier{Boundary: d.opts.SlopeBoundary}
	left, right, classified := classifier.Classify(segments)

	yTop, yBottom := VerticalSpan(height, d.opts.TopRatio)

	result := Result{
		Left:       d.buildSide(SideLeft, left, clip, yTop, yBottom),
		Right:      d.buildSide(SideRight, right, clip, yTop, yBottom),
		Classified: classified,
	}

	d.logger.WithFields(logrus.Fields{
		"segments": len(segments),
		"left":     left.Len(),
		"right":    right.Len(),
		"width":    width,
		"height":   height,
	}).Debug("Кадр обработан")

	return result
}

func (d *Detector) buildSide(side Side, set CandidateSet, clip, yTop, yBottom float64) SideResult {
	res := SideResult{Side: side, Candidates: set.Len()}

	line, err := Aggregate(set, clip, d.opts.TrimMode)
	if err != nil {
		res.Err = &Error{Side: side, Candidates: set.Len(), Err: err}
		d.logFailure(res, nil)
		return res
	}
	// среднее очень больших наклонов может переполниться до бесконечности
	if !finite(line.Slope) || !finite(line.Intercept) {
		res.Err = &Error{Side: side, Candidates: set.Len(), Err: ErrDegenerateGeometry}
		d.logFailure(res, nil)
		return res
	}
	res.Line = &line

	geometry, err := Extrapolate(line, yTop, yBottom)
	if err != nil {
		res.Err = &Error{
			Side:       side,
			Candidates: set.Len(),
			Line:       &LineSnapshot{Slope: line.Slope, Intercept: line.Intercept},
			Err:        err,
		}
		d.logFailure(res, &line)
		return res
	}
	res.Geometry = &geometry

	return res
}

func (d *Detector) logFailure(res SideResult, line *models.LineModel) {
	fields := logrus.Fields{
		"side":       res.Side.String(),
		"candidates": res.Candidates,
		"kind":       Kind(res.Err),
	}
	if line != nil {
		fields["slope"] = line.Slope
		fields["angle"] = math.Atan(line.Slope) * 180 / math.Pi
		fields["intercept"] = line.Intercept
	}
	d.logger.WithFields(fields).Warn("Не удалось построить линию полосы")
}
