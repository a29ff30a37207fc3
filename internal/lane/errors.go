package lane

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrInvalidConfiguration возвращается при clip вне диапазона [0, 50)
	ErrInvalidConfiguration = errors.New("invalid configuration")
	// ErrInsufficientData возвращается, если для стороны не осталось кандидатов
	ErrInsufficientData = errors.New("insufficient data")
	// ErrDegenerateGeometry возвращается, если усредненный наклон равен нулю
	ErrDegenerateGeometry = errors.New("degenerate geometry")
)

// Error описывает отказ построения линии для одной стороны
type Error struct {
	Side       Side
	Candidates int
	Line       *LineSnapshot
	Err        error
}

// LineSnapshot хранит усредненные значения на момент отказа
type LineSnapshot struct {
	Slope     float64
	Intercept float64
}

func (e *Error) Error() string {
	if e.Line == nil {
		return fmt.Sprintf("%s lane: %v (candidates=%d)", e.Side, e.Err, e.Candidates)
	}
	angle := math.Atan(e.Line.Slope) * 180 / math.Pi
	return fmt.Sprintf("%s lane: %v (candidates=%d, slope=%g, angle=%.2f°, intercept=%g)",
		e.Side, e.Err, e.Candidates, e.Line.Slope, angle, e.Line.Intercept)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Kind возвращает стабильное имя типа ошибки для передачи клиентам
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidConfiguration):
		return "invalid_configuration"
	case errors.Is(err, ErrInsufficientData):
		return "insufficient_data"
	case errors.Is(err, ErrDegenerateGeometry):
		return "degenerate_geometry"
	default:
		return "internal"
	}
}
