package models

// Point представляет точку в пиксельных координатах (ось Y направлена вниз)
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Segment представляет короткий отрезок, найденный детектором сегментов
type Segment struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

// LineModel описывает прямую y = Slope*x + Intercept
type LineModel struct {
	Slope     float64 `json:"slope"`     // Наклон
	Intercept float64 `json:"intercept"` // Смещение по оси Y
}

// XAt возвращает координату X прямой на высоте y
func (l LineModel) XAt(y float64) float64 {
	return (y - l.Intercept) / l.Slope
}

// LaneGeometry содержит экстраполированные концы линии полосы
type LaneGeometry struct {
	Top    Point `json:"top"`    // Верхняя точка (TopRatio высоты кадра)
	Bottom Point `json:"bottom"` // Нижняя точка (низ кадра)
}

// DetectRequest представляет запрос на поиск линий полосы в одном кадре
type DetectRequest struct {
	Width    int       `json:"width"`          // Ширина кадра в пикселях
	Height   int       `json:"height"`         // Высота кадра в пикселях
	Segments []Segment `json:"segments"`       // Сегменты от внешнего детектора
	Render   bool      `json:"render"`         // Сохранять ли overlay в PNG
	Clip     *float64  `json:"clip,omitempty"` // Переопределение процента отсечения
}

// LaneResult содержит результат для одной стороны полосы
type LaneResult struct {
	Side       string        `json:"side"`                 // left или right
	Candidates int           `json:"candidates"`           // Количество сегментов-кандидатов
	Line       *LineModel    `json:"line,omitempty"`       // Усредненная прямая
	Geometry   *LaneGeometry `json:"geometry,omitempty"`   // Концы линии
	Error      string        `json:"error,omitempty"`      // Текст ошибки
	ErrorKind  string        `json:"error_kind,omitempty"` // Тип ошибки
}

// DetectResponse представляет ответ на DetectRequest
type DetectResponse struct {
	FrameID    string     `json:"frame_id"`              // ID кадра
	Status     string     `json:"status"`                // success или failed
	Message    string     `json:"message"`               // Сообщение о результате
	Left       LaneResult `json:"left"`                  // Левая линия
	Right      LaneResult `json:"right"`                 // Правая линия
	OverlayURL string     `json:"overlay_url,omitempty"` // Путь к overlay PNG
}

// SegmentAPIResponse определяет структуру ответа внешнего сервиса детекции сегментов
type SegmentAPIResponse struct {
	Status   string    `json:"status"`   // Статус выполнения
	Message  string    `json:"message"`  // Сообщение
	Width    int       `json:"width"`    // Ширина кадра
	Height   int       `json:"height"`   // Высота кадра
	Segments []Segment `json:"segments"` // Найденные сегменты
}

// HealthResponse представляет ответ проверки здоровья сервиса
type HealthResponse struct {
	Status        string `json:"status"`         // healthy или unhealthy
	Database      bool   `json:"database"`       // Доступна ли база данных
	SegmentSource bool   `json:"segment_source"` // Доступен ли сервис сегментов
	Version       string `json:"version"`        // Версия сервиса
}
