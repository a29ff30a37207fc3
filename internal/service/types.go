package service

import (
	"context"
	"errors"

	"lane-detector-go/internal/model"
	"lane-detector-go/pkg/models"
)

// ErrInvalidRequest возвращается при некорректных параметрах запроса
var ErrInvalidRequest = errors.New("invalid request")

// SegmentSource - внешний источник сегментов для изображения кадра
type SegmentSource interface {
	DetectSegments(ctx context.Context, imageData []byte, filename string) (*models.SegmentAPIResponse, error)
	CheckHealth(ctx context.Context) error
}

// DefaultMaxFrameSide - наибольшая сторона кадра по умолчанию.
// Холст 16384x16384 занимает 1 ГиБ.
const DefaultMaxFrameSide = 16384

// Options настраивает LaneService
type Options struct {
	StaticDir       string // Папка для overlay PNG
	DrawRawSegments bool   // Рисовать исходные сегменты цветом стороны
	PartialLanes    bool   // Рисовать одну сторону, если вторая не построена
	MaxFrameSide    int    // Наибольшая допустимая ширина и высота кадра, 0 - DefaultMaxFrameSide
	Version         string
}

// ListFramesResponse ответ со списком обработанных кадров
type ListFramesResponse struct {
	Frames []*model.Frame `json:"frames"`
	Total  int64          `json:"total"`
	Page   int            `json:"page"`
	Size   int            `json:"size"`
}
