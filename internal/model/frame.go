package model

import (
	"time"

	"gorm.io/gorm"
)

// Frame представляет обработанный кадр в базе данных
type Frame struct {
	ID           string  `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Width        int     `gorm:"not null" json:"width"`
	Height       int     `gorm:"not null" json:"height"`
	SegmentCount int     `gorm:"not null;default:0" json:"segment_count"`
	Clip         float64 `gorm:"not null" json:"clip"`
	Status       string  `gorm:"type:varchar(16);not null;index" json:"status"`
	Message      string  `gorm:"type:text" json:"message"`
	OverlayPath  string  `gorm:"type:varchar(500)" json:"overlay_path"`

	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	// Связь с линиями полосы
	Lanes []Lane `gorm:"foreignKey:FrameID;constraint:OnDelete:CASCADE" json:"lanes"`
}

// Lane представляет одну сторону полосы кадра
type Lane struct {
	ID         uint    `gorm:"primaryKey;autoIncrement" json:"id"`
	FrameID    string  `gorm:"type:varchar(36);not null;index" json:"frame_id"`
	Side       string  `gorm:"type:varchar(8);not null" json:"side"`
	Candidates int     `gorm:"not null" json:"candidates"`
	HasLine    bool    `gorm:"not null" json:"has_line"`
	Slope      float64 `json:"slope"`
	Intercept  float64 `json:"intercept"`
	TopX       float64 `json:"top_x"`
	TopY       float64 `json:"top_y"`
	BottomX    float64 `json:"bottom_x"`
	BottomY    float64 `json:"bottom_y"`
	ErrorKind  string  `gorm:"type:varchar(32)" json:"error_kind"`
	Error      string  `gorm:"type:text" json:"error"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`

	// Обратная связь с кадром
	Frame Frame `gorm:"foreignKey:FrameID;references:ID" json:"-"`
}

// TableName указывает имя таблицы для Frame
func (Frame) TableName() string {
	return "frames"
}

// TableName указывает имя таблицы для Lane
func (Lane) TableName() string {
	return "lanes"
}
