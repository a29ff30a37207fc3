package repository

import (
	"errors"
	"fmt"

	"lane-detector-go/internal/model"

	"gorm.io/gorm"
)

// ErrNotFound возвращается, если кадр не найден
var ErrNotFound = errors.New("frame not found")

// FrameRepository интерфейс для работы с обработанными кадрами
type FrameRepository interface {
	Create(frame *model.Frame) error
	GetByID(id string) (*model.Frame, error)
	List(page, pageSize int, status string) ([]*model.Frame, int64, error)
	Delete(id string) error
}

// frameRepository реализация FrameRepository
type frameRepository struct {
	db *gorm.DB
}

// NewFrameRepository создает новый instance FrameRepository
func NewFrameRepository(db *gorm.DB) FrameRepository {
	return &frameRepository{
		db: db,
	}
}

// Create сохраняет кадр вместе с линиями в одной транзакции
func (r *frameRepository) Create(frame *model.Frame) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		lanes := frame.Lanes
		frame.Lanes = nil

		if err := tx.Create(frame).Error; err != nil {
			return fmt.Errorf("failed to create frame: %w", err)
		}

		for i := range lanes {
			lanes[i].ID = 0 // Обнуляем ID для auto-increment
			lanes[i].FrameID = frame.ID
			if err := tx.Create(&lanes[i]).Error; err != nil {
				return fmt.Errorf("failed to create %s lane: %w", lanes[i].Side, err)
			}
		}
		frame.Lanes = lanes

		return nil
	})
}

// GetByID получает кадр по ID
func (r *frameRepository) GetByID(id string) (*model.Frame, error) {
	var frame model.Frame
	err := r.db.Preload("Lanes").Where("id = ?", id).First(&frame).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("frame %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get frame: %w", err)
	}
	return &frame, nil
}

// List получает список кадров с пагинацией, опционально фильтруя по статусу
func (r *frameRepository) List(page, pageSize int, status string) ([]*model.Frame, int64, error) {
	var frames []*model.Frame
	var total int64

	// Подсчитываем общее количество
	if err := filterByStatus(r.db, status).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count frames: %w", err)
	}

	err := paginate(filterByStatus(r.db, status), page, pageSize).
		Preload("Lanes").
		Find(&frames).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list frames: %w", err)
	}

	return frames, total, nil
}

// filterByStatus ограничивает выборку кадров статусом, пустой статус не фильтрует
func filterByStatus(db *gorm.DB, status string) *gorm.DB {
	query := db.Model(&model.Frame{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	return query
}

// paginate возвращает страницу page (с 1) размером pageSize, новые кадры первыми
func paginate(query *gorm.DB, page, pageSize int) *gorm.DB {
	return query.
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize)
}

// Delete удаляет кадр и его линии
func (r *frameRepository) Delete(id string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("frame_id = ?", id).Delete(&model.Lane{}).Error; err != nil {
			return fmt.Errorf("failed to delete lanes: %w", err)
		}

		result := tx.Where("id = ?", id).Delete(&model.Frame{})
		if result.Error != nil {
			return fmt.Errorf("failed to delete frame: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("frame %s: %w", id, ErrNotFound)
		}

		return nil
	})
}
