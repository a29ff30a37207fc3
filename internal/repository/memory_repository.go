package repository

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"lane-detector-go/internal/model"
)

// EvictFunc вызывается для кадра, вытесненного из хранилища по лимиту
type EvictFunc func(frame *model.Frame)

// memoryFrameRepository хранит кадры в памяти процесса.
// Используется, когда база данных отключена.
type memoryFrameRepository struct {
	mu      sync.RWMutex
	frames  map[string]*model.Frame
	limit   int
	onEvict EvictFunc
}

// NewMemoryFrameRepository создает хранилище в памяти, удерживающее не более limit кадров.
// onEvict может быть nil.
func NewMemoryFrameRepository(limit int, onEvict EvictFunc) FrameRepository {
	return &memoryFrameRepository{
		frames:  make(map[string]*model.Frame),
		limit:   limit,
		onEvict: onEvict,
	}
}

func (r *memoryFrameRepository) Create(frame *model.Frame) error {
	evicted, err := r.create(frame)
	if err != nil {
		return err
	}
	// обработчик вызывается вне блокировки, он может обращаться к диску
	if evicted != nil && r.onEvict != nil {
		r.onEvict(evicted)
	}
	return nil
}

func (r *memoryFrameRepository) create(frame *model.Frame) (*model.Frame, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.frames[frame.ID]; exists {
		return nil, fmt.Errorf("frame %s already exists", frame.ID)
	}
	if frame.CreatedAt.IsZero() {
		frame.CreatedAt = time.Now()
	}
	for i := range frame.Lanes {
		frame.Lanes[i].ID = uint(i + 1)
		frame.Lanes[i].FrameID = frame.ID
	}

	stored := *frame
	stored.Lanes = append([]model.Lane(nil), frame.Lanes...)
	r.frames[frame.ID] = &stored

	if r.limit > 0 && len(r.frames) > r.limit {
		return r.evictOldest(), nil
	}
	return nil, nil
}

func (r *memoryFrameRepository) evictOldest() *model.Frame {
	var oldest *model.Frame
	for _, f := range r.frames {
		if oldest == nil || f.CreatedAt.Before(oldest.CreatedAt) {
			oldest = f
		}
	}
	if oldest != nil {
		delete(r.frames, oldest.ID)
	}
	return oldest
}

func (r *memoryFrameRepository) GetByID(id string) (*model.Frame, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	frame, ok := r.frames[id]
	if !ok {
		return nil, fmt.Errorf("frame %s: %w", id, ErrNotFound)
	}
	copied := *frame
	copied.Lanes = append([]model.Lane(nil), frame.Lanes...)
	return &copied, nil
}

func (r *memoryFrameRepository) List(page, pageSize int, status string) ([]*model.Frame, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []*model.Frame
	for _, f := range r.frames {
		if status == "" || f.Status == status {
			copied := *f
			matched = append(matched, &copied)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := int64(len(matched))
	offset := (page - 1) * pageSize
	if offset >= len(matched) {
		return []*model.Frame{}, total, nil
	}
	end := min(offset+pageSize, len(matched))
	return matched[offset:end], total, nil
}

func (r *memoryFrameRepository) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.frames[id]; !ok {
		return fmt.Errorf("frame %s: %w", id, ErrNotFound)
	}
	delete(r.frames, id)
	return nil
}
