package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"lane-detector-go/internal/lane"
	"lane-detector-go/internal/model"
	"lane-detector-go/internal/render"
	"lane-detector-go/internal/repository"
	"lane-detector-go/pkg/models"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	StatusSuccess = "success"
	StatusFailed  = "failed"

	overlaysDir = "overlays"
)

// LaneService сервис построения линий полосы
type LaneService struct {
	detector  *lane.Detector
	renderer  *render.Renderer
	canvases  render.Pool
	frameRepo repository.FrameRepository
	segments  SegmentSource
	dbCheck   func() error
	logger    *logrus.Logger
	opts      Options
}

// NewLaneService создает новый сервис построения линий полосы
func NewLaneService(detector *lane.Detector, renderer *render.Renderer, frameRepo repository.FrameRepository,
	segments SegmentSource, logger *logrus.Logger, opts Options) *LaneService {
	if opts.MaxFrameSide <= 0 {
		opts.MaxFrameSide = DefaultMaxFrameSide
	}
	return &LaneService{
		detector:  detector,
		renderer:  renderer,
		frameRepo: frameRepo,
		segments:  segments,
		logger:    logger,
		opts:      opts,
	}
}

// SetDatabaseCheck задает функцию проверки базы данных для health
func (s *LaneService) SetDatabaseCheck(check func() error) {
	s.dbCheck = check
}

// Detect строит линии полосы для одного кадра.
// Отказ построения линии не является ошибкой сервиса: он возвращается в ответе со статусом failed.
func (s *LaneService) Detect(ctx context.Context, req models.DetectRequest) (*models.DetectResponse, error) {
	if req.Width <= 0 || req.Height <= 0 {
		return nil, fmt.Errorf("%w: frame size must be positive, got %dx%d", ErrInvalidRequest, req.Width, req.Height)
	}
	if req.Width > s.opts.MaxFrameSide || req.Height > s.opts.MaxFrameSide {
		return nil, fmt.Errorf("%w: frame size %dx%d exceeds %d", ErrInvalidRequest, req.Width, req.Height, s.opts.MaxFrameSide)
	}

	clip := s.detector.Options().Clip
	if req.Clip != nil {
		if err := lane.ValidateClip(*req.Clip); err != nil {
			return nil, err
		}
		clip = *req.Clip
	}

	startTime := time.Now()
	frameID := uuid.NewString()

	result := s.detector.DetectWithClip(req.Segments, req.Width, req.Height, clip)

	response := &models.DetectResponse{
		FrameID: frameID,
		Left:    laneResult(result.Left),
		Right:   laneResult(result.Right),
	}

	if err := result.Err(); err != nil {
		response.Status = StatusFailed
		response.Message = err.Error()
	} else {
		response.Status = StatusSuccess
		response.Message = "Линии полосы построены"
	}

	overlayPath := ""
	if req.Render {
		path, err := s.renderOverlay(ctx, frameID, req.Width, req.Height, result)
		if err != nil {
			return nil, err
		}
		if path != "" {
			overlayPath = path
			response.OverlayURL = "/static/" + filepath.ToSlash(filepath.Join(overlaysDir, filepath.Base(path)))
		}
	}

	if s.frameRepo != nil {
		frame := frameFromResult(frameID, req, clip, response, overlayPath)
		if err := s.frameRepo.Create(frame); err != nil {
			s.logger.Errorf("Ошибка сохранения кадра %s: %v", frameID, err)
			removeOverlay(overlayPath, s.logger)
			return nil, fmt.Errorf("failed to save frame: %w", err)
		}
	}

	s.logger.WithFields(logrus.Fields{
		"frame_id": frameID,
		"status":   response.Status,
		"segments": len(req.Segments),
		"elapsed":  time.Since(startTime).String(),
	}).Info("Кадр обработан")

	return response, nil
}

// AnalyzeImage получает сегменты кадра у внешнего сервиса и строит линии полосы
func (s *LaneService) AnalyzeImage(ctx context.Context, imageData []byte, filename string, renderOverlay bool) (*models.DetectResponse, error) {
	if s.segments == nil {
		return nil, errors.New("segment source is not configured")
	}

	segResp, err := s.segments.DetectSegments(ctx, imageData, filename)
	if err != nil {
		s.logger.Errorf("Ошибка при обращении к сервису сегментов: %v", err)
		return nil, fmt.Errorf("failed to detect segments: %w", err)
	}

	return s.Detect(ctx, models.DetectRequest{
		Width:    segResp.Width,
		Height:   segResp.Height,
		Segments: segResp.Segments,
		Render:   renderOverlay,
	})
}

// renderOverlay рисует линии на холсте кадра и сохраняет PNG.
// Возвращает пустой путь, если рисовать нечего.
func (s *LaneService) renderOverlay(ctx context.Context, frameID string, width, height int, result lane.Result) (string, error) {
	left, right := result.Left.Geometry, result.Right.Geometry
	if result.Err() != nil && !s.opts.PartialLanes {
		left, right = nil, nil
	}
	if left == nil && right == nil {
		return "", nil
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	canvas := s.canvases.Get(width, height)
	defer s.canvases.Put(canvas)

	if s.opts.DrawRawSegments {
		s.renderer.DrawSegments(canvas, result.Classified)
		if left != nil && right != nil {
			render.DrawQuadrilateral(canvas, [4]models.Point{left.Top, right.Top, right.Bottom, left.Bottom},
				render.Style{Color: render.Blue, Thickness: 2})
		}
	}
	s.renderer.DrawLanes(canvas, left, right)

	dir := filepath.Join(s.opts.StaticDir, overlaysDir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create overlay directory: %w", err)
	}

	path := filepath.Join(dir, frameID+".png")
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create overlay file: %w", err)
	}

	if err := canvas.EncodePNG(file); err != nil {
		file.Close()
		removeOverlay(path, s.logger)
		return "", err
	}
	if err := file.Close(); err != nil {
		removeOverlay(path, s.logger)
		return "", fmt.Errorf("failed to write overlay file: %w", err)
	}

	s.logger.Debugf("Overlay сохранен: %s", path)
	return path, nil
}

// GetFrame возвращает сохраненный кадр
func (s *LaneService) GetFrame(id string) (*model.Frame, error) {
	if s.frameRepo == nil {
		return nil, fmt.Errorf("frame %s: %w", id, repository.ErrNotFound)
	}
	return s.frameRepo.GetByID(id)
}

// ListFrames возвращает список кадров с пагинацией
func (s *LaneService) ListFrames(page, pageSize int, status string) (*ListFramesResponse, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	if s.frameRepo == nil {
		return &ListFramesResponse{Frames: []*model.Frame{}, Page: page, Size: pageSize}, nil
	}

	frames, total, err := s.frameRepo.List(page, pageSize, status)
	if err != nil {
		return nil, err
	}
	return &ListFramesResponse{Frames: frames, Total: total, Page: page, Size: pageSize}, nil
}

// DeleteFrame удаляет кадр и его overlay
func (s *LaneService) DeleteFrame(id string) error {
	frame, err := s.GetFrame(id)
	if err != nil {
		return err
	}
	if err := s.frameRepo.Delete(id); err != nil {
		return err
	}

	removeOverlay(frame.OverlayPath, s.logger)
	s.logger.Infof("Кадр %s удален", id)
	return nil
}

// OverlayCleanup возвращает обработчик вытеснения кадров из хранилища,
// удаляющий их overlay PNG
func OverlayCleanup(logger *logrus.Logger) func(frame *model.Frame) {
	return func(frame *model.Frame) {
		removeOverlay(frame.OverlayPath, logger)
	}
}

func removeOverlay(path string, logger *logrus.Logger) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		logger.Warnf("Не удалось удалить overlay %s: %v", path, err)
	}
}

// OverlayPath возвращает путь к overlay PNG кадра
func (s *LaneService) OverlayPath(id string) (string, error) {
	frame, err := s.GetFrame(id)
	if err != nil {
		return "", err
	}
	if frame.OverlayPath == "" {
		return "", fmt.Errorf("frame %s has no overlay: %w", id, repository.ErrNotFound)
	}
	return frame.OverlayPath, nil
}

// CheckHealth проверяет состояние сервиса и его зависимостей
func (s *LaneService) CheckHealth(ctx context.Context) *models.HealthResponse {
	health := &models.HealthResponse{
		Status:        "healthy",
		Database:      true,
		SegmentSource: true,
		Version:       s.opts.Version,
	}

	if s.dbCheck != nil {
		if err := s.dbCheck(); err != nil {
			s.logger.Errorf("База данных недоступна: %v", err)
			health.Database = false
			health.Status = "unhealthy"
		}
	}

	if s.segments != nil {
		if err := s.segments.CheckHealth(ctx); err != nil {
			// без сервиса сегментов работает только прямой ввод сегментов
			s.logger.Warnf("Сервис сегментов недоступен: %v", err)
			health.SegmentSource = false
		}
	} else {
		health.SegmentSource = false
	}

	return health
}

func laneResult(side lane.SideResult) models.LaneResult {
	res := models.LaneResult{
		Side:       side.Side.String(),
		Candidates: side.Candidates,
		Line:       side.Line,
		Geometry:   side.Geometry,
	}
	if side.Err != nil {
		res.Error = side.Err.Error()
		res.ErrorKind = lane.Kind(side.Err)
	}
	return res
}

func frameFromResult(id string, req models.DetectRequest, clip float64, resp *models.DetectResponse, overlayPath string) *model.Frame {
	frame := &model.Frame{
		ID:           id,
		Width:        req.Width,
		Height:       req.Height,
		SegmentCount: len(req.Segments),
		Clip:         clip,
		Status:       resp.Status,
		Message:      resp.Message,
		OverlayPath:  overlayPath,
		CreatedAt:    time.Now(),
	}

	for _, lr := range []models.LaneResult{resp.Left, resp.Right} {
		l := model.Lane{
			FrameID:    id,
			Side:       lr.Side,
			Candidates: lr.Candidates,
			HasLine:    lr.Geometry != nil,
			ErrorKind:  lr.ErrorKind,
			Error:      lr.Error,
		}
		if lr.Line != nil {
			l.Slope = lr.Line.Slope
			l.Intercept = lr.Line.Intercept
		}
		if lr.Geometry != nil {
			l.TopX, l.TopY = lr.Geometry.Top.X, lr.Geometry.Top.Y
			l.BottomX, l.BottomY = lr.Geometry.Bottom.X, lr.Geometry.Bottom.Y
		}
		frame.Lanes = append(frame.Lanes, l)
	}
	return frame
}
