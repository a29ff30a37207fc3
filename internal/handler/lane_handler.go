package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"lane-detector-go/internal/lane"
	"lane-detector-go/internal/repository"
	"lane-detector-go/internal/service"
	"lane-detector-go/pkg/models"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// LaneHandler обрабатывает HTTP запросы построения линий полосы
type LaneHandler struct {
	laneService *service.LaneService
	logger      *logrus.Logger
}

// NewLaneHandler создает новый экземпляр LaneHandler
func NewLaneHandler(laneService *service.LaneService, logger *logrus.Logger) *LaneHandler {
	return &LaneHandler{
		laneService: laneService,
		logger:      logger,
	}
}

// RegisterRoutes регистрирует маршруты API
func (h *LaneHandler) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api/v1")
	{
		api.POST("/lanes/detect", h.DetectLanes)
		api.POST("/lanes/analyze", h.AnalyzeImage)
		api.GET("/frames", h.ListFrames)
		api.GET("/frames/:id", h.GetFrame)
		api.DELETE("/frames/:id", h.DeleteFrame)
		api.GET("/frames/:id/overlay", h.GetOverlay)
		api.GET("/health", h.CheckHealth)
	}
}

// DetectLanes строит линии полосы по сегментам из JSON тела запроса
func (h *LaneHandler) DetectLanes(c *gin.Context) {
	var request models.DetectRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		h.logger.Errorf("Ошибка парсинга запроса: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Неверный формат запроса"})
		return
	}

	h.logger.Infof("Получен запрос на построение линий: %d сегментов", len(request.Segments))

	response, err := h.laneService.Detect(c.Request.Context(), request)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(statusFor(response), response)
}

// AnalyzeImage принимает изображение кадра, получает сегменты у внешнего сервиса и строит линии
func (h *LaneHandler) AnalyzeImage(c *gin.Context) {
	h.logger.Info("Получен запрос на анализ изображения")

	file, header, err := c.Request.FormFile("image")
	if err != nil {
		h.logger.Errorf("Ошибка получения изображения: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Изображение обязательно"})
		return
	}
	defer file.Close()

	imageData, err := io.ReadAll(file)
	if err != nil {
		h.logger.Errorf("Ошибка чтения изображения: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка чтения изображения"})
		return
	}

	renderOverlay, _ := strconv.ParseBool(c.DefaultPostForm("render", "true"))

	response, err := h.laneService.AnalyzeImage(c.Request.Context(), imageData, header.Filename, renderOverlay)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(statusFor(response), response)
}

// ListFrames возвращает список обработанных кадров
func (h *LaneHandler) ListFrames(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))

	response, err := h.laneService.ListFrames(page, size, c.Query("status"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// GetFrame возвращает кадр по ID
func (h *LaneHandler) GetFrame(c *gin.Context) {
	frame, err := h.laneService.GetFrame(c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, frame)
}

// DeleteFrame удаляет кадр
func (h *LaneHandler) DeleteFrame(c *gin.Context) {
	if err := h.laneService.DeleteFrame(c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// GetOverlay отдает overlay PNG кадра
func (h *LaneHandler) GetOverlay(c *gin.Context) {
	path, err := h.laneService.OverlayPath(c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.Header("Content-Type", "image/png")
	c.File(path)
}

// CheckHealth проверяет состояние сервиса
func (h *LaneHandler) CheckHealth(c *gin.Context) {
	health := h.laneService.CheckHealth(c.Request.Context())

	statusCode := http.StatusOK
	if health.Status != "healthy" {
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, health)
}

// respondError отображает ошибку сервиса в HTTP статус
func (h *LaneHandler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "error_kind": "invalid_request"})
	case errors.Is(err, lane.ErrInvalidConfiguration):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "error_kind": lane.Kind(err)})
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		h.logger.Errorf("Ошибка сервиса: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Внутренняя ошибка сервера"})
	}
}

// statusFor возвращает 422, если линии построить не удалось
func statusFor(response *models.DetectResponse) int {
	if response.Status == service.StatusFailed {
		return http.StatusUnprocessableEntity
	}
	return http.StatusOK
}
