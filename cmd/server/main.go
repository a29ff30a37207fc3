package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"lane-detector-go/internal/client"
	"lane-detector-go/internal/config"
	"lane-detector-go/internal/database"
	"lane-detector-go/internal/grpcapi"
	"lane-detector-go/internal/handler"
	"lane-detector-go/internal/lane"
	"lane-detector-go/internal/render"
	"lane-detector-go/internal/repository"
	"lane-detector-go/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
)

const version = "1.0.0"

func main() {
	// Загружаем конфигурацию из переменных окружения
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Ошибка конфигурации: %v", err)
	}

	// Инициализируем логгер
	logger := newLogger(cfg)
	logger.Info("Запуск Lane Detector API Server")

	// Инициализируем хранилище кадров
	var frameRepo repository.FrameRepository
	var dbCheck func() error
	if cfg.Database.Enabled {
		logger.Info("Подключение к базе данных...")
		if err := database.Connect(cfg); err != nil {
			logger.Fatalf("Ошибка подключения к базе данных: %v", err)
		}
		defer database.Close()

		logger.Info("Выполнение миграций базы данных...")
		if err := database.Migrate(); err != nil {
			logger.Fatalf("Ошибка выполнения миграций: %v", err)
		}
		if err := database.HealthCheck(); err != nil {
			logger.Fatalf("База данных недоступна: %v", err)
		}

		frameRepo = repository.NewFrameRepository(database.DB)
		dbCheck = database.HealthCheck
		logger.Info("База данных успешно подключена и готова к работе")
	} else {
		logger.Info("База данных отключена, кадры хранятся в памяти")
		frameRepo = repository.NewMemoryFrameRepository(1000, service.OverlayCleanup(logger))
	}

	// Создаем папку для статических файлов
	staticDir := filepath.Clean(cfg.Server.StaticDir)
	if err := os.MkdirAll(staticDir, 0755); err != nil {
		logger.Fatalf("Ошибка создания папки для статических файлов: %v", err)
	}

	// Инициализируем детектор и сервисы
	detector, err := lane.NewDetector(cfg.LaneOptions(), logger)
	if err != nil {
		logger.Fatalf("Ошибка параметров детектора: %v", err)
	}
	segmentClient := client.NewSegmentAPIClient(cfg.SegmentAPI.BaseURL,
		time.Duration(cfg.SegmentAPI.Timeout)*time.Second, logger)

	laneService := service.NewLaneService(detector, render.NewRenderer(cfg.LaneStyle()), frameRepo, segmentClient, logger,
		service.Options{
			StaticDir:       staticDir,
			DrawRawSegments: cfg.Lane.DrawRawSegments,
			PartialLanes:    cfg.Lane.PartialLanes,
			MaxFrameSide:    cfg.Lane.MaxFrameSide,
			Version:         version,
		})
	laneService.SetDatabaseCheck(dbCheck)

	// Настраиваем Gin router
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(handler.LoggerMiddleware(logger))
	router.Use(gin.Recovery())
	router.Use(handler.CORSMiddleware())
	router.Static("/static", staticDir)

	handler.NewLaneHandler(laneService, logger).RegisterRoutes(router)

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "Lane Detector API Server",
			"version": version,
			"status":  "running",
		})
	})

	httpServer := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: router,
	}

	// gRPC сервер
	grpcListener, err := net.Listen("tcp", fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.GRPCPort))
	if err != nil {
		logger.Fatalf("Ошибка открытия порта gRPC: %v", err)
	}
	grpcServer := grpc.NewServer(grpc.UnaryInterceptor(grpcapi.RecoveryInterceptor(logger)))
	grpcapi.Register(grpcServer, grpcapi.NewServer(laneService, logger))

	go func() {
		logger.Infof("gRPC сервер запущен на %s", grpcListener.Addr())
		if err := grpcServer.Serve(grpcListener); err != nil {
			logger.Errorf("Ошибка gRPC сервера: %v", err)
		}
	}()

	go func() {
		logger.Infof("HTTP сервер запущен на %s", httpServer.Addr)
		logger.Infof("API доступно по адресу: http://localhost:%d/api/v1", cfg.Server.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("Ошибка запуска сервера: %v", err)
		}
	}()

	// Ожидаем сигнал завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Остановка сервера...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	grpcServer.GracefulStop()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Errorf("Ошибка остановки HTTP сервера: %v", err)
	}
}

// newLogger настраивает logrus по конфигурации
func newLogger(cfg *config.Config) *logrus.Logger {
	logger := logrus.New()

	level, err := logrus.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if cfg.Logging.Format == "text" {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	return logger
}
