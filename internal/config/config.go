package config

import (
	"fmt"
	"image/color"
	"os"
	"strconv"
	"strings"

	"lane-detector-go/internal/lane"
	"lane-detector-go/internal/render"
)

// Config структура конфигурации приложения
type Config struct {
	Server struct {
		Port        int
		Host        string
		GRPCPort    int
		Environment string
		StaticDir   string
	}
	SegmentAPI struct {
		BaseURL string
		Timeout int // в секундах
	}
	Database struct {
		Enabled  bool
		Host     string
		Port     string
		Name     string
		User     string
		Password string
		SSLMode  string
	}
	Logging struct {
		Level  string
		Format string // json или text
	}
	Lane struct {
		Clip            float64
		SlopeBoundary   float64
		TopRatio        float64
		TrimMode        string
		PartialLanes    bool // рисовать одну сторону, если вторую построить не удалось
		Color           color.RGBA
		Thickness       float64
		DrawRawSegments bool
		MaxFrameSide    int // наибольшая сторона кадра в пикселях
	}
}

// LoadConfig загружает конфигурацию из переменных окружения
func LoadConfig() (*Config, error) {
	cfg := &Config{}

	// Конфигурация сервера
	cfg.Server.Port = getEnvInt("SERVER_PORT", 8080)
	cfg.Server.Host = getEnv("SERVER_HOST", "0.0.0.0")
	cfg.Server.GRPCPort = getEnvInt("GRPC_PORT", 9090)
	cfg.Server.Environment = getEnv("ENVIRONMENT", "development")
	cfg.Server.StaticDir = getEnv("STATIC_DIR", "static")

	// Конфигурация сервиса детекции сегментов
	cfg.SegmentAPI.BaseURL = getEnv("SEGMENT_API_BASE_URL", "http://localhost:8000")
	cfg.SegmentAPI.Timeout = getEnvInt("SEGMENT_API_TIMEOUT_SECONDS", 30)

	// Конфигурация базы данных
	cfg.Database.Enabled = getEnvBool("DB_ENABLED", false)
	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.Database.Port = getEnv("DB_PORT", "5432")
	cfg.Database.Name = getEnv("DB_NAME", "lane_detector")
	cfg.Database.User = getEnv("DB_USER", "postgres")
	cfg.Database.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.Database.SSLMode = getEnv("DB_SSL_MODE", "disable")

	// Конфигурация логирования
	cfg.Logging.Level = getEnv("LOG_LEVEL", "info")
	cfg.Logging.Format = getEnv("LOG_FORMAT", "json")

	// Параметры построения линий
	defaults := lane.DefaultOptions()
	cfg.Lane.Clip = getEnvFloat("LANE_CLIP", defaults.Clip)
	cfg.Lane.SlopeBoundary = getEnvFloat("LANE_SLOPE_BOUNDARY", defaults.SlopeBoundary)
	cfg.Lane.TopRatio = getEnvFloat("LANE_TOP_RATIO", defaults.TopRatio)
	cfg.Lane.TrimMode = getEnv("LANE_TRIM_MODE", string(defaults.TrimMode))
	cfg.Lane.PartialLanes = getEnvBool("LANE_PARTIAL", false)
	cfg.Lane.Thickness = getEnvFloat("LANE_THICKNESS", render.DefaultLaneStyle().Thickness)
	cfg.Lane.DrawRawSegments = getEnvBool("LANE_DRAW_RAW_SEGMENTS", false)
	cfg.Lane.MaxFrameSide = getEnvInt("LANE_MAX_FRAME_SIDE", 16384)

	laneColor, err := ParseColor(getEnv("LANE_COLOR", "255,0,0"))
	if err != nil {
		return nil, err
	}
	cfg.Lane.Color = laneColor

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate проверяет корректность конфигурации
func (c *Config) Validate() error {
	if err := c.LaneOptions().Validate(); err != nil {
		return err
	}
	if c.Lane.Thickness <= 0 {
		return fmt.Errorf("lane thickness must be positive, got %g", c.Lane.Thickness)
	}
	if c.Lane.MaxFrameSide <= 0 {
		return fmt.Errorf("max frame side must be positive, got %d", c.Lane.MaxFrameSide)
	}
	if c.Logging.Format != "json" && c.Logging.Format != "text" {
		return fmt.Errorf("unknown log format %q", c.Logging.Format)
	}
	return nil
}

// LaneOptions возвращает параметры детектора линий
func (c *Config) LaneOptions() lane.Options {
	return lane.Options{
		Clip:          c.Lane.Clip,
		SlopeBoundary: c.Lane.SlopeBoundary,
		TopRatio:      c.Lane.TopRatio,
		TrimMode:      lane.TrimMode(c.Lane.TrimMode),
	}
}

// LaneStyle возвращает стиль линий полосы
func (c *Config) LaneStyle() render.Style {
	return render.Style{Color: c.Lane.Color, Thickness: c.Lane.Thickness}
}

// ParseColor разбирает цвет в формате "R,G,B"
func ParseColor(value string) (color.RGBA, error) {
	parts := strings.Split(value, ",")
	if len(parts) != 3 {
		return color.RGBA{}, fmt.Errorf("color must be R,G,B, got %q", value)
	}

	var rgb [3]uint8
	for i, part := range parts {
		v, err := strconv.ParseUint(strings.TrimSpace(part), 10, 8)
		if err != nil {
			return color.RGBA{}, fmt.Errorf("invalid color component %q: %w", part, err)
		}
		rgb[i] = uint8(v)
	}
	return color.RGBA{R: rgb[0], G: rgb[1], B: rgb[2], A: 255}, nil
}

// getEnv получает значение переменной окружения или возвращает значение по умолчанию
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt получает int значение переменной окружения или возвращает значение по умолчанию
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvFloat получает float64 значение переменной окружения или возвращает значение по умолчанию
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getEnvBool получает bool значение переменной окружения или возвращает значение по умолчанию
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
