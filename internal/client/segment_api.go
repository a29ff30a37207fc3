package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"lane-detector-go/pkg/models"

	"github.com/sirupsen/logrus"
)

// SegmentAPIClient клиент для внешнего сервиса детекции сегментов.
// Сервис выполняет Canny, маскирование области и вероятностное преобразование Хафа
// и возвращает найденные сегменты.
type SegmentAPIClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewSegmentAPIClient создает новый клиент для сервиса сегментов
func NewSegmentAPIClient(baseURL string, timeout time.Duration, logger *logrus.Logger) *SegmentAPIClient {
	return &SegmentAPIClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// DetectSegments отправляет изображение кадра и получает найденные сегменты
func (c *SegmentAPIClient) DetectSegments(ctx context.Context, imageData []byte, filename string) (*models.SegmentAPIResponse, error) {
	c.logger.Infof("Отправка кадра %s в сервис сегментов", filename)

	// Создаем multipart form-data
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	imageWriter, err := writer.CreateFormFile("image", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create image form field: %w", err)
	}
	if _, err := imageWriter.Write(imageData); err != nil {
		return nil, fmt.Errorf("failed to write image data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	url := fmt.Sprintf("%s/segments", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	c.logger.Debugf("Отправка POST запроса на %s", url)
	var apiResponse models.SegmentAPIResponse
	if err := c.do(req, &apiResponse); err != nil {
		return nil, err
	}

	if apiResponse.Status != "success" {
		return nil, fmt.Errorf("segment API returned status %q: %s", apiResponse.Status, apiResponse.Message)
	}
	if apiResponse.Width <= 0 || apiResponse.Height <= 0 {
		return nil, fmt.Errorf("segment API returned invalid frame size %dx%d", apiResponse.Width, apiResponse.Height)
	}

	c.logger.Infof("Получено %d сегментов для кадра %dx%d", len(apiResponse.Segments), apiResponse.Width, apiResponse.Height)
	return &apiResponse, nil
}

// CheckHealth проверяет состояние сервиса сегментов
func (c *SegmentAPIClient) CheckHealth(ctx context.Context) error {
	c.logger.Debug("Проверка здоровья сервиса сегментов")

	url := fmt.Sprintf("%s/health", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	var health struct {
		Status string `json:"status"`
	}
	if err := c.do(req, &health); err != nil {
		return err
	}
	if health.Status != "healthy" {
		return fmt.Errorf("segment API is %s", health.Status)
	}
	return nil
}

func (c *SegmentAPIClient) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("segment API returned status %d, body: %s", resp.StatusCode, string(respBody))
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to parse JSON response: %w", err)
	}
	return nil
}
