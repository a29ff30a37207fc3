package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"lane-detector-go/internal/grpcapi"
	"lane-detector-go/pkg/models"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

func main() {
	var (
		serverURL    = flag.String("server", "http://localhost:8080", "HTTP адрес сервера")
		grpcAddr     = flag.String("grpc", "", "gRPC адрес сервера (если задан, HTTP не используется)")
		segmentsFile = flag.String("i", "", "JSON файл с запросом (width, height, segments)")
		overlayFile  = flag.String("o", "", "Куда сохранить overlay PNG")
		clip         = flag.Float64("clip", -1, "Процент отсечения (по умолчанию берется с сервера)")
	)
	flag.Parse()

	if *segmentsFile == "" {
		fmt.Fprintf(os.Stderr, "usage: laneclient -i frame.json [-o overlay.png]\n")
		flag.PrintDefaults()
		os.Exit(2)
	}

	request, err := readRequest(*segmentsFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ошибка чтения запроса: %v\n", err)
		os.Exit(1)
	}
	if *clip >= 0 {
		request.Clip = clip
	}
	request.Render = *overlayFile != ""

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var response *models.DetectResponse
	if *grpcAddr != "" {
		response, err = detectGRPC(ctx, *grpcAddr, request)
	} else {
		response, err = detectHTTP(ctx, *serverURL, request)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ошибка запроса: %v\n", err)
		os.Exit(1)
	}

	out, _ := json.MarshalIndent(response, "", "  ")
	fmt.Println(string(out))

	if *overlayFile != "" && response.OverlayURL != "" {
		if err := downloadOverlay(ctx, *serverURL, response.FrameID, *overlayFile); err != nil {
			fmt.Fprintf(os.Stderr, "Ошибка загрузки overlay: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Overlay сохранен в %s\n", *overlayFile)
	}

	if response.Status != "success" {
		os.Exit(3)
	}
}

func readRequest(path string) (models.DetectRequest, error) {
	var request models.DetectRequest
	data, err := os.ReadFile(path)
	if err != nil {
		return request, err
	}
	if err := json.Unmarshal(data, &request); err != nil {
		return request, fmt.Errorf("ошибка парсинга %s: %w", path, err)
	}
	return request, nil
}

func detectHTTP(ctx context.Context, serverURL string, request models.DetectRequest) (*models.DetectResponse, error) {
	payload, err := json.Marshal(request)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, serverURL+"/api/v1/lanes/detect", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("ошибка создания запроса: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ошибка отправки запроса: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения ответа: %w", err)
	}

	// 422 - линии не построены, тело все равно содержит DetectResponse
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusUnprocessableEntity {
		return nil, fmt.Errorf("статус %d: %s", resp.StatusCode, string(body))
	}

	var response models.DetectResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("ошибка парсинга ответа: %w", err)
	}
	return &response, nil
}

func detectGRPC(ctx context.Context, addr string, request models.DetectRequest) (*models.DetectResponse, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	return grpcapi.NewClient(conn).Detect(ctx, request)
}

func downloadOverlay(ctx context.Context, serverURL, frameID, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, serverURL+"/api/v1/frames/"+frameID+"/overlay", nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("статус %d", resp.StatusCode)
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	_, err = io.Copy(file, resp.Body)
	return err
}
