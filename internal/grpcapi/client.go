package grpcapi

import (
	"context"

	"lane-detector-go/pkg/models"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// Client - клиент сервиса lanes.v1.LaneDetector
type Client struct {
	conn grpc.ClientConnInterface
}

// NewClient создает клиента поверх готового соединения
func NewClient(conn grpc.ClientConnInterface) *Client {
	return &Client{conn: conn}
}

// Detect отправляет кадр на построение линий
func (c *Client) Detect(ctx context.Context, request models.DetectRequest, opts ...grpc.CallOption) (*models.DetectResponse, error) {
	in, err := encode(request)
	if err != nil {
		return nil, err
	}

	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, DetectMethod, in, out, opts...); err != nil {
		return nil, err
	}

	var response models.DetectResponse
	if err := decode(out, &response); err != nil {
		return nil, err
	}
	return &response, nil
}

// Health запрашивает состояние сервиса
func (c *Client) Health(ctx context.Context, opts ...grpc.CallOption) (*models.HealthResponse, error) {
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, HealthMethod, &structpb.Struct{}, out, opts...); err != nil {
		return nil, err
	}

	var health models.HealthResponse
	if err := decode(out, &health); err != nil {
		return nil, err
	}
	return &health, nil
}
