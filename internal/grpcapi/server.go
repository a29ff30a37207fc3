// Package grpcapi публикует построение линий полосы по gRPC.
// Сообщения передаются как google.protobuf.Struct с тем же JSON документом, что и в HTTP API.
package grpcapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"lane-detector-go/internal/lane"
	"lane-detector-go/internal/service"
	"lane-detector-go/pkg/models"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	ServiceName      = "lanes.v1.LaneDetector"
	DetectMethod     = "/" + ServiceName + "/Detect"
	HealthMethod     = "/" + ServiceName + "/Health"
	protoDescription = "lanes/v1/lanes.proto"
)

// LaneDetectorServer - серверная часть сервиса lanes.v1.LaneDetector
type LaneDetectorServer interface {
	Detect(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	Health(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
}

// Server реализует LaneDetectorServer поверх LaneService
type Server struct {
	laneService *service.LaneService
	logger      *logrus.Logger
}

// NewServer создает gRPC обработчик
func NewServer(laneService *service.LaneService, logger *logrus.Logger) *Server {
	return &Server{laneService: laneService, logger: logger}
}

// Register регистрирует сервис на gRPC сервере
func Register(s grpc.ServiceRegistrar, srv LaneDetectorServer) {
	s.RegisterService(&serviceDesc, srv)
}

// Detect строит линии полосы. Отказ построения возвращается в ответе со статусом failed.
func (s *Server) Detect(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var request models.DetectRequest
	if err := decode(in, &request); err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid request: %v", err)
	}

	s.logger.Infof("gRPC запрос на построение линий: %d сегментов", len(request.Segments))

	response, err := s.laneService.Detect(ctx, request)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidRequest), errors.Is(err, lane.ErrInvalidConfiguration):
			return nil, status.Error(codes.InvalidArgument, err.Error())
		default:
			s.logger.Errorf("Ошибка сервиса: %v", err)
			return nil, status.Error(codes.Internal, "internal error")
		}
	}

	out, err := encode(response)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	return out, nil
}

// Health возвращает состояние сервиса
func (s *Server) Health(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	out, err := encode(s.laneService.CheckHealth(ctx))
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	return out, nil
}

// decode переводит Struct в Go структуру через JSON
func decode(in *structpb.Struct, out any) error {
	if in == nil {
		return errors.New("empty message")
	}
	data, err := protojson.Marshal(in)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

// encode переводит Go структуру в Struct через JSON
func encode(v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(data, out); err != nil {
		return nil, fmt.Errorf("unmarshal struct: %w", err)
	}
	return out, nil
}

func detectHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(LaneDetectorServer).Detect(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: DetectMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(LaneDetectorServer).Detect(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func healthHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(LaneDetectorServer).Health(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: HealthMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(LaneDetectorServer).Health(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*LaneDetectorServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Detect", Handler: detectHandler},
		{MethodName: "Health", Handler: healthHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: protoDescription,
}
