package grpc

import (
	"context"
	"errors"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/carelink/mission-service/internal/domain"
	"github.com/google/uuid"
)

const serviceName = "carelink.mission.v1.MissionInternalService"

// MissionOperations is the slice of the application service exposed to
// trusted internal callers such as the scheduling front office.
type MissionOperations interface {
	IsCaregiverAvailable(ctx context.Context, caregiverID uuid.UUID, start time.Time, end *time.Time) (bool, error)
	RematchRequest(ctx context.Context, requestID uuid.UUID) (domain.Suggestion, bool, error)
}

type MissionInternalService interface {
	CheckAvailability(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RematchRequest(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type MissionInternalServer struct {
	ops MissionOperations
}

func NewMissionInternalServer(ops MissionOperations) *MissionInternalServer {
	return &MissionInternalServer{ops: ops}
}

func Register(server grpc.ServiceRegistrar, svc MissionInternalService) {
	server.RegisterService(&grpc.ServiceDesc{
		ServiceName: serviceName,
		HandlerType: (*MissionInternalService)(nil),
		Methods: []grpc.MethodDesc{
			{
				MethodName: "CheckAvailability",
				Handler:    unaryHandler("CheckAvailability", svc.CheckAvailability),
			},
			{
				MethodName: "RematchRequest",
				Handler:    unaryHandler("RematchRequest", svc.RematchRequest),
			},
		},
		Streams:  []grpc.StreamDesc{},
		Metadata: "contracts/proto/mission/v1/mission_internal.proto",
	}, svc)
}

func (s *MissionInternalServer) CheckAvailability(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	caregiverID, err := uuid.Parse(stringField(req, "caregiver_id"))
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, "invalid caregiver_id")
	}
	start, err := time.Parse(time.RFC3339, stringField(req, "start"))
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, "invalid start")
	}
	var end *time.Time
	if raw := stringField(req, "end"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, status.Error(codes.InvalidArgument, "invalid end")
		}
		end = &parsed
	}
	available, err := s.ops.IsCaregiverAvailable(ctx, caregiverID, start, end)
	if err != nil {
		return nil, toStatus(err)
	}
	return structpb.NewStruct(map[string]any{
		"caregiver_id": caregiverID.String(),
		"available":    available,
	})
}

func (s *MissionInternalServer) RematchRequest(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	requestID, err := uuid.Parse(stringField(req, "request_id"))
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, "invalid request_id")
	}
	suggestion, changed, err := s.ops.RematchRequest(ctx, requestID)
	if err != nil {
		return nil, toStatus(err)
	}
	ids := make([]any, 0, len(suggestion.CaregiverIDs))
	for _, id := range suggestion.CaregiverIDs {
		ids = append(ids, id.String())
	}
	resp, err := structpb.NewStruct(map[string]any{
		"request_id":    requestID.String(),
		"caregiver_ids": ids,
		"changed":       changed,
	})
	if err != nil {
		return nil, status.Errorf(codes.Internal, "build response: %v", err)
	}
	return resp, nil
}

func stringField(req *structpb.Struct, name string) string {
	if v := req.GetFields()[name]; v != nil {
		return v.GetStringValue()
	}
	return ""
}

func toStatus(err error) error {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, domain.ErrInvalidInput):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, domain.ErrConflict):
		return status.Error(codes.Aborted, err.Error())
	case errors.Is(err, domain.ErrPrecondition):
		return status.Error(codes.FailedPrecondition, err.Error())
	default:
		return status.Error(codes.Internal, "internal error")
	}
}

func unaryHandler(method string, call func(context.Context, *structpb.Struct) (*structpb.Struct, error)) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		req := &structpb.Struct{}
		if err := dec(req); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(ctx, req)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: "/" + serviceName + "/" + method,
		}
		handler := func(ctx context.Context, req any) (any, error) {
			typed, ok := req.(*structpb.Struct)
			if !ok {
				return nil, status.Error(codes.InvalidArgument, "invalid request type")
			}
			return call(ctx, typed)
		}
		return interceptor(ctx, req, info, handler)
	}
}
