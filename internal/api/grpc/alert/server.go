package alert

import (
	"context"
	"errors"

	"golang.org/x/time/rate"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	domain "github.com/oshokin/job-alert/internal/domain/alert"
	"github.com/oshokin/job-alert/internal/logger"
	"github.com/oshokin/job-alert/internal/service/lifecycle"
	"github.com/oshokin/job-alert/internal/service/router"
)

// Service abstracts the operations the transport layer depends on.
type Service interface {
	Route(ctx context.Context, data map[string]string, env *domain.Environment) (*router.Routed, error)
	Accept(ctx context.Context, alertID string) lifecycle.Result
	Reject(ctx context.Context, alertID string) lifecycle.Result
	Dismiss(ctx context.Context, alertID string) lifecycle.Result
	Destroy(ctx context.Context) lifecycle.Result
	Back(ctx context.Context) bool
	Status(ctx context.Context) lifecycle.Status
}

// Server implements AlertService.
type Server struct {
	// service provides the alert handling.
	service Service
	// limiter bounds the Deliver rate; nil means unlimited.
	limiter *rate.Limiter
}

var _ AlertServiceServer = (*Server)(nil)

// NewServer wires the service into a gRPC handler. limiter may be nil.
func NewServer(service Service, limiter *rate.Limiter) *Server {
	return &Server{
		service: service,
		limiter: limiter,
	}
}

// Deliver routes one inbound message.
func (s *Server) Deliver(ctx context.Context, request *structpb.Struct) (*structpb.Struct, error) {
	if s.limiter != nil && !s.limiter.Allow() {
		logger.WarnKV(ctx, "Delivery rejected by rate limit", "limit", float64(s.limiter.Limit()))

		return nil, status.Error(codes.ResourceExhausted, "delivery rate exceeded")
	}

	data, env, err := ParseDeliverRequest(request)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	routed, err := s.service.Route(ctx, data, env)
	if err != nil {
		if errors.Is(err, lifecycle.ErrClosed) {
			return nil, status.Error(codes.Unavailable, "alert host is shutting down")
		}

		logger.ErrorKV(ctx, "Unable to route message", "error", err)

		return nil, status.Error(codes.Internal, "unable to route message")
	}

	return encode(routedToStruct(routed))
}

// Accept resolves the presenting alert as accepted.
func (s *Server) Accept(ctx context.Context, alertID *wrapperspb.StringValue) (*structpb.Struct, error) {
	return encode(resultToStruct(s.service.Accept(ctx, alertID.GetValue())))
}

// Reject resolves the presenting alert as rejected.
func (s *Server) Reject(ctx context.Context, alertID *wrapperspb.StringValue) (*structpb.Struct, error) {
	return encode(resultToStruct(s.service.Reject(ctx, alertID.GetValue())))
}

// Dismiss is the reject action of a passive notification. The alert id is required.
func (s *Server) Dismiss(ctx context.Context, alertID *wrapperspb.StringValue) (*structpb.Struct, error) {
	if alertID.GetValue() == "" {
		return nil, status.Error(codes.InvalidArgument, "alert id is required")
	}

	return encode(resultToStruct(s.service.Dismiss(ctx, alertID.GetValue())))
}

// Destroy reports that the alert presentation was torn down.
func (s *Server) Destroy(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	return encode(resultToStruct(s.service.Destroy(ctx)))
}

// Back forwards a back gesture.
func (s *Server) Back(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	return encode(structpb.NewStruct(map[string]any{"swallowed": s.service.Back(ctx)}))
}

// Status returns the active session and the last resolution.
func (s *Server) Status(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	return encode(statusToStruct(s.service.Status(ctx)))
}

func encode(response *structpb.Struct, err error) (*structpb.Struct, error) {
	if err != nil {
		return nil, status.Error(codes.Internal, "unable to encode response")
	}

	return response, nil
}
