package alert

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "jobalert.v1.AlertService"

// Full method names, as used by clients.
const (
	MethodDeliver = "/" + ServiceName + "/Deliver"
	MethodAccept  = "/" + ServiceName + "/Accept"
	MethodReject  = "/" + ServiceName + "/Reject"
	MethodDismiss = "/" + ServiceName + "/Dismiss"
	MethodDestroy = "/" + ServiceName + "/Destroy"
	MethodBack    = "/" + ServiceName + "/Back"
	MethodStatus  = "/" + ServiceName + "/Status"
)

// AlertServiceServer is the server API of the alert host.
type AlertServiceServer interface {
	Deliver(ctx context.Context, request *structpb.Struct) (*structpb.Struct, error)
	Accept(ctx context.Context, alertID *wrapperspb.StringValue) (*structpb.Struct, error)
	Reject(ctx context.Context, alertID *wrapperspb.StringValue) (*structpb.Struct, error)
	Dismiss(ctx context.Context, alertID *wrapperspb.StringValue) (*structpb.Struct, error)
	Destroy(ctx context.Context, request *emptypb.Empty) (*structpb.Struct, error)
	Back(ctx context.Context, request *emptypb.Empty) (*structpb.Struct, error)
	Status(ctx context.Context, request *emptypb.Empty) (*structpb.Struct, error)
}

// ServiceDesc describes AlertService for grpc.ServiceRegistrar.
//
//nolint:gochecknoglobals // Service descriptors are package level, like generated code.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AlertServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Deliver", Handler: unary(MethodDeliver, newStruct, AlertServiceServer.Deliver)},
		{MethodName: "Accept", Handler: unary(MethodAccept, newStringValue, AlertServiceServer.Accept)},
		{MethodName: "Reject", Handler: unary(MethodReject, newStringValue, AlertServiceServer.Reject)},
		{MethodName: "Dismiss", Handler: unary(MethodDismiss, newStringValue, AlertServiceServer.Dismiss)},
		{MethodName: "Destroy", Handler: unary(MethodDestroy, newEmpty, AlertServiceServer.Destroy)},
		{MethodName: "Back", Handler: unary(MethodBack, newEmpty, AlertServiceServer.Back)},
		{MethodName: "Status", Handler: unary(MethodStatus, newEmpty, AlertServiceServer.Status)},
	},
	Streams: []grpc.StreamDesc{},
}

// Register attaches srv to the registrar.
func Register(registrar grpc.ServiceRegistrar, srv AlertServiceServer) {
	registrar.RegisterService(&ServiceDesc, srv)
}

func newStruct() *structpb.Struct           { return new(structpb.Struct) }
func newStringValue() *wrapperspb.StringValue { return new(wrapperspb.StringValue) }
func newEmpty() *emptypb.Empty               { return new(emptypb.Empty) }

// unary builds a method handler decoding into a fresh Req and running the
// interceptor chain, the way generated handlers do.
func unary[Req proto.Message](
	fullMethod string,
	newRequest func() Req,
	call func(AlertServiceServer, context.Context, Req) (*structpb.Struct, error),
) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		request := newRequest()
		if err := dec(request); err != nil {
			return nil, err
		}

		server, _ := srv.(AlertServiceServer)

		if interceptor == nil {
			return call(server, ctx, request)
		}

		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod,
		}

		return interceptor(ctx, request, info, func(ctx context.Context, req any) (any, error) {
			typed, _ := req.(Req)

			return call(server, ctx, typed)
		})
	}
}
