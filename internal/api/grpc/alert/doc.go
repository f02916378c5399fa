// Package alert implements the gRPC transport of the alert host.
//
// The service is described by a hand-written grpc.ServiceDesc over protobuf
// well-known types, so there is no generated code: requests and responses are
// structpb.Struct, wrapperspb.StringValue and emptypb.Empty messages. The
// package also owns the conversions between those messages and domain values,
// used by both the server and the client.
package alert
