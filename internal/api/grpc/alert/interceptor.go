package alert

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/status"

	"github.com/oshokin/job-alert/internal/logger"
)

// UnaryLogger returns an interceptor that gives every request the logger of
// base, tagged with the method, and logs the outcome of the call.
func UnaryLogger(base context.Context) grpc.UnaryServerInterceptor {
	requestLogger := logger.FromContext(logger.WithName(base, "grpc"))

	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		ctx = logger.WithKV(logger.ToContext(ctx, requestLogger), "method", info.FullMethod)

		started := time.Now()
		response, err := handler(ctx, req)

		code := status.Code(err)
		if err != nil {
			logger.WarnKV(ctx, "Request failed", "code", code.String(), "error", err)
		} else {
			logger.DebugKV(ctx, "Request served", "code", code.String(), "elapsed", time.Since(started).String())
		}

		return response, err
	}
}
