package host

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"

	"google.golang.org/grpc"

	api "github.com/oshokin/job-alert/internal/api/grpc/alert"
	"github.com/oshokin/job-alert/internal/config"
	"github.com/oshokin/job-alert/internal/logger"
)

// Options controls the alert-host process.
type Options struct {
	// ConfigPath specifies the path to settings YAML file.
	ConfigPath string
	// ListenAddress provides an optional listen address override for the gRPC server.
	ListenAddress string
	// Out receives the console presentations; os.Stdout when nil.
	Out io.Writer
}

// ErrNoServerAddress indicates missing server configuration.
var ErrNoServerAddress = errors.New("no server address configured")

// Run starts the alert host and blocks until ctx is canceled or the server stops.
// On the way out the presenting alert, if any, is rejected so its feedback stops.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "alert-host")

	settings, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	if err := logger.Configure(settings.LogLevel); err != nil {
		return fmt.Errorf("configure logger: %w", err)
	}

	listenAddress, err := resolveListenAddress(settings.ServerAddress, opts.ListenAddress)
	if err != nil {
		return fmt.Errorf("resolve listen address: %w", err)
	}

	out := opts.Out
	if out == nil {
		out = os.Stdout
	}

	svc := newService(ctx, settings, out)

	lc := net.ListenConfig{}

	lis, err := lc.Listen(ctx, "tcp", listenAddress)
	if err != nil {
		svc.machine.Close(ctx)

		return fmt.Errorf("listen on %s: %w", listenAddress, err)
	}

	grpcServer := grpc.NewServer(grpc.ChainUnaryInterceptor(api.UnaryLogger(ctx)))
	api.Register(grpcServer, api.NewServer(svc.router, svc.limiter))

	logger.InfoKV(ctx, "Alert host listening",
		"listen_address", lis.Addr().String(),
		"feedback_backend", settings.Feedback.Backend,
		"deadline", settings.Alert.Deadline.String(),
	)

	// Done is closed once the server and the machine are fully stopped.
	done := make(chan struct{})

	go func() {
		defer close(done)

		<-ctx.Done()
		logger.Info(ctx, "Shutting down gRPC server")
		grpcServer.GracefulStop()

		svc.machine.Close(context.WithoutCancel(ctx))
	}()

	if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return fmt.Errorf("serve gRPC: %w", err)
	}

	<-done
	logger.Info(ctx, "Alert host stopped")

	return nil
}

// resolveListenAddress determines the listen address for the gRPC server.
// An override is used as is; otherwise the port of configAddr is bound on all interfaces.
func resolveListenAddress(configAddr, override string) (string, error) {
	if override != "" {
		return override, nil
	}

	if configAddr == "" {
		return "", ErrNoServerAddress
	}

	_, port, err := net.SplitHostPort(configAddr)
	if err != nil {
		return "", fmt.Errorf("invalid server address format %q: %w", configAddr, err)
	}

	return ":" + port, nil
}
