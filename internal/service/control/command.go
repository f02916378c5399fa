package control

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap/zapcore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/oshokin/job-alert/internal/config"
	"github.com/oshokin/job-alert/internal/domain/alert"
	"github.com/oshokin/job-alert/internal/logger"
	"github.com/oshokin/job-alert/internal/service/common"
)

// Options configures one alert-ctl invocation.
type Options struct {
	// ConfigPath to YAML settings file, defaults to standard filename if empty.
	ConfigPath string
	// ServerAddress overrides the host address from config when specified.
	// With an address and no settings file the defaults are used.
	ServerAddress string
	// Retry keeps retrying while the host is unreachable or busy.
	Retry bool
	// Verbose logs client activity at debug level.
	Verbose bool
	// Out receives the host answer as JSON; os.Stdout when nil.
	Out io.Writer
}

// Action is one call to the host.
type Action struct {
	// Name is used in logs and errors.
	Name string
	Call func(ctx context.Context, client *common.Client) (*structpb.Struct, error)
}

// retryInterval is the delay between two attempts in retry mode.
const retryInterval = 1 * time.Second

// Deliver pushes a message. env may be nil to use the host defaults.
func Deliver(data map[string]string, env *alert.Environment) Action {
	return Action{Name: "deliver", Call: func(ctx context.Context, c *common.Client) (*structpb.Struct, error) {
		return c.Deliver(ctx, data, env)
	}}
}

// Accept accepts the presenting alert.
func Accept(alertID string) Action {
	return Action{Name: "accept", Call: func(ctx context.Context, c *common.Client) (*structpb.Struct, error) {
		return c.Accept(ctx, alertID)
	}}
}

// Reject rejects the presenting alert.
func Reject(alertID string) Action {
	return Action{Name: "reject", Call: func(ctx context.Context, c *common.Client) (*structpb.Struct, error) {
		return c.Reject(ctx, alertID)
	}}
}

// Dismiss sends the notification dismiss action.
func Dismiss(alertID string) Action {
	return Action{Name: "dismiss", Call: func(ctx context.Context, c *common.Client) (*structpb.Struct, error) {
		return c.Dismiss(ctx, alertID)
	}}
}

// Destroy reports a torn down presentation.
func Destroy() Action {
	return Action{Name: "destroy", Call: func(ctx context.Context, c *common.Client) (*structpb.Struct, error) {
		return c.Destroy(ctx)
	}}
}

// Back sends a back gesture.
func Back() Action {
	return Action{Name: "back", Call: func(ctx context.Context, c *common.Client) (*structpb.Struct, error) {
		return c.Back(ctx)
	}}
}

// Status asks for the host status.
func Status() Action {
	return Action{Name: "status", Call: func(ctx context.Context, c *common.Client) (*structpb.Struct, error) {
		return c.Status(ctx)
	}}
}

// Run performs the action against the configured host and prints the answer.
func Run(ctx context.Context, opts *Options, action Action) error {
	ctx = logger.WithName(ctx, "alert-ctl")
	if opts.Verbose {
		ctx = logger.WithContextLevel(ctx, zapcore.DebugLevel)
	}

	cfg, err := loadSettings(opts)
	if err != nil {
		return err
	}

	serverAddress := cfg.ServerAddress
	if opts.ServerAddress != "" {
		serverAddress = opts.ServerAddress
	}

	client, err := common.Dial(ctx, serverAddress, common.WithCallTimeout(cfg.Timeout))
	if err != nil {
		return err
	}

	defer func() {
		_ = client.Close()
	}()

	ctx = logger.WithKV(ctx, "action", action.Name)
	logger.DebugKV(ctx, "Calling alert host", "server_address", serverAddress)

	response, err := call(ctx, client, action, opts.Retry)
	if err != nil {
		return err
	}

	out := opts.Out
	if out == nil {
		out = os.Stdout
	}

	return printResponse(out, response)
}

// call runs the action once, or until it succeeds or fails permanently in retry mode.
func call(ctx context.Context, client *common.Client, action Action, retry bool) (*structpb.Struct, error) {
	response, err := action.Call(ctx, client)
	if err == nil || !retry || !transient(err) {
		return response, err
	}

	ticker := time.NewTicker(retryInterval)
	defer ticker.Stop()

	for {
		logger.WarnKV(ctx, "Alert host not ready, retrying", "error", err)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}

		response, err = action.Call(ctx, client)
		if err == nil || !transient(err) {
			return response, err
		}
	}
}

// transient reports whether a failed call may succeed later.
func transient(err error) bool {
	switch status.Code(err) {
	case codes.Unavailable, codes.ResourceExhausted, codes.DeadlineExceeded:
		return true
	default:
		return false
	}
}

func loadSettings(opts *Options) (*config.Config, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err == nil {
		return cfg, nil
	}

	if errors.Is(err, os.ErrNotExist) && opts.ServerAddress != "" {
		return config.Default(opts.ServerAddress), nil
	}

	return nil, err
}

func printResponse(out io.Writer, response *structpb.Struct) error {
	data, err := protojson.MarshalOptions{Multiline: true, Indent: "  "}.Marshal(response)
	if err != nil {
		return fmt.Errorf("format response: %w", err)
	}

	if _, err := fmt.Fprintln(out, string(data)); err != nil {
		return fmt.Errorf("write response: %w", err)
	}

	return nil
}
