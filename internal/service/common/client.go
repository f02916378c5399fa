//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	api "github.com/oshokin/job-alert/internal/api/grpc/alert"
	"github.com/oshokin/job-alert/internal/config"
	"github.com/oshokin/job-alert/internal/domain/alert"
	"github.com/oshokin/job-alert/internal/version"
)

// Client talks to the AlertService of a running alert host.
type Client struct {
	// conn is the underlying gRPC connection to the alert host.
	conn *grpc.ClientConn

	// callTimeout is the default timeout for individual RPC calls.
	callTimeout time.Duration
}

// Option configures client behaviour.
type Option func(*Client)

// WithCallTimeout sets a default timeout for service calls.
func WithCallTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.callTimeout = timeout
		}
	}
}

var (
	// errAddressRequired is returned when a required address value is missing.
	errAddressRequired = errors.New("address must be provided")
	// errAlertIDRequired is returned when an operation needs an explicit alert id.
	errAlertIDRequired = errors.New("alert id must be provided")
	// errNotConnected is returned when a call is made on a client without a connection.
	errNotConnected = errors.New("client is not connected")
)

// Dial prepares a connection to the alert host.
// The transport is insecure; the host is meant to listen on a trusted network.
func Dial(_ context.Context, address string, opts ...Option) (*Client, error) {
	if address == "" {
		return nil, errAddressRequired
	}

	conn, err := grpc.NewClient(address,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUserAgent(version.UserAgent()),
	)
	if err != nil {
		return nil, fmt.Errorf("dial alert host: %w", err)
	}

	client := &Client{
		conn:        conn,
		callTimeout: config.DefaultTimeout,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client, nil
}

// Close releases the underlying gRPC connection.
func (c *Client) Close() error {
	if c == nil || c.conn == nil {
		return nil
	}

	return c.conn.Close()
}

// Deliver pushes one message to the host. env may be nil to use the host defaults.
func (c *Client) Deliver(ctx context.Context, data map[string]string, env *alert.Environment) (*structpb.Struct, error) {
	request, err := api.NewDeliverRequest(data, env)
	if err != nil {
		return nil, err
	}

	return c.invoke(ctx, "deliver", api.MethodDeliver, request)
}

// Accept accepts the presenting alert; an empty id addresses whichever alert is presenting.
func (c *Client) Accept(ctx context.Context, alertID string) (*structpb.Struct, error) {
	return c.invoke(ctx, "accept", api.MethodAccept, wrapperspb.String(alertID))
}

// Reject rejects the presenting alert; an empty id addresses whichever alert is presenting.
func (c *Client) Reject(ctx context.Context, alertID string) (*structpb.Struct, error) {
	return c.invoke(ctx, "reject", api.MethodReject, wrapperspb.String(alertID))
}

// Dismiss sends the dismiss action of the passive notification for alertID.
func (c *Client) Dismiss(ctx context.Context, alertID string) (*structpb.Struct, error) {
	if alertID == "" {
		return nil, errAlertIDRequired
	}

	return c.invoke(ctx, "dismiss", api.MethodDismiss, wrapperspb.String(alertID))
}

// Destroy reports that the alert presentation was torn down.
func (c *Client) Destroy(ctx context.Context) (*structpb.Struct, error) {
	return c.invoke(ctx, "destroy", api.MethodDestroy, new(emptypb.Empty))
}

// Back sends a back gesture.
func (c *Client) Back(ctx context.Context) (*structpb.Struct, error) {
	return c.invoke(ctx, "back", api.MethodBack, new(emptypb.Empty))
}

// Status retrieves the host status.
func (c *Client) Status(ctx context.Context) (*structpb.Struct, error) {
	return c.invoke(ctx, "status", api.MethodStatus, new(emptypb.Empty))
}

func (c *Client) invoke(ctx context.Context, name, method string, request proto.Message) (*structpb.Struct, error) {
	if c == nil || c.conn == nil {
		return nil, errNotConnected
	}

	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	response := new(structpb.Struct)
	if err := c.conn.Invoke(callCtx, method, request, response); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	return response, nil
}

// callContext returns a context with the client's call timeout if configured,
// otherwise a cancellable child context without a deadline.
func (c *Client) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.callTimeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, c.callTimeout)
}
