package host

import (
	"context"
	"io"

	"golang.org/x/time/rate"

	"github.com/oshokin/job-alert/internal/config"
	"github.com/oshokin/job-alert/internal/domain/alert"
	"github.com/oshokin/job-alert/internal/service/device"
	"github.com/oshokin/job-alert/internal/service/dispatch"
	"github.com/oshokin/job-alert/internal/service/feedback"
	"github.com/oshokin/job-alert/internal/service/lifecycle"
	"github.com/oshokin/job-alert/internal/service/router"
)

// service is the component graph behind the transport.
type service struct {
	machine *lifecycle.Machine
	router  *router.Router
	limiter *rate.Limiter
}

// newService builds the graph from settings. Presentations are written to out.
func newService(ctx context.Context, settings *config.Config, out io.Writer) *service {
	return newServiceWithBackends(ctx, settings, out, device.NewBackends(ctx, settings.Feedback))
}

func newServiceWithBackends(
	ctx context.Context,
	settings *config.Config,
	out io.Writer,
	backends feedback.Backends,
) *service {
	driver := feedback.NewDriver(backends, feedback.Options{
		Pattern: feedback.Pattern{
			On:          settings.Feedback.Vibration.On,
			Off:         settings.Feedback.Vibration.Off,
			Repetitions: settings.Feedback.Vibration.Repetitions,
		},
		WakeLockMaxHold: settings.Feedback.WakeLockMaxHold,
		CallTimeout:     settings.Feedback.CallTimeout,
	})

	gateway := dispatch.NewGateway(device.NewConsole(out), device.NewNavigator(settings.Alert.PrimaryContextURL))

	machine := lifecycle.New(ctx, driver, gateway, lifecycle.Options{
		Deadline: settings.Alert.Deadline,
	})

	defaults := alert.Environment{
		DeviceLocked:         settings.Device.Locked,
		DeviceInteractive:    settings.Device.Interactive,
		FullScreenPermission: settings.Device.FullScreenPermission,
	}

	return &service{
		machine: machine,
		router:  router.New(machine, gateway, defaults),
		limiter: rate.NewLimiter(rate.Limit(settings.Server.DeliveriesPerSecond), settings.Server.DeliveryBurst),
	}
}
