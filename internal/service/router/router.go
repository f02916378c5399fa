package router

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oshokin/job-alert/internal/domain/alert"
	"github.com/oshokin/job-alert/internal/logger"
	"github.com/oshokin/job-alert/internal/service/dispatch"
	"github.com/oshokin/job-alert/internal/service/lifecycle"
	"github.com/oshokin/job-alert/internal/service/payload"
	"github.com/oshokin/job-alert/internal/service/presentation"
)

// Routed describes what happened to an inbound message.
type Routed struct {
	// Generic is true when the message was shown as a generic notification.
	Generic bool
	// Delivery is set for job alerts.
	Delivery *lifecycle.Delivery
}

// Router connects the parser, the selector and the lifecycle machine.
type Router struct {
	machine  *lifecycle.Machine
	gateway  *dispatch.Gateway
	hook     *dispatch.DismissHook
	defaults alert.Environment
	now      func() time.Time
}

// New returns a router. defaults is the device environment used for messages
// that do not describe one.
func New(machine *lifecycle.Machine, gateway *dispatch.Gateway, defaults alert.Environment) *Router {
	return &Router{
		machine:  machine,
		gateway:  gateway,
		hook:     dispatch.NewDismissHook(machine),
		defaults: defaults,
		now:      time.Now,
	}
}

// Route handles one inbound message. env may be nil.
func (r *Router) Route(ctx context.Context, data map[string]string, env *alert.Environment) (*Routed, error) {
	ctx = logger.WithName(ctx, "router")

	a, err := payload.Parse(data, r.now())
	if errors.Is(err, payload.ErrMalformedPayload) {
		generic := payload.ParseGeneric(data)

		logger.DebugKV(ctx, "Not a job alert, showing generic notification", "error", err, "title", generic.Title)
		r.gateway.ShowGeneric(ctx, generic.Title, generic.Body)

		return &Routed{Generic: true}, nil
	}

	if err != nil {
		return nil, fmt.Errorf("parse payload: %w", err)
	}

	environment := r.defaults
	if env != nil {
		environment = *env
	}

	p := presentation.Select(a, environment)

	logger.DebugKV(ctx, "Presentation selected",
		"alert_id", a.ID,
		"presentation", p,
		"device_locked", environment.DeviceLocked,
		"device_interactive", environment.DeviceInteractive,
		"full_screen_permission", environment.FullScreenPermission,
	)

	delivery, err := r.machine.Deliver(ctx, a, p)
	if err != nil {
		return nil, fmt.Errorf("deliver alert: %w", err)
	}

	return &Routed{Delivery: delivery}, nil
}

// Accept resolves the presenting alert as accepted.
func (r *Router) Accept(ctx context.Context, alertID string) lifecycle.Result {
	return r.machine.Accept(ctx, alertID)
}

// Reject resolves the presenting alert as rejected from the alert UI.
func (r *Router) Reject(ctx context.Context, alertID string) lifecycle.Result {
	return r.machine.Reject(ctx, alertID)
}

// Dismiss is the out-of-band reject action of a passive notification.
func (r *Router) Dismiss(ctx context.Context, alertID string) lifecycle.Result {
	return r.hook.Dismiss(ctx, alertID)
}

// Destroy reports that the host tore down the alert presentation.
func (r *Router) Destroy(ctx context.Context) lifecycle.Result {
	return r.machine.Destroy(ctx)
}

// Back forwards a back gesture; true means it was swallowed.
func (r *Router) Back(ctx context.Context) bool {
	return r.machine.Back(ctx)
}

// Status returns the machine status.
func (r *Router) Status(context.Context) lifecycle.Status {
	return r.machine.Status()
}
