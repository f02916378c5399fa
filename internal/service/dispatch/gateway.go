package dispatch

import (
	"context"

	"github.com/oshokin/job-alert/internal/domain/alert"
	"github.com/oshokin/job-alert/internal/logger"
	"github.com/oshokin/job-alert/internal/service/lifecycle"
)

// PresentationHost shows and clears alerts on the device.
type PresentationHost interface {
	ShowFullScreen(ctx context.Context, a *alert.JobAlert) error
	ShowPassiveNotification(ctx context.Context, a *alert.JobAlert) error
	CancelPassiveNotification(ctx context.Context, alertID string) error
	ShowGenericNotification(ctx context.Context, title, body string) error
}

// NavigationHost opens the primary application context.
type NavigationHost interface {
	OpenPrimaryContext(ctx context.Context, jobID string, action alert.Action) error
}

// Gateway performs the outbound effects of the lifecycle machine.
// Host failures are logged and never returned: a decision has already been made.
type Gateway struct {
	presentation PresentationHost
	navigation   NavigationHost
}

var _ lifecycle.Dispatcher = (*Gateway)(nil)

// NewGateway wires the provided hosts into a gateway.
func NewGateway(presentation PresentationHost, navigation NavigationHost) *Gateway {
	return &Gateway{
		presentation: presentation,
		navigation:   navigation,
	}
}

// Present shows a new session in the chosen presentation.
func (g *Gateway) Present(ctx context.Context, a *alert.JobAlert, p alert.Presentation) {
	var err error

	switch p {
	case alert.PresentationFullScreen:
		err = g.presentation.ShowFullScreen(ctx, a)
	case alert.PresentationPassive:
		err = g.presentation.ShowPassiveNotification(ctx, a)
	default:
		logger.WarnKV(ctx, "Unknown presentation, falling back to passive", "presentation", p)
		err = g.presentation.ShowPassiveNotification(ctx, a)
	}

	if err != nil {
		logger.ErrorKV(ctx, "Unable to present alert", "presentation", p, "error", err)
	}
}

// Resolve carries out the effects of a terminal decision: navigation on
// accept, clearing the passive notification on every other decision.
func (g *Gateway) Resolve(ctx context.Context, r *alert.Resolution) {
	switch r.Decision {
	case alert.StateAccepted:
		if err := g.navigation.OpenPrimaryContext(ctx, r.Alert.ID, alert.ActionAccept); err != nil {
			logger.ErrorKV(ctx, "Unable to open primary context", "error", err)
		}
	case alert.StateRejected, alert.StateTimedOut, alert.StateSuperseded:
		if err := g.presentation.CancelPassiveNotification(ctx, r.Alert.ID); err != nil {
			logger.ErrorKV(ctx, "Unable to clear passive notification", "error", err)
		}
	default:
		logger.WarnKV(ctx, "Resolution with a non-terminal decision ignored", "decision", r.Decision)
	}
}

// ShowGeneric shows a regular notification for a message that is not a job alert.
func (g *Gateway) ShowGeneric(ctx context.Context, title, body string) {
	if err := g.presentation.ShowGenericNotification(ctx, title, body); err != nil {
		logger.ErrorKV(ctx, "Unable to show generic notification", "error", err)
	}
}
