package dispatch

import (
	"context"

	"github.com/oshokin/job-alert/internal/logger"
	"github.com/oshokin/job-alert/internal/service/lifecycle"
)

// Dismisser is the lifecycle transition behind the dismiss action.
type Dismisser interface {
	Dismiss(ctx context.Context, alertID string) lifecycle.Result
}

// DismissHook receives the reject action of a passive notification.
type DismissHook struct {
	target Dismisser
}

// NewDismissHook returns a hook resolving dismiss actions through target.
func NewDismissHook(target Dismisser) *DismissHook {
	return &DismissHook{target: target}
}

// Dismiss handles one dismiss action. A stale action for an alert that is no
// longer presenting is ignored by the lifecycle and reported as not applied.
func (h *DismissHook) Dismiss(ctx context.Context, alertID string) lifecycle.Result {
	ctx = logger.WithKV(ctx, "action", "dismiss")

	result := h.target.Dismiss(ctx, alertID)
	if !result.Applied {
		logger.InfoKV(ctx, "Dismiss action had no presenting alert", "alert_id", alertID)
	}

	return result
}
