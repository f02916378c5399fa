package device

import (
	"context"
	"net/url"
	"strings"

	"github.com/oshokin/job-alert/internal/domain/alert"
	"github.com/oshokin/job-alert/internal/logger"
)

// Navigator opens the primary context of an accepted job.
type Navigator struct {
	template string
	open     func(ctx context.Context, target string) error
}

// NewNavigator returns a navigation host. With an empty template the
// navigation is only logged.
func NewNavigator(template string) *Navigator {
	return &Navigator{
		template: template,
		open:     openTarget(currentPlatform()),
	}
}

// OpenPrimaryContext opens the job page for the decided action.
func (n *Navigator) OpenPrimaryContext(ctx context.Context, jobID string, action alert.Action) error {
	if n.template == "" {
		logger.InfoKV(ctx, "Primary context opened", "job_id", jobID, "action", action)

		return nil
	}

	target := ExpandURL(n.template, jobID, action)

	logger.InfoKV(ctx, "Opening primary context", "job_id", jobID, "action", action, "url", target)

	return n.open(ctx, target)
}

// ExpandURL substitutes the {job_id} and {action} placeholders of template.
func ExpandURL(template, jobID string, action alert.Action) string {
	return strings.NewReplacer(
		"{job_id}", url.PathEscape(jobID),
		"{action}", url.PathEscape(string(action)),
	).Replace(template)
}

func openTarget(p platform) func(ctx context.Context, target string) error {
	return func(ctx context.Context, target string) error {
		if p.opener == nil {
			return unsupported("URL opening")
		}

		// The opener hands over to the desktop and is reaped in the background.
		_, err := startProcess(ctx, p.opener(target), nil)

		return err
	}
}
