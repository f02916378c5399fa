package device

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/oshokin/job-alert/internal/service/feedback"
)

// Power keeps the display awake by running an OS inhibitor command whose own
// lifetime is the hold bound.
type Power struct {
	platform platform
	tracker  *Tracker
}

// NewPower returns an OS wake lock backend. Inhibitors are listed in tracker,
// which may be nil.
func NewPower(tracker *Tracker) (*Power, error) {
	p := currentPlatform()
	if p.inhibitor == nil {
		return nil, unsupported("wake lock")
	}

	return &Power{platform: p, tracker: tracker}, nil
}

// AcquireWakeLock starts the inhibitor for at most maxHold, rounded up to whole seconds.
//
//nolint:ireturn // Implements feedback.Power.
func (p *Power) AcquireWakeLock(ctx context.Context, tag string, maxHold time.Duration) (feedback.WakeLock, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	seconds := max(1, int(math.Ceil(maxHold.Seconds())))

	inhibitor, err := startProcess(ctx, p.platform.inhibitor(tag, seconds), p.tracker)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", feedback.ErrFeedbackResourceUnavailable, err)
	}

	return &wakeLock{inhibitor: inhibitor}, nil
}

type wakeLock struct {
	inhibitor *process
}

// Held is false once the inhibitor has exited, including when the OS bound elapsed.
func (w *wakeLock) Held() bool {
	return w.inhibitor.alive()
}

func (w *wakeLock) Release(ctx context.Context) error {
	return w.inhibitor.stop(ctx)
}
