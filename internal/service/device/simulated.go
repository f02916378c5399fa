package device

import (
	"context"
	"sync"
	"time"

	"github.com/oshokin/job-alert/internal/logger"
	"github.com/oshokin/job-alert/internal/service/feedback"
)

// SimulatedAudio logs tone playback instead of producing sound.
type SimulatedAudio struct{}

// MaximizeVolume logs the call.
func (SimulatedAudio) MaximizeVolume(ctx context.Context) error {
	logger.InfoKV(ctx, "Simulated volume set to maximum")

	return nil
}

// Loop logs the start of the tone.
//
//nolint:ireturn // Implements feedback.Audio.
func (SimulatedAudio) Loop(ctx context.Context, tone feedback.Tone) (feedback.Playback, error) {
	logger.InfoKV(ctx, "Simulated tone playing", "tone", tone)

	return simulatedPlayback{tone: tone}, nil
}

type simulatedPlayback struct {
	tone feedback.Tone
}

func (p simulatedPlayback) Stop(ctx context.Context) error {
	logger.InfoKV(ctx, "Simulated tone stopped", "tone", p.tone)

	return nil
}

// SimulatedVibrator logs every pulse of the pattern.
type SimulatedVibrator struct {
	mu     sync.Mutex
	cancel chan struct{}
	done   chan struct{}
}

// NewSimulatedVibrator returns an idle simulated vibrator.
func NewSimulatedVibrator() *SimulatedVibrator {
	return new(SimulatedVibrator)
}

// Available always reports a motor.
func (v *SimulatedVibrator) Available(context.Context) bool {
	return true
}

// Vibrate replaces any running pattern with the provided one.
func (v *SimulatedVibrator) Vibrate(ctx context.Context, pattern feedback.Pattern) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.cancelLocked()

	cancel := make(chan struct{})
	done := make(chan struct{})
	v.cancel, v.done = cancel, done

	logger.InfoKV(ctx, "Simulated vibration started",
		"on", pattern.On.String(),
		"off", pattern.Off.String(),
		"repetitions", pattern.Repetitions,
	)

	go pulse(context.WithoutCancel(ctx), pattern, cancel, done)

	return nil
}

// Cancel stops the running pattern.
func (v *SimulatedVibrator) Cancel(ctx context.Context) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.cancelLocked() {
		logger.InfoKV(ctx, "Simulated vibration cancelled")
	}

	return nil
}

func (v *SimulatedVibrator) cancelLocked() bool {
	if v.cancel == nil {
		return false
	}

	close(v.cancel)
	<-v.done

	v.cancel, v.done = nil, nil

	return true
}

func pulse(ctx context.Context, pattern feedback.Pattern, cancel <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	timer := time.NewTimer(0)
	defer timer.Stop()

	for cycle := 1; pattern.Forever() || cycle <= pattern.Repetitions; cycle++ {
		select {
		case <-cancel:
			return
		case <-timer.C:
		}

		logger.DebugKV(ctx, "Simulated vibration pulse", "cycle", cycle)
		timer.Reset(pattern.On + pattern.Off)
	}
}

// SimulatedPower hands out wake locks that expire on their own after the hold bound.
type SimulatedPower struct{}

// AcquireWakeLock returns a lock held for at most maxHold.
//
//nolint:ireturn // Implements feedback.Power.
func (SimulatedPower) AcquireWakeLock(ctx context.Context, tag string, maxHold time.Duration) (feedback.WakeLock, error) {
	ctx = logger.WithKV(context.WithoutCancel(ctx), "tag", tag)

	lock := &simulatedWakeLock{held: true}
	lock.expiry = time.AfterFunc(maxHold, func() {
		if lock.drop() {
			logger.WarnKV(ctx, "Simulated wake lock expired", "max_hold", maxHold.String())
		}
	})

	logger.InfoKV(ctx, "Simulated wake lock acquired", "max_hold", maxHold.String())

	return lock, nil
}

type simulatedWakeLock struct {
	mu     sync.Mutex
	held   bool
	expiry *time.Timer
}

func (w *simulatedWakeLock) Held() bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.held
}

func (w *simulatedWakeLock) Release(ctx context.Context) error {
	w.expiry.Stop()

	if w.drop() {
		logger.InfoKV(ctx, "Simulated wake lock released")
	}

	return nil
}

// drop clears the lock and reports whether it was still held.
func (w *simulatedWakeLock) drop() bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	held := w.held
	w.held = false

	return held
}
