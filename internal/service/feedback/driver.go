package feedback

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/oshokin/job-alert/internal/logger"
)

// Backends are the device capabilities used by the driver. A nil backend is
// treated as an unavailable resource.
type Backends struct {
	Audio    Audio
	Vibrator Vibrator
	Power    Power
}

// Options tune the driver.
type Options struct {
	// Pattern is the vibration waveform.
	Pattern Pattern
	// WakeLockMaxHold is the hard upper bound passed to the power backend.
	WakeLockMaxHold time.Duration
	// CallTimeout bounds every backend call.
	CallTimeout time.Duration
	// WakeLockTag identifies the lock to the OS.
	WakeLockTag string
}

var (
	errBackendPanic = errors.New("feedback backend panicked")
	errNoVibrator   = errors.New("device has no vibrator")
)

const (
	defaultWakeLockMaxHold = 120 * time.Second
	defaultCallTimeout     = 2 * time.Second
	defaultWakeLockTag     = "job-alert:alert"
)

// Driver creates feedback handles over a fixed set of backends.
type Driver struct {
	backends Backends
	options  Options
}

// NewDriver returns a driver over the provided backends.
func NewDriver(backends Backends, options Options) *Driver {
	if options.WakeLockMaxHold <= 0 {
		options.WakeLockMaxHold = defaultWakeLockMaxHold
	}

	if options.CallTimeout <= 0 {
		options.CallTimeout = defaultCallTimeout
	}

	if options.WakeLockTag == "" {
		options.WakeLockTag = defaultWakeLockTag
	}

	return &Driver{
		backends: backends,
		options:  options,
	}
}

// NewHandle returns an unstarted handle for one alert session.
func (d *Driver) NewHandle() *Handle {
	return &Handle{driver: d}
}

// Report is a snapshot of a handle's resources.
type Report struct {
	Started      bool
	Stopped      bool
	Tone         Tone
	Vibrating    bool
	WakeLockHeld bool
	// Degraded is set when at least one resource could not be acquired.
	Degraded bool
}

// Handle owns the feedback resources of one alert session.
type Handle struct {
	driver *Driver

	// mu serializes Start and Stop so each resource changes hands once.
	mu        sync.Mutex
	started   bool
	stopped   bool
	degraded  bool
	tone      Tone
	playback  Playback
	vibrating bool
	wakeLock  WakeLock
}

// Start acquires the wake lock, maximizes volume, starts the tone loop and the
// vibration pattern. It is a no-op on a handle that was already started or stopped.
// Acquisition failures are logged and leave the handle degraded, never failed.
func (h *Handle) Start(ctx context.Context) Report {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.started || h.stopped {
		logger.DebugKV(ctx, "Feedback start ignored", "started", h.started, "stopped", h.stopped)

		return h.reportLocked()
	}

	h.started = true

	h.acquireWakeLock(ctx)
	h.startTone(ctx)
	h.startVibration(ctx)

	report := h.reportLocked()

	logger.InfoKV(ctx, "Feedback started",
		"tone", report.Tone,
		"vibrating", report.Vibrating,
		"wake_lock_held", report.WakeLockHeld,
		"degraded", report.Degraded,
	)

	return report
}

// Stop releases every resource that was acquired. It is safe to call any
// number of times and concurrently; only the first call releases anything.
// The returned error joins the release failures of that first call.
func (h *Handle) Stop(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.stopped {
		return nil
	}

	h.stopped = true

	if !h.started {
		return nil
	}

	// Teardown must finish even when the triggering request was cancelled.
	ctx = context.WithoutCancel(ctx)

	var errs []error

	if h.vibrating {
		if err := h.call(ctx, h.driver.backends.Vibrator.Cancel); err != nil {
			errs = append(errs, fmt.Errorf("cancel vibration: %w", err))
		}

		h.vibrating = false
	}

	if h.playback != nil {
		if err := h.call(ctx, h.playback.Stop); err != nil {
			errs = append(errs, fmt.Errorf("stop tone: %w", err))
		}

		h.playback = nil
	}

	if h.wakeLock != nil {
		if h.wakeLockHeld() {
			if err := h.call(ctx, h.wakeLock.Release); err != nil {
				errs = append(errs, fmt.Errorf("release wake lock: %w", err))
			}
		}

		h.wakeLock = nil
	}

	err := errors.Join(errs...)
	if err != nil {
		logger.WarnKV(ctx, "Feedback stopped with release errors", "error", err)
	} else {
		logger.Info(ctx, "Feedback stopped")
	}

	return err
}

// Report returns a snapshot of the handle.
func (h *Handle) Report() Report {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.reportLocked()
}

func (h *Handle) reportLocked() Report {
	return Report{
		Started:      h.started,
		Stopped:      h.stopped,
		Tone:         h.tone,
		Vibrating:    h.vibrating,
		WakeLockHeld: h.wakeLockHeld(),
		Degraded:     h.degraded,
	}
}

// wakeLockHeld treats a panicking Held as a lock that is gone.
func (h *Handle) wakeLockHeld() (held bool) {
	if h.wakeLock == nil {
		return false
	}

	defer func() {
		if recover() != nil {
			held = false
		}
	}()

	return h.wakeLock.Held()
}

func (h *Handle) acquireWakeLock(ctx context.Context) {
	power := h.driver.backends.Power
	if power == nil {
		h.degrade(ctx, "wake_lock", errors.New("no power backend"))
		return
	}

	var lock WakeLock

	err := h.call(ctx, func(callCtx context.Context) (err error) {
		lock, err = power.AcquireWakeLock(callCtx, h.driver.options.WakeLockTag, h.driver.options.WakeLockMaxHold)
		return err
	})
	if err != nil {
		h.degrade(ctx, "wake_lock", err)
		return
	}

	h.wakeLock = lock
}

func (h *Handle) startTone(ctx context.Context) {
	h.tone = ToneSilent

	audio := h.driver.backends.Audio
	if audio == nil {
		h.degrade(ctx, "tone", errors.New("no audio backend"))
		return
	}

	if err := h.call(ctx, audio.MaximizeVolume); err != nil {
		// Playing at the current volume is still better than silence.
		logger.WarnKV(ctx, "Unable to maximize alert volume", "error", err)
	}

	for _, tone := range ToneFallback {
		var playback Playback

		err := h.call(ctx, func(callCtx context.Context) (err error) {
			playback, err = audio.Loop(callCtx, tone)
			return err
		})
		if err != nil {
			logger.DebugKV(ctx, "Tone unavailable, trying next", "tone", tone, "error", err)
			continue
		}

		h.tone = tone
		h.playback = playback

		return
	}

	h.degrade(ctx, "tone", ErrToneUnavailable)
}

func (h *Handle) startVibration(ctx context.Context) {
	vibrator := h.driver.backends.Vibrator
	if vibrator == nil {
		h.degrade(ctx, "vibration", errors.New("no vibrator backend"))
		return
	}

	err := h.call(ctx, func(callCtx context.Context) error {
		if !vibrator.Available(callCtx) {
			return errNoVibrator
		}

		return vibrator.Vibrate(callCtx, h.driver.options.Pattern)
	})
	if err != nil {
		h.degrade(ctx, "vibration", err)
		return
	}

	h.vibrating = true
}

func (h *Handle) degrade(ctx context.Context, resource string, cause error) {
	h.degraded = true

	logger.WarnKV(ctx, "Feedback degraded",
		"resource", resource,
		"error", fmt.Errorf("%w: %w", ErrFeedbackResourceUnavailable, cause),
	)
}

// call runs fn with the per-call timeout and converts a panic into
// errBackendPanic. Every acquisition and release goes through it.
func (h *Handle) call(ctx context.Context, fn func(context.Context) error) (err error) {
	callCtx, cancel := h.callContext(ctx)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", errBackendPanic, r)
		}
	}()

	return fn(callCtx)
}

func (h *Handle) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, h.driver.options.CallTimeout)
}
