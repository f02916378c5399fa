// Package feedbacktest provides recording feedback backends for tests.
package feedbacktest

import (
	"context"
	"sync"
	"time"

	"github.com/oshokin/job-alert/internal/service/feedback"
)

// Event is one recorded backend call, e.g. "loop:alarm" or "wake_lock:release".
type Event string

// Journal records backend calls from every fake sharing it, in order.
type Journal struct {
	mu     sync.Mutex
	events []Event
}

// Record appends an event.
func (j *Journal) Record(e Event) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.events = append(j.events, e)
}

// Events returns a copy of the recorded events.
func (j *Journal) Events() []Event {
	j.mu.Lock()
	defer j.mu.Unlock()

	return append([]Event(nil), j.events...)
}

// Count returns how many times e was recorded.
func (j *Journal) Count(e Event) int {
	j.mu.Lock()
	defer j.mu.Unlock()

	n := 0

	for _, recorded := range j.events {
		if recorded == e {
			n++
		}
	}

	return n
}

// Audio is a fake audio backend. Tones listed in Unavailable fail to loop.
type Audio struct {
	Journal     *Journal
	Unavailable map[feedback.Tone]bool
	VolumeErr   error
	StopErr     error
	StopPanics  bool
	LoopPanics  bool
}

// MaximizeVolume records the call.
func (a *Audio) MaximizeVolume(context.Context) error {
	a.Journal.Record("volume:max")

	return a.VolumeErr
}

// Loop records the call and fails for unavailable tones.
//
//nolint:ireturn // Fakes return the interface they implement.
func (a *Audio) Loop(_ context.Context, tone feedback.Tone) (feedback.Playback, error) {
	if a.LoopPanics {
		panic("audio backend exploded")
	}

	if a.Unavailable[tone] {
		a.Journal.Record(Event("loop_failed:" + string(tone)))

		return nil, feedback.ErrToneUnavailable
	}

	a.Journal.Record(Event("loop:" + string(tone)))

	return &playback{audio: a, tone: tone}, nil
}

type playback struct {
	audio *Audio
	tone  feedback.Tone
}

func (p *playback) Stop(context.Context) error {
	p.audio.Journal.Record(Event("stop:" + string(p.tone)))

	if p.audio.StopPanics {
		panic("audio backend exploded")
	}

	return p.audio.StopErr
}

// Vibrator is a fake vibrator.
type Vibrator struct {
	Journal    *Journal
	Missing    bool
	VibrateErr error
	CancelErr  error
	Panics     bool

	mu      sync.Mutex
	pattern feedback.Pattern
}

// Available reports whether the fake has a motor.
func (v *Vibrator) Available(context.Context) bool {
	return !v.Missing
}

// Vibrate records the call.
func (v *Vibrator) Vibrate(_ context.Context, pattern feedback.Pattern) error {
	if v.Panics {
		panic("vibrator exploded")
	}

	if v.VibrateErr != nil {
		return v.VibrateErr
	}

	v.mu.Lock()
	v.pattern = pattern
	v.mu.Unlock()

	v.Journal.Record("vibrate")

	return nil
}

// Cancel records the call.
func (v *Vibrator) Cancel(context.Context) error {
	v.Journal.Record("vibrate:cancel")

	return v.CancelErr
}

// Pattern returns the last pattern passed to Vibrate.
func (v *Vibrator) Pattern() feedback.Pattern {
	v.mu.Lock()
	defer v.mu.Unlock()

	return v.pattern
}

// Power is a fake power backend.
type Power struct {
	Journal       *Journal
	AcquireErr    error
	ReleaseErr    error
	AcquirePanics bool
	// Expired makes acquired locks report as no longer held.
	Expired bool

	mu      sync.Mutex
	maxHold time.Duration
}

// AcquireWakeLock records the call.
//
//nolint:ireturn // Fakes return the interface they implement.
func (p *Power) AcquireWakeLock(_ context.Context, _ string, maxHold time.Duration) (feedback.WakeLock, error) {
	if p.AcquirePanics {
		panic("power backend exploded")
	}

	if p.AcquireErr != nil {
		return nil, p.AcquireErr
	}

	p.mu.Lock()
	p.maxHold = maxHold
	p.mu.Unlock()

	p.Journal.Record("wake_lock:acquire")

	return &wakeLock{power: p, held: !p.Expired}, nil
}

// MaxHold returns the bound passed to the last acquisition.
func (p *Power) MaxHold() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.maxHold
}

type wakeLock struct {
	power *Power

	mu   sync.Mutex
	held bool
}

func (w *wakeLock) Held() bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.held
}

func (w *wakeLock) Release(context.Context) error {
	w.mu.Lock()
	w.held = false
	w.mu.Unlock()

	w.power.Journal.Record("wake_lock:release")

	return w.power.ReleaseErr
}

// Rig bundles fakes sharing one journal.
type Rig struct {
	Journal  *Journal
	Audio    *Audio
	Vibrator *Vibrator
	Power    *Power
}

// NewRig returns working fakes sharing a fresh journal.
func NewRig() *Rig {
	journal := new(Journal)

	return &Rig{
		Journal:  journal,
		Audio:    &Audio{Journal: journal},
		Vibrator: &Vibrator{Journal: journal},
		Power:    &Power{Journal: journal},
	}
}

// Backends returns the rig as driver backends.
func (r *Rig) Backends() feedback.Backends {
	return feedback.Backends{
		Audio:    r.Audio,
		Vibrator: r.Vibrator,
		Power:    r.Power,
	}
}

// Driver returns a driver over the rig with the provided options.
func (r *Rig) Driver(options feedback.Options) *feedback.Driver {
	return feedback.NewDriver(r.Backends(), options)
}
