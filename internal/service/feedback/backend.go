package feedback

import (
	"context"
	"errors"
	"time"
)

// Tone is a class of system sound.
type Tone string

const (
	ToneAlarm        Tone = "alarm"
	ToneRingtone     Tone = "ringtone"
	ToneNotification Tone = "notification"
	// ToneSilent means no tone could be started.
	ToneSilent Tone = "silent"
)

// ToneFallback is the order in which tones are tried.
//
//nolint:gochecknoglobals // Read-only preference list.
var ToneFallback = []Tone{ToneAlarm, ToneRingtone, ToneNotification}

var (
	// ErrFeedbackResourceUnavailable marks a feedback resource that could not be acquired.
	// The alert continues with degraded feedback.
	ErrFeedbackResourceUnavailable = errors.New("feedback resource unavailable")
	// ErrToneUnavailable is returned by Audio backends for a tone they cannot play.
	ErrToneUnavailable = errors.New("tone unavailable")
)

// Audio plays looping tones on the alert channel.
// The context passed to each method bounds the call, not the playback.
type Audio interface {
	// MaximizeVolume forces the alert channel volume to its maximum.
	MaximizeVolume(ctx context.Context) error
	// Loop starts playing the tone repeatedly until the playback is stopped.
	Loop(ctx context.Context, tone Tone) (Playback, error)
}

// Playback is a running tone loop.
type Playback interface {
	Stop(ctx context.Context) error
}

// Vibrator drives the device vibration motor.
type Vibrator interface {
	Available(ctx context.Context) bool
	// Vibrate starts the pattern; it keeps running after the call returns.
	Vibrate(ctx context.Context, pattern Pattern) error
	Cancel(ctx context.Context) error
}

// Power keeps the display awake.
type Power interface {
	// AcquireWakeLock holds the display awake for at most maxHold,
	// even if the lock is never released.
	AcquireWakeLock(ctx context.Context, tag string, maxHold time.Duration) (WakeLock, error)
}

// WakeLock is an acquired, time-bounded wake lock.
type WakeLock interface {
	Held() bool
	Release(ctx context.Context) error
}

// Pattern is a symmetric on/off vibration waveform.
type Pattern struct {
	On  time.Duration
	Off time.Duration
	// Repetitions is the number of on/off cycles; 0 repeats until cancelled.
	Repetitions int
}

// Forever reports whether the pattern repeats until cancelled.
func (p Pattern) Forever() bool {
	return p.Repetitions <= 0
}

// Timings returns the waveform as alternating off/on durations starting with
// an initial zero delay. A forever pattern yields a single cycle to be repeated.
func (p Pattern) Timings() []time.Duration {
	cycles := p.Repetitions
	if p.Forever() {
		cycles = 1
	}

	timings := make([]time.Duration, 0, 1+cycles*2)
	timings = append(timings, 0)

	for range cycles {
		timings = append(timings, p.On, p.Off)
	}

	return timings
}
