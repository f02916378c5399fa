package feedback_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/job-alert/internal/service/feedback"
	"github.com/oshokin/job-alert/internal/service/feedback/feedbacktest"
)

var errBackend = errors.New("backend failure")

// TestHandle_StartStop checks the happy path and the order of acquisition.
func TestHandle_StartStop(t *testing.T) {
	t.Parallel()

	rig := feedbacktest.NewRig()
	pattern := feedback.Pattern{On: 800 * time.Millisecond, Off: 400 * time.Millisecond}
	handle := rig.Driver(feedback.Options{Pattern: pattern, WakeLockMaxHold: 90 * time.Second}).NewHandle()

	report := handle.Start(context.Background())
	require.True(t, report.Started)
	require.False(t, report.Stopped)
	require.Equal(t, feedback.ToneAlarm, report.Tone)
	require.True(t, report.Vibrating)
	require.True(t, report.WakeLockHeld)
	require.False(t, report.Degraded)

	require.Equal(t, 90*time.Second, rig.Power.MaxHold())
	require.Equal(t, pattern, rig.Vibrator.Pattern())

	require.NoError(t, handle.Stop(context.Background()))

	report = handle.Report()
	require.True(t, report.Stopped)
	require.False(t, report.Vibrating)
	require.False(t, report.WakeLockHeld)

	require.Equal(t, []feedbacktest.Event{
		"wake_lock:acquire",
		"volume:max",
		"loop:alarm",
		"vibrate",
		"vibrate:cancel",
		"stop:alarm",
		"wake_lock:release",
	}, rig.Journal.Events())
}

// TestHandle_StartIsIdempotent verifies a second Start does not open a second stream.
func TestHandle_StartIsIdempotent(t *testing.T) {
	t.Parallel()

	rig := feedbacktest.NewRig()
	handle := rig.Driver(feedback.Options{}).NewHandle()

	handle.Start(context.Background())
	handle.Start(context.Background())

	require.Equal(t, 1, rig.Journal.Count("loop:alarm"))
	require.Equal(t, 1, rig.Journal.Count("vibrate"))
	require.Equal(t, 1, rig.Journal.Count("wake_lock:acquire"))
}

// TestHandle_ConcurrentStop verifies resources are released exactly once under contention.
func TestHandle_ConcurrentStop(t *testing.T) {
	t.Parallel()

	rig := feedbacktest.NewRig()
	handle := rig.Driver(feedback.Options{}).NewHandle()
	handle.Start(context.Background())

	var wg sync.WaitGroup

	for range 16 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			_ = handle.Stop(context.Background())
		}()
	}

	wg.Wait()

	require.Equal(t, 1, rig.Journal.Count("vibrate:cancel"))
	require.Equal(t, 1, rig.Journal.Count("stop:alarm"))
	require.Equal(t, 1, rig.Journal.Count("wake_lock:release"))
}

// TestHandle_ToneFallback walks the alarm -> ringtone -> notification chain.
func TestHandle_ToneFallback(t *testing.T) {
	t.Parallel()

	rig := feedbacktest.NewRig()
	rig.Audio.Unavailable = map[feedback.Tone]bool{feedback.ToneAlarm: true}

	report := rig.Driver(feedback.Options{}).NewHandle().Start(context.Background())
	require.Equal(t, feedback.ToneRingtone, report.Tone)
	require.False(t, report.Degraded)

	rig = feedbacktest.NewRig()
	rig.Audio.Unavailable = map[feedback.Tone]bool{feedback.ToneAlarm: true, feedback.ToneRingtone: true}

	report = rig.Driver(feedback.Options{}).NewHandle().Start(context.Background())
	require.Equal(t, feedback.ToneNotification, report.Tone)
}

// TestHandle_SilentDegradedMode verifies that losing every tone keeps vibration and wake lock.
func TestHandle_SilentDegradedMode(t *testing.T) {
	t.Parallel()

	rig := feedbacktest.NewRig()
	rig.Audio.VolumeErr = errBackend
	rig.Audio.Unavailable = map[feedback.Tone]bool{
		feedback.ToneAlarm:        true,
		feedback.ToneRingtone:     true,
		feedback.ToneNotification: true,
	}

	handle := rig.Driver(feedback.Options{}).NewHandle()
	report := handle.Start(context.Background())

	require.True(t, report.Degraded)
	require.Equal(t, feedback.ToneSilent, report.Tone)
	require.True(t, report.Vibrating)
	require.True(t, report.WakeLockHeld)

	require.NoError(t, handle.Stop(context.Background()))
	require.Zero(t, rig.Journal.Count("stop:alarm"))
}

// TestHandle_PartialStartThenStop ensures stop only touches what did start.
func TestHandle_PartialStartThenStop(t *testing.T) {
	t.Parallel()

	rig := feedbacktest.NewRig()
	rig.Power.AcquireErr = errBackend
	rig.Vibrator.Missing = true

	handle := rig.Driver(feedback.Options{}).NewHandle()
	report := handle.Start(context.Background())

	require.True(t, report.Degraded)
	require.False(t, report.WakeLockHeld)
	require.False(t, report.Vibrating)
	require.Equal(t, feedback.ToneAlarm, report.Tone)

	require.NoError(t, handle.Stop(context.Background()))
	require.NoError(t, handle.Stop(context.Background()))

	require.Zero(t, rig.Journal.Count("vibrate:cancel"))
	require.Zero(t, rig.Journal.Count("wake_lock:release"))
	require.Equal(t, 1, rig.Journal.Count("stop:alarm"))
}

// TestHandle_ReleaseFailuresAreIndependent verifies one failing release does not block the others.
func TestHandle_ReleaseFailuresAreIndependent(t *testing.T) {
	t.Parallel()

	rig := feedbacktest.NewRig()
	rig.Audio.StopPanics = true
	rig.Vibrator.CancelErr = errBackend

	handle := rig.Driver(feedback.Options{}).NewHandle()
	handle.Start(context.Background())

	err := handle.Stop(context.Background())
	require.ErrorIs(t, err, errBackend)
	require.ErrorContains(t, err, "stop tone")
	require.Equal(t, 1, rig.Journal.Count("wake_lock:release"))

	// Only the first stop reports failures.
	require.NoError(t, handle.Stop(context.Background()))
}

// TestHandle_PanickingBackendsDegradeStart verifies a backend panic while
// acquiring is contained and reported as degraded feedback.
func TestHandle_PanickingBackendsDegradeStart(t *testing.T) {
	t.Parallel()

	rig := feedbacktest.NewRig()
	rig.Audio.LoopPanics = true
	rig.Vibrator.Panics = true
	rig.Power.AcquirePanics = true

	handle := rig.Driver(feedback.Options{}).NewHandle()

	var report feedback.Report

	require.NotPanics(t, func() { report = handle.Start(context.Background()) })
	require.True(t, report.Started)
	require.True(t, report.Degraded)
	require.Equal(t, feedback.ToneSilent, report.Tone)
	require.False(t, report.Vibrating)
	require.False(t, report.WakeLockHeld)

	require.NoError(t, handle.Stop(context.Background()))
	require.True(t, handle.Report().Stopped)
	require.Equal(t, []feedbacktest.Event{"volume:max"}, rig.Journal.Events())
}

// TestHandle_ExpiredWakeLockIsNotReleased checks that an expired lock is left alone.
func TestHandle_ExpiredWakeLockIsNotReleased(t *testing.T) {
	t.Parallel()

	rig := feedbacktest.NewRig()
	rig.Power.Expired = true

	handle := rig.Driver(feedback.Options{}).NewHandle()
	handle.Start(context.Background())

	require.NoError(t, handle.Stop(context.Background()))
	require.Zero(t, rig.Journal.Count("wake_lock:release"))
}

// TestHandle_StopBeforeStart verifies a stopped handle can never start.
func TestHandle_StopBeforeStart(t *testing.T) {
	t.Parallel()

	rig := feedbacktest.NewRig()
	handle := rig.Driver(feedback.Options{}).NewHandle()

	require.NoError(t, handle.Stop(context.Background()))

	report := handle.Start(context.Background())
	require.False(t, report.Started)
	require.True(t, report.Stopped)
	require.Empty(t, rig.Journal.Events())
}

// TestHandle_NoBackends verifies a host without any capability still presents alerts.
func TestHandle_NoBackends(t *testing.T) {
	t.Parallel()

	handle := feedback.NewDriver(feedback.Backends{}, feedback.Options{}).NewHandle()

	report := handle.Start(context.Background())
	require.True(t, report.Started)
	require.True(t, report.Degraded)
	require.Equal(t, feedback.ToneSilent, report.Tone)
	require.NoError(t, handle.Stop(context.Background()))
}

// TestHandle_StopSurvivesCanceledContext ensures teardown does not depend on the caller's context.
func TestHandle_StopSurvivesCanceledContext(t *testing.T) {
	t.Parallel()

	rig := feedbacktest.NewRig()
	handle := rig.Driver(feedback.Options{}).NewHandle()
	handle.Start(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, handle.Stop(ctx))
	require.Equal(t, 1, rig.Journal.Count("wake_lock:release"))
}

// TestPatternTimings covers finite and forever waveforms.
func TestPatternTimings(t *testing.T) {
	t.Parallel()

	forever := feedback.Pattern{On: time.Second, Off: 500 * time.Millisecond}
	require.True(t, forever.Forever())
	require.Equal(t, []time.Duration{0, time.Second, 500 * time.Millisecond}, forever.Timings())

	finite := feedback.Pattern{On: time.Second, Off: 500 * time.Millisecond, Repetitions: 2}
	require.False(t, finite.Forever())
	require.Equal(t,
		[]time.Duration{0, time.Second, 500 * time.Millisecond, time.Second, 500 * time.Millisecond},
		finite.Timings(),
	)
}
