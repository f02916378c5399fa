package lifecycle_test

import (
	"context"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/oshokin/job-alert/internal/domain/alert"
	"github.com/oshokin/job-alert/internal/logger"
	"github.com/oshokin/job-alert/internal/service/dispatch"
	"github.com/oshokin/job-alert/internal/service/dispatch/dispatchtest"
	"github.com/oshokin/job-alert/internal/service/feedback"
	"github.com/oshokin/job-alert/internal/service/feedback/feedbacktest"
	"github.com/oshokin/job-alert/internal/service/lifecycle"
)

// fixture bundles a machine with its recording backends and host.
type fixture struct {
	machine *lifecycle.Machine
	rig     *feedbacktest.Rig
	host    *dispatchtest.Host
}

func newFixture(ctx context.Context, deadline time.Duration) *fixture {
	rig := feedbacktest.NewRig()
	host := new(dispatchtest.Host)

	return &fixture{
		machine: lifecycle.New(ctx, rig.Driver(feedback.Options{}), dispatch.NewGateway(host, host), lifecycle.Options{
			Deadline: deadline,
		}),
		rig:  rig,
		host: host,
	}
}

func job(id string) *alert.JobAlert {
	return &alert.JobAlert{
		ID:           id,
		Kind:         "new_job",
		Title:        "New Job Alert!",
		PriceDisplay: "250",
		Location:     "Sector 9",
		Urgency:      alert.UrgencyNormal,
		ReceivedAt:   time.Now(),
	}
}

// TestMachine_PresentThenReject is the locked-device scenario end to end.
func TestMachine_PresentThenReject(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(ctx, time.Minute)

	delivery, err := f.machine.Deliver(ctx, job("J1"), alert.PresentationFullScreen)
	require.NoError(t, err)
	require.Equal(t, lifecycle.OutcomePresented, delivery.Outcome)
	require.NotEmpty(t, delivery.SessionID)
	require.True(t, delivery.Feedback.Started)

	status := f.machine.Status()
	require.NotNil(t, status.Active)
	require.Equal(t, alert.StatePresenting, status.Active.State)
	require.Equal(t, "J1", status.Active.Alert.ID)
	require.Equal(t, status.Active.CreatedAt.Add(time.Minute), status.Active.Deadline)

	result := f.machine.Reject(ctx, "J1")
	require.True(t, result.Applied)
	require.Equal(t, alert.StateRejected, result.State)
	require.Equal(t, delivery.SessionID, result.SessionID)
	require.True(t, result.Feedback.Stopped)

	status = f.machine.Status()
	require.Nil(t, status.Active)
	require.Equal(t, alert.StateRejected, status.Last.Decision)
	require.Equal(t, alert.ReasonUser, status.Last.Reason)
	require.True(t, status.LastFeedback.Stopped)

	require.Equal(t, []dispatchtest.Effect{"full_screen:J1", "cancel:J1"}, f.host.Effects())
}

// TestMachine_Accept routes into the primary context exactly once.
func TestMachine_Accept(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(ctx, time.Minute)

	_, err := f.machine.Deliver(ctx, job("J1"), alert.PresentationPassive)
	require.NoError(t, err)

	require.True(t, f.machine.Accept(ctx, "J1").Applied)
	require.False(t, f.machine.Accept(ctx, "J1").Applied)
	require.False(t, f.machine.Reject(ctx, "J1").Applied)

	require.Equal(t, []dispatchtest.Effect{"passive:J1", "open:J1:accept"}, f.host.Effects())
	require.Equal(t, 1, f.rig.Journal.Count("stop:alarm"))
}

// TestMachine_DuplicateDeliveryIgnored verifies a redelivered alert starts nothing new.
func TestMachine_DuplicateDeliveryIgnored(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(ctx, time.Minute)

	first, err := f.machine.Deliver(ctx, job("J1"), alert.PresentationFullScreen)
	require.NoError(t, err)

	second, err := f.machine.Deliver(ctx, job("J1"), alert.PresentationFullScreen)
	require.NoError(t, err)
	require.Equal(t, lifecycle.OutcomeDuplicate, second.Outcome)
	require.Equal(t, first.SessionID, second.SessionID)

	require.Equal(t, 1, f.rig.Journal.Count("loop:alarm"))
	require.Equal(t, 1, f.rig.Journal.Count("vibrate"))
	require.Equal(t, 1, f.rig.Journal.Count("wake_lock:acquire"))
	require.Equal(t, []dispatchtest.Effect{"full_screen:J1"}, f.host.Effects())
}

// TestMachine_Supersede verifies the old feedback is stopped before the new one starts.
func TestMachine_Supersede(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(ctx, time.Minute)

	first, err := f.machine.Deliver(ctx, job("J1"), alert.PresentationFullScreen)
	require.NoError(t, err)

	second, err := f.machine.Deliver(ctx, job("J2"), alert.PresentationFullScreen)
	require.NoError(t, err)
	require.Equal(t, lifecycle.OutcomePresented, second.Outcome)
	require.NotNil(t, second.Superseded)
	require.Equal(t, first.SessionID, second.Superseded.SessionID)
	require.Equal(t, alert.StateSuperseded, second.Superseded.Decision)
	require.Equal(t, alert.ReasonSupersededPrefix+"J2", second.Superseded.Reason)

	events := f.rig.Journal.Events()
	firstStop := slices.Index(events, feedbacktest.Event("wake_lock:release"))
	secondStart := slices.Index(events[1:], feedbacktest.Event("wake_lock:acquire")) + 1
	require.Positive(t, firstStop)
	require.Less(t, firstStop, secondStart, "old feedback must be released before new feedback starts")

	// The superseded alert can no longer be acted upon.
	require.False(t, f.machine.Accept(ctx, "J1").Applied)

	require.Equal(t, []dispatchtest.Effect{"full_screen:J1", "cancel:J1", "full_screen:J2"}, f.host.Effects())
	require.Equal(t, "J2", f.machine.Status().Active.Alert.ID)
}

// TestMachine_AnonymousAlertsSupersede checks that alerts without an id are never duplicates.
func TestMachine_AnonymousAlertsSupersede(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(ctx, time.Minute)

	_, err := f.machine.Deliver(ctx, job(""), alert.PresentationFullScreen)
	require.NoError(t, err)

	second, err := f.machine.Deliver(ctx, job(""), alert.PresentationFullScreen)
	require.NoError(t, err)
	require.Equal(t, lifecycle.OutcomePresented, second.Outcome)
	require.NotNil(t, second.Superseded)

	// An empty id addresses whatever is presenting.
	require.True(t, f.machine.Accept(ctx, "").Applied)
	require.Equal(t, 1, f.host.Count("open::accept"))
}

// TestMachine_ConcurrentTriggers fires every trigger at once and expects a single winner.
func TestMachine_ConcurrentTriggers(t *testing.T) {
	t.Parallel()

	for range 20 {
		ctx := context.Background()
		f := newFixture(ctx, time.Minute)

		_, err := f.machine.Deliver(ctx, job("J1"), alert.PresentationFullScreen)
		require.NoError(t, err)

		var (
			applied atomic.Int32
			wg      sync.WaitGroup
			start   = make(chan struct{})
		)

		triggers := []func() lifecycle.Result{
			func() lifecycle.Result { return f.machine.Accept(ctx, "J1") },
			func() lifecycle.Result { return f.machine.Reject(ctx, "J1") },
			func() lifecycle.Result { return f.machine.Dismiss(ctx, "J1") },
			func() lifecycle.Result { return f.machine.Destroy(ctx) },
			func() lifecycle.Result { return f.machine.Accept(ctx, "") },
		}

		for i := range 50 {
			wg.Add(1)

			go func() {
				defer wg.Done()

				<-start

				if triggers[i%len(triggers)]().Applied {
					applied.Add(1)
				}
			}()
		}

		close(start)
		wg.Wait()

		require.Equal(t, int32(1), applied.Load())

		effects := f.host.Effects()
		require.Len(t, effects, 2, "one presentation and exactly one terminal effect")
		require.Equal(t, 1, f.rig.Journal.Count("vibrate:cancel"))
		require.Equal(t, 1, f.rig.Journal.Count("stop:alarm"))
		require.Equal(t, 1, f.rig.Journal.Count("wake_lock:release"))
	}
}

// gatedHost holds ShowPassiveNotification for one alert until released.
type gatedHost struct {
	*dispatchtest.Host

	alertID string
	entered chan struct{}
	release chan struct{}
}

func newGatedHost(alertID string) *gatedHost {
	return &gatedHost{
		Host:    new(dispatchtest.Host),
		alertID: alertID,
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
}

func (h *gatedHost) ShowPassiveNotification(ctx context.Context, a *alert.JobAlert) error {
	if a.ID == h.alertID {
		close(h.entered)
		<-h.release
	}

	return h.Host.ShowPassiveNotification(ctx, a)
}

// TestMachine_EffectsKeepTransitionOrder resolves a session while its
// presentation is still being shown; the clear must follow the show.
func TestMachine_EffectsKeepTransitionOrder(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		resolve func(ctx context.Context, m *lifecycle.Machine) bool
		want    []dispatchtest.Effect
	}{
		{
			name: "dismiss",
			resolve: func(ctx context.Context, m *lifecycle.Machine) bool {
				return m.Dismiss(ctx, "B").Applied
			},
			want: []dispatchtest.Effect{"passive:B", "cancel:B"},
		},
		{
			name: "supersede",
			resolve: func(ctx context.Context, m *lifecycle.Machine) bool {
				delivery, err := m.Deliver(ctx, job("C"), alert.PresentationFullScreen)

				return err == nil && delivery.Superseded != nil
			},
			want: []dispatchtest.Effect{"passive:B", "cancel:B", "full_screen:C"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctx := context.Background()
			rig := feedbacktest.NewRig()
			host := newGatedHost("B")
			machine := lifecycle.New(ctx, rig.Driver(feedback.Options{}), dispatch.NewGateway(host, host.Host),
				lifecycle.Options{Deadline: time.Minute})

			delivered := make(chan error, 1)

			go func() {
				_, err := machine.Deliver(ctx, job("B"), alert.PresentationPassive)
				delivered <- err
			}()

			<-host.entered

			resolved := make(chan bool, 1)

			go func() {
				resolved <- tt.resolve(ctx, machine)
			}()

			// Let the second transition race the blocked presentation.
			time.Sleep(50 * time.Millisecond)
			close(host.release)

			require.NoError(t, <-delivered)
			require.True(t, <-resolved)

			require.Equal(t, tt.want, host.Effects())

			status := machine.Status()
			if tt.name == "dismiss" {
				require.Nil(t, status.Active)
			} else {
				require.Equal(t, "C", status.Active.Alert.ID)
			}
		})
	}
}

// TestMachine_PanickingFeedbackBackend keeps presenting with degraded feedback
// and leaves the machine usable.
func TestMachine_PanickingFeedbackBackend(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(ctx, time.Minute)
	f.rig.Audio.LoopPanics = true
	f.rig.Power.AcquirePanics = true

	delivery, err := f.machine.Deliver(ctx, job("J1"), alert.PresentationFullScreen)
	require.NoError(t, err)
	require.True(t, delivery.Feedback.Degraded)
	require.Equal(t, feedback.ToneSilent, delivery.Feedback.Tone)

	require.Equal(t, "J1", f.machine.Status().Active.Alert.ID)
	require.True(t, f.machine.Reject(ctx, "J1").Applied)
	require.Equal(t, 1, f.rig.Journal.Count("vibrate:cancel"))
}

// TestMachine_AcceptBeforeDeadline accepts at 59s and checks the timeout never acts.
func TestMachine_AcceptBeforeDeadline(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		ctx := context.Background()
		f := newFixture(ctx, 60*time.Second)

		_, err := f.machine.Deliver(ctx, job("J1"), alert.PresentationFullScreen)
		require.NoError(t, err)

		time.Sleep(59 * time.Second)
		require.True(t, f.machine.Accept(ctx, "J1").Applied)

		time.Sleep(5 * time.Second)
		synctest.Wait()

		require.Equal(t, []dispatchtest.Effect{"full_screen:J1", "open:J1:accept"}, f.host.Effects())
		require.Equal(t, alert.StateAccepted, f.machine.Status().Last.Decision)
	})
}

// TestMachine_Timeout lets the deadline pass and checks the reject-like teardown.
func TestMachine_Timeout(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		ctx := context.Background()
		f := newFixture(ctx, 60*time.Second)

		_, err := f.machine.Deliver(ctx, job("J1"), alert.PresentationFullScreen)
		require.NoError(t, err)

		time.Sleep(59 * time.Second)
		synctest.Wait()
		require.NotNil(t, f.machine.Status().Active)

		time.Sleep(2 * time.Second)
		synctest.Wait()

		status := f.machine.Status()
		require.Nil(t, status.Active)
		require.Equal(t, alert.StateTimedOut, status.Last.Decision)
		require.Equal(t, alert.ReasonDeadline, status.Last.Reason)
		require.True(t, status.LastFeedback.Stopped)

		// A late tap finds nothing to resolve.
		require.False(t, f.machine.Reject(ctx, "J1").Applied)
		require.Equal(t, []dispatchtest.Effect{"full_screen:J1", "cancel:J1"}, f.host.Effects())
	})
}

// TestMachine_DeadlineIsPerSession checks a superseded session's timer cannot expire its successor.
func TestMachine_DeadlineIsPerSession(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		ctx := context.Background()
		f := newFixture(ctx, 60*time.Second)

		_, err := f.machine.Deliver(ctx, job("J1"), alert.PresentationFullScreen)
		require.NoError(t, err)

		time.Sleep(30 * time.Second)

		_, err = f.machine.Deliver(ctx, job("J2"), alert.PresentationFullScreen)
		require.NoError(t, err)

		// Past J1's original deadline: J2 must still be presenting.
		time.Sleep(31 * time.Second)
		synctest.Wait()
		require.Equal(t, "J2", f.machine.Status().Active.Alert.ID)

		time.Sleep(30 * time.Second)
		synctest.Wait()

		status := f.machine.Status()
		require.Nil(t, status.Active)
		require.Equal(t, "J2", status.Last.Alert.ID)
		require.Equal(t, alert.StateTimedOut, status.Last.Decision)
	})
}

// TestMachine_BackIsSwallowed checks that the back gesture never dismisses an alert.
func TestMachine_BackIsSwallowed(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(ctx, time.Minute)

	require.False(t, f.machine.Back(ctx))

	_, err := f.machine.Deliver(ctx, job("J1"), alert.PresentationFullScreen)
	require.NoError(t, err)

	require.True(t, f.machine.Back(ctx))
	require.Equal(t, alert.StatePresenting, f.machine.Status().Active.State)
	require.Equal(t, []dispatchtest.Effect{"full_screen:J1"}, f.host.Effects())
	require.Zero(t, f.rig.Journal.Count("vibrate:cancel"))
}

// TestMachine_MismatchedIDIgnored ensures an action for another alert leaves the session alone.
func TestMachine_MismatchedIDIgnored(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(ctx, time.Minute)

	_, err := f.machine.Deliver(ctx, job("J1"), alert.PresentationPassive)
	require.NoError(t, err)

	require.False(t, f.machine.Dismiss(ctx, "J9").Applied)
	require.NotNil(t, f.machine.Status().Active)

	result := f.machine.Dismiss(ctx, "J1")
	require.True(t, result.Applied)
	require.Equal(t, alert.StateRejected, result.State)
	require.Equal(t, alert.ReasonDismissAction, f.machine.Status().Last.Reason)
}

// TestMachine_Close rejects the presenting alert and refuses new ones.
func TestMachine_Close(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(ctx, time.Minute)

	_, err := f.machine.Deliver(ctx, job("J1"), alert.PresentationFullScreen)
	require.NoError(t, err)

	f.machine.Close(ctx)
	f.machine.Close(ctx)

	require.Equal(t, alert.ReasonShutdown, f.machine.Status().Last.Reason)
	require.Equal(t, 1, f.host.Count("cancel:J1"))

	_, err = f.machine.Deliver(ctx, job("J2"), alert.PresentationFullScreen)
	require.ErrorIs(t, err, lifecycle.ErrClosed)
}

// TestMachine_InvalidTransitionLoggedAtDebug checks stale triggers are only visible at debug level.
func TestMachine_InvalidTransitionLoggedAtDebug(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.DebugLevel)
	ctx := logger.ToContext(context.Background(), zap.New(core).Sugar())
	f := newFixture(ctx, time.Minute)

	require.False(t, f.machine.Reject(ctx, "J1").Applied)

	entries := logs.FilterMessage("Trigger ignored").All()
	require.Len(t, entries, 1)
	require.Equal(t, zapcore.DebugLevel, entries[0].Level)
	require.Contains(t, entries[0].ContextMap()["error"], lifecycle.ErrInvalidTransition.Error())
}
