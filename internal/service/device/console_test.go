package device

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/job-alert/internal/config"
	"github.com/oshokin/job-alert/internal/domain/alert"
)

func TestConsole(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer

	ctx := context.Background()
	console := NewConsole(&out)
	job := &alert.JobAlert{
		ID:           "J1",
		Title:        "Plumbing repair",
		PriceDisplay: "250",
		Location:     "Sector 9",
		CustomerName: "Asha",
		Urgency:      alert.UrgencyUrgent,
	}

	require.NoError(t, console.ShowFullScreen(ctx, job))
	require.Contains(t, out.String(), "==== URGENT JOB ALERT ====")
	require.Contains(t, out.String(), "₹250 • Sector 9")
	require.Contains(t, out.String(), "Customer: Asha")
	require.Contains(t, out.String(), "alert-ctl accept J1")

	out.Reset()
	require.NoError(t, console.ShowPassiveNotification(ctx, job))
	require.Equal(t, "[notification J1] Plumbing repair: ₹250 • Sector 9 (dismiss: alert-ctl dismiss J1)\n", out.String())

	out.Reset()
	require.NoError(t, console.CancelPassiveNotification(ctx, "J1"))
	require.NoError(t, console.ShowGenericNotification(ctx, "Helparo", "Welcome back"))
	require.Equal(t, "[notification J1 cleared]\n[notification] Helparo: Welcome back\n", out.String())
}

func TestNavigator(t *testing.T) {
	t.Parallel()

	require.Equal(t,
		"https://helparo.example/jobs/J%2F1?action=accept",
		ExpandURL("https://helparo.example/jobs/{job_id}?action={action}", "J/1", alert.ActionAccept))

	var opened []string

	n := NewNavigator("app://jobs/{job_id}/{action}")
	n.open = func(_ context.Context, target string) error {
		opened = append(opened, target)

		return nil
	}

	require.NoError(t, n.OpenPrimaryContext(context.Background(), "J1", alert.ActionAccept))
	require.Equal(t, []string{"app://jobs/J1/accept"}, opened)

	failing := NewNavigator("app://jobs/{job_id}")
	failing.open = func(context.Context, string) error { return errors.New("no handler") }
	require.Error(t, failing.OpenPrimaryContext(context.Background(), "J1", alert.ActionAccept))

	silent := NewNavigator("")
	silent.open = func(context.Context, string) error {
		t.Fatal("an empty template must not open anything")

		return nil
	}
	require.NoError(t, silent.OpenPrimaryContext(context.Background(), "J1", alert.ActionAccept))
}

func TestNewBackends_Simulated(t *testing.T) {
	t.Parallel()

	backends := NewBackends(context.Background(), config.Feedback{Backend: config.BackendSimulated})
	require.IsType(t, SimulatedAudio{}, backends.Audio)
	require.IsType(t, SimulatedPower{}, backends.Power)
	require.NotNil(t, backends.Vibrator)
}
func TestNewBackends_OSSweepsHelperFile(t *testing.T) {
	t.Parallel()

	if runtime.GOOS != "linux" && runtime.GOOS != "darwin" {
		t.Skip("OS backends are exercised on linux and darwin")
	}

	path := filepath.Join(t.TempDir(), DefaultTrackerFilename)

	backends := NewBackends(context.Background(), config.Feedback{Backend: config.BackendOS, HelperFile: path})
	require.IsType(t, &Audio{}, backends.Audio)
	require.IsType(t, &Power{}, backends.Power)
	require.FileExists(t, path)
}
