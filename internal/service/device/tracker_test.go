package device

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// TestTracker_SweepStopsLeftovers plays a host that crashed with a helper
// running: the next host must kill it and leave unrelated processes alone.
func TestTracker_SweepStopsLeftovers(t *testing.T) {
	t.Parallel()
	skipWithoutSleep(t)

	leftover := exec.Command("sleep", "30")
	require.NoError(t, leftover.Start())

	exited := make(chan error, 1)

	go func() { exited <- leftover.Wait() }()

	path := filepath.Join(t.TempDir(), DefaultTrackerFilename)
	data, err := yaml.Marshal(map[int]string{
		leftover.Process.Pid: "sleep",
		// The test binary is not a paplay, so its pid must survive.
		os.Getppid(): "paplay",
	})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	tracker := NewTracker(path)

	killed, err := tracker.Sweep(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, killed)

	select {
	case err := <-exited:
		require.Error(t, err, "the leftover must have been killed")
	case <-time.After(5 * time.Second):
		t.Fatal("leftover helper still running")
	}

	recorded, err := tracker.recorded()
	require.NoError(t, err)
	require.Empty(t, recorded)
}

// TestTracker_ListsRunningHelpers checks a helper is listed while it runs.
func TestTracker_ListsRunningHelpers(t *testing.T) {
	t.Parallel()
	skipWithoutSleep(t)

	tracker := NewTracker(filepath.Join(t.TempDir(), DefaultTrackerFilename))

	p, err := startProcess(context.Background(), []string{"sleep", "30"}, tracker)
	require.NoError(t, err)

	recorded, err := tracker.recorded()
	require.NoError(t, err)
	require.Equal(t, map[int]string{p.cmd.Process.Pid: "sleep"}, recorded)

	// A sweep never touches the helpers of the running host.
	killed, err := tracker.Sweep(context.Background())
	require.NoError(t, err)
	require.Zero(t, killed)
	require.True(t, p.alive())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, p.stop(ctx))

	recorded, err = tracker.recorded()
	require.NoError(t, err)
	require.Empty(t, recorded)
}

// TestTracker_MissingFile checks a first start has nothing to sweep.
func TestTracker_MissingFile(t *testing.T) {
	t.Parallel()

	tracker := NewTracker(filepath.Join(t.TempDir(), DefaultTrackerFilename))

	killed, err := tracker.Sweep(context.Background())
	require.NoError(t, err)
	require.Zero(t, killed)
}

func TestSameExecutable(t *testing.T) {
	t.Parallel()

	require.True(t, sameExecutable("paplay", "paplay"))
	require.True(t, sameExecutable("systemd-inhibitor", "systemd-inhibit"))
	require.False(t, sameExecutable("paplay", "afplay"))
	require.False(t, sameExecutable("caffeinate", "caffe"))
}
