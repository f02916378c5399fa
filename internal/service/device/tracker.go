package device

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	ps "github.com/mitchellh/go-ps"
	"gopkg.in/yaml.v3"

	"github.com/oshokin/job-alert/internal/logger"
)

// DefaultTrackerFilename is the helper list kept in the temp directory when
// no path is configured.
const DefaultTrackerFilename = "job-alert-helpers.yaml"

// commLength is how much of an executable name Linux keeps in the process table.
const commLength = 15

// Tracker records the helper processes started by this host in a file, so a
// host restarted after a crash can stop the players and inhibitors it left behind.
type Tracker struct {
	path string

	mu   sync.Mutex
	pids map[int]string
}

// NewTracker returns a tracker writing to path, or to the temp directory when path is empty.
func NewTracker(path string) *Tracker {
	if path == "" {
		path = filepath.Join(os.TempDir(), DefaultTrackerFilename)
	}

	return &Tracker{
		path: path,
		pids: make(map[int]string),
	}
}

// Sweep kills the helpers recorded by a previous host that are still running
// and rewrites the file with the helpers of this host. It returns how many
// processes were killed.
func (t *Tracker) Sweep(ctx context.Context) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	recorded, err := t.readLocked()
	if err != nil {
		return 0, err
	}

	var (
		killed int
		errs   []error
	)

	for pid, name := range recorded {
		if pid == os.Getpid() || t.pids[pid] != "" {
			continue
		}

		running, err := ps.FindProcess(pid)
		if err != nil {
			errs = append(errs, fmt.Errorf("find process %d: %w", pid, err))
			continue
		}

		// The pid is gone or now belongs to another program.
		if running == nil || !sameExecutable(name, running.Executable()) {
			continue
		}

		if err := terminate(pid); err != nil {
			errs = append(errs, fmt.Errorf("kill %s (%d): %w", name, pid, err))
			continue
		}

		logger.InfoKV(ctx, "Leftover helper stopped", "pid", pid, "executable", name)

		killed++
	}

	if err := t.writeLocked(); err != nil {
		errs = append(errs, err)
	}

	return killed, errors.Join(errs...)
}

func (t *Tracker) add(ctx context.Context, pid int, name string) {
	if t == nil {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.pids[pid] = name

	if err := t.writeLocked(); err != nil {
		logger.WarnKV(ctx, "Unable to record helper process", "pid", pid, "error", err)
	}
}

func (t *Tracker) remove(ctx context.Context, pid int) {
	if t == nil {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	delete(t.pids, pid)

	if err := t.writeLocked(); err != nil {
		logger.WarnKV(ctx, "Unable to forget helper process", "pid", pid, "error", err)
	}
}

// recorded returns the helpers currently listed in the file.
func (t *Tracker) recorded() (map[int]string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.readLocked()
}

func (t *Tracker) readLocked() (map[int]string, error) {
	contents, err := os.ReadFile(filepath.Clean(t.path))
	if errors.Is(err, os.ErrNotExist) {
		return map[int]string{}, nil
	}

	if err != nil {
		return nil, fmt.Errorf("read helper list: %w", err)
	}

	pids := make(map[int]string)
	if err := yaml.Unmarshal(contents, &pids); err != nil {
		return nil, fmt.Errorf("unmarshal helper list: %w", err)
	}

	return pids, nil
}

func (t *Tracker) writeLocked() error {
	data, err := yaml.Marshal(t.pids)
	if err != nil {
		return fmt.Errorf("marshal helper list: %w", err)
	}

	if err := os.WriteFile(filepath.Clean(t.path), data, 0o600); err != nil {
		return fmt.Errorf("write helper list: %w", err)
	}

	return nil
}

// executableName is the name a helper started from argv0 has in the process table.
func executableName(argv0 string) string {
	return filepath.Base(argv0)
}

func sameExecutable(recorded, running string) bool {
	if recorded == running {
		return true
	}

	return len(running) == commLength && strings.HasPrefix(recorded, running)
}

func terminate(pid int) error {
	process, err := os.FindProcess(pid)
	if err != nil {
		return err
	}

	if err := process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return err
	}

	return nil
}
