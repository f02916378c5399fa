package device

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
)

// process is a helper command that outlives the call that started it.
type process struct {
	cmd  *exec.Cmd
	name string
	done chan struct{}
	err  error
}

// startProcess starts argv and reaps it in the background. A non-nil tracker
// lists the helper until it exits.
func startProcess(ctx context.Context, argv []string, tracker *Tracker) (*process, error) {
	if len(argv) == 0 {
		return nil, errors.New("empty command")
	}

	// The helper must survive the bounded call context.
	cmd := exec.Command(argv[0], argv[1:]...) //nolint:gosec,noctx // Arguments come from the platform table.
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", argv[0], err)
	}

	p := &process{
		cmd:  cmd,
		name: argv[0],
		done: make(chan struct{}),
	}

	pid := cmd.Process.Pid
	tracker.add(ctx, pid, executableName(argv[0]))

	go func() {
		p.err = cmd.Wait()
		tracker.remove(ctx, pid)
		close(p.done)
	}()

	return p, nil
}

func (p *process) exited() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// alive reports whether the helper has not exited yet.
func (p *process) alive() bool {
	return !p.exited()
}

// stop kills the helper and waits for it to be reaped.
func (p *process) stop(ctx context.Context) error {
	if p.exited() {
		return nil
	}

	if err := p.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("kill %s: %w", p.name, err)
	}

	select {
	case <-p.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("wait for %s: %w", p.name, ctx.Err())
	}
}
