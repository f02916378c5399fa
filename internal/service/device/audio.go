package device

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/oshokin/job-alert/internal/config"
	"github.com/oshokin/job-alert/internal/logger"
	"github.com/oshokin/job-alert/internal/service/feedback"
)

// replayPause separates two plays of a looping tone.
const replayPause = 300 * time.Millisecond

// Audio plays tone files with the OS command line player.
type Audio struct {
	tones    map[feedback.Tone]string
	platform platform
	tracker  *Tracker
}

// NewAudio returns an OS audio backend playing the configured tone files.
// Players are listed in tracker, which may be nil.
func NewAudio(tones config.Tones, tracker *Tracker) (*Audio, error) {
	p := currentPlatform()
	if p.player == nil {
		return nil, unsupported("audio playback")
	}

	a := newAudio(tones, p)
	a.tracker = tracker

	return a, nil
}

func newAudio(tones config.Tones, p platform) *Audio {
	return &Audio{
		tones: map[feedback.Tone]string{
			feedback.ToneAlarm:        tones.Alarm,
			feedback.ToneRingtone:     tones.Ringtone,
			feedback.ToneNotification: tones.Notification,
		},
		platform: p,
	}
}

// MaximizeVolume raises the default output to full volume.
func (a *Audio) MaximizeVolume(ctx context.Context) error {
	if a.platform.volume == nil {
		return unsupported("volume control")
	}

	argv := a.platform.volume()

	output, err := exec.CommandContext(ctx, argv[0], argv[1:]...).CombinedOutput() //nolint:gosec // Fixed command.
	if err != nil {
		return fmt.Errorf("%s: %w: %s", argv[0], err, output)
	}

	return nil
}

// Loop starts playing the tone file over and over.
//
//nolint:ireturn // Implements feedback.Audio.
func (a *Audio) Loop(ctx context.Context, tone feedback.Tone) (feedback.Playback, error) {
	path := a.tones[tone]
	if path == "" {
		return nil, fmt.Errorf("%w: no file configured for %s", feedback.ErrToneUnavailable, tone)
	}

	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %w", feedback.ErrToneUnavailable, err)
	}

	argv := a.platform.player(path)

	first, err := startProcess(ctx, argv, a.tracker)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", feedback.ErrToneUnavailable, err)
	}

	l := &loop{
		current: first,
		quit:    make(chan struct{}),
		done:    make(chan struct{}),
	}

	go l.run(context.WithoutCancel(ctx), argv, a.tracker)

	return l, nil
}

// loop replays a tone until stopped.
type loop struct {
	mu      sync.Mutex
	current *process

	once sync.Once
	quit chan struct{}
	done chan struct{}
}

func (l *loop) run(ctx context.Context, argv []string, tracker *Tracker) {
	defer close(l.done)

	current := l.playing()

	for {
		select {
		case <-l.quit:
			return
		case <-current.done:
		}

		select {
		case <-l.quit:
			return
		case <-time.After(replayPause):
		}

		next, err := startProcess(ctx, argv, tracker)
		if err != nil {
			logger.WarnKV(ctx, "Tone loop ended", "error", err)
			return
		}

		if !l.publish(next) {
			_ = next.stop(ctx)
			return
		}

		current = next
	}
}

// publish makes next the running player unless the loop was stopped meanwhile.
func (l *loop) publish(next *process) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	select {
	case <-l.quit:
		return false
	default:
		l.current = next
		return true
	}
}

func (l *loop) playing() *process {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.current
}

// Stop ends the loop and kills the running player.
func (l *loop) Stop(ctx context.Context) error {
	l.mu.Lock()
	l.once.Do(func() { close(l.quit) })
	l.mu.Unlock()

	// run only blocks on quit once it is closed, so this wait is short.
	<-l.done

	return l.playing().stop(ctx)
}
