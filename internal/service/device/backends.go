package device

import (
	"context"

	"github.com/oshokin/job-alert/internal/config"
	"github.com/oshokin/job-alert/internal/logger"
	"github.com/oshokin/job-alert/internal/service/feedback"
)

// NewBackends builds the feedback backends selected by cfg.Backend. OS
// facilities missing on this host are left nil and the driver degrades.
func NewBackends(ctx context.Context, cfg config.Feedback) feedback.Backends {
	ctx = logger.WithName(ctx, "device")

	if cfg.Backend == config.BackendSimulated {
		return feedback.Backends{
			Audio:    SimulatedAudio{},
			Vibrator: NewSimulatedVibrator(),
			Power:    SimulatedPower{},
		}
	}

	tracker := NewTracker(cfg.HelperFile)

	killed, err := tracker.Sweep(ctx)
	if err != nil {
		logger.WarnKV(ctx, "Unable to stop every leftover helper", "killed", killed, "error", err)
	} else if killed > 0 {
		logger.InfoKV(ctx, "Leftover helpers stopped", "killed", killed)
	}

	// Desktops have no vibration motor.
	backends := feedback.Backends{Vibrator: NewSimulatedVibrator()}

	if audio, err := NewAudio(cfg.Tones, tracker); err != nil {
		logger.WarnKV(ctx, "Audio backend unavailable", "error", err)
	} else {
		backends.Audio = audio
	}

	if power, err := NewPower(tracker); err != nil {
		logger.WarnKV(ctx, "Wake lock backend unavailable", "error", err)
	} else {
		backends.Power = power
	}

	return backends
}
