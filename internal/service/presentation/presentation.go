// Package presentation picks how an alert is shown on the device.
package presentation

import "github.com/oshokin/job-alert/internal/domain/alert"

// Select returns the full-screen interrupt when the alert is urgent or the
// device is asleep or locked, provided the host may show full-screen UI at all.
// Any other case gets a passive heads-up notification with the same actions.
func Select(a *alert.JobAlert, env alert.Environment) alert.Presentation {
	if !env.FullScreenPermission {
		return alert.PresentationPassive
	}

	if a.Urgency == alert.UrgencyUrgent || env.DeviceLocked || !env.DeviceInteractive {
		return alert.PresentationFullScreen
	}

	return alert.PresentationPassive
}
