// Package dispatchtest provides a recording presentation and navigation host for tests.
package dispatchtest

import (
	"context"
	"sync"

	"github.com/oshokin/job-alert/internal/domain/alert"
)

// Effect is one recorded host call, e.g. "full_screen:J1" or "open:J1:accept".
type Effect string

// Host records every presentation and navigation call.
type Host struct {
	// Err, when set, is returned from every call after recording it.
	Err error

	mu      sync.Mutex
	effects []Effect
}

// ShowFullScreen records the call.
func (h *Host) ShowFullScreen(_ context.Context, a *alert.JobAlert) error {
	return h.record(Effect("full_screen:" + a.ID))
}

// ShowPassiveNotification records the call.
func (h *Host) ShowPassiveNotification(_ context.Context, a *alert.JobAlert) error {
	return h.record(Effect("passive:" + a.ID))
}

// CancelPassiveNotification records the call.
func (h *Host) CancelPassiveNotification(_ context.Context, alertID string) error {
	return h.record(Effect("cancel:" + alertID))
}

// ShowGenericNotification records the call.
func (h *Host) ShowGenericNotification(_ context.Context, title, _ string) error {
	return h.record(Effect("generic:" + title))
}

// OpenPrimaryContext records the call.
func (h *Host) OpenPrimaryContext(_ context.Context, jobID string, action alert.Action) error {
	return h.record(Effect("open:" + jobID + ":" + string(action)))
}

// Effects returns a copy of the recorded effects.
func (h *Host) Effects() []Effect {
	h.mu.Lock()
	defer h.mu.Unlock()

	return append([]Effect(nil), h.effects...)
}

// Count returns how many times e was recorded.
func (h *Host) Count(e Effect) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	n := 0

	for _, recorded := range h.effects {
		if recorded == e {
			n++
		}
	}

	return n
}

func (h *Host) record(e Effect) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.effects = append(h.effects, e)

	return h.Err
}
