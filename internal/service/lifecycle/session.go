package lifecycle

import (
	"time"

	"github.com/oshokin/job-alert/internal/domain/alert"
	"github.com/oshokin/job-alert/internal/service/feedback"
)

// session is the mutable record of one presented alert. It is only touched
// with Machine.mu held.
type session struct {
	id           string
	alert        *alert.JobAlert
	presentation alert.Presentation
	state        alert.State
	feedback     *feedback.Handle
	createdAt    time.Time
	deadline     time.Time
	timer        *time.Timer
}

// Snapshot is a read-only view of the active session.
type Snapshot struct {
	SessionID    string
	Alert        *alert.JobAlert
	Presentation alert.Presentation
	State        alert.State
	CreatedAt    time.Time
	Deadline     time.Time
	Feedback     feedback.Report
}

func (s *session) snapshot() *Snapshot {
	return &Snapshot{
		SessionID:    s.id,
		Alert:        s.alert.Clone(),
		Presentation: s.presentation,
		State:        s.state,
		CreatedAt:    s.createdAt,
		Deadline:     s.deadline,
		Feedback:     s.feedback.Report(),
	}
}

// Status describes the machine: the active session, if any, and the last resolution.
type Status struct {
	Active *Snapshot
	Last   *alert.Resolution
	// LastFeedback is the feedback state of the last resolved session after teardown.
	LastFeedback feedback.Report
}
