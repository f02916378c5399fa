package alert

import "time"

// State is the lifecycle state of an alert session.
type State string

const (
	StateCreated    State = "created"
	StatePresenting State = "presenting"
	StateAccepted   State = "accepted"
	StateRejected   State = "rejected"
	StateTimedOut   State = "timed_out"
	StateSuperseded State = "superseded"
)

// Terminal reports whether no further transition may leave the state.
func (s State) Terminal() bool {
	switch s {
	case StateAccepted, StateRejected, StateTimedOut, StateSuperseded:
		return true
	default:
		return false
	}
}

// Decision is the terminal outcome of an alert session.
type Decision = State

// Presentation is how an alert is shown to the user.
type Presentation string

const (
	// PresentationFullScreen takes over the display, lock screen included.
	PresentationFullScreen Presentation = "full_screen"
	// PresentationPassive is a heads-up notification with the same actions.
	PresentationPassive Presentation = "passive"
)

// Environment holds the device predicates supplied by the host.
type Environment struct {
	DeviceLocked         bool
	DeviceInteractive    bool
	FullScreenPermission bool
}

// Action is the intent carried into the primary application context.
type Action string

// ActionAccept opens the primary context to accept the job.
const ActionAccept Action = "accept"

// Reason values describe which trigger resolved a session.
const (
	ReasonUser                  = "user"
	ReasonDismissAction         = "dismiss_action"
	ReasonDeadline              = "deadline"
	ReasonPresentationDestroyed = "presentation_destroyed"
	ReasonShutdown              = "shutdown"
	ReasonSupersededPrefix      = "superseded_by:"
)

// Resolution is the record of a session reaching its terminal decision.
type Resolution struct {
	SessionID    string
	Alert        *JobAlert
	Presentation Presentation
	Decision     Decision
	Reason       string
	ResolvedAt   time.Time
}
