package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/oshokin/job-alert/internal/domain/alert"
	"github.com/oshokin/job-alert/internal/logger"
	"github.com/oshokin/job-alert/internal/service/feedback"
)

// Dispatcher performs the outbound effects of the machine.
// Calls are made one at a time, in the order of the transitions that caused
// them, without the machine lock held. They must not block for long or call
// back into the machine.
type Dispatcher interface {
	// Present shows a newly created session.
	Present(ctx context.Context, a *alert.JobAlert, p alert.Presentation)
	// Resolve carries out the effects of a terminal decision.
	Resolve(ctx context.Context, r *alert.Resolution)
}

// Options tune the machine.
type Options struct {
	// Deadline is how long a session presents before it times out.
	Deadline time.Duration
}

// DefaultDeadline is used when Options.Deadline is not set.
const DefaultDeadline = 60 * time.Second

var (
	// ErrDuplicateAlert marks a repeated delivery of the presenting alert. It is informational.
	ErrDuplicateAlert = errors.New("duplicate alert ignored")
	// ErrInvalidTransition marks a trigger that found no presenting session to resolve.
	ErrInvalidTransition = errors.New("invalid transition")
	// ErrClosed is returned by Deliver after Close.
	ErrClosed = errors.New("lifecycle machine closed")
)

// Outcome tells the caller what Deliver did with an alert.
type Outcome string

const (
	OutcomePresented Outcome = "presented"
	OutcomeDuplicate Outcome = "duplicate_ignored"
)

// Delivery is the result of Deliver.
type Delivery struct {
	Outcome      Outcome
	SessionID    string
	Presentation alert.Presentation
	// Feedback is the feedback state right after the session started.
	Feedback feedback.Report
	// Superseded is the resolution of the session replaced by this delivery, if any.
	Superseded *alert.Resolution
}

// Result is the result of a trigger.
type Result struct {
	// Applied is true when this trigger resolved the session.
	Applied   bool
	SessionID string
	State     alert.State
	// Feedback is the feedback state after teardown.
	Feedback feedback.Report
}

// Machine owns the single active alert session.
type Machine struct {
	driver     *feedback.Driver
	dispatcher Dispatcher
	deadline   time.Duration
	// ctx carries the logger for deadline callbacks, which have no caller context.
	ctx context.Context //nolint:containedctx // Timer callbacks need a base context.

	// mu serializes every transition and every feedback call.
	mu           sync.Mutex
	active       *session
	last         *alert.Resolution
	lastFeedback feedback.Report
	closed       bool

	// effects is taken over from mu before it is released and held while
	// the dispatcher runs, so effects leave in transition order.
	effects sync.Mutex
}

// New creates a machine. ctx is used only for logging from deadline timers.
func New(ctx context.Context, driver *feedback.Driver, dispatcher Dispatcher, options Options) *Machine {
	if options.Deadline <= 0 {
		options.Deadline = DefaultDeadline
	}

	return &Machine{
		driver:     driver,
		dispatcher: dispatcher,
		deadline:   options.Deadline,
		ctx:        context.WithoutCancel(logger.WithName(ctx, "lifecycle")),
	}
}

// Deliver presents a new alert. A repeated delivery of the presenting alert is
// ignored; any other alert supersedes the presenting one, whose feedback is
// fully stopped before the new feedback starts.
func (m *Machine) Deliver(ctx context.Context, a *alert.JobAlert, p alert.Presentation) (*Delivery, error) {
	var delivery *Delivery

	closed := false

	m.transition(func() func() {
		if m.closed {
			closed = true
			return nil
		}

		if current := m.active; current != nil && current.alert.SameAs(a) {
			logger.InfoKV(ctx, "Alert ignored", "alert_id", a.ID, "session_id", current.id, "reason", ErrDuplicateAlert)

			delivery = &Delivery{
				Outcome:      OutcomeDuplicate,
				SessionID:    current.id,
				Presentation: current.presentation,
			}

			return nil
		}

		var superseded *alert.Resolution
		if current := m.active; current != nil {
			superseded = m.resolveLocked(ctx, current, alert.StateSuperseded, alert.ReasonSupersededPrefix+a.ID)
		}

		s := m.openLocked(ctx, a, p)

		delivery = &Delivery{
			Outcome:      OutcomePresented,
			SessionID:    s.id,
			Presentation: p,
			Feedback:     s.feedback.Report(),
			Superseded:   superseded,
		}

		presented := s.alert.Clone()

		return func() {
			if superseded != nil {
				m.dispatcher.Resolve(m.sessionContext(ctx, superseded.SessionID, superseded.Alert), superseded)
			}

			m.dispatcher.Present(m.sessionContext(ctx, s.id, presented), presented, p)
		}
	})

	if closed {
		return nil, ErrClosed
	}

	return delivery, nil
}

// Accept resolves the session as accepted. An empty alertID addresses the
// presenting alert whatever its id.
func (m *Machine) Accept(ctx context.Context, alertID string) Result {
	return m.trigger(ctx, alertID, "", alert.StateAccepted, alert.ReasonUser)
}

// Reject resolves the session as rejected by an in-UI action.
func (m *Machine) Reject(ctx context.Context, alertID string) Result {
	return m.trigger(ctx, alertID, "", alert.StateRejected, alert.ReasonUser)
}

// Dismiss resolves the session as rejected by the out-of-band action on the
// passive notification. It is the same transition as Reject.
func (m *Machine) Dismiss(ctx context.Context, alertID string) Result {
	return m.trigger(ctx, alertID, "", alert.StateRejected, alert.ReasonDismissAction)
}

// Destroy resolves the session as rejected because the host tore down its presentation.
func (m *Machine) Destroy(ctx context.Context) Result {
	return m.trigger(ctx, "", "", alert.StateRejected, alert.ReasonPresentationDestroyed)
}

// Back handles a generic back/cancel gesture. While an alert is presenting the
// gesture is swallowed and true is returned; the state does not change.
func (m *Machine) Back(ctx context.Context) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active == nil {
		return false
	}

	logger.InfoKV(ctx, "Back gesture swallowed, a decision is required", "session_id", m.active.id)

	return true
}

// Status returns the active session and the last resolution.
func (m *Machine) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()

	var status Status
	if m.active != nil {
		status.Active = m.active.snapshot()
	}

	if m.last != nil {
		last := *m.last
		last.Alert = last.Alert.Clone()
		status.Last = &last
		status.LastFeedback = m.lastFeedback
	}

	return status
}

// Close rejects the presenting alert, if any, and refuses further deliveries.
func (m *Machine) Close(ctx context.Context) {
	m.transition(func() func() {
		if m.closed || m.active == nil {
			m.closed = true
			return nil
		}

		m.closed = true
		resolution := m.resolveLocked(ctx, m.active, alert.StateRejected, alert.ReasonShutdown)

		return m.resolveEffect(ctx, resolution)
	})
}

// expire is the deadline timer callback of a session.
func (m *Machine) expire(sessionID string) {
	m.trigger(m.ctx, "", sessionID, alert.StateTimedOut, alert.ReasonDeadline)
}

// trigger attempts one transition out of Presenting. A non-empty alertID or
// sessionID must match the active session.
func (m *Machine) trigger(ctx context.Context, alertID, sessionID string, decision alert.Decision, reason string) Result {
	var result Result

	m.transition(func() func() {
		s := m.active
		if s == nil || s.state != alert.StatePresenting ||
			(alertID != "" && alertID != s.alert.ID) ||
			(sessionID != "" && sessionID != s.id) {
			logger.DebugKV(ctx, "Trigger ignored",
				"error", fmt.Errorf("%w: %s for alert %q", ErrInvalidTransition, decision, alertID),
				"reason", reason,
				"session_id", sessionID,
			)

			return nil
		}

		resolution := m.resolveLocked(ctx, s, decision, reason)

		result = Result{
			Applied:   true,
			SessionID: resolution.SessionID,
			State:     resolution.Decision,
			Feedback:  m.lastFeedback,
		}

		return m.resolveEffect(ctx, resolution)
	})

	return result
}

// transition runs fn under the machine lock. The effects fn returns, if any,
// run after the lock is handed over to the effect lock.
func (m *Machine) transition(fn func() (effects func())) {
	var effects func()

	func() {
		m.mu.Lock()
		defer m.mu.Unlock()

		effects = fn()
		if effects != nil {
			m.effects.Lock()
		}
	}()

	if effects == nil {
		return
	}

	defer m.effects.Unlock()

	effects()
}

func (m *Machine) resolveEffect(ctx context.Context, r *alert.Resolution) func() {
	return func() {
		m.dispatcher.Resolve(m.sessionContext(ctx, r.SessionID, r.Alert), r)
	}
}

// openLocked creates a session, starts its feedback and arms its deadline.
func (m *Machine) openLocked(ctx context.Context, a *alert.JobAlert, p alert.Presentation) *session {
	now := time.Now()

	s := &session{
		id:           uuid.NewString(),
		alert:        a.Clone(),
		presentation: p,
		state:        alert.StateCreated,
		feedback:     m.driver.NewHandle(),
		createdAt:    now,
		deadline:     now.Add(m.deadline),
	}

	sctx := m.sessionContext(ctx, s.id, s.alert)

	s.state = alert.StatePresenting
	s.feedback.Start(sctx)

	sessionID := s.id
	s.timer = time.AfterFunc(m.deadline, func() { m.expire(sessionID) })

	m.active = s

	logger.InfoKV(sctx, "Alert session presenting",
		"presentation", p,
		"urgency", a.Urgency,
		"deadline", s.deadline.Format(time.RFC3339),
	)

	return s
}

// resolveLocked moves s to its terminal state and releases its resources.
func (m *Machine) resolveLocked(ctx context.Context, s *session, decision alert.Decision, reason string) *alert.Resolution {
	sctx := m.sessionContext(ctx, s.id, s.alert)

	s.state = decision
	s.timer.Stop()

	// Stop logs its own release failures.
	_ = s.feedback.Stop(sctx)

	resolution := &alert.Resolution{
		SessionID:    s.id,
		Alert:        s.alert.Clone(),
		Presentation: s.presentation,
		Decision:     decision,
		Reason:       reason,
		ResolvedAt:   time.Now(),
	}

	m.active = nil
	m.last = resolution
	m.lastFeedback = s.feedback.Report()

	logger.InfoKV(sctx, "Alert session resolved",
		"decision", decision,
		"reason", reason,
		"presented_for", resolution.ResolvedAt.Sub(s.createdAt).String(),
	)

	return resolution
}

func (m *Machine) sessionContext(ctx context.Context, sessionID string, a *alert.JobAlert) context.Context {
	return logger.WithFields(ctx, "session_id", sessionID, "alert_id", a.ID)
}
