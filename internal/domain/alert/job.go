package alert

import "time"

// Urgency is the urgency tier of a job alert.
type Urgency string

const (
	// UrgencyNormal is a regular job offer.
	UrgencyNormal Urgency = "normal"
	// UrgencyUrgent is an offer that always asks for a full-screen interrupt.
	UrgencyUrgent Urgency = "urgent"
)

// JobAlert is an immutable job offer parsed from an inbound push message.
type JobAlert struct {
	// ID correlates duplicate deliveries and routes accept/dismiss actions.
	// Empty means the alert is best-effort and cannot be correlated.
	ID string
	// Kind is the raw type discriminator the alert was delivered with.
	Kind         string
	Title        string
	PriceDisplay string
	Location     string
	CustomerName string
	Description  string
	Urgency      Urgency
	ReceivedAt   time.Time
}

// Correlatable reports whether the alert can be matched against later deliveries and actions.
func (a *JobAlert) Correlatable() bool {
	return a != nil && a.ID != ""
}

// SameAs reports whether other is a repeated delivery of this alert.
// Alerts without an id are never considered the same.
func (a *JobAlert) SameAs(other *JobAlert) bool {
	return a.Correlatable() && other.Correlatable() && a.ID == other.ID
}

// Summary returns the one-line body shown on passive notifications.
func (a *JobAlert) Summary() string {
	return "₹" + a.PriceDisplay + " • " + a.Location
}

// Clone returns a copy of the alert to avoid sharing the pointer across owners.
func (a *JobAlert) Clone() *JobAlert {
	if a == nil {
		return nil
	}

	cloned := *a

	return &cloned
}
