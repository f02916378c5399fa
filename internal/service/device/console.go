package device

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/oshokin/job-alert/internal/domain/alert"
)

// Console renders alerts as text blocks on a terminal.
type Console struct {
	mu  sync.Mutex
	out io.Writer
}

// NewConsole returns a presentation host writing to out.
func NewConsole(out io.Writer) *Console {
	return &Console{out: out}
}

// ShowFullScreen prints the interrupting alert with its decision commands.
func (c *Console) ShowFullScreen(_ context.Context, a *alert.JobAlert) error {
	heading := "JOB ALERT"
	if a.Urgency == alert.UrgencyUrgent {
		heading = "URGENT JOB ALERT"
	}

	var b strings.Builder

	fmt.Fprintf(&b, "==== %s ====\n", heading)
	fmt.Fprintf(&b, "%s\n%s\n", a.Title, a.Summary())

	if a.CustomerName != "" {
		fmt.Fprintf(&b, "Customer: %s\n", a.CustomerName)
	}

	if a.Description != "" {
		fmt.Fprintf(&b, "%s\n", a.Description)
	}

	fmt.Fprintf(&b, "accept: alert-ctl accept %[1]s | reject: alert-ctl reject %[1]s\n", a.ID)

	return c.write(b.String())
}

// ShowPassiveNotification prints a one-line notification with its dismiss command.
func (c *Console) ShowPassiveNotification(_ context.Context, a *alert.JobAlert) error {
	return c.write(fmt.Sprintf("[notification %s] %s: %s (dismiss: alert-ctl dismiss %s)\n",
		a.ID, a.Title, a.Summary(), a.ID))
}

// CancelPassiveNotification prints that the notification is gone.
func (c *Console) CancelPassiveNotification(_ context.Context, alertID string) error {
	return c.write(fmt.Sprintf("[notification %s cleared]\n", alertID))
}

// ShowGenericNotification prints a regular notification.
func (c *Console) ShowGenericNotification(_ context.Context, title, body string) error {
	return c.write(fmt.Sprintf("[notification] %s: %s\n", title, body))
}

func (c *Console) write(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, err := io.WriteString(c.out, text)

	return err
}
