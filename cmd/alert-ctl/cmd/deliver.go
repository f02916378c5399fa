package cmd

import (
	"github.com/spf13/cobra"

	"github.com/oshokin/job-alert/internal/domain/alert"
	"github.com/oshokin/job-alert/internal/service/control"
	"github.com/oshokin/job-alert/internal/service/payload"
)

// deliverFlags maps command line flags to message fields.
var deliverFlags = []struct {
	flag, field, usage string
}{
	{"type", "type", "message type: new_job, urgent_job or anything else for a generic notification"},
	{"job-id", "jobId", "job identifier"},
	{"title", "title", "alert title"},
	{"price", "price", "price shown to the provider"},
	{"location", "location", "job location"},
	{"customer", "customerName", "customer name"},
	{"urgency", "urgency", "urgency, e.g. urgent"},
	{"description", "description", "job description"},
	{"body", "body", "body of a generic notification"},
}

func deliverCmd() *cobra.Command {
	values := make([]string, len(deliverFlags))

	var env alert.Environment

	cmd := &cobra.Command{
		Use:   "deliver",
		Short: "Push a message to the alert host.",
		Long: `Pushes one message as a push service would.

Without any of --locked, --interactive or --permission the host uses its
configured device defaults to choose the presentation.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data := make(map[string]string, len(deliverFlags))

			for i, f := range deliverFlags {
				if values[i] != "" {
					data[f.field] = values[i]
				}
			}

			var device *alert.Environment

			flags := cmd.Flags()
			if flags.Changed("locked") || flags.Changed("interactive") || flags.Changed("permission") {
				device = &env
			}

			return run(cmd, control.Deliver(data, device))
		},
	}

	for i, f := range deliverFlags {
		defaultValue := ""
		if f.field == "type" {
			defaultValue = payload.TypeNewJob
		}

		cmd.Flags().StringVar(&values[i], f.flag, defaultValue, f.usage)
	}

	cmd.Flags().BoolVar(&env.DeviceLocked, "locked", false, "the device is locked")
	cmd.Flags().BoolVar(&env.DeviceInteractive, "interactive", false, "the screen is on")
	cmd.Flags().BoolVar(&env.FullScreenPermission, "permission", false, "full-screen interrupts are allowed")

	return cmd
}
