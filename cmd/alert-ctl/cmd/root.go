package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/job-alert/internal/config"
	"github.com/oshokin/job-alert/internal/service/control"
	"github.com/oshokin/job-alert/internal/version"
)

var (
	// options are shared by every subcommand.
	options control.Options

	// rootCmd represents the base command of the control CLI.
	rootCmd = &cobra.Command{
		Use:   "alert-ctl",
		Short: "Send job alerts and decisions to a running alert host.",
		Long: `Talks to a running alert-host over gRPC.

Use "deliver" to push a job alert (or any other message), and "accept",
"reject", "dismiss", "back" or "destroy" to act on the presenting alert
the way a user would. "status" prints the active alert and the last decision.
Answers are printed as JSON.`,
		SilenceUsage: true,
	}
)

// run executes one action with signal handling.
func run(cmd *cobra.Command, action control.Action) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	opts := options
	opts.Out = cmd.OutOrStdout()

	return control.Run(ctx, &opts, action)
}

// optionalID returns the first argument, or "" to address the presenting alert.
func optionalID(args []string) string {
	if len(args) > 0 {
		return args[0]
	}

	return ""
}

// Execute runs the alert-ctl CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&options.ConfigPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	flags.StringVarP(&options.ServerAddress, "server", "s", "", "alert host address, overrides the configuration")
	flags.BoolVar(&options.Retry, "retry", false, "keep retrying while the host is unavailable")
	flags.BoolVarP(&options.Verbose, "verbose", "v", false, "log client activity")

	rootCmd.AddCommand(
		deliverCmd(),
		&cobra.Command{
			Use:   "accept [alert-id]",
			Short: "Accept the presenting alert.",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return run(cmd, control.Accept(optionalID(args)))
			},
		},
		&cobra.Command{
			Use:   "reject [alert-id]",
			Short: "Reject the presenting alert.",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return run(cmd, control.Reject(optionalID(args)))
			},
		},
		&cobra.Command{
			Use:   "dismiss <alert-id>",
			Short: "Dismiss the notification of an alert.",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return run(cmd, control.Dismiss(args[0]))
			},
		},
		&cobra.Command{
			Use:   "back",
			Short: "Send a back gesture; it is swallowed while an alert is presenting.",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return run(cmd, control.Back())
			},
		},
		&cobra.Command{
			Use:   "destroy",
			Short: "Report that the alert screen was torn down.",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return run(cmd, control.Destroy())
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Print the active alert and the last decision.",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return run(cmd, control.Status())
			},
		},
	)
}
