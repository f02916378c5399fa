package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/job-alert/internal/config"
	"github.com/oshokin/job-alert/internal/service/host"
	"github.com/oshokin/job-alert/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string

	// rootCmd represents the base command for running the alert host.
	rootCmd = &cobra.Command{
		Use:   "alert-host [listen-address]",
		Short: "Run the job alert host.",
		Long: `Starts the alert host that presents incoming job alerts.

Each job alert is shown as a full-screen interrupt or a passive notification,
with a looping tone, vibration and a wake lock until it is accepted, rejected
or times out. Alerts and user decisions arrive over gRPC, usually from alert-ctl.

Only the port from server_addr in the configuration is used for listening.
A listen address argument overrides it (e.g., :9090, 127.0.0.1:7070).`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			var listenAddress string
			if len(args) > 0 {
				listenAddress = args[0]
			}

			return host.Run(ctx, &host.Options{
				ConfigPath:    configPath,
				ListenAddress: listenAddress,
			})
		},
	}
)

// Execute runs the alert-host CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
}
