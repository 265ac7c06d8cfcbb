package cli

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/absmach/fldash"
	"github.com/absmach/fldash/monitor"
	"github.com/absmach/fldash/monitor/mqtt"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	cfg    = fldash.DefaultConfig()
	logger = slog.Default()
)

func SetConfig(c fldash.Config) {
	cfg = c
}

func SetLogger(l *slog.Logger) {
	logger = l
}

func NewWatchCmd() *cobra.Command {
	var (
		interval time.Duration
		once     bool
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch training progress",
		Long: `Poll the coordinator and print one line per refresh with the epoch,
global loss, convergence rate, stability and best worker.

Examples:
  # Refresh every 5 seconds
  fldash-cli watch --interval 5s

  # Print a single full report as JSON
  fldash-cli watch --once`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 0 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}
			if !cmd.Flags().Changed("interval") {
				interval = fldash.Duration(cfg.Monitor.RefreshInterval)
			}

			svc, err := monitor.NewService(fsdk, monitor.NewHistoryLog(fldash.Duration(cfg.Monitor.HistoryInterval)), logger)
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}

			if once {
				r, err := svc.Poll(cmd.Context())
				if err != nil {
					logErrorCmd(*cmd, err)

					return
				}
				logJSONCmd(*cmd, r)

				return
			}

			runner, err := monitor.NewRunner(svc, interval, logger)
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			runner.OnReport(func(r monitor.Report) {
				fmt.Fprintln(cmd.OutOrStdout(), formatReport(r))
			})
			if err := runner.Run(cmd.Context()); err != nil {
				logErrorCmd(*cmd, err)
			}
		},
	}

	cmd.Flags().DurationVar(&interval, "interval", monitor.DefRefreshInterval, "Refresh interval, between 1s and 10s")
	cmd.Flags().BoolVar(&once, "once", false, "Poll once and print the full report")

	return cmd
}

func NewFollowCmd() *cobra.Command {
	var topic string

	cmd := &cobra.Command{
		Use:   "follow",
		Short: "Follow published reports",
		Long:  `Subscribe to the MQTT topic a dashboard publishes reports on and print one line per report.`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 0 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}
			if cfg.MQTT.Address == "" {
				logErrorCmd(*cmd, errNoBroker)

				return
			}
			if topic == "" {
				topic = cfg.MQTT.Topic
			}

			feed, err := mqtt.NewFeed(mqtt.Config{
				Address:  cfg.MQTT.Address,
				ClientID: "fldash-cli-" + uuid.NewString(),
				Username: cfg.MQTT.Username,
				Password: cfg.MQTT.Password,
				Topic:    topic,
				QoS:      cfg.MQTT.QoS,
				Timeout:  fldash.Duration(cfg.MQTT.Timeout),
			}, logger)
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			defer feed.Close()

			logSuccessCmd(*cmd, "Following "+feed.Topic())
			if err := feed.Follow(cmd.Context(), func(r monitor.Report) {
				fmt.Fprintln(cmd.OutOrStdout(), formatReport(r))
			}); err != nil {
				logErrorCmd(*cmd, err)
			}
		},
	}

	cmd.Flags().StringVar(&topic, "topic", "", "Report topic, defaults to the configured one")

	return cmd
}
