package main

import (
	"context"
	"errors"
	"io/fs"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/absmach/fldash"
	"github.com/absmach/fldash/cli"
	"github.com/absmach/fldash/pkg/sdk"
	"github.com/spf13/cobra"
)

func main() {
	var (
		configPath string
		logLevel   string
	)

	rootCmd := &cobra.Command{
		Use:   "fldash-cli",
		Short: "Federated training dashboard CLI",
		Long:  `fldash-cli queries a training coordinator, watches convergence and simulates workers.`,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg := fldash.DefaultConfig()
			loaded, err := fldash.LoadConfig(configPath)
			switch {
			case err == nil:
				cfg = *loaded
			case errors.Is(err, fs.ErrNotExist) && !cmd.Flags().Changed("config"):
			default:
				return err
			}

			var level slog.Level
			if err := level.UnmarshalText([]byte(logLevel)); err != nil {
				return err
			}
			logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

			cli.SetConfig(cfg)
			cli.SetLogger(logger)
			cli.SetSDK(sdk.NewSDK(sdk.Config{
				CoordinatorURL:  cfg.Coordinator.URL,
				TLSVerification: !cfg.Coordinator.InsecureSkipVerify,
				Timeout:         fldash.Duration(cfg.Coordinator.Timeout),
			}))

			return nil
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", fldash.DefConfigPath, "Config file")
	rootCmd.PersistentFlags().StringVarP(&logLevel, "log-level", "l", "warn", "Log level")

	rootCmd.AddCommand(
		cli.NewStatusCmd(),
		cli.NewWatchCmd(),
		cli.NewFollowCmd(),
		cli.NewSimulateCmd(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.Fatal(err)
	}
}
