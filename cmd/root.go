package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/lehigh-university-libraries/photobooth/internal/config"
	"github.com/spf13/cobra"
)

const defaultConfigPath = "photobooth.yaml"

// rootOptions is shared by every subcommand
type rootOptions struct {
	configPath string
	logLevel   string
	cfg        config.Config
}

func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "photobooth",
		Short: "Countdown photo booth that composites snapshots into a photo strip",
		Long: `Photobooth takes a timed sequence of snapshots from a live image source,
bakes the selected filter into each one and composites them into a vertical
photo strip with a date stamp.

Run a session from the terminal with "shoot", or serve the booth page and API
with "serve".`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()

			if err := setupLogging(opts.logLevel); err != nil {
				return err
			}

			explicit := cmd.Flags().Changed("config")
			cfg, err := config.Load(opts.configPath, explicit)
			if err != nil {
				return err
			}
			opts.cfg = cfg
			slog.Debug("Configuration loaded", "path", opts.configPath, "source", cfg.Source, "filter", cfg.Filter)
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", defaultConfigPath, "Path to YAML config file")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	cmd.AddCommand(newServeCmd(opts))
	cmd.AddCommand(newShootCmd(opts))
	cmd.AddCommand(newComposeCmd(opts))
	cmd.AddCommand(newFiltersCmd())

	return cmd
}

func setupLogging(level string) error {
	var l slog.Level
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		l = slog.LevelDebug
	case "info", "":
		l = slog.LevelInfo
	case "warn", "warning":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		return fmt.Errorf("unknown log level %q", level)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l})))
	return nil
}
