package cmd

import (
	"github.com/lehigh-university-libraries/photobooth/internal/config"
	"github.com/spf13/cobra"
)

func addSourceFlags(cmd *cobra.Command) {
	cmd.Flags().String("source", "pattern", "Image source: pattern[:WxH], dir:PATH or an http(s) snapshot URL")
	cmd.Flags().String("filter", "none", "Filter baked into each photo")
}

// applySourceFlags lets explicitly set flags win over config and environment
func applySourceFlags(cmd *cobra.Command, cfg *config.Config) error {
	if cmd.Flags().Changed("source") {
		cfg.Source, _ = cmd.Flags().GetString("source")
	}
	if cmd.Flags().Changed("filter") {
		cfg.Filter, _ = cmd.Flags().GetString("filter")
	}
	if cmd.Flags().Changed("output") {
		cfg.OutputDir, _ = cmd.Flags().GetString("output")
	}
	return cfg.Validate()
}
