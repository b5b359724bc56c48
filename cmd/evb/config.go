// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"evb-cli/internal/config"

	"github.com/spf13/cobra"
)

// configCmd groups configuration subcommands
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage evb configuration",
	Long: `Manage evb configuration.

Configuration is read from config.toml in the platform config directory,
overridable per setting via EVB_* environment variables (for example
EVB_VERIFY_STRICT_VERSION=true).

Examples:
  evb config show
  evb config init`,
}

// configShowCmd prints the effective configuration
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	RunE: func(cmd *cobra.Command, _ []string) error {
		rendered, err := config.Render(cfg)
		if err != nil {
			return err
		}
		path, pathErr := config.ConfigFilePath()
		if pathErr == nil {
			fmt.Fprintf(cmd.OutOrStdout(), "%s Config file: %s\n\n", iconInfo, PathStyle.Render(path))
		}
		fmt.Fprint(cmd.OutOrStdout(), rendered)
		return nil
	},
}

// configInitCmd writes the default configuration file
var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration file",
	RunE: func(cmd *cobra.Command, _ []string) error {
		path, err := config.WriteDefault()
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s Default config written\n", SuccessStyle.Render(iconPass))
		fmt.Fprintf(cmd.OutOrStdout(), "%s Path: %s\n", iconInfo, PathStyle.Render(path))
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
}
