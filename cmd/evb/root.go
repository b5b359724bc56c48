// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for evb.
package cmd

import (
	"context"
	"fmt"
	"os"

	"evb-cli/internal/config"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"

	// verbose enables verbose output
	verbose bool

	// cfg is the loaded configuration, populated by initRootConfig before
	// any RunE executes. Falls back to defaults if loading fails.
	cfg = config.DefaultConfig()

	// rootCmd represents the base command when called without any subcommands
	rootCmd = &cobra.Command{
		Use:   "evb",
		Short: "Create and verify evidence bundles",
		Long: TitleStyle.Render("evb") + SubtitleStyle.Render(" - Create and verify evidence bundles") + `

An evidence bundle is a portable ZIP archive that records what an automated
system did, when, and in what context, so a third party can audit the record
later. A bundle carries a metadata document (meta.json), an append-only
action log (aal.ndjson), and optional attachments and anchors.

evb verifies arbitrary archives against the v0.1 format, scores them on a
0-10 audit scale, and classifies the result into one of three bands.

` + SubtitleStyle.Render("Examples:") + `
  evb verify incident.zip   Verify a bundle and print the itemized report
  evb demo                  Generate a known-good sample bundle
  evb config show           Show the effective configuration`,
	}
)

func init() {
	cobra.OnInitialize(initRootConfig)

	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")

	// Add subcommands
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(demoCmd)
	rootCmd.AddCommand(configCmd)
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	// Use fang.Execute for enhanced Cobra styling
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		os.Exit(1)
	}
}

// initRootConfig loads configuration and applies output settings.
func initRootConfig() {
	loaded, err := config.Load()
	if err != nil {
		// Surface config problems but keep going on defaults; a broken
		// config file should not block verification.
		fmt.Fprintln(os.Stderr, WarningStyle.Render("Warning: ")+err.Error())
		loaded = config.DefaultConfig()
	}
	cfg = loaded

	switch cfg.Output.Color {
	case config.ColorNever:
		lipgloss.SetColorProfile(termenv.Ascii)
	case config.ColorAlways:
		lipgloss.SetColorProfile(termenv.TrueColor)
	}

	if verbose || cfg.Output.Verbose {
		log.SetLevel(log.DebugLevel)
	}
}
