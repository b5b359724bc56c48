// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"path/filepath"

	"evb-cli/pkg/evb"

	"github.com/spf13/cobra"
)

// demoOutput is the output path for the generated demo bundle
var demoOutput string

// demoCmd generates a known-good sample bundle
var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Generate a demo evidence bundle",
	Long: `Generate a minimal known-good evidence bundle for experimentation.

The bundle records a short demo navigation session: a calculated route, its
display, and the log write itself, plus two text attachments. It carries no
anchors or signatures, so verifying it yields a passing report with the two
optional-material warnings.

Examples:
  evb demo
  evb demo --output ./examples/demo.zip`,
	RunE: runDemo,
}

func init() {
	demoCmd.Flags().StringVarP(&demoOutput, "output", "o", "evb-demo.zip",
		"output path for the demo bundle")
}

func runDemo(cmd *cobra.Command, _ []string) error {
	stdout := cmd.OutOrStdout()

	fmt.Fprintln(stdout, TitleStyle.Render("Demo Bundle"))

	b := evb.NewDemo()
	if err := b.WriteFile(demoOutput); err != nil {
		return fmt.Errorf("failed to write demo bundle: %w", err)
	}

	absPath, err := filepath.Abs(demoOutput)
	if err != nil {
		absPath = demoOutput
	}

	fmt.Fprintf(stdout, "%s Demo bundle written\n\n", SuccessStyle.Render(iconPass))
	fmt.Fprintf(stdout, "%s Path: %s\n", iconInfo, PathStyle.Render(absPath))
	fmt.Fprintf(stdout, "%s Bundle ID: %s\n", iconInfo, PathStyle.Render(b.Meta().BundleID))
	fmt.Fprintf(stdout, "%s Events: %d\n", iconInfo, len(b.Events()))
	fmt.Fprintln(stdout)
	fmt.Fprintf(stdout, "%s Next steps:\n", iconInfo)
	fmt.Fprintf(stdout, "   1. Inspect it: unzip -l %s\n", demoOutput)
	fmt.Fprintf(stdout, "   2. Verify it:  evb verify %s\n", demoOutput)
	return nil
}
