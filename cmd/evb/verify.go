// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"evb-cli/internal/issue"
	"evb-cli/pkg/verify"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var (
	// verifyStrictVersion demotes an unsupported format version to an error
	verifyStrictVersion bool
	// verifyJSON prints the raw Report as JSON instead of the styled summary
	verifyJSON bool
)

// verifyCmd verifies an evidence bundle archive
var verifyCmd = &cobra.Command{
	Use:   "verify <bundle.zip>",
	Short: "Verify an evidence bundle",
	Long: `Verify an archive against the Evidence Bundle v0.1 format.

Checks performed:
  - meta.json present, valid JSON, required fields of the right types
  - aal.ndjson present, every non-blank line a well-formed log entry
  - entry timestamps parse as RFC 3339
  - optional attachments/, anchors/ and signature material present
  - bundle_sha256 (if declared in meta.json) matches the archive bytes

Every problem is accumulated into one report; only an unreadable archive
aborts verification. The report carries a 0-10 score and a band:
valid_for_basic_audit (>= 7), usable_with_issues (4-6), or
fails_verification (<= 3).

Exit codes: 0 valid for basic audit, 1 usable with issues, 2 fails
verification or unreadable archive.

Examples:
  evb verify incident.zip
  evb verify incident.zip --strict-version
  evb verify incident.zip --json | jq .score`,
	Args: cobra.ExactArgs(1),
	RunE: runVerify,
}

func init() {
	verifyCmd.Flags().BoolVar(&verifyStrictVersion, "strict-version", false,
		"treat an unsupported bundle format version as an error instead of a warning")
	verifyCmd.Flags().BoolVar(&verifyJSON, "json", false,
		"print the report as JSON")
}

func runVerify(cmd *cobra.Command, args []string) error {
	bundlePath := args[0]
	stdout := cmd.OutOrStdout()
	stderr := cmd.ErrOrStderr()

	// Convert to absolute path for display
	absPath, err := filepath.Abs(bundlePath)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}

	if !verifyJSON {
		fmt.Fprintln(stdout, TitleStyle.Render("Evidence Bundle Verification"))
		fmt.Fprintf(stdout, "%s Path: %s\n\n", iconInfo, PathStyle.Render(absPath))
	}

	var opts []verify.Option
	if verifyStrictVersion || cfg.Verify.StrictVersion {
		opts = append(opts, verify.StrictVersion())
	}

	rep, err := verify.VerifyFile(bundlePath, opts...)
	if err != nil {
		switch {
		case errors.Is(err, os.ErrNotExist):
			renderIssue(stderr, issue.BundleNotFoundId)
		case errors.Is(err, verify.ErrMalformedContainer):
			fmt.Fprintf(stderr, "%s %s\n", ErrorStyle.Render(iconFail), err.Error())
			renderIssue(stderr, issue.MalformedContainerId)
		default:
			return err
		}
		os.Exit(2)
	}

	log.Debug("verification complete",
		"score", rep.Score, "band", rep.Band,
		"entries", rep.EntryCount, "errors", len(rep.Errors), "warnings", len(rep.Warnings))

	if verifyJSON {
		data, err := json.MarshalIndent(rep, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal report: %w", err)
		}
		fmt.Fprintln(stdout, string(data))
	} else {
		renderReport(stdout, rep, cfg.Verify.MaxShownErrors, cfg.Verify.MaxShownWarnings)
	}

	// Exit codes mirror the band so scripts can branch without parsing output.
	switch rep.Band {
	case verify.BandValidForBasicAudit:
		return nil
	case verify.BandUsableWithIssues:
		os.Exit(1)
	default:
		os.Exit(2)
	}
	return nil
}

// findingLabels maps Report check names to human-readable summary lines.
var findingLabels = map[string]string{
	verify.CheckMetaPresent:    "meta.json present",
	verify.CheckMetaValidJSON:  "meta.json is valid JSON",
	verify.CheckMetaSchemaOK:   "meta.json required fields",
	verify.CheckLogPresent:     "aal.ndjson present",
	verify.CheckLogValid:       "aal.ndjson entries well-formed",
	verify.CheckHasAttachments: "attachments/ present",
	verify.CheckHasAnchor:      "anchors/ present",
	verify.CheckHasSignature:   "cryptographic signature present",
	verify.CheckHashMatch:      "bundle_sha256 matches archive",
}

// optionalChecks are rendered with a skip marker instead of a failure marker
// when absent, since the format treats them as warning-only.
var optionalChecks = map[string]bool{
	verify.CheckHasAttachments: true,
	verify.CheckHasAnchor:      true,
	verify.CheckHasSignature:   true,
}

// renderReport prints the human-readable summary. It is derived entirely
// from the Report; it never recomputes a check. maxErrors and maxWarnings
// cap the itemized lists, rolling the remainder into one line each.
func renderReport(w io.Writer, rep *verify.Report, maxErrors, maxWarnings int) {
	for _, f := range rep.Findings {
		label := findingLabels[f.Check]
		if label == "" {
			label = f.Check
		}
		if f.Detail != "" {
			label += " (" + f.Detail + ")"
		}

		switch {
		case f.Passed:
			fmt.Fprintf(w, "%s %s\n", SuccessStyle.Render(iconPass), label)
		case optionalChecks[f.Check]:
			fmt.Fprintf(w, "%s %s\n", WarningStyle.Render(iconSkip), label)
		default:
			fmt.Fprintf(w, "%s %s\n", ErrorStyle.Render(iconFail), label)
		}
	}

	if len(rep.Errors) > 0 {
		fmt.Fprintf(w, "\n%s\n", ErrorStyle.Render("Errors:"))
		for i, p := range rep.Errors {
			if i == maxErrors {
				fmt.Fprintf(w, "  %s ...and %d more\n", iconFail, len(rep.Errors)-maxErrors)
				break
			}
			fmt.Fprintf(w, "  %s %s\n", ErrorStyle.Render(iconFail), p.String())
		}
	}

	if len(rep.Warnings) > 0 {
		fmt.Fprintf(w, "\n%s\n", WarningStyle.Render("Warnings:"))
		for i, p := range rep.Warnings {
			if i == maxWarnings {
				fmt.Fprintf(w, "  %s ...and %d more\n", iconWarn, len(rep.Warnings)-maxWarnings)
				break
			}
			fmt.Fprintf(w, "  %s %s\n", WarningStyle.Render(iconWarn), p.String())
		}
	}

	fmt.Fprintf(w, "\n%s\n\n", ScoreStyle.Render(fmt.Sprintf("Score: %d/10", rep.Score)))

	switch rep.Band {
	case verify.BandValidForBasicAudit:
		fmt.Fprintf(w, "%s %s\n", SuccessStyle.Render(iconPass),
			SuccessStyle.Render("PASS: bundle is valid for basic audit"))
	case verify.BandUsableWithIssues:
		fmt.Fprintf(w, "%s %s\n", WarningStyle.Render(iconWarn),
			WarningStyle.Render("PARTIAL: bundle has issues but may be usable"))
	default:
		fmt.Fprintf(w, "%s %s\n", ErrorStyle.Render(iconFail),
			ErrorStyle.Render("FAIL: bundle fails verification"))
	}
}

// renderIssue prints a catalog entry with remediation guidance to stderr.
func renderIssue(w io.Writer, id issue.Id) {
	entry := issue.Get(id)
	if entry == nil {
		return
	}
	rendered, err := entry.Render("dark")
	if err != nil {
		log.Warn("failed to render issue catalog entry", "issueID", id, "error", err)
		fmt.Fprintln(w, string(entry.MarkdownMsg()))
		return
	}
	fmt.Fprint(w, rendered)
}
