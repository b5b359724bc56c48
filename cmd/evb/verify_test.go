// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"strings"
	"testing"

	"evb-cli/pkg/verify"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// plainColors strips ANSI styling so assertions see bare text.
func plainColors(t *testing.T) {
	t.Helper()
	lipgloss.SetColorProfile(termenv.Ascii)
}

func TestFindingLabelsCoverAllChecks(t *testing.T) {
	checks := []string{
		verify.CheckMetaPresent,
		verify.CheckMetaValidJSON,
		verify.CheckMetaSchemaOK,
		verify.CheckLogPresent,
		verify.CheckLogValid,
		verify.CheckHasAttachments,
		verify.CheckHasAnchor,
		verify.CheckHasSignature,
		verify.CheckHashMatch,
	}
	for _, check := range checks {
		if findingLabels[check] == "" {
			t.Errorf("no summary label for check %q", check)
		}
	}
}

func TestRenderReport_Pass(t *testing.T) {
	plainColors(t)

	rep := &verify.Report{
		Score: 8,
		Band:  verify.BandValidForBasicAudit,
		Findings: []verify.Finding{
			{Check: verify.CheckMetaPresent, Passed: true},
			{Check: verify.CheckLogValid, Passed: true, Detail: "2 entries"},
			{Check: verify.CheckHasAnchor, Passed: false},
		},
		Warnings: []verify.Problem{
			{Kind: verify.KindNoAnchor, Detail: "no anchors/ entries"},
		},
		EntryCount: 2,
	}

	var buf bytes.Buffer
	renderReport(&buf, rep, 3, 5)
	out := buf.String()

	for _, want := range []string{
		iconPass + " meta.json present",
		"aal.ndjson entries well-formed (2 entries)",
		iconSkip + " anchors/ present",
		"Score: 8/10",
		"PASS: bundle is valid for basic audit",
		"[no_anchor] no anchors/ entries",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Errors:") {
		t.Error("no Errors section expected when the report has none")
	}
}

func TestRenderReport_CapsErrorList(t *testing.T) {
	plainColors(t)

	rep := &verify.Report{
		Score: 2,
		Band:  verify.BandFailsVerification,
		Errors: []verify.Problem{
			{Kind: verify.KindMalformedLine, Line: 1, Detail: "a"},
			{Kind: verify.KindMalformedLine, Line: 2, Detail: "b"},
			{Kind: verify.KindMalformedLine, Line: 3, Detail: "c"},
			{Kind: verify.KindMalformedLine, Line: 4, Detail: "d"},
			{Kind: verify.KindMalformedLine, Line: 5, Detail: "e"},
		},
	}

	var buf bytes.Buffer
	renderReport(&buf, rep, 3, 5)
	out := buf.String()

	if !strings.Contains(out, "[malformed_line] line 3: c") {
		t.Errorf("expected the third error itemized:\n%s", out)
	}
	if strings.Contains(out, "line 4: d") {
		t.Errorf("errors past the cap must not be itemized:\n%s", out)
	}
	if !strings.Contains(out, "...and 2 more") {
		t.Errorf("expected a rollup line for the remainder:\n%s", out)
	}
	if !strings.Contains(out, "FAIL: bundle fails verification") {
		t.Errorf("expected the failure verdict:\n%s", out)
	}
}

func TestRenderReport_PartialVerdict(t *testing.T) {
	plainColors(t)

	rep := &verify.Report{
		Score: 5,
		Band:  verify.BandUsableWithIssues,
		Errors: []verify.Problem{
			{Kind: verify.KindMissingRequiredEntry, Detail: "aal.ndjson not found"},
		},
	}

	var buf bytes.Buffer
	renderReport(&buf, rep, 3, 5)
	out := buf.String()

	if !strings.Contains(out, "PARTIAL: bundle has issues but may be usable") {
		t.Errorf("expected the partial verdict:\n%s", out)
	}
	if !strings.Contains(out, "[missing_required_entry] aal.ndjson not found") {
		t.Errorf("expected the itemized error:\n%s", out)
	}
}

func TestRenderReport_UnknownCheckFallsBackToName(t *testing.T) {
	plainColors(t)

	rep := &verify.Report{
		Score: 10,
		Band:  verify.BandValidForBasicAudit,
		Findings: []verify.Finding{
			{Check: "future_check", Passed: true},
		},
	}

	var buf bytes.Buffer
	renderReport(&buf, rep, 3, 5)
	if !strings.Contains(buf.String(), "future_check") {
		t.Errorf("unlabeled checks must render their raw name:\n%s", buf.String())
	}
}
