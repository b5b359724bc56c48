// SPDX-License-Identifier: MPL-2.0

package verify

import (
	"archive/zip"
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"evb-cli/pkg/evb"
)

const validMeta = `{
  "bundle_id": "test-bundle-001",
  "version": "0.1",
  "timestamp": "2025-11-19T12:00:00Z",
  "system_info": {"name": "Test System", "version": "1.0", "operator": "QA"}
}`

const validLog = `{"timestamp":"2025-11-19T12:00:00Z","actor":"route-planner","action":"calculate_route"}
{"timestamp":"2025-11-19T12:00:01Z","actor":"navigation-ui","action":"display_route"}
`

// archiveEntry is one named file for buildArchive. A slice keeps entry
// order deterministic.
type archiveEntry struct {
	name    string
	content string
}

func buildArchive(t *testing.T, entries []archiveEntry) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, e := range entries {
		w, err := zw.Create(e.name)
		if err != nil {
			t.Fatalf("failed to create entry %s: %v", e.name, err)
		}
		if _, err := w.Write([]byte(e.content)); err != nil {
			t.Fatalf("failed to write entry %s: %v", e.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("failed to finalize archive: %v", err)
	}
	return buf.Bytes()
}

func verifyBytes(t *testing.T, data []byte, opts ...Option) *Report {
	t.Helper()
	rep, err := Verify(bytes.NewReader(data), int64(len(data)), opts...)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	return rep
}

func countErrors(rep *Report, kind Kind) int {
	n := 0
	for _, p := range rep.Errors {
		if p.Kind == kind {
			n++
		}
	}
	return n
}

func hasWarning(rep *Report, kind Kind) bool {
	for _, p := range rep.Warnings {
		if p.Kind == kind {
			return true
		}
	}
	return false
}

func TestVerifyMalformedContainer(t *testing.T) {
	data := []byte("this is not a zip archive")
	rep, err := Verify(bytes.NewReader(data), int64(len(data)))
	if !errors.Is(err, ErrMalformedContainer) {
		t.Fatalf("expected ErrMalformedContainer, got %v", err)
	}
	if rep != nil {
		t.Errorf("expected no report for a malformed container, got %+v", rep)
	}
}

func TestVerifyWellFormedBundle(t *testing.T) {
	rep := verifyBytes(t, buildArchive(t, []archiveEntry{
		{evb.MetaFile, validMeta},
		{evb.LogFile, validLog},
	}))

	for _, check := range []string{CheckMetaPresent, CheckMetaValidJSON, CheckMetaSchemaOK, CheckLogPresent, CheckLogValid} {
		if !rep.Passed(check) {
			t.Errorf("expected %s to pass", check)
		}
	}
	if len(rep.Errors) != 0 {
		t.Errorf("expected zero errors, got %v", rep.Errors)
	}
	if !hasWarning(rep, KindNoAnchor) || !hasWarning(rep, KindNoSignature) {
		t.Errorf("expected missing-anchor and missing-signature warnings, got %v", rep.Warnings)
	}
	if rep.EntryCount != 2 {
		t.Errorf("expected 2 well-formed entries, got %d", rep.EntryCount)
	}
	if rep.Band != BandValidForBasicAudit {
		t.Errorf("expected %s, got %s (score %d)", BandValidForBasicAudit, rep.Band, rep.Score)
	}
}

func TestVerifyScenarios(t *testing.T) {
	tests := []struct {
		name    string
		entries []archiveEntry
		check   func(t *testing.T, rep *Report)
	}{
		{
			name:    "meta only, no action log",
			entries: []archiveEntry{{evb.MetaFile, validMeta}},
			check: func(t *testing.T, rep *Report) {
				if rep.Passed(CheckLogPresent) {
					t.Error("expected log_present to fail")
				}
				if countErrors(rep, KindMissingRequiredEntry) != 1 {
					t.Errorf("expected one missing-entry error, got %v", rep.Errors)
				}
				if rep.Band == BandValidForBasicAudit {
					t.Errorf("expected usable_with_issues or lower, got %s (score %d)", rep.Band, rep.Score)
				}
			},
		},
		{
			name: "log with only blank lines",
			entries: []archiveEntry{
				{evb.MetaFile, validMeta},
				{evb.LogFile, "\n\n   \n"},
			},
			check: func(t *testing.T, rep *Report) {
				if !rep.Passed(CheckLogPresent) {
					t.Error("expected log_present to pass")
				}
				if rep.Passed(CheckLogValid) {
					t.Error("expected log_valid to fail with zero entries")
				}
				if rep.EntryCount != 0 {
					t.Errorf("expected 0 entries, got %d", rep.EntryCount)
				}
				if countErrors(rep, KindMalformedLine) != 0 {
					t.Errorf("blank lines must not produce errors, got %v", rep.Errors)
				}
			},
		},
		{
			name: "unparsable timestamp on line 2",
			entries: []archiveEntry{
				{evb.MetaFile, validMeta},
				{evb.LogFile, `{"timestamp":"2025-11-19T12:00:00Z","actor":"a","action":"x"}
{"timestamp":"not-a-date","actor":"b","action":"y"}
{"timestamp":"2025-11-19T12:00:02Z","actor":"c","action":"z"}
`},
			},
			check: func(t *testing.T, rep *Report) {
				if n := countErrors(rep, KindUnparsableTimestamp); n != 1 {
					t.Fatalf("expected exactly one unparsable-timestamp error, got %d: %v", n, rep.Errors)
				}
				for _, p := range rep.Errors {
					if p.Kind == KindUnparsableTimestamp && p.Line != 2 {
						t.Errorf("expected error on line 2, got line %d", p.Line)
					}
				}
				if rep.EntryCount != 2 {
					t.Errorf("remaining valid lines must still be counted, got %d", rep.EntryCount)
				}
			},
		},
		{
			name: "missing system_info.operator",
			entries: []archiveEntry{
				{evb.MetaFile, `{
  "bundle_id": "b", "version": "0.1", "timestamp": "2025-11-19T12:00:00Z",
  "system_info": {"name": "Test", "version": "1.0"}
}`},
				{evb.LogFile, validLog},
			},
			check: func(t *testing.T, rep *Report) {
				if !rep.Passed(CheckMetaPresent) || !rep.Passed(CheckMetaValidJSON) {
					t.Error("expected meta_present and meta_valid_json to pass")
				}
				if rep.Passed(CheckMetaSchemaOK) {
					t.Error("expected meta_schema_ok to fail")
				}
				if n := countErrors(rep, KindSchemaViolation); n != 1 {
					t.Fatalf("expected exactly one schema violation, got %d: %v", n, rep.Errors)
				}
				want := `missing required field "system_info.operator"`
				found := false
				for _, p := range rep.Errors {
					if p.Kind == KindSchemaViolation && p.Detail == want {
						found = true
					}
				}
				if !found {
					t.Errorf("violation must name the field, got %v", rep.Errors)
				}
			},
		},
		{
			name: "meta is a JSON array",
			entries: []archiveEntry{
				{evb.MetaFile, `[{"bundle_id":"b"}]`},
				{evb.LogFile, validLog},
			},
			check: func(t *testing.T, rep *Report) {
				if rep.Passed(CheckMetaValidJSON) {
					t.Error("an array must not count as a valid metadata object")
				}
			},
		},
		{
			name: "malformed JSON line keeps scanning",
			entries: []archiveEntry{
				{evb.MetaFile, validMeta},
				{evb.LogFile, "{not json}\n" + validLog},
			},
			check: func(t *testing.T, rep *Report) {
				if n := countErrors(rep, KindMalformedLine); n != 1 {
					t.Errorf("expected one malformed-line error, got %d", n)
				}
				if rep.EntryCount != 2 {
					t.Errorf("later lines must still be scanned, got %d entries", rep.EntryCount)
				}
			},
		},
		{
			name: "unknown entries and unknown meta fields are ignored",
			entries: []archiveEntry{
				{evb.MetaFile, `{
  "bundle_id": "b", "version": "0.1", "timestamp": "2025-11-19T12:00:00Z",
  "system_info": {"name": "n", "version": "v", "operator": "o"},
  "custom_extension": {"nested": true}
}`},
				{evb.LogFile, validLog},
				{"extra/random.bin", "opaque"},
			},
			check: func(t *testing.T, rep *Report) {
				if len(rep.Errors) != 0 {
					t.Errorf("unknown material must never fail a bundle: %v", rep.Errors)
				}
				if !rep.Passed(CheckMetaSchemaOK) {
					t.Error("expected meta_schema_ok to pass")
				}
			},
		},
		{
			name: "unsupported version is a warning",
			entries: []archiveEntry{
				{evb.MetaFile, `{
  "bundle_id": "b", "version": "0.2", "timestamp": "2025-11-19T12:00:00Z",
  "system_info": {"name": "n", "version": "v", "operator": "o"}
}`},
				{evb.LogFile, validLog},
			},
			check: func(t *testing.T, rep *Report) {
				if !hasWarning(rep, KindUnsupportedVersion) {
					t.Errorf("expected unsupported-version warning, got %v", rep.Warnings)
				}
				if countErrors(rep, KindUnsupportedVersion) != 0 {
					t.Errorf("version mismatch must not be an error by default: %v", rep.Errors)
				}
				if rep.Passed(CheckMetaSchemaOK) != true {
					t.Error("a foreign version must not fail the schema check")
				}
			},
		},
		{
			name: "anchors and signature satisfy the optional checks",
			entries: []archiveEntry{
				{evb.MetaFile, validMeta},
				{evb.LogFile, validLog},
				{"attachments/prompt.txt", "hi"},
				{"anchors/proof.json", "{}"},
				{"anchors/signature.ctk", "sig"},
			},
			check: func(t *testing.T, rep *Report) {
				for _, check := range []string{CheckHasAttachments, CheckHasAnchor, CheckHasSignature} {
					if !rep.Passed(check) {
						t.Errorf("expected %s to pass", check)
					}
				}
				if len(rep.Warnings) != 0 {
					t.Errorf("expected no warnings, got %v", rep.Warnings)
				}
				if rep.Score != 10 {
					t.Errorf("expected a perfect score, got %d", rep.Score)
				}
			},
		},
		{
			name: "bundle_sha256 mismatch",
			entries: []archiveEntry{
				{evb.MetaFile, `{
  "bundle_id": "b", "version": "0.1", "timestamp": "2025-11-19T12:00:00Z",
  "system_info": {"name": "n", "version": "v", "operator": "o"},
  "bundle_sha256": "deadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeef"
}`},
				{evb.LogFile, validLog},
			},
			check: func(t *testing.T, rep *Report) {
				if rep.Passed(CheckHashMatch) {
					t.Error("expected hash_match to fail")
				}
				if countErrors(rep, KindHashMismatch) != 1 {
					t.Errorf("expected one hash-mismatch error, got %v", rep.Errors)
				}
				clean := verifyBytes(t, buildArchive(t, []archiveEntry{
					{evb.MetaFile, validMeta},
					{evb.LogFile, validLog},
				}))
				if rep.Score >= clean.Score {
					t.Errorf("a hash mismatch must lower the score: %d vs %d", rep.Score, clean.Score)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, verifyBytes(t, buildArchive(t, tt.entries)))
		})
	}
}

func TestVerifyStrictVersion(t *testing.T) {
	data := buildArchive(t, []archiveEntry{
		{evb.MetaFile, `{
  "bundle_id": "b", "version": "0.2", "timestamp": "2025-11-19T12:00:00Z",
  "system_info": {"name": "n", "version": "v", "operator": "o"}
}`},
		{evb.LogFile, validLog},
	})

	lenient := verifyBytes(t, data)
	strict := verifyBytes(t, data, StrictVersion())

	if countErrors(strict, KindUnsupportedVersion) != 1 {
		t.Errorf("expected a version error under StrictVersion, got %v", strict.Errors)
	}
	if strict.Score >= lenient.Score {
		t.Errorf("strict mode must score lower: %d vs %d", strict.Score, lenient.Score)
	}
}

func TestVerifyIdempotent(t *testing.T) {
	data := buildArchive(t, []archiveEntry{
		{evb.MetaFile, validMeta},
		{evb.LogFile, "{bad\n" + validLog},
	})

	first := verifyBytes(t, data)
	second := verifyBytes(t, data)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("verify is not idempotent:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func TestVerifyMonotonicDegradation(t *testing.T) {
	full := verifyBytes(t, buildArchive(t, []archiveEntry{
		{evb.MetaFile, validMeta},
		{evb.LogFile, validLog},
		{"attachments/prompt.txt", "hi"},
		{"anchors/proof.json", "{}"},
		{"anchors/signature.json", "{}"},
	}))
	noAnchors := verifyBytes(t, buildArchive(t, []archiveEntry{
		{evb.MetaFile, validMeta},
		{evb.LogFile, validLog},
	}))
	noMeta := verifyBytes(t, buildArchive(t, []archiveEntry{
		{evb.LogFile, validLog},
	}))
	badLine := verifyBytes(t, buildArchive(t, []archiveEntry{
		{evb.MetaFile, validMeta},
		{evb.LogFile, validLog + "{broken\n"},
	}))

	if noAnchors.Score >= full.Score {
		t.Errorf("missing anchors must reduce the score: %d vs %d", noAnchors.Score, full.Score)
	}
	if noAnchors.Band == BandFailsVerification {
		t.Error("missing anchors alone must never fail verification")
	}
	if noMeta.Score >= noAnchors.Score {
		t.Errorf("missing meta.json must strictly decrease the score: %d vs %d", noMeta.Score, noAnchors.Score)
	}
	if badLine.Score >= noAnchors.Score {
		t.Errorf("a malformed line must strictly decrease the score: %d vs %d", badLine.Score, noAnchors.Score)
	}
	if badLine.EntryCount != 2 {
		t.Errorf("a malformed line must not prevent counting valid lines, got %d", badLine.EntryCount)
	}
}

func TestVerifyBuilderOutput(t *testing.T) {
	b := evb.New("Builder Test", "1.0", "tester")
	b.AddEvent("route-planner", "calculate_route")
	b.AddEvent("navigation-ui", "display_route")
	if err := b.AddAttachment("prompt.txt", []byte("hello")); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := b.Write(&buf); err != nil {
		t.Fatal(err)
	}

	rep := verifyBytes(t, buf.Bytes())
	for _, check := range []string{CheckMetaPresent, CheckMetaSchemaOK, CheckLogPresent, CheckLogValid} {
		if !rep.Passed(check) {
			t.Errorf("builder output must pass %s", check)
		}
	}
	if rep.Score < 7 || rep.Band != BandValidForBasicAudit {
		t.Errorf("builder output must be valid for basic audit, got score %d band %s", rep.Score, rep.Band)
	}
	if len(rep.Errors) != 0 {
		t.Errorf("builder output must have zero errors, got %v", rep.Errors)
	}
}

func TestVerifyFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bundle.zip")
	if err := os.WriteFile(path, buildArchive(t, []archiveEntry{
		{evb.MetaFile, validMeta},
		{evb.LogFile, validLog},
	}), 0644); err != nil {
		t.Fatal(err)
	}

	rep, err := VerifyFile(path)
	if err != nil {
		t.Fatalf("VerifyFile failed: %v", err)
	}
	if rep.Band != BandValidForBasicAudit {
		t.Errorf("unexpected band %s", rep.Band)
	}

	if _, err := VerifyFile(filepath.Join(dir, "missing.zip")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected os.ErrNotExist for a missing file, got %v", err)
	}
}
