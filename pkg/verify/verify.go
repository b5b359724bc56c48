// SPDX-License-Identifier: MPL-2.0

package verify

import (
	"archive/zip"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"evb-cli/pkg/evb"
)

// ErrMalformedContainer is wrapped in the error returned when the archive
// bytes are not a well-formed ZIP. It is the only fatal verification
// outcome; everything else is accumulated into the Report.
var ErrMalformedContainer = errors.New("malformed container")

// Option configures a verification run.
type Option func(*options)

type options struct {
	strictVersion bool
}

// StrictVersion demotes an unsupported format version from a warning to a
// scoring error. By default the verifier stays forward-tolerant and scores
// what it can.
func StrictVersion() Option {
	return func(o *options) { o.strictVersion = true }
}

// VerifyFile verifies the bundle archive at path.
func VerifyFile(path string, opts ...Option) (*Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open bundle: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat bundle: %w", err)
	}
	return Verify(f, info.Size(), opts...)
}

// Verify checks the archive held by r against the Evidence Bundle v0.1
// format and returns a best-effort Report. The only error condition is a
// container that cannot be opened at all (wrapping ErrMalformedContainer);
// every other malformation is data in the Report.
func Verify(r io.ReaderAt, size int64, opts ...Option) (*Report, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedContainer, err)
	}

	s := &scan{
		zr:   zr,
		r:    r,
		size: size,
		rep:  &Report{},
	}
	s.facts.strictVersion = o.strictVersion

	s.checkMeta()
	s.checkLog()
	s.checkOptional()
	s.checkHash()

	s.rep.Score = score(s.facts)
	s.rep.Band = bandFor(s.rep.Score)
	return s.rep, nil
}

// scan is the mutable accumulator threaded through one verification run.
type scan struct {
	zr   *zip.Reader
	r    io.ReaderAt
	size int64

	rep   *Report
	facts facts
	meta  map[string]any // parsed meta.json, nil when absent or invalid
}

// read returns the named entry's bytes and whether the entry exists.
func (s *scan) read(name string) ([]byte, bool, error) {
	for _, f := range s.zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, true, err
		}
		defer rc.Close()
		data, err := io.ReadAll(rc)
		return data, true, err
	}
	return nil, false, nil
}

// checkMeta covers presence, JSON well-formedness and schema of meta.json.
func (s *scan) checkMeta() {
	data, found, err := s.read(evb.MetaFile)
	if !found {
		s.rep.addFinding(CheckMetaPresent, false, evb.MetaFile+" is missing")
		s.rep.addError(KindMissingRequiredEntry, 0, evb.MetaFile+" missing")
		return
	}
	s.facts.metaPresent = true
	s.rep.addFinding(CheckMetaPresent, true, "")

	if err != nil {
		s.rep.addFinding(CheckMetaValidJSON, false, "read error")
		s.rep.addError(KindSchemaViolation, 0, fmt.Sprintf("%s read error: %v", evb.MetaFile, err))
		return
	}

	var meta map[string]any
	if err := json.Unmarshal(data, &meta); err != nil {
		s.rep.addFinding(CheckMetaValidJSON, false, "not a JSON object")
		s.rep.addError(KindSchemaViolation, 0, fmt.Sprintf("%s is not a valid JSON object: %v", evb.MetaFile, err))
		return
	}
	s.facts.metaValidJSON = true
	s.rep.addFinding(CheckMetaValidJSON, true, "")
	s.meta = meta

	// Required top-level fields. Unknown additional fields are permitted
	// and ignored.
	for _, field := range evb.RequiredMetaFields {
		v, ok := meta[field]
		if !ok {
			s.facts.metaViolations++
			s.rep.addError(KindSchemaViolation, 0, fmt.Sprintf("missing required field %q", field))
			continue
		}
		if field == "system_info" {
			if _, ok := v.(map[string]any); !ok {
				s.facts.metaViolations++
				s.rep.addError(KindSchemaViolation, 0, `field "system_info" must be an object`)
			}
			continue
		}
		if _, ok := v.(string); !ok {
			s.facts.metaViolations++
			s.rep.addError(KindSchemaViolation, 0, fmt.Sprintf("field %q must be a string", field))
		}
	}

	if si, ok := meta["system_info"].(map[string]any); ok {
		for _, field := range evb.RequiredSystemInfoFields {
			v, ok := si[field]
			if !ok {
				s.facts.sysViolations++
				s.rep.addError(KindSchemaViolation, 0, fmt.Sprintf("missing required field %q", "system_info."+field))
				continue
			}
			if _, ok := v.(string); !ok {
				s.facts.sysViolations++
				s.rep.addError(KindSchemaViolation, 0, fmt.Sprintf("field %q must be a string", "system_info."+field))
			}
		}
	}

	s.facts.metaSchemaOK = s.facts.metaViolations == 0 && s.facts.sysViolations == 0
	detail := ""
	if !s.facts.metaSchemaOK {
		detail = fmt.Sprintf("%d required field(s) missing or mistyped", s.facts.metaViolations+s.facts.sysViolations)
	}
	s.rep.addFinding(CheckMetaSchemaOK, s.facts.metaSchemaOK, detail)

	// A foreign version is not by itself a failure: a v0.1 verifier should
	// recognize bundles from other major versions and still score what it
	// can. StrictVersion() turns this into a scoring error.
	if v, ok := meta["version"].(string); ok && v != evb.FormatVersion {
		s.facts.badVersion = true
		detail := fmt.Sprintf("version mismatch (expected %q, got %q)", evb.FormatVersion, v)
		if s.facts.strictVersion {
			s.rep.addError(KindUnsupportedVersion, 0, detail)
		} else {
			s.rep.addWarning(KindUnsupportedVersion, 0, detail)
		}
	}

	// Loose sanity only: the schema check above already required a string.
	if ts, ok := meta["timestamp"].(string); ok && !validTimestamp(ts) {
		s.rep.addWarning(KindUnparsableTimestamp, 0,
			fmt.Sprintf("%s timestamp should be RFC 3339 (e.g. 2025-11-19T12:34:56Z)", evb.MetaFile))
	}
}

// checkLog scans aal.ndjson line by line. A malformed line is recorded with
// its 1-based line number and the scan continues; one bad line never aborts
// the remaining lines.
func (s *scan) checkLog() {
	data, found, err := s.read(evb.LogFile)
	if !found {
		s.rep.addFinding(CheckLogPresent, false, evb.LogFile+" is missing")
		s.rep.addError(KindMissingRequiredEntry, 0, evb.LogFile+" missing")
		return
	}
	s.facts.logPresent = true
	s.rep.addFinding(CheckLogPresent, true, "")

	if err != nil {
		s.rep.addFinding(CheckLogValid, false, "read error")
		s.rep.addError(KindMalformedLine, 0, fmt.Sprintf("%s read error: %v", evb.LogFile, err))
		return
	}

	for i, line := range strings.Split(string(data), "\n") {
		n := i + 1
		if strings.TrimSpace(line) == "" {
			continue
		}

		var entry map[string]any
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			s.facts.lineErrors++
			s.rep.addError(KindMalformedLine, n, "invalid JSON")
			continue
		}

		var missing []string
		for _, field := range evb.RequiredEntryFields {
			v, ok := entry[field]
			if !ok {
				missing = append(missing, field)
				continue
			}
			if _, ok := v.(string); !ok {
				missing = append(missing, field)
			}
		}
		if len(missing) > 0 {
			s.facts.lineErrors++
			s.rep.addError(KindMalformedLine, n,
				"missing or mistyped required field(s): "+strings.Join(missing, ", "))
		}

		badTimestamp := false
		if ts, ok := entry["timestamp"].(string); ok && !validTimestamp(ts) {
			badTimestamp = true
			s.facts.lineErrors++
			s.rep.addError(KindUnparsableTimestamp, n, fmt.Sprintf("timestamp %q is not RFC 3339", ts))
		}

		if v, ok := entry["aal_version"].(string); ok && v != evb.LogVersion {
			s.rep.addWarning(KindUnsupportedVersion, n,
				fmt.Sprintf("aal_version mismatch (expected %q, got %q)", evb.LogVersion, v))
		}

		if len(missing) == 0 && !badTimestamp {
			s.facts.entryCount++
		}
	}

	s.rep.EntryCount = s.facts.entryCount
	s.facts.logValid = s.facts.lineErrors == 0 && s.facts.entryCount > 0
	s.rep.addFinding(CheckLogValid, s.facts.logValid,
		fmt.Sprintf("%d well-formed entries", s.facts.entryCount))
}

// checkOptional records the presence of attachments, anchors and anything
// signature-like. Absence is warning-only in v0.1.
func (s *scan) checkOptional() {
	for _, f := range s.zr.File {
		name := f.Name
		if strings.HasPrefix(name, evb.AttachmentsPrefix) && len(name) > len(evb.AttachmentsPrefix) {
			s.facts.hasAttachments = true
		}
		if strings.HasPrefix(name, evb.AnchorsPrefix) && len(name) > len(evb.AnchorsPrefix) {
			s.facts.hasAnchor = true
		}
		lower := strings.ToLower(name)
		if strings.Contains(lower, "signature") || strings.Contains(lower, "ctk") {
			s.facts.hasSignature = true
		}
	}

	s.rep.addFinding(CheckHasAttachments, s.facts.hasAttachments, "")
	if !s.facts.hasAttachments {
		s.rep.addWarning(KindNoAttachments, 0, "no attachments/ entries (optional for v0.1)")
	}
	s.rep.addFinding(CheckHasAnchor, s.facts.hasAnchor, "")
	if !s.facts.hasAnchor {
		s.rep.addWarning(KindNoAnchor, 0, "no anchors/ entries (optional for v0.1)")
	}
	s.rep.addFinding(CheckHasSignature, s.facts.hasSignature, "")
	if !s.facts.hasSignature {
		s.rep.addWarning(KindNoSignature, 0, "no cryptographic signature (optional for v0.1)")
	}
}

// checkHash verifies bundle_sha256 from meta.json against the archive bytes
// when the field is present. Absent meta or an absent field skips the check.
func (s *scan) checkHash() {
	if s.meta == nil {
		return
	}
	expected, ok := s.meta["bundle_sha256"].(string)
	if !ok {
		return
	}
	s.facts.hashPresent = true

	h := sha256.New()
	if _, err := io.Copy(h, io.NewSectionReader(s.r, 0, s.size)); err != nil {
		s.rep.addFinding(CheckHashMatch, false, "hashing failed")
		s.rep.addError(KindHashMismatch, 0, fmt.Sprintf("failed to hash archive: %v", err))
		return
	}
	actual := hex.EncodeToString(h.Sum(nil))

	if strings.EqualFold(actual, expected) {
		s.facts.hashMatch = true
		s.rep.addFinding(CheckHashMatch, true, "")
		return
	}
	s.rep.addFinding(CheckHashMatch, false, "")
	s.rep.addError(KindHashMismatch, 0,
		fmt.Sprintf("bundle_sha256 mismatch (expected %s, actual %s)", expected, actual))
}

// validTimestamp reports whether s parses as an RFC 3339 instant, the
// ISO-8601 profile the schemas mandate.
func validTimestamp(s string) bool {
	_, err := time.Parse(time.RFC3339, s)
	return err == nil
}
