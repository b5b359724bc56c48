// SPDX-License-Identifier: MPL-2.0

package verify

import "fmt"

// Band is the three-tier classification derived from the numeric score.
type Band string

const (
	// BandValidForBasicAudit covers scores of 7 and above.
	BandValidForBasicAudit Band = "valid_for_basic_audit"
	// BandUsableWithIssues covers scores 4 through 6.
	BandUsableWithIssues Band = "usable_with_issues"
	// BandFailsVerification covers scores 3 and below.
	BandFailsVerification Band = "fails_verification"
)

// Kind classifies a Problem.
type Kind string

const (
	// KindMissingRequiredEntry marks an absent meta.json or aal.ndjson.
	KindMissingRequiredEntry Kind = "missing_required_entry"
	// KindSchemaViolation marks a required field that is missing or of the
	// wrong type, or a metadata document that is not a JSON object.
	KindSchemaViolation Kind = "schema_violation"
	// KindMalformedLine marks an action-log line that is not valid JSON or
	// fails its schema.
	KindMalformedLine Kind = "malformed_line"
	// KindUnparsableTimestamp marks a timestamp value that does not parse
	// as RFC 3339.
	KindUnparsableTimestamp Kind = "unparsable_timestamp"
	// KindHashMismatch marks a bundle_sha256 that does not match the
	// archive bytes.
	KindHashMismatch Kind = "hash_mismatch"
	// KindUnsupportedVersion marks a format or log version other than the
	// one this verifier implements.
	KindUnsupportedVersion Kind = "unsupported_version"
	// KindNoAttachments, KindNoAnchor and KindNoSignature mark absent
	// optional material; all three are warning-only in v0.1.
	KindNoAttachments Kind = "no_attachments"
	KindNoAnchor      Kind = "no_anchor"
	KindNoSignature   Kind = "no_signature"
)

// Problem is one accumulated error or warning.
type Problem struct {
	Kind Kind `json:"kind"`
	// Line is the 1-based aal.ndjson line number, or 0 when the problem is
	// not line-scoped.
	Line   int    `json:"line,omitempty"`
	Detail string `json:"detail"`
}

// String renders the problem for logs and error lists.
func (p Problem) String() string {
	if p.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s", p.Kind, p.Line, p.Detail)
	}
	return fmt.Sprintf("[%s] %s", p.Kind, p.Detail)
}

// Check names for Report findings, in the order the verifier records them.
const (
	CheckMetaPresent    = "meta_present"
	CheckMetaValidJSON  = "meta_valid_json"
	CheckMetaSchemaOK   = "meta_schema_ok"
	CheckLogPresent     = "log_present"
	CheckLogValid       = "log_valid"
	CheckHasAttachments = "has_attachments"
	CheckHasAnchor      = "has_anchor"
	CheckHasSignature   = "has_signature"
	CheckHashMatch      = "hash_match"
)

// Finding is one named pass/fail check result.
type Finding struct {
	Check  string `json:"check"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail,omitempty"`
}

// Report is the complete outcome of one verification. It always exposes the
// itemized findings, errors and warnings that produced the score, never just
// the final verdict.
type Report struct {
	// Score is the audit score on the fixed 0-10 scale.
	Score int `json:"score"`
	// Band is the classification derived from Score.
	Band Band `json:"band"`
	// Findings are the named checks in execution order.
	Findings []Finding `json:"findings"`
	// Errors are score-affecting problems, with line numbers where
	// applicable.
	Errors []Problem `json:"errors"`
	// Warnings are non-fatal advisories.
	Warnings []Problem `json:"warnings"`
	// EntryCount is the number of well-formed action-log entries.
	EntryCount int `json:"entry_count"`
}

// Finding returns the named finding and whether it was recorded.
func (r *Report) Finding(check string) (Finding, bool) {
	for _, f := range r.Findings {
		if f.Check == check {
			return f, true
		}
	}
	return Finding{}, false
}

// Passed reports whether the named check was recorded and passed.
func (r *Report) Passed(check string) bool {
	f, ok := r.Finding(check)
	return ok && f.Passed
}

func (r *Report) addFinding(check string, passed bool, detail string) {
	r.Findings = append(r.Findings, Finding{Check: check, Passed: passed, Detail: detail})
}

func (r *Report) addError(kind Kind, line int, detail string) {
	r.Errors = append(r.Errors, Problem{Kind: kind, Line: line, Detail: detail})
}

func (r *Report) addWarning(kind Kind, line int, detail string) {
	r.Warnings = append(r.Warnings, Problem{Kind: kind, Line: line, Detail: detail})
}
