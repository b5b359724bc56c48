// SPDX-License-Identifier: MPL-2.0

package verify

// facts are the boolean and count outcomes of a scan, separated from the
// Report so the score is a pure function of them. The exact weighting is
// implementation-defined by the format; only the orderings matter (a failed
// metadata or log check must score strictly below the same bundle passing
// it, and missing anchors/signatures alone must never push an otherwise
// valid bundle below the usable band).
type facts struct {
	metaPresent    bool
	metaValidJSON  bool
	metaSchemaOK   bool
	metaViolations int // top-level required-field violations
	sysViolations  int // system_info required-field violations
	badVersion     bool
	strictVersion  bool

	logPresent bool
	logValid   bool
	entryCount int
	lineErrors int

	hasAttachments bool
	hasAnchor      bool
	hasSignature   bool

	hashPresent bool
	hashMatch   bool
}

// Section weights. The three sections sum to exactly 10 so a perfect bundle
// scores 10 without clamping; the hash check can only subtract.
const (
	metaWeight     = 4
	logWeight      = 4
	optionalWeight = 2

	emptyLogScore   = 2 // log present but zero well-formed entries
	hashMismatchFee = 2
)

// score maps scan facts to the 0-10 audit scale.
func score(f facts) int {
	total := metaScore(f) + logScore(f) + optionalScore(f)
	if f.hashPresent && !f.hashMatch {
		total -= hashMismatchFee
	}
	return clamp(total, 0, 10)
}

func metaScore(f facts) int {
	if !f.metaPresent || !f.metaValidJSON {
		return 0
	}
	s := metaWeight - 2*f.metaViolations - f.sysViolations
	if f.badVersion {
		if f.strictVersion {
			s -= 2
		} else {
			s--
		}
	}
	return max(s, 0)
}

func logScore(f facts) int {
	if !f.logPresent {
		return 0
	}
	if f.entryCount == 0 && f.lineErrors == 0 {
		return emptyLogScore
	}
	return max(logWeight-f.lineErrors, 0)
}

func optionalScore(f facts) int {
	s := optionalWeight
	if !f.hasAnchor {
		s--
	}
	if !f.hasSignature {
		s--
	}
	return max(s, 0)
}

// bandFor classifies a score. The thresholds are fixed by the format.
func bandFor(score int) Band {
	switch {
	case score >= 7:
		return BandValidForBasicAudit
	case score >= 4:
		return BandUsableWithIssues
	default:
		return BandFailsVerification
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
