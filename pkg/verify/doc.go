// SPDX-License-Identifier: MPL-2.0

// Package verify checks arbitrary ZIP archives against the Evidence Bundle
// v0.1 format and scores them for auditability.
//
// Verification is best-effort: every expected malformation (missing entries,
// schema violations, bad log lines, unparsable timestamps, hash mismatches)
// is accumulated into the Report and contributes to the 0-10 score. The only
// fatal condition is an archive that cannot be opened at all, reported as an
// error wrapping ErrMalformedContainer with no Report body.
//
// Each call is stateless and owns its archive handle and report, so
// concurrent calls on different archives are safe.
package verify
