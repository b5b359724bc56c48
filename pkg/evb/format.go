// SPDX-License-Identifier: MPL-2.0

package evb

// FormatVersion is the Evidence Bundle format version this package
// implements. It is the only value the builder ever writes to the
// meta.json "version" field.
const FormatVersion = "0.1"

// LogVersion is the action-log schema version recognized by the verifier
// when an entry carries an explicit "aal_version" field.
const LogVersion = "1.0"

// Archive layout. Entry names are case-sensitive and use forward slashes.
const (
	// MetaFile is the required metadata document at the archive root.
	MetaFile = "meta.json"
	// LogFile is the required NDJSON action log at the archive root.
	LogFile = "aal.ndjson"
	// AttachmentsPrefix is the reserved prefix for attachment blobs.
	AttachmentsPrefix = "attachments/"
	// AnchorsPrefix is the reserved prefix for anchor (proof) blobs.
	AnchorsPrefix = "anchors/"
)

// Required field names, aligned with the v0.1 JSON schemas. The verifier
// iterates these lists so schema findings stay in declaration order.
var (
	// RequiredMetaFields are the top-level fields every meta.json must carry.
	RequiredMetaFields = []string{"bundle_id", "version", "timestamp", "system_info"}
	// RequiredSystemInfoFields are the fields required inside system_info.
	RequiredSystemInfoFields = []string{"name", "version", "operator"}
	// RequiredEntryFields are the fields every action-log entry must carry.
	RequiredEntryFields = []string{"timestamp", "actor", "action"}
)

// SystemInfo identifies the system that produced a bundle. All fields are
// free-text strings.
type SystemInfo struct {
	Name     string `json:"name"`
	Version  string `json:"version"`
	Operator string `json:"operator"`
}

// Metadata is the meta.json document. Unknown additional fields are
// permitted by the format; consumers must ignore them, never reject them.
type Metadata struct {
	// BundleID is an opaque unique identifier. Its format is unconstrained.
	BundleID string `json:"bundle_id"`
	// Version is the bundle format version; "0.1" for this package.
	Version string `json:"version"`
	// Timestamp is the bundle creation instant, RFC 3339 UTC.
	Timestamp string `json:"timestamp"`
	// SystemInfo describes the producing system.
	SystemInfo SystemInfo `json:"system_info"`

	// Optional free-text context.
	IncidentSummary string   `json:"incident_summary,omitempty"`
	Tags            []string `json:"tags,omitempty"`
	Disclaimer      string   `json:"disclaimer,omitempty"`

	// BundleSHA256, when set, is the hex SHA-256 of the archive bytes.
	// The builder never sets it (the hash of an archive cannot be written
	// into that same archive); external tooling may inject it after the
	// fact and the verifier will check it.
	BundleSHA256 string `json:"bundle_sha256,omitempty"`
}

// Entry is one action-log record: a single line of aal.ndjson. Entries are
// written oldest-to-newest in the order they were appended.
//
// Input, Output and Metadata hold arbitrary nested JSON values; the format
// deliberately mandates no structure for them.
type Entry struct {
	// Timestamp is the action instant, RFC 3339 UTC.
	Timestamp string `json:"timestamp"`
	// Actor identifies the component that acted.
	Actor string `json:"actor"`
	// Action is a short verb or event name.
	Action string `json:"action"`

	Input    any `json:"input,omitempty"`
	Output   any `json:"output,omitempty"`
	Metadata any `json:"metadata,omitempty"`
}
