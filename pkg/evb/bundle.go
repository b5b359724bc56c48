// SPDX-License-Identifier: MPL-2.0

package evb

import (
	"archive/zip"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrDuplicatePath is returned when an attachment or anchor path is
	// registered twice within its prefix.
	ErrDuplicatePath = errors.New("duplicate path")

	// ErrNoMetadata is returned when a Bundle that was not created via New
	// is serialized. Metadata is guaranteed to exist once New has run, so
	// hitting this is a programming error, not a recoverable outcome.
	ErrNoMetadata = errors.New("bundle has no metadata")
)

// blob is a named payload destined for a reserved archive prefix.
// Insertion order is preserved through serialization.
type blob struct {
	path    string
	content []byte
}

// Bundle is an in-memory evidence bundle under construction. It is not safe
// for concurrent mutation; each Bundle is meant to be exclusively owned
// until serialized.
type Bundle struct {
	meta        Metadata
	events      []Entry
	attachments []blob
	anchors     []blob
	registered  map[string]struct{} // full archive paths, duplicate guard
}

// Option configures bundle creation.
type Option func(*Bundle)

// WithBundleID overrides the generated bundle id.
func WithBundleID(id string) Option {
	return func(b *Bundle) { b.meta.BundleID = id }
}

// WithTimestamp overrides the creation instant. Useful for deterministic
// output in tests; the value is normalized to UTC.
func WithTimestamp(t time.Time) Option {
	return func(b *Bundle) { b.meta.Timestamp = formatInstant(t) }
}

// WithIncidentSummary sets the optional free-text incident summary.
func WithIncidentSummary(summary string) Option {
	return func(b *Bundle) { b.meta.IncidentSummary = summary }
}

// WithTags sets the optional ordered tag list.
func WithTags(tags ...string) Option {
	return func(b *Bundle) { b.meta.Tags = tags }
}

// WithDisclaimer sets the optional free-text disclaimer.
func WithDisclaimer(disclaimer string) Option {
	return func(b *Bundle) { b.meta.Disclaimer = disclaimer }
}

// New creates a bundle with a fresh metadata record, an empty action log and
// no attachments. The bundle id defaults to "evb-" plus a random UUID and the
// creation timestamp to the current UTC instant; both can be overridden via
// options. The format version is fixed to FormatVersion.
func New(systemName, systemVersion, operator string, opts ...Option) *Bundle {
	b := &Bundle{
		meta: Metadata{
			BundleID:  "evb-" + uuid.NewString(),
			Version:   FormatVersion,
			Timestamp: formatInstant(time.Now()),
			SystemInfo: SystemInfo{
				Name:     systemName,
				Version:  systemVersion,
				Operator: operator,
			},
		},
		registered: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// EventOption configures a single action-log entry.
type EventOption func(*Entry)

// WithInput attaches an arbitrary JSON value describing the action's request.
func WithInput(v any) EventOption {
	return func(e *Entry) { e.Input = v }
}

// WithOutput attaches an arbitrary JSON value describing the action's result.
func WithOutput(v any) EventOption {
	return func(e *Entry) { e.Output = v }
}

// WithEventMetadata attaches an arbitrary JSON value with auxiliary context.
func WithEventMetadata(v any) EventOption {
	return func(e *Entry) { e.Metadata = v }
}

// WithEventTimestamp overrides the action instant (normalized to UTC).
func WithEventTimestamp(t time.Time) EventOption {
	return func(e *Entry) { e.Timestamp = formatInstant(t) }
}

// AddEvent appends one entry to the action log. The timestamp defaults to
// the current UTC instant. Call order is document order: the log is never
// re-sorted.
func (b *Bundle) AddEvent(actor, action string, opts ...EventOption) {
	e := Entry{
		Timestamp: formatInstant(time.Now()),
		Actor:     actor,
		Action:    action,
	}
	for _, opt := range opts {
		opt(&e)
	}
	b.events = append(b.events, e)
}

// AddAttachment registers a blob under attachments/. The path is relative to
// the prefix (e.g. "prompt.txt" becomes "attachments/prompt.txt") and must be
// unique; registering it twice returns ErrDuplicatePath.
func (b *Bundle) AddAttachment(path string, content []byte) error {
	full, err := b.register(AttachmentsPrefix, path)
	if err != nil {
		return err
	}
	b.attachments = append(b.attachments, blob{path: full, content: content})
	return nil
}

// AddAnchor registers a JSON proof blob under anchors/. Anchor contents are
// opaque in format v0.1. Paths follow the same uniqueness rule as attachments.
func (b *Bundle) AddAnchor(path string, content []byte) error {
	full, err := b.register(AnchorsPrefix, path)
	if err != nil {
		return err
	}
	b.anchors = append(b.anchors, blob{path: full, content: content})
	return nil
}

// register validates a prefix-relative path and claims its full archive path.
func (b *Bundle) register(prefix, path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("%s: path cannot be empty", strings.TrimSuffix(prefix, "/"))
	}
	// Accept both "prompt.txt" and "attachments/prompt.txt" spellings.
	full := strings.TrimPrefix(filepath.ToSlash(path), prefix)
	full = prefix + full
	if b.registered == nil {
		b.registered = make(map[string]struct{})
	}
	if _, exists := b.registered[full]; exists {
		return "", fmt.Errorf("%s already registered: %w", full, ErrDuplicatePath)
	}
	b.registered[full] = struct{}{}
	return full, nil
}

// Meta returns a copy of the bundle's metadata record.
func (b *Bundle) Meta() Metadata { return b.meta }

// Events returns the action log in append order.
func (b *Bundle) Events() []Entry { return b.events }

// Write serializes the bundle as a ZIP archive: meta.json as indented JSON,
// aal.ndjson with one compact object per line in append order, then every
// attachment and anchor verbatim under its prefix. The output is accepted
// as-is by a compliant verifier.
func (b *Bundle) Write(w io.Writer) error {
	if b.meta.BundleID == "" || b.meta.Version == "" {
		return ErrNoMetadata
	}

	zw := zip.NewWriter(w)

	metaBytes, err := json.MarshalIndent(b.meta, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", MetaFile, err)
	}
	if err := writeZipEntry(zw, MetaFile, metaBytes); err != nil {
		return err
	}

	var log strings.Builder
	for i, e := range b.events {
		line, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("failed to marshal %s entry %d: %w", LogFile, i+1, err)
		}
		log.Write(line)
		log.WriteByte('\n')
	}
	if err := writeZipEntry(zw, LogFile, []byte(log.String())); err != nil {
		return err
	}

	for _, a := range b.attachments {
		if err := writeZipEntry(zw, a.path, a.content); err != nil {
			return err
		}
	}
	for _, a := range b.anchors {
		if err := writeZipEntry(zw, a.path, a.content); err != nil {
			return err
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to finalize archive: %w", err)
	}
	return nil
}

// WriteFile serializes the bundle to a ZIP file at path, creating parent
// directories as needed.
func (b *Bundle) WriteFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create archive file: %w", err)
	}
	if err := b.Write(f); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close archive file: %w", err)
	}
	return nil
}

func writeZipEntry(zw *zip.Writer, name string, content []byte) error {
	entry, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("failed to create ZIP entry %s: %w", name, err)
	}
	if _, err := entry.Write(content); err != nil {
		return fmt.Errorf("failed to write ZIP entry %s: %w", name, err)
	}
	return nil
}

// formatInstant renders a time as RFC 3339 UTC with second precision,
// matching the "2006-01-02T15:04:05Z" shape the schemas document.
func formatInstant(t time.Time) string {
	return t.UTC().Truncate(time.Second).Format(time.RFC3339)
}
