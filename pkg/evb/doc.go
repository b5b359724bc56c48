// SPDX-License-Identifier: MPL-2.0

// Package evb defines the Evidence Bundle v0.1 archive format and provides
// a builder for assembling bundles in memory and serializing them to ZIP.
//
// An evidence bundle records what an automated system did, when, and in what
// context, so a third party can audit the record later. Physically it is a
// ZIP archive with two required top-level entries and two reserved prefixes:
//
//   - meta.json      — a single JSON object describing the bundle
//   - aal.ndjson     — the action log, one JSON object per non-blank line
//   - attachments/*  — optional arbitrary files
//   - anchors/*      — optional JSON proof artifacts (opaque in v0.1)
//
// The builder is the mechanical inverse of the verifier in pkg/verify: a
// bundle assembled with New/AddEvent and serialized with Write is accepted
// by the verifier without warnings beyond the optional anchor/signature ones.
package evb
