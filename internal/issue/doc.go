// SPDX-License-Identifier: MPL-2.0

// Package issue provides actionable error handling with user-friendly messages.
//
// It defines the catalog of fatal CLI conditions with Markdown-formatted
// remediation guidance, rendered in the terminal when verification cannot
// even start (the bundle file is missing or is not a readable archive).
package issue
