// SPDX-License-Identifier: MPL-2.0

// Package config loads and validates evb configuration.
//
// Settings come from three layers, later layers winning: built-in defaults,
// an optional config.toml in the platform config directory, and EVB_*
// environment variables.
package config
