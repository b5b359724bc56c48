// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
)

const (
	// AppName is the application name, used for the config directory.
	AppName = "evb"
	// ConfigFileName is the config file name without extension.
	ConfigFileName = "config"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "toml"

	// ColorAuto lets the terminal decide, ColorAlways and ColorNever force it.
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// ErrInvalidColorMode is returned when output.color is not a recognized value.
var ErrInvalidColorMode = errors.New("invalid color mode")

// configDirOverride lets tests redirect config loading to a temp directory.
var configDirOverride string

// SetConfigDirOverride redirects ConfigDir for tests. Pass "" to reset.
func SetConfigDirOverride(dir string) { configDirOverride = dir }

// Config holds all evb settings.
type Config struct {
	Output OutputConfig `mapstructure:"output" toml:"output"`
	Verify VerifyConfig `mapstructure:"verify" toml:"verify"`
}

// OutputConfig controls CLI rendering.
type OutputConfig struct {
	// Color is one of "auto", "always", "never".
	Color string `mapstructure:"color" toml:"color"`
	// Verbose enables diagnostic logging.
	Verbose bool `mapstructure:"verbose" toml:"verbose"`
}

// VerifyConfig controls verification behavior and report rendering.
type VerifyConfig struct {
	// StrictVersion demotes an unsupported bundle format version from a
	// warning to a scoring error.
	StrictVersion bool `mapstructure:"strict_version" toml:"strict_version"`
	// MaxShownErrors caps the itemized errors printed per report; the
	// remainder is rolled up into one summary line. The Report itself is
	// never truncated.
	MaxShownErrors int `mapstructure:"max_shown_errors" toml:"max_shown_errors"`
	// MaxShownWarnings caps the itemized warnings printed per report.
	MaxShownWarnings int `mapstructure:"max_shown_warnings" toml:"max_shown_warnings"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Output: OutputConfig{
			Color:   ColorAuto,
			Verbose: false,
		},
		Verify: VerifyConfig{
			StrictVersion:    false,
			MaxShownErrors:   3,
			MaxShownWarnings: 5,
		},
	}
}

// ConfigDir returns the evb configuration directory using platform
// conventions: %APPDATA% on Windows, ~/Library/Application Support on macOS,
// and $XDG_CONFIG_HOME (defaulting to ~/.config) elsewhere.
//
//nolint:revive // ConfigDir is more descriptive than Dir for external callers
func ConfigDir() (string, error) {
	if configDirOverride != "" {
		return configDirOverride, nil
	}

	var configDir string
	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, "Library", "Application Support")
	default:
		configDir = os.Getenv("XDG_CONFIG_HOME")
		if configDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			configDir = filepath.Join(home, ".config")
		}
	}

	return filepath.Join(configDir, AppName), nil
}

// ConfigFilePath returns the full path of the config file, whether or not
// it exists.
func ConfigFilePath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ConfigFileName+"."+ConfigFileExt), nil
}

// Load reads configuration from defaults, the optional config file, and
// EVB_* environment variables. A missing config file is not an error.
func Load() (*Config, error) {
	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("output.color", defaults.Output.Color)
	v.SetDefault("output.verbose", defaults.Output.Verbose)
	v.SetDefault("verify.strict_version", defaults.Verify.StrictVersion)
	v.SetDefault("verify.max_shown_errors", defaults.Verify.MaxShownErrors)
	v.SetDefault("verify.max_shown_warnings", defaults.Verify.MaxShownWarnings)

	v.SetEnvPrefix("EVB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	dir, err := ConfigDir()
	if err != nil {
		return nil, err
	}
	v.SetConfigName(ConfigFileName)
	v.SetConfigType(ConfigFileExt)
	v.AddConfigPath(dir)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks enum fields and numeric ranges.
func (c *Config) Validate() error {
	switch c.Output.Color {
	case ColorAuto, ColorAlways, ColorNever:
	default:
		return fmt.Errorf("%w: %q (must be %q, %q or %q)",
			ErrInvalidColorMode, c.Output.Color, ColorAuto, ColorAlways, ColorNever)
	}
	if c.Verify.MaxShownErrors < 0 {
		return fmt.Errorf("verify.max_shown_errors must not be negative, got %d", c.Verify.MaxShownErrors)
	}
	if c.Verify.MaxShownWarnings < 0 {
		return fmt.Errorf("verify.max_shown_warnings must not be negative, got %d", c.Verify.MaxShownWarnings)
	}
	return nil
}

// WriteDefault writes the built-in defaults as TOML to the config file path,
// creating the config directory as needed. It refuses to overwrite an
// existing file and returns the written path.
func WriteDefault() (string, error) {
	path, err := ConfigFilePath()
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("config file already exists: %s", path)
	}

	data, err := toml.Marshal(DefaultConfig())
	if err != nil {
		return "", fmt.Errorf("failed to marshal default config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write config file: %w", err)
	}
	return path, nil
}

// Render returns the given config as TOML for display.
func Render(c *Config) (string, error) {
	data, err := toml.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("failed to render config: %w", err)
	}
	return string(data), nil
}
