// Package config resolves gateway settings from a TOML file layered under
// environment variables. Resolution happens once at process start; the
// resulting Settings value is never mutated afterwards.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

const (
	// DefaultMaxUploadBytes is the upload ceiling applied when neither the
	// config file nor the environment sets one.
	DefaultMaxUploadBytes = int64(10 << 20) // 10 MiB

	DefaultLogLevel = "info"

	// DefaultConfigPath is tried when no --config flag or MDGATE_CONFIG is
	// given. A missing file is not an error.
	DefaultConfigPath = "mdgate.toml"
)

// Settings is the immutable per-process configuration. Precedence per field:
// environment variable > config file value > built-in default.
type Settings struct {
	MaxUploadBytes int64
	EnablePlugins  bool
	LogLevel       string
	// APIKey empty means authentication is disabled.
	APIKey string
	// CORSOrigins empty means CORS stays disabled.
	CORSOrigins []string
	// MaxConcurrent bounds in-flight conversions; 0 means unlimited.
	MaxConcurrent int
}

// fileSettings mirrors the recognized mdgate.toml keys. Pointers distinguish
// "absent" from zero values so the file only overrides what it names.
type fileSettings struct {
	MaxUploadBytes *int64   `toml:"max_upload_bytes"`
	EnablePlugins  *bool    `toml:"enable_plugins"`
	LogLevel       *string  `toml:"log_level"`
	APIKey         *string  `toml:"api_key"`
	CORSOrigins    []string `toml:"cors_origins"`
	MaxConcurrent  *int     `toml:"max_concurrent"`
}

// ConfigPath decides which config file Resolve should read: the explicit
// flag value wins, then MDGATE_CONFIG, then ./mdgate.toml.
func ConfigPath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if env := os.Getenv("MDGATE_CONFIG"); env != "" {
		return env
	}
	return DefaultConfigPath
}

// Resolve builds Settings from the file at path (missing file applies
// defaults) with environment overrides on top. Any present value that fails
// to parse as its expected type is an error; the caller is expected to abort
// startup on it.
func Resolve(path string) (Settings, error) {
	s := Settings{
		MaxUploadBytes: DefaultMaxUploadBytes,
		LogLevel:       DefaultLogLevel,
	}

	var fs fileSettings
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, &fs); err != nil {
			return Settings{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
		// defaults apply
	default:
		return Settings{}, fmt.Errorf("read config file %s: %w", path, err)
	}

	if fs.MaxUploadBytes != nil {
		s.MaxUploadBytes = *fs.MaxUploadBytes
	}
	if fs.EnablePlugins != nil {
		s.EnablePlugins = *fs.EnablePlugins
	}
	if fs.LogLevel != nil {
		s.LogLevel = *fs.LogLevel
	}
	if fs.APIKey != nil {
		s.APIKey = strings.TrimSpace(*fs.APIKey)
	}
	if len(fs.CORSOrigins) > 0 {
		s.CORSOrigins = trimmed(fs.CORSOrigins)
	}
	if fs.MaxConcurrent != nil {
		s.MaxConcurrent = *fs.MaxConcurrent
	}

	if err := applyEnv(&s); err != nil {
		return Settings{}, err
	}

	if s.MaxUploadBytes <= 0 {
		return Settings{}, fmt.Errorf("max_upload_bytes must be positive, got %d", s.MaxUploadBytes)
	}
	if s.MaxConcurrent < 0 {
		return Settings{}, fmt.Errorf("max_concurrent must not be negative, got %d", s.MaxConcurrent)
	}
	return s, nil
}

func applyEnv(s *Settings) error {
	if v := os.Getenv("MDGATE_MAX_UPLOAD_BYTES"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid MDGATE_MAX_UPLOAD_BYTES %q: %w", v, err)
		}
		s.MaxUploadBytes = n
	}
	if v := os.Getenv("MDGATE_ENABLE_PLUGINS"); v != "" {
		b, err := parseBool(v)
		if err != nil {
			return fmt.Errorf("invalid MDGATE_ENABLE_PLUGINS %q: %w", v, err)
		}
		s.EnablePlugins = b
	}
	if v := os.Getenv("MDGATE_LOG_LEVEL"); v != "" {
		s.LogLevel = v
	}
	if v := os.Getenv("MDGATE_API_KEY"); v != "" {
		s.APIKey = strings.TrimSpace(v)
	}
	if v := os.Getenv("MDGATE_CORS_ORIGINS"); v != "" {
		s.CORSOrigins = trimmed(strings.Split(v, ","))
	}
	if v := os.Getenv("MDGATE_MAX_CONCURRENT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid MDGATE_MAX_CONCURRENT %q: %w", v, err)
		}
		s.MaxConcurrent = n
	}
	return nil
}

func parseBool(raw string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "t", "yes", "y", "on":
		return true, nil
	case "0", "false", "f", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("expected a boolean")
	}
}

func trimmed(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
