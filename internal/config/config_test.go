package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mdgate.toml")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestResolveDefaults(t *testing.T) {
	s, err := Resolve(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if s.MaxUploadBytes != DefaultMaxUploadBytes {
		t.Fatalf("MaxUploadBytes=%d, want %d", s.MaxUploadBytes, DefaultMaxUploadBytes)
	}
	if s.EnablePlugins {
		t.Fatalf("expected plugins disabled by default")
	}
	if s.LogLevel != "info" {
		t.Fatalf("LogLevel=%q, want info", s.LogLevel)
	}
	if s.APIKey != "" {
		t.Fatalf("expected empty APIKey, got %q", s.APIKey)
	}
	if s.CORSOrigins != nil {
		t.Fatalf("expected no CORS origins, got %v", s.CORSOrigins)
	}
}

func TestResolveFileValues(t *testing.T) {
	path := writeConfig(t, `
max_upload_bytes = 1048576
enable_plugins = true
log_level = "debug"
api_key = "secret"
cors_origins = ["https://a.example", "https://b.example"]
max_concurrent = 4
`)
	s, err := Resolve(path)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if s.MaxUploadBytes != 1<<20 {
		t.Fatalf("MaxUploadBytes=%d, want %d", s.MaxUploadBytes, 1<<20)
	}
	if !s.EnablePlugins {
		t.Fatalf("expected plugins enabled")
	}
	if s.LogLevel != "debug" {
		t.Fatalf("LogLevel=%q, want debug", s.LogLevel)
	}
	if s.APIKey != "secret" {
		t.Fatalf("APIKey=%q, want secret", s.APIKey)
	}
	if len(s.CORSOrigins) != 2 || s.CORSOrigins[0] != "https://a.example" {
		t.Fatalf("CORSOrigins=%v", s.CORSOrigins)
	}
	if s.MaxConcurrent != 4 {
		t.Fatalf("MaxConcurrent=%d, want 4", s.MaxConcurrent)
	}
}

func TestResolveEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
max_upload_bytes = 1048576
enable_plugins = false
log_level = "warn"
api_key = "from-file"
`)
	t.Setenv("MDGATE_MAX_UPLOAD_BYTES", "2097152")
	t.Setenv("MDGATE_ENABLE_PLUGINS", "true")
	t.Setenv("MDGATE_LOG_LEVEL", "debug")
	t.Setenv("MDGATE_API_KEY", "from-env")
	t.Setenv("MDGATE_CORS_ORIGINS", "https://x.example, https://y.example")

	s, err := Resolve(path)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if s.MaxUploadBytes != 2<<20 {
		t.Fatalf("MaxUploadBytes=%d, want %d", s.MaxUploadBytes, 2<<20)
	}
	if !s.EnablePlugins {
		t.Fatalf("expected env to enable plugins")
	}
	if s.LogLevel != "debug" {
		t.Fatalf("LogLevel=%q, want debug", s.LogLevel)
	}
	if s.APIKey != "from-env" {
		t.Fatalf("APIKey=%q, want from-env", s.APIKey)
	}
	if len(s.CORSOrigins) != 2 || s.CORSOrigins[1] != "https://y.example" {
		t.Fatalf("CORSOrigins=%v", s.CORSOrigins)
	}
}

func TestResolveRejectsBadValues(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
		file string
	}{
		{
			name: "non-numeric size env",
			env:  map[string]string{"MDGATE_MAX_UPLOAD_BYTES": "ten megabytes"},
		},
		{
			name: "non-boolean plugins env",
			env:  map[string]string{"MDGATE_ENABLE_PLUGINS": "maybe"},
		},
		{
			name: "non-numeric size file",
			file: `max_upload_bytes = "big"`,
		},
		{
			name: "zero ceiling",
			env:  map[string]string{"MDGATE_MAX_UPLOAD_BYTES": "0"},
		},
		{
			name: "negative concurrency",
			env:  map[string]string{"MDGATE_MAX_CONCURRENT": "-1"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "missing.toml")
			if tc.file != "" {
				path = writeConfig(t, tc.file)
			}
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			if _, err := Resolve(path); err == nil {
				t.Fatalf("expected resolve to fail")
			}
		})
	}
}

func TestConfigPathPrecedence(t *testing.T) {
	t.Setenv("MDGATE_CONFIG", "/etc/mdgate.toml")
	if got := ConfigPath("explicit.toml"); got != "explicit.toml" {
		t.Fatalf("flag should win, got %q", got)
	}
	if got := ConfigPath(""); got != "/etc/mdgate.toml" {
		t.Fatalf("env should win over default, got %q", got)
	}
	t.Setenv("MDGATE_CONFIG", "")
	if got := ConfigPath(""); got != DefaultConfigPath {
		t.Fatalf("expected default path, got %q", got)
	}
}

func TestResolveTrimsAPIKey(t *testing.T) {
	t.Setenv("MDGATE_API_KEY", "  spaced  ")
	s, err := Resolve(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if s.APIKey != "spaced" {
		t.Fatalf("APIKey=%q, want trimmed value", s.APIKey)
	}
	if strings.Contains(s.APIKey, " ") {
		t.Fatalf("APIKey still contains whitespace: %q", s.APIKey)
	}
}
