package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// isolate points HOME at an empty directory so no real config file is read.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Source != SourceWiki {
		t.Errorf("source: got %q, want %q", cfg.Source, SourceWiki)
	}
	if cfg.WikiBaseURL != "https://en.wikipedia.org/wiki/" {
		t.Errorf("base url: got %q", cfg.WikiBaseURL)
	}
	if cfg.Limit != 25 {
		t.Errorf("limit: got %d, want 25", cfg.Limit)
	}
	if cfg.RequestTimeout != 15*time.Second {
		t.Errorf("request timeout: got %v", cfg.RequestTimeout)
	}
	if cfg.CacheDir != "" {
		t.Errorf("cache should be disabled by default, got %q", cfg.CacheDir)
	}
}

func TestLoad_File(t *testing.T) {
	isolate(t)
	path := writeConfig(t, `
source = "mark"
mark_host = "docs.example:6309"
limit = 10
workers = 4
request_timeout = "3s"
rate = 2.5
cache_dir = "/tmp/wr-cache"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Source != SourceMark || cfg.MarkHost != "docs.example:6309" {
		t.Errorf("source/host: got %q %q", cfg.Source, cfg.MarkHost)
	}
	if cfg.Limit != 10 || cfg.Workers != 4 {
		t.Errorf("limit/workers: got %d %d", cfg.Limit, cfg.Workers)
	}
	if cfg.RequestTimeout != 3*time.Second {
		t.Errorf("request timeout: got %v", cfg.RequestTimeout)
	}
	if cfg.Rate != 2.5 {
		t.Errorf("rate: got %v", cfg.Rate)
	}
	if cfg.CacheDir != "/tmp/wr-cache" {
		t.Errorf("cache dir: got %q", cfg.CacheDir)
	}
	// Unset keys keep their defaults.
	if cfg.LinkPrefix != "/wiki/" {
		t.Errorf("link prefix: got %q", cfg.LinkPrefix)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	isolate(t)
	path := writeConfig(t, "limit = 10\nlog_level = \"info\"\n")
	t.Setenv("WIKIRACE_LIMIT", "-1")
	t.Setenv("WIKIRACE_LOG_LEVEL", "debug")
	t.Setenv("WIKIRACE_RESOLVE_TIMEOUT", "750ms")
	t.Setenv("WIKIRACE_INSECURE", "true")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Limit != -1 {
		t.Errorf("limit: got %d, want -1", cfg.Limit)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("log level: got %q", cfg.LogLevel)
	}
	if cfg.ResolveTimeout != 750*time.Millisecond {
		t.Errorf("resolve timeout: got %v", cfg.ResolveTimeout)
	}
	if !cfg.Insecure {
		t.Error("insecure: got false, want true")
	}
}

func TestLoad_InvalidEnvKeepsValue(t *testing.T) {
	isolate(t)
	t.Setenv("WIKIRACE_WORKERS", "many")
	t.Setenv("WIKIRACE_RATE", "fast")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Workers != 0 || cfg.Rate != 10 {
		t.Errorf("workers/rate: got %d %v, want defaults", cfg.Workers, cfg.Rate)
	}
}

func TestLoad_DefaultPathFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	dir := filepath.Join(home, ".wikirace")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte("limit = 7\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Limit != 7 {
		t.Errorf("limit: got %d, want 7", cfg.Limit)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		env     map[string]string
		wantErr string
	}{
		{name: "malformed toml", content: "limit = = 3", wantErr: "parse config file"},
		{name: "unknown source", content: `source = "gopher"`, wantErr: "unknown source"},
		{name: "mark without host", content: `source = "mark"`, wantErr: "requires a host"},
		{name: "negative workers", env: map[string]string{"WIKIRACE_WORKERS": "-2"}, wantErr: "workers"},
		{name: "bad log level", env: map[string]string{"WIKIRACE_LOG_LEVEL": "loud"}, wantErr: "log level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			path := writeConfig(t, tt.content)

			_, err := Load(path)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	isolate(t)
	if _, err := Load(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Fatal("expected error for missing explicit config file")
	}
}
