package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeTestYAML(t *testing.T, dir, filename, content string) string {
	t.Helper()
	path := filepath.Join(dir, filename)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write test yaml: %v", err)
	}
	return path
}

// --- Load tests ---

func TestLoad_FullConfig(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("TEST_IG_TOKEN", "tok-123")
	t.Setenv("TEST_IG_ACCOUNT", "17841400000000000")
	t.Setenv("TEST_RAPID_KEY", "rk-secret")

	writeTestYAML(t, dir, DefaultConfigFile, `
sources:
  graph:
    access_token_env: TEST_IG_TOKEN
    account_id_env: TEST_IG_ACCOUNT
    api_version: v19.0
    base_url: https://graph.example.test
  proxy:
    base_url: http://localhost:3001
  rapidapi:
    api_key_env: TEST_RAPID_KEY
    host: scraper.example.test
  feed:
    url_template: "https://rsshub.example.test/picuki/tag/{hashtag}"
  mock:
    delay: 500ms
cache:
  path: custom.db
  fresh_for: 10m
  retain_days: 3
http:
  timeout: 5s
server:
  addr: 127.0.0.1:9090
log:
  level: debug
  format: json
  redact:
    - "acct-\\d+"
`)

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	// Sources
	g := cfg.Sources.Graph
	if g.AccessToken != "tok-123" {
		t.Errorf("graph access_token = %q, want tok-123", g.AccessToken)
	}
	if g.AccountID != "17841400000000000" {
		t.Errorf("graph account_id = %q", g.AccountID)
	}
	if g.APIVersion != "v19.0" || g.BaseURL != "https://graph.example.test" {
		t.Errorf("graph = %+v", g)
	}
	if cfg.Sources.Proxy.BaseURL != "http://localhost:3001" {
		t.Errorf("proxy base_url = %q", cfg.Sources.Proxy.BaseURL)
	}
	if cfg.Sources.RapidAPI.APIKey != "rk-secret" {
		t.Errorf("rapidapi api_key = %q, want rk-secret", cfg.Sources.RapidAPI.APIKey)
	}
	if cfg.Sources.RapidAPI.Host != "scraper.example.test" {
		t.Errorf("rapidapi host = %q", cfg.Sources.RapidAPI.Host)
	}
	if !strings.Contains(cfg.Sources.Feed.URLTemplate, "{hashtag}") {
		t.Errorf("feed url_template = %q", cfg.Sources.Feed.URLTemplate)
	}
	if cfg.Sources.Mock.Delay.Duration != 500*time.Millisecond {
		t.Errorf("mock delay = %v, want 500ms", cfg.Sources.Mock.Delay.Duration)
	}

	// Cache
	if cfg.Cache.Path != "custom.db" {
		t.Errorf("cache path = %q, want custom.db", cfg.Cache.Path)
	}
	if cfg.Cache.FreshFor.Duration != 10*time.Minute {
		t.Errorf("fresh_for = %v, want 10m", cfg.Cache.FreshFor.Duration)
	}
	if cfg.Cache.RetainDays != 3 {
		t.Errorf("retain_days = %d, want 3", cfg.Cache.RetainDays)
	}

	// HTTP, server, log
	if cfg.HTTP.Timeout.Duration != 5*time.Second {
		t.Errorf("http timeout = %v, want 5s", cfg.HTTP.Timeout.Duration)
	}
	if cfg.Server.Addr != "127.0.0.1:9090" {
		t.Errorf("server addr = %q", cfg.Server.Addr)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
		t.Errorf("log = %+v", cfg.Log)
	}
	if len(cfg.Log.Redact) != 1 || cfg.Log.Redact[0] != `acct-\d+` {
		t.Errorf("log redact = %v", cfg.Log.Redact)
	}
}

func TestLoad_DefaultsApplied(t *testing.T) {
	dir := t.TempDir()
	writeTestYAML(t, dir, DefaultConfigFile, `
sources:
  mock: {}
`)

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Cache.Path != DefaultCachePath {
		t.Errorf("cache.path = %q, want %q", cfg.Cache.Path, DefaultCachePath)
	}
	if cfg.Cache.FreshFor.Duration != DefaultFreshFor {
		t.Errorf("fresh_for = %v, want %v", cfg.Cache.FreshFor.Duration, DefaultFreshFor)
	}
	if cfg.Cache.RetainDays != DefaultRetainDays {
		t.Errorf("retain_days = %d, want %d", cfg.Cache.RetainDays, DefaultRetainDays)
	}
	if cfg.HTTP.Timeout.Duration != DefaultHTTPTimeout {
		t.Errorf("http timeout = %v, want %v", cfg.HTTP.Timeout.Duration, DefaultHTTPTimeout)
	}
	if cfg.Server.Addr != DefaultServerAddr {
		t.Errorf("server addr = %q, want %q", cfg.Server.Addr, DefaultServerAddr)
	}
	if cfg.Log.Level != DefaultLogLevel || cfg.Log.Format != DefaultLogFormat {
		t.Errorf("log = %+v", cfg.Log)
	}
	if cfg.Sources.Graph.APIVersion != DefaultGraphVersion {
		t.Errorf("graph api_version = %q, want %q", cfg.Sources.Graph.APIVersion, DefaultGraphVersion)
	}
	if cfg.Sources.RapidAPI.Host != DefaultRapidAPIHost {
		t.Errorf("rapidapi host = %q, want %q", cfg.Sources.RapidAPI.Host, DefaultRapidAPIHost)
	}
	if cfg.Sources.Mock.Disabled {
		t.Error("mock should be enabled by default")
	}
}

func TestLoad_EmptyFile(t *testing.T) {
	dir := t.TempDir()
	writeTestYAML(t, dir, DefaultConfigFile, "")

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Cache.RetainDays != DefaultRetainDays {
		t.Errorf("retain_days = %d, want default", cfg.Cache.RetainDays)
	}
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "negative retain days",
			yaml: "cache:\n  retain_days: -1\n",
			want: "cache.retain_days",
		},
		{
			name: "negative fresh_for",
			yaml: "cache:\n  fresh_for: -5m\n",
			want: "cache.fresh_for",
		},
		{
			name: "negative timeout",
			yaml: "http:\n  timeout: -1s\n",
			want: "http.timeout",
		},
		{
			name: "negative mock delay",
			yaml: "sources:\n  mock:\n    delay: -1s\n",
			want: "sources.mock.delay",
		},
		{
			name: "feed template without placeholder",
			yaml: "sources:\n  feed:\n    url_template: https://example.test/feed\n",
			want: "url_template",
		},
		{
			name: "unknown log level",
			yaml: "log:\n  level: loud\n",
			want: "unknown level",
		},
		{
			name: "invalid redact pattern",
			yaml: "log:\n  redact: [\"[bad\"]\n",
			want: "log.redact",
		},
		{
			name: "unknown log format",
			yaml: "log:\n  format: xml\n",
			want: "unknown format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeTestYAML(t, dir, DefaultConfigFile, tt.yaml)

			_, err := Load(dir)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %q, want containing %q", err, tt.want)
			}
		})
	}
}

func TestLoad_InvalidDuration(t *testing.T) {
	dir := t.TempDir()
	writeTestYAML(t, dir, DefaultConfigFile, `
cache:
  fresh_for: soon
`)

	_, err := Load(dir)
	if err == nil {
		t.Fatal("expected error for invalid duration")
	}
	if want := "parse duration"; !strings.Contains(err.Error(), want) {
		t.Errorf("error = %q, want containing %q", err, want)
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := Load(t.TempDir())
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if want := "read config"; !strings.Contains(err.Error(), want) {
		t.Errorf("error = %q, want containing %q", err, want)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	writeTestYAML(t, dir, DefaultConfigFile, `{{{invalid`)

	_, err := Load(dir)
	if err == nil {
		t.Fatal("expected error for malformed yaml")
	}
	if want := "parse config"; !strings.Contains(err.Error(), want) {
		t.Errorf("error = %q, want containing %q", err, want)
	}
}

func TestLoad_EmptyDir(t *testing.T) {
	_, err := Load("")
	if err == nil {
		t.Fatal("expected error for empty dir")
	}
	if want := "config dir is required"; !strings.Contains(err.Error(), want) {
		t.Errorf("error = %q, want containing %q", err, want)
	}
}

func TestLoad_ProxyEnvOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("TS_TEST_PROXY", "http://proxy.example.test")

	writeTestYAML(t, dir, DefaultConfigFile, `
sources:
  proxy:
    base_url: http://localhost:3001
    base_url_env: TS_TEST_PROXY
`)

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Sources.Proxy.BaseURL != "http://proxy.example.test" {
		t.Errorf("proxy base_url = %q, want env override", cfg.Sources.Proxy.BaseURL)
	}
}

func TestLoad_EnvVarMissing(t *testing.T) {
	dir := t.TempDir()
	writeTestYAML(t, dir, DefaultConfigFile, `
sources:
  graph:
    access_token_env: NONEXISTENT_VAR_12345
  proxy:
    base_url: http://localhost:3001
    base_url_env: NONEXISTENT_VAR_67890
`)

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Sources.Graph.AccessToken != "" {
		t.Errorf("access_token = %q, want empty", cfg.Sources.Graph.AccessToken)
	}
	if cfg.Sources.Proxy.BaseURL != "http://localhost:3001" {
		t.Errorf("proxy base_url = %q, want file value kept", cfg.Sources.Proxy.BaseURL)
	}
}
