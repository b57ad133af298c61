package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ppiankov/tagscout/internal/privacy"
	"gopkg.in/yaml.v3"
)

const (
	DefaultConfigFile     = "config.yaml"
	DefaultCachePath      = ".tagscout/tagscout.db"
	DefaultFreshFor       = 30 * time.Minute
	DefaultRetainDays     = 7
	DefaultHTTPTimeout    = 30 * time.Second
	DefaultServerAddr     = ":8080"
	DefaultLogLevel       = "info"
	DefaultLogFormat      = "text"
	DefaultGraphVersion   = "v18.0"
	DefaultRapidAPIHost   = "instagram-scraper-api2.p.rapidapi.com"
	placeholderHashtagKey = "{hashtag}"
)

// Duration wraps time.Duration for YAML unmarshaling from strings like "30m".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}

type Config struct {
	Sources SourcesConfig `yaml:"sources"`
	Cache   CacheConfig   `yaml:"cache"`
	HTTP    HTTPConfig    `yaml:"http"`
	Server  ServerConfig  `yaml:"server"`
	Log     LogConfig     `yaml:"log"`
}

// SourcesConfig lists every upstream. Sources are always consulted in the
// order graph, proxy, rapidapi, feed, mock; unconfigured ones are skipped.
type SourcesConfig struct {
	Graph    GraphConfig    `yaml:"graph"`
	Proxy    ProxyConfig    `yaml:"proxy"`
	RapidAPI RapidAPIConfig `yaml:"rapidapi"`
	Feed     FeedConfig     `yaml:"feed"`
	Mock     MockConfig     `yaml:"mock"`
}

type GraphConfig struct {
	AccessTokenEnv string `yaml:"access_token_env"`
	AccountIDEnv   string `yaml:"account_id_env"`
	APIVersion     string `yaml:"api_version"`
	BaseURL        string `yaml:"base_url"`

	// Resolved from env vars at load time.
	AccessToken string `yaml:"-"`
	AccountID   string `yaml:"-"`
}

type ProxyConfig struct {
	BaseURL    string `yaml:"base_url"`
	BaseURLEnv string `yaml:"base_url_env"` // overrides base_url when set and non-empty
}

type RapidAPIConfig struct {
	APIKeyEnv string `yaml:"api_key_env"`
	Host      string `yaml:"host"`

	// Resolved from env var at load time.
	APIKey string `yaml:"-"`
}

type FeedConfig struct {
	URLTemplate string `yaml:"url_template"`
}

type MockConfig struct {
	Disabled bool     `yaml:"disabled"`
	Delay    Duration `yaml:"delay"`
}

type CacheConfig struct {
	Path       string   `yaml:"path"`
	FreshFor   Duration `yaml:"fresh_for"`
	RetainDays int      `yaml:"retain_days"`
}

type HTTPConfig struct {
	Timeout Duration `yaml:"timeout"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type LogConfig struct {
	Level  string   `yaml:"level"`
	Format string   `yaml:"format"`
	Redact []string `yaml:"redact"` // extra regexps masked in log output
}

// Load reads config.yaml from dir, applies defaults, resolves env vars, and validates.
func Load(dir string) (*Config, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("config dir is required")
	}

	path := filepath.Join(dir, DefaultConfigFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyDefaults(&cfg)
	resolveEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Cache.Path == "" {
		cfg.Cache.Path = DefaultCachePath
	}
	if cfg.Cache.FreshFor.Duration == 0 {
		cfg.Cache.FreshFor.Duration = DefaultFreshFor
	}
	if cfg.Cache.RetainDays == 0 {
		cfg.Cache.RetainDays = DefaultRetainDays
	}
	if cfg.HTTP.Timeout.Duration == 0 {
		cfg.HTTP.Timeout.Duration = DefaultHTTPTimeout
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = DefaultServerAddr
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}
	if cfg.Sources.Graph.APIVersion == "" {
		cfg.Sources.Graph.APIVersion = DefaultGraphVersion
	}
	if cfg.Sources.RapidAPI.Host == "" {
		cfg.Sources.RapidAPI.Host = DefaultRapidAPIHost
	}
}

func resolveEnv(cfg *Config) {
	if cfg.Sources.Graph.AccessTokenEnv != "" {
		cfg.Sources.Graph.AccessToken = os.Getenv(cfg.Sources.Graph.AccessTokenEnv)
	}
	if cfg.Sources.Graph.AccountIDEnv != "" {
		cfg.Sources.Graph.AccountID = os.Getenv(cfg.Sources.Graph.AccountIDEnv)
	}
	if cfg.Sources.Proxy.BaseURLEnv != "" {
		if v := os.Getenv(cfg.Sources.Proxy.BaseURLEnv); v != "" {
			cfg.Sources.Proxy.BaseURL = v
		}
	}
	if cfg.Sources.RapidAPI.APIKeyEnv != "" {
		cfg.Sources.RapidAPI.APIKey = os.Getenv(cfg.Sources.RapidAPI.APIKeyEnv)
	}
}

func validate(cfg *Config) error {
	if cfg.Cache.FreshFor.Duration < 0 {
		return fmt.Errorf("cache.fresh_for: must be positive, got %s", cfg.Cache.FreshFor)
	}
	if cfg.Cache.RetainDays < 0 {
		return fmt.Errorf("cache.retain_days: must not be negative, got %d", cfg.Cache.RetainDays)
	}
	if cfg.HTTP.Timeout.Duration < 0 {
		return fmt.Errorf("http.timeout: must be positive, got %s", cfg.HTTP.Timeout)
	}
	if cfg.Sources.Mock.Delay.Duration < 0 {
		return fmt.Errorf("sources.mock.delay: must not be negative, got %s", cfg.Sources.Mock.Delay)
	}

	if t := cfg.Sources.Feed.URLTemplate; t != "" && !strings.Contains(t, placeholderHashtagKey) {
		return fmt.Errorf("sources.feed.url_template: must contain %s", placeholderHashtagKey)
	}

	switch strings.ToLower(cfg.Log.Level) {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return fmt.Errorf("log.level: unknown level %q (want debug, info, warn or error)", cfg.Log.Level)
	}
	switch cfg.Log.Format {
	case "text", "json":
		// valid
	default:
		return fmt.Errorf("log.format: unknown format %q (want text or json)", cfg.Log.Format)
	}
	if _, err := privacy.Compile(cfg.Log.Redact); err != nil {
		return fmt.Errorf("log.redact: %w", err)
	}

	return nil
}
