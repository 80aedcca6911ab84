package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

// FallbackBaseURL is used when neither the environment nor the config file
// names a backend.
const FallbackBaseURL = "https://stockfeedai-server-283151671335.us-central1.run.app/"

// BaseURLEnv overrides api.base_url when set.
const BaseURLEnv = "STOCKFEED_API_BASE_URL"

type Config struct {
	API     API     `yaml:"api"`
	Feed    Feed    `yaml:"feed"`
	Stock   Stock   `yaml:"stock"`
	Symbols Symbols `yaml:"symbols"`
	Server  Server  `yaml:"server"`
	Logging Logging `yaml:"logging"`
}

type API struct {
	BaseURL        string `yaml:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

type Feed struct {
	DebounceMS int    `yaml:"debounce_ms"`
	TimeRange  string `yaml:"time_range"`
}

type Stock struct {
	Period string `yaml:"period"`
}

type Symbols struct {
	CacheSize int `yaml:"cache_size"`
}

type Server struct {
	Port           int  `yaml:"port"`
	ArticlePages   bool `yaml:"article_pages"`
	ExtractContent bool `yaml:"extract_content"`
}

type Logging struct {
	Level string `yaml:"level"`
}

// BaseURLSource tells where the effective backend URL came from.
type BaseURLSource string

const (
	SourceEnv      BaseURLSource = "env"
	SourceConfig   BaseURLSource = "config"
	SourceFallback BaseURLSource = "fallback"
)

// ConfigDir returns the XDG config directory for stockfeed.
func ConfigDir() string {
	return filepath.Join(homeDir(), ".config", "stockfeed")
}

// ResolveConfigPath finds the config file following priority:
// explicit path > ~/.config/stockfeed/config.yaml > ./config.yaml.
// An empty path with a nil error means no file exists and defaults apply.
func ResolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	xdgConfig := filepath.Join(ConfigDir(), "config.yaml")
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig, nil
	}

	cwdConfig := "config.yaml"
	if _, err := os.Stat(cwdConfig); err == nil {
		return cwdConfig, nil
	}

	return "", nil
}

// Load reads and parses a config YAML file. An empty path yields defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return parse(nil)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return parse(data)
}

// parse parses YAML bytes into a Config, applying defaults.
func parse(data []byte) (*Config, error) {
	cfg := &Config{
		API:     API{TimeoutSeconds: 30},
		Feed:    Feed{DebounceMS: 300, TimeRange: "24h"},
		Stock:   Stock{Period: "5d"},
		Symbols: Symbols{CacheSize: 128},
		Server:  Server{Port: 8000, ExtractContent: true},
		Logging: Logging{Level: "INFO"},
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// ResolveBaseURL returns the backend URL: environment first, then the
// config file, then the hardcoded fallback.
func (c *Config) ResolveBaseURL() (string, BaseURLSource) {
	if v := strings.TrimSpace(os.Getenv(BaseURLEnv)); v != "" {
		return v, SourceEnv
	}
	if v := strings.TrimSpace(c.API.BaseURL); v != "" {
		return v, SourceConfig
	}
	return FallbackBaseURL, SourceFallback
}

// Timeout returns the HTTP client timeout. Zero disables it.
func (c *Config) Timeout() time.Duration {
	if c.API.TimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(c.API.TimeoutSeconds) * time.Second
}

// Debounce returns the quiet period applied to filter edits.
func (c *Config) Debounce() time.Duration {
	if c.Feed.DebounceMS <= 0 {
		return 300 * time.Millisecond
	}
	return time.Duration(c.Feed.DebounceMS) * time.Millisecond
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
