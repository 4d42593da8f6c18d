package shared

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Environment variables that override the API base URL, checked in order.
var baseURLEnv = []string{"RESONANCE_BASE_API_URL", "BASE_API_URL"}

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	API      APIConfig      `toml:"api"`
	Feed     FeedConfig     `toml:"feed"`
	Preview  PreviewConfig  `toml:"preview"`
	Search   SearchConfig   `toml:"search"`
	Auth     AuthConfig     `toml:"auth"`
	Database DatabaseConfig `toml:"database"`
	Logging  LoggingConfig  `toml:"logging"`
}

// APIConfig contains settings for the remote Resonance API.
type APIConfig struct {
	BaseURL        string  `toml:"base_url"`
	TimeoutSeconds int     `toml:"timeout_seconds"`
	RateLimit      float64 `toml:"rate_limit"` // requests per second, 0 disables pacing
}

// Timeout returns the HTTP client timeout.
func (c APIConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// FeedConfig contains the discovery feed tuning knobs.
type FeedConfig struct {
	PageSize            int     `toml:"page_size"`
	PrefetchDistance    int     `toml:"prefetch_distance"`
	GuestPromptIndex    int     `toml:"guest_prompt_index"`
	GuestMaxIndex       int     `toml:"guest_max_index"`
	ClampGuestScroll    bool    `toml:"clamp_guest_scroll"`
	VisibilityThreshold float64 `toml:"visibility_threshold"`
}

// PreviewConfig contains the external audio player settings used for previews.
type PreviewConfig struct {
	Command         string   `toml:"command"`
	Args            []string `toml:"args"`
	StartFlag       string   `toml:"start_flag"`
	Volume          float64  `toml:"volume"`
	DurationSeconds int      `toml:"duration_seconds"`
}

// SearchConfig contains search input settings.
type SearchConfig struct {
	DebounceMS     int `toml:"debounce_ms"`
	MinQueryLength int `toml:"min_query_length"`
	PageSize       int `toml:"page_size"`
}

// Debounce returns the debounce delay.
func (c SearchConfig) Debounce() time.Duration {
	return time.Duration(c.DebounceMS) * time.Millisecond
}

// AuthConfig contains settings for the OAuth callback and session polling.
type AuthConfig struct {
	OAuthPath           string `toml:"oauth_path"`
	CallbackHost        string `toml:"callback_host"`
	CallbackPort        int    `toml:"callback_port"`
	PollIntervalSeconds int    `toml:"poll_interval_seconds"`
}

// CallbackURL returns the redirect URI handed to the OAuth flow.
func (c AuthConfig) CallbackURL() string {
	return fmt.Sprintf("http://%s:%d/callback", c.CallbackHost, c.CallbackPort)
}

// PollInterval returns the session polling interval.
func (c AuthConfig) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSeconds) * time.Second
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// LoggingConfig contains log destination settings for the TUI.
type LoggingConfig struct {
	File  string `toml:"file"`
	Level string `toml:"level"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Values missing from the file keep their defaults from the embedded example config.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
	}

	config.applyEnv()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	config.applyEnv()
	return &config
}

// Validate checks values the feed and search logic depend on.
func (c *Config) Validate() error {
	switch {
	case c.API.BaseURL == "":
		return fmt.Errorf("%w: api.base_url is empty", ErrInvalidConfig)
	case c.Feed.PageSize <= 0:
		return fmt.Errorf("%w: feed.page_size must be positive", ErrInvalidConfig)
	case c.Feed.VisibilityThreshold <= 0 || c.Feed.VisibilityThreshold > 1:
		return fmt.Errorf("%w: feed.visibility_threshold must be in (0, 1]", ErrInvalidConfig)
	case c.Preview.Volume < 0 || c.Preview.Volume > 1:
		return fmt.Errorf("%w: preview.volume must be in [0, 1]", ErrInvalidConfig)
	case c.Search.MinQueryLength < 1:
		return fmt.Errorf("%w: search.min_query_length must be at least 1", ErrInvalidConfig)
	}
	return nil
}

func (c *Config) applyEnv() {
	for _, key := range baseURLEnv {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			c.API.BaseURL = v
			return
		}
	}
}

// SaveConfig writes the configuration to path as TOML.
func SaveConfig(path string, config *Config) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
