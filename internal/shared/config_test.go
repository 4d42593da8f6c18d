package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfig(t *testing.T) {
	t.Setenv("RESONANCE_BASE_API_URL", "")
	t.Setenv("BASE_API_URL", "")

	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.API.BaseURL != "http://localhost:8080/api" {
			t.Errorf("expected base url http://localhost:8080/api, got %s", config.API.BaseURL)
		}
		if config.Feed.PageSize != 10 {
			t.Errorf("expected page size 10, got %d", config.Feed.PageSize)
		}
		if config.Feed.PrefetchDistance != 3 || config.Feed.GuestPromptIndex != 3 || config.Feed.GuestMaxIndex != 4 {
			t.Errorf("unexpected feed thresholds: %+v", config.Feed)
		}
		if config.Feed.ClampGuestScroll {
			t.Error("guest scroll clamp should be off by default")
		}
		if config.Feed.VisibilityThreshold != 0.6 {
			t.Errorf("expected visibility threshold 0.6, got %v", config.Feed.VisibilityThreshold)
		}
		if config.Preview.Volume != 0.25 {
			t.Errorf("expected preview volume 0.25, got %v", config.Preview.Volume)
		}
		if config.Search.Debounce() != 500*time.Millisecond {
			t.Errorf("expected 500ms debounce, got %v", config.Search.Debounce())
		}
		if config.Search.MinQueryLength != 4 {
			t.Errorf("expected min query length 4, got %d", config.Search.MinQueryLength)
		}
		if got := config.Auth.CallbackURL(); got != "http://localhost:3000/callback" {
			t.Errorf("unexpected callback url %s", got)
		}
		if err := config.Validate(); err != nil {
			t.Errorf("default config should validate: %v", err)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		if _, err := os.Stat(configPath); err != nil {
			t.Fatalf("config file should exist: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		if config.Database.Path != DefaultConfig().Database.Path {
			t.Errorf("created config database path doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")

		testConfig := `[api]
base_url = "https://resonance.example.com/api"

[feed]
page_size = 20
clamp_guest_scroll = true

[database]
path = "/custom/path.db"
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.API.BaseURL != "https://resonance.example.com/api" {
			t.Errorf("unexpected base url %s", config.API.BaseURL)
		}
		if config.Feed.PageSize != 20 || !config.Feed.ClampGuestScroll {
			t.Errorf("feed overrides not applied: %+v", config.Feed)
		}
		if config.Feed.GuestPromptIndex != 3 {
			t.Errorf("unset keys should keep defaults, got prompt index %d", config.Feed.GuestPromptIndex)
		}
		if config.Database.Path != "/custom/path.db" {
			t.Errorf("expected database path /custom/path.db, got %s", config.Database.Path)
		}
	})

	t.Run("LoadConfig invalid", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(configPath, []byte("[feed]\nvisibility_threshold = 1.5\n"), 0644); err != nil {
			t.Fatal(err)
		}

		if _, err := LoadConfig(configPath); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}

		if err := os.WriteFile(configPath, []byte("not = [toml"), 0644); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadConfig(configPath); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig for malformed file, got %v", err)
		}
	})

	t.Run("environment overrides base url", func(t *testing.T) {
		t.Setenv("BASE_API_URL", "http://fallback/api")
		if got := DefaultConfig().API.BaseURL; got != "http://fallback/api" {
			t.Errorf("expected BASE_API_URL override, got %s", got)
		}

		t.Setenv("RESONANCE_BASE_API_URL", "http://primary/api")
		if got := DefaultConfig().API.BaseURL; got != "http://primary/api" {
			t.Errorf("expected RESONANCE_BASE_API_URL to win, got %s", got)
		}
	})

	t.Run("SaveConfig", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "nested", "config.toml")
		config := DefaultConfig()
		config.Preview.Command = "ffplay"

		if err := SaveConfig(configPath, config); err != nil {
			t.Fatalf("failed to save config: %v", err)
		}

		loaded, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load saved config: %v", err)
		}
		if loaded.Preview.Command != "ffplay" {
			t.Errorf("expected saved preview command, got %s", loaded.Preview.Command)
		}
	})
}
