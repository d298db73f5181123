// Package config handles the persisted settings file shared with external
// frontends. The file keeps the historical key names so existing config.json
// files keep working.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Upload delay bounds in seconds.
const (
	MinUploadDelay = 0
	MaxUploadDelay = 30
)

// DefaultUploadDelay is used when no config file exists yet.
const DefaultUploadDelay = 2

// Config holds all persisted settings.
type Config struct {
	WatchDirectory    string `json:"watch_directory"`
	WebhookURL        string `json:"webhook_url"`
	UploadDelay       int    `json:"upload_delay"` // seconds
	DeleteAfterUpload bool   `json:"delete_after_upload"`
	MinimizeOnExit    bool   `json:"minimize_on_exit"`
	StartOnStartup    bool   `json:"start_on_startup"`
	WebhookHidden     bool   `json:"webhook_hidden"`
	MonitoringActive  bool   `json:"monitoring_active"`
}

// Default returns the settings used before any config file is written.
func Default() *Config {
	return &Config{
		UploadDelay: DefaultUploadDelay,
	}
}

// DefaultPath returns the default config file location,
// e.g. ~/.config/shotrelay/config.json.
func DefaultPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("get user config directory: %w", err)
	}
	return filepath.Join(configDir, "shotrelay", "config.json"), nil
}

// Load reads the config file at path. A missing file is not an error;
// defaults are returned so a fresh install works without setup.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config file %s: %w", path, err)
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}
	cfg.UploadDelay = ClampDelay(cfg.UploadDelay)
	return cfg, nil
}

// Save writes the config to path, creating parent directories as needed.
func Save(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file %s: %w", path, err)
	}
	return nil
}

// ClampDelay bounds an upload delay to the supported range.
func ClampDelay(seconds int) int {
	if seconds < MinUploadDelay {
		return MinUploadDelay
	}
	if seconds > MaxUploadDelay {
		return MaxUploadDelay
	}
	return seconds
}
