// Package config loads and validates easel.yml, the per-replica session
// configuration.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// EaselConfig represents the top-level easel.yml configuration.
type EaselConfig struct {
	Version string        `yaml:"version"`
	Session string        `yaml:"session"`
	Redis   RedisConfig   `yaml:"redis,omitempty"`
	Sync    SyncConfig    `yaml:"sync,omitempty"`
	Canvas  CanvasConfig  `yaml:"canvas,omitempty"`
	Texture TextureConfig `yaml:"textures,omitempty"`
}

// RedisConfig specifies the Redis server backing the replicated document.
type RedisConfig struct {
	Addr     string `yaml:"addr,omitempty"`
	Password string `yaml:"password,omitempty"`
	DB       int    `yaml:"db,omitempty"`
}

// SyncConfig specifies sync engine behavior.
type SyncConfig struct {
	DebounceMs *int `yaml:"debounce_ms,omitempty"` // Trailing debounce for in-progress gestures (default 300)
}

// CanvasConfig specifies the local default canvas settings, used only when
// the replicated document has none yet.
type CanvasConfig struct {
	Width  int    `yaml:"width,omitempty"`
	Height int    `yaml:"height,omitempty"`
	Preset string `yaml:"preset,omitempty"`
}

// TextureConfig specifies where pattern textures are resolved from.
type TextureConfig struct {
	Dir string `yaml:"dir,omitempty"`
}

// Validate performs strict validation on the configuration and applies
// defaults for optional fields.
func (c *EaselConfig) Validate() error {
	// Required: version
	if c.Version != "1.0" {
		return fmt.Errorf("unsupported version: %s (expected: 1.0)", c.Version)
	}

	// Required: session name
	if c.Session == "" {
		return fmt.Errorf("no session name defined")
	}

	if c.Redis.Addr == "" {
		c.Redis.Addr = "localhost:6379"
	}

	if c.Sync.DebounceMs == nil {
		defaultDebounce := 300
		c.Sync.DebounceMs = &defaultDebounce
	}
	if *c.Sync.DebounceMs < 0 {
		return fmt.Errorf("sync.debounce_ms must be >= 0, got %d", *c.Sync.DebounceMs)
	}

	if c.Canvas.Width < 0 || c.Canvas.Height < 0 {
		return fmt.Errorf("canvas dimensions must be >= 0, got %dx%d", c.Canvas.Width, c.Canvas.Height)
	}
	if c.Canvas.Width == 0 {
		c.Canvas.Width = 800
	}
	if c.Canvas.Height == 0 {
		c.Canvas.Height = 600
	}
	if c.Canvas.Preset == "" {
		c.Canvas.Preset = "default"
	}

	return nil
}

// Debounce returns the configured debounce window as a duration.
func (c *EaselConfig) Debounce() time.Duration {
	if c.Sync.DebounceMs == nil {
		return 300 * time.Millisecond
	}
	return time.Duration(*c.Sync.DebounceMs) * time.Millisecond
}

// Load reads and validates easel.yml from the specified path.
func Load(path string) (*EaselConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var config EaselConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}
