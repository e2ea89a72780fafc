// Package config handles steamlink configuration from YAML files and
// STEAMLINK_* environment variables.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/hazyhaar/steamlink/idgen"
	"github.com/hazyhaar/steamlink/internal/guard"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "STEAMLINK_"

// Config is the top-level steamlink configuration.
type Config struct {
	Browser BrowserConfig `yaml:"browser" envPrefix:"BROWSER_"`
	Pages   []PageConfig  `yaml:"pages"`
	Monitor MonitorConfig `yaml:"monitor" envPrefix:"MONITOR_"`
	Trigger TriggerConfig `yaml:"trigger" envPrefix:"TRIGGER_"`
	Sinks   []SinkConfig  `yaml:"sinks"`
}

// BrowserConfig controls Chrome lifecycle.
type BrowserConfig struct {
	Remote           string        `yaml:"remote" env:"REMOTE"`
	MemoryLimit      int64         `yaml:"memory_limit" env:"MEMORY_LIMIT"`
	RecycleInterval  time.Duration `yaml:"recycle_interval" env:"RECYCLE_INTERVAL"`
	ResourceBlocking []string      `yaml:"resource_blocking" env:"RESOURCE_BLOCKING"`
	Stealth          string        `yaml:"stealth" env:"STEALTH"` // headless | headful
	XvfbDisplay      string        `yaml:"xvfb_display" env:"XVFB_DISPLAY"`
}

// PageConfig defines a page to open and watch.
type PageConfig struct {
	ID  string `yaml:"id"`
	URL string `yaml:"url"`
}

// MonitorConfig tunes the presence monitor attached to every page.
type MonitorConfig struct {
	PollInterval  time.Duration `yaml:"poll_interval" env:"POLL_INTERVAL"`
	PressDuration time.Duration `yaml:"press_duration" env:"PRESS_DURATION"`
	Selectors     []string      `yaml:"selectors" env:"SELECTORS" envSeparator:";"`
	Label         string        `yaml:"label" env:"LABEL"`
	Title         string        `yaml:"title" env:"TITLE"`
}

// TriggerConfig controls the direct trigger surfaces.
type TriggerConfig struct {
	Listen   string   `yaml:"listen" env:"LISTEN"`
	Launcher []string `yaml:"launcher" env:"LAUNCHER" envSeparator:" "` // command and leading args
}

// SinkConfig defines an output backend.
type SinkConfig struct {
	Type string `yaml:"type"` // stdout | callback
}

// Default returns a configuration with every default applied and no pages.
func Default() *Config {
	var cfg Config
	cfg.applyDefaults()
	return &cfg
}

// Load reads path when non-empty, then applies environment overrides and
// defaults, then validates.
func Load(path string) (*Config, error) {
	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("config: parse env: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports the first structural problem in the configuration.
func (c *Config) Validate() error {
	switch c.Browser.Stealth {
	case "headless", "headful":
	default:
		return fmt.Errorf("config: browser.stealth %q: want headless or headful", c.Browser.Stealth)
	}
	seen := make(map[string]bool, len(c.Pages))
	for i, p := range c.Pages {
		if p.URL == "" {
			return fmt.Errorf("config: pages[%d]: url is required", i)
		}
		if err := guard.PageURL(p.URL); err != nil {
			return fmt.Errorf("config: pages[%d]: %w", i, err)
		}
		if err := guard.Identifier(p.ID); err != nil {
			return fmt.Errorf("config: pages[%d]: %w", i, err)
		}
		if seen[p.ID] {
			return fmt.Errorf("config: pages[%d]: duplicate id %q", i, p.ID)
		}
		seen[p.ID] = true
	}
	for i, s := range c.Sinks {
		switch s.Type {
		case "stdout", "callback":
		default:
			return fmt.Errorf("config: sinks[%d]: unknown type %q", i, s.Type)
		}
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Browser.MemoryLimit <= 0 {
		c.Browser.MemoryLimit = 1 << 30
	}
	if c.Browser.RecycleInterval <= 0 {
		c.Browser.RecycleInterval = 4 * time.Hour
	}
	if c.Browser.XvfbDisplay == "" {
		c.Browser.XvfbDisplay = ":99"
	}
	if c.Browser.Stealth == "" {
		c.Browser.Stealth = "headless"
	}
	if c.Monitor.PollInterval <= 0 {
		c.Monitor.PollInterval = 500 * time.Millisecond
	}
	if c.Monitor.PressDuration <= 0 {
		c.Monitor.PressDuration = 300 * time.Millisecond
	}
	if c.Trigger.Listen == "" {
		c.Trigger.Listen = "127.0.0.1:8734"
	}
	if len(c.Sinks) == 0 {
		c.Sinks = []SinkConfig{{Type: "stdout"}}
	}
	for i := range c.Pages {
		if c.Pages[i].ID == "" {
			c.Pages[i].ID = idgen.PageID()
		}
	}
}
