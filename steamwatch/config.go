package steamwatch

import (
	"github.com/hazyhaar/steamlink/internal/config"
)

// Config is the top-level steamlink configuration. Re-exported from internal.
type Config = config.Config

// BrowserConfig controls Chrome lifecycle.
type BrowserConfig = config.BrowserConfig

// PageConfig defines a page to watch.
type PageConfig = config.PageConfig

// MonitorConfig tunes the presence monitor.
type MonitorConfig = config.MonitorConfig

// LoadConfig reads an optional YAML file, then STEAMLINK_* overrides.
func LoadConfig(path string) (*Config, error) {
	return config.Load(path)
}
