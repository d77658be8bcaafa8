package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultURL is the status endpoint polled when nothing else is configured.
const DefaultURL = "https://zuul.openstack.org/status.json"

const (
	defaultRefreshSeconds = 30
	defaultTickSeconds    = 1
)

// Config represents the complete watcher configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Watch   WatchConfig   `yaml:"watch"`
	Refresh RefreshConfig `yaml:"refresh"`
	UI      UIConfig      `yaml:"ui"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig identifies the remote status endpoint.
type ServerConfig struct {
	URL string `yaml:"url"`
}

// WatchConfig selects which pipelines are shown. An empty list shows all.
// Matching against pipeline names is case-insensitive.
type WatchConfig struct {
	Pipelines []string `yaml:"pipelines"`
}

// RefreshConfig controls the fetch cadence: how stale a snapshot may get
// before the next fetch is armed, and how often the scheduler wakes up.
type RefreshConfig struct {
	IntervalSeconds int `yaml:"interval_seconds"`
	TickSeconds     int `yaml:"tick_seconds"`
}

// UIConfig selects the rendering surface.
type UIConfig struct {
	Mode string `yaml:"mode"` // "tview" or "headless"
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	File string `yaml:"file"`
}

// Default returns a normalized configuration with all defaults applied.
func Default() *Config {
	cfg := &Config{}
	cfg.Normalize()
	return cfg
}

// Load loads configuration from a YAML file and applies defaults.
func Load(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize applies defaults and canonicalizes user-supplied values. It is
// called again after CLI flag overrides are merged in.
func (c *Config) Normalize() {
	if strings.TrimSpace(c.Server.URL) == "" {
		c.Server.URL = DefaultURL
	}
	if c.Refresh.IntervalSeconds <= 0 {
		c.Refresh.IntervalSeconds = defaultRefreshSeconds
	}
	if c.Refresh.TickSeconds <= 0 {
		c.Refresh.TickSeconds = defaultTickSeconds
	}
	if strings.TrimSpace(c.UI.Mode) == "" {
		c.UI.Mode = "tview"
	}
	c.UI.Mode = strings.ToLower(strings.TrimSpace(c.UI.Mode))

	// Filter terms are matched case-insensitively; normalize once here so the
	// reconciler never has to lower-case the list again.
	pipelines := c.Watch.Pipelines[:0]
	for _, name := range c.Watch.Pipelines {
		name = strings.ToLower(strings.TrimSpace(name))
		if name != "" {
			pipelines = append(pipelines, name)
		}
	}
	c.Watch.Pipelines = pipelines
}

// Validate rejects configurations the watcher cannot run with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Server.URL) == "" {
		return fmt.Errorf("server.url must not be empty")
	}
	if c.Refresh.IntervalSeconds <= 0 {
		return fmt.Errorf("refresh.interval_seconds must be positive, got %d", c.Refresh.IntervalSeconds)
	}
	if c.Refresh.TickSeconds <= 0 {
		return fmt.Errorf("refresh.tick_seconds must be positive, got %d", c.Refresh.TickSeconds)
	}
	switch c.UI.Mode {
	case "tview", "headless":
	default:
		return fmt.Errorf("ui.mode must be tview or headless, got %q", c.UI.Mode)
	}
	return nil
}

// Print displays the configuration.
func (c *Config) Print() {
	fmt.Printf("Server: %s\n", c.Server.URL)
	if len(c.Watch.Pipelines) > 0 {
		fmt.Printf("Pipelines: %s\n", strings.Join(c.Watch.Pipelines, ", "))
	} else {
		fmt.Printf("Pipelines: all\n")
	}
	fmt.Printf("Refresh: every %ds (tick %ds)\n", c.Refresh.IntervalSeconds, c.Refresh.TickSeconds)
	if c.Logging.File != "" {
		fmt.Printf("Log file: %s\n", c.Logging.File)
	}
}
