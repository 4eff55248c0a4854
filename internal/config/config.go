package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/ini.v1"
)

// Config holds everything proptag reads from its ini file.
type Config struct {
	CatalogURL    string
	Provider      string
	ProviderLabel string

	LibraryPath string

	MatchWorkers int

	LogLevel  string
	LogFormat string
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		Provider:     "steam",
		LibraryPath:  filepath.Join(home, ".proptag", "library.db"),
		MatchWorkers: 8,
		LogLevel:     "info",
		LogFormat:    "console",
	}
}

// Load reads an ini config file, filling unset keys with defaults.
func Load(path string) (*Config, error) {
	c := Default()
	if path == "" {
		return c, nil
	}

	cfg, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}

	catalog := cfg.Section("catalog")
	if v := catalog.Key("url").String(); v != "" {
		c.CatalogURL = v
	}
	if v := catalog.Key("provider").String(); v != "" {
		c.Provider = v
	}
	if v := catalog.Key("label").String(); v != "" {
		c.ProviderLabel = v
	}

	lib := cfg.Section("library")
	if v := lib.Key("path").String(); v != "" {
		c.LibraryPath = v
	}

	if v, err := cfg.Section("match").Key("workers").Int(); err == nil && v > 0 {
		c.MatchWorkers = v
	}

	logSec := cfg.Section("log")
	if v := logSec.Key("level").String(); v != "" {
		c.LogLevel = v
	}
	if v := logSec.Key("format").String(); v != "" {
		c.LogFormat = v
	}

	return c, nil
}

// Label returns the link label for the configured provider.
func (c *Config) Label() string {
	if c.ProviderLabel != "" {
		return c.ProviderLabel
	}
	switch c.Provider {
	case "itch", "itchio", "itch.io":
		return "Itch.io"
	default:
		return "Steam"
	}
}
