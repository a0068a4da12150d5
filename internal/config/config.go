// Package config loads the gateway configuration from an optional YAML file
// with environment overrides for the bind address.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds the process configuration.
type Config struct {
	// Host is the bind address. Env HOST overrides.
	Host string `yaml:"host"`
	// Port is the listen port. Env PORT overrides.
	Port int `yaml:"port"`
	// AccountsFile is the JSON account store path.
	AccountsFile string `yaml:"accounts-file"`
	// LogLevel is a logrus level name.
	LogLevel string `yaml:"log-level"`
	// LogDir enables rotated file logging when set.
	LogDir string `yaml:"log-dir"`
	// WatchAccounts reloads the pool when the accounts file changes.
	WatchAccounts bool `yaml:"watch-accounts"`
}

func defaults() Config {
	return Config{
		Host:          "127.0.0.1",
		Port:          8787,
		AccountsFile:  "accounts.json",
		LogLevel:      "info",
		WatchAccounts: true,
	}
}

// Load reads path (missing file falls back to defaults) and applies env
// overrides.
func Load(path string) (*Config, error) {
	cfg := defaults()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err == nil {
			if errUnmarshal := yaml.Unmarshal(data, &cfg); errUnmarshal != nil {
				return nil, fmt.Errorf("config: parse %s: %w", path, errUnmarshal)
			}
		}
	}

	if host := os.Getenv("HOST"); host != "" {
		cfg.Host = host
	}
	if port := os.Getenv("PORT"); port != "" {
		parsed, err := strconv.Atoi(port)
		if err != nil || parsed <= 0 || parsed > 65535 {
			return nil, fmt.Errorf("config: invalid PORT %q", port)
		}
		cfg.Port = parsed
	}
	return &cfg, nil
}

// Addr returns the host:port bind address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
