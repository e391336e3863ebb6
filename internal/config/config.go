// Package config loads client configuration.
//
// Values come from, in increasing precedence: built-in defaults, the YAML file at
// Path() (optional), and HH_* environment variables. Command-line flags are applied
// by the caller on top of the returned Config.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Storage backends for the persisted credential.
const (
	StorageFile   = "file"
	StorageSQLite = "sqlite"
	StorageMemory = "memory"
)

// Environment variables overriding file values.
const (
	EnvAPIBase   = "HH_API_BASE"
	EnvAPIPrefix = "HH_API_PREFIX"
	EnvStorage   = "HH_STORAGE"
	EnvLogLevel  = "HH_LOG_LEVEL"
	EnvConfig    = "HH_CONFIG"
)

// Config is the client configuration.
type Config struct {
	API      APIConfig     `yaml:"api"`
	Storage  StorageConfig `yaml:"storage"`
	Uploads  UploadsConfig `yaml:"uploads"`
	Demo     DemoConfig    `yaml:"demo"`
	LogLevel string        `yaml:"log_level"`
}

// APIConfig locates the backend.
type APIConfig struct {
	// BaseURL is the backend origin, e.g. https://api.example.com.
	BaseURL string `yaml:"base_url"`
	// Prefix is prepended to every endpoint path, e.g. /api.
	Prefix  string        `yaml:"prefix"`
	Timeout time.Duration `yaml:"timeout"`
}

// StorageConfig selects where the credential is persisted.
type StorageConfig struct {
	// Backend is one of file, sqlite or memory.
	Backend string `yaml:"backend"`
	// Dir holds token.json, local.db and storage.key.
	Dir string `yaml:"dir"`
	// Seal encrypts the stored credential with a key kept in Dir.
	Seal bool `yaml:"seal"`
}

// UploadsConfig tunes listing image uploads.
type UploadsConfig struct {
	// Concurrency bounds parallel uploads; 1 uploads in slot order.
	Concurrency int `yaml:"concurrency"`
	// PlaceholderURL is shown for listings created without images.
	PlaceholderURL string `yaml:"placeholder_url"`
}

// DemoConfig is the account used by demo-login.
type DemoConfig struct {
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
}

// Dir returns the per-user configuration directory.
func Dir() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, "homeheaven")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "homeheaven")
}

// Path returns the config file location: HH_CONFIG or Dir()/config.yaml.
func Path() string {
	if v := os.Getenv(EnvConfig); v != "" {
		return v
	}
	return filepath.Join(Dir(), "config.yaml")
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		API: APIConfig{
			BaseURL: "http://localhost:5000",
			Prefix:  "/api",
			Timeout: 15 * time.Second,
		},
		Storage: StorageConfig{
			Backend: StorageFile,
			Dir:     Dir(),
		},
		Uploads: UploadsConfig{
			Concurrency:    1,
			PlaceholderURL: "https://via.placeholder.com/400x300",
		},
		Demo: DemoConfig{
			Email:    "qwerty@gmail.com",
			Password: "123456",
		},
		LogLevel: "warn",
	}
}

// Load reads path over the defaults and applies environment overrides. A missing file
// is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()
	b, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvAPIBase); v != "" {
		c.API.BaseURL = v
	}
	if v, ok := os.LookupEnv(EnvAPIPrefix); ok {
		c.API.Prefix = v
	}
	if v := os.Getenv(EnvStorage); v != "" {
		c.Storage.Backend = strings.ToLower(v)
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
}

// Validate checks the configuration for obvious mistakes.
func (c *Config) Validate() error {
	var problems []string
	if strings.TrimSpace(c.API.BaseURL) == "" {
		problems = append(problems, "api.base_url is required")
	}
	if c.API.Timeout <= 0 {
		problems = append(problems, "api.timeout must be positive")
	}
	switch c.Storage.Backend {
	case StorageFile, StorageSQLite, StorageMemory:
	default:
		problems = append(problems, fmt.Sprintf("storage.backend %q is not one of file, sqlite, memory", c.Storage.Backend))
	}
	if c.Storage.Backend != StorageMemory && c.Storage.Dir == "" {
		problems = append(problems, "storage.dir is required")
	}
	if c.Uploads.Concurrency < 1 {
		problems = append(problems, "uploads.concurrency must be at least 1")
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}
