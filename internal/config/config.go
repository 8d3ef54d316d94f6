// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading for the chatdesk host process.
//
// Configuration comes from ~/.chatdesk/config.toml with built-in defaults
// and CHATDESK_* environment variable overrides applied last.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete chatdesk host configuration.
type Config struct {
	// DataDir is the directory holding the chat and settings documents plus
	// the UserFiles tree. Empty means ~/.chatdesk/data.
	DataDir string `toml:"data_dir"`

	// Server configures the bridge HTTP listener.
	Server ServerConfig `toml:"server"`

	// Ollama configures the local model runtime connection.
	Ollama OllamaConfig `toml:"ollama"`

	// Catalog configures the remote model catalog.
	Catalog CatalogConfig `toml:"catalog"`
}

// ServerConfig contains bridge listener configuration.
type ServerConfig struct {
	// Host is the bind address. SECURITY: the bridge is a privileged surface;
	// anything other than a loopback address is rejected by Validate.
	Host string `toml:"host"`
	// Port is the TCP port to listen on.
	Port int `toml:"port"`
	// RateLimit is the sustained requests-per-second budget per server.
	RateLimit float64 `toml:"rate_limit"`
	// RateBurst is the burst allowance on top of RateLimit.
	RateBurst int `toml:"rate_burst"`
	// WatchFiles enables the document watcher that emits storage-changed
	// notifications when the backing files change on disk.
	WatchFiles bool `toml:"watch_files"`
}

// OllamaConfig contains local Ollama configuration.
type OllamaConfig struct {
	// URL is the base URL of the Ollama server.
	URL string `toml:"url"`
	// TimeoutSecs is the per-request timeout for generation calls.
	TimeoutSecs int `toml:"timeout_secs"`
}

// CatalogConfig contains the remote model catalog configuration.
type CatalogConfig struct {
	// URL is the catalog endpoint listing installable models.
	URL string `toml:"url"`
	// TimeoutSecs is the per-request timeout for catalog fetches.
	TimeoutSecs int `toml:"timeout_secs"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		DataDir: "",

		Server: ServerConfig{
			Host:       "127.0.0.1",
			Port:       4517,
			RateLimit:  50,
			RateBurst:  100,
			WatchFiles: true,
		},

		Ollama: OllamaConfig{
			URL:         "http://127.0.0.1:11434",
			TimeoutSecs: 120,
		},

		Catalog: CatalogConfig{
			URL:         "https://ollama.com/api/tags",
			TimeoutSecs: 15,
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the chatdesk configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".chatdesk"), nil
}

// ConfigPath returns the path to the TOML config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ResolveDataDir returns the effective data directory, creating it if needed.
func (c *Config) ResolveDataDir() (string, error) {
	dir := c.DataDir
	if dir == "" {
		base, err := ConfigDir()
		if err != nil {
			return "", err
		}
		dir = filepath.Join(base, "data")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create data directory: %w", err)
	}
	return dir, nil
}

// =============================================================================
// LOAD
// =============================================================================

// Load loads configuration from the default config file, falling back to
// defaults when the file is absent. Environment overrides are applied last.
func Load() (*Config, error) {
	cfg := Default()

	path, err := ConfigPath()
	if err == nil {
		if _, statErr := os.Stat(path); statErr == nil {
			if err := LoadTOML(cfg, path); err != nil {
				return nil, fmt.Errorf("failed to load config: %w", err)
			}
		}
	}

	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadTOML loads configuration from a TOML file into cfg.
func LoadTOML(cfg *Config, path string) error {
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	return nil
}

// LoadFromPath loads configuration from a specific file path with full
// defaulting and validation. Used by the -config flag.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()
	if err := LoadTOML(cfg, path); err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
	}
	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// SetDefaults fills in zero values with defaults.
func (c *Config) SetDefaults() {
	defaults := Default()

	if c.Server.Host == "" {
		c.Server.Host = defaults.Server.Host
	}
	if c.Server.Port == 0 {
		c.Server.Port = defaults.Server.Port
	}
	if c.Server.RateLimit == 0 {
		c.Server.RateLimit = defaults.Server.RateLimit
	}
	if c.Server.RateBurst == 0 {
		c.Server.RateBurst = defaults.Server.RateBurst
	}
	if c.Ollama.URL == "" {
		c.Ollama.URL = defaults.Ollama.URL
	}
	if c.Ollama.TimeoutSecs == 0 {
		c.Ollama.TimeoutSecs = defaults.Ollama.TimeoutSecs
	}
	if c.Catalog.URL == "" {
		c.Catalog.URL = defaults.Catalog.URL
	}
	if c.Catalog.TimeoutSecs == 0 {
		c.Catalog.TimeoutSecs = defaults.Catalog.TimeoutSecs
	}
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// loopbackHosts are the only bind addresses the bridge accepts.
var loopbackHosts = map[string]bool{
	"127.0.0.1": true,
	"::1":       true,
	"localhost": true,
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	// SECURITY: the bridge exposes chat history and settings; never bind it
	// to a routable interface.
	if !loopbackHosts[strings.ToLower(c.Server.Host)] {
		errs = append(errs, ValidationError{
			Field:   "server.host",
			Message: fmt.Sprintf("must be a loopback address, got '%s'", c.Server.Host),
		})
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, ValidationError{
			Field:   "server.port",
			Message: fmt.Sprintf("must be 1-65535, got %d", c.Server.Port),
		})
	}

	if c.Server.RateLimit < 0 {
		errs = append(errs, ValidationError{
			Field:   "server.rate_limit",
			Message: "must be non-negative",
		})
	}
	if c.Server.RateBurst < 0 {
		errs = append(errs, ValidationError{
			Field:   "server.rate_burst",
			Message: "must be non-negative",
		})
	}

	if c.Ollama.URL != "" {
		if u, err := url.Parse(c.Ollama.URL); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, ValidationError{
				Field:   "ollama.url",
				Message: fmt.Sprintf("invalid URL '%s'", c.Ollama.URL),
			})
		}
	}

	if c.Catalog.URL != "" {
		if u, err := url.Parse(c.Catalog.URL); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, ValidationError{
				Field:   "catalog.url",
				Message: fmt.Sprintf("invalid URL '%s'", c.Catalog.URL),
			})
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - CHATDESK_DATA_DIR: overrides data_dir
//   - CHATDESK_HOST: overrides server.host
//   - CHATDESK_PORT: overrides server.port
//   - CHATDESK_OLLAMA_URL: overrides ollama.url
//   - CHATDESK_CATALOG_URL: overrides catalog.url
//   - CHATDESK_WATCH: set to "0" or "false" to disable the document watcher
func (c *Config) ApplyEnvOverrides() {
	if dir := os.Getenv("CHATDESK_DATA_DIR"); dir != "" {
		c.DataDir = dir
	}

	if host := os.Getenv("CHATDESK_HOST"); host != "" {
		c.Server.Host = host
	}

	if port := os.Getenv("CHATDESK_PORT"); port != "" {
		if n, err := strconv.Atoi(port); err == nil {
			c.Server.Port = n
		}
	}

	if u := os.Getenv("CHATDESK_OLLAMA_URL"); u != "" {
		c.Ollama.URL = u
	}

	if u := os.Getenv("CHATDESK_CATALOG_URL"); u != "" {
		c.Catalog.URL = u
	}

	if watch := os.Getenv("CHATDESK_WATCH"); watch != "" {
		c.Server.WatchFiles = !(watch == "0" || strings.ToLower(watch) == "false")
	}
}

// =============================================================================
// SAVE
// =============================================================================

// Save writes the configuration to the default TOML file.
func Save(cfg *Config) error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML writes the configuration to a TOML file.
// SECURITY: Created with 0600 permissions, the file may carry private paths.
func SaveTOML(cfg *Config, path string) error {
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	fmt.Fprintln(file, "# chatdesk configuration file")
	fmt.Fprintln(file, "# Generated by chatdesk - edit with care")
	fmt.Fprintln(file, "")

	encoder := toml.NewEncoder(file)
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}
