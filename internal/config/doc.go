// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading for the chatdesk host process.
//
// Supports TOML configuration with sensible defaults, environment variable
// overrides, and validation.
//
// # Key Types
//
//   - Config: Main configuration structure
//   - ServerConfig: Bridge listener settings (bind address, rate limits)
//   - OllamaConfig: Local model runtime connection
//   - CatalogConfig: Remote model catalog endpoint
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (CHATDESK_*)
//   - ~/.chatdesk/config.toml
//   - Built-in defaults
//
// # Usage
//
// Load configuration:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Access settings:
//
//	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
package config
