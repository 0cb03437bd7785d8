// Cinefile - Movie Catalog Client with Favourites Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinefile

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists where config files are searched, in priority order.
// The first file found wins.
var DefaultConfigPaths = []string{
	"cinefile.yaml",
	"cinefile.yml",
}

// ConfigPathEnvVar overrides the config file path when set.
const ConfigPathEnvVar = "CINEFILE_CONFIG"

// defaultConfig returns a Config with all default values. Defaults are
// applied first, then overridden by the config file and environment.
func defaultConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:        "https://movies-myflix-api-84dbf8740f2d.herokuapp.com",
			Timeout:        30 * time.Second,
			MaxRetries:     5,
			RetryBaseDelay: time.Second,
		},
		Breaker: BreakerConfig{
			MinRequests:  10,
			FailureRatio: 0.6,
			MaxRequests:  3,
			Interval:     time.Minute,
			Timeout:      2 * time.Minute,
		},
		Storage: StorageConfig{
			Path:     defaultDataDir(),
			InMemory: false,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
			Caller: false,
		},
	}
}

// defaultDataDir resolves the per-user data directory for the session store.
func defaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "cinefile")
	}
	return ".cinefile"
}

// envKeyMap maps recognized environment variables to koanf paths. Unknown
// variables are ignored so unrelated environment noise cannot leak in.
var envKeyMap = map[string]string{
	"CINEFILE_API_BASE_URL":         "api.base_url",
	"CINEFILE_API_TIMEOUT":          "api.timeout",
	"CINEFILE_API_MAX_RETRIES":      "api.max_retries",
	"CINEFILE_API_RETRY_BASE_DELAY": "api.retry_base_delay",
	"CINEFILE_BREAKER_MIN_REQUESTS": "breaker.min_requests",
	"CINEFILE_BREAKER_RATIO":        "breaker.failure_ratio",
	"CINEFILE_BREAKER_INTERVAL":     "breaker.interval",
	"CINEFILE_BREAKER_TIMEOUT":      "breaker.timeout",
	"CINEFILE_STORAGE_PATH":         "storage.path",
	"CINEFILE_STORAGE_IN_MEMORY":    "storage.in_memory",
	"CINEFILE_LOG_LEVEL":            "logging.level",
	"CINEFILE_LOG_FORMAT":           "logging.format",
	"CINEFILE_LOG_CALLER":           "logging.caller",
}

// envTransformFunc maps an environment variable name to its koanf path.
// Returning an empty string drops the variable.
func envTransformFunc(key string) string {
	return envKeyMap[key]
}

// Load builds the configuration from layered sources (highest priority wins):
//  1. Environment variables
//  2. Config file (cinefile.yaml, or CINEFILE_CONFIG)
//  3. Built-in defaults
func Load() (*Config, error) {
	k := koanf.New(".")

	// Layer 1: defaults from struct.
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: optional config file.
	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: environment variables.
	if err := k.Load(env.Provider("CINEFILE_", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile returns the first config file found, or empty string.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}
