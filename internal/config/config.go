// Copyright (c) 2025-2026 Sunward Labs
// SPDX-License-Identifier: GPL-3.0-or-later

// Package config loads the application configuration from environment
// variables.
package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DBPath   string `env:"SUNCMS_DB_PATH" envDefault:"./data/suncms.db"`
	DataDir  string `env:"SUNCMS_DATA_DIR" envDefault:"./data"`
	Env      string `env:"SUNCMS_ENV" envDefault:"development"`
	LogLevel string `env:"SUNCMS_LOG_LEVEL" envDefault:"info"`

	// Cache configuration
	RedisURL     string `env:"SUNCMS_REDIS_URL"`                         // Optional Redis URL for distributed caching
	CachePrefix  string `env:"SUNCMS_CACHE_PREFIX" envDefault:"suncms:"` // Redis key prefix
	CacheTTL     int    `env:"SUNCMS_CACHE_TTL" envDefault:"300"`        // Default cache TTL in seconds
	CacheMaxSize int    `env:"SUNCMS_CACHE_MAX_SIZE" envDefault:"10000"` // Max memory cache entries

	// Dashboard metrics
	MetricsDir  string `env:"SUNCMS_METRICS_DIR" envDefault:"./data/metrics"`
	GeoIPDBPath string `env:"SUNCMS_GEOIP_DB_PATH"` // Path to GeoLite2-Country.mmdb file

	// AI assistant
	AIAPIKey string `env:"SUNCMS_AI_API_KEY"` // Overrides the key stored in settings

	// Seeding configuration
	DoSeed bool `env:"SUNCMS_DO_SEED" envDefault:"false"` // Enable database seeding
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// UseRedisCache returns true if Redis caching is configured.
func (c Config) UseRedisCache() bool {
	return c.RedisURL != ""
}

// GeoIPEnabled returns true if GeoIP database is configured.
func (c Config) GeoIPEnabled() bool {
	return c.GeoIPDBPath != ""
}

// SlogLevel maps the configured log level name onto a slog.Level.
// Unknown names fall back to info with a warning.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		slog.Warn("unknown log level, using info", "level", c.LogLevel)
		return slog.LevelInfo
	}
}

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}
