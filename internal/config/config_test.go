// Copyright (c) 2025-2026 Sunward Labs
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"log/slog"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DBPath != "./data/suncms.db" {
		t.Errorf("DBPath = %q", cfg.DBPath)
	}
	if !cfg.IsDevelopment() {
		t.Error("default env should be development")
	}
	if cfg.UseRedisCache() {
		t.Error("redis cache should be off by default")
	}
	if cfg.GeoIPEnabled() {
		t.Error("geoip should be off by default")
	}
	if cfg.DoSeed {
		t.Error("seeding should be off by default")
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("SUNCMS_DB_PATH", "/tmp/test.db")
	t.Setenv("SUNCMS_REDIS_URL", "redis://localhost:6379/1")
	t.Setenv("SUNCMS_GEOIP_DB_PATH", "/tmp/geo.mmdb")
	t.Setenv("SUNCMS_DO_SEED", "true")
	t.Setenv("SUNCMS_CACHE_TTL", "60")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DBPath != "/tmp/test.db" {
		t.Errorf("DBPath = %q", cfg.DBPath)
	}
	if !cfg.UseRedisCache() || !cfg.GeoIPEnabled() || !cfg.DoSeed {
		t.Errorf("env overrides not applied: %+v", cfg)
	}
	if cfg.CacheTTL != 60 {
		t.Errorf("CacheTTL = %d", cfg.CacheTTL)
	}
}

func TestSlogLevel(t *testing.T) {
	tests := []struct {
		name string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"ERROR", slog.LevelError},
		{"bogus", slog.LevelInfo},
	}
	for _, tt := range tests {
		cfg := Config{LogLevel: tt.name}
		if got := cfg.SlogLevel(); got != tt.want {
			t.Errorf("SlogLevel(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}
