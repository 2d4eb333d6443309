// Copyright (c) 2025-2026 Sunward Labs
// SPDX-License-Identifier: GPL-3.0-or-later

// Package ai drafts post content with an external language model. The
// assistant is optional: when disabled or unconfigured every call fails
// fast with ErrDisabled and the rest of the system is unaffected.
package ai

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/sunward/suncms/internal/filestore"
)

// Providers
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// ErrDisabled is returned when the assistant is turned off or has no
// API key.
var ErrDisabled = errors.New("ai assistant is disabled")

// Temperature and token limits enforced on save.
const (
	MinTemperature = 0.0
	MaxTemperature = 2.0
	MinMaxTokens   = 1
	MaxMaxTokens   = 8192
)

// Settings holds the assistant configuration, persisted as JSON in the
// data directory.
type Settings struct {
	Enabled     bool      `json:"enabled"`
	Provider    string    `json:"provider"`
	APIKey      string    `json:"api_key,omitempty"`
	Model       string    `json:"model"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// DefaultSettings returns the configuration used before any save.
func DefaultSettings() Settings {
	return Settings{
		Provider:    ProviderOpenAI,
		Model:       "gpt-4o-mini",
		Temperature: 0.7,
		MaxTokens:   2048,
	}
}

// clamp forces temperature and token limits into their valid ranges and
// fills an empty provider or model from the defaults.
func (s *Settings) clamp() {
	def := DefaultSettings()
	if s.Provider != ProviderOpenAI && s.Provider != ProviderGemini {
		s.Provider = def.Provider
	}
	if s.Model == "" {
		s.Model = def.Model
	}
	if s.Temperature < MinTemperature {
		s.Temperature = MinTemperature
	}
	if s.Temperature > MaxTemperature {
		s.Temperature = MaxTemperature
	}
	if s.MaxTokens < MinMaxTokens {
		s.MaxTokens = def.MaxTokens
	}
	if s.MaxTokens > MaxMaxTokens {
		s.MaxTokens = MaxMaxTokens
	}
}

// SettingsStore persists Settings under a file lock. The SUNCMS_AI_API_KEY
// environment variable, when set, overrides the stored key without ever
// being written to disk.
type SettingsStore struct {
	store *filestore.Store[Settings]
}

// NewSettingsStore creates a SettingsStore backed by dataDir/ai_settings.json.
func NewSettingsStore(dataDir string) *SettingsStore {
	return &SettingsStore{
		store: filestore.New(filepath.Join(dataDir, "ai_settings.json"), DefaultSettings),
	}
}

// Load returns the current settings with the environment key override
// applied.
func (ss *SettingsStore) Load() (Settings, error) {
	s, err := ss.store.Read()
	if err != nil {
		return Settings{}, err
	}
	if key := os.Getenv("SUNCMS_AI_API_KEY"); key != "" {
		s.APIKey = key
	}
	return s, nil
}

// Save clamps and persists new settings.
func (ss *SettingsStore) Save(s Settings) error {
	return ss.store.Update(func(current *Settings) error {
		s.clamp()
		s.UpdatedAt = time.Now()
		*current = s
		return nil
	})
}
