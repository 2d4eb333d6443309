// Copyright (c) 2025-2026 Sunward Labs
// SPDX-License-Identifier: GPL-3.0-or-later

package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestGeminiComplete(t *testing.T) {
	var gotPath string
	var gotBody map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path + "?" + r.URL.RawQuery
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_, _ = w.Write([]byte(`{
			"candidates": [{"content": {"parts": [{"text": "generated text"}]}}]
		}`))
	}))
	defer srv.Close()

	p := &geminiProvider{baseURL: srv.URL}
	got, err := p.Complete(context.Background(), "secret-key", ChatRequest{
		System:      "be brief",
		Prompt:      "hello",
		Model:       "gemini-2.0-flash",
		Temperature: 0.5,
		MaxTokens:   256,
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if got != "generated text" {
		t.Errorf("content = %q", got)
	}
	if !strings.Contains(gotPath, "models/gemini-2.0-flash:generateContent") ||
		!strings.Contains(gotPath, "key=secret-key") {
		t.Errorf("request path = %q", gotPath)
	}
	if _, ok := gotBody["generationConfig"]; !ok {
		t.Error("generationConfig missing from request body")
	}
}

func TestGeminiCompleteErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{"api error", http.StatusForbidden, `{"error":"denied"}`, "status 403"},
		{"empty candidates", http.StatusOK, `{"candidates":[]}`, "no candidates"},
		{"bad json", http.StatusOK, `not json`, "decode"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			p := &geminiProvider{baseURL: srv.URL}
			_, err := p.Complete(context.Background(), "k", ChatRequest{Model: "m"})
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("err = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestProviderFor(t *testing.T) {
	if _, err := providerFor(ProviderOpenAI); err != nil {
		t.Errorf("openai: %v", err)
	}
	if _, err := providerFor(ProviderGemini); err != nil {
		t.Errorf("gemini: %v", err)
	}
	if _, err := providerFor("bedrock"); err == nil {
		t.Error("unknown provider should error")
	}
}
