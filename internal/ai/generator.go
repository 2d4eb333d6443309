// Copyright (c) 2025-2026 Sunward Labs
// SPDX-License-Identifier: GPL-3.0-or-later

package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/time/rate"

	"github.com/sunward/suncms/internal/model"
)

const draftSystemPrompt = `You are a writing assistant for a blog.
Respond with a single JSON object and nothing else, using the keys
"title", "excerpt", "body_html" and "tags" (an array of strings).
body_html may use p, h2, h3, ul, ol, li, strong, em, a, blockquote,
pre and code elements only.`

const chatSystemPrompt = `You are a helpful writing assistant for a blog
editor. Answer concisely.`

// draft is the JSON shape the model is asked to produce.
type draft struct {
	Title    string   `json:"title"`
	Excerpt  string   `json:"excerpt"`
	BodyHTML string   `json:"body_html"`
	Tags     []string `json:"tags"`
}

// Assistant produces post drafts and chat replies. Calls are rate
// limited to one per two seconds with a small burst.
type Assistant struct {
	settings *SettingsStore
	history  *HistoryStore
	limiter  *rate.Limiter
}

// NewAssistant creates an Assistant using stores under dataDir.
func NewAssistant(dataDir string) *Assistant {
	return &Assistant{
		settings: NewSettingsStore(dataDir),
		history:  NewHistoryStore(dataDir),
		limiter:  rate.NewLimiter(rate.Limit(0.5), 2),
	}
}

// Settings exposes the settings store.
func (a *Assistant) Settings() *SettingsStore { return a.settings }

// History exposes the conversation store.
func (a *Assistant) History() *HistoryStore { return a.history }

// complete runs one provider call after settings and rate limit checks.
func (a *Assistant) complete(ctx context.Context, system, prompt string) (string, error) {
	s, err := a.settings.Load()
	if err != nil {
		return "", fmt.Errorf("loading ai settings: %w", err)
	}
	if !s.Enabled || s.APIKey == "" {
		return "", ErrDisabled
	}

	p, err := providerFor(s.Provider)
	if err != nil {
		return "", err
	}
	if err := a.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("waiting for rate limit: %w", err)
	}

	return p.Complete(ctx, s.APIKey, ChatRequest{
		System:      system,
		Prompt:      prompt,
		Model:       s.Model,
		Temperature: s.Temperature,
		MaxTokens:   s.MaxTokens,
	})
}

// DraftPost asks the model for a complete post on a topic and returns
// it as repository input. The draft still goes through the repository's
// sanitization and validation when saved.
func (a *Assistant) DraftPost(ctx context.Context, topic string) (model.PostInput, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return model.PostInput{}, model.NewValidationError("topic", "Topic is required")
	}

	response, err := a.complete(ctx, draftSystemPrompt,
		fmt.Sprintf("Write a blog post about: %s", topic))
	if err != nil {
		return model.PostInput{}, err
	}

	d, err := parseDraft(response)
	if err != nil {
		return model.PostInput{}, err
	}

	return model.PostInput{
		Title:    d.Title,
		Excerpt:  d.Excerpt,
		BodyHTML: d.BodyHTML,
		Tags:     d.Tags,
		Status:   model.PostStatusDraft,
	}, nil
}

// Chat sends one user message, records both sides of the exchange and
// returns the assistant reply.
func (a *Assistant) Chat(ctx context.Context, message string) (Message, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return Message{}, model.NewValidationError("message", "Message is required")
	}

	reply, err := a.complete(ctx, chatSystemPrompt, message)
	if err != nil {
		return Message{}, err
	}

	if _, err := a.history.Append(RoleUser, message); err != nil {
		return Message{}, fmt.Errorf("recording user message: %w", err)
	}
	assistantMsg, err := a.history.Append(RoleAssistant, reply)
	if err != nil {
		return Message{}, fmt.Errorf("recording assistant message: %w", err)
	}
	return assistantMsg, nil
}

// parseDraft extracts the draft JSON from a model response, tolerating
// markdown code fences and surrounding prose.
func parseDraft(response string) (*draft, error) {
	d := &draft{}
	cleaned := strings.TrimSpace(response)

	if strings.HasPrefix(cleaned, "```json") {
		cleaned = strings.TrimPrefix(cleaned, "```json")
		cleaned = strings.TrimSuffix(cleaned, "```")
		cleaned = strings.TrimSpace(cleaned)
	} else if strings.HasPrefix(cleaned, "```") {
		cleaned = strings.TrimPrefix(cleaned, "```")
		cleaned = strings.TrimSuffix(cleaned, "```")
		cleaned = strings.TrimSpace(cleaned)
	}

	if err := json.Unmarshal([]byte(cleaned), d); err != nil {
		start := strings.Index(response, "{")
		end := strings.LastIndex(response, "}")
		if start >= 0 && end > start {
			if err2 := json.Unmarshal([]byte(response[start:end+1]), d); err2 != nil {
				return nil, fmt.Errorf("could not parse JSON from response: %w (original: %w)", err2, err)
			}
		} else {
			return nil, fmt.Errorf("no JSON found in response: %w", err)
		}
	}

	if d.Title == "" || d.BodyHTML == "" {
		return nil, fmt.Errorf("incomplete draft: title and body_html are required")
	}
	return d, nil
}
