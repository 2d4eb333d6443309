// Copyright (c) 2025-2026 Sunward Labs
// SPDX-License-Identifier: GPL-3.0-or-later

package ai

import (
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/sunward/suncms/internal/filestore"
)

// Message roles
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// maxHistory caps the stored conversation at the newest entries.
const maxHistory = 50

// Message is one chat exchange entry.
type Message struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type historyFile struct {
	Messages []Message `json:"messages"`
}

// HistoryStore persists the assistant conversation under a file lock,
// keeping a sliding window of the newest messages.
type HistoryStore struct {
	store *filestore.Store[historyFile]
}

// NewHistoryStore creates a HistoryStore backed by dataDir/ai_history.json.
func NewHistoryStore(dataDir string) *HistoryStore {
	return &HistoryStore{
		store: filestore.New(filepath.Join(dataDir, "ai_history.json"),
			func() historyFile { return historyFile{} }),
	}
}

// Append adds a message and returns it with id and timestamp filled in.
func (h *HistoryStore) Append(role, content string) (Message, error) {
	msg := Message{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		CreatedAt: time.Now(),
	}
	err := h.store.Update(func(f *historyFile) error {
		f.Messages = filestore.CapTail(append(f.Messages, msg), maxHistory)
		return nil
	})
	if err != nil {
		return Message{}, err
	}
	return msg, nil
}

// List returns the stored messages, oldest first.
func (h *HistoryStore) List() ([]Message, error) {
	f, err := h.store.Read()
	if err != nil {
		return nil, err
	}
	return f.Messages, nil
}

// Clear discards the conversation.
func (h *HistoryStore) Clear() error {
	return h.store.Update(func(f *historyFile) error {
		f.Messages = nil
		return nil
	})
}
