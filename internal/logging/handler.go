// Copyright (c) 2025-2026 Sunward Labs
// SPDX-License-Identifier: GPL-3.0-or-later

// Package logging provides a slog handler that forwards WARN and above
// to the database-backed event log.
package logging

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sunward/suncms/internal/model"
	"github.com/sunward/suncms/internal/store"
)

// EventLogHandler wraps another slog.Handler and also writes records at
// or above a threshold level to the events table.
type EventLogHandler struct {
	inner slog.Handler
	store *store.Store
	level slog.Level
}

// NewEventLogHandler creates a handler forwarding WARN and above.
func NewEventLogHandler(inner slog.Handler, s *store.Store) *EventLogHandler {
	return NewEventLogHandlerWithLevel(inner, s, slog.LevelWarn)
}

// NewEventLogHandlerWithLevel creates a handler with a custom minimum
// forwarding level.
func NewEventLogHandlerWithLevel(inner slog.Handler, s *store.Store, level slog.Level) *EventLogHandler {
	return &EventLogHandler{inner: inner, store: s, level: level}
}

// Enabled implements slog.Handler.
func (h *EventLogHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle implements slog.Handler.
func (h *EventLogHandler) Handle(ctx context.Context, r slog.Record) error {
	if err := h.inner.Handle(ctx, r); err != nil {
		return err
	}
	if r.Level >= h.level {
		h.writeEvent(r)
	}
	return nil
}

// WithAttrs implements slog.Handler.
func (h *EventLogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &EventLogHandler{inner: h.inner.WithAttrs(attrs), store: h.store, level: h.level}
}

// WithGroup implements slog.Handler.
func (h *EventLogHandler) WithGroup(name string) slog.Handler {
	return &EventLogHandler{inner: h.inner.WithGroup(name), store: h.store, level: h.level}
}

// writeEvent persists one record. A background context is used so the
// event survives cancellation of the original operation, and failures
// are swallowed: logging must never take down the caller.
func (h *EventLogHandler) writeEvent(r slog.Record) {
	_ = h.store.CreateEvent(context.Background(),
		eventLevel(r.Level), eventCategory(r), r.Message,
		sql.NullInt64{}, eventMetadata(r))
}

func eventLevel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return model.EventLevelError
	case level >= slog.LevelWarn:
		return model.EventLevelWarning
	default:
		return model.EventLevelInfo
	}
}

// eventCategory reads an explicit "category" attribute, or infers one
// from the message.
func eventCategory(r slog.Record) string {
	var category string
	r.Attrs(func(a slog.Attr) bool {
		if a.Key == "category" {
			category = a.Value.String()
			return false
		}
		return true
	})
	if category != "" {
		return category
	}

	msg := strings.ToLower(r.Message)
	switch {
	case strings.Contains(msg, "post"), strings.Contains(msg, "slug"):
		return model.EventCategoryPost
	case strings.Contains(msg, "tag"):
		return model.EventCategoryTag
	case strings.Contains(msg, "user"), strings.Contains(msg, "login"):
		return model.EventCategoryUser
	case strings.Contains(msg, "config"), strings.Contains(msg, "setting"):
		return model.EventCategoryConfig
	case strings.Contains(msg, "file"), strings.Contains(msg, "store"), strings.Contains(msg, "cache"):
		return model.EventCategoryStorage
	default:
		return model.EventCategorySystem
	}
}

// eventMetadata collects the record attributes into a flat JSON object.
func eventMetadata(r slog.Record) string {
	if r.NumAttrs() == 0 {
		return "{}"
	}

	var sb strings.Builder
	sb.WriteString("{")
	first := true
	r.Attrs(func(a slog.Attr) bool {
		if a.Key == "category" {
			return true
		}
		if !first {
			sb.WriteString(",")
		}
		first = false
		sb.WriteString(`"`)
		sb.WriteString(escapeJSON(a.Key))
		sb.WriteString(`":"`)
		sb.WriteString(escapeJSON(a.Value.String()))
		sb.WriteString(`"`)
		return true
	})
	sb.WriteString("}")
	return sb.String()
}

func escapeJSON(s string) string {
	var sb strings.Builder
	for _, r := range s {
		switch r {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		default:
			// JSON strings must not carry raw control characters.
			if r < 0x20 {
				fmt.Fprintf(&sb, `\u%04x`, r)
			} else {
				sb.WriteRune(r)
			}
		}
	}
	return sb.String()
}
