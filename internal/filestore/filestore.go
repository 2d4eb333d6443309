// Copyright (c) 2025-2026 Sunward Labs
// SPDX-License-Identifier: GPL-3.0-or-later

// Package filestore implements a small file-backed JSON document store.
// Each store owns one JSON file guarded by a sidecar advisory lock file;
// read-modify-write cycles run under an exclusive lock so concurrent
// writers serialize across processes. A missing or corrupt document is
// never an error: the store logs it and starts from defaults.
package filestore

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// LockSuffix is appended to the data path to form the sidecar lock file.
const LockSuffix = ".lock"

// Store persists one JSON document of type T at a fixed path.
type Store[T any] struct {
	path     string
	lock     *flock.Flock
	defaults func() T
}

// New creates a store for the document at path. defaults supplies the
// value returned when the file is missing, empty or unparseable.
func New[T any](path string, defaults func() T) *Store[T] {
	return &Store[T]{
		path:     path,
		lock:     flock.New(path + LockSuffix),
		defaults: defaults,
	}
}

// Path returns the backing file path.
func (s *Store[T]) Path() string {
	return s.path
}

// Read loads the document. Missing, empty or corrupt files yield the
// defaults; corruption is logged and treated as "start fresh". Only
// unexpected I/O failures (permissions, bad media) surface as errors.
func (s *Store[T]) Read() (T, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s.defaults(), nil
		}
		return s.defaults(), fmt.Errorf("reading %s: %w", s.path, err)
	}
	if len(data) == 0 {
		return s.defaults(), nil
	}

	value := s.defaults()
	if err := json.Unmarshal(data, &value); err != nil {
		slog.Warn("corrupt document, using defaults",
			"path", s.path, "error", err)
		return s.defaults(), nil
	}
	return value, nil
}

// Write serializes the document as indented JSON and replaces the file.
// Callers performing a read-modify-write sequence must do so through
// Update so the cycle runs under the lock.
func (s *Store[T]) Write(value T) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", s.path, err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", s.path, err)
	}
	return nil
}

// Update runs one read-modify-write cycle under the exclusive lock.
// The lock is released on every exit path, including when fn or the
// write fails; fn errors are returned unchanged.
func (s *Store[T]) Update(fn func(*T) error) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}
	if err := s.lock.Lock(); err != nil {
		return fmt.Errorf("locking %s: %w", s.lock.Path(), err)
	}
	defer func() {
		if err := s.lock.Unlock(); err != nil {
			slog.Error("releasing file lock", "path", s.lock.Path(), "error", err)
		}
	}()

	value, err := s.Read()
	if err != nil {
		return err
	}
	if err := fn(&value); err != nil {
		return err
	}
	return s.Write(value)
}

// CapTail keeps the most recent max entries of a history slice,
// dropping the oldest beyond the cap.
func CapTail[E any](entries []E, max int) []E {
	if max <= 0 || len(entries) <= max {
		return entries
	}
	return entries[len(entries)-max:]
}
