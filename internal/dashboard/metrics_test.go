// Copyright (c) 2025-2026 Sunward Labs
// SPDX-License-Identifier: GPL-3.0-or-later

package dashboard

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

const (
	uaChrome = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	uaIPhone = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1"
)

func writeVisitFile(t *testing.T, dir, name string, visits []Visit) {
	t.Helper()
	data, err := json.Marshal(visits)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadAggregates(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()

	writeVisitFile(t, dir, "2026-08-30.json", []Visit{
		{Timestamp: now, Path: "/posts/alpha", IP: "203.0.113.1", UserAgent: uaChrome},
		{Timestamp: now, Path: "/posts/alpha", IP: "203.0.113.2", UserAgent: uaChrome},
		{Timestamp: now, Path: "/", IP: "203.0.113.1", UserAgent: uaIPhone},
	})
	writeVisitFile(t, dir, "2026-08-31.json", []Visit{
		{Timestamp: now, Path: "/posts/beta", IP: "203.0.113.3", UserAgent: uaChrome},
	})

	m, err := NewLoader(dir, nil).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if m.TotalVisits != 4 {
		t.Errorf("TotalVisits = %d, want 4", m.TotalVisits)
	}
	if m.UniqueIPs != 3 {
		t.Errorf("UniqueIPs = %d, want 3", m.UniqueIPs)
	}
	if len(m.TopPaths) == 0 || m.TopPaths[0].Label != "/posts/alpha" || m.TopPaths[0].Count != 2 {
		t.Errorf("TopPaths = %+v", m.TopPaths)
	}

	browsers := map[string]int64{}
	for _, b := range m.Browsers {
		browsers[b.Label] = b.Count
	}
	if browsers["Chrome"] != 3 {
		t.Errorf("browsers = %v", browsers)
	}

	devices := map[string]int64{}
	for _, d := range m.Devices {
		devices[d.Label] = d.Count
	}
	if devices["desktop"] != 3 || devices["mobile"] != 1 {
		t.Errorf("devices = %v", devices)
	}

	if m.Countries != nil {
		t.Error("countries should be omitted without a geo resolver")
	}
}

func TestLoadSkipsCorruptFiles(t *testing.T) {
	dir := t.TempDir()

	writeVisitFile(t, dir, "good.json", []Visit{
		{Path: "/", IP: "203.0.113.1", UserAgent: uaChrome},
	})
	if err := os.WriteFile(filepath.Join(dir, "bad.json"), []byte("{{{"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignore me"), 0o644); err != nil {
		t.Fatal(err)
	}

	m, err := NewLoader(dir, nil).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if m.TotalVisits != 1 {
		t.Errorf("TotalVisits = %d, want 1 (corrupt and non-json skipped)", m.TotalVisits)
	}
}

func TestLoadMissingDirectory(t *testing.T) {
	m, err := NewLoader(filepath.Join(t.TempDir(), "absent"), nil).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if m.TotalVisits != 0 {
		t.Errorf("TotalVisits = %d, want 0", m.TotalVisits)
	}
}
