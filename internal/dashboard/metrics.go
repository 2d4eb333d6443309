// Copyright (c) 2025-2026 Sunward Labs
// SPDX-License-Identifier: GPL-3.0-or-later

// Package dashboard aggregates visit logs into admin-facing metrics.
// Visit files are JSON arrays written by the reverse proxy or a log
// shipper, one file per day.
package dashboard

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/mileusna/useragent"

	"github.com/sunward/suncms/internal/geoip"
)

// Visit is one logged page view.
type Visit struct {
	Timestamp time.Time `json:"timestamp"`
	Path      string    `json:"path"`
	IP        string    `json:"ip"`
	UserAgent string    `json:"user_agent"`
}

// CountEntry is one label with its visit count, for breakdown tables.
type CountEntry struct {
	Label string `json:"label"`
	Count int64  `json:"count"`
}

// Metrics is the aggregated dashboard payload.
type Metrics struct {
	TotalVisits int64        `json:"total_visits"`
	UniqueIPs   int64        `json:"unique_ips"`
	TopPaths    []CountEntry `json:"top_paths"`
	Browsers    []CountEntry `json:"browsers"`
	Devices     []CountEntry `json:"devices"`
	Countries   []CountEntry `json:"countries,omitempty"`
}

// Loader reads visit files and produces Metrics. The geo resolver is
// optional; without it the country breakdown is omitted.
type Loader struct {
	dir string
	geo *geoip.Resolver
}

// NewLoader creates a Loader over a metrics directory.
func NewLoader(dir string, geo *geoip.Resolver) *Loader {
	return &Loader{dir: dir, geo: geo}
}

// Load aggregates every *.json visit file in the directory. Files that
// cannot be read or parsed are skipped with a warning so one corrupt
// day never takes the dashboard down.
func (l *Loader) Load() (*Metrics, error) {
	entries, err := os.ReadDir(l.dir)
	if os.IsNotExist(err) {
		return &Metrics{}, nil
	}
	if err != nil {
		return nil, err
	}

	var visits []Visit
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		path := filepath.Join(l.dir, entry.Name())

		data, err := os.ReadFile(path)
		if err != nil {
			slog.Warn("skipping unreadable visit file", "path", path, "error", err)
			continue
		}
		var fileVisits []Visit
		if err := json.Unmarshal(data, &fileVisits); err != nil {
			slog.Warn("skipping corrupt visit file", "path", path, "error", err)
			continue
		}
		visits = append(visits, fileVisits...)
	}

	return l.aggregate(visits), nil
}

const topN = 10

func (l *Loader) aggregate(visits []Visit) *Metrics {
	m := &Metrics{TotalVisits: int64(len(visits))}

	ips := make(map[string]struct{})
	paths := make(map[string]int64)
	browsers := make(map[string]int64)
	devices := make(map[string]int64)
	countries := make(map[string]int64)

	for _, v := range visits {
		ips[v.IP] = struct{}{}
		paths[v.Path]++

		ua := useragent.Parse(v.UserAgent)
		browser := ua.Name
		if browser == "" {
			browser = "Unknown"
		}
		browsers[browser]++
		devices[deviceType(ua)]++

		if l.geo != nil {
			code := l.geo.Country(v.IP)
			countries[geoip.CountryName(code)]++
		}
	}

	m.UniqueIPs = int64(len(ips))
	m.TopPaths = topEntries(paths, topN)
	m.Browsers = topEntries(browsers, topN)
	m.Devices = topEntries(devices, topN)
	if l.geo != nil {
		m.Countries = topEntries(countries, topN)
	}
	return m
}

func deviceType(ua useragent.UserAgent) string {
	switch {
	case ua.Mobile:
		return "mobile"
	case ua.Tablet:
		return "tablet"
	case ua.Bot:
		return "bot"
	default:
		return "desktop"
	}
}

// topEntries sorts a count map descending and keeps the first max
// entries. Ties break alphabetically for stable output.
func topEntries(counts map[string]int64, max int) []CountEntry {
	entries := make([]CountEntry, 0, len(counts))
	for label, count := range counts {
		entries = append(entries, CountEntry{Label: label, Count: count})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Count != entries[j].Count {
			return entries[i].Count > entries[j].Count
		}
		return entries[i].Label < entries[j].Label
	})
	if len(entries) > max {
		entries = entries[:max]
	}
	return entries
}
