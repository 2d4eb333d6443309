// Copyright (c) 2025-2026 Sunward Labs
// SPDX-License-Identifier: GPL-3.0-or-later

// Package geoip resolves visitor IPs to country codes using a MaxMind
// GeoLite2-Country database. Used by the dashboard audience breakdown.
package geoip

import (
	"fmt"
	"net"
	"os"
	"sync"
	"time"

	"github.com/oschwald/maxminddb-golang"
)

var privateCIDRs []*net.IPNet

func init() {
	blocks := []string{
		"10.0.0.0/8",
		"172.16.0.0/12",
		"192.168.0.0/16",
		"fc00::/7",
		"fe80::/10",
	}
	for _, block := range blocks {
		if _, cidr, err := net.ParseCIDR(block); err == nil {
			privateCIDRs = append(privateCIDRs, cidr)
		}
	}
}

// Resolver maps IP addresses to ISO country codes. A zero database path
// disables lookups without error, so metrics degrade to "Unknown".
type Resolver struct {
	db        *maxminddb.Reader
	dbPath    string
	dbModTime time.Time
	enabled   bool
	mu        sync.RWMutex
}

type countryRecord struct {
	Country struct {
		ISOCode string `maxminddb:"iso_code"`
	} `maxminddb:"country"`
}

// New creates a Resolver. An empty dbPath disables lookups.
func New(dbPath string) (*Resolver, error) {
	r := &Resolver{dbPath: dbPath}
	if dbPath == "" {
		return r, nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.load(); err != nil {
		return nil, err
	}
	return r, nil
}

// load opens or reopens the database. Caller holds the write lock.
func (r *Resolver) load() error {
	info, err := os.Stat(r.dbPath)
	if err != nil {
		r.enabled = false
		if os.IsNotExist(err) {
			return fmt.Errorf("geoip database not found: %s", r.dbPath)
		}
		return fmt.Errorf("geoip database stat: %w", err)
	}

	if r.db != nil && info.ModTime().Equal(r.dbModTime) {
		return nil
	}
	if r.db != nil {
		_ = r.db.Close()
		r.db = nil
	}

	db, err := maxminddb.Open(r.dbPath)
	if err != nil {
		r.enabled = false
		return fmt.Errorf("opening geoip database: %w", err)
	}

	r.db = db
	r.dbModTime = info.ModTime()
	r.enabled = true
	return nil
}

// Reload reopens the database when the file on disk changed. Safe to
// call periodically.
func (r *Resolver) Reload() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.dbPath == "" {
		return nil
	}
	return r.load()
}

// Country returns the 2-letter ISO country code for an IP, "LOCAL" for
// private and loopback addresses, or "" when the lookup is unavailable
// or the address unknown.
func (r *Resolver) Country(ip string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	parsed := net.ParseIP(ip)
	if parsed == nil {
		return ""
	}
	if parsed.IsLoopback() || isPrivateIP(parsed) {
		return "LOCAL"
	}
	if !r.enabled || r.db == nil {
		return ""
	}

	var record countryRecord
	if err := r.db.Lookup(parsed, &record); err != nil {
		return ""
	}
	return record.Country.ISOCode
}

// Enabled reports whether database lookups are available.
func (r *Resolver) Enabled() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.enabled
}

// Close releases the database.
func (r *Resolver) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.db != nil {
		err := r.db.Close()
		r.db = nil
		r.enabled = false
		return err
	}
	return nil
}

func isPrivateIP(ip net.IP) bool {
	for _, cidr := range privateCIDRs {
		if cidr.Contains(ip) {
			return true
		}
	}
	return false
}

// CountryName expands a 2-letter code to a display name. Unmapped codes
// pass through unchanged.
func CountryName(code string) string {
	names := map[string]string{
		"LOCAL": "Local Network",
		"US":    "United States",
		"GB":    "United Kingdom",
		"DE":    "Germany",
		"FR":    "France",
		"ES":    "Spain",
		"IT":    "Italy",
		"NL":    "Netherlands",
		"PL":    "Poland",
		"SE":    "Sweden",
		"NO":    "Norway",
		"DK":    "Denmark",
		"FI":    "Finland",
		"UA":    "Ukraine",
		"CA":    "Canada",
		"MX":    "Mexico",
		"BR":    "Brazil",
		"AU":    "Australia",
		"NZ":    "New Zealand",
		"JP":    "Japan",
		"CN":    "China",
		"KR":    "South Korea",
		"IN":    "India",
		"SG":    "Singapore",
		"ZA":    "South Africa",
		"IL":    "Israel",
		"TR":    "Turkey",
		"PT":    "Portugal",
		"IE":    "Ireland",
		"CH":    "Switzerland",
		"AT":    "Austria",
		"CZ":    "Czech Republic",
		"EE":    "Estonia",
	}
	if name, ok := names[code]; ok {
		return name
	}
	if code == "" {
		return "Unknown"
	}
	return code
}
