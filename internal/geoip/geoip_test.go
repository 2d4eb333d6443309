// Copyright (c) 2025-2026 Sunward Labs
// SPDX-License-Identifier: GPL-3.0-or-later

package geoip

import "testing"

func TestDisabledResolver(t *testing.T) {
	r, err := New("")
	if err != nil {
		t.Fatalf("New with empty path: %v", err)
	}
	defer func() { _ = r.Close() }()

	if r.Enabled() {
		t.Error("resolver with no database should be disabled")
	}
	if got := r.Country("8.8.8.8"); got != "" {
		t.Errorf("disabled lookup = %q, want empty", got)
	}
	if err := r.Reload(); err != nil {
		t.Errorf("Reload with no path: %v", err)
	}
}

func TestLocalAddresses(t *testing.T) {
	r, err := New("")
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = r.Close() }()

	tests := []struct {
		ip   string
		want string
	}{
		{"127.0.0.1", "LOCAL"},
		{"10.1.2.3", "LOCAL"},
		{"172.20.0.1", "LOCAL"},
		{"192.168.1.1", "LOCAL"},
		{"fe80::1", "LOCAL"},
		{"::1", "LOCAL"},
		{"not-an-ip", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := r.Country(tt.ip); got != tt.want {
			t.Errorf("Country(%q) = %q, want %q", tt.ip, got, tt.want)
		}
	}
}

func TestNewMissingDatabase(t *testing.T) {
	if _, err := New("/nonexistent/geo.mmdb"); err == nil {
		t.Error("expected error for missing database file")
	}
}

func TestCountryName(t *testing.T) {
	tests := []struct {
		code string
		want string
	}{
		{"US", "United States"},
		{"LOCAL", "Local Network"},
		{"", "Unknown"},
		{"XX", "XX"},
	}
	for _, tt := range tests {
		if got := CountryName(tt.code); got != tt.want {
			t.Errorf("CountryName(%q) = %q, want %q", tt.code, got, tt.want)
		}
	}
}
