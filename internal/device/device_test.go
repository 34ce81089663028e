// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package device

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeBattery(t *testing.T, dir, name, capacity, status string) {
	t.Helper()
	base := filepath.Join(dir, name)
	if err := os.MkdirAll(base, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(base, "capacity"), []byte(capacity), 0644); err != nil {
		t.Fatal(err)
	}
	if status != "" {
		if err := os.WriteFile(filepath.Join(base, "status"), []byte(status), 0644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestReadBatterySysfs(t *testing.T) {
	dir := t.TempDir()
	writeBattery(t, dir, "BAT0", "85\n", "Charging\n")

	info := readBatterySysfs(dir)
	if info == nil {
		t.Fatal("expected battery info")
	}
	if info.Percent != 85 {
		t.Errorf("percent = %d, want 85", info.Percent)
	}
	if !info.Charging {
		t.Error("expected charging")
	}
	if got := info.String(); got != "Battery: 85%, Status: Charging" {
		t.Errorf("String() = %q", got)
	}
}

func TestReadBatterySysfsDischarging(t *testing.T) {
	dir := t.TempDir()
	writeBattery(t, dir, "BAT0", "42", "Discharging")

	info := readBatterySysfs(dir)
	if info == nil {
		t.Fatal("expected battery info")
	}
	if info.Charging {
		t.Error("discharging battery reported as charging")
	}
	if got := info.String(); got != "Battery: 42%, Status: Not Charging" {
		t.Errorf("String() = %q", got)
	}
}

func TestReadBatterySysfsPrefersFirstBattery(t *testing.T) {
	dir := t.TempDir()
	writeBattery(t, dir, "BAT1", "10", "Discharging")
	writeBattery(t, dir, "BAT0", "90", "Full")
	writeBattery(t, dir, "AC", "", "")

	info := readBatterySysfs(dir)
	if info == nil {
		t.Fatal("expected battery info")
	}
	if info.Percent != 90 {
		t.Errorf("percent = %d, want BAT0's 90", info.Percent)
	}
}

func TestReadBatterySysfsMissing(t *testing.T) {
	if info := readBatterySysfs(t.TempDir()); info != nil {
		t.Errorf("expected nil for empty dir, got %+v", info)
	}
	if info := readBatterySysfs(filepath.Join(t.TempDir(), "nope")); info != nil {
		t.Errorf("expected nil for missing dir, got %+v", info)
	}
}

func TestReadBatterySysfsBadCapacity(t *testing.T) {
	dir := t.TempDir()
	writeBattery(t, dir, "BAT0", "garbage", "Charging")
	if info := readBatterySysfs(dir); info != nil {
		t.Errorf("expected nil for unparseable capacity, got %+v", info)
	}

	dir = t.TempDir()
	writeBattery(t, dir, "BAT0", "150", "Charging")
	if info := readBatterySysfs(dir); info != nil {
		t.Errorf("expected nil for out-of-range capacity, got %+v", info)
	}
}

func TestSnapshotAt(t *testing.T) {
	now := time.Date(2025, 3, 7, 14, 30, 5, 0, time.UTC)

	got := SnapshotAt(now, &BatteryInfo{Percent: 77, Charging: true})
	want := "Time: 2:30:05 PM, Date: 3/7/2025, Battery: 77%, Status: Charging"
	if got != want {
		t.Errorf("SnapshotAt = %q, want %q", got, want)
	}
}

func TestSnapshotAtNoBattery(t *testing.T) {
	now := time.Date(2025, 3, 7, 9, 5, 0, 0, time.UTC)

	got := SnapshotAt(now, nil)
	if !strings.HasSuffix(got, BatteryUnavailable) {
		t.Errorf("SnapshotAt = %q, want battery-unavailable suffix", got)
	}
	if !strings.HasPrefix(got, "Time: 9:05:00 AM, Date: 3/7/2025, ") {
		t.Errorf("SnapshotAt = %q, unexpected time/date prefix", got)
	}
}

func TestBatteryCache(t *testing.T) {
	ClearBatteryCache()
	first := ReadBatteryCached()
	second := ReadBatteryCached()
	// Both reads inside the TTL must agree.
	if (first == nil) != (second == nil) {
		t.Error("cached reads disagree")
	}
	ClearBatteryCache()
}
