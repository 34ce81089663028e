// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package device reads the local device status attached to each chat turn.
package device

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// BatteryUnavailable is reported when no battery can be read.
const BatteryUnavailable = "Battery status not available."

// powerSupplyDir is the Linux sysfs root for power supplies.
const powerSupplyDir = "/sys/class/power_supply"

// =============================================================================
// BATTERY INFO
// =============================================================================

// BatteryInfo describes the primary battery's charge state.
type BatteryInfo struct {
	// Percent is the charge level, 0-100
	Percent int
	// Charging reports whether the battery is currently charging
	Charging bool
}

// String formats the battery the way it appears in the device snapshot.
func (b *BatteryInfo) String() string {
	status := "Not Charging"
	if b.Charging {
		status = "Charging"
	}
	return fmt.Sprintf("Battery: %d%%, Status: %s", b.Percent, status)
}

// =============================================================================
// BATTERY CACHE
// =============================================================================

var (
	batteryCache         *BatteryInfo
	batteryCacheOK       bool
	batteryCacheTime     time.Time
	batteryCacheMu       sync.Mutex
	batteryCacheDuration = 30 * time.Second
)

// ReadBattery reads the primary battery from the platform power supply
// interface. Returns nil when no battery is present or readable.
func ReadBattery() *BatteryInfo {
	if runtime.GOOS != "linux" {
		return nil
	}
	return readBatterySysfs(powerSupplyDir)
}

// ReadBatteryCached returns a cached battery reading if fresh, otherwise
// performs a fresh read. Charge level moves slowly; a short TTL keeps the
// per-turn cost near zero.
func ReadBatteryCached() *BatteryInfo {
	batteryCacheMu.Lock()
	defer batteryCacheMu.Unlock()

	if batteryCacheOK && time.Since(batteryCacheTime) < batteryCacheDuration {
		return batteryCache
	}

	batteryCache = ReadBattery()
	batteryCacheOK = true
	batteryCacheTime = time.Now()
	return batteryCache
}

// ClearBatteryCache forces a fresh read on the next call.
func ClearBatteryCache() {
	batteryCacheMu.Lock()
	defer batteryCacheMu.Unlock()
	batteryCache = nil
	batteryCacheOK = false
	batteryCacheTime = time.Time{}
}

// readBatterySysfs scans a power-supply directory for the first battery
// entry (BAT0, BAT1, ...) and reads its capacity and status files.
func readBatterySysfs(dir string) *BatteryInfo {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}

	var names []string
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), "BAT") {
			names = append(names, entry.Name())
		}
	}
	if len(names) == 0 {
		return nil
	}
	sort.Strings(names)

	base := filepath.Join(dir, names[0])

	data, err := os.ReadFile(filepath.Join(base, "capacity"))
	if err != nil {
		return nil
	}
	percent, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || percent < 0 || percent > 100 {
		return nil
	}

	charging := false
	if data, err := os.ReadFile(filepath.Join(base, "status")); err == nil {
		status := strings.TrimSpace(string(data))
		charging = status == "Charging" || status == "Full"
	}

	return &BatteryInfo{Percent: percent, Charging: charging}
}

// =============================================================================
// SNAPSHOT
// =============================================================================

// Snapshot returns the device status line attached to each new chat turn:
// local time, date, and battery state.
func Snapshot() string {
	return SnapshotAt(time.Now(), ReadBatteryCached())
}

// SnapshotAt builds the status line for a given time and battery reading.
func SnapshotAt(now time.Time, battery *BatteryInfo) string {
	batteryPart := BatteryUnavailable
	if battery != nil {
		batteryPart = battery.String()
	}
	return fmt.Sprintf("Time: %s, Date: %s, %s",
		now.Format("3:04:05 PM"),
		now.Format("1/2/2006"),
		batteryPart)
}
