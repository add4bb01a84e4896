// Package device discovers attached devices and describes the selected one.
package device

import (
	"fmt"
	"strings"
)

// Device states reported by the listing commands.
const (
	StateDevice       = "device"
	StateFastboot     = "fastboot"
	StateOffline      = "offline"
	StateUnauthorized = "unauthorized"
)

// Entry is one row of `adb devices` or `fastboot devices`.
type Entry struct {
	Serial   string
	State    string
	Fastboot bool // parsed from a fastboot listing
}

// Ready reports whether the device accepts commands: "device" for adb
// listings and "fastboot" for fastboot listings.
func (e Entry) Ready() bool {
	if e.Fastboot {
		return e.State == StateFastboot
	}
	return e.State == StateDevice
}

// Record describes one connected device.
type Record struct {
	Serial  string
	Model   string
	Build   string
	Android string
}

// Summary renders the record for the status line.
func (r Record) Summary() string {
	return fmt.Sprintf("%s | Build: %s | Android: %s", r.Model, r.Build, r.Android)
}

// ParseDevices parses `adb devices` output. The header, daemon banners
// ("* daemon started successfully") and blank lines are skipped; extra
// attributes printed by `-l` are ignored.
func ParseDevices(out string) []Entry {
	var entries []Entry
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "*") || strings.HasPrefix(line, "List of devices") {
			continue
		}
		if e, ok := parseLine(line); ok {
			entries = append(entries, e)
		}
	}
	return entries
}

// ParseFastbootDevices parses `fastboot devices` output, which has no header.
func ParseFastbootDevices(out string) []Entry {
	var entries []Entry
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "<") {
			continue
		}
		if e, ok := parseLine(line); ok {
			e.Fastboot = true
			entries = append(entries, e)
		}
	}
	return entries
}

func parseLine(line string) (Entry, bool) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return Entry{}, false
	}
	return Entry{Serial: fields[0], State: fields[1]}, true
}

// ReadySerials returns the serials of ready entries in listing order.
func ReadySerials(entries []Entry) []string {
	var serials []string
	for _, e := range entries {
		if e.Ready() {
			serials = append(serials, e.Serial)
		}
	}
	return serials
}
