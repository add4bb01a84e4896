// Package actions builds the device commands offered by the action grid.
package actions

import (
	"github.com/hay-kot/adbdeck/internal/dispatch"
)

// Simple is an action that is a single fixed invocation.
type Simple struct {
	Key   string
	Label string
	Tool  dispatch.Tool
	Args  []string
}

// Request builds the invocation for serial. An empty serial targets the
// tool's default device.
func (s Simple) Request(serial string) dispatch.Request {
	return dispatch.MustRequest(s.Tool, s.Label, dispatch.Target(serial, s.Args...)...)
}

// Catalog lists the fixed reboot and power actions in display order.
var Catalog = []Simple{
	{Key: "reboot", Label: "Reboot", Tool: dispatch.ADB, Args: []string{"reboot"}},
	{Key: "soft-reboot", Label: "Soft Reboot", Tool: dispatch.ADB, Args: []string{"shell", "setprop", "sys.powerctl", "reboot"}},
	{Key: "recovery", Label: "Recovery", Tool: dispatch.ADB, Args: []string{"reboot", "recovery"}},
	{Key: "bootloader", Label: "Bootloader", Tool: dispatch.ADB, Args: []string{"reboot", "bootloader"}},
	{Key: "download", Label: "Download Mode", Tool: dispatch.ADB, Args: []string{"reboot", "download"}},
	{Key: "edl", Label: "EDL Mode", Tool: dispatch.ADB, Args: []string{"reboot", "edl"}},
	{Key: "shutdown", Label: "Shutdown", Tool: dispatch.ADB, Args: []string{"shell", "reboot", "-p"}},
}

// Logcat builds the streaming logcat invocation.
func Logcat(serial string) dispatch.Request {
	return dispatch.MustRequest(dispatch.ADB, "Logcat", dispatch.Target(serial, "logcat")...)
}

// FastbootDevices builds the fastboot listing invocation.
func FastbootDevices() dispatch.Request {
	return dispatch.MustRequest(dispatch.Fastboot, "Fastboot Devices", "devices")
}
