package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/dustin/go-humanize"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hay-kot/adbdeck/internal/actions"
	"github.com/hay-kot/adbdeck/internal/core/config"
	"github.com/hay-kot/adbdeck/internal/core/notify"
	"github.com/hay-kot/adbdeck/internal/device"
	"github.com/hay-kot/adbdeck/internal/dispatch"
	"github.com/hay-kot/adbdeck/pkg/executil"
)

type harness struct {
	app  *App
	rec  *executil.RecordingExecutor
	mu   sync.Mutex
	sent []notify.Notification
}

func (h *harness) notifications() []notify.Notification {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]notify.Notification(nil), h.sent...)
}

func newHarness(t *testing.T, responses map[string]executil.Response) *harness {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.ScreenshotDir = t.TempDir()

	h := &harness{rec: &executil.RecordingExecutor{Responses: responses}}
	h.app = New(&cfg, h.rec, dispatch.Tools{ADB: "adb", Fastboot: "fastboot"}, nil)
	h.app.Bus.Subscribe(func(n notify.Notification) {
		h.mu.Lock()
		h.sent = append(h.sent, n)
		h.mu.Unlock()
	})
	return h
}

func TestEntry(t *testing.T) {
	tests := []struct {
		name string
		res  dispatch.Result
		want string
	}{
		{
			name: "success with output",
			res:  dispatch.Result{Label: "Reboot", Args: []string{"reboot"}, Stdout: "\n", Kind: dispatch.KindOK},
			want: "> Reboot: reboot",
		},
		{
			name: "stdout then stderr",
			res: dispatch.Result{
				Label: "Custom", Args: []string{"devices"},
				Stdout: "List of devices attached\n", Stderr: "warning\n", Kind: dispatch.KindOK,
			},
			want: "> Custom: devices\nList of devices attached\nwarning",
		},
		{
			name: "non-zero exit shows output",
			res: dispatch.Result{
				Label: "Recovery", Args: []string{"reboot", "recovery"},
				Stderr: "error: no devices/emulators found", ExitCode: 1, Kind: dispatch.KindExit,
				Err: errors.New("exit status 1"),
			},
			want: "> Recovery: reboot recovery\nerror: no devices/emulators found",
		},
		{
			name: "launch failure shows error",
			res: dispatch.Result{
				Label: "Reboot", Args: []string{"reboot"},
				Stderr: "exec adb: not found", ExitCode: dispatch.LaunchFailedCode, Kind: dispatch.KindLaunch,
				Err: errors.New("exec adb: not found"),
			},
			want: "> Reboot: reboot\nError: exec adb: not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Entry(tt.res))
		})
	}
}

func TestApp_Record(t *testing.T) {
	h := newHarness(t, nil)

	h.app.Record(dispatch.Result{Label: "Reboot", Args: []string{"reboot"}, Kind: dispatch.KindOK})
	h.app.Record(dispatch.Result{Label: "Bootloader", Args: []string{"reboot", "bootloader"}, ExitCode: 1, Kind: dispatch.KindExit})

	assert.Equal(t, "> Reboot: reboot\n> Bootloader: reboot bootloader\n", h.app.Log.String())

	sent := h.notifications()
	require.Len(t, sent, 2)
	assert.Equal(t, notify.LevelInfo, sent[0].Level)
	assert.Equal(t, "Reboot completed successfully.", sent[0].Message)
	assert.Equal(t, notify.LevelError, sent[1].Level)
	assert.Equal(t, "Bootloader failed.", sent[1].Message)
}

func TestApp_RunCustom(t *testing.T) {
	h := newHarness(t, map[string]executil.Response{
		"adb devices": {Stdout: "List of devices attached\n"},
	})

	task, err := h.app.RunCustom(context.Background(), "  adb devices  ")
	require.NoError(t, err)

	res := task.Wait()
	assert.True(t, res.Succeeded())
	assert.Equal(t, CustomLabel, res.Label)
	assert.Equal(t, []string{"adb devices"}, h.app.History.Commands())
}

func TestApp_RunCustomFastboot(t *testing.T) {
	h := newHarness(t, nil)

	task, err := h.app.RunCustom(context.Background(), "fastboot getvar all")
	require.NoError(t, err)
	task.Wait()

	require.Len(t, h.rec.Recorded(), 1)
	assert.Equal(t, "fastboot getvar all", h.rec.Recorded()[0].Line())
}

func TestApp_RunCustomBlank(t *testing.T) {
	h := newHarness(t, nil)

	_, err := h.app.RunCustom(context.Background(), "   ")
	require.ErrorIs(t, err, ErrInputNeeded)

	assert.Equal(t, 0, h.app.History.Len())
	assert.Empty(t, h.rec.Recorded())
	sent := h.notifications()
	require.Len(t, sent, 1)
	assert.Equal(t, notify.LevelWarning, sent[0].Level)
	assert.Contains(t, h.app.Log.String(), "Error: "+ErrInputNeeded.Error())
}

func TestApp_RunCustomShellOperator(t *testing.T) {
	h := newHarness(t, nil)

	_, err := h.app.RunCustom(context.Background(), "shell ls; reboot")
	require.ErrorIs(t, err, dispatch.ErrShellOperator)

	assert.Equal(t, 1, h.app.History.Len(), "rejected lines stay recallable")
	assert.Empty(t, h.rec.Recorded())
	assert.Contains(t, h.app.Log.String(), "Error:")
}

func TestApp_RunUserCommand(t *testing.T) {
	h := newHarness(t, nil)

	task, err := h.app.RunUserCommand(context.Background(), config.UserCommand{Name: "Wifi Off", Line: "shell svc wifi disable"})
	require.NoError(t, err)

	res := task.Wait()
	assert.Equal(t, "Wifi Off", res.Label)
	assert.Equal(t, "adb shell svc wifi disable", h.rec.Recorded()[0].Line())
}

func TestApp_RunActionTargetsConnectedDevice(t *testing.T) {
	h := newHarness(t, nil)
	reboot := catalogAction(t, "reboot")

	h.app.RunAction(context.Background(), reboot).Wait()
	h.app.SetStatus(device.Status{Kind: device.StatusConnected, Serial: "ABC"})
	h.app.RunAction(context.Background(), reboot).Wait()

	recorded := h.rec.Recorded()
	require.Len(t, recorded, 2)
	assert.Equal(t, "adb reboot", recorded[0].Line())
	assert.Equal(t, "adb -s ABC reboot", recorded[1].Line())
}

func TestApp_RefreshDevice(t *testing.T) {
	h := newHarness(t, map[string]executil.Response{
		"adb devices": {Stdout: "List of devices attached\nABC\tdevice\n"},
		"adb -s ABC shell getprop ro.product.model":         {Stdout: "Pixel 7\n"},
		"adb -s ABC shell getprop ro.build.display.id":      {Stdout: "TQ3A\n"},
		"adb -s ABC shell getprop ro.build.version.release": {Stdout: "14\n"},
	})

	st := h.app.RefreshDevice(context.Background(), "")
	assert.Equal(t, device.StatusConnected, st.Kind)
	assert.Equal(t, "ABC", h.app.Serial())
	assert.Equal(t, st, h.app.Status())
	assert.Contains(t, h.app.Log.String(), "Device connected: Pixel 7 - Android 14")
}

func TestApp_RefreshDeviceChooseKeepsPreviousStatus(t *testing.T) {
	h := newHarness(t, map[string]executil.Response{
		"adb devices": {Stdout: "List of devices attached\nA\tdevice\nB\tdevice\n"},
	})

	st := h.app.RefreshDevice(context.Background(), "")
	assert.Equal(t, device.StatusChoose, st.Kind)
	assert.Equal(t, device.StatusWaiting, h.app.Status().Kind)

	h.app.CancelDeviceChoice()
	assert.Equal(t, device.StatusCanceled, h.app.Status().Kind)
	assert.Empty(t, h.app.Serial())
}

func TestApp_ToggleTheme(t *testing.T) {
	h := newHarness(t, nil)

	assert.Equal(t, config.ThemeLight, h.app.Theme())
	assert.Equal(t, config.ThemeDark, h.app.ToggleTheme())
	assert.Equal(t, config.ThemeLight, h.app.ToggleTheme())
}

func TestApp_ExportLog(t *testing.T) {
	h := newHarness(t, nil)
	h.app.Record(dispatch.Result{Label: "Reboot", Args: []string{"reboot"}, Stdout: "done", Kind: dispatch.KindOK})

	path := filepath.Join(t.TempDir(), "logs", "session.txt")
	want := h.app.Log.String()
	require.NoError(t, h.app.ExportLog(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, want, string(data))

	sent := h.notifications()
	assert.Equal(t, "Saved", sent[len(sent)-1].Title)
	assert.Contains(t, sent[len(sent)-1].Message, path)
}

func TestApp_Flash(t *testing.T) {
	image := filepath.Join(t.TempDir(), "boot.img")
	require.NoError(t, os.WriteFile(image, []byte("img"), 0o644))

	t.Run("rejects bad partition", func(t *testing.T) {
		h := newHarness(t, nil)

		err := h.app.Flash(context.Background(), "boot;rm", image)
		require.Error(t, err)
		assert.Empty(t, h.rec.Recorded())
		assert.True(t, strings.HasPrefix(h.app.Log.String(), "Error: "))
	})

	t.Run("flashes", func(t *testing.T) {
		h := newHarness(t, map[string]executil.Response{
			"fastboot devices": {Stdout: "SER\tfastboot\n"},
		})

		require.NoError(t, h.app.Flash(context.Background(), "boot", image))
		assert.Contains(t, h.app.Log.String(), "> Fastboot flash boot: flash boot "+image)

		sent := h.notifications()
		assert.Equal(t, "Flashed to boot successfully.", sent[len(sent)-1].Message)
	})
}

func TestApp_Screenshot(t *testing.T) {
	const png = "\x89PNG data"
	h := newHarness(t, map[string]executil.Response{
		"adb exec-out screencap -p": {Stdout: png},
	})

	path, err := h.app.Screenshot(context.Background(), "")
	require.NoError(t, err)
	assert.FileExists(t, path)
	assert.Contains(t, h.app.Log.String(), "Screenshot captured.")

	sent := h.notifications()
	assert.Contains(t, sent[len(sent)-1].Message, humanize.Bytes(uint64(len(png))))
}

func TestApp_RootCheck(t *testing.T) {
	h := newHarness(t, map[string]executil.Response{
		"adb shell su -v": {ExitCode: 1},
	})

	h.app.RootCheck(context.Background())

	assert.Contains(t, h.app.Log.String(), "No root/Magisk detected.")
	sent := h.notifications()
	assert.Equal(t, notify.LevelWarning, sent[len(sent)-1].Level)
}

func TestApp_RunScript(t *testing.T) {
	script := filepath.Join(t.TempDir(), "x.sh")
	require.NoError(t, os.WriteFile(script, []byte("echo hi"), 0o644))

	h := newHarness(t, map[string]executil.Response{
		"adb shell sh " + actions.RemoteScriptPath: {Stdout: "hi\n"},
	})

	require.NoError(t, h.app.RunScript(context.Background(), script))
	log := h.app.Log.String()
	assert.Contains(t, log, "hi")
	assert.Contains(t, log, "Ran script: "+script)
	assert.Len(t, h.rec.Recorded(), 3)
}

func TestApp_ConcurrentDispatchesAreAttributable(t *testing.T) {
	h := newHarness(t, map[string]executil.Response{
		"adb reboot":            {Stdout: "A-out"},
		"adb reboot bootloader": {Stdout: "B-out"},
	})

	reboot := catalogAction(t, "reboot")
	bootloader := catalogAction(t, "bootloader")

	t1 := h.app.RunAction(context.Background(), reboot)
	t2 := h.app.RunAction(context.Background(), bootloader)

	var wg sync.WaitGroup
	for _, task := range []*dispatch.Task{t1, t2} {
		wg.Add(1)
		go func(task *dispatch.Task) {
			defer wg.Done()
			h.app.Record(task.Wait())
		}(task)
	}
	wg.Wait()

	log := h.app.Log.String()
	assert.Contains(t, log, "> Reboot: reboot\nA-out\n")
	assert.Contains(t, log, "> Bootloader: reboot bootloader\nB-out\n")
	assert.Len(t, h.notifications(), 2)
}

func catalogAction(t *testing.T, key string) actions.Simple {
	t.Helper()
	for _, s := range actions.Catalog {
		if s.Key == key {
			return s
		}
	}
	t.Fatalf("no catalog action %q", key)
	return actions.Simple{}
}
