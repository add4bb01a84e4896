// Package app holds the state shared by the terminal UI: the dispatcher,
// device and action services, the session log, command history and the
// notification bus.
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/hay-kot/adbdeck/internal/actions"
	"github.com/hay-kot/adbdeck/internal/core/config"
	"github.com/hay-kot/adbdeck/internal/core/history"
	"github.com/hay-kot/adbdeck/internal/core/logging"
	"github.com/hay-kot/adbdeck/internal/core/metrics"
	"github.com/hay-kot/adbdeck/internal/core/notify"
	"github.com/hay-kot/adbdeck/internal/core/styles"
	"github.com/hay-kot/adbdeck/internal/core/validate"
	"github.com/hay-kot/adbdeck/internal/device"
	"github.com/hay-kot/adbdeck/internal/dispatch"
	"github.com/hay-kot/adbdeck/internal/logbuf"
	"github.com/hay-kot/adbdeck/pkg/executil"
)

// CustomLabel labels commands typed into the command input.
const CustomLabel = "Custom"

// notificationHistory bounds the notifications kept for the session.
const notificationHistory = 100

// App is the application state. It is created once at startup and passed
// to the UI; there is no package-level state.
type App struct {
	Config     *config.Config
	Dispatcher *dispatch.Dispatcher
	Devices    *device.Service
	Actions    *actions.Service
	History    *history.History
	Log        *logbuf.Buffer
	Bus        *notify.Bus

	logger zerolog.Logger

	mu     sync.Mutex
	theme  string
	status device.Status
}

// New wires the application state. tools must already be resolved; m may be nil.
func New(cfg *config.Config, exec executil.Executor, tools dispatch.Tools, m *metrics.Collectors) *App {
	d := dispatch.New(exec, tools, dispatch.Options{
		MaxWorkers:   cfg.Dispatch.MaxWorkers,
		Timeout:      cfg.Dispatch.Timeout,
		StreamBuffer: cfg.Dispatch.StreamBuffer,
		Metrics:      m,
	})
	devices := device.NewService(d)

	return &App{
		Config:     cfg,
		Dispatcher: d,
		Devices:    devices,
		Actions:    actions.NewService(d, devices, cfg.ScreenshotDir),
		History:    history.New(),
		Log:        logbuf.New(cfg.Log.MaxLines),
		Bus:        notify.NewBus(notify.NewMemoryStore(notificationHistory)),
		logger:     logging.Component("app"),
		theme:      cfg.Theme,
	}
}

// Theme returns the active theme name.
func (a *App) Theme() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.theme
}

// ToggleTheme switches to the next theme and returns its name.
func (a *App) ToggleTheme() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.theme = styles.Next(a.theme)
	return a.theme
}

// Status returns the last device status.
func (a *App) Status() device.Status {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.status
}

// Serial is the serial of the connected device, or "" to let adb pick.
func (a *App) Serial() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.status.Kind == device.StatusConnected {
		return a.status.Serial
	}
	return ""
}

// SetStatus replaces the device status wholesale.
func (a *App) SetStatus(st device.Status) {
	a.mu.Lock()
	a.status = st
	a.mu.Unlock()
}

// RefreshDevice re-reads the attached devices and records the outcome.
// preferred is the serial chosen by the user when several are attached.
func (a *App) RefreshDevice(ctx context.Context, preferred string) device.Status {
	if preferred == "" {
		preferred = a.Serial()
	}

	st := a.Devices.Refresh(ctx, preferred)
	switch st.Kind {
	case device.StatusConnected:
		a.Log.Appendf("%s Device connected: %s - Android %s", styles.IconOK, st.Record.Model, st.Record.Android)
	case device.StatusNoDevice:
		a.Log.Appendf("%s No device detected.", styles.IconFail)
	case device.StatusUnavailable:
		a.Log.Appendf("%s %s", styles.IconFail, st.String())
	}

	if st.Kind != device.StatusChoose {
		a.SetStatus(st)
	}
	return st
}

// CancelDeviceChoice records that the user dismissed the device picker.
func (a *App) CancelDeviceChoice() {
	a.SetStatus(device.Status{Kind: device.StatusCanceled})
}

// Record appends the canonical log entry for res and publishes a
// notification. Results that never produced an exit status are logged as
// "Error: <text>".
func (a *App) Record(res dispatch.Result) {
	a.Log.Append(Entry(res))

	if res.Succeeded() {
		a.Bus.Notify(notify.LevelInfo, "Success", fmt.Sprintf("%s completed successfully.", res.Label))
		return
	}

	msg := fmt.Sprintf("%s failed.", res.Label)
	if res.Err != nil && res.Kind != dispatch.KindExit {
		msg = fmt.Sprintf("%s failed: %v", res.Label, res.Err)
	}
	a.Bus.Notify(notify.LevelError, "Error", msg)
}

// Entry renders the log entry for res.
func Entry(res dispatch.Result) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "> %s: %s", res.Label, strings.Join(res.Args, " "))

	switch res.Kind {
	case dispatch.KindLaunch, dispatch.KindCanceled, dispatch.KindInvalid:
		if res.Err != nil {
			fmt.Fprintf(&sb, "\nError: %v", res.Err)
		}
	default:
		if out := res.Combined(); out != "" {
			sb.WriteString("\n")
			sb.WriteString(out)
		}
	}
	return sb.String()
}

// Fail logs and publishes an error that did not come from a process.
func (a *App) Fail(title string, err error) {
	a.logger.Warn().Err(err).Str("title", title).Msg("action failed")
	a.Log.Appendf("Error: %v", err)
	a.Bus.Notify(notify.LevelError, title, err.Error())
}

// ErrInputNeeded is returned by RunCustom for a blank command line.
var ErrInputNeeded = errors.New("enter a command first")

// RunCustom validates and tokenizes a free-form command line, appends it to
// history and submits it. The returned task is already running.
func (a *App) RunCustom(ctx context.Context, line string) (*dispatch.Task, error) {
	if err := validate.CommandLine(line); err != nil {
		a.Log.Appendf("Error: %v", ErrInputNeeded)
		a.Bus.Notify(notify.LevelWarning, "Input Needed", "Enter a command first.")
		return nil, ErrInputNeeded
	}

	line = strings.TrimSpace(line)
	a.History.Append(line)

	tool, args, err := dispatch.Tokenize(line)
	if err != nil {
		a.Fail("Invalid Command", fmt.Errorf("%s: %w", line, err))
		return nil, err
	}

	req, err := dispatch.NewRequest(tool, CustomLabel, args...)
	if err != nil {
		a.Fail("Invalid Command", err)
		return nil, err
	}

	return a.Dispatcher.Submit(ctx, req), nil
}

// RunUserCommand submits a command configured under `commands`.
func (a *App) RunUserCommand(ctx context.Context, uc config.UserCommand) (*dispatch.Task, error) {
	tool, args, err := dispatch.Tokenize(uc.Line)
	if err != nil {
		a.Fail(uc.Name, err)
		return nil, err
	}
	req, err := dispatch.NewRequest(tool, uc.Name, args...)
	if err != nil {
		a.Fail(uc.Name, err)
		return nil, err
	}
	return a.Dispatcher.Submit(ctx, req), nil
}

// RunAction submits a catalog action against the connected device.
func (a *App) RunAction(ctx context.Context, action actions.Simple) *dispatch.Task {
	return a.Dispatcher.Submit(ctx, action.Request(a.Serial()))
}

// Submit runs a prebuilt request on the worker pool.
func (a *App) Submit(ctx context.Context, req dispatch.Request) *dispatch.Task {
	return a.Dispatcher.Submit(ctx, req)
}
