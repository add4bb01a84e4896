// Package tui is the interactive terminal front end. It owns no device
// logic: every button and prompt calls into the app state and results come
// back as tea messages, so the render loop never waits on a process.
package tui

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/hay-kot/adbdeck/internal/actions"
	"github.com/hay-kot/adbdeck/internal/app"
	"github.com/hay-kot/adbdeck/internal/core/notify"
	"github.com/hay-kot/adbdeck/internal/core/styles"
	"github.com/hay-kot/adbdeck/internal/device"
	"github.com/hay-kot/adbdeck/internal/dispatch"
)

type focus int

const (
	focusButtons focus = iota
	focusInput
)

// Model is the root Bubble Tea model.
type Model struct {
	app *app.App
	ctx context.Context

	keys    keyMap
	styles  styles.Styles
	buttons []button

	selected int
	focus    focus
	input    textinput.Model
	log      viewport.Model
	spinner  spinner.Model

	// busy counts background work started from the UI. Shared across model
	// copies so prompt callbacks can start work too.
	busy  *atomic.Int32
	inbox *inbox

	prompt  *prompt
	pager   *pager
	notices []notify.Notification
	history *NotificationModal

	width  int
	height int
	now    func() time.Time
}

// New builds the model and subscribes it to the app's log and notifications.
func New(ctx context.Context, a *app.App) Model {
	in := newInbox()
	a.Log.Subscribe(func(string) { in.markLog() })
	a.Bus.Subscribe(in.push)

	input := textinput.New()
	input.Placeholder = "adb or fastboot command, e.g. shell getprop ro.product.model"
	input.Prompt = "> "
	input.CharLimit = 1024

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := Model{
		app:     a,
		ctx:     ctx,
		keys:    defaultKeyMap(),
		styles:  styles.New(a.Theme()),
		buttons: buildButtons(a.Config.UserCommands),
		input:   input,
		log:     viewport.New(80, 10),
		spinner: sp,
		busy:    &atomic.Int32{},
		inbox:   in,
		width:   80,
		height:  24,
		now:     time.Now,
	}
	m.syncLog()
	return m
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.inbox.wait(),
		m.spinner.Tick,
		m.startRefresh(""),
	)
}

// Busy reports the number of background operations still running.
func (m Model) Busy() int {
	return int(m.busy.Load())
}

// startTask waits for a submitted dispatch and records its result.
func (m Model) startTask(task *dispatch.Task) tea.Cmd {
	m.busy.Add(1)
	wait := waitTask(m.app, task)
	return func() tea.Msg {
		defer m.busy.Add(-1)
		return wait()
	}
}

// startOp runs a blocking app operation in the background.
func (m Model) startOp(label string, fn func() error) tea.Cmd {
	m.busy.Add(1)
	return runOp(label, func() error {
		defer m.busy.Add(-1)
		return fn()
	})
}

func (m Model) startRefresh(preferred string) tea.Cmd {
	m.busy.Add(1)
	refresh := refreshDevice(m.ctx, m.app, preferred)
	return func() tea.Msg {
		defer m.busy.Add(-1)
		return refresh()
	}
}

// startPagerOp runs fn in the background and opens its output in the pager.
func (m Model) startPagerOp(title string, fn func() (string, error)) tea.Cmd {
	m.busy.Add(1)
	return func() tea.Msg {
		defer m.busy.Add(-1)
		body, err := fn()
		if err != nil {
			return opDoneMsg{label: title, err: err}
		}
		return pagerMsg{title: title, body: body}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.layout()
		if m.pager != nil {
			m.pager.resize(m.width, m.height)
		}
		if m.history != nil {
			m.history = NewNotificationModal(m.app.Bus.Store(), m.styles, m.width, m.height)
		}
	case inboxMsg:
		if msg.logChanged {
			m.syncLog()
		}
		m.notices = append(m.notices, msg.notes...)
		return m, m.inbox.wait()
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case deviceMsg:
		if msg.status.Kind == device.StatusChoose {
			return m.openPrompt(m.devicePrompt(msg.status.Candidates))
		}
		return m, nil
	case taskDoneMsg, opDoneMsg:
		return m, nil
	case pagerMsg:
		m.closePrompt()
		m.pager = newPager(msg.title, msg.body, m.width, m.height)
		return m, nil
	case streamLinesMsg:
		if m.pager == nil || m.pager.stream != msg.stream {
			return m, nil
		}
		m.pager.appendLines(msg.lines)
		if msg.done {
			m.pager.ended = true
			return m, endStream(msg.stream)
		}
		return m, waitLines(msg.stream)
	case streamEndedMsg:
		if msg.err != nil && !isDetached(msg.err) {
			m.app.Fail("Logcat", msg.err)
		}
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	if m.prompt != nil {
		return m.updatePrompt(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if len(m.notices) > 0 {
		switch msg.String() {
		case "enter", "esc", " ", "q":
			m.notices = m.notices[1:]
		case "ctrl+c":
			return m.quit()
		}
		return m, nil
	}

	if m.prompt != nil {
		if msg.String() == "esc" {
			return m.cancelPrompt()
		}
		return m.updatePrompt(msg)
	}

	if msg.String() == "ctrl+c" {
		return m.quit()
	}

	switch {
	case m.history != nil:
		return m.handleHistoryKey(msg)
	case m.pager != nil:
		return m.handlePagerKey(msg)
	case m.focus == focusInput:
		return m.handleInputKey(msg)
	default:
		return m.handleButtonKey(msg)
	}
}

func (m Model) handleButtonKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m.quit()
	case key.Matches(msg, m.keys.Left):
		m.selected = moveSelection(m.selected, len(m.buttons), -1, 0)
	case key.Matches(msg, m.keys.Right):
		m.selected = moveSelection(m.selected, len(m.buttons), 1, 0)
	case key.Matches(msg, m.keys.Up):
		m.selected = moveSelection(m.selected, len(m.buttons), 0, -1)
	case key.Matches(msg, m.keys.Down):
		m.selected = moveSelection(m.selected, len(m.buttons), 0, 1)
	case key.Matches(msg, m.keys.Activate):
		return m.activate(m.buttons[m.selected])
	case key.Matches(msg, m.keys.FocusInput):
		m.focus = focusInput
		return m, m.input.Focus()
	case key.Matches(msg, m.keys.Theme):
		m.toggleTheme()
	case key.Matches(msg, m.keys.Notifications):
		m.history = NewNotificationModal(m.app.Bus.Store(), m.styles, m.width, m.height)
	case key.Matches(msg, m.keys.Copy):
		return m, copyText(m.app.Bus, "Log", m.app.Log.String())
	case key.Matches(msg, m.keys.ScrollUp):
		m.log.HalfViewUp()
	case key.Matches(msg, m.keys.ScrollDown):
		m.log.HalfViewDown()
	}
	return m, nil
}

func (m Model) handleInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "tab":
		m.focus = focusButtons
		m.input.Blur()
		m.app.History.ResetCursor()
		return m, nil
	case "up":
		if cmd, ok := m.app.History.Prev(); ok {
			m.input.SetValue(cmd)
			m.input.CursorEnd()
		}
		return m, nil
	case "down":
		cmd, _ := m.app.History.Next()
		m.input.SetValue(cmd)
		m.input.CursorEnd()
		return m, nil
	case "pgup":
		m.log.HalfViewUp()
		return m, nil
	case "pgdown":
		m.log.HalfViewDown()
		return m, nil
	case "enter":
		task, err := m.app.RunCustom(m.ctx, m.input.Value())
		if err != nil {
			return m, nil
		}
		m.input.SetValue("")
		return m, m.startTask(task)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handlePagerKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "q":
		p := m.pager
		m.pager = nil
		if p.stream != nil && !p.ended {
			m.app.Log.Appendf("Logcat closed (%d lines viewed).", len(p.lines))
			return m, closeStream(p.stream)
		}
		return m, nil
	case "y":
		return m, copyText(m.app.Bus, m.pager.title, m.pager.Text())
	}
	return m, m.pager.Update(msg)
}

func (m Model) handleHistoryKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.String() == "esc", key.Matches(msg, m.keys.Quit), key.Matches(msg, m.keys.Notifications):
		m.history = nil
	case key.Matches(msg, m.keys.Up):
		m.history.ScrollUp()
	case key.Matches(msg, m.keys.Down):
		m.history.ScrollDown()
	case key.Matches(msg, m.keys.Clear):
		if err := m.history.Clear(m.styles); err != nil {
			m.app.Fail("Notifications", err)
		}
	}
	return m, nil
}

// activate runs the action behind a grid button.
func (m Model) activate(b button) (tea.Model, tea.Cmd) {
	switch b.Kind {
	case buttonAction:
		return m, m.startTask(m.app.RunAction(m.ctx, b.Action))
	case buttonUser:
		task, err := m.app.RunUserCommand(m.ctx, b.Command)
		if err != nil {
			return m, nil
		}
		return m, m.startTask(task)
	case buttonRefresh:
		return m, m.startRefresh("")
	case buttonFastboot:
		return m, m.startTask(m.app.Submit(m.ctx, actions.FastbootDevices()))
	case buttonRootCheck:
		return m, m.startOp(b.Label, func() error {
			m.app.RootCheck(m.ctx)
			return nil
		})
	case buttonApps:
		return m, m.startPagerOp("Installed Apps", func() (string, error) {
			pkgs, err := m.app.Packages(m.ctx)
			if err != nil {
				return "", err
			}
			if len(pkgs) == 0 {
				return "No third-party packages installed.", nil
			}
			return strings.Join(pkgs, "\n"), nil
		})
	case buttonDiagnostics:
		return m, m.startPagerOp("Battery / Temperature", func() (string, error) {
			return m.app.Diagnostics(m.ctx)
		})
	case buttonLogcat:
		return m.openLogcat()
	case buttonSaveLogs:
		return m.openPrompt(m.exportPrompt(m.now()))
	case buttonFlash:
		return m.openPrompt(m.flashPrompt())
	case buttonInstall:
		return m.openPrompt(m.installPrompt())
	case buttonPush:
		return m.openPrompt(m.pushPrompt())
	case buttonPull:
		return m.openPrompt(m.pullPrompt())
	case buttonScreenshot:
		return m.openPrompt(m.screenshotPrompt())
	case buttonScript:
		return m.openPrompt(m.scriptPrompt())
	}
	return m, nil
}

func (m Model) openLogcat() (tea.Model, tea.Cmd) {
	s, err := m.app.Dispatcher.Stream(m.ctx, actions.Logcat(m.app.Serial()))
	if err != nil {
		m.app.Fail("Logcat", err)
		return m, nil
	}
	m.app.Log.Appendf("> Logcat: %s", strings.Join(s.Request().Args(), " "))
	m.pager = newStreamPager("Logcat", s, m.app.Config.Log.MaxLines, m.width, m.height)
	return m, waitLines(s)
}

func (m Model) openPrompt(p *prompt) (tea.Model, tea.Cmd) {
	m.prompt = p
	return m, p.form.Init()
}

func (m *Model) closePrompt() {
	m.prompt = nil
}

func (m Model) cancelPrompt() (tea.Model, tea.Cmd) {
	p := m.prompt
	m.prompt = nil
	if p.cancel != nil {
		return m, p.cancel()
	}
	return m, nil
}

func (m Model) updatePrompt(msg tea.Msg) (tea.Model, tea.Cmd) {
	model, cmd := m.prompt.form.Update(msg)
	if f, ok := model.(*huh.Form); ok {
		m.prompt.form = f
	}

	switch m.prompt.form.State {
	case huh.StateCompleted:
		p := m.prompt
		m.prompt = nil
		return m, p.submit()
	case huh.StateAborted:
		return m.cancelPrompt()
	}
	return m, cmd
}

func (m *Model) toggleTheme() {
	name := m.app.ToggleTheme()
	m.styles = styles.New(name)
	m.syncLog()
}

// syncLog re-renders the log pane, keeping the tail in view when the user
// had not scrolled away from it.
func (m *Model) syncLog() {
	follow := m.log.AtBottom() || m.log.TotalLineCount() <= m.log.Height
	m.log.SetContent(renderLog(m.styles, m.app.Log.Lines()))
	if follow {
		m.log.GotoBottom()
	}
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	if m.pager != nil && m.pager.stream != nil {
		return m, tea.Sequence(closeStream(m.pager.stream), tea.Quit)
	}
	return m, tea.Quit
}
