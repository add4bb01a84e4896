package tui

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/hay-kot/adbdeck/internal/core/styles"
	"github.com/hay-kot/adbdeck/internal/core/validate"
)

// promptWidth caps the width of prompt forms.
const promptWidth = 64

// prompt is a modal huh form. submit runs once the form completes; cancel,
// when set, runs if the user aborts it.
type prompt struct {
	title  string
	form   *huh.Form
	submit func() tea.Cmd
	cancel func() tea.Cmd
}

func newPrompt(title, theme string, width int, groups ...*huh.Group) *prompt {
	form := huh.NewForm(groups...).
		WithShowHelp(false).
		WithWidth(min(promptWidth, max(width-8, 20))).
		WithTheme(huhTheme(theme))
	return &prompt{title: title, form: form}
}

func huhTheme(name string) *huh.Theme {
	if name == styles.Dark {
		return huh.ThemeCharm()
	}
	return huh.ThemeBase()
}

func requiredField(s string) error {
	return validate.Required(s)
}

// flashPrompt asks for a partition and an image, then confirms. The
// partition is validated by the flash operation so a bad name is reported
// like every other input error.
func (m Model) flashPrompt() *prompt {
	var (
		partition string
		image     string
		confirm   bool
	)

	p := newPrompt("Flash", m.app.Theme(), m.width,
		huh.NewGroup(
			huh.NewInput().
				Title("Partition").
				Description("Partition name, for example boot or recovery.").
				Value(&partition),
			huh.NewInput().
				Title("Image").
				Description("Path to the image file.").
				Validate(requiredField).
				Value(&image),
			huh.NewConfirm().
				TitleFunc(func() string {
					return fmt.Sprintf("Flash %s?", strings.TrimSpace(partition))
				}, &partition).
				Affirmative("Flash").
				Negative("Cancel").
				Value(&confirm),
		),
	)
	p.submit = func() tea.Cmd {
		if !confirm {
			return nil
		}
		part, img := strings.TrimSpace(partition), strings.TrimSpace(image)
		return m.startOp("Flash", func() error { return m.app.Flash(m.ctx, part, img) })
	}
	return p
}

func (m Model) installPrompt() *prompt {
	var apk string
	p := newPrompt("Install APK", m.app.Theme(), m.width,
		huh.NewGroup(
			huh.NewInput().Title("APK path").Validate(requiredField).Value(&apk),
		),
	)
	p.submit = func() tea.Cmd {
		req, err := m.app.Actions.Install(m.app.Serial(), strings.TrimSpace(apk))
		if err != nil {
			m.app.Fail("Install APK", err)
			return nil
		}
		return m.startTask(m.app.Submit(m.ctx, req))
	}
	return p
}

func (m Model) pushPrompt() *prompt {
	var local, remote string
	remote = "/sdcard/"
	p := newPrompt("Push File", m.app.Theme(), m.width,
		huh.NewGroup(
			huh.NewInput().Title("Local file").Validate(requiredField).Value(&local),
			huh.NewInput().Title("Device destination").Validate(requiredField).Value(&remote),
		),
	)
	p.submit = func() tea.Cmd {
		req, err := m.app.Actions.Push(m.app.Serial(), strings.TrimSpace(local), strings.TrimSpace(remote))
		if err != nil {
			m.app.Fail("Push File", err)
			return nil
		}
		return m.startTask(m.app.Submit(m.ctx, req))
	}
	return p
}

func (m Model) pullPrompt() *prompt {
	var remote, local string
	local = "."
	p := newPrompt("Pull File", m.app.Theme(), m.width,
		huh.NewGroup(
			huh.NewInput().Title("Device path").Validate(requiredField).Value(&remote),
			huh.NewInput().Title("Save to").Validate(requiredField).Value(&local),
		),
	)
	p.submit = func() tea.Cmd {
		req, err := m.app.Actions.Pull(m.app.Serial(), strings.TrimSpace(remote), strings.TrimSpace(local))
		if err != nil {
			m.app.Fail("Pull File", err)
			return nil
		}
		return m.startTask(m.app.Submit(m.ctx, req))
	}
	return p
}

func (m Model) scriptPrompt() *prompt {
	var path string
	p := newPrompt("Run Script", m.app.Theme(), m.width,
		huh.NewGroup(
			huh.NewInput().
				Title("Shell script").
				Description("Pushed to the device and run with sh.").
				Validate(requiredField).
				Value(&path),
		),
	)
	p.submit = func() tea.Cmd {
		path := strings.TrimSpace(path)
		return m.startOp("Run Script", func() error { return m.app.RunScript(m.ctx, path) })
	}
	return p
}

func (m Model) exportPrompt(now time.Time) *prompt {
	path := fmt.Sprintf("adbdeck-log-%s.txt", now.Format("20060102-150405"))
	if dir := m.app.Config.DataDir; dir != "" {
		path = filepath.Join(dir, "logs", path)
	}
	p := newPrompt("Save Logs", m.app.Theme(), m.width,
		huh.NewGroup(
			huh.NewInput().Title("Save log to").Validate(requiredField).Value(&path),
		),
	)
	p.submit = func() tea.Cmd {
		path := strings.TrimSpace(path)
		return m.startOp("Save Logs", func() error { return m.app.ExportLog(path) })
	}
	return p
}

func (m Model) screenshotPrompt() *prompt {
	path := m.app.Actions.DefaultScreenshotPath()
	p := newPrompt("Screenshot", m.app.Theme(), m.width,
		huh.NewGroup(
			huh.NewInput().Title("Save screenshot to").Validate(requiredField).Value(&path),
		),
	)
	p.submit = func() tea.Cmd {
		path := strings.TrimSpace(path)
		return m.startOp("Screenshot", func() error {
			_, err := m.app.Screenshot(m.ctx, path)
			return err
		})
	}
	return p
}

// devicePrompt asks which of several attached devices to use.
func (m Model) devicePrompt(candidates []string) *prompt {
	var serial string
	if len(candidates) > 0 {
		serial = candidates[0]
	}
	p := newPrompt("Select Device", m.app.Theme(), m.width,
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Multiple devices detected").
				Options(huh.NewOptions(candidates...)...).
				Value(&serial),
		),
	)
	p.submit = func() tea.Cmd {
		return m.startRefresh(serial)
	}
	p.cancel = func() tea.Cmd {
		m.app.CancelDeviceChoice()
		return nil
	}
	return p
}
