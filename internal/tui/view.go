package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/hay-kot/adbdeck/internal/core/styles"
	"github.com/hay-kot/adbdeck/internal/device"
)

// Fixed rows around the log pane: title, status, input box (3), help and
// the log border (2).
const chromeRows = 8

// buttonRows is the height of one bordered grid row.
const buttonRows = 3

func (m *Model) layout() {
	rows := (len(m.buttons) + gridColumns - 1) / gridColumns
	m.log.Width = max(m.width-2, 1)
	m.log.Height = max(m.height-chromeRows-rows*buttonRows, 3)
	m.input.Width = max(m.width-6, 10)
	m.syncLog()
}

func (m Model) View() string {
	if m.pager != nil && m.prompt == nil && len(m.notices) == 0 {
		return m.pager.View(m.styles)
	}

	base := m.mainView()
	switch {
	case len(m.notices) > 0:
		return m.overlay(noticeView(m.styles, m.notices[0], len(m.notices)-1, m.width))
	case m.prompt != nil:
		title := m.styles.ModalTitleStyle.Render(m.prompt.title)
		help := m.styles.ModalHelpStyle.Render("[enter] next  [esc] cancel")
		box := m.styles.ModalStyle.Render(lipgloss.JoinVertical(lipgloss.Left, title, "", m.prompt.form.View(), help))
		return m.overlay(box)
	case m.history != nil:
		return m.overlay(m.history.View(m.styles, m.width))
	}
	return base
}

// overlay centers a modal box in the terminal. lipgloss v1 has no layer
// compositor, so the modal replaces the main view while it is open.
func (m Model) overlay(box string) string {
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

func (m Model) mainView() string {
	st := m.styles

	header := st.Title.Render("adbdeck") + "  " + st.Help.Render("theme: "+st.Name)

	status := m.app.Status()
	statusLine := st.Status.Render(status.String())
	if status.Kind != device.StatusConnected {
		statusLine = st.StatusWarn.Render(status.String())
	}
	if n := m.Busy(); n > 0 {
		statusLine += "  " + m.spinner.View() + st.Help.Render(fmt.Sprintf("running %d", n))
	}

	inputLabel := st.InputLabel.Render("Command")
	if m.focus == focusInput {
		inputLabel = st.Title.Render("Command")
	}
	input := st.Input.Width(max(m.width-4, 10)).Render(m.input.View())

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		statusLine,
		m.gridView(),
		inputLabel,
		input,
		st.LogPane.Render(m.log.View()),
		m.helpView(),
	)
}

func (m Model) gridView() string {
	st := m.styles
	cell := max((m.width-1)/gridColumns-2, 8)

	var rows []string
	for start := 0; start < len(m.buttons); start += gridColumns {
		end := min(start+gridColumns, len(m.buttons))
		cells := make([]string, 0, gridColumns)
		for i := start; i < end; i++ {
			style := st.Button
			if i == m.selected && m.focus == focusButtons {
				style = st.ButtonSelected
			}
			cells = append(cells, style.Width(cell).MaxHeight(buttonRows).Render(m.buttons[i].Title()))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (m Model) helpView() string {
	var parts []string
	for _, b := range m.keys.helpLine() {
		h := b.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	if m.focus == focusInput {
		parts = []string{"enter run", "↑/↓ history", "esc back"}
	}
	return m.styles.Help.Render(strings.Join(parts, " • "))
}

// renderLog colours command headers and error lines.
func renderLog(st styles.Styles, lines []string) string {
	var b strings.Builder
	for i, line := range lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		switch {
		case strings.HasPrefix(line, "> "):
			b.WriteString(st.LogCommand.Render(line))
		case strings.HasPrefix(line, "Error:"), strings.HasPrefix(line, styles.IconFail):
			b.WriteString(st.LogError.Render(line))
		default:
			b.WriteString(line)
		}
	}
	return b.String()
}

