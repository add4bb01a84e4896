package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hay-kot/adbdeck/internal/core/styles"
	"github.com/hay-kot/adbdeck/internal/dispatch"
)

// defaultPagerLines bounds a streaming pager when no log limit is configured.
const defaultPagerLines = 5000

// pager is a full-screen scrollable view for command output. A streaming
// pager owns its stream and follows the tail until the user scrolls up.
type pager struct {
	title    string
	vp       viewport.Model
	lines    []string
	stream   *dispatch.Stream
	ended    bool
	maxLines int
}

func newPager(title, body string, width, height int) *pager {
	p := &pager{title: title, vp: viewport.New(width, height), ended: true}
	p.lines = strings.Split(strings.TrimRight(body, "\n"), "\n")
	p.resize(width, height)
	p.vp.SetContent(strings.Join(p.lines, "\n"))
	return p
}

func newStreamPager(title string, s *dispatch.Stream, maxLines, width, height int) *pager {
	if maxLines <= 0 {
		maxLines = defaultPagerLines
	}
	p := &pager{title: title, vp: viewport.New(width, height), stream: s, maxLines: maxLines}
	p.resize(width, height)
	return p
}

// resize fits the viewport inside the pager chrome.
func (p *pager) resize(width, height int) {
	p.vp.Width = max(width-2, 1)
	p.vp.Height = max(height-4, 1)
}

func (p *pager) appendLines(lines []string) {
	follow := p.vp.AtBottom()
	p.lines = append(p.lines, lines...)
	if over := len(p.lines) - p.maxLines; p.maxLines > 0 && over > 0 {
		p.lines = append([]string(nil), p.lines[over:]...)
	}
	p.vp.SetContent(strings.Join(p.lines, "\n"))
	if follow {
		p.vp.GotoBottom()
	}
}

func (p *pager) Text() string {
	return strings.Join(p.lines, "\n")
}

func (p *pager) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	p.vp, cmd = p.vp.Update(msg)
	return cmd
}

func (p *pager) View(st styles.Styles) string {
	state := ""
	switch {
	case p.stream != nil && !p.ended:
		state = " (streaming)"
	case p.stream != nil:
		state = " (ended)"
	}

	title := st.PagerTitle.Render(p.title + state)
	scroll := st.Help.Render(fmt.Sprintf(" %d lines  %.0f%%", len(p.lines), p.vp.ScrollPercent()*100))
	help := st.Help.Render("[↑/↓] scroll  [y] copy  [esc] close")

	return lipgloss.JoinVertical(lipgloss.Left,
		title+scroll,
		st.PagerPane.Render(p.vp.View()),
		help,
	)
}
