package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog/log"

	"github.com/hay-kot/adbdeck/internal/core/notify"
	"github.com/hay-kot/adbdeck/internal/core/styles"
)

const (
	notifyModalWidthPct  = 65
	notifyModalMinWidth  = 40
	notifyModalMaxHeight = 30
	notifyModalMargin    = 4
	notifyModalChrome    = 8 // title + divider + help + padding
)

// NotificationModal displays a scrollable history of notifications.
type NotificationModal struct {
	store    notify.Store
	viewport viewport.Model
}

// NewNotificationModal creates a modal showing notification history.
func NewNotificationModal(store notify.Store, st styles.Styles, width, height int) *NotificationModal {
	modalWidth := calcNotificationModalWidth(width)
	modalHeight := min(height-notifyModalMargin, notifyModalMaxHeight)

	m := &NotificationModal{
		store:    store,
		viewport: viewport.New(max(modalWidth-6, 1), max(modalHeight-notifyModalChrome, 1)),
	}
	m.refreshContent(st)
	return m
}

func (m *NotificationModal) refreshContent(st styles.Styles) {
	if m.store == nil {
		m.viewport.SetContent(st.Help.Render("No notifications"))
		return
	}

	history, err := m.store.List(context.Background())
	if err != nil {
		log.Error().Err(err).Msg("failed to load notification history")
		m.viewport.SetContent(st.LogError.Render(fmt.Sprintf("failed to load notifications: %v", err)))
		return
	}

	if len(history) == 0 {
		m.viewport.SetContent(st.Help.Render("No notifications"))
		return
	}

	var b strings.Builder
	for i, n := range history {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(formatNotification(st, n))
	}
	m.viewport.SetContent(b.String())
}

func formatNotification(st styles.Styles, n notify.Notification) string {
	ts := st.Help.Render(n.CreatedAt.Format("15:04:05"))
	title := levelTitle(st, n.Level).Render(n.Title)
	msg := strings.ReplaceAll(n.Message, "\n", " ")
	return fmt.Sprintf("%s %s %s", ts, title, msg)
}

func levelTitle(st styles.Styles, level notify.Level) lipgloss.Style {
	switch level {
	case notify.LevelError:
		return st.ModalErrorTitle
	case notify.LevelWarning:
		return st.ModalWarningTitle
	default:
		return st.ModalSuccessTitle
	}
}

// ScrollUp scrolls the viewport up.
func (m *NotificationModal) ScrollUp() {
	m.viewport.ScrollUp(1)
}

// ScrollDown scrolls the viewport down.
func (m *NotificationModal) ScrollDown() {
	m.viewport.ScrollDown(1)
}

// Clear deletes all notifications and refreshes the view.
func (m *NotificationModal) Clear(st styles.Styles) error {
	if m.store == nil {
		return nil
	}
	if err := m.store.Clear(context.Background()); err != nil {
		return err
	}
	m.refreshContent(st)
	return nil
}

// View renders the modal box.
func (m *NotificationModal) View(st styles.Styles, width int) string {
	modalWidth := calcNotificationModalWidth(width)

	scrollInfo := ""
	if m.viewport.TotalLineCount() > m.viewport.VisibleLineCount() {
		scrollInfo = st.Help.Render(fmt.Sprintf(" (%.0f%%)", m.viewport.ScrollPercent()*100))
	}

	divider := st.Help.Render(strings.Repeat("─", max(modalWidth-6, 1)))
	content := lipgloss.JoinVertical(
		lipgloss.Left,
		st.ModalTitleStyle.Render("Notifications"+scrollInfo),
		divider,
		m.viewport.View(),
		st.ModalHelpStyle.Render("[j/k] scroll  [D] clear all  [esc] close"),
	)

	return st.ModalStyle.Width(modalWidth).Render(content)
}

func calcNotificationModalWidth(termWidth int) int {
	available := max(termWidth-notifyModalMargin, 1)
	target := termWidth * notifyModalWidthPct / 100
	return min(max(target, notifyModalMinWidth), available)
}

// noticeView renders a single result notification that must be
// acknowledged before the next one is shown.
func noticeView(st styles.Styles, n notify.Notification, pending, width int) string {
	w := min(max(width/2, notifyModalMinWidth), max(width-notifyModalMargin, 1))

	title := n.Title
	if title == "" {
		title = string(n.Level)
	}

	help := "[enter] OK"
	if pending > 0 {
		help = fmt.Sprintf("[enter] OK  (%d more)", pending)
	}

	content := lipgloss.JoinVertical(
		lipgloss.Left,
		levelTitle(st, n.Level).Render(title),
		"",
		lipgloss.NewStyle().Width(w-6).Render(n.Message),
		st.ModalHelpStyle.Render(st.ModalButtonSelectedStyle.Render(help)),
	)
	return st.ModalStyle.Width(w).Render(content)
}
