package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up            key.Binding
	Down          key.Binding
	Left          key.Binding
	Right         key.Binding
	Activate      key.Binding
	FocusInput    key.Binding
	Blur          key.Binding
	Theme         key.Binding
	Notifications key.Binding
	Copy          key.Binding
	ScrollUp      key.Binding
	ScrollDown    key.Binding
	Clear         key.Binding
	Quit          key.Binding
	ForceQuit     key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up:            key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:          key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Left:          key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "left")),
		Right:         key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "right")),
		Activate:      key.NewBinding(key.WithKeys("enter", " "), key.WithHelp("enter", "run")),
		FocusInput:    key.NewBinding(key.WithKeys("/", ":", "tab"), key.WithHelp("/", "command")),
		Blur:          key.NewBinding(key.WithKeys("esc", "tab"), key.WithHelp("esc", "back")),
		Theme:         key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "theme")),
		Notifications: key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "notifications")),
		Copy:          key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy")),
		ScrollUp:      key.NewBinding(key.WithKeys("pgup", "ctrl+u"), key.WithHelp("pgup", "scroll up")),
		ScrollDown:    key.NewBinding(key.WithKeys("pgdown", "ctrl+d"), key.WithHelp("pgdn", "scroll down")),
		Clear:         key.NewBinding(key.WithKeys("D"), key.WithHelp("D", "clear all")),
		Quit:          key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit")),
		ForceQuit:     key.NewBinding(key.WithKeys("ctrl+c")),
	}
}

// helpLine renders the bindings shown under the log.
func (k keyMap) helpLine() []key.Binding {
	return []key.Binding{k.Activate, k.FocusInput, k.Theme, k.Notifications, k.Copy, k.ScrollUp, k.Quit}
}
