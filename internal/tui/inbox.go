package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/hay-kot/adbdeck/internal/core/notify"
)

// inboxMsg carries everything published since the previous delivery.
type inboxMsg struct {
	logChanged bool
	notes      []notify.Notification
}

// inbox collects log and notification events from worker goroutines and
// hands them to the update loop one batch at a time. Producers never block,
// so app methods are safe to call from Update as well as from commands.
type inbox struct {
	mu         sync.Mutex
	logChanged bool
	notes      []notify.Notification
	signal     chan struct{}
}

func newInbox() *inbox {
	return &inbox{signal: make(chan struct{}, 1)}
}

func (i *inbox) markLog() {
	i.mu.Lock()
	i.logChanged = true
	i.mu.Unlock()
	i.wake()
}

func (i *inbox) push(n notify.Notification) {
	i.mu.Lock()
	i.notes = append(i.notes, n)
	i.mu.Unlock()
	i.wake()
}

func (i *inbox) wake() {
	select {
	case i.signal <- struct{}{}:
	default:
	}
}

func (i *inbox) drain() inboxMsg {
	i.mu.Lock()
	defer i.mu.Unlock()
	msg := inboxMsg{logChanged: i.logChanged, notes: i.notes}
	i.logChanged = false
	i.notes = nil
	return msg
}

// wait blocks until something was published. The update loop re-issues it
// after every delivery.
func (i *inbox) wait() tea.Cmd {
	return func() tea.Msg {
		<-i.signal
		return i.drain()
	}
}
