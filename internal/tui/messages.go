package tui

import (
	"context"
	"errors"
	"strings"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/hay-kot/adbdeck/internal/app"
	"github.com/hay-kot/adbdeck/internal/core/notify"
	"github.com/hay-kot/adbdeck/internal/device"
	"github.com/hay-kot/adbdeck/internal/dispatch"
)

// streamBatch caps the lines delivered in one streamLinesMsg.
const streamBatch = 256

type (
	// deviceMsg reports a finished device refresh.
	deviceMsg struct{ status device.Status }
	// taskDoneMsg reports a finished dispatch that has already been recorded.
	taskDoneMsg struct{ res dispatch.Result }
	// opDoneMsg reports a finished composite operation.
	opDoneMsg struct {
		label string
		err   error
	}
	// pagerMsg opens the pager with static content.
	pagerMsg struct {
		title string
		body  string
	}
	streamLinesMsg struct {
		stream *dispatch.Stream
		lines  []string
		done   bool
	}
	streamEndedMsg struct {
		stream *dispatch.Stream
		err    error
	}
)

func refreshDevice(ctx context.Context, a *app.App, preferred string) tea.Cmd {
	return func() tea.Msg {
		return deviceMsg{status: a.RefreshDevice(ctx, preferred)}
	}
}

// waitTask records the task's result once it finishes.
func waitTask(a *app.App, task *dispatch.Task) tea.Cmd {
	return func() tea.Msg {
		res := task.Wait()
		a.Record(res)
		return taskDoneMsg{res: res}
	}
}

// runOp runs a blocking app operation off the update loop.
func runOp(label string, fn func() error) tea.Cmd {
	return func() tea.Msg {
		return opDoneMsg{label: label, err: fn()}
	}
}

// waitLines reads the next batch of stream output.
func waitLines(s *dispatch.Stream) tea.Cmd {
	return func() tea.Msg {
		line, ok := <-s.Lines()
		if !ok {
			return streamLinesMsg{stream: s, done: true}
		}

		batch := []string{line}
		for len(batch) < streamBatch {
			select {
			case line, ok := <-s.Lines():
				if !ok {
					return streamLinesMsg{stream: s, lines: batch, done: true}
				}
				batch = append(batch, line)
			default:
				return streamLinesMsg{stream: s, lines: batch}
			}
		}
		return streamLinesMsg{stream: s, lines: batch}
	}
}

// endStream reaps a stream that finished on its own.
func endStream(s *dispatch.Stream) tea.Cmd {
	return func() tea.Msg {
		return streamEndedMsg{stream: s, err: s.Wait()}
	}
}

// closeStream detaches from a stream the user closed.
func closeStream(s *dispatch.Stream) tea.Cmd {
	return func() tea.Msg {
		s.Close()
		return streamEndedMsg{stream: s, err: s.Wait()}
	}
}

// copyText writes text to the system clipboard and reports the outcome.
func copyText(bus *notify.Bus, what, text string) tea.Cmd {
	return func() tea.Msg {
		if strings.TrimSpace(text) == "" {
			bus.Notify(notify.LevelWarning, "Copy", "Nothing to copy.")
			return nil
		}
		if err := clipboard.WriteAll(text); err != nil {
			bus.Notify(notify.LevelError, "Copy", "Clipboard unavailable: "+err.Error())
			return nil
		}
		bus.Notify(notify.LevelInfo, "Copied", what+" copied to clipboard.")
		return nil
	}
}

func isDetached(err error) bool {
	return errors.Is(err, dispatch.ErrStreamClosed)
}
