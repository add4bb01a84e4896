package executil

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
)

// RecordedCommand captures a command that was executed.
type RecordedCommand struct {
	Cmd  string
	Args []string
}

// Line returns the command and its arguments joined by single spaces.
func (r RecordedCommand) Line() string {
	return strings.TrimSpace(r.Cmd + " " + strings.Join(r.Args, " "))
}

// Response is the scripted result for a recorded command.
type Response struct {
	Stdout   string
	Stderr   string
	ExitCode int
	// Err is returned as-is, simulating a launch failure when ExitCode is 0.
	Err error
}

// RecordingExecutor captures commands for testing.
//
// Responses are looked up by the full command line first ("adb -s X shell
// getprop ro.product.model") and then by command name ("adb"). Unmatched
// commands succeed with empty output.
type RecordingExecutor struct {
	mu       sync.Mutex
	Commands []RecordedCommand

	Responses map[string]Response

	// Hook, when set, runs before the response is returned. Tests use it to
	// block a command until released.
	Hook func(ctx context.Context, rec RecordedCommand)
}

// Run records the command and returns the scripted response.
func (e *RecordingExecutor) Run(ctx context.Context, cmd string, args ...string) (Output, error) {
	resp := e.record(ctx, cmd, args...)
	out := Output{
		Stdout:   []byte(resp.Stdout),
		Stderr:   []byte(resp.Stderr),
		ExitCode: resp.ExitCode,
	}
	return out, e.errorFor(ctx, cmd, resp)
}

// RunStream records the command and writes the scripted stdout and stderr.
func (e *RecordingExecutor) RunStream(ctx context.Context, stdout, stderr io.Writer, cmd string, args ...string) error {
	resp := e.record(ctx, cmd, args...)
	if resp.Stdout != "" {
		if _, err := io.WriteString(stdout, resp.Stdout); err != nil {
			return err
		}
	}
	if resp.Stderr != "" {
		if _, err := io.WriteString(stderr, resp.Stderr); err != nil {
			return err
		}
	}
	return e.errorFor(ctx, cmd, resp)
}

func (e *RecordingExecutor) errorFor(ctx context.Context, cmd string, resp Response) error {
	switch {
	case resp.Err != nil:
		return resp.Err
	case ctx.Err() != nil:
		return fmt.Errorf("exec %s: %w", cmd, ctx.Err())
	case resp.ExitCode != 0:
		return fmt.Errorf("exec %s: exit status %d", cmd, resp.ExitCode)
	}
	return nil
}

func (e *RecordingExecutor) record(ctx context.Context, cmd string, args ...string) Response {
	rec := RecordedCommand{Cmd: cmd, Args: append([]string(nil), args...)}

	e.mu.Lock()
	e.Commands = append(e.Commands, rec)
	resp, ok := e.Responses[rec.Line()]
	if !ok {
		resp = e.Responses[cmd]
	}
	hook := e.Hook
	e.mu.Unlock()

	if hook != nil {
		hook(ctx, rec)
	}
	return resp
}

// Recorded returns a snapshot of the recorded commands.
func (e *RecordingExecutor) Recorded() []RecordedCommand {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]RecordedCommand(nil), e.Commands...)
}

// Reset clears recorded commands.
func (e *RecordingExecutor) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Commands = nil
}

var _ Executor = (*RecordingExecutor)(nil)
