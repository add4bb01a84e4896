// Package dispatch runs adb and fastboot invocations off the render loop and
// turns every invocation into exactly one Result.
package dispatch

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Tool selects which external executable a request runs.
type Tool int

const (
	// ADB is the device bridge used while the device is booted.
	ADB Tool = iota
	// Fastboot is the bootloader-mode flashing utility.
	Fastboot
)

func (t Tool) String() string {
	switch t {
	case ADB:
		return "adb"
	case Fastboot:
		return "fastboot"
	default:
		return fmt.Sprintf("tool(%d)", int(t))
	}
}

// Tools maps each Tool to the executable path resolved at startup.
type Tools struct {
	ADB      string
	Fastboot string
}

// Path returns the executable for t.
func (ts Tools) Path(t Tool) string {
	if t == Fastboot {
		return ts.Fastboot
	}
	return ts.ADB
}

// ErrEmptyCommand is returned when a request carries no arguments where
// arguments are required.
var ErrEmptyCommand = errors.New("command is empty")

// Request is a single external tool invocation. Build with NewRequest; the
// argument slice is copied so callers can not mutate a request after the fact.
type Request struct {
	id    string
	tool  Tool
	args  []string
	label string
}

// NewRequest builds a request with a fresh ID. Zero arguments are only
// valid for ADB.
func NewRequest(tool Tool, label string, args ...string) (Request, error) {
	if len(args) == 0 && tool != ADB {
		return Request{}, fmt.Errorf("%s: %w", tool, ErrEmptyCommand)
	}
	if label == "" {
		label = tool.String()
	}
	return Request{
		id:    uuid.NewString(),
		tool:  tool,
		args:  append([]string(nil), args...),
		label: label,
	}, nil
}

// MustRequest is NewRequest for argument vectors known to be valid.
func MustRequest(tool Tool, label string, args ...string) Request {
	req, err := NewRequest(tool, label, args...)
	if err != nil {
		panic(err)
	}
	return req
}

func (r Request) ID() string     { return r.id }
func (r Request) Tool() Tool     { return r.tool }
func (r Request) Label() string  { return r.label }
func (r Request) Args() []string { return append([]string(nil), r.args...) }

// CommandLine renders the invocation for display.
func (r Request) CommandLine() string {
	return strings.TrimSpace(r.tool.String() + " " + strings.Join(r.args, " "))
}

func (r Request) validate() error {
	if r.id == "" {
		return errors.New("request was not built with NewRequest")
	}
	if len(r.args) == 0 && r.tool != ADB {
		return fmt.Errorf("%s: %w", r.tool, ErrEmptyCommand)
	}
	return nil
}

// Target prefixes args with "-s serial" when serial is set. Both adb and
// fastboot accept the flag before the subcommand.
func Target(serial string, args ...string) []string {
	if serial == "" {
		return append([]string(nil), args...)
	}
	return append([]string{"-s", serial}, args...)
}

// Kind classifies how a command ended.
type Kind string

const (
	KindOK       Kind = "ok"
	KindExit     Kind = "exit"     // process ran and exited non-zero
	KindLaunch   Kind = "launch"   // process could not be started
	KindCanceled Kind = "canceled" // cancelled or timed out
	KindInvalid  Kind = "invalid"  // request rejected before launch
)

// Exit codes synthesized for results where the process never reported one.
const (
	LaunchFailedCode = -1
	CanceledCode     = -2
	InvalidCode      = -3
)

// Result is the captured outcome of one Request.
type Result struct {
	RequestID string
	Label     string
	Tool      Tool
	Args      []string
	Stdout    string
	Stderr    string
	ExitCode  int
	Err       error
	Kind      Kind
	Started   time.Time
	Finished  time.Time
}

// Succeeded reports whether the process exited with status zero.
func (r Result) Succeeded() bool {
	return r.ExitCode == 0
}

// Duration is the wall time between launch and completion.
func (r Result) Duration() time.Duration {
	return r.Finished.Sub(r.Started)
}

// CommandLine renders the invocation for display.
func (r Result) CommandLine() string {
	return strings.TrimSpace(r.Tool.String() + " " + strings.Join(r.Args, " "))
}

// Combined joins trimmed stdout and stderr, skipping empty parts.
func (r Result) Combined() string {
	parts := make([]string, 0, 2)
	if s := strings.TrimSpace(r.Stdout); s != "" {
		parts = append(parts, s)
	}
	if s := strings.TrimSpace(r.Stderr); s != "" {
		parts = append(parts, s)
	}
	return strings.Join(parts, "\n")
}

func newResult(req Request) Result {
	return Result{
		RequestID: req.id,
		Label:     req.label,
		Tool:      req.tool,
		Args:      append([]string(nil), req.args...),
		Started:   time.Now(),
	}
}

// fail finalizes a result for a command that produced no exit status.
func (r Result) fail(kind Kind, code int, err error) Result {
	r.Kind = kind
	r.ExitCode = code
	r.Err = err
	if msg := err.Error(); !strings.Contains(r.Stderr, msg) {
		if r.Stderr != "" && !strings.HasSuffix(r.Stderr, "\n") {
			r.Stderr += "\n"
		}
		r.Stderr += msg
	}
	r.Finished = time.Now()
	return r
}
