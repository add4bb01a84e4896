// Package executil provides process execution utilities.
package executil

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"time"
)

// waitDelay bounds how long Wait keeps copying output after the child was
// killed. A grandchild holding the pipe open (adb forks its server) would
// otherwise keep Wait blocked.
const waitDelay = 2 * time.Second

// Output is the captured result of a finished command.
type Output struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}

// Executor runs external commands.
type Executor interface {
	// Run executes a command and captures stdout and stderr separately.
	// A non-zero exit returns the populated Output together with an error
	// wrapping *exec.ExitError.
	Run(ctx context.Context, cmd string, args ...string) (Output, error)
	// RunStream executes a command and streams stdout/stderr to the provided writers.
	RunStream(ctx context.Context, stdout, stderr io.Writer, cmd string, args ...string) error
}

// RealExecutor calls actual commands.
type RealExecutor struct{}

// Run executes a command and returns its captured output.
func (e *RealExecutor) Run(ctx context.Context, cmd string, args ...string) (Output, error) {
	c := exec.CommandContext(ctx, cmd, args...)
	c.WaitDelay = waitDelay

	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr

	err := c.Run()

	// ExitCode is -1 when the process never started or was killed by a signal.
	out := Output{
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
		ExitCode: c.ProcessState.ExitCode(),
	}
	if err != nil {
		return out, fmt.Errorf("exec %s: %w", cmd, err)
	}
	return out, nil
}

// RunStream executes a command and streams stdout/stderr to the provided writers.
// Passing the same writer for both merges the streams in arrival order.
func (e *RealExecutor) RunStream(ctx context.Context, stdout, stderr io.Writer, cmd string, args ...string) error {
	c := exec.CommandContext(ctx, cmd, args...)
	c.WaitDelay = waitDelay
	c.Stdout = stdout
	c.Stderr = stderr
	if err := c.Run(); err != nil {
		return fmt.Errorf("exec %s: %w", cmd, err)
	}
	return nil
}

var _ Executor = (*RealExecutor)(nil)
