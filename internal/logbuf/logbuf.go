// Package logbuf holds the session log shown in the output pane and written
// by log export.
package logbuf

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Subscriber is called with every appended entry, including its trailing
// newline. It runs on the appending goroutine after the buffer lock is released.
type Subscriber func(entry string)

// Buffer is an append-only text log. Each Append writes one entry under a
// lock, so concurrent writers interleave only at entry boundaries.
type Buffer struct {
	maxLines int

	mu    sync.Mutex
	lines []string
	subs  []Subscriber
}

// New creates a Buffer. maxLines caps the retained lines, dropping the
// oldest first; zero or less keeps everything.
func New(maxLines int) *Buffer {
	return &Buffer{maxLines: maxLines}
}

// Append writes text followed by a newline as one entry.
func (b *Buffer) Append(text string) {
	entry := text + "\n"
	lines := strings.Split(text, "\n")

	b.mu.Lock()
	b.lines = append(b.lines, lines...)
	if b.maxLines > 0 && len(b.lines) > b.maxLines {
		b.lines = append([]string(nil), b.lines[len(b.lines)-b.maxLines:]...)
	}
	subs := make([]Subscriber, len(b.subs))
	copy(subs, b.subs)
	b.mu.Unlock()

	for _, fn := range subs {
		fn(entry)
	}
}

// Appendf formats according to a format specifier and appends the result.
func (b *Buffer) Appendf(format string, args ...any) {
	b.Append(fmt.Sprintf(format, args...))
}

// Subscribe registers fn to be called after every Append.
func (b *Buffer) Subscribe(fn Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = append(b.subs, fn)
}

// Lines returns a copy of the retained lines without newlines.
func (b *Buffer) Lines() []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]string, len(b.lines))
	copy(out, b.lines)
	return out
}

// Len returns the number of retained lines.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.lines)
}

// String returns the buffer contents exactly as Export writes them.
func (b *Buffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.render()
}

func (b *Buffer) render() string {
	var sb strings.Builder
	for _, line := range b.lines {
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
	return sb.String()
}

// WriteTo writes the buffer contents to w.
func (b *Buffer) WriteTo(w io.Writer) (int64, error) {
	n, err := io.WriteString(w, b.String())
	return int64(n), err
}

// Export writes the buffer verbatim to path, creating parent directories.
// An existing file is replaced.
func (b *Buffer) Export(path string) error {
	if path == "" {
		return fmt.Errorf("export log: empty path")
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("export log: create directory: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("export log: %w", err)
	}
	if _, err := b.WriteTo(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("export log: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("export log: %w", err)
	}
	return nil
}
