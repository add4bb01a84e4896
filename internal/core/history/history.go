// Package history keeps the free-form commands entered during a session.
package history

import "sync"

// History is an append-only, in-memory list of entered commands. It is never
// deduplicated or persisted. The zero value is ready to use.
//
// The recall cursor mirrors shell behaviour: Prev walks toward older entries,
// Next walks back toward the empty prompt. Appending resets the cursor.
type History struct {
	mu      sync.Mutex
	entries []string
	cursor  int // index into entries; len(entries) means "past the newest"
}

// New returns an empty History.
func New() *History {
	return &History{}
}

// Append records cmd. Blank lines are recorded as given; callers validate
// input before it reaches history.
func (h *History) Append(cmd string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.entries = append(h.entries, cmd)
	h.cursor = len(h.entries)
}

// Commands returns the recorded command strings, oldest first.
func (h *History) Commands() []string {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]string, len(h.entries))
	copy(out, h.entries)
	return out
}

// Len returns the number of recorded commands.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}

// Prev moves the cursor one entry older and returns it. At the oldest entry
// it keeps returning that entry. ok is false when history is empty.
func (h *History) Prev() (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.entries) == 0 {
		return "", false
	}
	if h.cursor > 0 {
		h.cursor--
	}
	return h.entries[h.cursor], true
}

// Next moves the cursor one entry newer. Moving past the newest entry
// returns "" with ok false so the caller can clear its input.
func (h *History) Next() (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.cursor < len(h.entries) {
		h.cursor++
	}
	if h.cursor >= len(h.entries) {
		return "", false
	}
	return h.entries[h.cursor], true
}

// ResetCursor moves the cursor past the newest entry.
func (h *History) ResetCursor() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.cursor = len(h.entries)
}
