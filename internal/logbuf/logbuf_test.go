package logbuf

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuffer_Append(t *testing.T) {
	b := New(0)
	b.Append("> Reboot: reboot")
	b.Append("first\nsecond")

	assert.Equal(t, "> Reboot: reboot\nfirst\nsecond\n", b.String())
	assert.Equal(t, []string{"> Reboot: reboot", "first", "second"}, b.Lines())
	assert.Equal(t, 3, b.Len())
}

func TestBuffer_EmptyString(t *testing.T) {
	b := New(0)
	assert.Equal(t, "", b.String())

	b.Append("")
	assert.Equal(t, "\n", b.String())
}

func TestBuffer_MaxLinesDropsOldest(t *testing.T) {
	b := New(3)
	for i := 1; i <= 5; i++ {
		b.Appendf("line-%d", i)
	}

	assert.Equal(t, []string{"line-3", "line-4", "line-5"}, b.Lines())
}

func TestBuffer_Subscribe(t *testing.T) {
	b := New(0)

	var got []string
	b.Subscribe(func(entry string) { got = append(got, entry) })

	b.Append("one")
	b.Append("two\nthree")

	assert.Equal(t, []string{"one\n", "two\nthree\n"}, got)
}

func TestBuffer_LinesIsACopy(t *testing.T) {
	b := New(0)
	b.Append("keep")

	lines := b.Lines()
	lines[0] = "mutated"

	assert.Equal(t, "keep\n", b.String())
}

func TestBuffer_ConcurrentAppendKeepsEntriesWhole(t *testing.T) {
	b := New(0)

	const writers = 20
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			b.Append(fmt.Sprintf("> Task %d: devices\nout-%d-a\nout-%d-b", i, i, i))
		}(i)
	}
	wg.Wait()

	lines := b.Lines()
	require.Len(t, lines, writers*3)

	for i := 0; i < len(lines); i += 3 {
		require.True(t, strings.HasPrefix(lines[i], "> Task "), "entry header expected at %d: %q", i, lines[i])

		var n int
		_, err := fmt.Sscanf(lines[i], "> Task %d: devices", &n)
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("out-%d-a", n), lines[i+1])
		assert.Equal(t, fmt.Sprintf("out-%d-b", n), lines[i+2])
	}
}

func TestBuffer_ExportRoundTrip(t *testing.T) {
	b := New(0)
	b.Append("> Devices: devices")
	b.Append("List of devices attached\nemulator-5554\tdevice\n")
	b.Append("unicode: héllo ✓")
	b.Append("")

	path := filepath.Join(t.TempDir(), "nested", "dir", "session.log")
	require.NoError(t, b.Export(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, b.String(), string(data))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), info.Mode().Perm()&0o644)
}

func TestBuffer_ExportOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.txt")
	require.NoError(t, os.WriteFile(path, []byte("old contents that are longer\n"), 0o644))

	b := New(0)
	b.Append("new")
	require.NoError(t, b.Export(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "new\n", string(data))
}

func TestBuffer_ExportErrors(t *testing.T) {
	b := New(0)
	require.Error(t, b.Export(""))

	// A regular file cannot be used as a parent directory.
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))
	require.Error(t, b.Export(filepath.Join(blocker, "log.txt")))
}

func TestBuffer_WriteTo(t *testing.T) {
	b := New(0)
	b.Append("a")

	var buf bytes.Buffer
	n, err := b.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.Equal(t, "a\n", buf.String())
}
