package dispatch

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hay-kot/adbdeck/pkg/executil"
)

func collect(t *testing.T, s *Stream) []string {
	t.Helper()
	var lines []string
	timeout := time.After(10 * time.Second)
	for {
		select {
		case line, ok := <-s.Lines():
			if !ok {
				return lines
			}
			lines = append(lines, line)
		case <-timeout:
			t.Fatal("timed out waiting for stream to end")
		}
	}
}

func TestStream_DeliversAllLinesInOrder(t *testing.T) {
	const n = 500
	d := New(&executil.RealExecutor{}, Tools{ADB: "sh"}, Options{StreamBuffer: 8})

	script := fmt.Sprintf("i=1; while [ $i -le %d ]; do echo line-$i; i=$((i+1)); done", n)
	s, err := d.Stream(context.Background(), MustRequest(ADB, "Logcat", "-c", script))
	require.NoError(t, err)

	lines := collect(t, s)
	require.NoError(t, s.Wait())

	require.Len(t, lines, n)
	for i, line := range lines {
		assert.Equal(t, fmt.Sprintf("line-%d", i+1), line)
	}
}

func TestStream_MergesStderr(t *testing.T) {
	d := New(&executil.RealExecutor{}, Tools{ADB: "sh"}, Options{})

	s, err := d.Stream(context.Background(), MustRequest(ADB, "Logcat", "-c", "echo out; sleep 0.05; echo err >&2"))
	require.NoError(t, err)

	assert.Equal(t, []string{"out", "err"}, collect(t, s))
	require.NoError(t, s.Wait())
}

func TestStream_SplitsLongLines(t *testing.T) {
	tests := []struct {
		name   string
		size   int
		chunks []int
	}{
		{name: "uneven", size: 2*maxLineSize + 10, chunks: []int{maxLineSize, maxLineSize, 10}},
		{name: "exact multiple", size: 2 * maxLineSize, chunks: []int{maxLineSize, maxLineSize}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := New(&executil.RealExecutor{}, Tools{ADB: "sh"}, Options{StreamBuffer: 4})

			script := fmt.Sprintf("echo before; head -c %d /dev/zero | tr '\\0' a; echo; echo after; sleep 0.1; echo last", tt.size)
			s, err := d.Stream(context.Background(), MustRequest(ADB, "Logcat", "-c", script))
			require.NoError(t, err)

			lines := collect(t, s)
			require.NoError(t, s.Wait())

			require.Len(t, lines, len(tt.chunks)+3)
			assert.Equal(t, "before", lines[0])
			for i, n := range tt.chunks {
				assert.Len(t, lines[i+1], n)
				assert.Empty(t, strings.Trim(lines[i+1], "a"))
			}
			assert.Equal(t, []string{"after", "last"}, lines[len(lines)-2:])
		})
	}
}

func TestStream_CloseTerminatesProcess(t *testing.T) {
	d := New(&executil.RealExecutor{}, Tools{ADB: "sh"}, Options{StreamBuffer: 1})

	s, err := d.Stream(context.Background(), MustRequest(ADB, "Logcat", "-c", "while true; do echo tick; sleep 0.01; done"))
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		select {
		case line := <-s.Lines():
			assert.Equal(t, "tick", line)
		case <-time.After(5 * time.Second):
			t.Fatal("no output from stream")
		}
	}

	done := make(chan struct{})
	go func() {
		s.Close()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("Close did not return")
	}

	// Whatever was buffered before Close is dropped once the channel drains.
	collect(t, s)
	assert.ErrorIs(t, s.Wait(), ErrStreamClosed)

	// Close is idempotent.
	s.Close()
}

func TestStream_LaunchFailureSurfacesOnWait(t *testing.T) {
	d := New(&executil.RealExecutor{}, Tools{ADB: "/nonexistent/adb-12345"}, Options{})

	s, err := d.Stream(context.Background(), MustRequest(ADB, "Logcat", "logcat"))
	require.NoError(t, err)

	assert.Empty(t, collect(t, s))
	require.Error(t, s.Wait())
	assert.NotErrorIs(t, s.Wait(), ErrStreamClosed)
}

func TestStream_RejectsInvalidRequest(t *testing.T) {
	d := New(&executil.RecordingExecutor{}, testTools, Options{})

	_, err := d.Stream(context.Background(), Request{})
	require.Error(t, err)
}

func TestStream_RecordingExecutor(t *testing.T) {
	rec := &executil.RecordingExecutor{
		Responses: map[string]executil.Response{
			"adb logcat": {Stdout: "I/one\nW/two\nE/three\n"},
		},
	}
	d := New(rec, testTools, Options{})

	s, err := d.Stream(context.Background(), MustRequest(ADB, "Logcat", "logcat"))
	require.NoError(t, err)

	assert.Equal(t, []string{"I/one", "W/two", "E/three"}, collect(t, s))
	require.NoError(t, s.Wait())
}
