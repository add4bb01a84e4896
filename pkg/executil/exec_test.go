package executil

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRealExecutor_Run(t *testing.T) {
	exec := &RealExecutor{}
	ctx := context.Background()

	t.Run("captures stdout and stderr separately", func(t *testing.T) {
		out, err := exec.Run(ctx, "sh", "-c", "echo out; echo err >&2")
		require.NoError(t, err)
		assert.Equal(t, "out\n", string(out.Stdout))
		assert.Equal(t, "err\n", string(out.Stderr))
		assert.Equal(t, 0, out.ExitCode)
	})

	t.Run("command not found", func(t *testing.T) {
		out, err := exec.Run(ctx, "nonexistent-command-12345")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "exec nonexistent-command-12345")
		assert.Equal(t, -1, out.ExitCode)
	})

	t.Run("non-zero exit keeps output and exit code", func(t *testing.T) {
		out, err := exec.Run(ctx, "sh", "-c", "echo partial; exit 3")
		require.Error(t, err)
		assert.Equal(t, "partial\n", string(out.Stdout))
		assert.Equal(t, 3, out.ExitCode)
	})
}

func TestRealExecutor_RunPreservesExitError(t *testing.T) {
	_, err := (&RealExecutor{}).Run(context.Background(), "sh", "-c", "exit 2")
	require.Error(t, err)

	var exitErr *exec.ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 2, exitErr.ExitCode())
}

func TestRealExecutor_RunStream(t *testing.T) {
	var buf bytes.Buffer
	err := (&RealExecutor{}).RunStream(context.Background(), &buf, &buf, "sh", "-c", "echo one; echo two >&2")
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "one\n")
	assert.Contains(t, buf.String(), "two\n")
}

func TestRecordingExecutor(t *testing.T) {
	t.Run("records commands", func(t *testing.T) {
		exec := &RecordingExecutor{}
		ctx := context.Background()

		_, _ = exec.Run(ctx, "adb", "devices")
		_, _ = exec.Run(ctx, "fastboot", "devices")

		require.Len(t, exec.Commands, 2)
		assert.Equal(t, "adb", exec.Commands[0].Cmd)
		assert.Equal(t, []string{"devices"}, exec.Commands[0].Args)
		assert.Equal(t, "fastboot devices", exec.Commands[1].Line())
	})

	t.Run("full line response wins over command name", func(t *testing.T) {
		exec := &RecordingExecutor{
			Responses: map[string]Response{
				"adb":         {Stdout: "generic"},
				"adb devices": {Stdout: "specific"},
			},
		}

		out, err := exec.Run(context.Background(), "adb", "devices")
		require.NoError(t, err)
		assert.Equal(t, "specific", string(out.Stdout))

		out, err = exec.Run(context.Background(), "adb", "reboot")
		require.NoError(t, err)
		assert.Equal(t, "generic", string(out.Stdout))
	})

	t.Run("non-zero exit code returns error", func(t *testing.T) {
		exec := &RecordingExecutor{
			Responses: map[string]Response{"adb": {Stderr: "no devices", ExitCode: 1}},
		}

		out, err := exec.Run(context.Background(), "adb", "reboot")
		require.Error(t, err)
		assert.Equal(t, 1, out.ExitCode)
		assert.Equal(t, "no devices", string(out.Stderr))
	})

	t.Run("returns configured error", func(t *testing.T) {
		expectedErr := errors.New("permission denied")
		exec := &RecordingExecutor{
			Responses: map[string]Response{"adb": {Err: expectedErr}},
		}

		_, err := exec.Run(context.Background(), "adb", "devices")
		assert.Equal(t, expectedErr, err)
	})

	t.Run("stream writes scripted output", func(t *testing.T) {
		exec := &RecordingExecutor{
			Responses: map[string]Response{"adb logcat": {Stdout: "a\nb\n"}},
		}

		var buf bytes.Buffer
		require.NoError(t, exec.RunStream(context.Background(), &buf, &buf, "adb", "logcat"))
		assert.Equal(t, "a\nb\n", buf.String())
	})

	t.Run("reset clears commands", func(t *testing.T) {
		exec := &RecordingExecutor{}

		_, _ = exec.Run(context.Background(), "adb", "devices")
		require.Len(t, exec.Recorded(), 1)

		exec.Reset()
		assert.Empty(t, exec.Recorded())
	})
}
