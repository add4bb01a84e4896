package dispatch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hay-kot/adbdeck/pkg/executil"
)

var testTools = Tools{ADB: "adb", Fastboot: "fastboot"}

func TestNewRequest(t *testing.T) {
	t.Run("adb without arguments is valid", func(t *testing.T) {
		req, err := NewRequest(ADB, "Devices")
		require.NoError(t, err)
		assert.Empty(t, req.Args())
		assert.NotEmpty(t, req.ID())
	})

	t.Run("fastboot without arguments is rejected", func(t *testing.T) {
		_, err := NewRequest(Fastboot, "Fastboot")
		require.ErrorIs(t, err, ErrEmptyCommand)
	})

	t.Run("arguments are copied", func(t *testing.T) {
		args := []string{"reboot", "recovery"}
		req, err := NewRequest(ADB, "Recovery", args...)
		require.NoError(t, err)

		args[1] = "bootloader"
		assert.Equal(t, []string{"reboot", "recovery"}, req.Args())

		got := req.Args()
		got[0] = "mutated"
		assert.Equal(t, "reboot", req.Args()[0])
	})

	t.Run("label defaults to tool name", func(t *testing.T) {
		req := MustRequest(Fastboot, "", "devices")
		assert.Equal(t, "fastboot", req.Label())
		assert.Equal(t, "fastboot devices", req.CommandLine())
	})

	t.Run("ids are unique", func(t *testing.T) {
		a := MustRequest(ADB, "a", "devices")
		b := MustRequest(ADB, "b", "devices")
		assert.NotEqual(t, a.ID(), b.ID())
	})
}

func TestDispatcher_Run(t *testing.T) {
	tests := []struct {
		name     string
		resp     executil.Response
		wantKind Kind
		wantCode int
	}{
		{
			name:     "success",
			resp:     executil.Response{Stdout: "ok\n"},
			wantKind: KindOK,
			wantCode: 0,
		},
		{
			name:     "non-zero exit",
			resp:     executil.Response{Stderr: "error: no devices/emulators found", ExitCode: 1},
			wantKind: KindExit,
			wantCode: 1,
		},
		{
			name:     "launch failure",
			resp:     executil.Response{Err: errors.New("fork/exec adb: permission denied")},
			wantKind: KindLaunch,
			wantCode: LaunchFailedCode,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &executil.RecordingExecutor{
				Responses: map[string]executil.Response{"adb": tt.resp},
			}
			d := New(rec, testTools, Options{})

			req := MustRequest(ADB, "Reboot", "reboot")
			res := d.Run(context.Background(), req)

			assert.Equal(t, tt.wantKind, res.Kind)
			assert.Equal(t, tt.wantCode, res.ExitCode)
			assert.Equal(t, res.ExitCode == 0, res.Succeeded())
			assert.Equal(t, req.ID(), res.RequestID)
			assert.Equal(t, "Reboot", res.Label)
			assert.False(t, res.Finished.Before(res.Started))

			require.Len(t, rec.Commands, 1)
			assert.Equal(t, "adb reboot", rec.Commands[0].Line())
		})
	}
}

func TestDispatcher_RunLaunchFailureCarriesErrorText(t *testing.T) {
	d := New(&executil.RealExecutor{}, Tools{ADB: "/nonexistent/adb-12345"}, Options{})

	res := d.Run(context.Background(), MustRequest(ADB, "Devices", "devices"))

	assert.Equal(t, KindLaunch, res.Kind)
	assert.Equal(t, LaunchFailedCode, res.ExitCode)
	assert.False(t, res.Succeeded())
	require.Error(t, res.Err)
	assert.Contains(t, res.Stderr, "adb-12345")
}

func TestDispatcher_RunInvalidRequest(t *testing.T) {
	rec := &executil.RecordingExecutor{}
	d := New(rec, testTools, Options{})

	res := d.Run(context.Background(), Request{})

	assert.Equal(t, KindInvalid, res.Kind)
	assert.False(t, res.Succeeded())
	assert.Empty(t, rec.Commands, "invalid requests must not launch")
}

func TestDispatcher_RunRealProcess(t *testing.T) {
	d := New(&executil.RealExecutor{}, Tools{ADB: "sh"}, Options{})

	res := d.Run(context.Background(), MustRequest(ADB, "Script", "-c", "echo out; echo err >&2; exit 4"))

	assert.Equal(t, KindExit, res.Kind)
	assert.Equal(t, 4, res.ExitCode)
	assert.Equal(t, "out\n", res.Stdout)
	assert.Equal(t, "err\n", res.Stderr)
	assert.Equal(t, "out\nerr", res.Combined())
}

func TestDispatcher_UsesFastbootPath(t *testing.T) {
	rec := &executil.RecordingExecutor{}
	d := New(rec, Tools{ADB: "/opt/adb", Fastboot: "/opt/fastboot"}, Options{})

	d.Run(context.Background(), MustRequest(Fastboot, "Flash", "flash", "boot", "boot.img"))

	require.Len(t, rec.Commands, 1)
	assert.Equal(t, "/opt/fastboot", rec.Commands[0].Cmd)
}

func TestDispatcher_SubmitConcurrentResultsAreAttributable(t *testing.T) {
	var started sync.WaitGroup
	started.Add(2)
	release := make(chan struct{})

	rec := &executil.RecordingExecutor{
		Responses: map[string]executil.Response{
			"adb reboot":            {Stdout: "rebooting"},
			"adb reboot bootloader": {Stdout: "to bootloader"},
		},
		Hook: func(context.Context, executil.RecordedCommand) {
			started.Done()
			<-release
		},
	}
	d := New(rec, testTools, Options{MaxWorkers: 2})

	reqA := MustRequest(ADB, "Reboot", "reboot")
	reqB := MustRequest(ADB, "Bootloader", "reboot", "bootloader")
	taskA := d.Submit(context.Background(), reqA)
	taskB := d.Submit(context.Background(), reqB)

	waitOrFail(t, &started)
	assert.Equal(t, 2, d.InFlight())
	close(release)

	resA := taskA.Wait()
	resB := taskB.Wait()

	assert.Equal(t, reqA.ID(), resA.RequestID)
	assert.Equal(t, "Reboot", resA.Label)
	assert.Equal(t, "rebooting", resA.Stdout)
	assert.True(t, resA.Succeeded())

	assert.Equal(t, reqB.ID(), resB.RequestID)
	assert.Equal(t, "Bootloader", resB.Label)
	assert.Equal(t, "to bootloader", resB.Stdout)
	assert.True(t, resB.Succeeded())

	assert.Equal(t, 0, d.InFlight())
}

func TestDispatcher_PoolBoundsConcurrency(t *testing.T) {
	first := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once

	rec := &executil.RecordingExecutor{
		Hook: func(context.Context, executil.RecordedCommand) {
			once.Do(func() { close(first) })
			<-release
		},
	}
	d := New(rec, testTools, Options{MaxWorkers: 1})
	assert.Equal(t, 1, d.Workers())

	t1 := d.Submit(context.Background(), MustRequest(ADB, "one", "devices"))
	t2 := d.Submit(context.Background(), MustRequest(ADB, "two", "devices"))

	<-first
	require.Eventually(t, func() bool { return d.Queued() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, d.InFlight())

	close(release)
	assert.True(t, t1.Wait().Succeeded())
	assert.True(t, t2.Wait().Succeeded())
	assert.Equal(t, 0, d.Queued())
}

func TestDispatcher_CancelQueuedTaskStillProducesResult(t *testing.T) {
	release := make(chan struct{})
	rec := &executil.RecordingExecutor{
		Hook: func(context.Context, executil.RecordedCommand) { <-release },
	}
	d := New(rec, testTools, Options{MaxWorkers: 1})

	running := d.Submit(context.Background(), MustRequest(ADB, "running", "devices"))
	require.Eventually(t, func() bool { return d.InFlight() == 1 }, time.Second, 5*time.Millisecond)

	queued := d.Submit(context.Background(), MustRequest(ADB, "queued", "reboot"))
	queued.Cancel()

	res := queued.Wait()
	assert.Equal(t, KindCanceled, res.Kind)
	assert.Equal(t, CanceledCode, res.ExitCode)
	assert.Equal(t, queued.ID(), res.RequestID)

	close(release)
	running.Wait()
	assert.Len(t, rec.Recorded(), 1, "cancelled task must never launch")
}

func TestDispatcher_TimeoutKillsProcess(t *testing.T) {
	d := New(&executil.RealExecutor{}, Tools{ADB: "sh"}, Options{Timeout: 100 * time.Millisecond})

	start := time.Now()
	res := d.Do(context.Background(), MustRequest(ADB, "Hang", "-c", "sleep 10"))

	assert.Equal(t, KindCanceled, res.Kind)
	assert.False(t, res.Succeeded())
	assert.ErrorIs(t, res.Err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestDispatcher_ExactlyOneResultPerSubmit(t *testing.T) {
	rec := &executil.RecordingExecutor{
		Responses: map[string]executil.Response{
			"adb fail": {ExitCode: 2},
			"adb boom": {Err: errors.New("boom")},
		},
	}
	d := New(rec, testTools, Options{MaxWorkers: 3})

	argsets := [][]string{{"ok"}, {"fail"}, {"boom"}, {"ok"}, {"fail"}, {"boom"}}
	tasks := make([]*Task, 0, len(argsets))
	for _, args := range argsets {
		tasks = append(tasks, d.Submit(context.Background(), MustRequest(ADB, args[0], args...)))
	}

	seen := map[string]bool{}
	for _, task := range tasks {
		res := task.Wait()
		assert.Equal(t, task.ID(), res.RequestID)
		assert.Equal(t, res.ExitCode == 0, res.Succeeded())
		assert.False(t, seen[res.RequestID], "duplicate result")
		seen[res.RequestID] = true
	}
	assert.Len(t, seen, len(argsets))
}

func waitOrFail(t *testing.T, wg *sync.WaitGroup) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for concurrent dispatches")
	}
}

func TestTarget(t *testing.T) {
	assert.Equal(t, []string{"reboot"}, Target("", "reboot"))
	assert.Equal(t, []string{"-s", "emulator-5554", "reboot", "recovery"}, Target("emulator-5554", "reboot", "recovery"))
	assert.Empty(t, Target(""))
}
