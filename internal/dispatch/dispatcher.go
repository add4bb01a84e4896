package dispatch

import (
	"context"
	"errors"
	"os/exec"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/hay-kot/adbdeck/internal/core/logging"
	"github.com/hay-kot/adbdeck/internal/core/metrics"
	"github.com/hay-kot/adbdeck/pkg/executil"
)

// DefaultStreamBuffer is the line channel capacity used when none is configured.
const DefaultStreamBuffer = 256

// Options configures a Dispatcher.
type Options struct {
	// MaxWorkers bounds concurrently running processes for Submit and Do.
	MaxWorkers int
	// Timeout applies to every submitted task. Zero disables it.
	Timeout time.Duration
	// StreamBuffer is the capacity of a Stream's line channel.
	StreamBuffer int
	// Metrics may be nil.
	Metrics *metrics.Collectors
}

// Dispatcher runs requests against the resolved tools.
type Dispatcher struct {
	exec   executil.Executor
	tools  Tools
	opts   Options
	pool   *WorkerPool
	logger zerolog.Logger

	inFlight atomic.Int64
	queued   atomic.Int64
}

// New creates a Dispatcher.
func New(exec executil.Executor, tools Tools, opts Options) *Dispatcher {
	if opts.StreamBuffer <= 0 {
		opts.StreamBuffer = DefaultStreamBuffer
	}
	return &Dispatcher{
		exec:   exec,
		tools:  tools,
		opts:   opts,
		pool:   NewWorkerPool(opts.MaxWorkers),
		logger: logging.Component("dispatch"),
	}
}

// Tools returns the executable table the dispatcher was built with.
func (d *Dispatcher) Tools() Tools {
	return d.tools
}

// InFlight is the number of external processes currently running.
func (d *Dispatcher) InFlight() int {
	return int(d.inFlight.Load())
}

// Queued is the number of submitted tasks waiting for a worker slot.
func (d *Dispatcher) Queued() int {
	return int(d.queued.Load())
}

// Workers is the pool size.
func (d *Dispatcher) Workers() int {
	return d.pool.Size()
}

// Run executes req on the calling goroutine and blocks until the process
// exits. It always returns a Result; launch and validation failures are
// reported through Result.Kind rather than a separate error.
func (d *Dispatcher) Run(ctx context.Context, req Request) Result {
	res := newResult(req)
	if err := req.validate(); err != nil {
		return res.fail(KindInvalid, InvalidCode, err)
	}

	ctx = logging.WithRequestID(ctx, req.id)
	logger := logging.Command(d.logger, req.tool.String(), req.label)
	logger.Debug().Ctx(ctx).Strs("args", req.args).Msg("dispatch started")

	d.inFlight.Add(1)
	d.opts.Metrics.AddInFlight(1)
	d.opts.Metrics.IncIssued(req.tool.String())

	out, err := d.exec.Run(ctx, d.tools.Path(req.tool), req.args...)

	d.inFlight.Add(-1)
	d.opts.Metrics.AddInFlight(-1)

	res.Stdout = string(out.Stdout)
	res.Stderr = string(out.Stderr)
	res.ExitCode = out.ExitCode
	res.Finished = time.Now()

	switch {
	case err == nil:
		res.Kind = KindOK
		res.ExitCode = 0
	case ctx.Err() != nil:
		res = res.fail(KindCanceled, CanceledCode, ctx.Err())
	case isExit(err, out):
		res.Kind = KindExit
		res.Err = err
		if res.ExitCode == 0 {
			res.ExitCode = LaunchFailedCode
		}
	default:
		res = res.fail(KindLaunch, LaunchFailedCode, err)
	}

	d.opts.Metrics.ObserveResult(req.tool.String(), string(res.Kind), res.Duration())

	level := zerolog.InfoLevel
	if !res.Succeeded() {
		level = zerolog.WarnLevel
	}
	logger.WithLevel(level).
		Ctx(ctx).
		Err(res.Err).
		Strs("args", req.args).
		Str("kind", string(res.Kind)).
		Int("exit_code", res.ExitCode).
		Dur("duration", res.Duration()).
		Msg("dispatch finished")

	return res
}

func isExit(err error, out executil.Output) bool {
	var exitErr *exec.ExitError
	return errors.As(err, &exitErr) || out.ExitCode > 0
}

// Task is a submitted request running in the background.
type Task struct {
	req    Request
	cancel context.CancelFunc
	done   chan struct{}
	result Result
}

// ID is the request ID.
func (t *Task) ID() string { return t.req.id }

// Request returns the submitted request.
func (t *Task) Request() Request { return t.req }

// Done is closed once the result is available.
func (t *Task) Done() <-chan struct{} { return t.done }

// Cancel stops the task. A queued task never launches; a running task has
// its process killed. The task still produces a Result.
func (t *Task) Cancel() { t.cancel() }

// Wait blocks until the task finishes and returns its result.
func (t *Task) Wait() Result {
	<-t.done
	return t.result
}

// Submit schedules req on the worker pool and returns immediately.
func (d *Dispatcher) Submit(ctx context.Context, req Request) *Task {
	ctx, cancel := d.taskContext(ctx)
	t := &Task{
		req:    req,
		cancel: cancel,
		done:   make(chan struct{}),
	}

	d.queued.Add(1)
	d.opts.Metrics.AddQueued(1)

	go func() {
		defer close(t.done)
		defer cancel()

		err := d.pool.Acquire(ctx)
		d.queued.Add(-1)
		d.opts.Metrics.AddQueued(-1)

		if err != nil {
			t.result = newResult(req).fail(KindCanceled, CanceledCode, err)
			d.logger.Info().Str("request_id", req.id).Str("label", req.label).Msg("dispatch cancelled while queued")
		} else {
			t.result = d.Run(ctx, req)
			d.pool.Release()
		}
	}()

	return t
}

// Do submits req and waits for its result. Unlike Run it respects the
// worker pool bound and the configured timeout.
func (d *Dispatcher) Do(ctx context.Context, req Request) Result {
	return d.Submit(ctx, req).Wait()
}

func (d *Dispatcher) taskContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if d.opts.Timeout > 0 {
		return context.WithTimeout(ctx, d.opts.Timeout)
	}
	return context.WithCancel(ctx)
}
