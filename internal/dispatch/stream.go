package dispatch

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/hay-kot/adbdeck/internal/core/logging"
)

// ErrStreamClosed is reported by Wait when the consumer detached with Close.
var ErrStreamClosed = errors.New("stream closed")

// maxLineSize bounds a single captured line. Longer lines are delivered as
// consecutive chunks of at most maxLineSize bytes.
const maxLineSize = 1024 * 1024

// Stream is a running process whose merged stdout and stderr are delivered
// line by line. A Stream is not restartable.
type Stream struct {
	req    Request
	lines  chan string
	cancel context.CancelFunc
	pr     *io.PipeReader

	done    chan struct{} // closed when the process has been reaped
	read    chan struct{} // closed when the output pipe has been drained
	stop    chan struct{} // closed by Close
	err     error
	readErr error
	closeMu sync.Once
}

// Stream launches req and begins forwarding output lines. Launch failures
// surface through Wait after Lines is closed.
func (d *Dispatcher) Stream(ctx context.Context, req Request) (*Stream, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(logging.WithRequestID(ctx, req.id))
	pr, pw := io.Pipe()

	s := &Stream{
		req:    req,
		lines:  make(chan string, d.opts.StreamBuffer),
		cancel: cancel,
		pr:     pr,
		done:   make(chan struct{}),
		read:   make(chan struct{}),
		stop:   make(chan struct{}),
	}

	logger := logging.Command(d.logger, req.tool.String(), req.label)
	logger.Debug().Ctx(ctx).Strs("args", req.args).Msg("stream started")
	d.opts.Metrics.AddStreams(1)
	d.opts.Metrics.IncIssued(req.tool.String())

	go func() {
		defer close(s.done)
		defer d.opts.Metrics.AddStreams(-1)

		// Passing pw for both writers merges stdout and stderr in arrival order.
		err := d.exec.RunStream(ctx, pw, pw, d.tools.Path(req.tool), req.args...)
		_ = pw.Close()

		if ctx.Err() != nil {
			err = ErrStreamClosed
		}
		cancel()
		s.err = err
		logger.Debug().Ctx(ctx).Err(err).Msg("stream finished")
	}()

	go func() {
		defer close(s.read)
		defer close(s.lines)
		s.readErr = s.forward()
	}()

	return s, nil
}

// forward reads the pipe to EOF, sending each line to Lines. Once the
// consumer is gone it keeps draining so the process never blocks on a full
// pipe.
func (s *Stream) forward() error {
	br := bufio.NewReaderSize(s.pr, maxLineSize)
	detached := false
	split := false

	for {
		line, prefix, err := br.ReadLine()
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, ErrStreamClosed) {
				return nil
			}
			_ = s.pr.CloseWithError(err)
			return err
		}

		// A chunk that filled the buffer exactly leaves an empty tail.
		tail := split && len(line) == 0
		split = prefix
		if tail || detached {
			continue
		}

		select {
		case s.lines <- string(line):
		case <-s.stop:
			detached = true
		}
	}
}

// Request returns the streamed request.
func (s *Stream) Request() Request { return s.req }

// Lines delivers output lines in arrival order. The channel is closed when
// the process exits or the stream is closed.
func (s *Stream) Lines() <-chan string { return s.lines }

// Close kills the process and discards any output not yet consumed. It is
// safe to call more than once and from any goroutine.
func (s *Stream) Close() {
	s.closeMu.Do(func() {
		close(s.stop)
		s.cancel()
		_ = s.pr.CloseWithError(ErrStreamClosed)
	})
	<-s.done
}

// Wait blocks until the process has been reaped and returns its error. A
// process that exited zero returns nil; a detached stream returns
// ErrStreamClosed. The caller must drain Lines or call Close first.
func (s *Stream) Wait() error {
	<-s.done
	<-s.read
	if s.err == nil && s.readErr != nil {
		return fmt.Errorf("reading output: %w", s.readErr)
	}
	return s.err
}
