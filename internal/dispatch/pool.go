package dispatch

import "context"

// DefaultWorkers is the pool size used when none is configured.
const DefaultWorkers = 4

// WorkerPool limits how many external processes run at once.
type WorkerPool struct {
	sem chan struct{}
}

// NewWorkerPool creates a new worker pool with the given size.
func NewWorkerPool(size int) *WorkerPool {
	if size <= 0 {
		size = DefaultWorkers
	}
	return &WorkerPool{
		sem: make(chan struct{}, size),
	}
}

// Acquire blocks until a worker slot is available or ctx is done.
func (p *WorkerPool) Acquire(ctx context.Context) error {
	select {
	case p.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release returns a worker slot to the pool.
func (p *WorkerPool) Release() {
	<-p.sem
}

// Size is the maximum number of concurrent workers.
func (p *WorkerPool) Size() int {
	return cap(p.sem)
}

// Busy is the number of slots currently held.
func (p *WorkerPool) Busy() int {
	return len(p.sem)
}
