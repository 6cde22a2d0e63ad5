package render

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

// PoolMetrics is a snapshot of frame-pool counters.
type PoolMetrics struct {
	InFlight  int64 `json:"in_flight"`
	Evaluated int64 `json:"evaluated"`
	Failed    int64 `json:"failed"`
	Panics    int64 `json:"panics"`
}

// ErrPoolShutdown is returned when a frame is submitted to a shut-down pool.
var ErrPoolShutdown = errors.New("frame pool is shut down")

// framePool bounds concurrent frame evaluation with a semaphore. Submit
// blocks for backpressure when all slots are busy; a panicking frame job is
// recovered and counted instead of taking the process down.
type framePool struct {
	sem     chan struct{}
	wg      sync.WaitGroup
	metrics PoolMetrics
	mu      sync.Mutex
	done    chan struct{}
	closed  bool
}

func newFramePool(workers int) *framePool {
	if workers <= 0 {
		workers = 1
	}
	return &framePool{
		sem:  make(chan struct{}, workers),
		done: make(chan struct{}),
	}
}

// submit runs one frame job on the pool. It blocks while the pool is at
// capacity, honoring ctx cancellation and shutdown while waiting.
func (p *framePool) submit(ctx context.Context, job func(ctx context.Context) error) error {
	select {
	case p.sem <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	case <-p.done:
		return ErrPoolShutdown
	}

	// wg.Add must happen under the lock so close cannot race wg.Wait.
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		<-p.sem
		return ErrPoolShutdown
	}
	p.wg.Add(1)
	atomic.AddInt64(&p.metrics.InFlight, 1)
	p.mu.Unlock()

	go func() {
		defer func() {
			if r := recover(); r != nil {
				atomic.AddInt64(&p.metrics.Panics, 1)
				atomic.AddInt64(&p.metrics.Failed, 1)
			}
			atomic.AddInt64(&p.metrics.InFlight, -1)
			<-p.sem
			p.wg.Done()
		}()
		if err := job(ctx); err != nil {
			atomic.AddInt64(&p.metrics.Failed, 1)
		} else {
			atomic.AddInt64(&p.metrics.Evaluated, 1)
		}
	}()
	return nil
}

// close stops accepting frames and waits for in-flight ones to finish.
func (p *framePool) close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.done)
	p.mu.Unlock()
	p.wg.Wait()
}

func (p *framePool) snapshot() PoolMetrics {
	return PoolMetrics{
		InFlight:  atomic.LoadInt64(&p.metrics.InFlight),
		Evaluated: atomic.LoadInt64(&p.metrics.Evaluated),
		Failed:    atomic.LoadInt64(&p.metrics.Failed),
		Panics:    atomic.LoadInt64(&p.metrics.Panics),
	}
}
